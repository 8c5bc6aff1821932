package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/phil-mansfield/diffgrowth/growth"
)

const (
	dashboardFPS     = 30
	dashboardHistory = 200
	graphHeight      = 8
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type TickMsg time.Time

// Dashboard is a terminal UI which steps a simulation and shows its
// progress.
type Dashboard struct {
	sim         *growth.Simulation
	steps, done int
	paused      bool
	finished    bool
	err         error
	last        growth.StepReport
	counts      []float64
	progress    progress.Model
	spring      harmonica.Spring
	rate, rateV float64
	width       int
}

// NewDashboard returns a dashboard which runs sim for the given number of
// steps.
func NewDashboard(sim *growth.Simulation, steps int) Dashboard {
	p := progress.New(
		progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
		progress.WithoutPercentage(),
	)
	p.Width = 40
	return Dashboard{
		sim:      sim,
		steps:    steps,
		counts:   []float64{float64(sim.Len())},
		progress: p,
		spring:   harmonica.NewSpring(harmonica.FPS(dashboardFPS), 6.0, 1.0),
		width:    80,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/dashboardFPS, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Dashboard) Init() tea.Cmd { return tick() }

// Err returns the error which stopped the run, if any.
func (m Dashboard) Err() error { return m.err }

// Done returns the number of steps taken.
func (m Dashboard) Done() int { return m.done }

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(10, min(60, msg.Width-20))
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		}
	case TickMsg:
		if !m.paused && !m.finished {
			m.advance()
		}
		if m.finished {
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

// advance takes one simulation step and updates the smoothed growth rate.
func (m *Dashboard) advance() {
	rep, err := m.sim.Step(nil)
	if err != nil {
		m.err, m.finished = err, true
		return
	}

	m.last = *rep
	prev := m.counts[len(m.counts)-1]
	if !rep.Capped {
		m.done++
		m.counts = append(m.counts, float64(rep.Elements))
		if len(m.counts) > dashboardHistory {
			m.counts = m.counts[len(m.counts)-dashboardHistory:]
		}
	}
	m.rate, m.rateV = m.spring.Update(
		m.rate, m.rateV, float64(rep.Elements)-prev,
	)

	m.finished = rep.Capped || m.done >= m.steps
}

func (m Dashboard) row(label, format string, args ...interface{}) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render(label),
		valueStyle.Render(fmt.Sprintf(format, args...)),
	)
}

func (m Dashboard) View() string {
	b := &strings.Builder{}
	p := m.sim.Params()

	b.WriteString(headerStyle.Render(
		fmt.Sprintf("Differential growth: %s (%s)", p.Variant, p.Mode),
	))
	b.WriteString("\n")

	frac := 0.0
	if m.steps > 0 {
		frac = float64(m.done) / float64(m.steps)
	}
	b.WriteString(m.progress.ViewAs(frac))
	b.WriteString(fmt.Sprintf("  %d/%d\n", m.done, m.steps))

	stats := []string{
		m.row("Elements", "%d / %d", m.sim.Len(), p.MaxElementCount),
		m.row("Edges", "%d", m.last.Edges),
		m.row("Growth", "%.2f per step", m.rate),
		m.row("Splits", "%d", m.last.Splits),
		m.row("Flips", "%d", m.last.Flips),
		m.row("Inserts", "%d", m.last.Inserts),
		m.row("Rejected", "%d", m.last.Rejected),
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, stats...))
	b.WriteString("\n")

	if len(m.counts) > 1 {
		graph := asciigraph.Plot(m.counts,
			asciigraph.Height(graphHeight),
			asciigraph.Width(max(10, min(len(m.counts), m.width-12))),
			asciigraph.Caption("Elements"),
		)
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	case m.last.Capped:
		b.WriteString(valueStyle.Render("Reached MaxElementCount."))
	}

	help := "space: pause  q: quit"
	if m.paused {
		help = "paused  " + help
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}
