package render

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/phil-mansfield/diffgrowth/growth"
	"github.com/phil-mansfield/diffgrowth/polyline"
	"gonum.org/v1/gonum/spatial/r3"
)

// Terminal cells are about twice as tall as they are wide.
const cellAspect = 2

// Viewer draws snapshots onto a terminal screen, projected onto the XY
// plane.
type Viewer struct {
	screen tcell.Screen

	lineStyle, vertexStyle, textStyle tcell.Style
}

func NewViewer(screen tcell.Screen) *Viewer {
	return &Viewer{
		screen:      screen,
		lineStyle:   tcell.StyleDefault.Foreground(tcell.ColorGreen),
		vertexStyle: tcell.StyleDefault.Foreground(tcell.ColorYellow),
		textStyle:   tcell.StyleDefault.Foreground(tcell.ColorWhite),
	}
}

// cellMap converts positions to screen cells.
type cellMap struct {
	minX, minY, scale float64
	w, h              int
}

func newCellMap(snap *growth.Snapshot, w, h int) cellMap {
	b := snap.Bounds()
	span := b.Span()
	cm := cellMap{minX: b.Min.X, minY: b.Min.Y, w: w, h: h}

	sx, sy := math.Inf(1), math.Inf(1)
	if span.X > 0 {
		sx = float64(w-1) / (cellAspect * span.X)
	}
	if span.Y > 0 {
		sy = float64(h-1) / span.Y
	}
	cm.scale = math.Min(sx, sy)
	if math.IsInf(cm.scale, 1) {
		// A single point, which goes in the middle of the screen.
		cm.scale = 1
		cm.minX -= float64(w-1) / (2 * cellAspect)
		cm.minY -= float64(h-1) / 2
	}
	return cm
}

func (cm cellMap) cell(p r3.Vec) (x, y int) {
	x = int(math.Round(cellAspect * (p.X - cm.minX) * cm.scale))
	y = cm.h - 1 - int(math.Round((p.Y-cm.minY)*cm.scale))
	return x, y
}

func (v *Viewer) set(x, y int, r rune, style tcell.Style, h int) {
	w, _ := v.screen.Size()
	if x >= 0 && x < w && y >= 0 && y < h {
		v.screen.SetContent(x, y, r, nil, style)
	}
}

// line draws a segment between two cells with a simple DDA.
func (v *Viewer) line(x0, y0, x1, y1, h int) {
	n := max(abs(x1-x0), abs(y1-y0))
	for i := 1; i < n; i++ {
		t := float64(i) / float64(n)
		x := int(math.Round(float64(x0) + t*float64(x1-x0)))
		y := int(math.Round(float64(y0) + t*float64(y1-y0)))
		v.set(x, y, '.', v.lineStyle, h)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (v *Viewer) text(x, y int, s string) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, v.textStyle)
		x++
	}
}

// Draw clears the screen and draws snap above a one-line status bar.
func (v *Viewer) Draw(snap *growth.Snapshot, status string) {
	v.screen.Clear()
	w, h := v.screen.Size()
	plotH := h - 1
	if w < 2 || plotH < 2 {
		v.screen.Show()
		return
	}

	if snap.Len() > 0 {
		cm := newCellMap(snap, w, plotH)
		xs, ys := make([]int, snap.Len()), make([]int, snap.Len())
		for i, p := range snap.Positions {
			xs[i], ys[i] = cm.cell(p)
		}

		switch snap.Variant {
		case growth.Mesh:
			for _, t := range snap.Triangles {
				for i := range t {
					a, b := t[i], t[(i+1)%3]
					v.line(xs[a], ys[a], xs[b], ys[b], plotH)
				}
			}
		case growth.Curve:
			line := polyline.New(snap.Positions, snap.Closed)
			for k := 0; k < line.SegmentCount(); k++ {
				a, b := line.Segment(k)
				v.line(xs[a], ys[a], xs[b], ys[b], plotH)
			}
		}
		for i := range xs {
			v.set(xs[i], ys[i], 'o', v.vertexStyle, plotH)
		}
	}

	v.text(0, h-1, status)
	v.screen.Show()
}

// Status returns the status line shown under a snapshot.
func Status(snap *growth.Snapshot, paused bool) string {
	s := fmt.Sprintf("%s  step %d  elements %d", snap.Variant, snap.Step,
		snap.Len())
	if paused {
		s += "  [paused]"
	}
	return s + "  (space: pause, q: quit)"
}

type viewAction int

const (
	viewNone viewAction = iota
	viewQuit
	viewPause
	viewResize
)

func viewEvent(ev tcell.Event) viewAction {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return viewQuit
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return viewQuit
		case ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
			return viewPause
		}
	case *tcell.EventResize:
		return viewResize
	}
	return viewNone
}

// Run steps sim up to steps times, drawing after every step and waiting
// delay between steps. Once the run is over the final state stays on
// screen until the user quits. Run returns the number of steps taken.
func (v *Viewer) Run(
	sim *growth.Simulation, steps int, delay time.Duration,
) (int, error) {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	if delay <= 0 {
		delay = time.Millisecond
	}
	done, paused, finished := 0, false, false
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	snap := sim.Snapshot()
	v.Draw(snap, Status(snap, paused))
	for {
		select {
		case ev := <-events:
			switch viewEvent(ev) {
			case viewQuit:
				return done, nil
			case viewPause:
				paused = !paused
			case viewResize:
				v.screen.Sync()
			}
		case <-ticker.C:
			if paused || finished {
				continue
			}
			rep, err := sim.Step(nil)
			if err != nil {
				return done, err
			}
			if !rep.Capped {
				done++
			}
			finished = rep.Capped || done >= steps
		}

		snap = sim.Snapshot()
		v.Draw(snap, Status(snap, paused))
	}
}
