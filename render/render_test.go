package render

import (
	"bytes"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gdamore/tcell/v2"
	"github.com/phil-mansfield/diffgrowth/growth"
	"github.com/phil-mansfield/diffgrowth/mesh"
	"github.com/phil-mansfield/diffgrowth/polyline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func ring(n int, r float64) []r3.Vec {
	ps := make([]r3.Vec, n)
	for i := range ps {
		th := 2 * math.Pi * float64(i) / float64(n)
		ps[i] = r3.Vec{X: r * math.Cos(th), Y: r * math.Sin(th)}
	}
	return ps
}

func curveSim(t *testing.T) *growth.Simulation {
	dom := growth.NewCurveDomain(polyline.New(ring(12, 3), true), nil)
	sim, err := growth.NewSimulation(dom, growth.DefaultParams(growth.Curve))
	require.NoError(t, err)
	return sim
}

func hexagonSnapshot() *growth.Snapshot {
	m := mesh.Hexagon(1)
	ps := m.Positions()
	rs := make([]float64, len(ps))
	for i := range rs {
		rs[i] = 1
	}
	return &growth.Snapshot{
		Variant: growth.Mesh, Positions: ps, Radii: rs,
		Triangles: m.Triangles(),
	}
}

func TestWriteSVG(t *testing.T) {
	table := []struct {
		snap          *growth.Snapshot
		lines, circles int
		paths, closes  int
	}{
		{hexagonSnapshot(), 12, 0, 0, 0},
		{&growth.Snapshot{
			Variant: growth.Curve, Closed: true,
			Positions: ring(5, 1), Radii: []float64{1, 1, 1, 1, 1},
		}, 0, 0, 1, 1},
		{&growth.Snapshot{
			Variant:   growth.Curve,
			Positions: ring(5, 1), Radii: []float64{1, 1, 1, 1, 1},
		}, 0, 0, 1, 0},
		{&growth.Snapshot{
			Variant:   growth.Points,
			Positions: ring(3, 1), Radii: []float64{1, 2, 1},
		}, 0, 3, 0, 0},
	}

	for i, test := range table {
		buf := &bytes.Buffer{}
		require.NoError(t, WriteSVG(buf, test.snap))
		out := buf.String()

		assert.True(t, strings.HasPrefix(out, `<?xml version="1.0"?>`), "%d", i)
		assert.True(t, strings.HasSuffix(out, "</svg>\n"), "%d", i)
		counts := []struct {
			name      string
			got, want int
		}{
			{"lines", strings.Count(out, "<line "), test.lines},
			{"circles", strings.Count(out, "<circle "), test.circles},
			{"paths", strings.Count(out, "<path "), test.paths},
			{"closes", strings.Count(out, " Z'"), test.closes},
		}
		for _, c := range counts {
			if c.got != c.want {
				t.Errorf("%d) expected %d %s, got %d", i, c.want, c.name, c.got)
			}
		}
	}
}

func TestViewBox(t *testing.T) {
	box := ViewBox(hexagonSnapshot(), 0.5)
	assert.InDelta(t, 3, box.Width(), 1e-12)
	assert.InDelta(t, math.Sqrt(3)+1, box.Height(), 1e-12)

	empty := ViewBox(&growth.Snapshot{}, 1)
	assert.Equal(t, 2.0, empty.Width())
}

func TestHist(t *testing.T) {
	xs := []float64{0.5, 1.5, 1.5, 2.5, 2.5, 2.5, -1, 3, math.NaN()}
	info := &HistInfo{Min: 0, Max: 3, Bins: 3}

	for _, workers := range []int{1, 2, 4, 16} {
		h, err := NewHist(xs, info, workers)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, h.Counts, "workers = %d", workers)
		assert.Equal(t, []float64{0.5, 1.5, 2.5}, h.Centers)
	}

	logInfo := &HistInfo{Min: 1, Max: 1000, Bins: 3, Scale: "Log"}
	h, err := NewHist([]float64{2, 20, 200, 0, -5}, logInfo, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1}, h.Counts)
	for i, c := range []float64{math.Sqrt(10), math.Sqrt(1000), math.Sqrt(1e5)} {
		assert.InDelta(t, c, h.Centers[i], 1e-9*c)
	}

	bad := []*HistInfo{
		{Min: 0, Max: 1, Bins: 0},
		{Min: 1, Max: 1, Bins: 3},
		{Min: 0, Max: 1, Bins: 3, Scale: "log"},
	}
	for i, info := range bad {
		if _, err := NewHist(xs, info, 1); err == nil {
			t.Errorf("%d) expected an error", i)
		}
	}
}

func TestEdgeLengths(t *testing.T) {
	ls := EdgeLengths(hexagonSnapshot())
	require.Len(t, ls, 12)
	for _, l := range ls {
		assert.InDelta(t, 1, l, 1e-12)
	}

	square := []r3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	open := &growth.Snapshot{Variant: growth.Curve, Positions: square}
	closed := &growth.Snapshot{
		Variant: growth.Curve, Positions: square, Closed: true,
	}
	assert.Len(t, EdgeLengths(open), 3)
	assert.Len(t, EdgeLengths(closed), 4)
	assert.Nil(t, EdgeLengths(&growth.Snapshot{Variant: growth.Points}))

	rs := RadialDistances(closed)
	for _, r := range rs {
		assert.InDelta(t, math.Sqrt(0.5), r, 1e-12)
	}

	h, err := plotHist(rs, 3)
	require.NoError(t, err)
	ns := h.floatCounts()
	require.Len(t, ns, 40)
	assert.Equal(t, 4.0, ns[39])

	// A single point has no spread to plot.
	single := &growth.Snapshot{Variant: growth.Points, Positions: square[:1]}
	assert.NoError(t, PlotRadialDistances(single, "unused.png", 1))
}

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(w, h)
	return screen
}

func screenRunes(screen tcell.Screen) map[rune]int {
	counts := map[rune]int{}
	w, h := screen.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := screen.GetContent(x, y)
			counts[r]++
		}
	}
	return counts
}

func TestViewerDraw(t *testing.T) {
	screen := newScreen(t, 80, 24)
	defer screen.Fini()
	v := NewViewer(screen)

	snap := hexagonSnapshot()
	v.Draw(snap, Status(snap, false))

	counts := screenRunes(screen)
	assert.Equal(t, 7, counts['o'])
	assert.True(t, counts['.'] > 0)

	status := ""
	for x := 0; x < 20; x++ {
		r, _, _, _ := screen.GetContent(x, 23)
		status += string(r)
	}
	assert.True(t, strings.HasPrefix(status, "Mesh  step 0"), status)

	// Everything lands on screen.
	cm := newCellMap(snap, 80, 23)
	for _, p := range snap.Positions {
		x, y := cm.cell(p)
		assert.True(t, x >= 0 && x < 80 && y >= 0 && y < 23, "%d %d", x, y)
	}
}

func TestViewerSinglePoint(t *testing.T) {
	screen := newScreen(t, 41, 22)
	defer screen.Fini()
	v := NewViewer(screen)

	snap := &growth.Snapshot{
		Variant: growth.Points, Positions: []r3.Vec{{X: 5, Y: 5}},
		Radii: []float64{1},
	}
	v.Draw(snap, "")
	r, _, _, _ := screen.GetContent(20, 10)
	assert.Equal(t, 'o', r)
}

func TestViewEvent(t *testing.T) {
	table := []struct {
		ev   tcell.Event
		want viewAction
	}{
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), viewQuit},
		{tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), viewQuit},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), viewQuit},
		{tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), viewPause},
		{tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), viewNone},
		{tcell.NewEventResize(80, 24), viewResize},
	}
	for i, test := range table {
		if got := viewEvent(test.ev); got != test.want {
			t.Errorf("%d) expected action %d, got %d", i, test.want, got)
		}
	}
}

func TestDashboard(t *testing.T) {
	sim := curveSim(t)
	var m tea.Model = NewDashboard(sim, 3)
	assert.NotNil(t, m.Init())

	var cmd tea.Cmd
	for i := 0; i < 3; i++ {
		m, cmd = m.Update(TickMsg{})
		require.NotNil(t, cmd)
	}
	d := m.(Dashboard)
	assert.Equal(t, 3, d.Done())
	assert.NoError(t, d.Err())
	assert.Equal(t, 3, sim.StepCount())
	assert.IsType(t, tea.QuitMsg{}, cmd())

	view := d.View()
	assert.Contains(t, view, "Curve")
	assert.Contains(t, view, "Elements")
	assert.Contains(t, view, "3/3")
}

func TestDashboardKeys(t *testing.T) {
	sim := curveSim(t)
	var m tea.Model = NewDashboard(sim, 10)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m, cmd := m.Update(TickMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, 0, sim.StepCount())
	assert.Contains(t, m.View(), "paused")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
