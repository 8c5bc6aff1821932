package render

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/diffgrowth/growth"
	plt "github.com/phil-mansfield/pyplot"
	"gonum.org/v1/gonum/spatial/r3"
)

var colors = []string{"k", "r", "b", "g", "m"}

// PlotSnapshot queues a plot of snap projected onto the XY plane. Nothing
// is drawn until Execute is called.
func PlotSnapshot(snap *growth.Snapshot, fname string) {
	plt.Figure(plt.FigSize(8, 8))

	switch snap.Variant {
	case growth.Curve:
		xs, ys := projectXY(snap.Positions)
		if snap.Closed && len(xs) > 0 {
			xs, ys = append(xs, xs[0]), append(ys, ys[0])
		}
		plt.Plot(xs, ys, "k", plt.LW(2))
	case growth.Mesh:
		for _, t := range snap.Triangles {
			xs, ys := projectXY([]r3.Vec{
				snap.Positions[t[0]], snap.Positions[t[1]],
				snap.Positions[t[2]], snap.Positions[t[0]],
			})
			plt.Plot(xs, ys, plt.C(colors[0]))
		}
	default:
		xs, ys := projectXY(snap.Positions)
		plt.Plot(xs, ys, "og")
	}

	plt.Title(fmt.Sprintf("%s: step %d, %d elements",
		snap.Variant, snap.Step, snap.Len()))
	plt.XLabel(`$X$`, plt.FontSize(16))
	plt.YLabel(`$Y$`, plt.FontSize(16))

	b := snap.Bounds()
	c, span := b.Center(), b.Span()
	rMax := math.Max(span.X, span.Y)/2 + MaxOf(snap.Radii)
	plt.XLim(c.X-rMax, c.X+rMax)
	plt.YLim(c.Y-rMax, c.Y+rMax)
	plt.SaveFig(fname)
}

// PlotEdgeLengths queues a histogram of the edge lengths of snap, with
// the collision radius marked. It does nothing for points.
func PlotEdgeLengths(snap *growth.Snapshot, fname string, workers int) error {
	ls := EdgeLengths(snap)
	if len(ls) == 0 {
		return nil
	}

	h, err := plotHist(ls, workers)
	if err != nil {
		return err
	}
	ns := h.floatCounts()

	plt.Figure()
	plt.Plot(h.Centers, ns, "k", plt.LW(2))
	r := MaxOf(snap.Radii)
	plt.Plot([]float64{r, r}, []float64{0, MaxOf(ns)}, plt.C(colors[1]))
	plt.Title(fmt.Sprintf("%s: step %d", snap.Variant, snap.Step))
	plt.XLabel(`Edge length`, plt.FontSize(16))
	plt.YLabel(`$N$`, plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
	return nil
}

// PlotRadialDistances queues a histogram of the distances of every element
// from the snapshot's centroid. It does nothing if every element sits on
// the centroid.
func PlotRadialDistances(snap *growth.Snapshot, fname string, workers int) error {
	rs := RadialDistances(snap)
	if MaxOf(rs) <= 0 {
		return nil
	}

	h, err := plotHist(rs, workers)
	if err != nil {
		return err
	}

	plt.Figure()
	plt.Plot(h.Centers, h.floatCounts(), "k", plt.LW(2))
	plt.Title(fmt.Sprintf("%s: step %d", snap.Variant, snap.Step))
	plt.XLabel(`$r$`, plt.FontSize(16))
	plt.YLabel(`$N$`, plt.FontSize(16))
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
	return nil
}

func plotHist(xs []float64, workers int) (*Hist, error) {
	info := &HistInfo{Min: 0, Max: 1.01 * MaxOf(xs), Bins: 40}
	return NewHist(xs, info, workers)
}

// PlotHistory queues a plot of the element count after each step.
func PlotHistory(history []int, fname string) {
	steps := make([]float64, len(history))
	ns := make([]float64, len(history))
	for i, n := range history {
		steps[i], ns[i] = float64(i), float64(n)
	}

	plt.Figure()
	plt.Plot(steps, ns, "k", plt.LW(2))
	plt.XLabel(`Step`, plt.FontSize(16))
	plt.YLabel(`Elements`, plt.FontSize(16))
	plt.YScale("log")
	plt.Grid(plt.Axis("y"), plt.Which("both"))
	plt.SaveFig(fname)
}

func projectXY(ps []r3.Vec) (xs, ys []float64) {
	xs, ys = make([]float64, len(ps)), make([]float64, len(ps))
	for i, p := range ps {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

// Execute draws every queued plot.
func Execute() {
	plt.Execute()
}
