package render

import (
	"math"
	"strings"

	"github.com/phil-mansfield/diffgrowth/geom"
	"github.com/phil-mansfield/diffgrowth/growth"
	"github.com/phil-mansfield/diffgrowth/polyline"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

type HistInfo struct {
	Min, Max float64
	Bins     int
	Scale    string
}

// Hist is a histogram of some quantity measured over a snapshot.
type Hist struct {
	Centers []float64
	Counts  []int
}

func (h *Hist) floatCounts() []float64 {
	ns := make([]float64, len(h.Counts))
	for i := range ns {
		ns[i] = float64(h.Counts[i])
	}
	return ns
}

func (info *HistInfo) check() error {
	isLog := strings.ToLower(info.Scale) == "log"
	switch {
	case info.Bins <= 0:
		return errors.Errorf("Bins must be positive, but it is %d.", info.Bins)
	case !(info.Max > info.Min):
		return errors.Errorf("Max, %g, must be larger than Min, %g.",
			info.Max, info.Min)
	case isLog && info.Min <= 0:
		return errors.Errorf("Log histograms need a positive Min, but it "+
			"is %g.", info.Min)
	}
	return nil
}

// histCenters returns the centers of a histogram.
func histCenters(info *HistInfo) []float64 {
	min, max := info.Min, info.Max

	isLog := strings.ToLower(info.Scale) == "log"
	if isLog {
		min, max = math.Log10(min), math.Log10(max)
	}

	dx := (max - min) / float64(info.Bins)

	centers := make([]float64, info.Bins)
	for i := range centers {
		centers[i] = min + dx*(float64(i)+0.5)
		if isLog {
			centers[i] = math.Pow(10, centers[i])
		}
	}

	return centers
}

// bin returns the bin that x falls in, or -1 if it is out of range.
func bin(info *HistInfo, x float64) int {
	min, max := info.Min, info.Max
	if strings.ToLower(info.Scale) == "log" {
		if x <= 0 {
			return -1
		}
		min, max, x = math.Log10(min), math.Log10(max), math.Log10(x)
	}
	if x < min || x >= max || math.IsNaN(x) {
		return -1
	}
	return int(float64(info.Bins) * (x - min) / (max - min))
}

// NewHist bins xs. Values outside [Min, Max) are dropped. Each worker
// fills its own histogram, and the results are merged at the end.
func NewHist(xs []float64, info *HistInfo, workers int) (*Hist, error) {
	if err := info.check(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	hists := make([][]int, workers)
	out := make(chan int, workers)
	for id := 0; id < workers; id++ {
		hists[id] = make([]int, info.Bins)
		go chanHistogram(id, workers, xs, info, hists[id], out)
	}

	h := &Hist{Centers: histCenters(info), Counts: make([]int, info.Bins)}
	for i := 0; i < workers; i++ {
		id := <-out
		for j := range h.Counts {
			h.Counts[j] += hists[id][j]
		}
	}
	return h, nil
}

// chanHistogram bins every workers-th element of xs, starting at worker,
// into hist. The worker ID is sent to out once it's done.
func chanHistogram(
	worker, workers int, xs []float64, info *HistInfo,
	hist []int, out chan<- int,
) {
	for i := worker; i < len(xs); i += workers {
		if b := bin(info, xs[i]); b >= 0 && b < len(hist) {
			hist[b]++
		}
	}
	out <- worker
}

// RadialDistances returns the distance of every element from the centroid
// of the snapshot.
func RadialDistances(snap *growth.Snapshot) []float64 {
	c := geom.Centroid(snap.Positions...)
	rs := make([]float64, snap.Len())
	for i, p := range snap.Positions {
		rs[i] = r3.Norm(r3.Sub(p, c))
	}
	return rs
}

// EdgeLengths returns the length of every mesh edge or curve segment.
// Points have no edges.
func EdgeLengths(snap *growth.Snapshot) []float64 {
	ps := snap.Positions
	switch snap.Variant {
	case growth.Mesh:
		ls := []float64{}
		seen := map[[2]int]bool{}
		for _, t := range snap.Triangles {
			for i := range t {
				a, b := t[i], t[(i+1)%3]
				if a > b {
					a, b = b, a
				}
				if !seen[[2]int{a, b}] {
					seen[[2]int{a, b}] = true
					ls = append(ls, r3.Norm(r3.Sub(ps[a], ps[b])))
				}
			}
		}
		return ls
	case growth.Curve:
		line := polyline.New(ps, snap.Closed)
		ls := make([]float64, line.SegmentCount())
		for k := range ls {
			a, b := line.Segment(k)
			ls[k] = r3.Norm(r3.Sub(ps[a], ps[b]))
		}
		return ls
	}
	return nil
}

// MaxOf returns the largest element of xs, or zero if it's empty.
func MaxOf(xs []float64) float64 {
	max := 0.0
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	return max
}
