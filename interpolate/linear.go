package interpolate

import (
	"github.com/pkg/errors"
)

// searcher finds the interval of a monotonically increasing table that
// contains a value.
type searcher struct {
	xs []float64
	// Cached result of the last search. Successive lookups are usually
	// close to one another.
	last int
}

func (s *searcher) init(xs []float64) {
	s.xs = xs
	s.last = 0
}

// search returns the index i such that xs[i] <= x <= xs[i+1]. Points outside
// the table are assigned to the first or last interval.
func (s *searcher) search(x float64) int {
	n := len(s.xs)
	if x <= s.xs[0] {
		return 0
	} else if x >= s.xs[n-1] {
		return n - 2
	}

	if i := s.last; i < n-1 && s.xs[i] <= x && x <= s.xs[i+1] {
		return i
	}

	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if x >= s.xs[mid] {
			lo = mid
		} else {
			hi = mid
		}
	}
	s.last = lo
	return lo
}

func (s *searcher) val(i int) float64 { return s.xs[i] }

// Linear is a linear interpolator.
type Linear struct {
	xs   searcher
	vals []float64
}

// NewLinear creates a linear interpolator for a sequence of non-decreasing
// points, xs, which take on the values given by vals.
//
// Lookups will occur in O(log |xs|), faster if successive lookups fall in
// the same interval. A Linear is not safe for concurrent use.
func NewLinear(xs, vals []float64) (*Linear, error) {
	if len(xs) != len(vals) {
		return nil, errors.Errorf(
			"Table given to NewLinear() has len(xs) = %d but len(vals) = %d.",
			len(xs), len(vals),
		)
	} else if len(xs) < 2 {
		return nil, errors.Errorf(
			"Table given to NewLinear() has length of %d.", len(xs),
		)
	}
	for i := 0; i < len(xs)-1; i++ {
		if xs[i+1] < xs[i] {
			return nil, errors.Errorf(
				"Table given to NewLinear() not sorted at index %d.", i,
			)
		}
	}

	lin := &Linear{}
	lin.xs.init(xs)
	lin.vals = vals
	return lin, nil
}

// Eval returns the interpolated value at x. Values outside the table are
// clamped to its ends.
func (lin *Linear) Eval(x float64) float64 {
	i1 := lin.xs.search(x)
	i2 := i1 + 1
	x1, x2 := lin.xs.val(i1), lin.xs.val(i2)
	v1, v2 := lin.vals[i1], lin.vals[i2]

	switch {
	case x <= x1 || x2 == x1:
		return v1
	case x >= x2:
		return v2
	}
	return ((v2-v1)/(x2-x1))*(x-x1) + v1
}

// EvalAll evaluates the interpolator at all the given x values. If an output
// array is given, the output is written to that array (the array is still
// returned as a convenience).
//
// If more than one output array is provided, only the first is used.
func (lin *Linear) EvalAll(xs []float64, out ...[]float64) []float64 {
	if len(out) == 0 {
		out = [][]float64{make([]float64, len(xs))}
	}
	for i, x := range xs {
		out[0][i] = lin.Eval(x)
	}
	return out[0]
}

// Interpolator is a 1D function defined by a table.
type Interpolator interface {
	Eval(x float64) float64
	EvalAll(xs []float64, out ...[]float64) []float64
}

var (
	_ Interpolator = &Spline{}
	_ Interpolator = &Linear{}
)
