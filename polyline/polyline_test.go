package polyline

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/phil-mansfield/diffgrowth/interpolate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

func circle(n int, r float64) []r3.Vec {
	ps := make([]r3.Vec, n)
	for i := range ps {
		th := 2 * math.Pi * float64(i) / float64(n)
		ps[i] = r3.Vec{X: r * math.Cos(th), Y: r * math.Sin(th)}
	}
	return ps
}

func TestNeighbors(t *testing.T) {
	ps := circle(5, 1)
	table := []struct {
		closed     bool
		i          int
		prev, next int
		end        bool
	}{
		{false, 0, -1, 1, true},
		{false, 2, 1, 3, false},
		{false, 4, 3, -1, true},
		{true, 0, 4, 1, false},
		{true, 4, 3, 0, false},
	}

	for i, test := range table {
		p := New(ps, test.closed)
		prev, next := p.Neighbors(test.i)
		if prev != test.prev || next != test.next {
			t.Errorf("%d) Neighbors(%d) = (%d, %d), expected (%d, %d).",
				i, test.i, prev, next, test.prev, test.next)
		}
		if p.IsEnd(test.i) != test.end {
			t.Errorf("%d) IsEnd(%d) = %v.", i, test.i, !test.end)
		}
	}

	assert.Equal(t, 4, New(ps, false).SegmentCount())
	assert.Equal(t, 5, New(ps, true).SegmentCount())
	assert.Equal(t, 0, New(ps[:1], true).SegmentCount())
}

func TestInsertAfter(t *testing.T) {
	p := New([]r3.Vec{{X: 0}, {X: 1}, {X: 2}}, false)
	p.InsertAfter(0, r3.Vec{X: 0.5})
	p.InsertAfter(3, r3.Vec{X: 3})
	p.InsertAfter(-1, r3.Vec{X: -1})

	want := []r3.Vec{{X: -1}, {X: 0}, {X: 0.5}, {X: 1}, {X: 2}, {X: 3}}
	diff(t, want, p.Points)
	assert.InDelta(t, 4, p.Length(), 1e-12)
}

func TestSplitLong(t *testing.T) {
	p := New([]r3.Vec{{X: 0}, {X: 1}, {X: 3}, {X: 3, Y: 2}}, true)
	// Segments: 1, 2, 2, sqrt(13).
	n := p.SplitLong(1.5, 100)
	assert.Equal(t, 3, n)
	want := []r3.Vec{{X: 0}, {X: 1}, {X: 2}, {X: 3}, {X: 3, Y: 1},
		{X: 3, Y: 2}, {X: 1.5, Y: 1}}
	diff(t, want, p.Points, cmpopts.EquateApprox(0, 1e-12))

	// The cap limits insertions.
	p = New([]r3.Vec{{X: 0}, {X: 2}, {X: 4}, {X: 6}}, false)
	assert.Equal(t, 1, p.SplitLong(1, 5))
	assert.Equal(t, 5, p.Len())
	assert.Equal(t, 0, p.SplitLong(1, 5))
}

func TestSmoothReducesCurvature(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for _, closed := range []bool{true, false} {
		ps := circle(40, 3)
		for i := range ps {
			ps[i] = r3.Add(ps[i], r3.Vec{X: rng.Float64() * 0.3, Y: rng.Float64() * 0.3})
		}
		p := New(ps, closed)

		for _, s := range []float64{0.1, 0.5, 0.9} {
			q := p.Clone()
			before := q.Curvature()
			q.Smooth(s, 1)
			after := q.Curvature()
			if !(after < before) {
				t.Errorf("closed = %v, s = %g: curvature %g -> %g.",
					closed, s, before, after)
			}
			if !closed {
				assert.Equal(t, ps[0], q.Points[0])
				assert.Equal(t, ps[len(ps)-1], q.Points[len(ps)-1])
			}
		}
	}
}

func TestSmoothRegularPolygon(t *testing.T) {
	p := New(circle(12, 1), true)
	before := p.Curvature()
	p.Smooth(0.5, 3)
	assert.True(t, p.Curvature() < before)
	// It shrinks but stays regular.
	r := r3.Norm(p.Points[0])
	for i := range p.Points {
		assert.InDelta(t, r, r3.Norm(p.Points[i]), 1e-12)
	}
}

func TestResampleThenSmoothLine(t *testing.T) {
	p := New([]r3.Vec{{X: 0}, {X: 0.3}, {X: 1.9}, {X: 2.2}, {X: 4}}, false)
	require.NoError(t, p.Resample(interpolate.CubicKernel{}, 1, 0))
	require.Equal(t, 5, p.Len())

	old := append([]r3.Vec(nil), p.Points...)
	p.Smooth(1, 1)
	for i := 1; i < p.Len()-1; i++ {
		mid := r3.Scale(0.5, r3.Add(old[i-1], old[i+1]))
		diff(t, mid, p.Points[i], cmpopts.EquateApprox(0, 1e-12))
	}
	diff(t, []r3.Vec{{X: 0}, {X: 1}, {X: 2}, {X: 3}, {X: 4}}, p.Points,
		cmpopts.EquateApprox(0, 1e-9))
}

func TestResampleClosed(t *testing.T) {
	p := New(circle(10, 2), true)
	spacing := 2 * math.Pi * 2 / 30
	require.NoError(t, p.Resample(interpolate.CubicKernel{}, spacing, 0))
	assert.Equal(t, 30, p.Len())
	assert.InDelta(t, 4*math.Pi, p.Length(), 0.05)

	assert.Error(t, p.Resample(interpolate.CubicKernel{}, -1, 0))
	assert.Error(t, New(circle(2, 1), true).Resample(interpolate.LinearKernel{}, 1, 0))
}

func TestResampleMax(t *testing.T) {
	table := []struct {
		closed  bool
		spacing float64
		max, n  int
	}{
		{true, 0.1, 0, 126},
		{true, 0.1, 50, 50},
		{true, 0.1, 200, 126},
		{false, 0.1, 50, 50},
		{false, 0.1, 2, 2},
		{true, 0.1, 1, 3},
	}

	for i, test := range table {
		p := New(circle(12, 2), test.closed)
		err := p.Resample(interpolate.CubicKernel{}, test.spacing, test.max)
		require.NoError(t, err)
		if p.Len() != test.n {
			t.Errorf("%d) Expected %d points, got %d.", i, test.n, p.Len())
		}
	}
}
