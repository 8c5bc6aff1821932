package growth

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/phil-mansfield/diffgrowth/field"
	"github.com/phil-mansfield/diffgrowth/interpolate"
	"github.com/phil-mansfield/diffgrowth/mesh"
	"github.com/phil-mansfield/diffgrowth/polyline"
	"github.com/phil-mansfield/diffgrowth/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func newSim(t testing.TB, d Domain, p Params) *Simulation {
	s, err := NewSimulation(d, p)
	require.NoError(t, err)
	return s
}

func step(t testing.TB, s *Simulation) *StepReport {
	rep, err := s.Step(nil)
	require.NoError(t, err)
	return rep
}

func positions(d Domain) []r3.Vec {
	out := make([]r3.Vec, d.Len())
	for i := range out {
		out[i] = d.Pos(i)
	}
	return out
}

func dist(a, b r3.Vec) float64 { return r3.Norm(r3.Sub(a, b)) }

func ring(n int, r, jitter float64) []r3.Vec {
	ps := make([]r3.Vec, n)
	for i := range ps {
		th := 2 * math.Pi * float64(i) / float64(n)
		ri := r + jitter*float64(i%3-1)
		ps[i] = r3.Vec{X: ri * math.Cos(th), Y: ri * math.Sin(th)}
	}
	return ps
}

func TestNewSimulationErrors(t *testing.T) {
	_, err := NewSimulation(NewPointDomain(nil), DefaultParams(Points))
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = NewSimulation(nil, DefaultParams(Points))
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	// Points can't be grown as a mesh.
	pts := NewPointDomain([]r3.Vec{{}})
	_, err = NewSimulation(pts, DefaultParams(Mesh))
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	p := DefaultParams(Points)
	p.Decay = 2
	_, err = NewSimulation(pts, p)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestZeroWeightsNoDrift(t *testing.T) {
	table := []struct {
		name string
		d    Domain
		v    Variant
	}{
		{"mesh", NewMeshDomain(mesh.Hexagon(1)), Mesh},
		{"curve", NewCurveDomain(polyline.New(ring(12, 1, 0.2), true), nil),
			Curve},
		{"points", NewPointDomain(ring(6, 0.3, 0.1)), Points},
	}

	for _, test := range table {
		p := DefaultParams(test.v)
		p.Weights = Weights{}
		p.Grow = false
		p.RefineFrequency = 0
		p.LaplacianIterations = 0

		before := positions(test.d)
		s := newSim(t, test.d, p)
		for i := 0; i < 3; i++ {
			step(t, s)
		}

		if diff := cmp.Diff(before, positions(s.dom)); diff != "" {
			t.Errorf("%s: positions drifted (-want +got):\n%s",
				test.name, diff)
		}
	}
}

func TestLaplacianReducesCurvature(t *testing.T) {
	line := polyline.New(ring(10, 2, 0.3), true)

	p := DefaultParams(Curve)
	p.Grow = false
	p.Weights = Weights{}
	p.CollisionIterations = 0
	p.LaplacianStrength = 0.5
	p.LaplacianIterations = 1

	s := newSim(t, NewCurveDomain(line, nil), p)
	prev := line.Curvature()
	for i := 0; i < 5; i++ {
		step(t, s)
		curv := s.dom.(*CurveDomain).Polyline().Curvature()
		if curv >= prev {
			t.Errorf("%d) curvature went from %g to %g", i, prev, curv)
		}
		prev = curv
	}
}

func TestCollisionSeparates(t *testing.T) {
	table := []struct {
		index IndexKind
	}{{GridIndex}, {KDTreeIndex}, {BruteIndex}}

	for i, test := range table {
		p := DefaultParams(Points)
		p.Grow = false
		p.Index = test.index
		p.Weights = Weights{Collision: 1}

		pts := NewPointDomain([]r3.Vec{{}, {X: 0.5}})
		s := newSim(t, pts, p)
		step(t, s)

		d := dist(s.dom.Pos(0), s.dom.Pos(1))
		if d <= 0.5 {
			t.Errorf("%d) separation did not grow: %g", i, d)
		}
		assert.InDelta(t, 1, d, 1e-9, test.index.String())
	}
}

func triangle(side float64) *polyline.Polyline {
	h := side * math.Sqrt(3) / 2
	return polyline.New([]r3.Vec{
		{X: 0}, {X: side}, {X: side / 2, Y: h},
	}, true)
}

func triangleParams() Params {
	p := DefaultParams(Curve)
	p.CollisionDistance = 1
	p.Grow = false
	p.LaplacianIterations = 0
	p.CollisionIterations = 1
	p.Weights = Weights{Collision: 1}
	return p
}

func TestTriangleAlreadySeparated(t *testing.T) {
	line := triangle(2)
	s := newSim(t, NewCurveDomain(line, nil), triangleParams())
	step(t, s)

	if diff := cmp.Diff(line.Points, positions(s.dom)); diff != "" {
		t.Errorf("separated triangle moved (-want +got):\n%s", diff)
	}
}

func TestTriangleRepulsion(t *testing.T) {
	s := newSim(t, NewCurveDomain(triangle(0.5), nil), triangleParams())

	prev := 0.5
	for i := 0; i < 8; i++ {
		step(t, s)
		ps := positions(s.dom)
		d01, d12, d20 := dist(ps[0], ps[1]), dist(ps[1], ps[2]),
			dist(ps[2], ps[0])

		assert.InDelta(t, d01, d12, 1e-9)
		assert.InDelta(t, d01, d20, 1e-9)
		if d01 <= prev || d01 > 1+1e-9 {
			t.Errorf("%d) side went from %g to %g", i, prev, d01)
		}
		prev = d01
	}
	assert.InDelta(t, 1, prev, 1e-3)
}

func TestResampleThenRelax(t *testing.T) {
	ps := []r3.Vec{{X: 0}, {X: 0.5}, {X: 2.5}, {X: 3}, {X: 4}}
	line := polyline.New(ps, false)

	p := DefaultParams(Curve)
	p.CollisionDistance = 1 / ResampleFraction
	p.CollisionIterations = 0
	p.LaplacianStrength = 1
	p.LaplacianIterations = 1
	p.Weights = Weights{}

	s := newSim(t, NewCurveDomain(line, interpolate.LinearKernel{}), p)
	step(t, s)

	got := positions(s.dom)
	require.Len(t, got, 5)
	for i := 1; i < 4; i++ {
		mid := r3.Scale(0.5, r3.Add(got[i-1], got[i+1]))
		assert.InDelta(t, 0, dist(mid, got[i]), 1e-9)
	}
	assert.InDelta(t, 0, got[0].X, 1e-12)
	assert.InDelta(t, 4, got[4].X, 1e-12)

	// Relaxing with unit strength moves each interior point to the
	// midpoint of its old neighbours.
	kinked := NewCurveDomain(polyline.New([]r3.Vec{
		{X: 0}, {X: 1, Y: 1}, {X: 2}, {X: 3, Y: 1}, {X: 4},
	}, false), interpolate.LinearKernel{})
	old := positions(kinked)
	kinked.Relax(1, 1)
	for i := 1; i < 4; i++ {
		mid := r3.Scale(0.5, r3.Add(old[i-1], old[i+1]))
		assert.InDelta(t, 0, dist(mid, kinked.Pos(i)), 1e-12)
	}
}

func TestCapIsNoOp(t *testing.T) {
	p := DefaultParams(Points)
	p.MaxElementCount = 2
	pts := NewPointDomain([]r3.Vec{{}, {X: 0.2}})
	s := newSim(t, pts, p)

	rep := step(t, s)
	assert.True(t, rep.Capped)
	assert.Equal(t, 0, s.StepCount())
	assert.Equal(t, []int{2}, s.History())
	if diff := cmp.Diff(positions(pts), positions(s.dom)); diff != "" {
		t.Errorf("capped step moved elements (-want +got):\n%s", diff)
	}
}

func TestStepRollsBack(t *testing.T) {
	p := DefaultParams(Points)
	p.Index = BruteIndex
	p.Weights = Weights{Field: 1}
	p.Field = field.Uniform(r3.Vec{X: math.MaxFloat64})

	start := []r3.Vec{{X: math.MaxFloat64}}
	s := newSim(t, NewPointDomain(start), p)

	_, err := s.Step(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNumerical))

	assert.Equal(t, 0, s.StepCount())
	assert.Equal(t, 1, s.Len())
	assert.Len(t, s.vel, 1)
	assert.Equal(t, start[0], s.dom.Pos(0))

	// The simulation is still usable with new parameters.
	p.Field = field.Zero
	_, err = s.Step(&p)
	require.NoError(t, err)
	assert.Equal(t, 1, s.StepCount())
}

func TestFailedStepKeepsParams(t *testing.T) {
	p := DefaultParams(Points)
	p.Grow = false
	p.Index = BruteIndex
	p.Weights = Weights{Collision: 1}
	start := []r3.Vec{{X: math.MaxFloat64}}
	s := newSim(t, NewPointDomain(start), p)

	bad := p
	bad.Index = KDTreeIndex
	bad.CollisionDistance = 2
	bad.Weights = Weights{Collision: 1, Field: 1}
	bad.Field = field.Uniform(r3.Vec{X: math.MaxFloat64})

	_, err := s.Step(&bad)
	require.True(t, errors.Is(err, ErrNumerical))

	got := s.Params()
	assert.Equal(t, BruteIndex, got.Index)
	assert.Equal(t, 1.0, got.CollisionDistance)
	assert.Equal(t, Weights{Collision: 1}, got.Weights)
	assert.Nil(t, got.Field)
	assert.IsType(t, &spatial.Brute{}, s.index)

	step(t, s)
	assert.Equal(t, 1, s.StepCount())
	assert.Equal(t, start[0], s.dom.Pos(0))
}

func TestStepValidatesParams(t *testing.T) {
	s := newSim(t, NewPointDomain([]r3.Vec{{}}), DefaultParams(Points))
	bad := DefaultParams(Points)
	bad.SubSteps = 0

	_, err := s.Step(&bad)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.Equal(t, 1, s.Params().SubSteps)

	mp := DefaultParams(Mesh)
	_, err = s.Step(&mp)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestResetIsDeterministic(t *testing.T) {
	p := DefaultParams(Points)
	p.Planar = true
	s := newSim(t, NewPointDomain([]r3.Vec{{}}), p)

	run := func() *Snapshot {
		for i := 0; i < 6; i++ {
			step(t, s)
		}
		return s.Snapshot()
	}

	first := run()
	require.NoError(t, s.Reset())
	assert.Equal(t, 0, s.StepCount())
	assert.Equal(t, 1, s.Len())
	second := run()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("runs differ after Reset (-first +second):\n%s", diff)
	}
	assert.True(t, first.Len() > 1)
}

func TestWorkerCountIndependence(t *testing.T) {
	p := DefaultParams(Points)
	p.Grow = false
	p.Weights = Weights{Collision: 1}

	start := ring(40, 2, 0.5)
	var results [][]r3.Vec
	for _, workers := range []int{1, 3, 8} {
		s := newSim(t, NewPointDomain(start), p)
		s.Workers(workers)
		for i := 0; i < 4; i++ {
			step(t, s)
		}
		results = append(results, positions(s.dom))
	}

	for i := 1; i < len(results); i++ {
		diff := cmp.Diff(results[0], results[i], cmpopts.EquateApprox(0, 1e-9))
		if diff != "" {
			t.Errorf("%d) results depend on workers:\n%s", i, diff)
		}
	}
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	s := newSim(t, NewMeshDomain(mesh.Hexagon(1)), DefaultParams(Mesh))
	snap := s.Snapshot()

	assert.Equal(t, Mesh, snap.Variant)
	assert.Equal(t, 7, snap.Len())
	assert.Len(t, snap.Triangles, 6)
	assert.Len(t, snap.Radii, 7)
	assert.InDelta(t, 2, snap.Bounds().Span().X, 1e-12)

	snap.Positions[0] = r3.Vec{X: 100}
	snap.Triangles[0][0] = 99
	assert.Equal(t, r3.Vec{}, s.dom.Pos(0))
	assert.NotEqual(t, snap.Triangles[0],
		s.dom.(*MeshDomain).Mesh().Triangles()[0])

	cs := newSim(t, NewCurveDomain(triangle(2), nil), triangleParams())
	assert.True(t, cs.Snapshot().Closed)
}

func TestVariableRadius(t *testing.T) {
	p := DefaultParams(Points)
	p.VariableRadius = true
	p.Noise = field.NewCurlNoise(3, true).Noise

	s := newSim(t, NewPointDomain(ring(20, 5, 1)), p)
	for _, r := range s.radii {
		assert.True(t, r >= field.MinRadiusFraction*p.CollisionDistance)
		assert.True(t, r <= p.CollisionDistance)
	}
	assert.True(t, s.maxRadius <= p.CollisionDistance)
}

func BenchmarkMeshStep(b *testing.B) {
	p := DefaultParams(Mesh)
	p.MaxElementCount = 1 << 30
	s := newSim(b, NewMeshDomain(mesh.Hexagon(1)), p)
	for s.Len() < 500 {
		step(b, s)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Grow = false
		if _, err := s.Step(&p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCurveStep(b *testing.B) {
	p := DefaultParams(Curve)
	p.Grow = false
	line := polyline.New(ring(1000, 100, 0.2), true)
	s := newSim(b, NewCurveDomain(line, nil), p)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		step(b, s)
	}
}
