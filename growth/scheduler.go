package growth

import (
	"math"

	"github.com/phil-mansfield/diffgrowth/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Valence targets for the valence equalization pass.
const (
	interiorValence = 6
	boundaryValence = 4
)

// BudFraction is how far from its parent a budded point is placed, as a
// fraction of the parent's radius.
const BudFraction = 0.5

// stepRestLength grows a mesh by lengthening every edge's rest length and
// periodically splitting long edges and spinning edges to even out vertex
// valence.
func (s *Simulation) stepRestLength(rep *StepReport) error {
	ref := s.dom.(Refiner)
	in := Inertial{TimeStep: s.p.TimeStep, Decay: s.p.Decay}

	for sub := 0; sub < s.p.SubSteps; sub++ {
		s.updateRadii()
		if err := s.physics(s.terms(), in, rep); err != nil {
			return err
		}
		s.iterations++

		if s.p.Grow && s.dom.Len() < s.p.MaxElementCount {
			for k := range s.rest {
				s.rest[k] += s.p.GrowthRate
			}
		}

		s.refreshIndex(rep)

		if s.p.RefineFrequency > 0 && s.iterations%s.p.RefineFrequency == 0 {
			s.splitEdges(ref, s.p.SplitLength, rep)
			s.equalizeValence(ref, rep)
		}
	}
	return nil
}

// stepMeshThreshold grows a mesh by splitting every edge which is nearly
// as long as the collision distance, then relaxing it.
func (s *Simulation) stepMeshThreshold(rep *StepReport) error {
	ref := s.dom.(Refiner)
	for sub := 0; sub < s.p.SubSteps; sub++ {
		if s.p.Grow {
			s.splitEdges(ref, SplitFraction*s.p.CollisionDistance, rep)
		}
		s.updateRadii()
		if err := s.physics(s.terms(), Direct{}, rep); err != nil {
			return err
		}
		s.iterations++
	}
	return nil
}

// splitEdges splits every edge longer than length which existed at the
// start of the pass, stopping once the domain reaches MaxElementCount. A
// split edge gets half its old length as its rest length and new edges get
// their current length.
func (s *Simulation) splitEdges(ref Refiner, length float64, rep *StepReport) {
	ne := s.dom.EdgeCount()
	max2 := length * length
	splits := 0

	for k := 0; k < ne && s.dom.Len() < s.p.MaxElementCount; k++ {
		a, b, ok := s.dom.Edge(k)
		if !ok {
			continue
		}
		d2 := r3.Norm2(r3.Sub(s.dom.Pos(b), s.dom.Pos(a)))
		if d2 <= max2 {
			continue
		}

		if _, err := ref.SplitEdge(k); err != nil {
			s.diagnose(k, ErrTopologyDefect, err, rep)
			continue
		}
		s.rest[k] = math.Sqrt(d2) / 2
		splits++
	}

	if splits > 0 {
		s.extendAttributes()
	}
	rep.Splits += splits
}

func (s *Simulation) targetValence(v int) int {
	if s.dom.IsBoundary(v) {
		return boundaryValence
	}
	return interiorValence
}

// equalizeValence visits every edge in a shuffled order and spins it if
// that strictly reduces the squared valence error of the four vertices
// around it.
func (s *Simulation) equalizeValence(ref Refiner, rep *StepReport) {
	s.degrees = ref.Degrees(s.degrees)
	s.rng.Shuffle(len(s.spinOrder), func(i, j int) {
		s.spinOrder[i], s.spinOrder[j] = s.spinOrder[j], s.spinOrder[i]
	})

	flips := 0
	for _, k := range s.spinOrder {
		q, ok := ref.Quad(k)
		if !ok {
			continue
		}

		// The edge's ends lose an edge and the opposite vertices gain one.
		var t [4]int
		for i, v := range q {
			t[i] = s.degrees[v] - s.targetValence(v)
		}
		before := t[0]*t[0] + t[1]*t[1] + t[2]*t[2] + t[3]*t[3]
		t[0], t[1], t[2], t[3] = t[0]-1, t[1]-1, t[2]+1, t[3]+1
		after := t[0]*t[0] + t[1]*t[1] + t[2]*t[2] + t[3]*t[3]
		if after >= before {
			continue
		}

		if err := ref.SpinEdge(k); err != nil {
			s.diagnose(k, ErrTopologyDefect, err, rep)
			continue
		}
		s.rest[k] = s.edgeLength(k)
		s.degrees[q[0]]--
		s.degrees[q[1]]--
		s.degrees[q[2]]++
		s.degrees[q[3]]++
		flips++
	}

	if flips > 0 {
		s.topologyChanged()
	}
	rep.Flips += flips
}

// stepCurve grows the curve, relaxes it, and then resolves collisions.
func (s *Simulation) stepCurve(rep *StepReport) error {
	res := s.dom.(Resampler)
	for sub := 0; sub < s.p.SubSteps; sub++ {
		if s.dom.Len() >= s.p.MaxElementCount {
			break
		}
		if s.p.Grow {
			s.growCurve(res, rep)
		}
		if s.p.LaplacianIterations > 0 && s.p.LaplacianStrength > 0 {
			res.Relax(s.p.LaplacianStrength, s.p.LaplacianIterations)
			s.indexDirty = true
		}

		s.updateRadii()
		for it := 0; it < s.p.CollisionIterations; it++ {
			if err := s.physics(s.terms(), Direct{}, rep); err != nil {
				return err
			}
		}
		s.iterations++
	}
	return nil
}

// growCurve adds points to the curve. Neither mode lets the curve grow past
// MaxElementCount: resampling widens its spacing instead.
func (s *Simulation) growCurve(res Resampler, rep *StepReport) {
	n := s.dom.Len()
	switch s.p.Mode {
	case Resample:
		err := res.Resample(ResampleFraction*s.p.CollisionDistance,
			s.p.MaxElementCount)
		if err != nil {
			s.diagnose(-1, ErrDegenerateGeometry, err, rep)
			return
		}
	case Threshold:
		res.InsertLong(s.p.CollisionDistance-InsertTolerance,
			s.p.MaxElementCount)
	}

	if added := s.dom.Len() - n; added > 0 {
		rep.Inserts += added
	}
	s.resetAttributes()
}

// stepPoints relaxes the swarm and then lets every point without any
// collisions bud a new point.
func (s *Simulation) stepPoints(rep *StepReport) error {
	app := s.dom.(Appender)
	for sub := 0; sub < s.p.SubSteps; sub++ {
		if s.dom.Len() >= s.p.MaxElementCount {
			break
		}
		s.updateRadii()
		if err := s.physics(s.terms(), Direct{}, rep); err != nil {
			return err
		}
		if s.p.Grow {
			s.bud(app, rep)
		}
		s.iterations++
	}
	return nil
}

// bud visits points in order and gives each one with no contacts in the
// last accumulation a child along the field direction.
func (s *Simulation) bud(app Appender, rep *StepReport) {
	n := len(s.acc.Contacts)
	added := 0
	for i := 0; i < n && s.dom.Len() < s.p.MaxElementCount; i++ {
		if s.acc.Contacts[i] > 0 {
			continue
		}
		p := s.dom.Pos(i)
		dir := s.budDirection(p)
		app.Append(r3.Add(p, r3.Scale(BudFraction*s.radii[i], dir)))
		added++
	}

	if added > 0 {
		s.extendAttributes()
	}
	rep.Inserts += added
}

func (s *Simulation) budDirection(p r3.Vec) r3.Vec {
	if s.p.Field != nil {
		dir := s.p.Field(p, s.p.FieldScale, s.p.FieldOffset)
		if l := r3.Norm(dir); l > 0 && geom.Finite(dir) {
			return r3.Scale(1/l, dir)
		}
	}
	return s.randomDirection()
}

// randomDirection returns a uniformly distributed unit vector.
func (s *Simulation) randomDirection() r3.Vec {
	if s.p.Planar {
		th := 2 * math.Pi * s.rng.Float64()
		return r3.Vec{X: math.Cos(th), Y: math.Sin(th)}
	}
	z := 2*s.rng.Float64() - 1
	th := 2 * math.Pi * s.rng.Float64()
	r := math.Sqrt(1 - z*z)
	return r3.Vec{X: r * math.Cos(th), Y: r * math.Sin(th), Z: z}
}
