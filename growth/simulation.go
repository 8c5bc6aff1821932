package growth

import (
	"fmt"
	"log"
	"runtime"

	"github.com/phil-mansfield/diffgrowth/geom"
	"github.com/phil-mansfield/diffgrowth/spatial"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

// Only the first maxDiagnostics diagnostics are kept.
const maxDiagnostics = 1 << 10

// Diagnostic records an operation which was skipped during a step.
type Diagnostic struct {
	Step int
	// Element is the edge or element the operation was applied to, or -1
	// if it applied to the whole domain.
	Element int
	// Kind is ErrTopologyDefect or ErrDegenerateGeometry.
	Kind error
	Err  error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("step %d, element %d: %v: %v",
		d.Step, d.Element, d.Kind, d.Err)
}

// StepReport summarizes a call to Simulation.Step.
type StepReport struct {
	Step            int
	Elements, Edges int

	Splits, Flips, Inserts, Rejected int
	// IndexRebuilds counts the times the spatial index had to be rebuilt at
	// a finer resolution.
	IndexRebuilds int
	// Capped is true if the step was skipped because the domain had
	// reached MaxElementCount.
	Capped bool
}

// Simulation owns a growing domain and advances it one step at a time.
type Simulation struct {
	p    Params
	seed Domain
	dom  Domain

	// Per-element and per-edge attributes. len(vel) == dom.Len() and
	// len(rest) == dom.EdgeCount() between steps.
	pos       []r3.Vec
	vel       []r3.Vec
	rest      []float64
	radii     []float64
	maxRadius float64
	degrees   []int
	spinOrder []int

	corners           [][3]int
	quads             [][4]int
	topology, topoSet int

	acc        *Accumulator
	workers    int
	workspaces []*Accumulator

	index      spatial.Index
	indexDirty bool

	src *rand.PCGSource
	rng *rand.Rand

	steps, iterations int
	diags             []Diagnostic
	history           []int

	log bool
}

// NewSimulation validates p and creates a simulation seeded with a copy of
// d. The simulation uses one worker per CPU.
func NewSimulation(d Domain, p Params) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if d == nil || d.Len() == 0 {
		return nil, errors.Wrap(ErrInvalidConfiguration,
			"Starting geometry is empty")
	}
	if err := supports(p.Variant, d); err != nil {
		return nil, err
	}

	s := &Simulation{p: p, seed: d.Clone(), acc: NewAccumulator(0)}
	s.Workers(runtime.NumCPU())
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Log turns logging on or off.
func (s *Simulation) Log(flag bool) { s.log = flag }

// Workers sets the number of goroutines used to accumulate forces. Results
// depend on the worker count only through floating point summation order.
func (s *Simulation) Workers(n int) {
	if n < 1 {
		n = 1
	}
	s.workers = n
	s.workspaces = make([]*Accumulator, n)
	for i := range s.workspaces {
		s.workspaces[i] = NewAccumulator(0)
	}
}

// Params returns the parameters used by the most recent step.
func (s *Simulation) Params() Params { return s.p }

// StepCount returns the number of completed steps since the last Reset.
func (s *Simulation) StepCount() int { return s.steps }

// Len returns the current number of elements.
func (s *Simulation) Len() int { return s.dom.Len() }

// Diagnostics returns a copy of the operations skipped since the last Reset.
func (s *Simulation) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), s.diags...)
}

// History returns the element count at the start of the run and after
// every step.
func (s *Simulation) History() []int {
	return append([]int(nil), s.history...)
}

// Reset discards all state and re-seeds the domain from the starting
// geometry.
func (s *Simulation) Reset() error {
	s.dom = s.seed.Clone()
	if s.dom.Len() == 0 {
		return errors.Wrap(ErrInvalidConfiguration,
			"Starting geometry is empty")
	}

	s.vel = make([]r3.Vec, s.dom.Len())
	s.rest = s.rest[:0]
	s.spinOrder = s.spinOrder[:0]
	s.extendAttributes()

	s.src = &rand.PCGSource{}
	s.src.Seed(s.p.RandomSeed)
	s.rng = rand.New(s.src)

	s.steps, s.iterations = 0, 0
	s.diags = nil
	s.history = []int{s.dom.Len()}

	s.newIndex()
	s.updateRadii()
	return nil
}

// Step advances the simulation by one step. If p is non-nil it replaces the
// current parameters first. Nothing happens once the domain has reached
// MaxElementCount. If an error is returned the state, including the
// parameters, is left as it was before the call.
func (s *Simulation) Step(p *Params) (*StepReport, error) {
	prevParams, prevIndex := s.p, s.index
	if p != nil {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if err := supports(p.Variant, s.dom); err != nil {
			return nil, err
		}
		reindex := p.Index != s.p.Index ||
			p.CollisionDistance != s.p.CollisionDistance
		s.p = *p
		if reindex {
			s.newIndex()
		}
	}

	rep := &StepReport{}
	if s.dom.Len() >= s.p.MaxElementCount {
		rep.Capped = true
		s.fillReport(rep)
		return rep, nil
	}

	saved := s.save()
	var err error
	switch s.p.Variant {
	case Mesh:
		if s.p.Mode == RestLength {
			err = s.stepRestLength(rep)
		} else {
			err = s.stepMeshThreshold(rep)
		}
	case Curve:
		err = s.stepCurve(rep)
	case Points:
		err = s.stepPoints(rep)
	}
	if err != nil {
		s.restore(saved)
		s.p, s.index = prevParams, prevIndex
		s.indexDirty = true
		return nil, err
	}

	s.steps++
	s.history = append(s.history, s.dom.Len())
	s.fillReport(rep)

	if s.log {
		log.Printf(
			"Step %d: %d elements, %d splits, %d flips, "+
				"%d inserts, %d rejected",
			rep.Step, rep.Elements, rep.Splits, rep.Flips,
			rep.Inserts, rep.Rejected,
		)
	}
	return rep, nil
}

func (s *Simulation) fillReport(rep *StepReport) {
	rep.Step = s.steps
	rep.Elements = s.dom.Len()
	rep.Edges = s.dom.EdgeCount()
}

// state is everything a failed step needs to restore.
type state struct {
	dom        Domain
	vel        []r3.Vec
	rest       []float64
	spinOrder  []int
	src        rand.PCGSource
	iterations int
	diags      int
}

func (s *Simulation) save() *state {
	return &state{
		dom:        s.dom.Clone(),
		vel:        append([]r3.Vec(nil), s.vel...),
		rest:       append([]float64(nil), s.rest...),
		spinOrder:  append([]int(nil), s.spinOrder...),
		src:        *s.src,
		iterations: s.iterations,
		diags:      len(s.diags),
	}
}

func (s *Simulation) restore(st *state) {
	s.dom = st.dom
	s.vel, s.rest, s.spinOrder = st.vel, st.rest, st.spinOrder
	*s.src = st.src
	s.iterations = st.iterations
	s.diags = s.diags[:st.diags]

	s.topologyChanged()
	s.updateRadii()
}

////////////////
// Attributes //
////////////////

// extendAttributes appends attributes for any elements and edges added to
// the end of the domain.
func (s *Simulation) extendAttributes() {
	for len(s.vel) < s.dom.Len() {
		s.vel = append(s.vel, r3.Vec{})
	}
	for k := len(s.rest); k < s.dom.EdgeCount(); k++ {
		s.rest = append(s.rest, s.edgeLength(k))
		s.spinOrder = append(s.spinOrder, k)
	}
	s.topologyChanged()
}

// resetAttributes rebuilds every attribute after indices have shifted.
func (s *Simulation) resetAttributes() {
	s.vel = s.vel[:0]
	s.rest = s.rest[:0]
	s.spinOrder = s.spinOrder[:0]
	s.extendAttributes()
}

func (s *Simulation) edgeLength(k int) float64 {
	a, b, ok := s.dom.Edge(k)
	if !ok {
		return 0
	}
	return r3.Norm(r3.Sub(s.dom.Pos(b), s.dom.Pos(a)))
}

func (s *Simulation) topologyChanged() {
	s.topology++
	s.indexDirty = true
}

func (s *Simulation) syncPositions() {
	n := s.dom.Len()
	if cap(s.pos) < n {
		s.pos = make([]r3.Vec, n)
	}
	s.pos = s.pos[:n]
	for i := range s.pos {
		s.pos[i] = s.dom.Pos(i)
	}
}

func (s *Simulation) updateRadii() {
	s.syncPositions()
	s.radii, s.maxRadius = radii(&s.p, s.pos, s.radii)
}

// syncTopology refreshes the boundary corners and quads after the
// topology has changed.
func (s *Simulation) syncTopology() {
	if s.topoSet == s.topology {
		return
	}
	s.topoSet = s.topology

	s.corners = s.corners[:0]
	if bl, ok := s.dom.(BoundaryLoops); ok {
		s.corners = bl.BoundaryCorners(s.corners)
	}

	s.quads = s.quads[:0]
	if qs, ok := s.dom.(Quads); ok {
		for k := 0; k < s.dom.EdgeCount(); k++ {
			if q, ok := qs.Quad(k); ok {
				s.quads = append(s.quads, q)
			}
		}
	}
}

///////////
// Index //
///////////

func (s *Simulation) newIndex() {
	switch s.p.Index {
	case GridIndex:
		s.index = spatial.NewHashGrid(s.p.CollisionDistance)
	case KDTreeIndex:
		s.index = spatial.NewKDTree()
	default:
		s.index = &spatial.Brute{}
	}
	s.indexDirty = true
}

// refreshIndex re-inserts the current positions into the index, letting a
// grid index fit itself to their bounds.
func (s *Simulation) refreshIndex(rep *StepReport) {
	s.syncPositions()
	grid, isGrid := s.index.(*spatial.HashGrid)
	before := 0
	if isGrid {
		before = grid.Rebuilds()
	}

	s.index.Rebuild(s.pos)
	s.indexDirty = false

	if isGrid && grid.Rebuilds() > before {
		rep.IndexRebuilds++
		if s.log {
			log.Printf("Rebuilt index grid with %v cells of width %.4g "+
				"(target %.4g)", grid.Cells(), grid.BinScale(),
				grid.TargetScale())
		}
	}
}

/////////////
// Physics //
/////////////

// terms returns the force terms used by the current variant.
func (s *Simulation) terms() []term {
	w := &s.p.Weights
	ts := []term{}
	add := func(weight float64, t ...term) {
		if weight > 0 {
			ts = append(ts, t...)
		}
	}

	switch s.p.Variant {
	case Mesh:
		add(w.Length, edgeLengthTerm)
		add(w.Smooth, laplacianTerm)
		add(w.Boundary, boundaryTerm)
		add(w.Collision, collisionTerm)
		if s.p.Mode == RestLength {
			add(w.Collision, oneRingCancelTerm)
		}
		add(w.Bending, bendingTerm)
	case Curve:
		add(w.Collision, collisionTerm)
		add(w.Field, fieldTerm)
		add(w.Smooth, laplacianTerm)
	case Points:
		// Collisions always run so budding can see contacts.
		ts = append(ts, collisionTerm)
		add(w.Field, fieldTerm)
	}
	return ts
}

func (s *Simulation) context(ts []term, rep *StepReport) *stepContext {
	s.syncPositions()
	if len(s.radii) != len(s.pos) {
		s.updateRadii()
	}
	s.syncTopology()

	if s.indexDirty && usesIndex(ts) {
		s.refreshIndex(rep)
	}

	c := &stepContext{
		p: &s.p, dom: s.dom, pos: s.pos, index: s.index,
		radii: s.radii, maxRadius: s.maxRadius, collisionGain: 1,
		edgeGain: 0.5, stretchOnly: true,
		corners: s.corners, quads: s.quads, terms: ts,
	}
	if s.p.Variant == Mesh && s.p.Mode == RestLength {
		c.collisionGain = 2
		c.rest = s.rest
		c.edgeGain, c.stretchOnly = 1, false
	}
	return c
}

// physics accumulates ts, integrates, and commits the new positions.
func (s *Simulation) physics(
	ts []term, in Integrator, rep *StepReport,
) error {
	c := s.context(ts, rep)
	s.accumulate(c)

	if err := in.Integrate(s.pos, s.vel, s.acc); err != nil {
		return err
	}
	for i := range s.pos {
		s.dom.SetPos(i, s.pos[i])
	}
	s.indexDirty = true
	return nil
}

func (s *Simulation) diagnose(
	element int, kind, err error, rep *StepReport,
) {
	rep.Rejected++
	if s.log {
		log.Printf("Skipped operation on %d: %v", element, err)
	}
	if len(s.diags) < maxDiagnostics {
		s.diags = append(s.diags, Diagnostic{
			Step: s.steps + 1, Element: element, Kind: kind, Err: err,
		})
	}
}

//////////////
// Snapshot //
//////////////

// Snapshot is a copy of the simulation's state which shares no memory with
// the simulation.
type Snapshot struct {
	Variant   Variant
	Step      int
	Positions []r3.Vec
	Radii     []float64
	// Closed is set for closed curves.
	Closed bool
	// Triangles is set for meshes.
	Triangles [][3]int
}

// Snapshot returns a copy of the current state.
func (s *Simulation) Snapshot() *Snapshot {
	ps := make([]r3.Vec, s.dom.Len())
	for i := range ps {
		ps[i] = s.dom.Pos(i)
	}
	rs, _ := radii(&s.p, ps, nil)

	snap := &Snapshot{
		Variant: s.p.Variant, Step: s.steps, Positions: ps, Radii: rs,
	}
	switch d := s.dom.(type) {
	case *MeshDomain:
		snap.Triangles = d.Mesh().Triangles()
	case *CurveDomain:
		snap.Closed = d.Polyline().Closed
	}
	return snap
}

// Len returns the number of elements in the snapshot.
func (snap *Snapshot) Len() int { return len(snap.Positions) }

// Bounds returns the bounding box of the snapshot's positions.
func (snap *Snapshot) Bounds() geom.Bounds {
	return geom.BoundsOf(snap.Positions)
}
