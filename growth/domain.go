package growth

import (
	"iter"

	"github.com/phil-mansfield/diffgrowth/interpolate"
	"github.com/phil-mansfield/diffgrowth/mesh"
	"github.com/phil-mansfield/diffgrowth/polyline"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// Domain is the topology being grown. Elements are identified by indices in
// [0, Len()) and edges by indices in [0, EdgeCount()). Growth operations may
// append elements and edges, and curves may also shift indices.
type Domain interface {
	Len() int
	Pos(i int) r3.Vec
	SetPos(i int, p r3.Vec)
	// Neighbors returns the elements connected to i.
	Neighbors(i int) iter.Seq[int]
	// IsBoundary returns true for elements on a hole loop or at the end of
	// an open curve.
	IsBoundary(i int) bool
	EdgeCount() int
	// Edge returns the endpoints of edge k. ok is false for unused edges.
	Edge(k int) (a, b int, ok bool)
	// Clone returns a deep copy of the domain.
	Clone() Domain
}

// BoundaryLoops is implemented by domains with hole loops. Each corner is
// (v, next, prev): a boundary element and its two neighbours on its loop.
type BoundaryLoops interface {
	BoundaryCorners(buf [][3]int) [][3]int
}

// Quads is implemented by domains where interior edges have a triangle on
// each side. Each quad is (a, b, c, d), where edge k runs from a to b and
// c and d are the vertices opposite it.
type Quads interface {
	Quad(k int) (q [4]int, ok bool)
}

// Refiner is implemented by domains whose edges can be split and spun. Split
// and spin append any new elements and edges to the end of the domain.
type Refiner interface {
	Quads
	SplitEdge(k int) (v int, err error)
	SpinEdge(k int) error
	Degrees(buf []int) []int
}

// Resampler is implemented by ordered point lists.
type Resampler interface {
	Resample(spacing float64, max int) error
	InsertLong(threshold float64, max int) int
	Relax(strength float64, iterations int)
}

// Appender is implemented by domains which can add unconnected elements.
type Appender interface {
	Append(p r3.Vec) int
}

var (
	_ Refiner       = &MeshDomain{}
	_ BoundaryLoops = &MeshDomain{}
	_ Resampler     = &CurveDomain{}
	_ Appender      = &PointDomain{}
)

// supports returns an error if d cannot be grown as the given variant.
func supports(v Variant, d Domain) error {
	ok := true
	switch v {
	case Mesh:
		_, ok = d.(Refiner)
	case Curve:
		_, ok = d.(Resampler)
	case Points:
		_, ok = d.(Appender)
	}
	if !ok {
		return errors.Wrapf(ErrInvalidConfiguration,
			"Domain of type %T cannot be grown as a %s", d, v)
	}
	return nil
}

//////////
// Mesh //
//////////

// MeshDomain grows a triangle mesh.
type MeshDomain struct {
	m *mesh.Mesh
}

// NewMeshDomain wraps m. The domain modifies m in place.
func NewMeshDomain(m *mesh.Mesh) *MeshDomain { return &MeshDomain{m} }

// Mesh returns the underlying mesh.
func (d *MeshDomain) Mesh() *mesh.Mesh { return d.m }

func (d *MeshDomain) Len() int                { return d.m.VertexCount() }
func (d *MeshDomain) Pos(i int) r3.Vec        { return d.m.Vertices[i].Pos }
func (d *MeshDomain) SetPos(i int, p r3.Vec)  { d.m.Vertices[i].Pos = p }
func (d *MeshDomain) IsBoundary(i int) bool   { return d.m.IsBoundaryVertex(i) }
func (d *MeshDomain) EdgeCount() int          { return d.m.EdgeCount() }
func (d *MeshDomain) Clone() Domain           { return &MeshDomain{d.m.Clone()} }
func (d *MeshDomain) Degrees(buf []int) []int { return d.m.Degrees(buf) }

func (d *MeshDomain) Neighbors(i int) iter.Seq[int] {
	return d.m.ConnectedVertices(i)
}

func (d *MeshDomain) Edge(k int) (a, b int, ok bool) {
	e := 2 * k
	if d.m.IsUnused(e) {
		return -1, -1, false
	}
	return d.m.Start(e), d.m.End(e), true
}

// BoundaryCorners walks each hole loop and records every boundary vertex
// along with its two neighbours on the loop.
func (d *MeshDomain) BoundaryCorners(buf [][3]int) [][3]int {
	buf = buf[:0]
	for _, e0 := range d.m.HoleLoops() {
		for e := range d.m.CirculateFace(e0) {
			buf = append(buf, [3]int{
				d.m.Start(e), d.m.End(e), d.m.Start(d.m.Prev(e)),
			})
		}
	}
	return buf
}

func (d *MeshDomain) Quad(k int) (q [4]int, ok bool) {
	e, t := 2*k, 2*k+1
	if d.m.IsUnused(e) || d.m.IsBoundaryEdge(e) ||
		!d.isTriangle(e) || !d.isTriangle(t) {
		return q, false
	}
	return [4]int{
		d.m.Start(e), d.m.End(e),
		d.m.Start(d.m.Prev(e)), d.m.Start(d.m.Prev(t)),
	}, true
}

func (d *MeshDomain) isTriangle(e int) bool {
	return d.m.Next(d.m.Next(d.m.Next(e))) == e
}

func (d *MeshDomain) SplitEdge(k int) (int, error) {
	e2, err := d.m.SplitEdgeFace(2 * k)
	if err != nil {
		return -1, err
	}
	return d.m.Start(e2), nil
}

func (d *MeshDomain) SpinEdge(k int) error { return d.m.SpinEdge(2 * k) }

///////////
// Curve //
///////////

// CurveDomain grows an open or closed polyline.
type CurveDomain struct {
	line   *polyline.Polyline
	kernel interpolate.Kernel
}

// NewCurveDomain wraps line, which is modified in place. Resampling
// interpolates through the points with kernel, or with cubic splines if
// kernel is nil.
func NewCurveDomain(
	line *polyline.Polyline, kernel interpolate.Kernel,
) *CurveDomain {
	if kernel == nil {
		kernel = interpolate.CubicKernel{}
	}
	return &CurveDomain{line, kernel}
}

// Polyline returns the underlying polyline.
func (d *CurveDomain) Polyline() *polyline.Polyline { return d.line }

func (d *CurveDomain) Len() int               { return d.line.Len() }
func (d *CurveDomain) Pos(i int) r3.Vec       { return d.line.Points[i] }
func (d *CurveDomain) SetPos(i int, p r3.Vec) { d.line.Points[i] = p }
func (d *CurveDomain) IsBoundary(i int) bool  { return d.line.IsEnd(i) }
func (d *CurveDomain) EdgeCount() int         { return d.line.SegmentCount() }

func (d *CurveDomain) Neighbors(i int) iter.Seq[int] {
	return func(yield func(int) bool) {
		prev, next := d.line.Neighbors(i)
		if prev >= 0 && !yield(prev) {
			return
		}
		if next >= 0 && next != prev {
			yield(next)
		}
	}
}

func (d *CurveDomain) Edge(k int) (a, b int, ok bool) {
	a, b = d.line.Segment(k)
	return a, b, true
}

func (d *CurveDomain) Clone() Domain {
	return &CurveDomain{d.line.Clone(), d.kernel}
}

func (d *CurveDomain) Resample(spacing float64, max int) error {
	if err := d.line.Resample(d.kernel, spacing, max); err != nil {
		return errors.Wrap(ErrDegenerateGeometry, err.Error())
	}
	return nil
}

func (d *CurveDomain) InsertLong(threshold float64, max int) int {
	return d.line.SplitLong(threshold, max)
}

func (d *CurveDomain) Relax(strength float64, iterations int) {
	d.line.Smooth(strength, iterations)
}

////////////
// Points //
////////////

// PointDomain grows an unconnected swarm of points.
type PointDomain struct {
	ps []r3.Vec
}

// NewPointDomain creates a domain from a copy of ps.
func NewPointDomain(ps []r3.Vec) *PointDomain {
	return &PointDomain{append([]r3.Vec(nil), ps...)}
}

func (d *PointDomain) Len() int                       { return len(d.ps) }
func (d *PointDomain) Pos(i int) r3.Vec               { return d.ps[i] }
func (d *PointDomain) SetPos(i int, p r3.Vec)         { d.ps[i] = p }
func (d *PointDomain) IsBoundary(i int) bool          { return false }
func (d *PointDomain) EdgeCount() int                 { return 0 }
func (d *PointDomain) Edge(k int) (a, b int, ok bool) { return -1, -1, false }
func (d *PointDomain) Clone() Domain                  { return NewPointDomain(d.ps) }

func (d *PointDomain) Neighbors(i int) iter.Seq[int] {
	return func(yield func(int) bool) {}
}

func (d *PointDomain) Append(p r3.Vec) int {
	d.ps = append(d.ps, p)
	return len(d.ps) - 1
}
