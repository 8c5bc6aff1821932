/*package mesh implements a half-edge mesh stored in flat arrays.

Every edge is a pair of half-edges stored next to each other, so the twin of
half-edge e is always e^1 and edge k is made up of half-edges 2k and 2k+1.
Boundaries are represented by half-edges with no face (Face == -1) which are
linked into loops in the same way that face half-edges are. A half-edge whose
Start is -1 is unused. Elements are never removed from the arrays, so indices
stay valid for the life of the mesh and new elements are always appended.

If a vertex lies on a boundary, its Edge is one of its boundary half-edges,
which makes IsBoundaryVertex O(1).
*/
package mesh

import (
	"iter"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrUnused is returned when an operation is given an unused half-edge.
	ErrUnused = errors.New("half-edge is unused")
	// ErrBoundary is returned when an operation needs an interior edge.
	ErrBoundary = errors.New("edge is on a boundary")
	// ErrNonManifold is returned when an operation or input would produce
	// a non-manifold mesh.
	ErrNonManifold = errors.New("non-manifold configuration")
)

// Vertex is a point in the mesh. Edge is an outgoing half-edge, or -1 for an
// isolated vertex.
type Vertex struct {
	Pos  r3.Vec
	Edge int
}

// HalfEdge is a directed edge. Face is -1 on boundaries.
type HalfEdge struct {
	Start, Next, Prev, Face int
}

// Face is a polygon bounded by a loop of half-edges.
type Face struct {
	Edge int
}

// Mesh is a half-edge mesh.
type Mesh struct {
	Vertices  []Vertex
	HalfEdges []HalfEdge
	Faces     []Face
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices:  append([]Vertex(nil), m.Vertices...),
		HalfEdges: append([]HalfEdge(nil), m.HalfEdges...),
		Faces:     append([]Face(nil), m.Faces...),
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// EdgeCount returns the number of half-edge pairs, including unused ones.
func (m *Mesh) EdgeCount() int { return len(m.HalfEdges) / 2 }

// Twin returns the opposite half-edge of e.
func Twin(e int) int { return e ^ 1 }

// Start returns the vertex e starts at.
func (m *Mesh) Start(e int) int { return m.HalfEdges[e].Start }

// End returns the vertex e ends at.
func (m *Mesh) End(e int) int { return m.HalfEdges[e^1].Start }

// Next returns the half-edge following e around its face.
func (m *Mesh) Next(e int) int { return m.HalfEdges[e].Next }

// Prev returns the half-edge preceding e around its face.
func (m *Mesh) Prev(e int) int { return m.HalfEdges[e].Prev }

// Pos returns the position of vertex v.
func (m *Mesh) Pos(v int) r3.Vec { return m.Vertices[v].Pos }

// IsUnused returns true if e has been removed from the mesh.
func (m *Mesh) IsUnused(e int) bool { return m.HalfEdges[e].Start < 0 }

// IsBoundaryEdge returns true if either side of e's edge has no face.
func (m *Mesh) IsBoundaryEdge(e int) bool {
	return m.HalfEdges[e].Face < 0 || m.HalfEdges[e^1].Face < 0
}

// IsBoundaryVertex returns true if v lies on a hole loop. Isolated vertices
// are not boundary vertices.
func (m *Mesh) IsBoundaryVertex(v int) bool {
	e := m.Vertices[v].Edge
	return e >= 0 && m.HalfEdges[e].Face < 0
}

// Span returns the vector from the start of e to its end.
func (m *Mesh) Span(e int) r3.Vec {
	return r3.Sub(m.Vertices[m.End(e)].Pos, m.Vertices[m.Start(e)].Pos)
}

// Length returns the length of e.
func (m *Mesh) Length(e int) float64 { return r3.Norm(m.Span(e)) }

// CirculateVertex returns the outgoing half-edges of v.
func (m *Mesh) CirculateVertex(v int) iter.Seq[int] {
	return func(yield func(int) bool) {
		e0 := m.Vertices[v].Edge
		if e0 < 0 {
			return
		}
		e := e0
		for {
			if !yield(e) {
				return
			}
			e = m.HalfEdges[e].Prev ^ 1
			if e == e0 {
				return
			}
		}
	}
}

// ConnectedVertices returns the one-ring neighbours of v.
func (m *Mesh) ConnectedVertices(v int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for e := range m.CirculateVertex(v) {
			if !yield(m.End(e)) {
				return
			}
		}
	}
}

// CirculateFace returns the half-edges in the loop containing e, starting
// with e. This works for both faces and hole loops.
func (m *Mesh) CirculateFace(e int) iter.Seq[int] {
	return func(yield func(int) bool) {
		e0 := e
		for {
			if !yield(e) {
				return
			}
			e = m.HalfEdges[e].Next
			if e == e0 {
				return
			}
		}
	}
}

// Degree returns the number of edges incident to v.
func (m *Mesh) Degree(v int) int {
	n := 0
	for range m.CirculateVertex(v) {
		n++
	}
	return n
}

// Degrees writes the degree of every vertex into buf, growing it if needed,
// and returns it.
func (m *Mesh) Degrees(buf []int) []int {
	if cap(buf) < len(m.Vertices) {
		buf = make([]int, len(m.Vertices))
	}
	buf = buf[:len(m.Vertices)]
	for i := range buf {
		buf[i] = 0
	}
	for e := range m.HalfEdges {
		if s := m.HalfEdges[e].Start; s >= 0 {
			buf[s]++
		}
	}
	return buf
}

// LoopLength returns the number of half-edges in the loop containing e.
func (m *Mesh) LoopLength(e int) int {
	n := 0
	for range m.CirculateFace(e) {
		n++
	}
	return n
}

// HoleLoops returns one half-edge from each boundary loop.
func (m *Mesh) HoleLoops() []int {
	loops := []int{}
	visited := make([]bool, len(m.HalfEdges))
	for e := range m.HalfEdges {
		if m.IsUnused(e) || m.HalfEdges[e].Face >= 0 || visited[e] {
			continue
		}
		loops = append(loops, e)
		for ef := range m.CirculateFace(e) {
			visited[ef] = true
		}
	}
	return loops
}

// FindHalfEdge returns the half-edge from a to b, or -1 if there is none.
func (m *Mesh) FindHalfEdge(a, b int) int {
	for e := range m.CirculateVertex(a) {
		if m.End(e) == b {
			return e
		}
	}
	return -1
}

// Triangles returns the vertices of every face, with larger polygons split
// into fans.
func (m *Mesh) Triangles() [][3]int {
	tris := make([][3]int, 0, len(m.Faces))
	for f := range m.Faces {
		e0 := m.Faces[f].Edge
		if e0 < 0 || m.IsUnused(e0) {
			continue
		}
		v0 := m.Start(e0)
		for e := m.Next(m.Next(e0)); e != e0; e = m.Next(e) {
			tris = append(tris, [3]int{v0, m.Start(m.Prev(e)), m.Start(e)})
		}
	}
	return tris
}

// Positions returns a copy of every vertex position.
func (m *Mesh) Positions() []r3.Vec {
	ps := make([]r3.Vec, len(m.Vertices))
	for i := range ps {
		ps[i] = m.Vertices[i].Pos
	}
	return ps
}
