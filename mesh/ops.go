package mesh

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

func (m *Mesh) checkUsed(e int) error {
	if e < 0 || e >= len(m.HalfEdges) {
		return errors.Errorf("Half-edge %d is out of range [0, %d).",
			e, len(m.HalfEdges))
	} else if m.IsUnused(e) {
		return errors.Wrapf(ErrUnused, "half-edge %d", e)
	}
	return nil
}

func (m *Mesh) link(e0, e1 int) {
	m.HalfEdges[e0].Next = e1
	m.HalfEdges[e1].Prev = e0
}

func (m *Mesh) addPair(a, b int) int {
	e := len(m.HalfEdges)
	m.HalfEdges = append(m.HalfEdges,
		HalfEdge{Start: a, Face: -1}, HalfEdge{Start: b, Face: -1})
	return e
}

// SplitEdge inserts a new vertex at the midpoint of e's edge. e keeps its
// start and now ends at the new vertex. The returned half-edge is the new
// half-edge running from the new vertex to e's old end. The faces on either
// side gain a vertex; they are not triangulated (see SplitEdgeFace).
//
// One vertex and one edge are appended to the mesh.
func (m *Mesh) SplitEdge(e int) (int, error) {
	if err := m.checkUsed(e); err != nil {
		return -1, err
	}

	t := e ^ 1
	b := m.Start(t)
	mid := r3.Scale(0.5, r3.Add(m.Pos(m.Start(e)), m.Pos(b)))

	v := len(m.Vertices)
	m.Vertices = append(m.Vertices, Vertex{Pos: mid, Edge: -1})

	e2 := m.addPair(v, b)
	t2 := e2 ^ 1

	// e2 follows e around e's face.
	m.HalfEdges[e2].Face = m.HalfEdges[e].Face
	m.link(e2, m.Next(e))
	m.link(e, e2)

	// t2 precedes t around t's face.
	m.HalfEdges[t2].Face = m.HalfEdges[t].Face
	m.link(m.Prev(t), t2)
	m.link(t2, t)
	m.HalfEdges[t].Start = v

	if m.Vertices[b].Edge == t {
		m.Vertices[b].Edge = t2
	}
	if m.HalfEdges[e].Face < 0 {
		m.Vertices[v].Edge = e2
	} else {
		m.Vertices[v].Edge = t
	}

	return e2, nil
}

// SplitFace connects the start of e0 to the start of e1 with a new edge,
// splitting the face that contains both of them. e0 stays in the original
// face and e1 moves to a new face. The returned half-edge runs from the
// start of e0 to the start of e1 and lies in the new face.
//
// One edge and one face are appended to the mesh.
func (m *Mesh) SplitFace(e0, e1 int) (int, error) {
	if err := m.checkUsed(e0); err != nil {
		return -1, err
	} else if err := m.checkUsed(e1); err != nil {
		return -1, err
	}

	f := m.HalfEdges[e0].Face
	switch {
	case f < 0:
		return -1, errors.Wrapf(ErrBoundary, "half-edge %d has no face", e0)
	case m.HalfEdges[e1].Face != f:
		return -1, errors.Errorf(
			"Half-edges %d and %d are not in the same face.", e0, e1)
	case e0 == e1 || m.Next(e0) == e1 || m.Next(e1) == e0:
		return -1, errors.Wrapf(ErrNonManifold,
			"splitting half-edges %d and %d would create a two-sided face",
			e0, e1)
	}

	a, b := m.Start(e0), m.Start(e1)
	p0, p1 := m.Prev(e0), m.Prev(e1)

	ha := m.addPair(a, b)
	hb := ha ^ 1

	m.link(p0, ha)
	m.link(ha, e1)
	m.link(p1, hb)
	m.link(hb, e0)

	nf := len(m.Faces)
	m.Faces = append(m.Faces, Face{Edge: ha})
	m.Faces[f].Edge = e0
	m.HalfEdges[hb].Face = f
	for e := range m.CirculateFace(ha) {
		m.HalfEdges[e].Face = nf
	}

	return ha, nil
}

// SplitEdgeFace splits e's edge at its midpoint and then splits the
// triangles on either side of it so the mesh stays triangulated. The
// returned half-edge runs from the new vertex to e's old end.
//
// Faces adjacent to the edge must be triangles, otherwise ErrNonManifold is
// returned and the mesh is unchanged.
func (m *Mesh) SplitEdgeFace(e int) (int, error) {
	if err := m.checkUsed(e); err != nil {
		return -1, err
	}
	t := e ^ 1
	for _, h := range []int{e, t} {
		if m.HalfEdges[h].Face >= 0 && m.LoopLength(h) != 3 {
			return -1, errors.Wrapf(ErrNonManifold,
				"face %d next to half-edge %d is not a triangle",
				m.HalfEdges[h].Face, h)
		}
	}

	e2, err := m.SplitEdge(e)
	if err != nil {
		return -1, err
	}
	t2 := e2 ^ 1

	if m.HalfEdges[e].Face >= 0 {
		if _, err := m.SplitFace(e2, m.Prev(e)); err != nil {
			return -1, err
		}
	}
	if m.HalfEdges[t].Face >= 0 {
		if _, err := m.SplitFace(t, m.Prev(t2)); err != nil {
			return -1, err
		}
	}

	return e2, nil
}

// SpinEdge replaces e's edge with the other diagonal of the quad made by
// the two triangles on either side of it. Afterwards e runs between the
// vertices which were opposite the edge: from the one opposite e's twin to
// the one opposite e.
//
// Boundary edges, edges next to non-triangular faces, edges with an endpoint
// of degree 3 or less, and spins which would duplicate an existing edge are
// rejected and the mesh is unchanged.
func (m *Mesh) SpinEdge(e int) error {
	if err := m.checkUsed(e); err != nil {
		return err
	}
	if m.IsBoundaryEdge(e) {
		return errors.Wrapf(ErrBoundary, "half-edge %d", e)
	}

	t := e ^ 1
	if m.LoopLength(e) != 3 || m.LoopLength(t) != 3 {
		return errors.Wrapf(ErrNonManifold,
			"faces next to half-edge %d are not triangles", e)
	}

	en, ep := m.Next(e), m.Prev(e)
	tn, tp := m.Next(t), m.Prev(t)
	a, b := m.Start(e), m.Start(t)
	c, d := m.Start(ep), m.Start(tp)

	switch {
	case c == d:
		return errors.Wrapf(ErrNonManifold,
			"half-edge %d is in a degenerate quad", e)
	case m.Degree(a) <= 3 || m.Degree(b) <= 3:
		return errors.Wrapf(ErrNonManifold,
			"spinning half-edge %d would leave a vertex of degree 2", e)
	case m.FindHalfEdge(c, d) >= 0:
		return errors.Wrapf(ErrNonManifold,
			"spinning half-edge %d would duplicate edge %d -> %d", e, c, d)
	}

	fe, ft := m.HalfEdges[e].Face, m.HalfEdges[t].Face

	m.HalfEdges[e].Start = d
	m.HalfEdges[t].Start = c

	m.link(e, ep)
	m.link(ep, tn)
	m.link(tn, e)

	m.link(t, tp)
	m.link(tp, en)
	m.link(en, t)

	m.HalfEdges[tn].Face = fe
	m.HalfEdges[en].Face = ft
	m.Faces[fe].Edge = e
	m.Faces[ft].Edge = t

	if m.Vertices[a].Edge == e {
		m.Vertices[a].Edge = tn
	}
	if m.Vertices[b].Edge == t {
		m.Vertices[b].Edge = en
	}

	return nil
}
