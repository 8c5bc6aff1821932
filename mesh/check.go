package mesh

import (
	"github.com/pkg/errors"
)

// Check returns an error describing the first broken connectivity invariant
// it finds, or nil if the mesh is a valid manifold.
func (m *Mesh) Check() error {
	nh, nv, nf := len(m.HalfEdges), len(m.Vertices), len(m.Faces)
	if nh%2 != 0 {
		return errors.Errorf("Mesh has an odd number of half-edges, %d.", nh)
	}

	inRange := func(x, n int) bool { return x >= 0 && x < n }

	for e := range m.HalfEdges {
		h := m.HalfEdges[e]
		if h.Start < 0 {
			if !m.IsUnused(e ^ 1) {
				return errors.Errorf("Half-edge %d is unused but its twin "+
					"is not.", e)
			}
			continue
		}

		switch {
		case m.IsUnused(e ^ 1):
			return errors.Errorf("Half-edge %d is used but its twin is not.", e)
		case !inRange(h.Start, nv):
			return errors.Errorf("Half-edge %d starts at missing vertex %d.",
				e, h.Start)
		case !inRange(h.Next, nh) || !inRange(h.Prev, nh):
			return errors.Errorf("Half-edge %d has next %d, prev %d.",
				e, h.Next, h.Prev)
		case m.HalfEdges[h.Next].Prev != e:
			return errors.Errorf("Half-edge %d's next does not point back.", e)
		case m.HalfEdges[h.Prev].Next != e:
			return errors.Errorf("Half-edge %d's prev does not point back.", e)
		case m.Start(h.Next) != m.End(e):
			return errors.Errorf("Half-edge %d ends at %d but its next "+
				"starts at %d.", e, m.End(e), m.Start(h.Next))
		case m.HalfEdges[h.Next].Face != h.Face:
			return errors.Errorf("Half-edge %d and its next have different "+
				"faces.", e)
		case h.Face >= nf:
			return errors.Errorf("Half-edge %d has missing face %d.", e, h.Face)
		case h.Start == m.End(e):
			return errors.Errorf("Half-edge %d is a loop on vertex %d.",
				e, h.Start)
		}
	}

	for f := range m.Faces {
		e0 := m.Faces[f].Edge
		if !inRange(e0, nh) || m.HalfEdges[e0].Face != f {
			return errors.Errorf("Face %d's edge %d is not in the face.", f, e0)
		}
		n := 0
		for range m.CirculateFace(e0) {
			n++
			if n > nh {
				return errors.Errorf("Face %d's loop does not close.", f)
			}
		}
		if n < 3 {
			return errors.Errorf("Face %d has only %d sides.", f, n)
		}
	}

	degrees := m.Degrees(nil)
	for v := range m.Vertices {
		e := m.Vertices[v].Edge
		if e < 0 {
			if degrees[v] != 0 {
				return errors.Errorf("Vertex %d has no edge, but degree %d.",
					v, degrees[v])
			}
			continue
		}
		if !inRange(e, nh) || m.HalfEdges[e].Start != v {
			return errors.Errorf("Vertex %d's edge %d does not start at it.",
				v, e)
		}

		n, boundary := 0, false
		for oe := range m.CirculateVertex(v) {
			n++
			if n > nh {
				return errors.Errorf("Vertex %d's fan does not close.", v)
			}
			boundary = boundary || m.HalfEdges[oe].Face < 0
		}
		if n != degrees[v] {
			return errors.Wrapf(ErrNonManifold,
				"vertex %d reaches %d of its %d half-edges", v, n, degrees[v])
		}
		if boundary && !m.IsBoundaryVertex(v) {
			return errors.Errorf("Boundary vertex %d's edge is not on the "+
				"boundary.", v)
		}
	}

	return nil
}
