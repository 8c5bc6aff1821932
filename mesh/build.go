package mesh

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

type vertexPair struct{ a, b int }

// FromFaces creates a mesh from vertex positions and faces given as
// counter-clockwise lists of vertex indices. Vertices which are not used by
// any face are isolated. Non-manifold input is rejected with ErrNonManifold.
func FromFaces(ps []r3.Vec, faces [][]int) (*Mesh, error) {
	m := &Mesh{
		Vertices: make([]Vertex, len(ps)),
		Faces:    make([]Face, len(faces)),
	}
	for i := range ps {
		m.Vertices[i] = Vertex{Pos: ps[i], Edge: -1}
	}

	edges := map[vertexPair]int{}
	for f, face := range faces {
		if err := checkFace(face, len(ps)); err != nil {
			return nil, errors.Wrapf(err, "face %d", f)
		}

		loop := make([]int, len(face))
		for i := range face {
			a, b := face[i], face[(i+1)%len(face)]
			if _, ok := edges[vertexPair{a, b}]; ok {
				return nil, errors.Wrapf(ErrNonManifold,
					"half-edge %d -> %d is used by more than one face", a, b)
			}

			e, ok := edges[vertexPair{b, a}]
			if ok {
				e ^= 1
			} else {
				e = len(m.HalfEdges)
				m.HalfEdges = append(m.HalfEdges,
					HalfEdge{Start: a, Face: -1}, HalfEdge{Start: b, Face: -1})
			}
			edges[vertexPair{a, b}] = e
			m.HalfEdges[e].Face = f
			loop[i] = e
		}

		for i, e := range loop {
			m.HalfEdges[e].Next = loop[(i+1)%len(loop)]
			m.HalfEdges[e].Prev = loop[(i+len(loop)-1)%len(loop)]
		}
		m.Faces[f].Edge = loop[0]
	}

	if err := m.linkBoundaries(); err != nil {
		return nil, err
	}
	m.assignVertexEdges()

	if err := m.checkVertexFans(); err != nil {
		return nil, err
	}
	return m, nil
}

func checkFace(face []int, nv int) error {
	if len(face) < 3 {
		return errors.Errorf("Faces need at least 3 vertices, but this has %d.",
			len(face))
	}
	seen := map[int]bool{}
	for _, v := range face {
		if v < 0 || v >= nv {
			return errors.Errorf("Vertex %d is out of range [0, %d).", v, nv)
		} else if seen[v] {
			return errors.Errorf("Vertex %d is repeated.", v)
		}
		seen[v] = true
	}
	return nil
}

// linkBoundaries connects the face-less half-edges into hole loops.
func (m *Mesh) linkBoundaries() error {
	out := map[int]int{}
	for e := range m.HalfEdges {
		if m.HalfEdges[e].Face >= 0 {
			continue
		}
		s := m.HalfEdges[e].Start
		if _, ok := out[s]; ok {
			return errors.Wrapf(ErrNonManifold,
				"vertex %d is on more than one boundary fan", s)
		}
		out[s] = e
	}

	for e := range m.HalfEdges {
		if m.HalfEdges[e].Face >= 0 {
			continue
		}
		next := out[m.End(e)]
		m.HalfEdges[e].Next = next
		m.HalfEdges[next].Prev = e
	}
	return nil
}

func (m *Mesh) assignVertexEdges() {
	for e := range m.HalfEdges {
		s := m.HalfEdges[e].Start
		if m.Vertices[s].Edge < 0 || m.HalfEdges[e].Face < 0 {
			m.Vertices[s].Edge = e
		}
	}
}

// checkVertexFans makes sure circulating each vertex reaches every one of
// its outgoing half-edges.
func (m *Mesh) checkVertexFans() error {
	degrees := m.Degrees(nil)
	for v := range m.Vertices {
		if n := m.Degree(v); n != degrees[v] {
			return errors.Wrapf(ErrNonManifold,
				"vertex %d has %d outgoing half-edges but only %d are "+
					"connected around it", v, degrees[v], n)
		}
	}
	return nil
}

// Hexagon returns six triangles around a central vertex in the XY plane.
// Each edge has length r.
func Hexagon(r float64) *Mesh {
	ps := make([]r3.Vec, 7)
	faces := make([][]int, 6)
	for i := 0; i < 6; i++ {
		th := float64(i) * math.Pi / 3
		ps[i+1] = r3.Vec{X: r * math.Cos(th), Y: r * math.Sin(th)}
		faces[i] = []int{0, i + 1, (i+1)%6 + 1}
	}
	m, err := FromFaces(ps, faces)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// GridPatch returns a flat patch of nx by ny squares of width d in the XY
// plane, each split into two triangles along alternating diagonals.
func GridPatch(nx, ny int, d float64) (*Mesh, error) {
	if nx < 1 || ny < 1 {
		return nil, errors.Errorf(
			"Need a positive number of grid cells, but got %d x %d.", nx, ny)
	}

	ps := make([]r3.Vec, 0, (nx+1)*(ny+1))
	for y := 0; y <= ny; y++ {
		for x := 0; x <= nx; x++ {
			ps = append(ps, r3.Vec{X: float64(x) * d, Y: float64(y) * d})
		}
	}

	idx := func(x, y int) int { return x + y*(nx+1) }
	faces := make([][]int, 0, 2*nx*ny)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			v00, v10 := idx(x, y), idx(x+1, y)
			v01, v11 := idx(x, y+1), idx(x+1, y+1)
			if (x+y)%2 == 0 {
				faces = append(faces, []int{v00, v10, v11}, []int{v00, v11, v01})
			} else {
				faces = append(faces, []int{v00, v10, v01}, []int{v10, v11, v01})
			}
		}
	}

	return FromFaces(ps, faces)
}

// Icosahedron returns a closed icosahedron with circumradius r centred on
// the origin.
func Icosahedron(r float64) *Mesh {
	phi := (1 + math.Sqrt(5)) / 2
	raw := []r3.Vec{
		{X: -1, Y: phi}, {X: 1, Y: phi}, {X: -1, Y: -phi}, {X: 1, Y: -phi},
		{Y: -1, Z: phi}, {Y: 1, Z: phi}, {Y: -1, Z: -phi}, {Y: 1, Z: -phi},
		{X: phi, Z: -1}, {X: phi, Z: 1}, {X: -phi, Z: -1}, {X: -phi, Z: 1},
	}
	ps := make([]r3.Vec, len(raw))
	for i := range raw {
		ps[i] = r3.Scale(r/r3.Norm(raw[i]), raw[i])
	}

	faces := [][]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	m, err := FromFaces(ps, faces)
	if err != nil {
		panic(err.Error())
	}
	return m
}
