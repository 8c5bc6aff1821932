package io

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/phil-mansfield/diffgrowth/growth"
	"github.com/phil-mansfield/diffgrowth/mesh"
	"github.com/phil-mansfield/diffgrowth/polyline"
	"github.com/phil-mansfield/table"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

// SeedJitter is the amplitude of the noise added to generated seed shapes,
// in units of SeedRadius. Perfectly symmetric seeds never buckle.
const SeedJitter = 1e-3

// ReadSeedPoints reads the first three columns of a whitespace separated
// table as X, Y, and Z coordinates.
func ReadSeedPoints(fname string) ([]r3.Vec, error) {
	cols, err := table.ReadTable(fname, []int{0, 1, 2}, nil)
	if err != nil {
		return nil, err
	}

	xs, ys, zs := cols[0], cols[1], cols[2]
	ps := make([]r3.Vec, len(xs))
	for i := range ps {
		ps[i] = r3.Vec{X: xs[i], Y: ys[i], Z: zs[i]}
	}
	return ps, nil
}

// ReadOBJ reads the vertices and faces of a Wavefront OBJ file. Texture
// and normal indices are ignored, as is every other kind of statement.
func ReadOBJ(r io.Reader) (*mesh.Mesh, error) {
	ps := []r3.Vec{}
	faces := [][]int{}

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		tok := strings.Fields(scanner.Text())
		if len(tok) == 0 || strings.HasPrefix(tok[0], "#") {
			continue
		}

		switch tok[0] {
		case "v":
			if len(tok) < 4 {
				return nil, errors.Errorf(
					"Line %d of OBJ file has a vertex with %d coordinates.",
					line, len(tok)-1,
				)
			}
			var x [3]float64
			for j := range x {
				val, err := strconv.ParseFloat(tok[j+1], 64)
				if err != nil {
					return nil, errors.Wrapf(err, "Line %d of OBJ file", line)
				}
				x[j] = val
			}
			ps = append(ps, r3.Vec{X: x[0], Y: x[1], Z: x[2]})
		case "f":
			face := make([]int, len(tok)-1)
			for j := range face {
				idx, err := objIndex(tok[j+1], len(ps))
				if err != nil {
					return nil, errors.Wrapf(err, "Line %d of OBJ file", line)
				}
				face[j] = idx
			}
			faces = append(faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return mesh.FromFaces(ps, faces)
}

// objIndex converts an OBJ vertex reference, like "3", "3/1", or "-1//2",
// to a zero-based index.
func objIndex(ref string, n int) (int, error) {
	if i := strings.IndexByte(ref, '/'); i >= 0 {
		ref = ref[:i]
	}
	idx, err := strconv.Atoi(ref)
	if err != nil {
		return 0, err
	}

	switch {
	case idx > 0 && idx <= n:
		return idx - 1, nil
	case idx < 0 && -idx <= n:
		return n + idx, nil
	}
	return 0, errors.Errorf(
		"Vertex reference %d is out of range for %d vertices.", idx, n,
	)
}

// ReadOBJFile is ReadOBJ for a named file.
func ReadOBJFile(fname string) (*mesh.Mesh, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadOBJ(f)
}

func (con *GrowthConfig) seedCount(def int) int {
	if con.SeedCount == Unset {
		return def
	}
	return con.SeedCount
}

func (con *GrowthConfig) seedRadius() float64 {
	if con.SeedRadius == Unset {
		return 1
	}
	return con.SeedRadius
}

// SeedDomain builds the starting geometry for p.Variant, either from the
// Seed file or from SeedShape.
func (con *GrowthConfig) SeedDomain(p growth.Params) (growth.Domain, error) {
	if con.ValidSeed() {
		return con.readSeed(p.Variant)
	}

	shape := con.SeedShape
	if shape == "" {
		shape = map[growth.Variant]string{
			growth.Mesh: "Hexagon", growth.Curve: "Circle",
			growth.Points: "Point",
		}[p.Variant]
	}

	rng := rand.New(rand.NewSource(uint64(con.RandomSeed)))
	r := con.seedRadius()
	jitter := func(ps []r3.Vec, planar bool) {
		for i := range ps {
			ps[i].X += SeedJitter * r * (2*rng.Float64() - 1)
			ps[i].Y += SeedJitter * r * (2*rng.Float64() - 1)
			if !planar {
				ps[i].Z += SeedJitter * r * (2*rng.Float64() - 1)
			}
		}
	}

	switch p.Variant {
	case growth.Mesh:
		var m *mesh.Mesh
		switch strings.ToLower(shape) {
		case "hexagon":
			m = mesh.Hexagon(r)
		case "grid":
			n := con.seedCount(4)
			var err error
			if m, err = mesh.GridPatch(n, n, r); err != nil {
				return nil, err
			}
		case "icosahedron":
			m = mesh.Icosahedron(r)
		default:
			return nil, badShape(shape, p.Variant)
		}
		ps := m.Positions()
		jitter(ps, con.Planar)
		for i := range ps {
			m.Vertices[i].Pos = ps[i]
		}
		return growth.NewMeshDomain(m), nil

	case growth.Curve:
		n := con.seedCount(8)
		var ps []r3.Vec
		closed := con.Closed
		switch strings.ToLower(shape) {
		case "circle":
			ps = Ring(n, r)
		case "line":
			ps = Segment(n, r)
			closed = false
		default:
			return nil, badShape(shape, p.Variant)
		}
		jitter(ps, true)
		return growth.NewCurveDomain(
			polyline.New(ps, closed), con.CurveKernel(),
		), nil

	case growth.Points:
		var ps []r3.Vec
		switch strings.ToLower(shape) {
		case "point":
			ps = []r3.Vec{{}}
		case "circle":
			ps = Ring(con.seedCount(8), r)
			jitter(ps, con.Planar)
		default:
			return nil, badShape(shape, p.Variant)
		}
		return growth.NewPointDomain(ps), nil
	}

	return nil, errors.Errorf("Unrecognized variant, %d.", p.Variant)
}

func badShape(shape string, v growth.Variant) error {
	return errors.Errorf(
		"SeedShape '%s' cannot be used with the %s variant.", shape, v,
	)
}

func (con *GrowthConfig) readSeed(v growth.Variant) (growth.Domain, error) {
	switch v {
	case growth.Mesh:
		m, err := ReadOBJFile(con.Seed)
		if err != nil {
			return nil, err
		}
		return growth.NewMeshDomain(m), nil
	case growth.Curve:
		ps, err := ReadSeedPoints(con.Seed)
		if err != nil {
			return nil, err
		}
		return growth.NewCurveDomain(
			polyline.New(ps, con.Closed), con.CurveKernel(),
		), nil
	case growth.Points:
		ps, err := ReadSeedPoints(con.Seed)
		if err != nil {
			return nil, err
		}
		return growth.NewPointDomain(ps), nil
	}
	return nil, errors.Errorf("Unrecognized variant, %d.", v)
}

// Ring returns n points evenly spaced on a circle of radius r in the XY
// plane.
func Ring(n int, r float64) []r3.Vec {
	ps := make([]r3.Vec, n)
	for i := range ps {
		th := 2 * math.Pi * float64(i) / float64(n)
		ps[i] = r3.Vec{X: r * math.Cos(th), Y: r * math.Sin(th)}
	}
	return ps
}

// Segment returns n points evenly spaced along the X axis from -r to r.
func Segment(n int, r float64) []r3.Vec {
	if n == 1 {
		return []r3.Vec{{}}
	}
	ps := make([]r3.Vec, n)
	for i := range ps {
		ps[i] = r3.Vec{X: -r + 2*r*float64(i)/float64(n-1)}
	}
	return ps
}
