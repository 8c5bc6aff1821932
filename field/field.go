/*package field provides the vector and scalar fields which drive field
growth: curl noise for displacement and noise-modulated collision radii.
*/
package field

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/phil-mansfield/diffgrowth/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Field evaluates a vector at p. The field's coordinates are p*scale +
// offset, so scale sets the feature size and offset moves through the field.
type Field func(p r3.Vec, scale, offset float64) r3.Vec

// Scalar evaluates a scalar at p in the same coordinates as Field.
type Scalar func(p r3.Vec, scale, offset float64) float64

// Zero is a Field which is zero everywhere.
func Zero(p r3.Vec, scale, offset float64) r3.Vec { return r3.Vec{} }

// Uniform returns a Field which is v everywhere.
func Uniform(v r3.Vec) Field {
	return func(p r3.Vec, scale, offset float64) r3.Vec { return v }
}

const (
	// perlin.NewPerlin's persistence, frequency ratio and octave count.
	noiseAlpha  = 2
	noiseBeta   = 2
	noiseOctave = 3

	// Step used by the finite differences, in noise coordinates. Perlin
	// noise is only C1 at lattice planes, where central differences lose an
	// order of accuracy, so this is kept small.
	curlStep = 1e-4
)

// Offsets used to decorrelate the three components of the 3D vector
// potential.
var (
	potentialY = r3.Vec{X: 31.416, Y: -47.853, Z: 12.734}
	potentialZ = r3.Vec{X: -19.271, Y: 27.182, Z: 88.103}
)

// CurlNoise is a divergence-free vector field made by taking the curl of
// Perlin noise. It is safe for concurrent use.
type CurlNoise struct {
	noise  *perlin.Perlin
	planar bool
}

// NewCurlNoise creates a curl noise field from the given seed. Planar fields
// use 2D noise over X and Y and always have Z = 0.
func NewCurlNoise(seed int64, planar bool) *CurlNoise {
	return &CurlNoise{
		noise:  perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctave, seed),
		planar: planar,
	}
}

// Planar returns true if the field lies in the XY plane.
func (c *CurlNoise) Planar() bool { return c.planar }

// Eval implements Field.
func (c *CurlNoise) Eval(p r3.Vec, scale, offset float64) r3.Vec {
	q := r3.Add(r3.Scale(scale, p), r3.Vec{X: offset, Y: offset, Z: offset})
	if c.planar {
		return c.curl2D(q)
	}
	return c.curl3D(q)
}

// Field returns c as a Field.
func (c *CurlNoise) Field() Field { return c.Eval }

func (c *CurlNoise) curl2D(q r3.Vec) r3.Vec {
	h := curlStep
	dndx := (c.noise.Noise2D(q.X+h, q.Y) - c.noise.Noise2D(q.X-h, q.Y)) / (2 * h)
	dndy := (c.noise.Noise2D(q.X, q.Y+h) - c.noise.Noise2D(q.X, q.Y-h)) / (2 * h)
	return r3.Vec{X: dndy, Y: -dndx}
}

// potential returns component i of the vector potential at q.
func (c *CurlNoise) potential(i int, q r3.Vec) float64 {
	switch i {
	case 1:
		q = r3.Add(q, potentialY)
	case 2:
		q = r3.Add(q, potentialZ)
	}
	return c.noise.Noise3D(q.X, q.Y, q.Z)
}

// diff returns the derivative of potential component i along axis d.
func (c *CurlNoise) diff(i int, q, d r3.Vec) float64 {
	hi := c.potential(i, r3.Add(q, r3.Scale(curlStep, d)))
	lo := c.potential(i, r3.Sub(q, r3.Scale(curlStep, d)))
	return (hi - lo) / (2 * curlStep)
}

func (c *CurlNoise) curl3D(q r3.Vec) r3.Vec {
	x, y, z := r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}
	return r3.Vec{
		X: c.diff(2, q, y) - c.diff(1, q, z),
		Y: c.diff(0, q, z) - c.diff(2, q, x),
		Z: c.diff(1, q, x) - c.diff(0, q, y),
	}
}

// Noise returns the raw Perlin noise at p as a Scalar. Planar fields use
// only X and Y.
func (c *CurlNoise) Noise(p r3.Vec, scale, offset float64) float64 {
	if c.planar {
		return c.noise.Noise2D(p.X*scale+offset, p.Y*scale+offset)
	}
	return c.noise.Noise3D(p.X*scale+offset, p.Y*scale+offset,
		p.Z*scale+offset)
}

// MinRadiusFraction is the smallest radius a RadiusField produces, as a
// fraction of its maximum.
const MinRadiusFraction = 0.3

// RadiusField maps a scalar field in [-1, 1] onto collision radii.
type RadiusField struct {
	Noise         Scalar
	Scale, Offset float64
}

// Radius returns the radius at p for a maximum radius of r. Noise values
// of -1 and 1 give MinRadiusFraction*r and r respectively; values outside
// that range are clamped.
func (f *RadiusField) Radius(p r3.Vec, r float64) float64 {
	n := f.Noise(p, f.Scale, f.Offset)
	n = math.Max(-1, math.Min(1, n))
	if math.IsNaN(n) {
		n = 1
	}
	return geom.Remap(n, -1, 1, MinRadiusFraction*r, r)
}
