package field

import (
	"math"
	"testing"

	"github.com/phil-mansfield/diffgrowth/geom"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCurlNoiseDeterministic(t *testing.T) {
	a, b := NewCurlNoise(4, false), NewCurlNoise(4, false)
	p := r3.Vec{X: 0.3, Y: -1.7, Z: 2.2}

	va, vb := a.Eval(p, 0.5, 0.1), b.Eval(p, 0.5, 0.1)
	assert.Equal(t, va, vb)
	assert.True(t, geom.Finite(va))
	assert.False(t, a.Planar())
}

func TestCurlNoisePlanar(t *testing.T) {
	c := NewCurlNoise(1, true)
	f := c.Field()

	nonZero := false
	for i := 0; i < 50; i++ {
		p := r3.Vec{X: float64(i) * 0.37, Y: float64(i) * -0.21, Z: 5}
		v := f(p, 0.7, 0.3)
		assert.Equal(t, 0.0, v.Z)
		nonZero = nonZero || r3.Norm(v) > 0
	}
	assert.True(t, nonZero)
}

// The 2D curl is the noise gradient turned by 90 degrees, so it is tangent
// to the noise level sets.
func TestCurlNoisePerpendicular(t *testing.T) {
	c := NewCurlNoise(2, true)
	h := curlStep / 10
	for i := 0; i < 20; i++ {
		p := r3.Vec{X: 0.13 * float64(i), Y: 0.71 * float64(i)}
		v := c.Eval(p, 1, 0)
		gx := (c.Noise(r3.Add(p, r3.Vec{X: h}), 1, 0) -
			c.Noise(r3.Sub(p, r3.Vec{X: h}), 1, 0)) / (2 * h)
		gy := (c.Noise(r3.Add(p, r3.Vec{Y: h}), 1, 0) -
			c.Noise(r3.Sub(p, r3.Vec{Y: h}), 1, 0)) / (2 * h)
		g := r3.Vec{X: gx, Y: gy}
		if d := r3.Dot(v, g); math.Abs(d) > 1e-2*(1+r3.Norm2(g)) {
			t.Errorf("%d) curl . grad = %g.", i, d)
		}
	}
}

func TestRadiusField(t *testing.T) {
	table := []struct {
		noise, r, radius float64
	}{
		{-1, 1, 0.3},
		{1, 1, 1},
		{0, 2, 1.3},
		{-5, 2, 0.6},
		{5, 2, 2},
	}

	for i, test := range table {
		n := test.noise
		f := &RadiusField{
			Noise: func(p r3.Vec, scale, offset float64) float64 { return n },
		}
		if r := f.Radius(r3.Vec{}, test.r); math.Abs(r-test.radius) > 1e-12 {
			t.Errorf("%d) Radius = %g, expected %g.", i, r, test.radius)
		}
	}

	c := NewCurlNoise(3, true)
	f := &RadiusField{Noise: c.Noise, Scale: 0.2, Offset: 1}
	for i := 0; i < 100; i++ {
		r := f.Radius(r3.Vec{X: float64(i), Y: float64(i) * 0.5}, 1)
		assert.True(t, r >= MinRadiusFraction && r <= 1, "%d) r = %g", i, r)
	}
}

func TestUniform(t *testing.T) {
	v := r3.Vec{X: 1, Y: 2}
	assert.Equal(t, v, Uniform(v)(r3.Vec{Z: 4}, 10, 3))
	assert.Equal(t, r3.Vec{}, Zero(r3.Vec{X: 1}, 1, 1))
}
