package interpolate

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerateCurve is returned when too few distinct points are given to
// define a curve.
var ErrDegenerateCurve = errors.New("too few distinct points for a curve")

// arcSubdivisions is the number of chords used to estimate the arc length of
// each interval between knots.
const arcSubdivisions = 16

// Sampler is a continuous curve which can be divided into pieces of equal
// arc length.
type Sampler interface {
	Length() float64
	DivideByLength(spacing float64) ([]float64, error)
	Points(ts []float64) []r3.Vec
}

// Kernel builds a Sampler which passes through an ordered set of points.
type Kernel interface {
	Interpolate(pts []r3.Vec, closed bool) (Sampler, error)
}

// CubicKernel interpolates points with a chord-length parametrised cubic
// spline. Closed curves use periodic splines.
type CubicKernel struct{}

// LinearKernel interpolates points with straight segments.
type LinearKernel struct{}

// Interpolate implements Kernel.
func (CubicKernel) Interpolate(pts []r3.Vec, closed bool) (Sampler, error) {
	c, err := NewCurve(pts, closed)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Interpolate implements Kernel.
func (LinearKernel) Interpolate(pts []r3.Vec, closed bool) (Sampler, error) {
	c, err := newCurve(pts, closed, true)
	if err != nil {
		return nil, err
	}
	return c, nil
}

var (
	_ Kernel  = CubicKernel{}
	_ Kernel  = LinearKernel{}
	_ Sampler = &Curve{}
)

type evaler interface {
	Eval(x float64) float64
}

// Curve is a 3D curve through a sequence of points, parametrised by the
// cumulative chord length between them. A Curve is not safe for concurrent
// use.
type Curve struct {
	x, y, z evaler
	closed  bool
	tMax    float64

	ss  []float64
	arc *Linear
}

// NewCurve creates a cubic curve passing through pts in order. Consecutive
// duplicate points are ignored. Open curves need two distinct points, closed
// curves need three.
func NewCurve(pts []r3.Vec, closed bool) (*Curve, error) {
	return newCurve(pts, closed, false)
}

func newCurve(pts []r3.Vec, closed, linear bool) (*Curve, error) {
	ps := distinct(pts, closed)
	if (closed && len(ps) < 3) || len(ps) < 2 {
		return nil, errors.Wrapf(ErrDegenerateCurve,
			"%d distinct points given to NewCurve() (closed = %v)",
			len(ps), closed)
	}

	if closed {
		ps = append(ps, ps[0])
	}

	ts := make([]float64, len(ps))
	xs, ys, zs := make([]float64, len(ps)), make([]float64, len(ps)),
		make([]float64, len(ps))
	for i, p := range ps {
		if i > 0 {
			ts[i] = ts[i-1] + r3.Norm(r3.Sub(p, ps[i-1]))
		}
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}

	c := &Curve{closed: closed, tMax: ts[len(ts)-1]}
	var err error
	switch {
	case linear:
		c.x, c.y, c.z, err = linearCoords(ts, xs, ys, zs)
	case closed:
		c.x, c.y, c.z, err = periodicCoords(ts, xs, ys, zs)
	default:
		c.x, c.y, c.z, err = splineCoords(ts, xs, ys, zs)
	}
	if err != nil {
		return nil, err
	}

	if err := c.tabulateArcLength(ts); err != nil {
		return nil, err
	}
	return c, nil
}

func distinct(pts []r3.Vec, closed bool) []r3.Vec {
	ps := make([]r3.Vec, 0, len(pts))
	for _, p := range pts {
		if len(ps) > 0 && p == ps[len(ps)-1] {
			continue
		}
		ps = append(ps, p)
	}
	if closed && len(ps) > 1 && ps[0] == ps[len(ps)-1] {
		ps = ps[:len(ps)-1]
	}
	return ps
}

func splineCoords(ts, xs, ys, zs []float64) (x, y, z evaler, err error) {
	sx, err := NewSpline(ts, xs)
	if err != nil {
		return nil, nil, nil, err
	}
	sy, err := NewSpline(ts, ys)
	if err != nil {
		return nil, nil, nil, err
	}
	sz, err := NewSpline(ts, zs)
	if err != nil {
		return nil, nil, nil, err
	}
	return sx, sy, sz, nil
}

func periodicCoords(ts, xs, ys, zs []float64) (x, y, z evaler, err error) {
	sx, err := NewPeriodicSpline(ts, xs)
	if err != nil {
		return nil, nil, nil, err
	}
	sy, err := NewPeriodicSpline(ts, ys)
	if err != nil {
		return nil, nil, nil, err
	}
	sz, err := NewPeriodicSpline(ts, zs)
	if err != nil {
		return nil, nil, nil, err
	}
	return sx, sy, sz, nil
}

func linearCoords(ts, xs, ys, zs []float64) (x, y, z evaler, err error) {
	lx, err := NewLinear(ts, xs)
	if err != nil {
		return nil, nil, nil, err
	}
	ly, err := NewLinear(ts, ys)
	if err != nil {
		return nil, nil, nil, err
	}
	lz, err := NewLinear(ts, zs)
	if err != nil {
		return nil, nil, nil, err
	}
	return lx, ly, lz, nil
}

// tabulateArcLength builds the table used to map arc length back onto the
// curve's parameter.
func (c *Curve) tabulateArcLength(knots []float64) error {
	n := (len(knots)-1)*arcSubdivisions + 1
	ts, ss := make([]float64, n), make([]float64, n)

	prev := c.Eval(0)
	for i := 0; i < len(knots)-1; i++ {
		dt := (knots[i+1] - knots[i]) / arcSubdivisions
		for k := 1; k <= arcSubdivisions; k++ {
			j := i*arcSubdivisions + k
			ts[j] = knots[i] + float64(k)*dt
			p := c.Eval(ts[j])
			ss[j] = ss[j-1] + r3.Norm(r3.Sub(p, prev))
			prev = p
		}
	}
	ts[n-1] = c.tMax

	arc, err := NewLinear(ss, ts)
	if err != nil {
		return err
	}
	c.ss, c.arc = ss, arc
	return nil
}

// Eval returns the point on the curve at parameter t, which runs from 0 to
// the total chord length. Closed curves wrap t, open curves clamp it.
func (c *Curve) Eval(t float64) r3.Vec {
	return r3.Vec{X: c.x.Eval(t), Y: c.y.Eval(t), Z: c.z.Eval(t)}
}

// Closed returns true if the curve is periodic.
func (c *Curve) Closed() bool { return c.closed }

// Domain returns the largest parameter value of the curve.
func (c *Curve) Domain() float64 { return c.tMax }

// Length returns the arc length of the curve.
func (c *Curve) Length() float64 { return c.ss[len(c.ss)-1] }

// ParamAtLength returns the parameter at which the arc length from the start
// of the curve equals s.
func (c *Curve) ParamAtLength(s float64) float64 {
	return c.arc.Eval(s)
}

// DivideByLength returns curve parameters separated by approximately equal
// arc lengths close to spacing. Open curves include both end points. Closed
// curves include the start point once and always return at least three
// parameters.
func (c *Curve) DivideByLength(spacing float64) ([]float64, error) {
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return nil, errors.Errorf(
			"Need a positive spacing for DivideByLength(), but it is %g.",
			spacing,
		)
	}

	length := c.Length()
	count := int(math.Round(length / spacing))

	var ts []float64
	if c.closed {
		if count < 3 {
			count = 3
		}
		ts = make([]float64, count)
	} else {
		if count < 1 {
			count = 1
		}
		ts = make([]float64, count+1)
	}

	ds := length / float64(count)
	for i := range ts {
		ts[i] = c.ParamAtLength(float64(i) * ds)
	}
	if !c.closed {
		ts[len(ts)-1] = c.tMax
	}
	return ts, nil
}

// Points evaluates the curve at every given parameter.
func (c *Curve) Points(ts []float64) []r3.Vec {
	out := make([]r3.Vec, len(ts))
	for i, t := range ts {
		out[i] = c.Eval(t)
	}
	return out
}
