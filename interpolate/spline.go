package interpolate

import (
	"math"

	"github.com/pkg/errors"
)

// ErrSingular is returned by the tridiagonal solvers when the system has a
// zero pivot.
var ErrSingular = errors.New("tridiagonal system is singular")

// Spline represents a 1D cubic spline which can be used to interpolate between
// points.
type Spline struct {
	xs, ys, y2s, sqrs []float64

	// Usually the input data is close to uniform. This is our estimate of the
	// point spacing.
	dx float64
}

// NewSpline creates a natural cubic spline based off a table of x and y
// values. The x values must be strictly increasing.
//
// xs and ys are copied, so they may be modified after NewSpline returns.
func NewSpline(xs, ys []float64) (*Spline, error) {
	sp := new(Spline)
	if err := sp.init(xs, ys, 2); err != nil {
		return nil, err
	}

	n := len(sp.xs)
	if n > 2 {
		as, bs, cs, rs := sp.system(n - 2)
		if err := TriDiagAt(as, bs, cs, rs, sp.y2s[1:n-1]); err != nil {
			return nil, errors.Wrap(err, "NewSpline()")
		}
	}

	return sp, nil
}

func (sp *Spline) init(xs, ys []float64, minLen int) error {
	if len(xs) != len(ys) {
		return errors.Errorf(
			"Table given to NewSpline() has len(xs) = %d but len(ys) = %d.",
			len(xs), len(ys),
		)
	} else if len(xs) < minLen {
		return errors.Errorf(
			"Table given to NewSpline() has length of %d.", len(xs),
		)
	}

	for i := 0; i < len(xs)-1; i++ {
		if !(xs[i+1] > xs[i]) {
			return errors.Errorf(
				"Table given to NewSpline() not strictly increasing at "+
					"index %d.", i,
			)
		}
	}

	sp.xs = append([]float64(nil), xs...)
	sp.ys = append([]float64(nil), ys...)
	sp.y2s = make([]float64, len(xs))
	sp.sqrs = make([]float64, len(xs)-1)
	for i := range sp.sqrs {
		sp.sqrs[i] = (xs[i+1] - xs[i]) * (xs[i+1] - xs[i])
	}
	sp.dx = (xs[len(xs)-1] - xs[0]) / float64(len(xs)-1)
	return nil
}

// system returns the tridiagonal system for the second derivatives at the m
// knots following the first one. Indices wrap around the final knot, so for a
// periodic table as[0] and cs[m-1] are the corner coefficients.
func (sp *Spline) system(m int) (as, bs, cs, rs []float64) {
	as, bs = make([]float64, m), make([]float64, m)
	cs, rs = make([]float64, m), make([]float64, m)

	xs, ys := sp.xs, sp.ys
	n := len(xs)
	period := xs[n-1] - xs[0]
	for i := range rs {
		// j indexes into xs and ys.
		j := i + 1
		jNext := j + 1
		xNext := 0.0
		if jNext >= n {
			// Only reached for periodic tables.
			jNext -= n - 1
			xNext = period
		}

		hLo := xs[j] - xs[j-1]
		hHi := xs[jNext] + xNext - xs[j]

		as[i] = hLo / 6
		bs[i] = (hLo + hHi) / 3
		cs[i] = hHi / 6
		rs[i] = (ys[jNext]-ys[j])/hHi - (ys[j]-ys[j-1])/hLo
	}

	return as, bs, cs, rs
}

// Eval computes the value of the spline at the given point. Points outside
// the range of the table are clamped to its ends.
func (sp *Spline) Eval(x float64) float64 {
	n := len(sp.xs)
	if x <= sp.xs[0] {
		return sp.ys[0]
	} else if x >= sp.xs[n-1] {
		return sp.ys[n-1]
	}

	lo := sp.bsearch(x)
	hi := lo + 1

	A := (sp.xs[hi] - x) / (sp.xs[hi] - sp.xs[lo])
	B := 1 - A
	C := (A*A*A - A) * sp.sqrs[lo] / 6
	D := (B*B*B - B) * sp.sqrs[lo] / 6
	return A*sp.ys[lo] + B*sp.ys[hi] + C*sp.y2s[lo] + D*sp.y2s[hi]
}

// EvalAll evaluates the spline at all the given x values. If an output
// array is given, the output is written to that array (the array is still
// returned as a convenience).
func (sp *Spline) EvalAll(xs []float64, out ...[]float64) []float64 {
	if len(out) == 0 {
		out = [][]float64{make([]float64, len(xs))}
	}
	for i, x := range xs {
		out[0][i] = sp.Eval(x)
	}
	return out[0]
}

// Range returns the smallest and largest x values in the table.
func (sp *Spline) Range() (lo, hi float64) {
	return sp.xs[0], sp.xs[len(sp.xs)-1]
}

// bsearch returns the the index of the largest element in xs which is smaller
// than x.
func (sp *Spline) bsearch(x float64) int {
	// Guess under the assumption of uniform spacing.
	guess := int((x - sp.xs[0]) / sp.dx)
	if guess >= 0 && guess < len(sp.xs)-1 &&
		sp.xs[guess] <= x && sp.xs[guess+1] >= x {

		return guess
	}

	// Binary search.
	lo, hi := 0, len(sp.xs)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if x >= sp.xs[mid] {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// PeriodicSpline is a cubic spline whose value and first two derivatives
// match at the two ends of its table.
type PeriodicSpline struct {
	Spline
	period float64
}

// NewPeriodicSpline creates a periodic spline from a table whose final
// point closes the period. ys[len(ys)-1] is ignored and taken to be ys[0].
// At least four entries (three distinct knots) are required.
func NewPeriodicSpline(xs, ys []float64) (*PeriodicSpline, error) {
	sp := &PeriodicSpline{}
	if err := sp.init(xs, ys, 4); err != nil {
		return nil, err
	}

	n := len(sp.xs)
	sp.ys[n-1] = sp.ys[0]
	sp.period = sp.xs[n-1] - sp.xs[0]

	// Knots 1 .. n-1, where knot n-1 is knot 0.
	as, bs, cs, rs := sp.system(n - 1)
	if err := CyclicTriDiagAt(as, bs, cs, rs, sp.y2s[1:]); err != nil {
		return nil, errors.Wrap(err, "NewPeriodicSpline()")
	}
	sp.y2s[0] = sp.y2s[n-1]

	return sp, nil
}

// Eval computes the value of the spline at x, wrapped into the period.
func (sp *PeriodicSpline) Eval(x float64) float64 {
	return sp.Spline.Eval(sp.wrap(x))
}

// Period returns the length of the spline's period.
func (sp *PeriodicSpline) Period() float64 { return sp.period }

func (sp *PeriodicSpline) wrap(x float64) float64 {
	dx := math.Mod(x-sp.xs[0], sp.period)
	if dx < 0 {
		dx += sp.period
	}
	return sp.xs[0] + dx
}

// TriDiagAt solves the system of equations
//
// | b0 c0 ..    |   | out0 |   | r0 |
// | a1 b1 c1 .. |   | out1 |   | r1 |
// | ..          | * | ..   | = | .. |
// | ..    an bn |   | outn |   | rn |
//
// For out0 .. outn in place in the given slice. a0 and cn are ignored.
func TriDiagAt(as, bs, cs, rs, out []float64) error {
	if len(as) != len(bs) || len(as) != len(cs) ||
		len(as) != len(out) || len(as) != len(rs) {

		return errors.New("Length of arguments to TriDiagAt are unequal.")
	} else if len(as) == 0 {
		return nil
	}

	tmp := make([]float64, len(as))

	beta := bs[0]
	if beta == 0 {
		return ErrSingular
	}
	out[0] = rs[0] / beta

	for i := 1; i < len(out); i++ {
		tmp[i] = cs[i-1] / beta
		beta = bs[i] - as[i]*tmp[i]
		if beta == 0 {
			return ErrSingular
		}
		out[i] = (rs[i] - as[i]*out[i-1]) / beta
	}

	for i := len(out) - 2; i >= 0; i-- {
		out[i] -= tmp[i+1] * out[i+1]
	}
	return nil
}

// TriDiag solves the same system as TriDiagAt, but allocates its output.
func TriDiag(as, bs, cs, rs []float64) ([]float64, error) {
	us := make([]float64, len(as))
	err := TriDiagAt(as, bs, cs, rs, us)
	return us, err
}

// CyclicTriDiagAt solves a tridiagonal system which also has the corner
// elements a0 (top right) and cn (bottom left) set, using the
// Sherman-Morrison formula. The system must have at least three rows.
func CyclicTriDiagAt(as, bs, cs, rs, out []float64) error {
	n := len(as)
	if n != len(bs) || n != len(cs) || n != len(rs) || n != len(out) {
		return errors.New("Length of arguments to CyclicTriDiagAt are unequal.")
	} else if n < 3 {
		return errors.Errorf("CyclicTriDiagAt needs at least 3 rows, got %d.", n)
	}

	alpha, beta := cs[n-1], as[0]
	gamma := -bs[0]
	if gamma == 0 {
		return ErrSingular
	}

	bb := append([]float64(nil), bs...)
	bb[0] = bs[0] - gamma
	bb[n-1] = bs[n-1] - alpha*beta/gamma

	if err := TriDiagAt(as, bb, cs, rs, out); err != nil {
		return err
	}

	u := make([]float64, n)
	u[0], u[n-1] = gamma, alpha
	z := make([]float64, n)
	if err := TriDiagAt(as, bb, cs, u, z); err != nil {
		return err
	}

	denom := 1 + z[0] + beta*z[n-1]/gamma
	if denom == 0 {
		return ErrSingular
	}
	fact := (out[0] + beta*out[n-1]/gamma) / denom
	for i := range out {
		out[i] -= fact * z[i]
	}
	return nil
}
