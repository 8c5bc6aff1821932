/*package polyline implements ordered point lists, either open or closed,
which can grow by inserting points and be relaxed and resampled as smooth
curves.
*/
package polyline

import (
	"github.com/phil-mansfield/diffgrowth/geom"
	"github.com/phil-mansfield/diffgrowth/interpolate"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// Polyline is a sequence of points. Point i is connected to points i-1 and
// i+1, and if the line is closed the last point is connected to the first.
type Polyline struct {
	Points []r3.Vec
	Closed bool
}

// New creates a Polyline from a copy of ps.
func New(ps []r3.Vec, closed bool) *Polyline {
	return &Polyline{Points: append([]r3.Vec(nil), ps...), Closed: closed}
}

// Clone returns a deep copy of p.
func (p *Polyline) Clone() *Polyline { return New(p.Points, p.Closed) }

// Len returns the number of points.
func (p *Polyline) Len() int { return len(p.Points) }

// closedLoop returns true if the line wraps around. Lines with fewer than
// three points never do.
func (p *Polyline) closedLoop() bool { return p.Closed && len(p.Points) >= 3 }

// Neighbors returns the points before and after i. Missing neighbours at the
// ends of an open line are -1.
func (p *Polyline) Neighbors(i int) (prev, next int) {
	n := len(p.Points)
	prev, next = i-1, i+1
	if p.closedLoop() {
		prev, next = (i+n-1)%n, (i+1)%n
	} else {
		if prev < 0 {
			prev = -1
		}
		if next >= n {
			next = -1
		}
	}
	return prev, next
}

// IsEnd returns true if i is the first or last point of an open line.
func (p *Polyline) IsEnd(i int) bool {
	return !p.closedLoop() && (i == 0 || i == len(p.Points)-1)
}

// SegmentCount returns the number of segments joining points.
func (p *Polyline) SegmentCount() int {
	n := len(p.Points)
	switch {
	case n < 2:
		return 0
	case p.closedLoop():
		return n
	default:
		return n - 1
	}
}

// Segment returns the endpoints of segment k, which starts at point k.
func (p *Polyline) Segment(k int) (a, b int) {
	return k, (k + 1) % len(p.Points)
}

// InsertAfter inserts pt after point i, shifting every later point up by
// one. i == -1 inserts at the front.
func (p *Polyline) InsertAfter(i int, pt r3.Vec) {
	p.Points = append(p.Points, r3.Vec{})
	copy(p.Points[i+2:], p.Points[i+1:])
	p.Points[i+1] = pt
}

// Length returns the total length of all segments.
func (p *Polyline) Length() float64 {
	sum := 0.0
	for k := 0; k < p.SegmentCount(); k++ {
		a, b := p.Segment(k)
		sum += r3.Norm(r3.Sub(p.Points[b], p.Points[a]))
	}
	return sum
}

// Laplacian returns the vector from point i to the average of its
// neighbours. It is zero at the ends of open lines.
func (p *Polyline) Laplacian(i int) r3.Vec {
	prev, next := p.Neighbors(i)
	if prev < 0 || next < 0 {
		return r3.Vec{}
	}
	avg := geom.Midpoint(p.Points[prev], p.Points[next])
	return r3.Sub(avg, p.Points[i])
}

// Curvature returns the sum of the squared Laplacians of every point.
func (p *Polyline) Curvature() float64 {
	sum := 0.0
	for i := range p.Points {
		sum += r3.Norm2(p.Laplacian(i))
	}
	return sum
}

// Smooth moves every point towards the average of its neighbours,
// p' = avg*strength + p*(1 - strength), for the given number of iterations.
// Each iteration reads only the positions from the previous one. The ends
// of open lines do not move.
func (p *Polyline) Smooth(strength float64, iterations int) {
	if iterations <= 0 || len(p.Points) < 3 {
		return
	}

	buf := make([]r3.Vec, len(p.Points))
	for it := 0; it < iterations; it++ {
		for i := range p.Points {
			buf[i] = r3.Add(p.Points[i], r3.Scale(strength, p.Laplacian(i)))
		}
		p.Points, buf = buf, p.Points
	}
}

// Resample replaces the points with samples taken at approximately even
// arc-length spacing along a curve interpolated through the current points.
// The ends of open lines are kept. If max is positive the spacing is widened
// where needed so that at most max points are produced (closed curves always
// get at least three).
func (p *Polyline) Resample(k interpolate.Kernel, spacing float64, max int) error {
	c, err := k.Interpolate(p.Points, p.Closed)
	if err != nil {
		return errors.Wrap(err, "could not interpolate polyline")
	}

	segments := max
	if !p.Closed {
		segments--
	}
	if max > 0 && segments > 0 && c.Length()/spacing > float64(segments) {
		spacing = c.Length() / float64(segments)
	}

	ts, err := c.DivideByLength(spacing)
	if err != nil {
		return err
	}
	p.Points = c.Points(ts)
	return nil
}

// SplitLong inserts a midpoint into every segment longer than threshold,
// without letting the number of points exceed max. Each segment is split at
// most once per call. The number of inserted points is returned.
func (p *Polyline) SplitLong(threshold float64, max int) int {
	long := []int{}
	for k := 0; k < p.SegmentCount(); k++ {
		a, b := p.Segment(k)
		if r3.Norm(r3.Sub(p.Points[b], p.Points[a])) > threshold {
			long = append(long, k)
		}
	}
	if room := max - len(p.Points); len(long) > room {
		if room < 0 {
			room = 0
		}
		long = long[:room]
	}

	// Back to front, so earlier indices stay valid.
	for j := len(long) - 1; j >= 0; j-- {
		a, b := p.Segment(long[j])
		p.InsertAfter(a, geom.Midpoint(p.Points[a], p.Points[b]))
	}
	return len(long)
}
