/*package geom contains the small amount of vector geometry shared by the
growth engine: bounding boxes, spheres, fitting planes and a cell grid.

Vectors are gonum's r3.Vec throughout.
*/
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Bounds is an axis-aligned bounding box. The zero value is a box
// containing only the origin; use EmptyBounds for a box that contains
// nothing.
type Bounds struct {
	Min, Max r3.Vec
}

// EmptyBounds returns a box which Include will snap to its first point.
func EmptyBounds() Bounds {
	inf := math.Inf(+1)
	return Bounds{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// BoundsOf returns the smallest box containing every point in ps.
func BoundsOf(ps []r3.Vec) Bounds {
	b := EmptyBounds()
	for i := range ps {
		b.Include(ps[i])
	}
	return b
}

// Empty returns true if b contains no points.
func (b Bounds) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Include grows b so that it contains p.
func (b *Bounds) Include(p r3.Vec) {
	b.Min.X, b.Max.X = minMax(p.X, b.Min.X, b.Max.X)
	b.Min.Y, b.Max.Y = minMax(p.Y, b.Min.Y, b.Max.Y)
	b.Min.Z, b.Max.Z = minMax(p.Z, b.Min.Z, b.Max.Z)
}

// Span returns the widths of b along each axis.
func (b Bounds) Span() r3.Vec {
	if b.Empty() {
		return r3.Vec{}
	}
	return r3.Sub(b.Max, b.Min)
}

// Center returns the center of b.
func (b Bounds) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Expand returns a copy of b padded by d on every side.
func (b Bounds) Expand(d float64) Bounds {
	pad := r3.Vec{X: d, Y: d, Z: d}
	return Bounds{Min: r3.Sub(b.Min, pad), Max: r3.Add(b.Max, pad)}
}

// Contains returns true if p is inside b (inclusive).
func (b Bounds) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Bounds returns b. This lets a Bounds be used anywhere a region is.
func (b Bounds) Bounds() Bounds { return b }

// Intersects returns true if the two boxes overlap.
func (b Bounds) Intersects(o Bounds) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}

func minMax(x, oldMin, oldMax float64) (min, max float64) {
	min, max = oldMin, oldMax
	if x < min {
		min = x
	}
	if x > max {
		max = x
	}
	return min, max
}

// Sphere is a sphere. (Duh!)
type Sphere struct {
	C r3.Vec
	R float64
}

// Bounds returns the bounding box of the sphere.
func (s Sphere) Bounds() Bounds {
	return Bounds{Min: s.C, Max: s.C}.Expand(s.R)
}

// Contains returns true if p is inside the sphere (inclusive).
func (s Sphere) Contains(p r3.Vec) bool {
	return r3.Norm2(r3.Sub(p, s.C)) <= s.R*s.R
}

// Plane is an infinite plane through Origin with unit normal Normal.
type Plane struct {
	Origin, Normal r3.Vec
}

// NewPlane creates a plane through origin with the given (not necessarily
// unit) normal. ok is false if the normal has zero or non-finite length, in
// which case the plane is undefined.
func NewPlane(origin, normal r3.Vec) (p Plane, ok bool) {
	n := r3.Norm(normal)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Plane{}, false
	}
	return Plane{Origin: origin, Normal: r3.Scale(1/n, normal)}, true
}

// ClosestPoint returns the projection of q onto the plane.
func (p *Plane) ClosestPoint(q r3.Vec) r3.Vec {
	d := r3.Dot(r3.Sub(q, p.Origin), p.Normal)
	return r3.Sub(q, r3.Scale(d, p.Normal))
}

// Centroid returns the average of the given points. It returns the zero
// vector if no points are given.
func Centroid(ps ...r3.Vec) r3.Vec {
	if len(ps) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, p := range ps {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(ps)), sum)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b r3.Vec) r3.Vec {
	return r3.Scale(0.5, r3.Add(a, b))
}

// Finite returns true if none of v's components are NaN or infinite.
func Finite(v r3.Vec) bool {
	return !(math.IsNaN(v.X) || math.IsInf(v.X, 0) ||
		math.IsNaN(v.Y) || math.IsInf(v.Y, 0) ||
		math.IsNaN(v.Z) || math.IsInf(v.Z, 0))
}

// Remap linearly maps x from the range [from0, from1] onto [to0, to1].
func Remap(x, from0, from1, to0, to1 float64) float64 {
	return (x-from0)/(from1-from0)*(to1-to0) + to0
}
