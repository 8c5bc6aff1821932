package growth

import (
	"math"

	"github.com/phil-mansfield/diffgrowth/field"
	"github.com/phil-mansfield/diffgrowth/geom"
	"github.com/phil-mansfield/diffgrowth/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// stepContext is the read-only state shared by every term during one
// accumulation pass.
type stepContext struct {
	p     *Params
	dom   Domain
	pos   []r3.Vec
	index spatial.Index

	radii     []float64
	maxRadius float64
	// Collision moves are scaled by gain*r_i/(r_i + r_j).
	collisionGain float64

	// rest is nil when edges are pulled towards the collision distance.
	rest        []float64
	edgeGain    float64
	stretchOnly bool

	corners [][3]int
	quads   [][4]int

	terms []term
}

// term is a force term. items returns how many work items the term has and
// apply processes items [lo, hi).
type term struct {
	items func(c *stepContext) int
	apply func(c *stepContext, acc *Accumulator, lo, hi int)
	// index is set for terms which search the spatial index.
	index bool
}

func usesIndex(ts []term) bool {
	for i := range ts {
		if ts[i].index {
			return true
		}
	}
	return false
}

func elements(c *stepContext) int { return len(c.pos) }
func edges(c *stepContext) int    { return c.dom.EdgeCount() }
func corners(c *stepContext) int  { return len(c.corners) }
func quads(c *stepContext) int    { return len(c.quads) }

var (
	edgeLengthTerm    = term{edges, (*stepContext).edgeLength, false}
	collisionTerm     = term{elements, (*stepContext).collide, true}
	oneRingCancelTerm = term{edges, (*stepContext).cancelOneRing, false}
	laplacianTerm     = term{elements, (*stepContext).laplacian, false}
	boundaryTerm      = term{corners, (*stepContext).boundarySmooth, false}
	bendingTerm       = term{quads, (*stepContext).bend, false}
	fieldTerm         = term{elements, (*stepContext).fieldMove, false}
)

func (c *stepContext) restLength(k int) float64 {
	if c.rest == nil {
		return c.p.CollisionDistance
	}
	return c.rest[k]
}

// edgeLength pulls the ends of each edge towards its rest length.
func (c *stepContext) edgeLength(acc *Accumulator, lo, hi int) {
	w := c.p.Weights.Length
	for k := lo; k < hi; k++ {
		a, b, ok := c.dom.Edge(k)
		if !ok {
			continue
		}
		span := r3.Sub(c.pos[b], c.pos[a])
		d := r3.Norm(span)
		rest := c.restLength(k)
		if d == 0 || (c.stretchOnly && d <= rest) {
			continue
		}

		move := r3.Scale(c.edgeGain*(d-rest)/d*w, span)
		acc.Add(a, move, w)
		acc.Add(b, r3.Scale(-1, move), w)
	}
}

// pairMoves returns the collision moves applied to i and j, and whether
// each of them is inside its own radius.
func (c *stepContext) pairMoves(
	i, j int, w float64,
) (mi, mj r3.Vec, hitI, hitJ bool) {
	ri, rj := c.radii[i], c.radii[j]
	sep := r3.Sub(c.pos[i], c.pos[j])
	d := r3.Norm(sep)
	if d == 0 {
		return mi, mj, false, false
	}

	share := c.collisionGain / (ri + rj)
	if d < ri {
		mi = r3.Scale(ri*share*(ri-d)/d*w, sep)
		hitI = true
	}
	if d < rj {
		mj = r3.Scale(-rj*share*(rj-d)/d*w, sep)
		hitJ = true
	}
	return mi, mj, hitI, hitJ
}

// collide pushes apart every pair of elements closer than their radii. Each
// pair is found from its lower index, which then writes to both elements.
func (c *stepContext) collide(acc *Accumulator, lo, hi int) {
	w := c.p.Weights.Collision
	for i := lo; i < hi; i++ {
		for j := range c.index.Search(spatial.Ball(c.pos[i], c.maxRadius)) {
			if j <= i {
				continue
			}
			mi, mj, hitI, hitJ := c.pairMoves(i, j, w)
			if hitI {
				acc.Add(i, mi, w)
				acc.Contacts[i]++
			}
			if hitJ {
				acc.Add(j, mj, w)
				acc.Contacts[j]++
			}
		}
	}
}

// cancelOneRing adds the inverse of the collision move between every pair
// of connected elements.
func (c *stepContext) cancelOneRing(acc *Accumulator, lo, hi int) {
	w := c.p.Weights.Collision
	for k := lo; k < hi; k++ {
		a, b, ok := c.dom.Edge(k)
		if !ok {
			continue
		}
		ma, mb, hitA, hitB := c.pairMoves(a, b, w)
		if hitA {
			acc.Add(a, r3.Scale(-1, ma), w)
		}
		if hitB {
			acc.Add(b, r3.Scale(-1, mb), w)
		}
	}
}

// laplacian moves interior elements towards the centroid of their
// neighbours.
func (c *stepContext) laplacian(acc *Accumulator, lo, hi int) {
	w := c.p.Weights.Smooth
	for i := lo; i < hi; i++ {
		if c.dom.IsBoundary(i) {
			continue
		}
		sum, n := r3.Vec{}, 0
		for j := range c.dom.Neighbors(i) {
			sum = r3.Add(sum, c.pos[j])
			n++
		}
		if n == 0 {
			continue
		}
		avg := r3.Scale(1/float64(n), sum)
		acc.Add(i, r3.Scale(w, r3.Sub(avg, c.pos[i])), w)
	}
}

// boundarySmooth moves each boundary element towards the midpoint of its
// neighbours on the loop and moves the neighbours half as far back.
func (c *stepContext) boundarySmooth(acc *Accumulator, lo, hi int) {
	w := c.p.Weights.Boundary
	for k := lo; k < hi; k++ {
		v0, v1, v2 := c.corners[k][0], c.corners[k][1], c.corners[k][2]
		mid := geom.Midpoint(c.pos[v1], c.pos[v2])
		move := r3.Scale(w, r3.Sub(mid, c.pos[v0]))
		back := r3.Scale(-0.5, move)

		acc.Add(v0, move, w)
		acc.Add(v1, back, w)
		acc.Add(v2, back, w)
	}
}

// bend pulls the four corners of each pair of triangles onto the plane
// through their centroid with the average of the two face normals.
func (c *stepContext) bend(acc *Accumulator, lo, hi int) {
	w := c.p.Weights.Bending
	for k := lo; k < hi; k++ {
		q := c.quads[k]
		pa, pb, pc, pd := c.pos[q[0]], c.pos[q[1]], c.pos[q[2]], c.pos[q[3]]

		nP := r3.Cross(r3.Sub(pb, pa), r3.Sub(pc, pa))
		nQ := r3.Cross(r3.Sub(pa, pb), r3.Sub(pd, pb))
		lP, lQ := r3.Norm(nP), r3.Norm(nQ)
		if lP == 0 || lQ == 0 {
			continue
		}
		n := r3.Add(r3.Scale(1/lP, nP), r3.Scale(1/lQ, nQ))

		plane, ok := geom.NewPlane(geom.Centroid(pa, pb, pc, pd), n)
		if !ok {
			continue
		}
		for _, v := range q {
			move := r3.Sub(plane.ClosestPoint(c.pos[v]), c.pos[v])
			acc.Add(v, r3.Scale(w, move), w)
		}
	}
}

// fieldMove moves every element along the external field.
func (c *stepContext) fieldMove(acc *Accumulator, lo, hi int) {
	w := c.p.Weights.Field
	f := c.p.Field
	for i := lo; i < hi; i++ {
		v := f(c.pos[i], c.p.FieldScale, c.p.FieldOffset)
		if !geom.Finite(v) {
			continue
		}
		acc.Add(i, r3.Scale(w, v), w)
	}
}

// radii fills buf with every element's collision radius and returns it
// along with the largest radius.
func radii(p *Params, pos []r3.Vec, buf []float64) ([]float64, float64) {
	if cap(buf) < len(pos) {
		buf = make([]float64, len(pos))
	}
	buf = buf[:len(pos)]

	if !p.VariableRadius {
		for i := range buf {
			buf[i] = p.CollisionDistance
		}
		return buf, p.CollisionDistance
	}

	f := &field.RadiusField{
		Noise: p.Noise, Scale: p.FieldScale, Offset: p.FieldOffset,
	}
	max := 0.0
	for i := range buf {
		buf[i] = f.Radius(pos[i], p.CollisionDistance)
		max = math.Max(max, buf[i])
	}
	return buf, max
}
