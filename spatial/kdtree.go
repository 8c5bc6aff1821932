package spatial

import (
	"iter"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// KDTree is an Index backed by a gonum k-d tree. Rebuild creates a balanced
// tree; Insert adds points without rebalancing.
type KDTree struct {
	tree kdtree.Tree
}

// NewKDTree returns an empty tree.
func NewKDTree() *KDTree { return &KDTree{} }

// Rebuild implements Index.
func (t *KDTree) Rebuild(ps []r3.Vec) {
	if len(ps) == 0 {
		t.Clear()
		return
	}
	pts := make(kdPoints, len(ps))
	for i := range ps {
		pts[i] = kdPoint{ps[i], i}
	}
	t.tree = *kdtree.New(pts, false)
}

// Insert implements Index.
func (t *KDTree) Insert(p r3.Vec, id int) {
	t.tree.Insert(kdPoint{p, id}, false)
}

// Clear implements Index.
func (t *KDTree) Clear() { t.tree = kdtree.Tree{} }

// Len implements Index.
func (t *KDTree) Len() int { return t.tree.Count }

// Search implements Index.
func (t *KDTree) Search(r Region) iter.Seq[int] {
	return func(yield func(int) bool) {
		b := r.Bounds()
		lo, hi := kdPoint{p: b.Min}, kdPoint{p: b.Max}
		walk(t.tree.Root, lo, hi, r, yield)
	}
}

// walk visits every node inside [lo, hi] which r contains. Points equal to
// a node's splitting value may be on either side of it, so both sides are
// searched in that case. It returns false if the search was stopped.
func walk(n *kdtree.Node, lo, hi kdPoint, r Region, yield func(int) bool) bool {
	if n == nil {
		return true
	}

	p := n.Point.(kdPoint)
	if lo.Compare(p, n.Plane) <= 0 {
		if !walk(n.Left, lo, hi, r, yield) {
			return false
		}
	}
	if r.Contains(p.p) && !yield(p.id) {
		return false
	}
	if hi.Compare(p, n.Plane) >= 0 {
		if !walk(n.Right, lo, hi, r, yield) {
			return false
		}
	}
	return true
}

type kdPoint struct {
	p  r3.Vec
	id int
}

func (p kdPoint) coord(d kdtree.Dim) float64 {
	switch d {
	case 0:
		return p.p.X
	case 1:
		return p.p.Y
	default:
		return p.p.Z
	}
}

// Compare implements kdtree.Comparable.
func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coord(d) - c.(kdPoint).coord(d)
}

// Dims implements kdtree.Comparable.
func (p kdPoint) Dims() int { return 3 }

// Distance implements kdtree.Comparable. It returns the squared distance.
func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(p.p, c.(kdPoint).p))
}

type kdPoints []kdPoint

func (ps kdPoints) Index(i int) kdtree.Comparable { return ps[i] }
func (ps kdPoints) Len() int                      { return len(ps) }
func (ps kdPoints) Slice(s, e int) kdtree.Interface {
	return ps[s:e]
}
func (ps kdPoints) Pivot(d kdtree.Dim) int {
	return kdPlane{Dim: d, kdPoints: ps}.Pivot()
}

// kdPlane sorts points along a single dimension.
type kdPlane struct {
	kdtree.Dim
	kdPoints
}

func (p kdPlane) Less(i, j int) bool {
	return p.kdPoints[i].coord(p.Dim) < p.kdPoints[j].coord(p.Dim)
}
func (p kdPlane) Swap(i, j int) {
	p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i]
}
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	return kdPlane{Dim: p.Dim, kdPoints: p.kdPoints[start:end]}
}
func (p kdPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
