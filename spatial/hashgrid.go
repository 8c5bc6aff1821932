package spatial

import (
	"iter"
	"math"

	"github.com/phil-mansfield/diffgrowth/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// HashGrid is an Index which bins points into a uniform grid of cells
// spanning a domain. Points outside the domain are stored in the closest
// border cell, so searches remain correct, just slower, after the points
// have drifted.
//
// The cell width along each axis is kept close to a target scale: when the
// domain is refit and the cells have become wider than twice the target, the
// grid is rebuilt with more cells. The total number of cells never exceeds
// cellsPerPoint times the number of points (or minCells, if that is larger),
// so widely scattered points get cells wider than the target instead.
type HashGrid struct {
	target float64

	domain geom.Bounds
	extent geom.Bounds
	grid   geom.Grid
	width  [3]float64

	cells    [][]int32
	entries  []entry
	expected int
	rebuilds int
}

const (
	cellsPerPoint = 4
	minCells      = 1 << 12
)

// NewHashGrid creates an empty grid with the given target cell width. The
// grid has a single cell until Fit or Rebuild is called.
func NewHashGrid(target float64) *HashGrid {
	g := &HashGrid{target: target, extent: geom.EmptyBounds()}
	g.resize(geom.Bounds{}, [3]int{1, 1, 1})
	return g
}

// TargetScale returns the cell width the grid aims for.
func (g *HashGrid) TargetScale() float64 { return g.target }

// BinScale returns the current cell widths.
func (g *HashGrid) BinScale() r3.Vec {
	return r3.Vec{X: g.width[0], Y: g.width[1], Z: g.width[2]}
}

// Cells returns the number of cells along each axis.
func (g *HashGrid) Cells() [3]int { return g.grid.Width }

// Rebuilds returns the number of times Fit has had to change the number of
// cells.
func (g *HashGrid) Rebuilds() int { return g.rebuilds }

// Fit moves the grid's domain to b while keeping its cell counts. If this
// makes any cell wider than twice the target scale and the cell budget
// allows a finer grid, the cells are discarded and a finer grid is created
// instead, and true is returned. Existing points are re-binned either way.
func (g *HashGrid) Fit(b geom.Bounds) bool {
	if b.Empty() {
		return false
	}

	span := b.Span()
	spans := [3]float64{span.X, span.Y, span.Z}
	limit := 2 * g.target

	counts := g.grid.Width
	tooWide := false
	for i := 0; i < 3; i++ {
		if spans[i]/float64(counts[i]) > limit {
			tooWide = true
		}
	}

	rebuilt := false
	if tooWide {
		if fit := g.cellCounts(spans); fit != counts {
			counts, rebuilt = fit, true
			g.rebuilds++
		}
	}

	g.resize(b, counts)
	return rebuilt
}

func (g *HashGrid) budget() int {
	n := max(len(g.entries), g.expected)
	return max(minCells, cellsPerPoint*n)
}

// cellCounts returns the number of cells along each axis which gives cells
// of the target width, coarsened until the total fits in the budget.
func (g *HashGrid) cellCounts(spans [3]float64) [3]int {
	budget := float64(g.budget())
	width := g.target
	for {
		counts, total := [3]int{}, 1.0
		for i := 0; i < 3; i++ {
			n := 1.0
			if !math.IsInf(spans[i], 0) {
				n = math.Min(math.Ceil(spans[i]/width), budget)
			}
			if !(n >= 1) {
				n = 1
			}
			counts[i] = int(n)
			total *= n
		}
		if total <= budget {
			return counts
		}
		width *= 1.01 * math.Cbrt(total/budget)
	}
}

func (g *HashGrid) resize(b geom.Bounds, counts [3]int) {
	g.domain = b
	if counts != g.grid.Width || g.cells == nil {
		g.grid.Init([3]int{0, 0, 0}, counts)
		g.cells = make([][]int32, g.grid.Volume)
	} else {
		for i := range g.cells {
			g.cells[i] = g.cells[i][:0]
		}
	}

	span := b.Span()
	spans := [3]float64{span.X, span.Y, span.Z}
	for i := 0; i < 3; i++ {
		g.width[i] = spans[i] / float64(counts[i])
		if g.width[i] == 0 {
			g.width[i] = g.target
		}
	}

	for k := range g.entries {
		idx := g.cellIdx(g.entries[k].p)
		g.cells[idx] = append(g.cells[idx], int32(k))
	}
}

// Rebuild implements Index. The domain is fit to the points first.
func (g *HashGrid) Rebuild(ps []r3.Vec) {
	g.Clear()
	g.expected = len(ps)
	g.Fit(geom.BoundsOf(ps))
	for i := range ps {
		g.Insert(ps[i], i)
	}
}

// Insert implements Index.
func (g *HashGrid) Insert(p r3.Vec, id int) {
	idx := g.cellIdx(p)
	g.cells[idx] = append(g.cells[idx], int32(len(g.entries)))
	g.entries = append(g.entries, entry{p, id})
	g.extent.Include(p)
}

// Clear implements Index. Cell storage is kept for reuse.
func (g *HashGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.entries = g.entries[:0]
	g.extent = geom.EmptyBounds()
}

// Len implements Index.
func (g *HashGrid) Len() int { return len(g.entries) }

// Search implements Index.
func (g *HashGrid) Search(r Region) iter.Seq[int] {
	return func(yield func(int) bool) {
		b := r.Bounds()
		if !b.Intersects(g.extent) {
			return
		}
		x0, y0, z0 := g.cellCoords(b.Min)
		x1, y1, z1 := g.cellCoords(b.Max)

		for z := z0; z <= z1; z++ {
			for y := y0; y <= y1; y++ {
				for x := x0; x <= x1; x++ {
					for _, k := range g.cells[g.grid.Idx(x, y, z)] {
						e := &g.entries[k]
						if r.Contains(e.p) && !yield(e.id) {
							return
						}
					}
				}
			}
		}
	}
}

func (g *HashGrid) cellCoords(p r3.Vec) (x, y, z int) {
	x = cellFloor(p.X, g.domain.Min.X, g.width[0])
	y = cellFloor(p.Y, g.domain.Min.Y, g.width[1])
	z = cellFloor(p.Z, g.domain.Min.Z, g.width[2])
	return g.grid.Clamp(x, y, z)
}

func cellFloor(x, x0, width float64) int {
	f := math.Floor((x - x0) / width)
	switch {
	case math.IsNaN(f) || f < math.MinInt32:
		return math.MinInt32
	case f > math.MaxInt32:
		return math.MaxInt32
	}
	return int(f)
}

func (g *HashGrid) cellIdx(p r3.Vec) int {
	x, y, z := g.cellCoords(p)
	return g.grid.Idx(x, y, z)
}
