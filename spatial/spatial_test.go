package spatial

import (
	"math"
	"sort"
	"testing"

	"github.com/phil-mansfield/diffgrowth/geom"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

func randomPoints(rng *rand.Rand, n int, width float64) []r3.Vec {
	ps := make([]r3.Vec, n)
	for i := range ps {
		ps[i] = r3.Vec{
			X: rng.Float64() * width,
			Y: rng.Float64() * width,
			Z: rng.Float64() * width / 4,
		}
	}
	return ps
}

func collect(idx Index, r Region) []int {
	ids := []int{}
	for id := range idx.Search(r) {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func indices() map[string]func() Index {
	return map[string]func() Index{
		"Brute":    func() Index { return &Brute{} },
		"HashGrid": func() Index { return NewHashGrid(0.5) },
		"KDTree":   func() Index { return NewKDTree() },
	}
}

func TestSearchAll(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ps := randomPoints(rng, 500, 10)
	all := geom.Bounds{
		Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 11, Y: 11, Z: 11},
	}

	for name, newIndex := range indices() {
		idx := newIndex()
		idx.Rebuild(ps)
		assert.Equal(t, len(ps), idx.Len(), name)

		ids := collect(idx, all)
		if !assert.Len(t, ids, len(ps), name) {
			continue
		}
		for i, id := range ids {
			if i != id {
				t.Errorf("%s: id %d visited at position %d.", name, id, i)
				break
			}
		}

		idx.Clear()
		assert.Equal(t, 0, idx.Len(), name)
		assert.Empty(t, collect(idx, all), name)
	}
}

func TestSearchMatchesBrute(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ps := randomPoints(rng, 2000, 10)

	ref := &Brute{}
	ref.Rebuild(ps)

	regions := []Region{}
	for i := 0; i < 50; i++ {
		c := randomPoints(rng, 1, 10)[0]
		r := 0.2 + rng.Float64()*2
		regions = append(regions, Ball(c, r),
			Box(r3.Sub(c, r3.Vec{X: r, Y: r, Z: r}), r3.Add(c, r3.Vec{X: r})))
	}

	for name, newIndex := range indices() {
		idx := newIndex()
		idx.Rebuild(ps)
		for i, r := range regions {
			want, got := collect(ref, r), collect(idx, r)
			if !assert.Equal(t, want, got, "%s) region %d", name, i) {
				break
			}
		}
	}
}

func TestInsert(t *testing.T) {
	ps := []r3.Vec{{X: 1}, {X: 2}, {X: 2}, {X: 3, Y: 1}}

	for name, newIndex := range indices() {
		idx := newIndex()
		for i, p := range ps {
			idx.Insert(p, 10+i)
		}
		assert.Equal(t, []int{11, 12}, collect(idx, Ball(r3.Vec{X: 2}, 0.1)), name)
		assert.Equal(t, []int{10, 11, 12}, collect(idx,
			Box(r3.Vec{X: 0, Y: -1, Z: -1}, r3.Vec{X: 2, Y: 1, Z: 1})), name)
	}
}

func TestSearchStops(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ps := randomPoints(rng, 100, 1)

	for name, newIndex := range indices() {
		idx := newIndex()
		idx.Rebuild(ps)
		n := 0
		for range idx.Search(Ball(r3.Vec{X: 0.5, Y: 0.5}, 10)) {
			n++
			if n == 5 {
				break
			}
		}
		assert.Equal(t, 5, n, name)
	}
}

func TestHashGridFit(t *testing.T) {
	g := NewHashGrid(1)
	b := geom.Bounds{Max: r3.Vec{X: 4, Y: 2}}

	assert.True(t, g.Fit(b))
	assert.Equal(t, [3]int{4, 2, 1}, g.Cells())
	assert.Equal(t, 1, g.Rebuilds())

	// Growing by less than a factor of two keeps the cells.
	assert.False(t, g.Fit(geom.Bounds{Max: r3.Vec{X: 7, Y: 3.5}}))
	assert.Equal(t, [3]int{4, 2, 1}, g.Cells())
	assert.InDelta(t, 1.75, g.BinScale().X, 1e-12)

	// Growing further makes the cells too wide.
	assert.True(t, g.Fit(geom.Bounds{Max: r3.Vec{X: 9, Y: 3.5}}))
	assert.Equal(t, [3]int{9, 4, 1}, g.Cells())
	assert.Equal(t, 2, g.Rebuilds())

	// Points inserted before a refit can still be found.
	g.Insert(r3.Vec{X: 8.5, Y: 3}, 0)
	g.Insert(r3.Vec{X: 20, Y: -5}, 1)
	assert.False(t, g.Fit(geom.Bounds{Max: r3.Vec{X: 10, Y: 4}}))
	assert.Equal(t, []int{0}, collect(g, Ball(r3.Vec{X: 8.5, Y: 3}, 0.1)))
	assert.Equal(t, []int{1}, collect(g, Ball(r3.Vec{X: 20, Y: -5}, 0.1)))

	// Empty bounds change nothing.
	assert.False(t, g.Fit(geom.EmptyBounds()))
}

func TestHashGridScatteredPoints(t *testing.T) {
	table := []struct {
		ps []r3.Vec
	}{
		{[]r3.Vec{{}, {X: 1e4, Y: 1e4, Z: 1e4}, {X: -1e4, Y: -1e4, Z: -1e4}}},
		{[]r3.Vec{{X: -1e12}, {X: 1e12, Y: 1e9}, {Z: 3e11}}},
		{[]r3.Vec{{X: -math.MaxFloat64}, {X: math.MaxFloat64}, {Y: 1}}},
	}

	for i, test := range table {
		g := NewHashGrid(1)
		g.Rebuild(test.ps)

		cells := g.Cells()
		if n := cells[0] * cells[1] * cells[2]; n > minCells {
			t.Errorf("%d) %v cells is more than %d.", i, cells, minCells)
		}
		for id, p := range test.ps {
			ids := collect(g, Ball(p, 0.5))
			if len(ids) != 1 || ids[0] != id {
				t.Errorf("%d) Expected to find only %d near %v, got %v.",
					i, id, p, ids)
			}
		}
	}

	// More points allow a finer grid.
	rng := rand.New(rand.NewSource(2))
	ps := randomPoints(rng, 5000, 100)
	g := NewHashGrid(1)
	g.Rebuild(ps)
	cells := g.Cells()
	n := cells[0] * cells[1] * cells[2]
	assert.True(t, n > minCells && n <= cellsPerPoint*len(ps), "%v", cells)
	assert.Len(t, collect(g, Box(r3.Vec{X: -1, Y: -1, Z: -1},
		r3.Vec{X: 101, Y: 101, Z: 101})), len(ps))
}

func TestHashGridSearchOutside(t *testing.T) {
	g := NewHashGrid(1)
	assert.Empty(t, collect(g, Ball(r3.Vec{}, 10)))

	g.Rebuild([]r3.Vec{{}, {X: 2}})
	assert.Empty(t, collect(g, Ball(r3.Vec{X: 50}, 10)))
	assert.Equal(t, []int{1}, collect(g, Ball(r3.Vec{X: 3}, 1)))

	g.Clear()
	assert.Empty(t, collect(g, Ball(r3.Vec{}, 10)))
}

func BenchmarkHashGridSearch(b *testing.B) {
	benchmarkSearch(b, NewHashGrid(0.2))
}

func BenchmarkKDTreeSearch(b *testing.B) {
	benchmarkSearch(b, NewKDTree())
}

func benchmarkSearch(b *testing.B, idx Index) {
	rng := rand.New(rand.NewSource(1))
	ps := randomPoints(rng, 10000, 10)
	idx.Rebuild(ps)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for range idx.Search(Ball(ps[i%len(ps)], 0.4)) {
		}
	}
}
