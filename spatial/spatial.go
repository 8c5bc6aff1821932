/*package spatial contains spatial indices which map positions to integer
ids and answer range queries over boxes and spheres.

Searches return lazy sequences of ids. Once all points have been inserted, an
index is read-only and any number of goroutines may search it concurrently.
*/
package spatial

import (
	"iter"

	"github.com/phil-mansfield/diffgrowth/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Region is a volume which can be searched.
type Region interface {
	Bounds() geom.Bounds
	Contains(p r3.Vec) bool
}

var (
	_ Region = geom.Bounds{}
	_ Region = geom.Sphere{}
)

// Box returns the axis-aligned box between min and max.
func Box(min, max r3.Vec) Region { return geom.Bounds{Min: min, Max: max} }

// Ball returns the sphere of radius r around c.
func Ball(c r3.Vec, r float64) Region { return geom.Sphere{C: c, R: r} }

// Index maps points to ids.
type Index interface {
	// Rebuild clears the index and inserts every point in ps, using its
	// position in the slice as its id.
	Rebuild(ps []r3.Vec)
	// Insert adds a single point.
	Insert(p r3.Vec, id int)
	// Clear removes every point.
	Clear()
	// Search returns the ids of every point inside r. Each id is returned
	// once per insertion, in no particular order.
	Search(r Region) iter.Seq[int]
	// Len returns the number of inserted points.
	Len() int
}

var (
	_ Index = &Brute{}
	_ Index = &HashGrid{}
	_ Index = &KDTree{}
)

type entry struct {
	p  r3.Vec
	id int
}

// Brute is an Index which checks every point on every search.
type Brute struct {
	entries []entry
}

// Rebuild implements Index.
func (b *Brute) Rebuild(ps []r3.Vec) {
	b.Clear()
	for i := range ps {
		b.Insert(ps[i], i)
	}
}

// Insert implements Index.
func (b *Brute) Insert(p r3.Vec, id int) {
	b.entries = append(b.entries, entry{p, id})
}

// Clear implements Index.
func (b *Brute) Clear() { b.entries = b.entries[:0] }

// Len implements Index.
func (b *Brute) Len() int { return len(b.entries) }

// Search implements Index.
func (b *Brute) Search(r Region) iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, e := range b.entries {
			if r.Contains(e.p) && !yield(e.id) {
				return
			}
		}
	}
}
