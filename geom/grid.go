package geom

// Grid provides an interface for reasoning over a 1D slice as if it were a
// 3D grid of cells.
type Grid struct {
	Origin, Width        [3]int
	Length, Area, Volume int
	uBounds              [3]int
}

// Init initializes a Grid instance.
func (g *Grid) Init(origin [3]int, width [3]int) {
	g.Origin = origin
	g.Width = width

	g.Length = width[0]
	g.Area = width[0] * width[1]
	g.Volume = width[0] * width[1] * width[2]

	for i := 0; i < 3; i++ {
		g.uBounds[i] = g.Origin[i] + g.Width[i]
	}
}

// Idx returns the grid index corresponding to a set of coordinates.
func (g *Grid) Idx(x, y, z int) int {
	return ((x - g.Origin[0]) + (y-g.Origin[1])*g.Length +
		(z-g.Origin[2])*g.Area)
}

// Clamp moves the given coordinates onto the closest cell inside the Grid.
func (g *Grid) Clamp(x, y, z int) (int, int, int) {
	return clamp(x, g.Origin[0], g.uBounds[0]-1),
		clamp(y, g.Origin[1], g.uBounds[1]-1),
		clamp(z, g.Origin[2], g.uBounds[2]-1)
}

func clamp(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
