package growth

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Accumulator holds the weighted moves produced by force terms during a
// step. Terms only ever add to it.
type Accumulator struct {
	MoveSum   []r3.Vec
	WeightSum []float64
	// Contacts counts the collisions each element took part in.
	Contacts []int
}

// NewAccumulator returns a zeroed Accumulator for n elements.
func NewAccumulator(n int) *Accumulator {
	acc := &Accumulator{}
	acc.Reset(n)
	return acc
}

// Len returns the number of elements.
func (acc *Accumulator) Len() int { return len(acc.MoveSum) }

// Reset resizes the accumulator to n elements and zeroes it.
func (acc *Accumulator) Reset(n int) {
	if cap(acc.MoveSum) < n {
		acc.MoveSum = make([]r3.Vec, n)
		acc.WeightSum = make([]float64, n)
		acc.Contacts = make([]int, n)
		return
	}

	acc.MoveSum = acc.MoveSum[:n]
	acc.WeightSum = acc.WeightSum[:n]
	acc.Contacts = acc.Contacts[:n]
	for i := 0; i < n; i++ {
		acc.MoveSum[i] = r3.Vec{}
		acc.WeightSum[i] = 0
		acc.Contacts[i] = 0
	}
}

// Add adds a move with weight w to element i.
func (acc *Accumulator) Add(i int, move r3.Vec, w float64) {
	acc.MoveSum[i] = r3.Add(acc.MoveSum[i], move)
	acc.WeightSum[i] += w
}

// Merge adds every sum in other to acc. Both must have the same length.
func (acc *Accumulator) Merge(other *Accumulator) {
	for i := range acc.MoveSum {
		acc.MoveSum[i] = r3.Add(acc.MoveSum[i], other.MoveSum[i])
		acc.WeightSum[i] += other.WeightSum[i]
		acc.Contacts[i] += other.Contacts[i]
	}
}

// chunk returns the range of n items handled by worker id out of workers.
func chunk(n, id, workers int) (lo, hi int) {
	lo = n * id / workers
	hi = n * (id + 1) / workers
	return lo, hi
}

// accumulate runs every term of c across the worker pool. Each worker adds
// into its own workspace and the workspaces are then merged into s.acc in
// worker order, so the result does not depend on goroutine scheduling.
func (s *Simulation) accumulate(c *stepContext) {
	n := len(c.pos)
	out := make(chan int, s.workers)

	for id := 0; id < s.workers-1; id++ {
		go s.chanAccumulate(id, c, n, out)
	}
	s.chanAccumulate(s.workers-1, c, n, out)

	for i := 0; i < s.workers; i++ {
		<-out
	}

	s.acc.Reset(n)
	for id := range s.workspaces {
		s.acc.Merge(s.workspaces[id])
	}
}

func (s *Simulation) chanAccumulate(
	id int, c *stepContext, n int, out chan<- int,
) {
	ws := s.workspaces[id]
	ws.Reset(n)
	for _, t := range c.terms {
		lo, hi := chunk(t.items(c), id, s.workers)
		t.apply(c, ws, lo, hi)
	}
	out <- id
}
