package growth

import (
	"github.com/phil-mansfield/diffgrowth/geom"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// Integrator turns accumulated moves into new positions. pos is updated in
// place. An error wrapping ErrNumerical is returned if any position becomes
// non-finite.
type Integrator interface {
	Integrate(pos, vel []r3.Vec, acc *Accumulator) error
}

// Inertial integrates moves into velocities, which then decay each step.
type Inertial struct {
	TimeStep, Decay float64
}

// Integrate implements Integrator.
func (in Inertial) Integrate(pos, vel []r3.Vec, acc *Accumulator) error {
	for i := range pos {
		if w := acc.WeightSum[i]; w > 0 {
			vel[i] = r3.Add(vel[i], r3.Scale(in.TimeStep/w, acc.MoveSum[i]))
		}
		pos[i] = r3.Add(pos[i], vel[i])
		vel[i] = r3.Scale(in.Decay, vel[i])

		if !geom.Finite(pos[i]) {
			return nonFinite(i, pos[i])
		}
	}
	return nil
}

// Direct moves each element by its weighted average move. vel is unused.
type Direct struct{}

// Integrate implements Integrator.
func (Direct) Integrate(pos, vel []r3.Vec, acc *Accumulator) error {
	for i := range pos {
		w := acc.WeightSum[i]
		if w <= 0 {
			continue
		}
		pos[i] = r3.Add(pos[i], r3.Scale(1/w, acc.MoveSum[i]))

		if !geom.Finite(pos[i]) {
			return nonFinite(i, pos[i])
		}
	}
	return nil
}

func nonFinite(i int, p r3.Vec) error {
	return errors.Wrapf(ErrNumerical,
		"Element %d moved to (%g, %g, %g)", i, p.X, p.Y, p.Z)
}
