package growth

import (
	"math"

	"github.com/phil-mansfield/diffgrowth/field"
	"github.com/pkg/errors"
)

const (
	// InsertTolerance is subtracted from the collision distance to get the
	// length at which threshold growth inserts a point into a curve.
	InsertTolerance = 0.1
	// ResampleFraction is the curve resampling spacing as a fraction of the
	// collision distance.
	ResampleFraction = 0.7
	// SplitFraction is the threshold mesh split length as a fraction of the
	// collision distance.
	SplitFraction = 0.99
)

// Weights are the magnitudes of each force term. A zero weight disables its
// term.
type Weights struct {
	Length, Collision, Smooth, Bending, Boundary, Field float64
}

// Params are the inputs to a growth step.
type Params struct {
	Variant Variant
	Mode    GrowthMode
	Index   IndexKind

	Grow       bool
	GrowthRate float64

	// CollisionDistance is the minimum separation between elements. For
	// field-driven radii it is the largest separation.
	CollisionDistance float64
	// SplitLength is the edge length past which RestLength meshes split
	// their edges.
	SplitLength float64
	Weights     Weights

	MaxElementCount int
	SubSteps        int
	RefineFrequency int

	CollisionIterations int
	LaplacianIterations int
	LaplacianStrength   float64

	// Used by the inertial integrator.
	TimeStep, Decay float64

	// VariableRadius derives each element's radius from Noise.
	VariableRadius bool
	Noise          field.Scalar
	Field          field.Field
	FieldScale     float64
	FieldOffset    float64
	// Planar keeps randomly chosen growth directions in the XY plane.
	Planar bool

	RandomSeed uint64
}

// DefaultParams returns parameters which produce reasonable growth for the
// given variant.
func DefaultParams(v Variant) Params {
	p := Params{
		Variant:           v,
		Index:             GridIndex,
		Grow:              true,
		CollisionDistance: 1,
		MaxElementCount:   10000,
		SubSteps:          1,
		TimeStep:          1,
		Decay:             0.2,
		FieldScale:        0.1,
		RandomSeed:        1,
	}

	switch v {
	case Mesh:
		p.Mode = RestLength
		p.GrowthRate = 0.01
		p.SplitLength = 1
		p.CollisionDistance = 4.0 / 3
		p.SubSteps = 10
		p.RefineFrequency = 3
		p.Weights = Weights{Length: 1, Collision: 1, Smooth: 0.1, Boundary: 0.1}
	case Curve:
		p.Mode = Resample
		p.CollisionIterations = 10
		p.LaplacianIterations = 1
		p.LaplacianStrength = 0.5
		p.Weights = Weights{Collision: 1}
	case Points:
		p.Mode = Threshold
		p.MaxElementCount = 2000
		p.Weights = Weights{Collision: 1}
	}
	return p
}

// Validate checks that the parameters can be simulated. All errors wrap
// ErrInvalidConfiguration.
func (p *Params) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Wrapf(ErrInvalidConfiguration, format, args...)
	}

	switch {
	case p.Variant < Mesh || p.Variant > Points:
		return invalid("Variant %d not recognized", int(p.Variant))
	case p.Index < GridIndex || p.Index > BruteIndex:
		return invalid("Index %d not recognized", int(p.Index))
	case !positive(p.CollisionDistance):
		return invalid("Need to specify a positive CollisionDistance, "+
			"but it is %g", p.CollisionDistance)
	case !nonNegative(p.GrowthRate):
		return invalid("GrowthRate must be non-negative, but it is %g",
			p.GrowthRate)
	case p.MaxElementCount <= 0:
		return invalid("MaxElementCount must be positive, but it is %d",
			p.MaxElementCount)
	case p.SubSteps < 1:
		return invalid("SubSteps must be at least 1, but it is %d",
			p.SubSteps)
	case p.RefineFrequency < 0:
		return invalid("RefineFrequency must be non-negative, but it is %d",
			p.RefineFrequency)
	case p.CollisionIterations < 0:
		return invalid("CollisionIterations must be non-negative, "+
			"but it is %d", p.CollisionIterations)
	case p.LaplacianIterations < 0:
		return invalid("LaplacianIterations must be non-negative, "+
			"but it is %d", p.LaplacianIterations)
	case !(p.LaplacianStrength >= 0 && p.LaplacianStrength <= 1):
		return invalid("LaplacianStrength must be in [0, 1], but it is %g",
			p.LaplacianStrength)
	case !positive(p.TimeStep):
		return invalid("Need to specify a positive TimeStep, but it is %g",
			p.TimeStep)
	case !(p.Decay > 0 && p.Decay < 1):
		return invalid("Decay must be in (0, 1), but it is %g", p.Decay)
	case math.IsNaN(p.FieldScale) || math.IsInf(p.FieldScale, 0) ||
		math.IsNaN(p.FieldOffset) || math.IsInf(p.FieldOffset, 0):
		return invalid("FieldScale and FieldOffset must be finite")
	case p.VariableRadius && p.Noise == nil:
		return invalid("VariableRadius is set, but there is no Noise field")
	case p.Weights.Field > 0 && p.Field == nil:
		return invalid("Weights.Field is %g, but there is no Field",
			p.Weights.Field)
	}

	if err := p.Weights.validate(); err != nil {
		return err
	}
	return p.validateMode()
}

func (p *Params) validateMode() error {
	switch p.Variant {
	case Mesh:
		if p.Mode != RestLength && p.Mode != Threshold {
			return errors.Wrapf(ErrInvalidConfiguration,
				"GrowthMode %s cannot be used with meshes", p.Mode)
		}
		if p.Mode == RestLength && !positive(p.SplitLength) {
			return errors.Wrapf(ErrInvalidConfiguration,
				"Need to specify a positive SplitLength, but it is %g",
				p.SplitLength)
		}
	case Curve:
		if p.Mode != Threshold && p.Mode != Resample {
			return errors.Wrapf(ErrInvalidConfiguration,
				"GrowthMode %s cannot be used with curves", p.Mode)
		}
		if p.Mode == Threshold && p.CollisionDistance <= InsertTolerance {
			return errors.Wrapf(ErrInvalidConfiguration,
				"Threshold growth needs a CollisionDistance larger than "+
					"%g, but it is %g", InsertTolerance, p.CollisionDistance)
		}
	}
	return nil
}

func (w *Weights) validate() error {
	ws := []float64{w.Length, w.Collision, w.Smooth, w.Bending,
		w.Boundary, w.Field}
	names := []string{"Length", "Collision", "Smooth", "Bending",
		"Boundary", "Field"}
	for i := range ws {
		if !nonNegative(ws[i]) {
			return errors.Wrapf(ErrInvalidConfiguration,
				"Weight %s must be non-negative, but it is %g",
				names[i], ws[i])
		}
	}
	return nil
}

func positive(x float64) bool { return x > 0 && !math.IsInf(x, 0) }

func nonNegative(x float64) bool { return x >= 0 && !math.IsInf(x, 0) }
