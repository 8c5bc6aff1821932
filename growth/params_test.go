package growth

import (
	"errors"
	"math"
	"testing"

	"github.com/phil-mansfield/diffgrowth/field"
	"github.com/stretchr/testify/assert"
)

func TestDefaultParamsValidate(t *testing.T) {
	for _, v := range []Variant{Mesh, Curve, Points} {
		p := DefaultParams(v)
		assert.NoError(t, p.Validate(), v.String())
		assert.Equal(t, v, p.Variant)
	}
}

func TestValidate(t *testing.T) {
	table := []struct {
		name   string
		v      Variant
		modify func(p *Params)
		valid  bool
	}{
		{"default", Mesh, func(p *Params) {}, true},
		{"bad variant", Mesh, func(p *Params) { p.Variant = 7 }, false},
		{"bad index", Mesh, func(p *Params) { p.Index = -1 }, false},
		{"zero cd", Mesh, func(p *Params) { p.CollisionDistance = 0 }, false},
		{"inf cd", Curve,
			func(p *Params) { p.CollisionDistance = math.Inf(1) }, false},
		{"negative rate", Mesh, func(p *Params) { p.GrowthRate = -1 }, false},
		{"zero max", Points, func(p *Params) { p.MaxElementCount = 0 }, false},
		{"zero substeps", Mesh, func(p *Params) { p.SubSteps = 0 }, false},
		{"negative refine", Mesh,
			func(p *Params) { p.RefineFrequency = -1 }, false},
		{"no refine", Mesh, func(p *Params) { p.RefineFrequency = 0 }, true},
		{"negative collisions", Curve,
			func(p *Params) { p.CollisionIterations = -1 }, false},
		{"strength too big", Curve,
			func(p *Params) { p.LaplacianStrength = 1.5 }, false},
		{"strength nan", Curve,
			func(p *Params) { p.LaplacianStrength = math.NaN() }, false},
		{"strength one", Curve,
			func(p *Params) { p.LaplacianStrength = 1 }, true},
		{"zero time step", Mesh, func(p *Params) { p.TimeStep = 0 }, false},
		{"zero decay", Mesh, func(p *Params) { p.Decay = 0 }, false},
		{"unit decay", Mesh, func(p *Params) { p.Decay = 1 }, false},
		{"nan offset", Points,
			func(p *Params) { p.FieldOffset = math.NaN() }, false},
		{"radius without noise", Points,
			func(p *Params) { p.VariableRadius = true }, false},
		{"radius with noise", Points, func(p *Params) {
			p.VariableRadius = true
			p.Noise = field.NewCurlNoise(1, true).Noise
		}, true},
		{"field weight without field", Curve,
			func(p *Params) { p.Weights.Field = 1 }, false},
		{"field weight with field", Curve, func(p *Params) {
			p.Weights.Field = 1
			p.Field = field.Zero
		}, true},
		{"negative weight", Mesh,
			func(p *Params) { p.Weights.Bending = -0.1 }, false},
		{"mesh resample", Mesh, func(p *Params) { p.Mode = Resample }, false},
		{"mesh threshold", Mesh, func(p *Params) { p.Mode = Threshold }, true},
		{"mesh no split length", Mesh,
			func(p *Params) { p.SplitLength = 0 }, false},
		{"curve rest length", Curve,
			func(p *Params) { p.Mode = RestLength }, false},
		{"curve threshold", Curve, func(p *Params) { p.Mode = Threshold }, true},
		{"curve small threshold", Curve, func(p *Params) {
			p.Mode = Threshold
			p.CollisionDistance = InsertTolerance
		}, false},
	}

	for i, test := range table {
		p := DefaultParams(test.v)
		test.modify(&p)
		err := p.Validate()
		if test.valid && err != nil {
			t.Errorf("%d) %s: expected no error, got %v", i, test.name, err)
		} else if !test.valid {
			if err == nil {
				t.Errorf("%d) %s: expected an error", i, test.name)
			} else if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("%d) %s: error %v does not wrap "+
					"ErrInvalidConfiguration", i, test.name, err)
			}
		}
	}
}

func TestParseNames(t *testing.T) {
	for _, v := range []Variant{Mesh, Curve, Points} {
		got, err := ParseVariant(v.String())
		assert.NoError(t, err)
		assert.Equal(t, v, got)
	}
	for _, m := range []GrowthMode{RestLength, Threshold, Resample} {
		got, err := ParseGrowthMode(m.String())
		assert.NoError(t, err)
		assert.Equal(t, m, got)
	}
	for _, k := range []IndexKind{GridIndex, KDTreeIndex, BruteIndex} {
		got, err := ParseIndexKind(k.String())
		assert.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseVariant("Blob")
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	_, err = ParseGrowthMode("")
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	_, err = ParseIndexKind("Octree")
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}
