package io

import (
	"strings"

	"github.com/phil-mansfield/diffgrowth/field"
	"github.com/phil-mansfield/diffgrowth/growth"
	"github.com/phil-mansfield/diffgrowth/interpolate"
	"github.com/pkg/errors"
	"gopkg.in/gcfg.v1"
)

const ExampleGrowthFile = `[Growth]

#######################
# Required Parameters #
#######################

# The kind of geometry being grown. Must be one of
# [ Mesh | Curve | Points ].
Variant = Mesh

#######################
# Optional Parameters #
#######################

# Any numeric parameter which is not set (or is set to -1) takes the default
# value for the chosen Variant.

# How the geometry grows. Meshes accept [ RestLength | Threshold ], curves
# accept [ Threshold | Resample ]. Points always grow by budding.
# GrowthMode = RestLength

# Starting geometry. Seed is a file: an OBJ file for meshes, or a whitespace
# separated table with X, Y, and Z columns for curves and points. If Seed is
# not set, SeedShape is used instead, which must be one of
# [ Hexagon | Grid | Icosahedron ] for meshes, [ Circle | Line ] for curves,
# and [ Point | Circle ] for points.
# Seed = path/to/seed.obj
# SeedShape = Hexagon
# SeedCount = 8
# SeedRadius = 1
# Closed = true

# Number of steps to run, and the number of iterations in each step.
# Steps = 100
# SubSteps = 10
# MaxElementCount = 10000

# Growth.
# Grow = true
# GrowthRate = 0.01
# CollisionDistance = 1.333
# SplitLength = 1
# RefineFrequency = 3

# Force weights. A weight of zero turns its term off.
# LengthWeight = 1
# CollisionWeight = 1
# SmoothWeight = 0.1
# BendingWeight = 0
# BoundaryWeight = 0.1
# FieldWeight = 0

# Curve relaxation.
# CollisionIterations = 10
# LaplacianIterations = 1
# LaplacianStrength = 0.5

# Inertial integration, used by RestLength meshes.
# TimeStep = 1
# Decay = 0.2

# External field. Field must be one of [ None | Curl ]. VariableRadius makes
# each element's collision distance vary with a noise field, between 30% and
# 100% of CollisionDistance. Planar keeps everything in the XY plane.
# Field = None
# FieldScale = 0.1
# FieldOffset = 0
# VariableRadius = false
# Planar = false

# Curve resampling kernel, [ Cubic | Linear ].
# Kernel = Cubic

# Spatial index used for collisions, [ Grid | KDTree | None ].
# Index = Grid
# Workers = 4
# RandomSeed = 1

# Output file, written after the last step. OutputFormat must be one of
# [ Table | OBJ | SVG | Plot | Binary ]. Binary snapshots can be converted to
# the other formats later with the -Convert flag.
# Output = growth.txt
# OutputFormat = Table
# HistoryFile = history.txt

# Output files which are useful for profiling and debugging.
# ProfileFile = prof.out
# LogFile = log.out`

// OutputFormats are the accepted values of OutputFormat.
var OutputFormats = []string{"Table", "OBJ", "SVG", "Plot", "Binary"}

// Unset marks a numeric parameter which takes its variant's default.
const Unset = -1

// GrowthConfig is the [Growth] section of a configuration file.
type GrowthConfig struct {
	// Required
	Variant string

	// Optional
	GrowthMode, Index, Kernel, Field string

	Seed, SeedShape string
	SeedCount       int
	SeedRadius      float64
	Closed          bool

	Steps, SubSteps, MaxElementCount int

	Grow                          bool
	GrowthRate, CollisionDistance float64
	SplitLength                   float64
	RefineFrequency               int

	LengthWeight, CollisionWeight float64
	SmoothWeight, BendingWeight   float64
	BoundaryWeight, FieldWeight   float64

	CollisionIterations, LaplacianIterations int
	LaplacianStrength, TimeStep, Decay       float64

	FieldScale, FieldOffset float64
	VariableRadius, Planar  bool

	Workers    int
	RandomSeed int64

	Output, OutputFormat, HistoryFile string
	LogFile, ProfileFile              string
}

type GrowthWrapper struct {
	Growth GrowthConfig
}

// DefaultGrowthWrapper returns a wrapper where every optional parameter is
// either unset or set to its default.
func DefaultGrowthWrapper() *GrowthWrapper {
	con := GrowthConfig{
		Kernel:       "Cubic",
		Field:        "None",
		Index:        "Grid",
		SeedCount:    Unset,
		SeedRadius:   Unset,
		Closed:       true,
		Steps:        100,
		Grow:         true,
		Workers:      Unset,
		RandomSeed:   1,
		OutputFormat: "Table",
	}

	for _, x := range []*int{
		&con.SubSteps, &con.MaxElementCount, &con.RefineFrequency,
		&con.CollisionIterations, &con.LaplacianIterations,
	} {
		*x = Unset
	}
	for _, x := range []*float64{
		&con.GrowthRate, &con.CollisionDistance, &con.SplitLength,
		&con.LengthWeight, &con.CollisionWeight, &con.SmoothWeight,
		&con.BendingWeight, &con.BoundaryWeight, &con.FieldWeight,
		&con.LaplacianStrength, &con.TimeStep, &con.Decay, &con.FieldScale,
	} {
		*x = Unset
	}

	return &GrowthWrapper{con}
}

// ReadGrowthConfig reads and checks the [Growth] section of a file.
func ReadGrowthConfig(fname string) (*GrowthConfig, error) {
	wrap := DefaultGrowthWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Growth.CheckInit(); err != nil {
		return nil, err
	}
	return &wrap.Growth, nil
}

// ParseGrowthConfig is ReadGrowthConfig for a config held in memory.
func ParseGrowthConfig(text string) (*GrowthConfig, error) {
	wrap := DefaultGrowthWrapper()
	if err := gcfg.ReadStringInto(wrap, text); err != nil {
		return nil, err
	}
	if err := wrap.Growth.CheckInit(); err != nil {
		return nil, err
	}
	return &wrap.Growth, nil
}

func (con *GrowthConfig) ValidOutput() bool      { return con.Output != "" }
func (con *GrowthConfig) ValidHistoryFile() bool { return con.HistoryFile != "" }
func (con *GrowthConfig) ValidLogFile() bool     { return con.LogFile != "" }
func (con *GrowthConfig) ValidProfileFile() bool { return con.ProfileFile != "" }
func (con *GrowthConfig) ValidSeed() bool        { return con.Seed != "" }

func oneOf(name, val string, options ...string) error {
	for _, opt := range options {
		if strings.EqualFold(opt, val) {
			return nil
		}
	}
	return errors.Errorf("%s must be one of [ %s ], but it is '%s'.",
		name, strings.Join(options, " | "), val)
}

// CheckInit checks that every string-valued parameter is recognized and
// that the numeric parameters the engine does not check are sensible. The
// remaining checks are done by Params.
func (con *GrowthConfig) CheckInit() error {
	if con.Variant == "" {
		return errors.New("Need to specify a Variant.")
	}
	if err := oneOf("Variant", con.Variant, "Mesh", "Curve", "Points"); err != nil {
		return err
	}
	if con.GrowthMode != "" {
		err := oneOf("GrowthMode", con.GrowthMode,
			"RestLength", "Threshold", "Resample")
		if err != nil {
			return err
		}
	}

	checks := []error{
		oneOf("Index", con.Index, "Grid", "KDTree", "None"),
		oneOf("Kernel", con.Kernel, "Cubic", "Linear"),
		oneOf("Field", con.Field, "None", "Curl"),
		oneOf("OutputFormat", con.OutputFormat, OutputFormats...),
	}
	if con.SeedShape != "" {
		checks = append(checks, oneOf("SeedShape", con.SeedShape,
			"Hexagon", "Grid", "Icosahedron", "Circle", "Line", "Point"))
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	if con.Steps <= 0 {
		return errors.Errorf(
			"Need to specify a positive Steps, but it is %d.", con.Steps,
		)
	} else if con.SeedCount != Unset && con.SeedCount < 1 {
		return errors.Errorf(
			"SeedCount must be positive, but it is %d.", con.SeedCount,
		)
	} else if con.SeedRadius != Unset && con.SeedRadius <= 0 {
		return errors.Errorf(
			"SeedRadius must be positive, but it is %g.", con.SeedRadius,
		)
	} else if con.Workers != Unset && con.Workers < 1 {
		return errors.Errorf(
			"Workers must be positive, but it is %d.", con.Workers,
		)
	}

	return nil
}

// canonical returns the option spelled the way the growth package spells
// it.
func canonical(val string, options ...string) string {
	for _, opt := range options {
		if strings.EqualFold(opt, val) {
			return opt
		}
	}
	return val
}

func setInt(x *int, val int) {
	if val != Unset {
		*x = val
	}
}

func setFloat(x *float64, val float64) {
	if val != Unset {
		*x = val
	}
}

// Params converts the config into growth parameters, starting from the
// variant's defaults. The result has been validated.
func (con *GrowthConfig) Params() (growth.Params, error) {
	v, err := growth.ParseVariant(
		canonical(con.Variant, "Mesh", "Curve", "Points"),
	)
	if err != nil {
		return growth.Params{}, err
	}
	p := growth.DefaultParams(v)

	if con.GrowthMode != "" {
		mode := canonical(con.GrowthMode, "RestLength", "Threshold", "Resample")
		if p.Mode, err = growth.ParseGrowthMode(mode); err != nil {
			return p, err
		}
	}
	idx := canonical(con.Index, "Grid", "KDTree", "None")
	if p.Index, err = growth.ParseIndexKind(idx); err != nil {
		return p, err
	}

	p.Grow = con.Grow
	p.Planar = con.Planar
	p.VariableRadius = con.VariableRadius
	p.FieldOffset = con.FieldOffset
	p.RandomSeed = uint64(con.RandomSeed)

	setInt(&p.SubSteps, con.SubSteps)
	setInt(&p.MaxElementCount, con.MaxElementCount)
	setInt(&p.RefineFrequency, con.RefineFrequency)
	setInt(&p.CollisionIterations, con.CollisionIterations)
	setInt(&p.LaplacianIterations, con.LaplacianIterations)

	setFloat(&p.GrowthRate, con.GrowthRate)
	setFloat(&p.CollisionDistance, con.CollisionDistance)
	setFloat(&p.SplitLength, con.SplitLength)
	setFloat(&p.LaplacianStrength, con.LaplacianStrength)
	setFloat(&p.TimeStep, con.TimeStep)
	setFloat(&p.Decay, con.Decay)
	setFloat(&p.FieldScale, con.FieldScale)

	setFloat(&p.Weights.Length, con.LengthWeight)
	setFloat(&p.Weights.Collision, con.CollisionWeight)
	setFloat(&p.Weights.Smooth, con.SmoothWeight)
	setFloat(&p.Weights.Bending, con.BendingWeight)
	setFloat(&p.Weights.Boundary, con.BoundaryWeight)
	setFloat(&p.Weights.Field, con.FieldWeight)

	curl := strings.EqualFold(con.Field, "Curl")
	if curl || con.VariableRadius {
		noise := field.NewCurlNoise(con.RandomSeed, con.Planar)
		if curl {
			p.Field = noise.Field()
		}
		if con.VariableRadius {
			p.Noise = noise.Noise
		}
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Format returns OutputFormat spelled the way OutputFormats spells it.
func (con *GrowthConfig) Format() string {
	return canonical(con.OutputFormat, OutputFormats...)
}

// CurveKernel returns the interpolation kernel used to resample curves.
func (con *GrowthConfig) CurveKernel() interpolate.Kernel {
	if strings.EqualFold(con.Kernel, "Linear") {
		return interpolate.LinearKernel{}
	}
	return interpolate.CubicKernel{}
}
