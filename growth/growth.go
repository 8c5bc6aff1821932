/*package growth implements the differential growth engine: a relaxation
solver which grows a mesh, curve, or point swarm by accumulating weighted
moves from local constraint terms, integrating them, and refining the
domain's topology as it expands.

A Simulation owns a Domain, its per-element attributes, a spatial index, and
a seeded random number generator. Each call to Simulation.Step either
completes fully or leaves the state unchanged.
*/
package growth

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfiguration is returned when parameters or starting
	// geometry cannot be simulated. It is always returned before any step
	// runs.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrTopologyDefect marks a split or flip which was rejected because it
	// would have made the topology non-manifold.
	ErrTopologyDefect = errors.New("topology defect")
	// ErrDegenerateGeometry marks work which was skipped because the
	// geometry had no defined direction or could not be interpolated.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrNumerical is returned when integration produces a non-finite
	// position.
	ErrNumerical = errors.New("non-finite position")
)

// Variant selects the kind of domain being grown.
type Variant int

const (
	Mesh Variant = iota
	Curve
	Points
)

var variantNames = []string{"Mesh", "Curve", "Points"}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// ParseVariant converts a variant's name into a Variant.
func ParseVariant(s string) (Variant, error) {
	for i := range variantNames {
		if variantNames[i] == s {
			return Variant(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidConfiguration,
		"Variant '%s' not recognized", s)
}

// GrowthMode selects how a domain grows.
type GrowthMode int

const (
	// RestLength grows every edge's rest length by the growth rate each
	// iteration and splits edges once they pass the split length.
	RestLength GrowthMode = iota
	// Threshold inserts new elements whenever an edge passes a length
	// derived from the collision distance.
	Threshold
	// Resample rebuilds a curve at even spacing through its current
	// points.
	Resample
)

var modeNames = []string{"RestLength", "Threshold", "Resample"}

func (m GrowthMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("GrowthMode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseGrowthMode converts a mode's name into a GrowthMode.
func ParseGrowthMode(s string) (GrowthMode, error) {
	for i := range modeNames {
		if modeNames[i] == s {
			return GrowthMode(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidConfiguration,
		"GrowthMode '%s' not recognized", s)
}

// IndexKind selects the spatial index used for collision queries.
type IndexKind int

const (
	GridIndex IndexKind = iota
	KDTreeIndex
	BruteIndex
)

var indexNames = []string{"Grid", "KDTree", "None"}

func (k IndexKind) String() string {
	if k < 0 || int(k) >= len(indexNames) {
		return fmt.Sprintf("IndexKind(%d)", int(k))
	}
	return indexNames[k]
}

// ParseIndexKind converts an index's name into an IndexKind. "None" selects
// brute force search.
func ParseIndexKind(s string) (IndexKind, error) {
	for i := range indexNames {
		if indexNames[i] == s {
			return IndexKind(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidConfiguration,
		"Index '%s' not recognized", s)
}
