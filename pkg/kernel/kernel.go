// Package kernel defines the geometry evaluator interface the tessellator
// samples. Implementations (bspline) own the spline math; the rest of the
// system only sees knot vectors and sampled positions with first
// derivatives, so evaluators can be swapped without touching tessellation.
package kernel

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Patch is a parametric curve (Dim 1), surface (Dim 2) or volume (Dim 3).
type Patch interface {
	// Dim is the number of parameters.
	Dim() int
	// Order is degree+1 along an axis.
	Order(axis int) int
	// Rational reports whether the patch carries weights.
	Rational() bool
	// Knots returns the sorted knot vector of an axis.
	Knots(axis int) []float64
	// EvaluateGrid samples the cross product of params, one slice per axis.
	EvaluateGrid(params [][]float64) (*Samples, error)
}

// Samples holds positions and first partial derivatives on a parameter
// grid, flattened u-major: the last axis varies fastest.
type Samples struct {
	Count     [3]int     // samples per axis; 1 for unused axes
	Positions []v3.Vec   // len = Count product
	Derivs    [][]v3.Vec // Derivs[axis][k], one slice per patch axis
}

// NewSamples allocates a grid for the per-axis counts. Missing axes count 1.
func NewSamples(counts ...int) *Samples {
	s := &Samples{Count: [3]int{1, 1, 1}}
	copy(s.Count[:], counts)
	n := s.Count[0] * s.Count[1] * s.Count[2]
	s.Positions = make([]v3.Vec, n)
	s.Derivs = make([][]v3.Vec, len(counts))
	for a := range s.Derivs {
		s.Derivs[a] = make([]v3.Vec, n)
	}
	return s
}

// Index returns the flat index of grid sample (i, j, k).
func (s *Samples) Index(i, j, k int) int {
	return (i*s.Count[1]+j)*s.Count[2] + k
}

// Len is the number of samples.
func (s *Samples) Len() int {
	return len(s.Positions)
}

// CheckParams validates a grid request against a patch dimension.
func CheckParams(dim int, params [][]float64) error {
	if len(params) != dim {
		return fmt.Errorf("kernel: %d parameter axes for a %d-parameter patch", len(params), dim)
	}
	for a, p := range params {
		if len(p) == 0 {
			return fmt.Errorf("kernel: no parameters on axis %d", a)
		}
	}
	return nil
}
