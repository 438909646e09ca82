package graph

import (
	"fmt"
	"math"

	"github.com/chazu/knotview/pkg/sample"
)

// validatePrimitives checks that every primitive carries a buildable
// control net: positive degree, enough control points or spans, a knot
// vector that matches and never decreases, positive weights, positive
// extents and non-negative refinement overrides.
func validatePrimitives(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	bad := func(n *Node, format string, args ...any) {
		errs = append(errs, ValidationError{
			NodeID:   n.ID,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	for _, n := range g.Nodes {
		if n.Kind != NodePrimitive {
			switch n.Data.(type) {
			case CurveData, SurfaceData, VolumeData:
				bad(n, "%s node carries primitive data", n.Kind)
			}
			continue
		}

		switch d := n.Data.(type) {
		case CurveData:
			if d.Degree < 1 {
				bad(n, "curve degree %d, must be >= 1", d.Degree)
				continue
			}
			if len(d.Points) < d.Degree+1 {
				bad(n, "curve of degree %d needs at least %d points, has %d", d.Degree, d.Degree+1, len(d.Points))
			}
			if d.Knots != nil {
				if want := len(d.Points) + d.Degree + 1; len(d.Knots) != want {
					bad(n, "curve has %d knots, want %d", len(d.Knots), want)
				}
				if !sample.Monotone(d.Knots) {
					bad(n, "curve knots are not non-decreasing")
				}
			}
			if d.Weights != nil {
				if len(d.Weights) != len(d.Points) {
					bad(n, "curve has %d weights for %d points", len(d.Weights), len(d.Points))
				}
				for i, w := range d.Weights {
					if !(w > 0) {
						bad(n, "curve weight %d is %g, must be positive", i, w)
					}
				}
			}
			if d.Refine < 0 {
				bad(n, "curve refinement %d, must not be negative", d.Refine)
			}

		case SurfaceData:
			if d.Degree < 1 {
				bad(n, "surface degree %d, must be >= 1", d.Degree)
			}
			for a, s := range d.Segments {
				if s < 1 {
					bad(n, "surface axis %d has %d segments, must be >= 1", a, s)
				}
				if d.Refine[a] < 0 {
					bad(n, "surface axis %d refinement %d, must not be negative", a, d.Refine[a])
				}
			}
			if !(d.Size.X > 0) || !(d.Size.Y > 0) {
				bad(n, "surface size %gx%g must be positive", d.Size.X, d.Size.Y)
			}
			if math.IsNaN(d.Bulge) || math.IsInf(d.Bulge, 0) {
				bad(n, "surface bulge is not finite")
			}

		case VolumeData:
			if d.Degree < 1 {
				bad(n, "volume degree %d, must be >= 1", d.Degree)
			}
			for a, s := range d.Segments {
				if s < 1 {
					bad(n, "volume axis %d has %d segments, must be >= 1", a, s)
				}
				if d.Refine[a] < 0 {
					bad(n, "volume axis %d refinement %d, must not be negative", a, d.Refine[a])
				}
			}
			if !(d.Size.X > 0) || !(d.Size.Y > 0) || !(d.Size.Z > 0) {
				bad(n, "volume size %gx%gx%g must be positive", d.Size.X, d.Size.Y, d.Size.Z)
			}

		default:
			bad(n, "primitive has unsupported data type %T", n.Data)
		}

		if len(n.Children) > 0 {
			bad(n, "primitive has %d children, must have none", len(n.Children))
		}
	}
	return errs
}

// validateTransforms checks that transforms carry TransformData and wrap
// exactly one child. A transform with neither translation nor rotation is
// reported as a warning.
func validateTransforms(g *DesignGraph) []ValidationError {
	var errs []ValidationError
	for _, n := range g.Nodes {
		if n.Kind != NodeTransform {
			continue
		}
		td, ok := n.Data.(TransformData)
		if !ok {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("transform has unexpected data type %T", n.Data),
				Severity: SeverityError,
			})
			continue
		}
		if len(n.Children) != 1 {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("transform has %d children, want 1", len(n.Children)),
				Severity: SeverityError,
			})
		}
		if (td.Translation == nil || td.Translation.IsZero()) && (td.Rotation == nil || td.Rotation.IsZero()) {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  "transform is the identity",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
