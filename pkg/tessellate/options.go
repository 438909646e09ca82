package tessellate

import (
	"github.com/chazu/knotview/pkg/indexspace"
	"github.com/chazu/knotview/pkg/kernel"
)

// Options controls how finely each knot span is sampled.
type Options struct {
	SurfaceRefineOffset int // surfaces and volumes: r = order + offset
	RationalScale       int // multiplies r for weighted patches
	CurveRefinePerOrder int // curves: r = order * this
	Refine              [3]int
}

// DefaultOptions returns the stock refinement constants.
func DefaultOptions() Options {
	return Options{
		SurfaceRefineOffset: 2,
		RationalScale:       2,
		CurveRefinePerOrder: 8,
	}
}

// WithRefine returns a copy of o whose per-axis overrides are r. Zero
// entries keep the rule.
func (o Options) WithRefine(r [3]int) Options {
	o.Refine = r
	return o
}

// Refinement returns the number of rendering intervals per knot span on
// each axis of p. A positive entry in o.Refine replaces the rule.
func Refinement(p kernel.Patch, o Options) indexspace.Counts {
	scale := 1
	if p.Rational() && o.RationalScale > 1 {
		scale = o.RationalScale
	}
	var r indexspace.Counts
	for a := 0; a < p.Dim() && a < 3; a++ {
		if o.Refine[a] > 0 {
			r[a] = o.Refine[a]
			continue
		}
		if p.Dim() == 1 {
			r[a] = p.Order(a) * o.CurveRefinePerOrder * scale
		} else {
			r[a] = (p.Order(a) + o.SurfaceRefineOffset) * scale
		}
		if r[a] < 1 {
			r[a] = 1
		}
	}
	return r
}
