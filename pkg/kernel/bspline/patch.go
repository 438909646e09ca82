// Package bspline evaluates non-uniform rational B-spline curves, surfaces
// and volumes with first derivatives. It is the concrete evaluator behind
// kernel.Patch.
package bspline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/knotview/pkg/kernel"
)

var (
	// ErrInvalidKnots reports a knot vector that is not non-decreasing or
	// does not match its control count and degree.
	ErrInvalidKnots = errors.New("bspline: invalid knot vector")
	// ErrInvalidNet reports a control net of the wrong size or with
	// non-positive weights.
	ErrInvalidNet = errors.New("bspline: invalid control net")
)

// Patch is a tensor-product NURBS of dimension 1 to 3. Control points are
// stored u-major: the index of (i, j, k) is (i*Count[1]+j)*Count[2]+k.
type Patch struct {
	dim     int
	degree  [3]int
	count   [3]int
	knots   [3][]float64
	points  []v3.Vec
	weights []float64 // nil when polynomial
}

var _ kernel.Patch = (*Patch)(nil)

// Spec describes a patch to build. Unused axes of Degree, Count and Knots
// are ignored; a nil knot vector is filled with a clamped uniform one.
type Spec struct {
	Dim     int
	Degree  [3]int
	Count   [3]int
	Knots   [3][]float64
	Points  []v3.Vec
	Weights []float64
}

// New validates s and builds the patch.
func New(s Spec) (*Patch, error) {
	if s.Dim < 1 || s.Dim > 3 {
		return nil, fmt.Errorf("bspline: dimension %d", s.Dim)
	}
	p := &Patch{dim: s.Dim, count: [3]int{1, 1, 1}}
	for a := 0; a < s.Dim; a++ {
		deg, cnt := s.Degree[a], s.Count[a]
		if deg < 1 {
			return nil, fmt.Errorf("%w: axis %d degree %d", ErrInvalidNet, a, deg)
		}
		if cnt < deg+1 {
			return nil, fmt.Errorf("%w: axis %d has %d control points for degree %d", ErrInvalidNet, a, cnt, deg)
		}
		knots := s.Knots[a]
		if knots == nil {
			knots = ClampedUniform(deg, cnt)
		}
		if err := checkKnots(knots, deg, cnt); err != nil {
			return nil, fmt.Errorf("axis %d: %w", a, err)
		}
		p.degree[a] = deg
		p.count[a] = cnt
		p.knots[a] = append([]float64(nil), knots...)
	}
	total := p.count[0] * p.count[1] * p.count[2]
	if len(s.Points) != total {
		return nil, fmt.Errorf("%w: %d points, want %d", ErrInvalidNet, len(s.Points), total)
	}
	p.points = append([]v3.Vec(nil), s.Points...)
	if s.Weights != nil {
		if len(s.Weights) != total {
			return nil, fmt.Errorf("%w: %d weights, want %d", ErrInvalidNet, len(s.Weights), total)
		}
		for i, w := range s.Weights {
			if w <= 0 {
				return nil, fmt.Errorf("%w: weight %d is %g", ErrInvalidNet, i, w)
			}
		}
		p.weights = append([]float64(nil), s.Weights...)
	}
	return p, nil
}

func checkKnots(knots []float64, degree, count int) error {
	if len(knots) != count+degree+1 {
		return fmt.Errorf("%w: %d knots for %d points of degree %d", ErrInvalidKnots, len(knots), count, degree)
	}
	if !sort.Float64sAreSorted(knots) {
		return fmt.Errorf("%w: not non-decreasing", ErrInvalidKnots)
	}
	if knots[degree] >= knots[count] {
		return fmt.Errorf("%w: empty domain", ErrInvalidKnots)
	}
	return nil
}

// ClampedUniform returns the open uniform knot vector on [0, 1] with
// degree+1 repeated end knots.
func ClampedUniform(degree, count int) []float64 {
	knots := make([]float64, count+degree+1)
	spans := count - degree
	for i := range knots {
		switch {
		case i <= degree:
			knots[i] = 0
		case i >= count:
			knots[i] = 1
		default:
			knots[i] = float64(i-degree) / float64(spans)
		}
	}
	return knots
}

// Greville returns the Greville abscissae of a knot vector: the parameter
// each control point is most associated with.
func Greville(knots []float64, degree int) []float64 {
	count := len(knots) - degree - 1
	g := make([]float64, count)
	for i := range g {
		var sum float64
		for k := 1; k <= degree; k++ {
			sum += knots[i+k]
		}
		g[i] = sum / float64(degree)
	}
	return g
}

// Dim is the number of parameters.
func (p *Patch) Dim() int { return p.dim }

// Order is degree+1 along an axis.
func (p *Patch) Order(axis int) int { return p.degree[axis] + 1 }

// Degree along an axis.
func (p *Patch) Degree(axis int) int { return p.degree[axis] }

// Count is the number of control points along an axis.
func (p *Patch) Count(axis int) int { return p.count[axis] }

// Rational reports whether the patch carries weights.
func (p *Patch) Rational() bool { return p.weights != nil }

// Knots returns a copy of an axis knot vector.
func (p *Patch) Knots(axis int) []float64 {
	return append([]float64(nil), p.knots[axis]...)
}

// Points returns a copy of the control points.
func (p *Patch) Points() []v3.Vec {
	return append([]v3.Vec(nil), p.points...)
}

// Transform returns a copy with every control point mapped through m.
// NURBS are invariant under affine maps, so the evaluated geometry is
// transformed exactly.
func (p *Patch) Transform(m sdf.M44) *Patch {
	q := *p
	q.points = make([]v3.Vec, len(p.points))
	for i, pt := range p.points {
		q.points[i] = m.MulPosition(pt)
	}
	return &q
}

// EvaluateGrid samples positions and first derivatives on the cross
// product of params.
func (p *Patch) EvaluateGrid(params [][]float64) (*kernel.Samples, error) {
	if err := kernel.CheckParams(p.dim, params); err != nil {
		return nil, err
	}
	var ab [3]axisBasis
	counts := make([]int, p.dim)
	for a := 0; a < 3; a++ {
		if a < p.dim {
			ab[a] = newAxisBasis(p.knots[a], p.degree[a], p.count[a], params[a])
			counts[a] = len(params[a])
		} else {
			ab[a] = constBasis(1)
		}
	}
	out := kernel.NewSamples(counts...)

	for i := range ab[0].n {
		for j := range ab[1].n {
			for k := range ab[2].n {
				idx := out.Index(i, j, k)
				pos, d := p.evaluate(
					[3]int{ab[0].first[i], ab[1].first[j], ab[2].first[k]},
					[3][]float64{ab[0].n[i], ab[1].n[j], ab[2].n[k]},
					[3][]float64{ab[0].dn[i], ab[1].dn[j], ab[2].dn[k]},
				)
				out.Positions[idx] = pos
				for a := 0; a < p.dim; a++ {
					out.Derivs[a][idx] = d[a]
				}
			}
		}
	}
	return out, nil
}

// hpoint is a homogeneous point (w*x, w*y, w*z, w).
type hpoint struct {
	v v3.Vec
	w float64
}

func (h *hpoint) add(pt v3.Vec, w, s float64) {
	h.v = h.v.Add(pt.MulScalar(w * s))
	h.w += w * s
}

// evaluate sums the tensor product of basis values over the contributing
// control points and applies the quotient rule for rational patches.
func (p *Patch) evaluate(first [3]int, n, dn [3][]float64) (v3.Vec, [3]v3.Vec) {
	var a hpoint
	var da [3]hpoint
	for i, nu := range n[0] {
		for j, nv := range n[1] {
			for k, nw := range n[2] {
				ci := ((first[0]+i)*p.count[1]+first[1]+j)*p.count[2] + first[2] + k
				pt := p.points[ci]
				w := 1.0
				if p.weights != nil {
					w = p.weights[ci]
				}
				a.add(pt, w, nu*nv*nw)
				da[0].add(pt, w, dn[0][i]*nv*nw)
				da[1].add(pt, w, nu*dn[1][j]*nw)
				da[2].add(pt, w, nu*nv*dn[2][k])
			}
		}
	}
	var d [3]v3.Vec
	if a.w == 0 {
		return v3.Vec{}, d
	}
	pos := a.v.DivScalar(a.w)
	for ax := 0; ax < p.dim; ax++ {
		// (A' - w' C) / w
		d[ax] = da[ax].v.Sub(pos.MulScalar(da[ax].w)).DivScalar(a.w)
	}
	return pos, d
}
