package indexspace

import "fmt"

// Layout is the index space of one primitive at one pair of densities: the
// structural grid (NT intervals per axis, one per knot span) and the
// rendering grid (N = NT*R intervals per axis).
type Layout struct {
	Kind Kind
	NT   Counts // structural intervals per axis
	R    Counts // refinement factor per axis
	N    Counts // rendering intervals per axis
}

// New validates the counts and returns the layout. Axes beyond the kind's
// dimension are ignored and zeroed.
func New(kind Kind, nt, r Counts) (Layout, error) {
	if kind < Curve || kind > Volume {
		return Layout{}, fmt.Errorf("indexspace: unknown kind %v", kind)
	}
	l := Layout{Kind: kind}
	for a := 0; a < kind.Dim(); a++ {
		if nt[a] < 1 {
			return Layout{}, fmt.Errorf("indexspace: %s structural count %d on axis %s, must be >= 1", kind, nt[a], Axis(a))
		}
		if r[a] < 1 {
			return Layout{}, fmt.Errorf("indexspace: %s refinement %d on axis %s, must be >= 1", kind, r[a], Axis(a))
		}
		l.NT[a] = nt[a]
		l.R[a] = r[a]
	}
	l.N = l.NT.Mul(l.R)
	return l, nil
}

// Refined maps a structural grid index on an axis to the rendering grid
// index at the same parameter value.
func (l Layout) Refined(a Axis, slot int) int {
	return slot * l.R[a]
}

// FaceCount is the number of topological faces: 6, 1 or 0.
func (l Layout) FaceCount() int {
	switch l.Kind {
	case Volume:
		return 6
	case Surface:
		return 1
	}
	return 0
}

// EdgeCount is the number of boundary edges: 12, 4 or 1.
func (l Layout) EdgeCount() int {
	switch l.Kind {
	case Volume:
		return 12
	case Surface:
		return 4
	}
	return 1
}

// CornerCount is the number of corner points: 8, 4 or 2.
func (l Layout) CornerCount() int {
	switch l.Kind {
	case Volume:
		return 8
	case Surface:
		return 4
	}
	return 2
}

// FaceDims returns the rendering interval counts along a face's two axes.
func (l Layout) FaceDims(face int) (ni, nj int) {
	a, b := l.faceAxes(face)
	return l.N[a], l.N[b]
}

func (l Layout) faceAxes(face int) (a, b Axis) {
	if l.Kind == Surface {
		return U, V
	}
	s, _ := FaceSlab(face)
	a, b, _ = s.Axes()
	return a, b
}

// cumulative turns per-side sizes into a sorted offset table of length
// len(sizes)+1.
func cumulative(sizes []int) []int {
	out := make([]int, len(sizes)+1)
	for i, n := range sizes {
		out[i+1] = out[i] + n
	}
	return out
}
