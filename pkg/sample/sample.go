// Package sample turns knot sequences into the parameter values used to
// drive a geometry evaluator. Every input knot survives unchanged in the
// output so that a coarse grid and a refined grid sampled from the same
// knots agree exactly at the shared parameters.
package sample

import "sort"

// Params returns the knots plus r-1 evenly spaced interior samples in every
// knot interval. The result has r*(len(knots)-1)+1 entries and its first and
// last values are the first and last knots. A refinement below 1 is treated
// as 1. Fewer than two knots are returned as a copy.
func Params(knots []float64, r int) []float64 {
	if r < 1 {
		r = 1
	}
	if len(knots) < 2 {
		return append([]float64(nil), knots...)
	}

	out := make([]float64, 0, r*(len(knots)-1)+1)
	for a := 0; a < len(knots)-1; a++ {
		k0, k1 := knots[a], knots[a+1]
		out = append(out, k0)
		for t := 1; t < r; t++ {
			out = append(out, k0+(k1-k0)*float64(t)/float64(r))
		}
	}
	out = append(out, knots[len(knots)-1])
	return out
}

// Breakpoints returns the distinct knot values spanning the parametric
// domain of a B-spline of the given order (degree+1). For a clamped knot
// vector this is every distinct knot; unclamped ends outside
// [knots[order-1], knots[len-order]] are dropped.
func Breakpoints(knots []float64, order int) []float64 {
	if len(knots) == 0 {
		return nil
	}
	lo, hi := 0, len(knots)-1
	if order >= 1 && len(knots) >= 2*order {
		lo, hi = order-1, len(knots)-order
	}

	var out []float64
	for i := lo; i <= hi; i++ {
		if len(out) == 0 || knots[i] > out[len(out)-1] {
			out = append(out, knots[i])
		}
	}
	return out
}

// Monotone reports whether s is non-decreasing.
func Monotone(s []float64) bool {
	return sort.Float64sAreSorted(s)
}
