package bspline

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Curve builds a curve through the given control polygon. Nil weights give
// a polynomial curve; nil knots a clamped uniform vector.
func Curve(degree int, points []v3.Vec, weights, knots []float64) (*Patch, error) {
	return New(Spec{
		Dim:     1,
		Degree:  [3]int{degree},
		Count:   [3]int{len(points)},
		Knots:   [3][]float64{knots},
		Points:  points,
		Weights: weights,
	})
}

// Sheet builds a surface of the given degree spanning size.X by size.Y,
// centred on the origin in the XY plane, with segments knot spans per axis.
// bulge lifts interior control points along +Z into a dome; rational gives
// the interior points weight 2.
func Sheet(degree int, segments [2]int, size v3.Vec, bulge float64, rational bool) (*Patch, error) {
	if segments[0] < 1 || segments[1] < 1 {
		return nil, fmt.Errorf("%w: segments %v", ErrInvalidNet, segments)
	}
	if degree < 1 {
		return nil, fmt.Errorf("%w: degree %d", ErrInvalidNet, degree)
	}
	cu, cv := segments[0]+degree, segments[1]+degree
	ku, kv := ClampedUniform(degree, cu), ClampedUniform(degree, cv)
	gu, gv := Greville(ku, degree), Greville(kv, degree)

	points := make([]v3.Vec, 0, cu*cv)
	var weights []float64
	for i, u := range gu {
		for j, v := range gv {
			z := bulge * 16 * u * (1 - u) * v * (1 - v)
			points = append(points, v3.Vec{X: (u - 0.5) * size.X, Y: (v - 0.5) * size.Y, Z: z})
			if rational {
				w := 1.0
				if i > 0 && i < cu-1 && j > 0 && j < cv-1 {
					w = 2
				}
				weights = append(weights, w)
			}
		}
	}
	return New(Spec{
		Dim:     2,
		Degree:  [3]int{degree, degree},
		Count:   [3]int{cu, cv},
		Knots:   [3][]float64{ku, kv},
		Points:  points,
		Weights: weights,
	})
}

// Box builds a volume filling the axis-aligned box of the given size
// centred on the origin. Control points sit at the Greville abscissae, so
// the parameterisation is the linear map from [0,1]^3.
func Box(degree int, segments [3]int, size v3.Vec) (*Patch, error) {
	if degree < 1 {
		return nil, fmt.Errorf("%w: degree %d", ErrInvalidNet, degree)
	}
	var g [3][]float64
	var knots [3][]float64
	var count [3]int
	for a := 0; a < 3; a++ {
		if segments[a] < 1 {
			return nil, fmt.Errorf("%w: segments %v", ErrInvalidNet, segments)
		}
		count[a] = segments[a] + degree
		knots[a] = ClampedUniform(degree, count[a])
		g[a] = Greville(knots[a], degree)
	}
	points := make([]v3.Vec, 0, count[0]*count[1]*count[2])
	for _, u := range g[0] {
		for _, v := range g[1] {
			for _, w := range g[2] {
				points = append(points, v3.Vec{
					X: (u - 0.5) * size.X,
					Y: (v - 0.5) * size.Y,
					Z: (w - 0.5) * size.Z,
				})
			}
		}
	}
	return New(Spec{
		Dim:    3,
		Degree: [3]int{degree, degree, degree},
		Count:  count,
		Knots:  knots,
		Points: points,
	})
}

// Circle builds the exact rational quadratic unit circle of radius r in
// the XY plane from nine control points.
func Circle(r float64) (*Patch, error) {
	h := math.Sqrt2 / 2
	points := []v3.Vec{
		{X: r}, {X: r, Y: r}, {Y: r}, {X: -r, Y: r},
		{X: -r}, {X: -r, Y: -r}, {Y: -r}, {X: r, Y: -r}, {X: r},
	}
	weights := []float64{1, h, 1, h, 1, h, 1, h, 1}
	knots := []float64{0, 0, 0, 0.25, 0.25, 0.5, 0.5, 0.75, 0.75, 1, 1, 1}
	return Curve(2, points, weights, knots)
}
