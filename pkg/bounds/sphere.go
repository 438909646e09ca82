// Package bounds computes approximate minimal bounding spheres for camera
// framing.
package bounds

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Sphere is a bounding sphere.
type Sphere struct {
	Center v3.Vec  `json:"center"`
	Radius float64 `json:"radius"`
}

// Contains reports whether p lies within the sphere, allowing eps slack.
func (s Sphere) Contains(p v3.Vec, eps float64) bool {
	return p.Sub(s.Center).Length() <= s.Radius+eps
}

// Ritter returns an approximate minimal enclosing sphere. The seed is the
// midpoint of two far-apart points found by two farthest-point scans, then
// one forward pass grows the sphere to take in every outlier. The result is
// not iterated to convergence. An empty input yields the zero sphere.
func Ritter(points []v3.Vec) Sphere {
	if len(points) == 0 {
		return Sphere{}
	}

	a := farthest(points, points[0])
	b := farthest(points, a)
	s := Sphere{
		Center: a.Add(b).MulScalar(0.5),
		Radius: b.Sub(a).Length() / 2,
	}

	for _, p := range points {
		s = s.grow(p)
	}
	return s
}

// grow enlarges s minimally so that it contains p.
func (s Sphere) grow(p v3.Vec) Sphere {
	d := p.Sub(s.Center)
	dist := d.Length()
	if dist <= s.Radius {
		return s
	}
	r := (s.Radius + dist) / 2
	return Sphere{
		Center: s.Center.Add(d.MulScalar((r - s.Radius) / dist)),
		Radius: r,
	}
}

func farthest(points []v3.Vec, from v3.Vec) v3.Vec {
	best, bestD := from, -1.0
	for _, p := range points {
		if d := p.Sub(from).Length(); d > bestD {
			best, bestD = p, d
		}
	}
	return best
}

// Aggregate combines per-primitive spheres into one scene sphere. The
// centers are bounded with Ritter and the radius is inflated by twice the
// largest member radius.
func Aggregate(spheres []Sphere) Sphere {
	if len(spheres) == 0 {
		return Sphere{}
	}
	centers := make([]v3.Vec, len(spheres))
	maxR := 0.0
	for i, s := range spheres {
		centers[i] = s.Center
		maxR = math.Max(maxR, s.Radius)
	}
	out := Ritter(centers)
	out.Radius += 2 * maxR
	return out
}
