// Package indexspace maps logical grid coordinates on the sides of a
// parametric primitive to flat buffer offsets.
//
// A volume is treated as a six-sided topological box. Its boundary is
// covered by three slabs, one per pair of opposite sides: UV (the two W
// sides), UW (the two V sides) and VW (the two U sides). The UV slab owns
// its full grid; the UW slab owns only its interior W rows and aliases its
// W boundary rows onto the UV slab; the VW slab owns only interior rows of
// both axes and aliases onto UV and UW. Aliasing is what gives vertices on
// a shared box edge one index no matter which side asks for them.
//
// Surfaces use a single slab without aliasing; curves use a single linear
// range.
package indexspace

import "fmt"

// Kind is the closed set of primitive shapes.
type Kind int

const (
	Curve Kind = iota
	Surface
	Volume
)

func (k Kind) String() string {
	switch k {
	case Curve:
		return "curve"
	case Surface:
		return "surface"
	case Volume:
		return "volume"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Dim is the number of parametric axes of the kind.
func (k Kind) Dim() int {
	return int(k) + 1
}

// Axis names a parametric direction.
type Axis int

const (
	U Axis = iota
	V
	W
)

func (a Axis) String() string {
	switch a {
	case U:
		return "u"
	case V:
		return "v"
	case W:
		return "w"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Slab is a pair of opposite sides sharing one 2-parameter coordinate family.
type Slab int

const (
	SlabUV Slab = iota // sides at w-min / w-max
	SlabUW             // sides at v-min / v-max
	SlabVW             // sides at u-min / u-max
)

// Axes returns the slab's in-plane axes and the axis it is constant along.
func (s Slab) Axes() (a, b, third Axis) {
	switch s {
	case SlabUW:
		return U, W, V
	case SlabVW:
		return V, W, U
	default:
		return U, V, W
	}
}

func (s Slab) String() string {
	a, b, _ := s.Axes()
	return a.String() + b.String()
}

// Side selects the parameter minimum or maximum along a slab's third axis.
type Side int

const (
	Min Side = iota
	Max
)

// FaceID returns the face id of a slab side: 2*slab + side.
func FaceID(s Slab, side Side) int {
	return 2*int(s) + int(side)
}

// FaceSlab is the inverse of FaceID.
func FaceSlab(face int) (Slab, Side) {
	return Slab(face / 2), Side(face % 2)
}

// Counts holds one value per axis. Unused axes of curves and surfaces are 0.
type Counts [3]int

// Mul multiplies per axis.
func (c Counts) Mul(o Counts) Counts {
	return Counts{c[0] * o[0], c[1] * o[1], c[2] * o[2]}
}
