package gpu

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
	"honnef.co/go/safeish"
)

// Bytes views a slice of fixed-size numbers as raw bytes without copying.
// The view aliases s and must not outlive it.
func Bytes[T constraints.Integer | constraints.Float](s []T) []byte {
	return safeish.SliceCast[[]byte](s)
}

// Narrow converts indices to another unsigned type, failing if any index
// does not fit.
func Narrow[T constraints.Unsigned, S constraints.Integer](idx []S) ([]T, error) {
	var limit uint64
	switch any(T(0)).(type) {
	case uint8:
		limit = math.MaxUint8
	case uint16:
		limit = math.MaxUint16
	case uint32:
		limit = math.MaxUint32
	default:
		limit = math.MaxUint64
	}
	out := make([]T, len(idx))
	for i, v := range idx {
		if v < 0 || uint64(v) > limit {
			return nil, fmt.Errorf("gpu: index %d does not fit in %T", v, T(0))
		}
		out[i] = T(v)
	}
	return out, nil
}

// QuadsToTriangles splits every four indices (a quad wound counter-clockwise)
// into two triangles with the same winding: (a b c) and (a c d).
func QuadsToTriangles[T constraints.Integer](quads []T) []T {
	out := make([]T, 0, len(quads)/4*6)
	for q := 0; q+3 < len(quads); q += 4 {
		a, b, c, d := quads[q], quads[q+1], quads[q+2], quads[q+3]
		out = append(out, a, b, c, a, c, d)
	}
	return out
}
