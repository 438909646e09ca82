// Package pick assigns unique identifying colors to pickable primitives and
// decodes colors read back from a picking render pass.
package pick

import "fmt"

// Color is an 8-bit RGB triple. Channel 0 varies fastest.
type Color [3]uint8

// Capacity is the number of distinct keys a Color can carry.
const Capacity = 1 << 24

// Background is the key of the all-white clear color. It is never allocated.
const Background uint32 = Capacity - 1

// Key returns the linear key of c.
func (c Color) Key() uint32 {
	return uint32(c[0]) | uint32(c[1])<<8 | uint32(c[2])<<16
}

// FromKey is the inverse of Key. Keys wrap modulo Capacity.
func FromKey(k uint32) Color {
	return Color{uint8(k), uint8(k >> 8), uint8(k >> 16)}
}

// RGBA returns the color as normalised floats for a shader uniform.
func (c Color) RGBA() [4]float32 {
	return [4]float32{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, 1}
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// Range is a contiguous block of keys [Min, Max) reserved for one object.
type Range struct {
	Min uint32 `json:"min"`
	Max uint32 `json:"max"`
}

// Len is the number of keys in r.
func (r Range) Len() int {
	return int(r.Max - r.Min)
}

// Contains reports whether c falls inside r.
func (r Range) Contains(c Color) bool {
	k := c.Key()
	return k >= r.Min && k < r.Max
}

// Local returns the index of c within r.
func (r Range) Local(c Color) (int, bool) {
	if !r.Contains(c) {
		return 0, false
	}
	return int(c.Key() - r.Min), true
}

// Color returns the color of local index i.
func (r Range) Color(i int) Color {
	return FromKey(r.Min + uint32(i))
}

// Base returns the first color of r.
func (r Range) Base() Color {
	return FromKey(r.Min)
}

// Allocator hands out monotonically increasing, non-overlapping ranges.
// Ranges are never recycled; the counter wraps to zero only when the next
// range would run into the background key.
type Allocator struct {
	next    uint32
	wrapped int
}

// NewAllocator returns an allocator starting at key zero.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Reset restarts allocation from key zero.
func (a *Allocator) Reset() {
	a.next = 0
	a.wrapped = 0
}

// Allocate reserves n keys. It fails only when n alone exceeds the
// allocatable capacity.
func (a *Allocator) Allocate(n int) (Range, error) {
	if n < 0 || n >= int(Background) {
		return Range{}, fmt.Errorf("pick: cannot allocate %d colors", n)
	}
	if uint64(a.next)+uint64(n) > uint64(Background) {
		a.next = 0
		a.wrapped++
	}
	r := Range{Min: a.next, Max: a.next + uint32(n)}
	a.next = r.Max
	return r, nil
}

// Next is the first key the next allocation will use (absent wrapping).
func (a *Allocator) Next() uint32 {
	return a.next
}

// Wrapped counts how many times the key space has been exhausted.
func (a *Allocator) Wrapped() int {
	return a.wrapped
}

// Hit is a decoded pick: the owning range's index in the table it was
// decoded against and the primitive's local index.
type Hit struct {
	Object int `json:"object"`
	Local  int `json:"local"`
}

// Decode finds the range containing c. The background key and keys
// outside every range decode to no hit.
func Decode(ranges []Range, c Color) (Hit, bool) {
	if c.Key() == Background {
		return Hit{}, false
	}
	for i, r := range ranges {
		if local, ok := r.Local(c); ok {
			return Hit{Object: i, Local: local}, true
		}
	}
	return Hit{}, false
}
