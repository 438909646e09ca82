package selection

import (
	"sort"

	"github.com/samber/lo"
)

// IDSet is a set of primitive ids at one granularity.
type IDSet map[int]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Range returns the set {0, ..., n-1}.
func Range(n int) IDSet {
	return NewIDSet(lo.Range(n)...)
}

// Has reports membership.
func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Add inserts ids.
func (s IDSet) Add(ids ...int) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Union inserts every member of o.
func (s IDSet) Union(o IDSet) {
	for id := range o {
		s[id] = struct{}{}
	}
}

// Subtract removes every member of o.
func (s IDSet) Subtract(o IDSet) {
	for id := range o {
		delete(s, id)
	}
}

// Intersect returns the members of s that are also in o.
func (s IDSet) Intersect(o IDSet) IDSet {
	out := make(IDSet)
	for id := range s {
		if o.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Clone copies s.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	out.Union(s)
	return out
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int {
	ids := lo.Keys(map[int]struct{}(s))
	sort.Ints(ids)
	return ids
}

// Equal reports whether s and o hold the same ids.
func (s IDSet) Equal(o IDSet) bool {
	if len(s) != len(o) {
		return false
	}
	for id := range s {
		if !o.Has(id) {
			return false
		}
	}
	return true
}
