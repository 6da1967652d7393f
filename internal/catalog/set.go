package catalog

import "sort"

// Set is an unordered set of allergen kinds.
// The nil map is a valid empty set for reads; use NewSet or Add for writes.
type Set map[Allergen]struct{}

// NewSet builds a set from the given allergens.
func NewSet(allergens ...Allergen) Set {
	s := make(Set, len(allergens))
	for _, a := range allergens {
		s[a] = struct{}{}
	}
	return s
}

// Add inserts a into the set.
func (s Set) Add(a Allergen) {
	s[a] = struct{}{}
}

// Has reports whether a is in the set.
func (s Set) Has(a Allergen) bool {
	_, ok := s[a]
	return ok
}

// AddAll inserts every allergen from the slice.
func (s Set) AddAll(allergens []Allergen) {
	for _, a := range allergens {
		s[a] = struct{}{}
	}
}

// Intersects reports whether any allergen in the slice is in the set.
func (s Set) Intersects(allergens []Allergen) bool {
	for _, a := range allergens {
		if s.Has(a) {
			return true
		}
	}
	return false
}

// Sorted returns the members in catalog display order.
// Unknown members (should not occur in well-formed data) sort last,
// alphabetically among themselves for determinism.
func (s Set) Sorted() []Allergen {
	out := make([]Allergen, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := Order(out[i]), Order(out[j])
		if oi != oj {
			return oi < oj
		}
		return out[i] < out[j]
	})
	return out
}
