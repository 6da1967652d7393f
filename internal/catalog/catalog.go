// Package catalog defines the fixed set of allergen kinds the rest of the
// system is allowed to reference.
//
// The catalog is an immutable configuration table: every allergen identifier
// stored on an ingredient, supplier item, component, or dish must be a member
// of this set. Display metadata (name, emoji) is attached for presentation
// and carries no behavior.
package catalog

// Allergen identifies one allergen kind (e.g. "dairy", "peanuts").
// The zero value is not a valid allergen.
type Allergen string

// The fixed allergen kinds, in display order.
const (
	Dairy       Allergen = "dairy"
	Eggs        Allergen = "eggs"
	Peanuts     Allergen = "peanuts"
	TreeNuts    Allergen = "tree_nuts"
	Fish        Allergen = "fish"
	Shellfish   Allergen = "shellfish"
	Soy         Allergen = "soy"
	Gluten      Allergen = "gluten"
	Mustard     Allergen = "mustard"
	Sesame      Allergen = "sesame"
	Sulfites    Allergen = "sulfites"
	Alcohol     Allergen = "alcohol"
	Nightshades Allergen = "nightshades"
)

// Info holds display metadata for one allergen kind.
type Info struct {
	ID    Allergen `json:"id"`
	Name  string   `json:"name"`
	Emoji string   `json:"emoji"`
}

// all lists every allergen kind in display order. Order is part of the
// contract: matrix columns and sorted sets follow it.
var all = []Info{
	{Dairy, "Dairy", "🥛"},
	{Eggs, "Eggs", "🥚"},
	{Peanuts, "Peanuts", "🥜"},
	{TreeNuts, "Tree Nuts", "🌰"},
	{Fish, "Fish", "🐟"},
	{Shellfish, "Shellfish", "🦐"},
	{Soy, "Soy", "🫘"},
	{Gluten, "Gluten", "🌾"},
	{Mustard, "Mustard", "🌼"},
	{Sesame, "Sesame", "🌱"},
	{Sulfites, "Sulfites", "🍇"},
	{Alcohol, "Alcohol", "🍷"},
	{Nightshades, "Nightshades", "🌶️"},
}

// index maps each allergen to its position in display order.
var index = func() map[Allergen]int {
	m := make(map[Allergen]int, len(all))
	for i, info := range all {
		m[info.ID] = i
	}
	return m
}()

// All returns every allergen kind in display order.
// The returned slice is a copy; callers may modify it freely.
func All() []Info {
	out := make([]Info, len(all))
	copy(out, all)
	return out
}

// IDs returns every allergen identifier in display order.
func IDs() []Allergen {
	out := make([]Allergen, len(all))
	for i, info := range all {
		out[i] = info.ID
	}
	return out
}

// IsKnown reports whether a is a member of the catalog.
func IsKnown(a Allergen) bool {
	_, ok := index[a]
	return ok
}

// Lookup returns the display metadata for an allergen.
// The second return is false for identifiers outside the catalog.
func Lookup(a Allergen) (Info, bool) {
	i, ok := index[a]
	if !ok {
		return Info{}, false
	}
	return all[i], true
}

// Order returns the display-order position of an allergen, or len(catalog)
// for unknown identifiers so they sort last.
func Order(a Allergen) int {
	if i, ok := index[a]; ok {
		return i
	}
	return len(all)
}
