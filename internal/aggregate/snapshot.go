// Package aggregate computes derived allergen sets for components and
// dishes from their constituent graphs.
//
// All functions are pure reads over a Snapshot: a consistent-enough batch of
// store state fetched once per interaction. Nothing here mutates storage.
package aggregate

import "github.com/kitchenops/allergycheck/internal/menu"

// Snapshot is an in-memory view of the entity graph, keyed for traversal.
//
// The store's read API produces flat lists; NewSnapshot indexes them. A
// snapshot is immutable by convention: build one per screen interaction and
// discard it.
type Snapshot struct {
	Ingredients   map[string]menu.Ingredient
	SupplierItems map[string]menu.SupplierItem
	Components    map[string]menu.Component
	Dishes        map[string]menu.Dish

	// Constituent edges keyed by parent ID.
	ComponentItems map[string][]menu.Constituent
	DishItems      map[string][]menu.Constituent
}

// NewSnapshot indexes flat entity lists into a Snapshot.
func NewSnapshot(
	ingredients []menu.Ingredient,
	supplierItems []menu.SupplierItem,
	components []menu.Component,
	dishes []menu.Dish,
	componentItems map[string][]menu.Constituent,
	dishItems map[string][]menu.Constituent,
) *Snapshot {
	s := &Snapshot{
		Ingredients:    make(map[string]menu.Ingredient, len(ingredients)),
		SupplierItems:  make(map[string]menu.SupplierItem, len(supplierItems)),
		Components:     make(map[string]menu.Component, len(components)),
		Dishes:         make(map[string]menu.Dish, len(dishes)),
		ComponentItems: componentItems,
		DishItems:      dishItems,
	}
	if s.ComponentItems == nil {
		s.ComponentItems = map[string][]menu.Constituent{}
	}
	if s.DishItems == nil {
		s.DishItems = map[string][]menu.Constituent{}
	}
	for _, ing := range ingredients {
		s.Ingredients[ing.ID] = ing
	}
	for _, si := range supplierItems {
		s.SupplierItems[si.ID] = si
	}
	for _, c := range components {
		s.Components[c.ID] = c
	}
	for _, d := range dishes {
		s.Dishes[d.ID] = d
	}
	return s
}

// NameOf resolves a constituent reference to its display name.
func (s *Snapshot) NameOf(kind menu.ItemKind, id string) (string, bool) {
	switch kind {
	case menu.KindIngredient:
		if ing, ok := s.Ingredients[id]; ok {
			return ing.Name, true
		}
	case menu.KindSupplierItem:
		if si, ok := s.SupplierItems[id]; ok {
			return si.Name, true
		}
	case menu.KindComponent:
		if c, ok := s.Components[id]; ok {
			return c.Name, true
		}
	}
	return "", false
}
