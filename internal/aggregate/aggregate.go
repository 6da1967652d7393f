package aggregate

import (
	"fmt"

	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/menu"
)

// ComponentContains computes the definite allergen set of a component: the
// union of every constituent's allergens, recursing through nested
// components.
//
// This is the only source of a component's Allergens field. The store
// persists the result at save time; reads recompute it here so the function
// stays idempotent over an unchanged graph.
//
// Returns a CycleError if the component transitively contains itself.
func (s *Snapshot) ComponentContains(id string) (catalog.Set, error) {
	if _, ok := s.Components[id]; !ok {
		return nil, &UnknownRefError{Kind: string(menu.KindComponent), ChildID: id}
	}
	return s.componentContains(id, nil)
}

// componentContains is the DFS worker. path carries the component IDs on the
// current recursion path, root first; revisiting one is a cycle.
func (s *Snapshot) componentContains(id string, path []string) (catalog.Set, error) {
	for _, ancestor := range path {
		if ancestor == id {
			return nil, &CycleError{ComponentID: id, Path: append(append([]string{}, path...), id)}
		}
	}
	path = append(path, id)

	contains := catalog.NewSet()
	for _, c := range s.ComponentItems[id] {
		switch c.Kind {
		case menu.KindIngredient:
			ing, ok := s.Ingredients[c.ChildID]
			if !ok {
				return nil, &UnknownRefError{Kind: string(c.Kind), ChildID: c.ChildID}
			}
			contains.AddAll(ing.Allergens)
		case menu.KindSupplierItem:
			si, ok := s.SupplierItems[c.ChildID]
			if !ok {
				return nil, &UnknownRefError{Kind: string(c.Kind), ChildID: c.ChildID}
			}
			contains.AddAll(si.Allergens)
		case menu.KindComponent:
			child, err := s.componentContains(c.ChildID, path)
			if err != nil {
				return nil, err
			}
			for a := range child {
				contains.Add(a)
			}
		default:
			return nil, fmt.Errorf("component %s: unknown constituent kind %q", id, c.Kind)
		}
	}
	return contains, nil
}

// DishContains computes the definite allergen set of a dish: the flattened
// union of every constituent's effective allergen set, exactly as for
// components. The store persists the result on the dish at save time.
func (s *Snapshot) DishContains(id string) (catalog.Set, error) {
	if _, ok := s.Dishes[id]; !ok {
		return nil, &UnknownRefError{Kind: "dish", ChildID: id}
	}

	contains := catalog.NewSet()
	for _, c := range s.DishItems[id] {
		switch c.Kind {
		case menu.KindIngredient:
			ing, ok := s.Ingredients[c.ChildID]
			if !ok {
				return nil, &UnknownRefError{Kind: string(c.Kind), ChildID: c.ChildID}
			}
			contains.AddAll(ing.Allergens)
		case menu.KindSupplierItem:
			si, ok := s.SupplierItems[c.ChildID]
			if !ok {
				return nil, &UnknownRefError{Kind: string(c.Kind), ChildID: c.ChildID}
			}
			contains.AddAll(si.Allergens)
		case menu.KindComponent:
			child, err := s.ComponentContains(c.ChildID)
			if err != nil {
				return nil, err
			}
			for a := range child {
				contains.Add(a)
			}
		default:
			return nil, fmt.Errorf("dish %s: unknown constituent kind %q", id, c.Kind)
		}
	}
	return contains, nil
}

// DishMayContain computes the trace-risk allergen set of a dish, lazily at
// read time. It is never persisted.
//
// The set is the union of the constituent ingredients' and supplier items'
// MayContain sets, excluding any allergen already in DishContains: definite
// presence subsumes trace risk. Components do not propagate MayContain
// upward; component-level trace risk is not modeled.
func (s *Snapshot) DishMayContain(id string) (catalog.Set, error) {
	contains, err := s.DishContains(id)
	if err != nil {
		return nil, err
	}

	may := catalog.NewSet()
	add := func(allergens []catalog.Allergen) {
		for _, a := range allergens {
			if !contains.Has(a) {
				may.Add(a)
			}
		}
	}
	for _, c := range s.DishItems[id] {
		switch c.Kind {
		case menu.KindIngredient:
			if ing, ok := s.Ingredients[c.ChildID]; ok {
				add(ing.MayContain)
			}
		case menu.KindSupplierItem:
			if si, ok := s.SupplierItems[c.ChildID]; ok {
				add(si.MayContain)
			}
		}
	}
	return may, nil
}

// ResolveDishItems flattens a dish's constituent edges into the item views
// the decision engine assesses.
//
// Supplier items never carry a cross-contact flag. Components contribute
// their persisted flattened Allergens and an empty MayContain; their
// CrossContact flag is the staff-entered one on the component itself.
func (s *Snapshot) ResolveDishItems(id string) ([]menu.DishItem, error) {
	if _, ok := s.Dishes[id]; !ok {
		return nil, &UnknownRefError{Kind: "dish", ChildID: id}
	}

	items := make([]menu.DishItem, 0, len(s.DishItems[id]))
	for _, c := range s.DishItems[id] {
		switch c.Kind {
		case menu.KindIngredient:
			ing, ok := s.Ingredients[c.ChildID]
			if !ok {
				return nil, &UnknownRefError{Kind: string(c.Kind), ChildID: c.ChildID}
			}
			items = append(items, menu.DishItem{
				ID:           ing.ID,
				Name:         ing.Name,
				Kind:         menu.KindIngredient,
				Allergens:    ing.Allergens,
				MayContain:   ing.MayContain,
				CrossContact: ing.CrossContact,
				Removable:    c.Removable,
			})
		case menu.KindSupplierItem:
			si, ok := s.SupplierItems[c.ChildID]
			if !ok {
				return nil, &UnknownRefError{Kind: string(c.Kind), ChildID: c.ChildID}
			}
			items = append(items, menu.DishItem{
				ID:         si.ID,
				Name:       si.Name,
				Kind:       menu.KindSupplierItem,
				Allergens:  si.Allergens,
				MayContain: si.MayContain,
				Removable:  c.Removable,
			})
		case menu.KindComponent:
			comp, ok := s.Components[c.ChildID]
			if !ok {
				return nil, &UnknownRefError{Kind: string(c.Kind), ChildID: c.ChildID}
			}
			items = append(items, menu.DishItem{
				ID:           comp.ID,
				Name:         comp.Name,
				Kind:         menu.KindComponent,
				Allergens:    comp.Allergens,
				CrossContact: comp.CrossContact,
				Removable:    c.Removable,
			})
		default:
			return nil, fmt.Errorf("dish %s: unknown constituent kind %q", id, c.Kind)
		}
	}
	return items, nil
}
