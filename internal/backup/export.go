package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/kitchenops/allergycheck/internal/aggregate"
	"github.com/kitchenops/allergycheck/internal/menu"
	"github.com/kitchenops/allergycheck/internal/service"
)

// Export serializes the full store into a document. Composition links are
// referenced by name; derived allergen fields are left out and recomputed
// on import.
func Export(ctx context.Context, svc *service.Service) (Document, error) {
	snap, err := svc.Snapshot(ctx)
	if err != nil {
		return Document{}, err
	}
	stations, err := svc.Store().ListStations(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("list stations: %w", err)
	}
	matrices, err := svc.Store().ListMatrices(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("list matrices: %w", err)
	}

	doc := Document{
		Ingredients: []Ingredient{},
		Suppliers:   []SupplierItem{},
		Components:  []Component{},
		Dishes:      []Dish{},
		Stations:    []Station{},
		Matrices:    []Matrix{},
		ExportedAt:  time.Now().UTC(),
	}

	// Snapshot maps are unordered; walk name-sorted lists for a stable file.
	for _, ing := range sortedByName(snap.Ingredients, func(i menu.Ingredient) string { return i.Name }) {
		doc.Ingredients = append(doc.Ingredients, Ingredient{
			Name:         ing.Name,
			Allergens:    ing.Allergens,
			MayContain:   ing.MayContain,
			CrossContact: ing.CrossContact,
		})
	}
	for _, si := range sortedByName(snap.SupplierItems, func(s menu.SupplierItem) string { return s.Name }) {
		doc.Suppliers = append(doc.Suppliers, SupplierItem{
			Name:       si.Name,
			Supplier:   si.Supplier,
			Allergens:  si.Allergens,
			MayContain: si.MayContain,
		})
	}
	for _, comp := range sortedByName(snap.Components, func(c menu.Component) string { return c.Name }) {
		items, err := itemRefs(snap.ComponentItems[comp.ID], snap)
		if err != nil {
			return Document{}, fmt.Errorf("component %q: %w", comp.Name, err)
		}
		doc.Components = append(doc.Components, Component{
			Name:         comp.Name,
			CrossContact: comp.CrossContact,
			Items:        items,
		})
	}
	for _, dish := range sortedByName(snap.Dishes, func(d menu.Dish) string { return d.Name }) {
		items, err := itemRefs(snap.DishItems[dish.ID], snap)
		if err != nil {
			return Document{}, fmt.Errorf("dish %q: %w", dish.Name, err)
		}
		doc.Dishes = append(doc.Dishes, Dish{
			Name:    dish.Name,
			Station: dish.Station,
			Items:   items,
		})
	}
	for _, st := range stations {
		doc.Stations = append(doc.Stations, Station{Name: st.Name})
	}
	for _, m := range matrices {
		names := make([]string, 0, len(m.DishIDs))
		for _, id := range m.DishIDs {
			dish, ok := snap.Dishes[id]
			if !ok {
				return Document{}, fmt.Errorf("matrix %q: dish %s missing", m.Name, id)
			}
			names = append(names, dish.Name)
		}
		doc.Matrices = append(doc.Matrices, Matrix{
			Name:    m.Name,
			Type:    string(m.Type),
			Station: m.Station,
			Dishes:  names,
		})
	}

	return doc, nil
}

// Marshal renders a document as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return b, nil
}

// itemRefs converts constituent edges to name references.
func itemRefs(items []menu.Constituent, snap *aggregate.Snapshot) ([]ItemRef, error) {
	refs := make([]ItemRef, 0, len(items))
	for _, c := range items {
		name, ok := snap.NameOf(c.Kind, c.ChildID)
		if !ok {
			return nil, fmt.Errorf("%s %s: not in snapshot", c.Kind, c.ChildID)
		}
		refs = append(refs, ItemRef{
			Kind:      string(c.Kind),
			Name:      name,
			Quantity:  c.Quantity,
			Removable: c.Removable,
		})
	}
	return refs, nil
}

// sortedByName orders map values by a name key for deterministic output.
func sortedByName[T any](m map[string]T, name func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return name(out[i]) < name(out[j]) })
	return out
}
