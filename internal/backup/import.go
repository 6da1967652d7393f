package backup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kitchenops/allergycheck/internal/menu"
	"github.com/kitchenops/allergycheck/internal/service"
)

// Stats reports what an import created.
type Stats struct {
	Ingredients   int
	SupplierItems int
	Components    int
	Dishes        int
	Stations      int
	Matrices      int
}

// Import validates a document and creates its contents in the store.
// Validation happens before any write; a document that fails the schema
// touches nothing. Entities are created in dependency order, so components
// built from other components land after their children regardless of file
// order. Name collisions with existing entities surface as uniqueness
// errors and abort the import partway - import into an empty store for a
// clean restore.
func Import(ctx context.Context, svc *service.Service, data []byte) (Stats, error) {
	var stats Stats

	if err := Validate(data); err != nil {
		return stats, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return stats, fmt.Errorf("decode document: %w", err)
	}

	st := svc.Store()

	// Document order is display order for stations.
	for _, s := range doc.Stations {
		if _, err := st.CreateStation(ctx, menu.Station{Name: s.Name}); err != nil {
			return stats, fmt.Errorf("station %q: %w", s.Name, err)
		}
		stats.Stations++
	}

	// ids maps kind+name to the created entity's ID for link resolution.
	ids := map[string]string{}
	key := func(kind menu.ItemKind, name string) string {
		return string(kind) + "\x00" + name
	}

	for _, ing := range doc.Ingredients {
		created, err := st.CreateIngredient(ctx, menu.Ingredient{
			Name:         ing.Name,
			Allergens:    ing.Allergens,
			MayContain:   ing.MayContain,
			CrossContact: ing.CrossContact,
		})
		if err != nil {
			return stats, fmt.Errorf("ingredient %q: %w", ing.Name, err)
		}
		ids[key(menu.KindIngredient, ing.Name)] = created.ID
		stats.Ingredients++
	}
	for _, si := range doc.Suppliers {
		created, err := st.CreateSupplierItem(ctx, menu.SupplierItem{
			Name:       si.Name,
			Supplier:   si.Supplier,
			Allergens:  si.Allergens,
			MayContain: si.MayContain,
		})
		if err != nil {
			return stats, fmt.Errorf("supplier item %q: %w", si.Name, err)
		}
		ids[key(menu.KindSupplierItem, si.Name)] = created.ID
		stats.SupplierItems++
	}

	// Components may reference each other; create them in passes, taking
	// whichever ones have all their children resolved. No progress in a
	// full pass means a missing reference or a cycle in the file.
	pending := append([]Component(nil), doc.Components...)
	for len(pending) > 0 {
		var deferred []Component
		for _, comp := range pending {
			items, ok, err := resolveItems(comp.Items, ids, key)
			if err != nil {
				return stats, fmt.Errorf("component %q: %w", comp.Name, err)
			}
			if !ok {
				deferred = append(deferred, comp)
				continue
			}
			created, err := svc.SaveComponent(ctx, menu.Component{
				Name:         comp.Name,
				CrossContact: comp.CrossContact,
			}, items)
			if err != nil {
				return stats, fmt.Errorf("component %q: %w", comp.Name, err)
			}
			ids[key(menu.KindComponent, comp.Name)] = created.ID
			stats.Components++
		}
		if len(deferred) == len(pending) {
			return stats, fmt.Errorf("component %q: unresolved reference or component cycle in document", deferred[0].Name)
		}
		pending = deferred
	}

	dishIDs := map[string]string{}
	for _, dish := range doc.Dishes {
		items, ok, err := resolveItems(dish.Items, ids, key)
		if err != nil {
			return stats, fmt.Errorf("dish %q: %w", dish.Name, err)
		}
		if !ok {
			return stats, fmt.Errorf("dish %q: references an item not in the document", dish.Name)
		}
		created, err := svc.SaveDish(ctx, menu.Dish{
			Name:    dish.Name,
			Station: dish.Station,
		}, items)
		if err != nil {
			return stats, fmt.Errorf("dish %q: %w", dish.Name, err)
		}
		dishIDs[dish.Name] = created.ID
		stats.Dishes++
	}

	for _, m := range doc.Matrices {
		dishes := make([]string, 0, len(m.Dishes))
		for _, name := range m.Dishes {
			id, ok := dishIDs[name]
			if !ok {
				return stats, fmt.Errorf("matrix %q: dish %q not in document", m.Name, name)
			}
			dishes = append(dishes, id)
		}
		if _, err := st.SaveMatrix(ctx, menu.Matrix{
			Name:    m.Name,
			Type:    menu.MatrixType(m.Type),
			Station: m.Station,
			DishIDs: dishes,
		}); err != nil {
			return stats, fmt.Errorf("matrix %q: %w", m.Name, err)
		}
		stats.Matrices++
	}

	return stats, nil
}

// resolveItems maps name references to constituent edges. ok is false when
// a referenced component has not been created yet; unknown kinds are a hard
// error (the schema should have caught them).
func resolveItems(refs []ItemRef, ids map[string]string, key func(menu.ItemKind, string) string) ([]menu.Constituent, bool, error) {
	items := make([]menu.Constituent, 0, len(refs))
	for _, ref := range refs {
		kind := menu.ItemKind(ref.Kind)
		switch kind {
		case menu.KindIngredient, menu.KindSupplierItem, menu.KindComponent:
		default:
			return nil, false, fmt.Errorf("unknown item kind %q", ref.Kind)
		}
		id, ok := ids[key(kind, ref.Name)]
		if !ok {
			if kind == menu.KindComponent {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("%s %q not in document", ref.Kind, ref.Name)
		}
		items = append(items, menu.Constituent{
			Kind:      kind,
			ChildID:   id,
			Quantity:  ref.Quantity,
			Removable: ref.Removable,
		})
	}
	return items, true, nil
}
