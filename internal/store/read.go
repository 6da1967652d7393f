package store

import (
	"context"
	"fmt"

	"github.com/kitchenops/allergycheck/internal/menu"
)

// Read API. Lists are ordered by name (stations by display order) so every
// caller sees the same deterministic sequence. Empty results are empty
// slices, never nil.

// ListIngredients returns every ingredient in name order.
func (s *Store) ListIngredients(ctx context.Context) ([]menu.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, allergens, may_contain, cross_contact, created_at, updated_at
		FROM ingredients
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := []menu.Ingredient{}
	for rows.Next() {
		var ing menu.Ingredient
		var allergens, mayContain, createdAt, updatedAt string
		var crossContact int
		if err := rows.Scan(&ing.ID, &ing.Name, &allergens, &mayContain, &crossContact, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		if ing.Allergens, err = unmarshalAllergens(allergens); err != nil {
			return nil, err
		}
		if ing.MayContain, err = unmarshalAllergens(mayContain); err != nil {
			return nil, err
		}
		ing.CrossContact = crossContact != 0
		if ing.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if ing.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingredients: %w", err)
	}
	return ingredients, nil
}

// ListSupplierItems returns every supplier item in name order.
func (s *Store) ListSupplierItems(ctx context.Context) ([]menu.SupplierItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, supplier, allergens, may_contain, created_at, updated_at
		FROM supplier_items
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query supplier items: %w", err)
	}
	defer rows.Close()

	items := []menu.SupplierItem{}
	for rows.Next() {
		var si menu.SupplierItem
		var allergens, mayContain, createdAt, updatedAt string
		if err := rows.Scan(&si.ID, &si.Name, &si.Supplier, &allergens, &mayContain, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan supplier item: %w", err)
		}
		if si.Allergens, err = unmarshalAllergens(allergens); err != nil {
			return nil, err
		}
		if si.MayContain, err = unmarshalAllergens(mayContain); err != nil {
			return nil, err
		}
		if si.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if si.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		items = append(items, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate supplier items: %w", err)
	}
	return items, nil
}

// ListComponents returns every component in name order.
func (s *Store) ListComponents(ctx context.Context) ([]menu.Component, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, allergens, cross_contact, created_at, updated_at
		FROM components
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query components: %w", err)
	}
	defer rows.Close()

	components := []menu.Component{}
	for rows.Next() {
		var c menu.Component
		var allergens, createdAt, updatedAt string
		var crossContact int
		if err := rows.Scan(&c.ID, &c.Name, &allergens, &crossContact, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		if c.Allergens, err = unmarshalAllergens(allergens); err != nil {
			return nil, err
		}
		c.CrossContact = crossContact != 0
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate components: %w", err)
	}
	return components, nil
}

// ListDishes returns every dish in name order.
func (s *Store) ListDishes(ctx context.Context) ([]menu.Dish, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, station, allergens, created_at, updated_at
		FROM dishes
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query dishes: %w", err)
	}
	defer rows.Close()

	dishes := []menu.Dish{}
	for rows.Next() {
		var d menu.Dish
		var allergens, createdAt, updatedAt string
		if err := rows.Scan(&d.ID, &d.Name, &d.Station, &allergens, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan dish: %w", err)
		}
		if d.Allergens, err = unmarshalAllergens(allergens); err != nil {
			return nil, err
		}
		if d.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		dishes = append(dishes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dishes: %w", err)
	}
	return dishes, nil
}

// ListStations returns every station ordered by display order.
func (s *Store) ListStations(ctx context.Context) ([]menu.Station, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, display_order, created_at
		FROM stations
		ORDER BY display_order ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	stations := []menu.Station{}
	for rows.Next() {
		var st menu.Station
		var createdAt string
		if err := rows.Scan(&st.ID, &st.Name, &st.DisplayOrder, &createdAt); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		if st.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations: %w", err)
	}
	return stations, nil
}

// ComponentItems returns every component's constituent edges keyed by
// parent component ID, merged across the three link tables.
func (s *Store) ComponentItems(ctx context.Context) (map[string][]menu.Constituent, error) {
	out := map[string][]menu.Constituent{}

	type linkQuery struct {
		kind  menu.ItemKind
		query string
	}
	queries := []linkQuery{
		{menu.KindIngredient, `SELECT component_id, ingredient_id, quantity FROM component_ingredients ORDER BY component_id, ingredient_id`},
		{menu.KindSupplierItem, `SELECT component_id, supplier_item_id, quantity FROM component_supplier_items ORDER BY component_id, supplier_item_id`},
		{menu.KindComponent, `SELECT parent_component_id, child_component_id, quantity FROM component_components ORDER BY parent_component_id, child_component_id`},
	}
	for _, lq := range queries {
		if err := s.scanLinks(ctx, lq.query, lq.kind, false, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DishItems returns every dish's constituent edges keyed by dish ID,
// including the dish-level removable flag.
func (s *Store) DishItems(ctx context.Context) (map[string][]menu.Constituent, error) {
	out := map[string][]menu.Constituent{}

	type linkQuery struct {
		kind  menu.ItemKind
		query string
	}
	queries := []linkQuery{
		{menu.KindIngredient, `SELECT dish_id, ingredient_id, quantity, removable FROM dish_ingredients ORDER BY dish_id, ingredient_id`},
		{menu.KindSupplierItem, `SELECT dish_id, supplier_item_id, quantity, removable FROM dish_supplier_items ORDER BY dish_id, supplier_item_id`},
		{menu.KindComponent, `SELECT dish_id, component_id, quantity, removable FROM dish_components ORDER BY dish_id, component_id`},
	}
	for _, lq := range queries {
		if err := s.scanLinks(ctx, lq.query, lq.kind, true, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// scanLinks reads one link table into the shared parent->constituents map.
// withRemovable selects the four-column dish-link shape.
func (s *Store) scanLinks(ctx context.Context, query string, kind menu.ItemKind, withRemovable bool, out map[string][]menu.Constituent) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query %s links: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var parentID string
		c := menu.Constituent{Kind: kind}
		if withRemovable {
			var removable int
			if err := rows.Scan(&parentID, &c.ChildID, &c.Quantity, &removable); err != nil {
				return fmt.Errorf("scan %s link: %w", kind, err)
			}
			c.Removable = removable != 0
		} else {
			if err := rows.Scan(&parentID, &c.ChildID, &c.Quantity); err != nil {
				return fmt.Errorf("scan %s link: %w", kind, err)
			}
		}
		out[parentID] = append(out[parentID], c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s links: %w", kind, err)
	}
	return nil
}
