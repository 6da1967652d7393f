package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/menu"
)

// Components and dishes are saved together with their constituent link set.
// Updating the link set is delete-all-then-reinsert inside one transaction:
// the non-atomic variant of the pattern is an accepted risk only where the
// backing store lacks transactions, which SQLite does not.
//
// The caller (service layer) supplies the derived Allergens field already
// recomputed from the new constituent set; the store never computes it.

// insertComponentItems writes one component's constituent links.
func insertComponentItems(ctx context.Context, tx *sql.Tx, componentID string, items []menu.Constituent) error {
	for _, item := range items {
		var q string
		switch item.Kind {
		case menu.KindIngredient:
			q = `INSERT INTO component_ingredients (component_id, ingredient_id, quantity) VALUES (?, ?, ?)`
		case menu.KindSupplierItem:
			q = `INSERT INTO component_supplier_items (component_id, supplier_item_id, quantity) VALUES (?, ?, ?)`
		case menu.KindComponent:
			q = `INSERT INTO component_components (parent_component_id, child_component_id, quantity) VALUES (?, ?, ?)`
		default:
			return &ValidationError{Field: "items", Message: fmt.Sprintf("unknown constituent kind %q", item.Kind)}
		}
		if _, err := tx.ExecContext(ctx, q, componentID, item.ChildID, item.Quantity); err != nil {
			return fmt.Errorf("insert component link (%s): %w", item.Kind, err)
		}
	}
	return nil
}

// deleteComponentItems removes every link where the component is the parent.
func deleteComponentItems(ctx context.Context, tx *sql.Tx, componentID string) error {
	stmts := []string{
		`DELETE FROM component_ingredients WHERE component_id = ?`,
		`DELETE FROM component_supplier_items WHERE component_id = ?`,
		`DELETE FROM component_components WHERE parent_component_id = ?`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, componentID); err != nil {
			return fmt.Errorf("delete component links: %w", err)
		}
	}
	return nil
}

// CreateComponent inserts a component header plus its constituent links.
// comp.Allergens must already hold the recomputed derived set.
func (s *Store) CreateComponent(ctx context.Context, comp menu.Component, items []menu.Constituent) (menu.Component, error) {
	if err := validateName(comp.Name); err != nil {
		return menu.Component{}, err
	}
	if err := validateAllergens("allergens", comp.Allergens); err != nil {
		return menu.Component{}, err
	}

	comp.ID = newID()
	comp.CreatedAt = time.Now().UTC()
	comp.UpdatedAt = comp.CreatedAt

	allergens, err := marshalAllergens(comp.Allergens)
	if err != nil {
		return menu.Component{}, err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, "components", comp.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return &UniquenessError{Kind: "component", Name: comp.Name}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO components (id, name, allergens, cross_contact, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, comp.ID, comp.Name, allergens, boolToInt(comp.CrossContact),
			formatTime(comp.CreatedAt), formatTime(comp.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert component: %w", err)
		}
		return insertComponentItems(ctx, tx, comp.ID, items)
	})
	if err != nil {
		return menu.Component{}, err
	}
	return comp, nil
}

// UpdateComponent rewrites a component header and replaces its entire
// constituent link set.
func (s *Store) UpdateComponent(ctx context.Context, comp menu.Component, items []menu.Constituent) error {
	if err := validateName(comp.Name); err != nil {
		return err
	}
	if err := validateAllergens("allergens", comp.Allergens); err != nil {
		return err
	}

	allergens, err := marshalAllergens(comp.Allergens)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, "components", comp.Name, comp.ID)
		if err != nil {
			return err
		}
		if taken {
			return &UniquenessError{Kind: "component", Name: comp.Name}
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE components
			SET name = ?, allergens = ?, cross_contact = ?, updated_at = ?
			WHERE id = ?
		`, comp.Name, allergens, boolToInt(comp.CrossContact), formatTime(time.Now()), comp.ID)
		if err != nil {
			return fmt.Errorf("update component: %w", err)
		}
		if err := requireRow(res, "component", comp.ID); err != nil {
			return err
		}
		if err := deleteComponentItems(ctx, tx, comp.ID); err != nil {
			return err
		}
		return insertComponentItems(ctx, tx, comp.ID, items)
	})
}

// DeleteComponent removes a component and its own constituent links.
// Fails with a ReferentialError if another component or a dish references it.
func (s *Store) DeleteComponent(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		refs, err := refTables(ctx, tx, id, map[string]string{
			"component_components": "child_component_id",
			"dish_components":      "component_id",
		})
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return &ReferentialError{Kind: "component", ID: id, ReferencedBy: refs}
		}
		if err := deleteComponentItems(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM components WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete component: %w", err)
		}
		return requireRow(res, "component", id)
	})
}

// SetComponentAllergens overwrites a component's persisted derived allergen
// set without touching its links. Used by bulk recomputation.
func (s *Store) SetComponentAllergens(ctx context.Context, id string, allergens []catalog.Allergen) error {
	raw, err := marshalAllergens(allergens)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE components SET allergens = ?, updated_at = ? WHERE id = ?`,
			raw, formatTime(time.Now()), id)
		if err != nil {
			return fmt.Errorf("set component allergens: %w", err)
		}
		return requireRow(res, "component", id)
	})
}

// SetDishAllergens overwrites a dish's persisted derived allergen set.
func (s *Store) SetDishAllergens(ctx context.Context, id string, allergens []catalog.Allergen) error {
	raw, err := marshalAllergens(allergens)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE dishes SET allergens = ?, updated_at = ? WHERE id = ?`,
			raw, formatTime(time.Now()), id)
		if err != nil {
			return fmt.Errorf("set dish allergens: %w", err)
		}
		return requireRow(res, "dish", id)
	})
}

// insertDishItems writes one dish's constituent links, including the
// dish-level removable flag.
func insertDishItems(ctx context.Context, tx *sql.Tx, dishID string, items []menu.Constituent) error {
	for _, item := range items {
		var q string
		switch item.Kind {
		case menu.KindIngredient:
			q = `INSERT INTO dish_ingredients (dish_id, ingredient_id, quantity, removable) VALUES (?, ?, ?, ?)`
		case menu.KindSupplierItem:
			q = `INSERT INTO dish_supplier_items (dish_id, supplier_item_id, quantity, removable) VALUES (?, ?, ?, ?)`
		case menu.KindComponent:
			q = `INSERT INTO dish_components (dish_id, component_id, quantity, removable) VALUES (?, ?, ?, ?)`
		default:
			return &ValidationError{Field: "items", Message: fmt.Sprintf("unknown constituent kind %q", item.Kind)}
		}
		if _, err := tx.ExecContext(ctx, q, dishID, item.ChildID, item.Quantity, boolToInt(item.Removable)); err != nil {
			return fmt.Errorf("insert dish link (%s): %w", item.Kind, err)
		}
	}
	return nil
}

// deleteDishItems removes every link belonging to the dish.
func deleteDishItems(ctx context.Context, tx *sql.Tx, dishID string) error {
	stmts := []string{
		`DELETE FROM dish_ingredients WHERE dish_id = ?`,
		`DELETE FROM dish_supplier_items WHERE dish_id = ?`,
		`DELETE FROM dish_components WHERE dish_id = ?`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, dishID); err != nil {
			return fmt.Errorf("delete dish links: %w", err)
		}
	}
	return nil
}

// CreateDish inserts a dish header plus its constituent links.
// dish.Allergens must already hold the recomputed derived set.
func (s *Store) CreateDish(ctx context.Context, dish menu.Dish, items []menu.Constituent) (menu.Dish, error) {
	if err := validateName(dish.Name); err != nil {
		return menu.Dish{}, err
	}
	if err := validateAllergens("allergens", dish.Allergens); err != nil {
		return menu.Dish{}, err
	}

	dish.ID = newID()
	dish.CreatedAt = time.Now().UTC()
	dish.UpdatedAt = dish.CreatedAt

	allergens, err := marshalAllergens(dish.Allergens)
	if err != nil {
		return menu.Dish{}, err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, "dishes", dish.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return &UniquenessError{Kind: "dish", Name: dish.Name}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO dishes (id, name, station, allergens, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, dish.ID, dish.Name, dish.Station, allergens,
			formatTime(dish.CreatedAt), formatTime(dish.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert dish: %w", err)
		}
		return insertDishItems(ctx, tx, dish.ID, items)
	})
	if err != nil {
		return menu.Dish{}, err
	}
	return dish, nil
}

// UpdateDish rewrites a dish header and replaces its entire constituent
// link set.
func (s *Store) UpdateDish(ctx context.Context, dish menu.Dish, items []menu.Constituent) error {
	if err := validateName(dish.Name); err != nil {
		return err
	}
	if err := validateAllergens("allergens", dish.Allergens); err != nil {
		return err
	}

	allergens, err := marshalAllergens(dish.Allergens)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, "dishes", dish.Name, dish.ID)
		if err != nil {
			return err
		}
		if taken {
			return &UniquenessError{Kind: "dish", Name: dish.Name}
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE dishes
			SET name = ?, station = ?, allergens = ?, updated_at = ?
			WHERE id = ?
		`, dish.Name, dish.Station, allergens, formatTime(time.Now()), dish.ID)
		if err != nil {
			return fmt.Errorf("update dish: %w", err)
		}
		if err := requireRow(res, "dish", dish.ID); err != nil {
			return err
		}
		if err := deleteDishItems(ctx, tx, dish.ID); err != nil {
			return err
		}
		return insertDishItems(ctx, tx, dish.ID, items)
	})
}

// DeleteDish removes a dish and its own constituent links.
// Fails with a ReferentialError while any saved matrix still lists the dish.
func (s *Store) DeleteDish(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		refs, err := refTables(ctx, tx, id, map[string]string{
			"matrix_dishes": "dish_id",
		})
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return &ReferentialError{Kind: "dish", ID: id, ReferencedBy: refs}
		}
		if err := deleteDishItems(ctx, tx, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM dishes WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete dish: %w", err)
		}
		return requireRow(res, "dish", id)
	})
}
