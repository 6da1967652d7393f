package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kitchenops/allergycheck/internal/menu"
)

// newID generates a time-ordered unique identifier for a new entity.
// Uses github.com/google/uuid for RFC 4122 compliant UUIDs.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// nameTaken reports whether another row of the table already uses the name.
// excludeID skips the row being updated; pass "" on create.
func nameTaken(ctx context.Context, tx *sql.Tx, table, name, excludeID string) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE name = ? AND id <> ?`,
		name, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check name in %s: %w", table, err)
	}
	return count > 0, nil
}

// refTables reports which of the given link tables hold a reference to id
// in the given column.
func refTables(ctx context.Context, tx *sql.Tx, id string, tables map[string]string) ([]string, error) {
	var found []string
	for table, column := range tables {
		var count int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM `+table+` WHERE `+column+` = ?`, id,
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("check references in %s: %w", table, err)
		}
		if count > 0 {
			found = append(found, table)
		}
	}
	// Deterministic error messages regardless of map iteration order.
	sort.Strings(found)
	return found, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}
	return nil
}

// --- Ingredients ---

// CreateIngredient inserts a new ingredient and returns it with identity
// and timestamps assigned.
func (s *Store) CreateIngredient(ctx context.Context, ing menu.Ingredient) (menu.Ingredient, error) {
	if err := validateName(ing.Name); err != nil {
		return menu.Ingredient{}, err
	}
	if err := validateAllergens("allergens", ing.Allergens); err != nil {
		return menu.Ingredient{}, err
	}
	if err := validateAllergens("may_contain", ing.MayContain); err != nil {
		return menu.Ingredient{}, err
	}

	ing.ID = newID()
	ing.CreatedAt = time.Now().UTC()
	ing.UpdatedAt = ing.CreatedAt

	allergens, err := marshalAllergens(ing.Allergens)
	if err != nil {
		return menu.Ingredient{}, err
	}
	mayContain, err := marshalAllergens(ing.MayContain)
	if err != nil {
		return menu.Ingredient{}, err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, "ingredients", ing.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return &UniquenessError{Kind: "ingredient", Name: ing.Name}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ingredients (id, name, allergens, may_contain, cross_contact, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, ing.ID, ing.Name, allergens, mayContain, boolToInt(ing.CrossContact),
			formatTime(ing.CreatedAt), formatTime(ing.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert ingredient: %w", err)
		}
		return nil
	})
	if err != nil {
		return menu.Ingredient{}, err
	}
	return ing, nil
}

// UpdateIngredient rewrites an existing ingredient's staff-entered fields.
func (s *Store) UpdateIngredient(ctx context.Context, ing menu.Ingredient) error {
	if err := validateName(ing.Name); err != nil {
		return err
	}
	if err := validateAllergens("allergens", ing.Allergens); err != nil {
		return err
	}
	if err := validateAllergens("may_contain", ing.MayContain); err != nil {
		return err
	}

	allergens, err := marshalAllergens(ing.Allergens)
	if err != nil {
		return err
	}
	mayContain, err := marshalAllergens(ing.MayContain)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, "ingredients", ing.Name, ing.ID)
		if err != nil {
			return err
		}
		if taken {
			return &UniquenessError{Kind: "ingredient", Name: ing.Name}
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE ingredients
			SET name = ?, allergens = ?, may_contain = ?, cross_contact = ?, updated_at = ?
			WHERE id = ?
		`, ing.Name, allergens, mayContain, boolToInt(ing.CrossContact),
			formatTime(time.Now()), ing.ID)
		if err != nil {
			return fmt.Errorf("update ingredient: %w", err)
		}
		return requireRow(res, "ingredient", ing.ID)
	})
}

// DeleteIngredient removes an ingredient. Fails with a ReferentialError if
// any component or dish still references it.
func (s *Store) DeleteIngredient(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		refs, err := refTables(ctx, tx, id, map[string]string{
			"component_ingredients": "ingredient_id",
			"dish_ingredients":      "ingredient_id",
		})
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return &ReferentialError{Kind: "ingredient", ID: id, ReferencedBy: refs}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete ingredient: %w", err)
		}
		return requireRow(res, "ingredient", id)
	})
}

// --- Supplier items ---

// CreateSupplierItem inserts a new supplier item.
func (s *Store) CreateSupplierItem(ctx context.Context, si menu.SupplierItem) (menu.SupplierItem, error) {
	if err := validateName(si.Name); err != nil {
		return menu.SupplierItem{}, err
	}
	if err := validateAllergens("allergens", si.Allergens); err != nil {
		return menu.SupplierItem{}, err
	}
	if err := validateAllergens("may_contain", si.MayContain); err != nil {
		return menu.SupplierItem{}, err
	}

	si.ID = newID()
	si.CreatedAt = time.Now().UTC()
	si.UpdatedAt = si.CreatedAt

	allergens, err := marshalAllergens(si.Allergens)
	if err != nil {
		return menu.SupplierItem{}, err
	}
	mayContain, err := marshalAllergens(si.MayContain)
	if err != nil {
		return menu.SupplierItem{}, err
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, "supplier_items", si.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return &UniquenessError{Kind: "supplier_item", Name: si.Name}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO supplier_items (id, name, supplier, allergens, may_contain, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, si.ID, si.Name, si.Supplier, allergens, mayContain,
			formatTime(si.CreatedAt), formatTime(si.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert supplier item: %w", err)
		}
		return nil
	})
	if err != nil {
		return menu.SupplierItem{}, err
	}
	return si, nil
}

// UpdateSupplierItem rewrites an existing supplier item.
func (s *Store) UpdateSupplierItem(ctx context.Context, si menu.SupplierItem) error {
	if err := validateName(si.Name); err != nil {
		return err
	}
	if err := validateAllergens("allergens", si.Allergens); err != nil {
		return err
	}
	if err := validateAllergens("may_contain", si.MayContain); err != nil {
		return err
	}

	allergens, err := marshalAllergens(si.Allergens)
	if err != nil {
		return err
	}
	mayContain, err := marshalAllergens(si.MayContain)
	if err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, "supplier_items", si.Name, si.ID)
		if err != nil {
			return err
		}
		if taken {
			return &UniquenessError{Kind: "supplier_item", Name: si.Name}
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE supplier_items
			SET name = ?, supplier = ?, allergens = ?, may_contain = ?, updated_at = ?
			WHERE id = ?
		`, si.Name, si.Supplier, allergens, mayContain, formatTime(time.Now()), si.ID)
		if err != nil {
			return fmt.Errorf("update supplier item: %w", err)
		}
		return requireRow(res, "supplier_item", si.ID)
	})
}

// DeleteSupplierItem removes a supplier item unless referenced.
func (s *Store) DeleteSupplierItem(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		refs, err := refTables(ctx, tx, id, map[string]string{
			"component_supplier_items": "supplier_item_id",
			"dish_supplier_items":      "supplier_item_id",
		})
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return &ReferentialError{Kind: "supplier_item", ID: id, ReferencedBy: refs}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM supplier_items WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete supplier item: %w", err)
		}
		return requireRow(res, "supplier_item", id)
	})
}

// requireRow converts a zero-row write into ErrNotFound.
func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
