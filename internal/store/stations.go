package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kitchenops/allergycheck/internal/menu"
)

// Stations are purely organizational. Deleting one leaves dishes tagged
// with its name untouched: the dish's station field is a name snapshot,
// not a foreign reference.

// CreateStation inserts a station at the end of the display order.
func (s *Store) CreateStation(ctx context.Context, st menu.Station) (menu.Station, error) {
	if err := validateName(st.Name); err != nil {
		return menu.Station{}, err
	}

	st.ID = newID()
	st.CreatedAt = time.Now().UTC()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, "stations", st.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return &UniquenessError{Kind: "station", Name: st.Name}
		}

		// Append after the current maximum; -1 yields 0 for an empty table.
		var maxOrder int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(display_order), -1) FROM stations`,
		).Scan(&maxOrder); err != nil {
			return fmt.Errorf("max display_order: %w", err)
		}
		st.DisplayOrder = maxOrder + 1

		_, err = tx.ExecContext(ctx, `
			INSERT INTO stations (id, name, display_order, created_at)
			VALUES (?, ?, ?, ?)
		`, st.ID, st.Name, st.DisplayOrder, formatTime(st.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert station: %w", err)
		}
		return nil
	})
	if err != nil {
		return menu.Station{}, err
	}
	return st, nil
}

// RenameStation changes a station's name. Existing dishes keep the old
// name snapshot.
func (s *Store) RenameStation(ctx context.Context, id, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := nameTaken(ctx, tx, "stations", name, id)
		if err != nil {
			return err
		}
		if taken {
			return &UniquenessError{Kind: "station", Name: name}
		}
		res, err := tx.ExecContext(ctx, `UPDATE stations SET name = ? WHERE id = ?`, name, id)
		if err != nil {
			return fmt.Errorf("rename station: %w", err)
		}
		return requireRow(res, "station", id)
	})
}

// DeleteStation removes a station. No referential check: dishes tagged
// with the station name are unaffected by design.
func (s *Store) DeleteStation(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM stations WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete station: %w", err)
		}
		return requireRow(res, "station", id)
	})
}

// ReorderStations persists a full display order in one batch: ids holds
// every station ID in the desired order. This is the persistence phase of
// the two-phase reorder; callers apply the local reorder first and surface
// a failure here distinctly.
func (s *Store) ReorderStations(ctx context.Context, ids []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i, id := range ids {
			res, err := tx.ExecContext(ctx,
				`UPDATE stations SET display_order = ? WHERE id = ?`, i, id)
			if err != nil {
				return fmt.Errorf("reorder station %s: %w", id, err)
			}
			if err := requireRow(res, "station", id); err != nil {
				return err
			}
		}
		return nil
	})
}
