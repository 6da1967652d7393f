package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kitchenops/allergycheck/internal/menu"
)

// Matrices are ephemeral until explicitly saved. SaveMatrix upserts the
// header and replaces the entire ordered dish-link set; deleting a matrix
// that was never saved is purely a caller-side concern and never reaches
// the store.

// SaveMatrix persists a matrix: upserts the header and rewrites its ordered
// dish links (delete-all-then-reinsert in one transaction). A matrix that
// has never been saved gets a fresh identity. Returns the matrix with
// ID and Saved set.
func (s *Store) SaveMatrix(ctx context.Context, m menu.Matrix) (menu.Matrix, error) {
	if err := validateName(m.Name); err != nil {
		return menu.Matrix{}, err
	}
	if m.Type != menu.MatrixStation && m.Type != menu.MatrixFeature {
		return menu.Matrix{}, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown matrix type %q", m.Type)}
	}

	if !m.Saved {
		m.ID = newID()
		m.CreatedAt = time.Now().UTC()
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO allergy_matrices (id, name, type, station, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, type = excluded.type, station = excluded.station
		`, m.ID, m.Name, string(m.Type), m.Station, formatTime(m.CreatedAt))
		if err != nil {
			return fmt.Errorf("upsert matrix: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM matrix_dishes WHERE matrix_id = ?`, m.ID); err != nil {
			return fmt.Errorf("clear matrix dishes: %w", err)
		}
		for i, dishID := range m.DishIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO matrix_dishes (matrix_id, dish_id, order_index)
				VALUES (?, ?, ?)
			`, m.ID, dishID, i); err != nil {
				return fmt.Errorf("insert matrix dish %s: %w", dishID, err)
			}
		}
		return nil
	})
	if err != nil {
		return menu.Matrix{}, err
	}

	m.Saved = true
	return m, nil
}

// DeleteMatrix removes a saved matrix and its dish links.
func (s *Store) DeleteMatrix(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM matrix_dishes WHERE matrix_id = ?`, id); err != nil {
			return fmt.Errorf("delete matrix dishes: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM allergy_matrices WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete matrix: %w", err)
		}
		return requireRow(res, "matrix", id)
	})
}

// ListMatrices returns every saved matrix with its dish IDs in persisted
// order, newest matrix first.
func (s *Store) ListMatrices(ctx context.Context) ([]menu.Matrix, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, station, created_at
		FROM allergy_matrices
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query matrices: %w", err)
	}
	defer rows.Close()

	var matrices []menu.Matrix
	for rows.Next() {
		var m menu.Matrix
		var typ, createdAt string
		if err := rows.Scan(&m.ID, &m.Name, &typ, &m.Station, &createdAt); err != nil {
			return nil, fmt.Errorf("scan matrix: %w", err)
		}
		m.Type = menu.MatrixType(typ)
		m.Saved = true
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		matrices = append(matrices, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matrices: %w", err)
	}

	for i := range matrices {
		ids, err := s.matrixDishIDs(ctx, matrices[i].ID)
		if err != nil {
			return nil, err
		}
		matrices[i].DishIDs = ids
	}

	if matrices == nil {
		matrices = []menu.Matrix{}
	}
	return matrices, nil
}

// matrixDishIDs returns the dish IDs of one matrix ordered by order_index.
func (s *Store) matrixDishIDs(ctx context.Context, matrixID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dish_id FROM matrix_dishes
		WHERE matrix_id = ?
		ORDER BY order_index ASC
	`, matrixID)
	if err != nil {
		return nil, fmt.Errorf("query matrix dishes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan matrix dish: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matrix dishes: %w", err)
	}

	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
