// Package matrix assembles ordered reference tables of dishes against the
// allergen catalog, for printing and service reference.
//
// A station matrix is auto-populated with every dish on one station and is
// regenerated, never hand-edited. A feature matrix starts empty and is
// curated dish by dish; position is meaningful and persisted. Cell values
// reuse the aggregation engine's contains/may-contain semantics.
package matrix

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kitchenops/allergycheck/internal/aggregate"
	"github.com/kitchenops/allergycheck/internal/menu"
)

// ErrNotEditable is returned for add/remove/move on a station matrix:
// its dish list is derived from the station, not curated.
var ErrNotEditable = errors.New("station matrices are regenerated, not edited")

// ErrDishAlreadyListed is returned when adding a dish a matrix already holds.
var ErrDishAlreadyListed = errors.New("dish already in matrix")

// collator orders dish names case-insensitively for station matrices.
var collator = collate.New(language.English, collate.IgnoreCase)

// BuildStation assembles a station matrix: every dish whose station label
// equals the chosen station name, in collated name order. The result is
// unsaved; regenerate on demand rather than editing.
func BuildStation(snap *aggregate.Snapshot, station string) menu.Matrix {
	var dishes []menu.Dish
	for _, d := range snap.Dishes {
		if d.Station == station {
			dishes = append(dishes, d)
		}
	}
	sort.SliceStable(dishes, func(i, j int) bool {
		if c := collator.CompareString(dishes[i].Name, dishes[j].Name); c != 0 {
			return c < 0
		}
		return dishes[i].ID < dishes[j].ID
	})

	ids := make([]string, len(dishes))
	for i, d := range dishes {
		ids[i] = d.ID
	}

	return menu.Matrix{
		Name:    fmt.Sprintf("%s Station Matrix", station),
		Type:    menu.MatrixStation,
		Station: station,
		DishIDs: ids,
	}
}

// NewFeature creates an empty custom matrix. Dishes are added one at a time.
func NewFeature(name string) menu.Matrix {
	return menu.Matrix{
		Name:    name,
		Type:    menu.MatrixFeature,
		DishIDs: []string{},
	}
}

// AddDish appends a dish to a feature matrix.
func AddDish(m *menu.Matrix, snap *aggregate.Snapshot, dishID string) error {
	if m.Type == menu.MatrixStation {
		return ErrNotEditable
	}
	if _, ok := snap.Dishes[dishID]; !ok {
		return fmt.Errorf("dish %s: not in snapshot", dishID)
	}
	for _, id := range m.DishIDs {
		if id == dishID {
			return ErrDishAlreadyListed
		}
	}
	m.DishIDs = append(m.DishIDs, dishID)
	return nil
}

// RemoveDish drops a dish from a feature matrix. Unknown IDs are a no-op.
func RemoveDish(m *menu.Matrix, dishID string) error {
	if m.Type == menu.MatrixStation {
		return ErrNotEditable
	}
	out := m.DishIDs[:0]
	for _, id := range m.DishIDs {
		if id != dishID {
			out = append(out, id)
		}
	}
	m.DishIDs = out
	return nil
}

// MoveDish moves the dish at position from to position to, shifting the
// rest. This is the local phase of the two-phase drag-reorder; persistence
// happens separately on save.
func MoveDish(m *menu.Matrix, from, to int) error {
	if m.Type == menu.MatrixStation {
		return ErrNotEditable
	}
	if from < 0 || from >= len(m.DishIDs) || to < 0 || to >= len(m.DishIDs) {
		return fmt.Errorf("move dish: position out of range (from=%d, to=%d, len=%d)", from, to, len(m.DishIDs))
	}
	id := m.DishIDs[from]
	rest := append(append([]string{}, m.DishIDs[:from]...), m.DishIDs[from+1:]...)
	m.DishIDs = append(append(append([]string{}, rest[:to]...), id), rest[to:]...)
	return nil
}
