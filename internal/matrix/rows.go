package matrix

import (
	"fmt"

	"github.com/kitchenops/allergycheck/internal/aggregate"
	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/menu"
)

// Mark is one cell of the rendered matrix.
type Mark string

const (
	MarkContains   Mark = "contains"
	MarkMayContain Mark = "may_contain"
	MarkNone       Mark = ""
)

// Cell pairs an allergen column with its mark.
type Cell struct {
	Allergen catalog.Allergen `json:"allergen"`
	Mark     Mark             `json:"mark,omitempty"`
}

// Row is one dish line of the matrix: the dish plus a cell for every
// allergen catalog column, in catalog display order.
type Row struct {
	DishID  string `json:"dish_id"`
	Name    string `json:"name"`
	Station string `json:"station,omitempty"`
	Cells   []Cell `json:"cells"`
}

// Rows renders the matrix against a snapshot: one row per listed dish, in
// matrix order, each cell marked Contains, MayContain, or blank using the
// aggregation engine's semantics (definite presence subsumes trace risk).
func Rows(snap *aggregate.Snapshot, m menu.Matrix) ([]Row, error) {
	rows := make([]Row, 0, len(m.DishIDs))
	for _, dishID := range m.DishIDs {
		dish, ok := snap.Dishes[dishID]
		if !ok {
			return nil, fmt.Errorf("matrix %q: dish %s not in snapshot", m.Name, dishID)
		}

		contains, err := snap.DishContains(dishID)
		if err != nil {
			return nil, fmt.Errorf("matrix %q: %w", m.Name, err)
		}
		mayContain, err := snap.DishMayContain(dishID)
		if err != nil {
			return nil, fmt.Errorf("matrix %q: %w", m.Name, err)
		}

		row := Row{
			DishID:  dish.ID,
			Name:    dish.Name,
			Station: dish.Station,
			Cells:   make([]Cell, 0, len(catalog.IDs())),
		}
		for _, a := range catalog.IDs() {
			cell := Cell{Allergen: a}
			switch {
			case contains.Has(a):
				cell.Mark = MarkContains
			case mayContain.Has(a):
				cell.Mark = MarkMayContain
			}
			row.Cells = append(row.Cells, cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
