// Package backup implements the JSON import/export boundary: a single
// document carrying the full entity graph, referenced by name so it
// survives re-import into a store with fresh identities.
//
// Import validates the document shape against a CUE schema before any
// write; a malformed file touches nothing.
package backup

import (
	"fmt"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/kitchenops/allergycheck/internal/catalog"
)

// Document is the top-level export shape. Key names are part of the file
// format contract.
type Document struct {
	Ingredients []Ingredient   `json:"ingredients"`
	Suppliers   []SupplierItem `json:"suppliers"`
	Components  []Component    `json:"components"`
	Dishes      []Dish         `json:"dishes"`
	Stations    []Station      `json:"stations"`
	Matrices    []Matrix       `json:"matrices"`
	ExportedAt  time.Time      `json:"exportedAt"`
}

// Ingredient is the export form of a stored ingredient.
type Ingredient struct {
	Name         string             `json:"name"`
	Allergens    []catalog.Allergen `json:"allergens"`
	MayContain   []catalog.Allergen `json:"may_contain"`
	CrossContact bool               `json:"cross_contact,omitempty"`
}

// SupplierItem is the export form of a stored supplier item.
type SupplierItem struct {
	Name       string             `json:"name"`
	Supplier   string             `json:"supplier,omitempty"`
	Allergens  []catalog.Allergen `json:"allergens"`
	MayContain []catalog.Allergen `json:"may_contain"`
}

// ItemRef references a constituent by kind and name.
type ItemRef struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Quantity  string `json:"quantity,omitempty"`
	Removable bool   `json:"removable,omitempty"`
}

// Component is the export form of a component: constituents by name,
// derived allergens omitted (recomputed on import).
type Component struct {
	Name         string    `json:"name"`
	CrossContact bool      `json:"cross_contact,omitempty"`
	Items        []ItemRef `json:"items"`
}

// Dish is the export form of a dish.
type Dish struct {
	Name    string    `json:"name"`
	Station string    `json:"station,omitempty"`
	Items   []ItemRef `json:"items"`
}

// Station is the export form of a station; order in the document is the
// display order.
type Station struct {
	Name string `json:"name"`
}

// Matrix is the export form of a saved matrix: dishes by name, in order.
type Matrix struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Station string   `json:"station,omitempty"`
	Dishes  []string `json:"dishes"`
}

// documentSchema constrains the document shape. Allergen identifiers are
// checked against the catalog separately by the store's create APIs.
const documentSchema = `
#ItemRef: {
	kind:       "ingredient" | "supplier_item" | "component"
	name:       string & !=""
	quantity?:  string
	removable?: bool
}

#Document: {
	ingredients: [...{
		name:           string & !=""
		allergens:      [...string]
		may_contain:    [...string]
		cross_contact?: bool
	}]
	suppliers: [...{
		name:        string & !=""
		supplier?:   string
		allergens:   [...string]
		may_contain: [...string]
	}]
	components: [...{
		name:           string & !=""
		cross_contact?: bool
		items:          [...#ItemRef]
	}]
	dishes: [...{
		name:     string & !=""
		station?: string
		items:    [...#ItemRef]
	}]
	stations: [...{
		name: string & !=""
	}]
	matrices: [...{
		name:     string & !=""
		type:     "station" | "feature"
		station?: string
		dishes:   [...string]
	}]
	exportedAt: string
}
`

// Validate checks raw JSON against the document schema without touching
// any store state.
func Validate(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(documentSchema).LookupPath(cue.ParsePath("#Document"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile document schema: %w", err)
	}

	expr, err := cuejson.Extract("backup.json", data)
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	value := ctx.BuildExpr(expr)
	if err := value.Err(); err != nil {
		return fmt.Errorf("build document value: %w", err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}
