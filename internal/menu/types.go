// Package menu defines the entity types shared by the store, the
// aggregation engine, the decision engine, and the matrix builder.
//
// The store exclusively owns persisted records of these types; the engines
// only ever read them. Derived fields (Component.Allergens, Dish.Allergens)
// are recomputed by the aggregation engine at save time and are never edited
// directly.
package menu

import (
	"time"

	"github.com/kitchenops/allergycheck/internal/catalog"
)

// ItemKind identifies the type of a constituent reference.
type ItemKind string

const (
	KindIngredient   ItemKind = "ingredient"
	KindSupplierItem ItemKind = "supplier_item"
	KindComponent    ItemKind = "component"
)

// Ingredient is a raw kitchen ingredient with staff-entered allergen tags.
type Ingredient struct {
	ID         string
	Name       string
	Allergens  []catalog.Allergen // definite presence
	MayContain []catalog.Allergen // trace / cross-contact possibility
	// CrossContact flags shared-equipment risk independent of composition.
	CrossContact bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SupplierItem is a pre-made item bought from a supplier.
// Cross-contact is not tracked at this granularity.
type SupplierItem struct {
	ID         string
	Name       string
	Supplier   string
	Allergens  []catalog.Allergen
	MayContain []catalog.Allergen
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Component is a reusable prep item built from constituents.
//
// Allergens is derived: the flattened union of the constituents' allergen
// sets, recomputed every time the constituent set changes. CrossContact is
// staff-entered and independent of the children.
type Component struct {
	ID           string
	Name         string
	Allergens    []catalog.Allergen // derived, never user-entered
	CrossContact bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Dish is a menu dish assembled from constituents.
// Allergens is derived exactly as for components.
type Dish struct {
	ID        string
	Name      string
	Station   string // free-text label, a name snapshot of a Station
	Allergens []catalog.Allergen
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Station is a purely organizational kitchen station.
// Deleting a station does not touch dishes tagged with its name.
type Station struct {
	ID           string
	Name         string
	DisplayOrder int
	CreatedAt    time.Time
}

// Constituent is one edge of the composition graph: a typed reference from
// a component or dish to a child item.
//
// Removable is meaningful on dish-level edges only. Quantity is a free-text
// annotation with no allergen semantics.
type Constituent struct {
	Kind      ItemKind
	ChildID   string
	Quantity  string
	Removable bool
}

// DishItem is a dish constituent resolved for assessment: the child's own
// allergen data plus the dish-level removable flag.
//
// Supplier items always carry CrossContact=false, and components contribute
// their flattened Allergens with an empty MayContain (component-level trace
// risk is not modeled).
type DishItem struct {
	ID           string
	Name         string
	Kind         ItemKind
	Allergens    []catalog.Allergen
	MayContain   []catalog.Allergen
	CrossContact bool
	Removable    bool
}

// MatrixType distinguishes the two matrix flavors.
type MatrixType string

const (
	// MatrixStation is auto-populated with every dish on one station and
	// regenerated on demand; its dish list is not hand-editable.
	MatrixStation MatrixType = "station"
	// MatrixFeature starts empty and is curated dish by dish.
	MatrixFeature MatrixType = "feature"
)

// Matrix is a named, ordered reference table of dishes.
//
// A matrix is ephemeral until Saved is set by an explicit save; unsaved
// matrices exist only in memory.
type Matrix struct {
	ID        string
	Name      string
	Type      MatrixType
	Station   string // set when Type == MatrixStation
	DishIDs   []string
	Saved     bool
	CreatedAt time.Time
}
