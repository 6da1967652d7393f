// Package testutil provides store and menu fixtures shared by tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/menu"
	"github.com/kitchenops/allergycheck/internal/service"
	"github.com/kitchenops/allergycheck/internal/store"
)

// OpenStore opens a fresh SQLite store in a temp directory and closes it
// when the test ends.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Menu holds the IDs of the seeded fixture menu.
type Menu struct {
	Flour      string // ingredient: gluten
	Butter     string // ingredient: dairy
	Peanuts    string // ingredient: peanuts, prepped on shared equipment
	EggNoodles string // ingredient: eggs + gluten
	ChiliOil   string // ingredient: no allergens, may contain sesame
	Rice       string // ingredient: no allergens

	SoySauce string // supplier item: soy + gluten

	PadThaiSauce string // component: Peanuts + SoySauce
	NoodleBase   string // component: EggNoodles + Butter

	PadThai   string // dish @ Wok: NoodleBase + PadThaiSauce + ChiliOil (removable)
	PlainRice string // dish @ Wok: Rice

	WokStation   string
	GrillStation string
}

// SeedMenu populates a store with a small but representative menu through
// the service layer, so derived allergen sets are persisted the same way
// production saves persist them.
func SeedMenu(t *testing.T, svc *service.Service) Menu {
	t.Helper()
	ctx := context.Background()
	st := svc.Store()
	var m Menu

	ing := func(i menu.Ingredient) string {
		created, err := st.CreateIngredient(ctx, i)
		if err != nil {
			t.Fatalf("CreateIngredient(%q) failed: %v", i.Name, err)
		}
		return created.ID
	}
	m.Flour = ing(menu.Ingredient{Name: "Flour", Allergens: []catalog.Allergen{catalog.Gluten}})
	m.Butter = ing(menu.Ingredient{Name: "Butter", Allergens: []catalog.Allergen{catalog.Dairy}})
	m.Peanuts = ing(menu.Ingredient{Name: "Peanuts", Allergens: []catalog.Allergen{catalog.Peanuts}, CrossContact: true})
	m.EggNoodles = ing(menu.Ingredient{Name: "Egg Noodles", Allergens: []catalog.Allergen{catalog.Eggs, catalog.Gluten}})
	m.ChiliOil = ing(menu.Ingredient{Name: "Chili Oil", MayContain: []catalog.Allergen{catalog.Sesame}})
	m.Rice = ing(menu.Ingredient{Name: "Rice"})

	soy, err := st.CreateSupplierItem(ctx, menu.SupplierItem{
		Name:      "Soy Sauce",
		Supplier:  "Golden Lion Trading",
		Allergens: []catalog.Allergen{catalog.Soy, catalog.Gluten},
	})
	if err != nil {
		t.Fatalf("CreateSupplierItem failed: %v", err)
	}
	m.SoySauce = soy.ID

	comp := func(name string, crossContact bool, items []menu.Constituent) string {
		created, err := svc.SaveComponent(ctx, menu.Component{Name: name, CrossContact: crossContact}, items)
		if err != nil {
			t.Fatalf("SaveComponent(%q) failed: %v", name, err)
		}
		return created.ID
	}
	m.PadThaiSauce = comp("Pad Thai Sauce", false, []menu.Constituent{
		{Kind: menu.KindIngredient, ChildID: m.Peanuts, Quantity: "100g"},
		{Kind: menu.KindSupplierItem, ChildID: m.SoySauce, Quantity: "50ml"},
	})
	m.NoodleBase = comp("Noodle Base", false, []menu.Constituent{
		{Kind: menu.KindIngredient, ChildID: m.EggNoodles},
		{Kind: menu.KindIngredient, ChildID: m.Butter},
	})

	dish := func(name, station string, items []menu.Constituent) string {
		created, err := svc.SaveDish(ctx, menu.Dish{Name: name, Station: station}, items)
		if err != nil {
			t.Fatalf("SaveDish(%q) failed: %v", name, err)
		}
		return created.ID
	}
	m.PadThai = dish("Pad Thai", "Wok", []menu.Constituent{
		{Kind: menu.KindComponent, ChildID: m.NoodleBase},
		{Kind: menu.KindComponent, ChildID: m.PadThaiSauce},
		{Kind: menu.KindIngredient, ChildID: m.ChiliOil, Removable: true},
	})
	m.PlainRice = dish("Plain Rice", "Wok", []menu.Constituent{
		{Kind: menu.KindIngredient, ChildID: m.Rice},
	})

	station := func(name string) string {
		created, err := st.CreateStation(ctx, menu.Station{Name: name})
		if err != nil {
			t.Fatalf("CreateStation(%q) failed: %v", name, err)
		}
		return created.ID
	}
	m.WokStation = station("Wok")
	m.GrillStation = station("Grill")

	return m
}
