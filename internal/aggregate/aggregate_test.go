package aggregate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/menu"
)

// buildSnapshot assembles a small graph used across the tests:
//
//	sauce   = peanuts + soy sauce            -> {peanuts, soy, gluten}
//	base    = egg noodles + butter           -> {eggs, gluten, dairy}
//	padthai = base + sauce + chili (ingr.)   -> union of the above
func buildSnapshot() *Snapshot {
	return NewSnapshot(
		[]menu.Ingredient{
			{ID: "peanuts", Name: "Peanuts", Allergens: []catalog.Allergen{catalog.Peanuts}, CrossContact: true},
			{ID: "noodles", Name: "Egg Noodles", Allergens: []catalog.Allergen{catalog.Eggs, catalog.Gluten}},
			{ID: "butter", Name: "Butter", Allergens: []catalog.Allergen{catalog.Dairy}},
			{ID: "chili", Name: "Chili Oil", MayContain: []catalog.Allergen{catalog.Peanuts, catalog.Sesame}},
			{ID: "rice", Name: "Rice"},
		},
		[]menu.SupplierItem{
			{ID: "soysauce", Name: "Soy Sauce", Allergens: []catalog.Allergen{catalog.Soy, catalog.Gluten}, MayContain: []catalog.Allergen{catalog.Fish}},
		},
		[]menu.Component{
			{ID: "sauce", Name: "Pad Thai Sauce"},
			{ID: "base", Name: "Noodle Base"},
		},
		[]menu.Dish{
			{ID: "padthai", Name: "Pad Thai", Station: "Wok"},
			{ID: "plainrice", Name: "Plain Rice", Station: "Wok"},
		},
		map[string][]menu.Constituent{
			"sauce": {
				{Kind: menu.KindIngredient, ChildID: "peanuts"},
				{Kind: menu.KindSupplierItem, ChildID: "soysauce"},
			},
			"base": {
				{Kind: menu.KindIngredient, ChildID: "noodles"},
				{Kind: menu.KindIngredient, ChildID: "butter"},
			},
		},
		map[string][]menu.Constituent{
			"padthai": {
				{Kind: menu.KindComponent, ChildID: "base"},
				{Kind: menu.KindComponent, ChildID: "sauce"},
				{Kind: menu.KindIngredient, ChildID: "chili", Removable: true},
			},
			"plainrice": {
				{Kind: menu.KindIngredient, ChildID: "rice"},
			},
		},
	)
}

func TestComponentContains_Union(t *testing.T) {
	snap := buildSnapshot()

	got, err := snap.ComponentContains("sauce")
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]catalog.Allergen{catalog.Peanuts, catalog.Soy, catalog.Gluten},
		got.Sorted())
}

func TestComponentContains_Nested(t *testing.T) {
	snap := buildSnapshot()
	snap.Components["wrapped"] = menu.Component{ID: "wrapped", Name: "Wrapped Sauce"}
	snap.ComponentItems["wrapped"] = []menu.Constituent{
		{Kind: menu.KindComponent, ChildID: "sauce"},
		{Kind: menu.KindIngredient, ChildID: "butter"},
	}

	got, err := snap.ComponentContains("wrapped")
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]catalog.Allergen{catalog.Peanuts, catalog.Soy, catalog.Gluten, catalog.Dairy},
		got.Sorted())
}

func TestComponentContains_Empty(t *testing.T) {
	snap := buildSnapshot()
	snap.Components["bare"] = menu.Component{ID: "bare", Name: "Bare"}

	got, err := snap.ComponentContains("bare")
	require.NoError(t, err)
	assert.Empty(t, got.Sorted())
}

func TestComponentContains_UnknownComponent(t *testing.T) {
	snap := buildSnapshot()

	_, err := snap.ComponentContains("nope")
	var refErr *UnknownRefError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "nope", refErr.ChildID)
}

func TestComponentContains_DanglingConstituent(t *testing.T) {
	snap := buildSnapshot()
	snap.ComponentItems["sauce"] = append(snap.ComponentItems["sauce"],
		menu.Constituent{Kind: menu.KindIngredient, ChildID: "ghost"})

	_, err := snap.ComponentContains("sauce")
	var refErr *UnknownRefError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "ghost", refErr.ChildID)
}

func TestComponentContains_Idempotent(t *testing.T) {
	snap := buildSnapshot()

	first, err := snap.ComponentContains("base")
	require.NoError(t, err)
	second, err := snap.ComponentContains("base")
	require.NoError(t, err)
	assert.Equal(t, first.Sorted(), second.Sorted())
}

func TestComponentContains_SelfCycle(t *testing.T) {
	snap := buildSnapshot()
	snap.ComponentItems["sauce"] = []menu.Constituent{
		{Kind: menu.KindComponent, ChildID: "sauce"},
	}

	_, err := snap.ComponentContains("sauce")
	require.True(t, IsCycleError(err), "expected CycleError, got %v", err)

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, "sauce", cycleErr.ComponentID)
	assert.Equal(t, []string{"sauce", "sauce"}, cycleErr.Path)
}

func TestComponentContains_IndirectCycle(t *testing.T) {
	snap := buildSnapshot()
	snap.Components["a"] = menu.Component{ID: "a"}
	snap.Components["b"] = menu.Component{ID: "b"}
	snap.Components["c"] = menu.Component{ID: "c"}
	snap.ComponentItems["a"] = []menu.Constituent{{Kind: menu.KindComponent, ChildID: "b"}}
	snap.ComponentItems["b"] = []menu.Constituent{{Kind: menu.KindComponent, ChildID: "c"}}
	snap.ComponentItems["c"] = []menu.Constituent{{Kind: menu.KindComponent, ChildID: "a"}}

	_, err := snap.ComponentContains("a")
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, "a", cycleErr.ComponentID)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycleErr.Path)
}

func TestComponentContains_SharedChildIsNotACycle(t *testing.T) {
	// Diamond: both arms reach the same child. Legal, must not trip the
	// cycle guard.
	snap := buildSnapshot()
	snap.Components["left"] = menu.Component{ID: "left"}
	snap.Components["right"] = menu.Component{ID: "right"}
	snap.Components["top"] = menu.Component{ID: "top"}
	snap.ComponentItems["left"] = []menu.Constituent{{Kind: menu.KindComponent, ChildID: "sauce"}}
	snap.ComponentItems["right"] = []menu.Constituent{{Kind: menu.KindComponent, ChildID: "sauce"}}
	snap.ComponentItems["top"] = []menu.Constituent{
		{Kind: menu.KindComponent, ChildID: "left"},
		{Kind: menu.KindComponent, ChildID: "right"},
	}

	got, err := snap.ComponentContains("top")
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]catalog.Allergen{catalog.Peanuts, catalog.Soy, catalog.Gluten},
		got.Sorted())
}

func TestDishContains_FlattensComponents(t *testing.T) {
	snap := buildSnapshot()

	got, err := snap.DishContains("padthai")
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]catalog.Allergen{catalog.Peanuts, catalog.Soy, catalog.Gluten, catalog.Eggs, catalog.Dairy},
		got.Sorted())
}

func TestDishContains_SupersetOfEachComponent(t *testing.T) {
	snap := buildSnapshot()

	dish, err := snap.DishContains("padthai")
	require.NoError(t, err)
	for _, compID := range []string{"sauce", "base"} {
		comp, err := snap.ComponentContains(compID)
		require.NoError(t, err)
		for a := range comp {
			assert.True(t, dish.Has(a), "dish missing %s from component %s", a, compID)
		}
	}
}

func TestDishContains_UnknownDish(t *testing.T) {
	snap := buildSnapshot()
	_, err := snap.DishContains("nope")
	var refErr *UnknownRefError
	require.ErrorAs(t, err, &refErr)
}

func TestDishMayContain_SubsumedByContains(t *testing.T) {
	snap := buildSnapshot()

	// Chili oil may contain peanuts and sesame; the dish definitely
	// contains peanuts via the sauce, so only sesame survives. The soy
	// sauce's fish trace does not propagate: it enters through a
	// component, and components do not carry MayContain upward.
	got, err := snap.DishMayContain("padthai")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Allergen{catalog.Sesame}, got.Sorted())
}

func TestDishMayContain_DirectSupplierItem(t *testing.T) {
	snap := buildSnapshot()
	snap.Dishes["broth"] = menu.Dish{ID: "broth", Name: "Broth"}
	snap.DishItems["broth"] = []menu.Constituent{
		{Kind: menu.KindSupplierItem, ChildID: "soysauce"},
	}

	got, err := snap.DishMayContain("broth")
	require.NoError(t, err)
	assert.Equal(t, []catalog.Allergen{catalog.Fish}, got.Sorted())
}

func TestDishMayContain_Empty(t *testing.T) {
	snap := buildSnapshot()

	got, err := snap.DishMayContain("plainrice")
	require.NoError(t, err)
	assert.Empty(t, got.Sorted())
}

func TestDishMayContain_PropagatesCycleError(t *testing.T) {
	snap := buildSnapshot()
	snap.ComponentItems["sauce"] = []menu.Constituent{
		{Kind: menu.KindComponent, ChildID: "sauce"},
	}

	_, err := snap.DishMayContain("padthai")
	assert.True(t, IsCycleError(err))
}

func TestResolveDishItems(t *testing.T) {
	snap := buildSnapshot()
	// Components carry their persisted flattened set in this path.
	sauce := snap.Components["sauce"]
	sauce.Allergens = []catalog.Allergen{catalog.Peanuts, catalog.Soy, catalog.Gluten}
	snap.Components["sauce"] = sauce

	items, err := snap.ResolveDishItems("padthai")
	require.NoError(t, err)
	require.Len(t, items, 3)

	byName := map[string]menu.DishItem{}
	for _, item := range items {
		byName[item.Name] = item
	}

	sauceItem := byName["Pad Thai Sauce"]
	assert.Equal(t, menu.KindComponent, sauceItem.Kind)
	assert.ElementsMatch(t, []catalog.Allergen{catalog.Peanuts, catalog.Soy, catalog.Gluten}, sauceItem.Allergens)
	assert.Empty(t, sauceItem.MayContain, "components must not expose MayContain")

	chili := byName["Chili Oil"]
	assert.True(t, chili.Removable)
	assert.ElementsMatch(t, []catalog.Allergen{catalog.Peanuts, catalog.Sesame}, chili.MayContain)
}

func TestResolveDishItems_SupplierItemHasNoCrossContact(t *testing.T) {
	snap := buildSnapshot()
	snap.Dishes["broth"] = menu.Dish{ID: "broth", Name: "Broth"}
	snap.DishItems["broth"] = []menu.Constituent{
		{Kind: menu.KindSupplierItem, ChildID: "soysauce"},
	}

	items, err := snap.ResolveDishItems("broth")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].CrossContact)
}

func TestNameOf(t *testing.T) {
	snap := buildSnapshot()

	name, ok := snap.NameOf(menu.KindIngredient, "butter")
	require.True(t, ok)
	assert.Equal(t, "Butter", name)

	name, ok = snap.NameOf(menu.KindSupplierItem, "soysauce")
	require.True(t, ok)
	assert.Equal(t, "Soy Sauce", name)

	name, ok = snap.NameOf(menu.KindComponent, "base")
	require.True(t, ok)
	assert.Equal(t, "Noodle Base", name)

	_, ok = snap.NameOf(menu.KindIngredient, "soysauce")
	assert.False(t, ok, "kind and ID namespace must not cross")
}

func TestCycleError_Message(t *testing.T) {
	err := &CycleError{ComponentID: "a", Path: []string{"a", "b", "a"}}
	assert.Contains(t, err.Error(), "CYCLE_DETECTED")
	assert.Contains(t, err.Error(), "a -> b -> a")
	assert.False(t, IsCycleError(errors.New("other")))
}
