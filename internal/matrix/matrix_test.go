package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/allergycheck/internal/aggregate"
	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/menu"
)

func testSnapshot() *aggregate.Snapshot {
	return aggregate.NewSnapshot(
		[]menu.Ingredient{
			{ID: "peanuts", Name: "Peanuts", Allergens: []catalog.Allergen{catalog.Peanuts}},
			{ID: "noodles", Name: "Egg Noodles", Allergens: []catalog.Allergen{catalog.Eggs, catalog.Gluten}},
			{ID: "chili", Name: "Chili Oil", MayContain: []catalog.Allergen{catalog.Sesame}},
			{ID: "rice", Name: "Rice"},
		},
		nil,
		nil,
		[]menu.Dish{
			{ID: "d-padthai", Name: "Pad Thai", Station: "Wok"},
			{ID: "d-rice", Name: "plain rice", Station: "Wok"},
			{ID: "d-congee", Name: "Congee", Station: "Wok"},
			{ID: "d-burger", Name: "Burger", Station: "Grill"},
		},
		nil,
		map[string][]menu.Constituent{
			"d-padthai": {
				{Kind: menu.KindIngredient, ChildID: "peanuts"},
				{Kind: menu.KindIngredient, ChildID: "noodles"},
				{Kind: menu.KindIngredient, ChildID: "chili"},
			},
			"d-rice": {{Kind: menu.KindIngredient, ChildID: "rice"}},
			"d-congee": {{Kind: menu.KindIngredient, ChildID: "rice"}},
			"d-burger": {{Kind: menu.KindIngredient, ChildID: "noodles"}},
		},
	)
}

func TestBuildStation(t *testing.T) {
	snap := testSnapshot()

	m := BuildStation(snap, "Wok")
	assert.Equal(t, "Wok Station Matrix", m.Name)
	assert.Equal(t, menu.MatrixStation, m.Type)
	assert.Equal(t, "Wok", m.Station)
	assert.False(t, m.Saved)
	// Case-insensitive name order: the lowercase dish sorts with the rest.
	assert.Equal(t, []string{"d-congee", "d-padthai", "d-rice"}, m.DishIDs)
}

func TestBuildStation_EmptyStation(t *testing.T) {
	snap := testSnapshot()

	m := BuildStation(snap, "Pastry")
	assert.Equal(t, "Pastry Station Matrix", m.Name)
	assert.Empty(t, m.DishIDs)
}

func TestNewFeature(t *testing.T) {
	m := NewFeature("Tasting Menu")
	assert.Equal(t, menu.MatrixFeature, m.Type)
	assert.Empty(t, m.DishIDs)
	assert.False(t, m.Saved)
}

func TestAddDish(t *testing.T) {
	snap := testSnapshot()
	m := NewFeature("Tasting Menu")

	require.NoError(t, AddDish(&m, snap, "d-burger"))
	require.NoError(t, AddDish(&m, snap, "d-padthai"))
	assert.Equal(t, []string{"d-burger", "d-padthai"}, m.DishIDs)

	assert.ErrorIs(t, AddDish(&m, snap, "d-burger"), ErrDishAlreadyListed)
	assert.Error(t, AddDish(&m, snap, "ghost"))
}

func TestAddDish_StationMatrixNotEditable(t *testing.T) {
	snap := testSnapshot()
	m := BuildStation(snap, "Wok")

	assert.ErrorIs(t, AddDish(&m, snap, "d-burger"), ErrNotEditable)
	assert.ErrorIs(t, RemoveDish(&m, "d-padthai"), ErrNotEditable)
	assert.ErrorIs(t, MoveDish(&m, 0, 1), ErrNotEditable)
}

func TestRemoveDish(t *testing.T) {
	snap := testSnapshot()
	m := NewFeature("Tasting Menu")
	require.NoError(t, AddDish(&m, snap, "d-burger"))
	require.NoError(t, AddDish(&m, snap, "d-padthai"))

	require.NoError(t, RemoveDish(&m, "d-burger"))
	assert.Equal(t, []string{"d-padthai"}, m.DishIDs)

	// Unknown ID is a no-op.
	require.NoError(t, RemoveDish(&m, "ghost"))
	assert.Equal(t, []string{"d-padthai"}, m.DishIDs)
}

func TestMoveDish(t *testing.T) {
	snap := testSnapshot()
	m := NewFeature("Tasting Menu")
	for _, id := range []string{"d-burger", "d-padthai", "d-rice"} {
		require.NoError(t, AddDish(&m, snap, id))
	}

	require.NoError(t, MoveDish(&m, 0, 2))
	assert.Equal(t, []string{"d-padthai", "d-rice", "d-burger"}, m.DishIDs)

	require.NoError(t, MoveDish(&m, 2, 0))
	assert.Equal(t, []string{"d-burger", "d-padthai", "d-rice"}, m.DishIDs)

	assert.Error(t, MoveDish(&m, 0, 3))
	assert.Error(t, MoveDish(&m, -1, 0))
}

func TestRows_Marks(t *testing.T) {
	snap := testSnapshot()
	m := BuildStation(snap, "Wok")

	rows, err := Rows(snap, m)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byName := map[string]Row{}
	for _, r := range rows {
		byName[r.Name] = r
		assert.Len(t, r.Cells, len(catalog.IDs()))
	}

	padThai := byName["Pad Thai"]
	marks := map[catalog.Allergen]Mark{}
	for _, c := range padThai.Cells {
		marks[c.Allergen] = c.Mark
	}
	assert.Equal(t, MarkContains, marks[catalog.Peanuts])
	assert.Equal(t, MarkContains, marks[catalog.Eggs])
	assert.Equal(t, MarkContains, marks[catalog.Gluten])
	assert.Equal(t, MarkMayContain, marks[catalog.Sesame])
	assert.Equal(t, MarkNone, marks[catalog.Dairy])

	rice := byName["plain rice"]
	for _, c := range rice.Cells {
		assert.Equal(t, MarkNone, c.Mark, "allergen %s", c.Allergen)
	}
}

func TestRows_UnknownDish(t *testing.T) {
	snap := testSnapshot()
	m := NewFeature("Broken")
	m.DishIDs = []string{"ghost"}

	_, err := Rows(snap, m)
	assert.Error(t, err)
}
