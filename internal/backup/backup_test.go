package backup_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/allergycheck/internal/backup"
	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/matrix"
	"github.com/kitchenops/allergycheck/internal/service"
	"github.com/kitchenops/allergycheck/internal/testutil"
)

func newService(t *testing.T) *service.Service {
	t.Helper()
	return service.New(testutil.OpenStore(t), nil)
}

func TestValidate_AcceptsExport(t *testing.T) {
	svc := newService(t)
	testutil.SeedMenu(t, svc)

	doc, err := backup.Export(context.Background(), svc)
	require.NoError(t, err)
	data, err := backup.Marshal(doc)
	require.NoError(t, err)

	assert.NoError(t, backup.Validate(data))
}

func TestValidate_RejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":         `{"ingredients": [`,
		"missing sections": `{"ingredients": []}`,
		"bad item kind": `{
			"ingredients": [], "suppliers": [],
			"components": [{"name": "Sauce", "items": [{"kind": "gadget", "name": "X"}]}],
			"dishes": [], "stations": [], "matrices": [],
			"exportedAt": "2026-01-01T00:00:00Z"
		}`,
		"empty entity name": `{
			"ingredients": [{"name": "", "allergens": [], "may_contain": []}],
			"suppliers": [], "components": [], "dishes": [], "stations": [], "matrices": [],
			"exportedAt": "2026-01-01T00:00:00Z"
		}`,
		"bad matrix type": `{
			"ingredients": [], "suppliers": [], "components": [], "dishes": [], "stations": [],
			"matrices": [{"name": "M", "type": "weekly", "dishes": []}],
			"exportedAt": "2026-01-01T00:00:00Z"
		}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, backup.Validate([]byte(doc)))
		})
	}
}

func TestExport_ReferencesByName(t *testing.T) {
	svc := newService(t)
	testutil.SeedMenu(t, svc)

	doc, err := backup.Export(context.Background(), svc)
	require.NoError(t, err)

	require.Len(t, doc.Components, 2)
	// Name-sorted output.
	assert.Equal(t, "Noodle Base", doc.Components[0].Name)
	assert.Equal(t, "Pad Thai Sauce", doc.Components[1].Name)

	sauce := doc.Components[1]
	itemNames := make([]string, len(sauce.Items))
	for i, ref := range sauce.Items {
		itemNames[i] = ref.Name
	}
	assert.ElementsMatch(t, []string{"Peanuts", "Soy Sauce"}, itemNames)

	require.Len(t, doc.Dishes, 2)
	padThai := doc.Dishes[0]
	assert.Equal(t, "Pad Thai", padThai.Name)
	var removable []string
	for _, ref := range padThai.Items {
		if ref.Removable {
			removable = append(removable, ref.Name)
		}
	}
	assert.Equal(t, []string{"Chili Oil"}, removable)
}

func TestExport_JSONKeys(t *testing.T) {
	svc := newService(t)
	testutil.SeedMenu(t, svc)

	doc, err := backup.Export(context.Background(), svc)
	require.NoError(t, err)
	data, err := backup.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"ingredients", "suppliers", "components", "dishes", "stations", "matrices", "exportedAt"} {
		assert.Contains(t, raw, key)
	}
}

func TestImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newService(t)
	testutil.SeedMenu(t, src)

	// Save a matrix so it travels too.
	snapSrc, err := src.Snapshot(ctx)
	require.NoError(t, err)
	_, err = src.Store().SaveMatrix(ctx, matrix.BuildStation(snapSrc, "Wok"))
	require.NoError(t, err)

	doc, err := backup.Export(ctx, src)
	require.NoError(t, err)
	data, err := backup.Marshal(doc)
	require.NoError(t, err)

	dst := newService(t)
	stats, err := backup.Import(ctx, dst, data)
	require.NoError(t, err)
	assert.Equal(t, backup.Stats{
		Ingredients:   6,
		SupplierItems: 1,
		Components:    2,
		Dishes:        2,
		Stations:      2,
		Matrices:      1,
	}, stats)

	// Derived allergen sets were recomputed, not copied.
	snap, err := dst.Snapshot(ctx)
	require.NoError(t, err)
	for _, comp := range snap.Components {
		if comp.Name == "Pad Thai Sauce" {
			assert.Equal(t, []catalog.Allergen{catalog.Peanuts, catalog.Soy, catalog.Gluten}, comp.Allergens)
		}
	}
	for _, dish := range snap.Dishes {
		if dish.Name == "Pad Thai" {
			assert.Equal(t, []catalog.Allergen{catalog.Dairy, catalog.Eggs, catalog.Peanuts, catalog.Soy, catalog.Gluten}, dish.Allergens)
		}
	}

	// The matrix resolved its dish names to the new identities.
	matrices, err := dst.Store().ListMatrices(ctx)
	require.NoError(t, err)
	require.Len(t, matrices, 1)
	require.Len(t, matrices[0].DishIDs, 2)
	for _, id := range matrices[0].DishIDs {
		_, ok := snap.Dishes[id]
		assert.True(t, ok, "matrix dish %s missing in imported store", id)
	}

	// Stations arrive in document order.
	stations, err := dst.Store().ListStations(ctx)
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "Wok", stations[0].Name)
	assert.Equal(t, "Grill", stations[1].Name)
}

func TestImport_NestedComponentsOutOfOrder(t *testing.T) {
	ctx := context.Background()

	// The wrapper appears before its child in the file; the dependency
	// pass ordering has to sort that out.
	doc := `{
		"ingredients": [{"name": "Peanuts", "allergens": ["peanuts"], "may_contain": []}],
		"suppliers": [],
		"components": [
			{"name": "Wrapper", "items": [{"kind": "component", "name": "Base"}]},
			{"name": "Base", "items": [{"kind": "ingredient", "name": "Peanuts"}]}
		],
		"dishes": [],
		"stations": [],
		"matrices": [],
		"exportedAt": "2026-01-01T00:00:00Z"
	}`

	svc := newService(t)
	stats, err := backup.Import(ctx, svc, []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Components)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	for _, comp := range snap.Components {
		assert.Equal(t, []catalog.Allergen{catalog.Peanuts}, comp.Allergens, "component %s", comp.Name)
	}
}

func TestImport_ComponentCycleInDocument(t *testing.T) {
	doc := `{
		"ingredients": [],
		"suppliers": [],
		"components": [
			{"name": "A", "items": [{"kind": "component", "name": "B"}]},
			{"name": "B", "items": [{"kind": "component", "name": "A"}]}
		],
		"dishes": [],
		"stations": [],
		"matrices": [],
		"exportedAt": "2026-01-01T00:00:00Z"
	}`

	svc := newService(t)
	_, err := backup.Import(context.Background(), svc, []byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestImport_MissingReference(t *testing.T) {
	doc := `{
		"ingredients": [],
		"suppliers": [],
		"components": [],
		"dishes": [{"name": "Toast", "items": [{"kind": "ingredient", "name": "Bread"}]}],
		"stations": [],
		"matrices": [],
		"exportedAt": "2026-01-01T00:00:00Z"
	}`

	svc := newService(t)
	_, err := backup.Import(context.Background(), svc, []byte(doc))
	assert.Error(t, err)
}

func TestImport_InvalidDocumentWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	// Valid-looking ingredients, but the document fails schema validation
	// before any write.
	doc := `{
		"ingredients": [{"name": "Flour", "allergens": ["gluten"], "may_contain": []}],
		"suppliers": []
	}`
	_, err := backup.Import(ctx, svc, []byte(doc))
	require.Error(t, err)

	list, err := svc.Store().ListIngredients(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
