package assess

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/menu"
)

func item(name string, opts func(*menu.DishItem)) menu.DishItem {
	it := menu.DishItem{ID: name, Name: name, Kind: menu.KindIngredient}
	if opts != nil {
		opts(&it)
	}
	return it
}

func TestAssess_EmptySelection(t *testing.T) {
	items := []menu.DishItem{
		item("peanut butter", func(it *menu.DishItem) {
			it.Allergens = []catalog.Allergen{catalog.Peanuts}
		}),
	}

	got := Assess(items, nil, SeverityAnaphylactic, true)
	assert.Equal(t, VerdictOK, got.Verdict)
	assert.Empty(t, got.Triggers)
	assert.Empty(t, got.Warnings)
}

func TestAssess_NoOverlap(t *testing.T) {
	items := []menu.DishItem{
		item("butter", func(it *menu.DishItem) {
			it.Allergens = []catalog.Allergen{catalog.Dairy}
		}),
	}

	got := Assess(items, []catalog.Allergen{catalog.Shellfish}, SeverityModerate, false)
	assert.Equal(t, VerdictOK, got.Verdict)
}

func TestAssess_Anaphylactic_TraceTriggers(t *testing.T) {
	items := []menu.DishItem{
		item("chili oil", func(it *menu.DishItem) {
			it.MayContain = []catalog.Allergen{catalog.Peanuts}
		}),
	}

	got := Assess(items, []catalog.Allergen{catalog.Peanuts}, SeverityAnaphylactic, false)
	assert.Equal(t, VerdictNotOK, got.Verdict)
	require.Len(t, got.Triggers, 1)
	assert.Equal(t, []Hit{{Allergen: catalog.Peanuts, Channel: ChannelMayContain}}, got.Triggers[0].Hits)
}

func TestAssess_Anaphylactic_CrossContactTriggers(t *testing.T) {
	// The fryer item carries no selected allergen itself but is prepped on
	// shared equipment. At the anaphylactic tier that alone triggers.
	items := []menu.DishItem{
		item("fries", func(it *menu.DishItem) {
			it.CrossContact = true
		}),
	}

	got := Assess(items, []catalog.Allergen{catalog.Gluten}, SeverityAnaphylactic, false)
	assert.Equal(t, VerdictNotOK, got.Verdict)
	require.Len(t, got.Triggers, 1)
	assert.Equal(t, []Hit{{Channel: ChannelCrossContact}}, got.Triggers[0].Hits)
}

func TestAssess_Moderate_TraceWarnsOnly(t *testing.T) {
	items := []menu.DishItem{
		item("chili oil", func(it *menu.DishItem) {
			it.MayContain = []catalog.Allergen{catalog.Peanuts}
		}),
	}

	got := Assess(items, []catalog.Allergen{catalog.Peanuts}, SeverityModerate, false)
	assert.Equal(t, VerdictWarning, got.Verdict)
	assert.Empty(t, got.Triggers)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, []Hit{{Allergen: catalog.Peanuts, Channel: ChannelMayContain}}, got.Warnings[0].Hits)
}

func TestAssess_Moderate_DirectAndCrossContactTrigger(t *testing.T) {
	items := []menu.DishItem{
		item("peanut sauce", func(it *menu.DishItem) {
			it.Allergens = []catalog.Allergen{catalog.Peanuts}
		}),
		item("fries", func(it *menu.DishItem) {
			it.CrossContact = true
		}),
	}

	got := Assess(items, []catalog.Allergen{catalog.Peanuts}, SeverityModerate, false)
	assert.Equal(t, VerdictNotOK, got.Verdict)
	assert.Len(t, got.Triggers, 2)
}

func TestAssess_Preference_DirectOnly(t *testing.T) {
	items := []menu.DishItem{
		item("chili oil", func(it *menu.DishItem) {
			it.MayContain = []catalog.Allergen{catalog.Peanuts}
		}),
		item("fries", func(it *menu.DishItem) {
			it.CrossContact = true
		}),
	}

	got := Assess(items, []catalog.Allergen{catalog.Peanuts}, SeverityPreference, true)
	assert.Equal(t, VerdictOK, got.Verdict)
	assert.Empty(t, got.Triggers)
	assert.Empty(t, got.Warnings)
}

func TestAssess_AllTriggersRemovable_Modify(t *testing.T) {
	items := []menu.DishItem{
		item("peanut garnish", func(it *menu.DishItem) {
			it.Allergens = []catalog.Allergen{catalog.Peanuts}
			it.Removable = true
		}),
		item("rice", nil),
	}

	got := Assess(items, []catalog.Allergen{catalog.Peanuts}, SeverityModerate, false)
	assert.Equal(t, VerdictModify, got.Verdict)
	require.Len(t, got.Removals, 1)
	assert.Equal(t, "peanut garnish", got.Removals[0].Name)
}

func TestAssess_AnyNonRemovableTrigger_NotOK(t *testing.T) {
	items := []menu.DishItem{
		item("peanut garnish", func(it *menu.DishItem) {
			it.Allergens = []catalog.Allergen{catalog.Peanuts}
			it.Removable = true
		}),
		item("peanut sauce base", func(it *menu.DishItem) {
			it.Allergens = []catalog.Allergen{catalog.Peanuts}
		}),
	}

	got := Assess(items, []catalog.Allergen{catalog.Peanuts}, SeverityModerate, false)
	assert.Equal(t, VerdictNotOK, got.Verdict)
	assert.Empty(t, got.Removals)
}

func TestAssess_HitsInCatalogOrder(t *testing.T) {
	items := []menu.DishItem{
		item("everything bagel", func(it *menu.DishItem) {
			it.Allergens = []catalog.Allergen{catalog.Sesame, catalog.Dairy, catalog.Gluten}
		}),
	}

	got := Assess(items, []catalog.Allergen{catalog.Sesame, catalog.Gluten, catalog.Dairy}, SeverityModerate, false)
	require.Len(t, got.Triggers, 1)
	assert.Equal(t, []Hit{
		{Allergen: catalog.Dairy, Channel: ChannelContains},
		{Allergen: catalog.Gluten, Channel: ChannelContains},
		{Allergen: catalog.Sesame, Channel: ChannelContains},
	}, got.Triggers[0].Hits)
}

func TestAssess_CrossContactConcernEchoed(t *testing.T) {
	got := Assess(nil, []catalog.Allergen{catalog.Dairy}, SeverityModerate, true)
	assert.True(t, got.CrossContactConcern)
	assert.Equal(t, VerdictOK, got.Verdict)
}

func TestSeverity_Valid(t *testing.T) {
	for _, s := range []Severity{SeverityAnaphylactic, SeverityModerate, SeverityPreference} {
		assert.True(t, s.Valid(), "severity %q", s)
	}
	assert.False(t, Severity("mild").Valid())
	assert.False(t, Severity("").Valid())
}

// verdictRank orders verdicts from safest to most restrictive.
func verdictRank(v Verdict) int {
	switch v {
	case VerdictOK:
		return 0
	case VerdictWarning:
		return 1
	case VerdictModify:
		return 2
	default:
		return 3
	}
}

// TestAssess_SeverityMonotonic checks that a stricter tier never produces a
// safer verdict than a looser one, over a seeded spread of random dishes.
func TestAssess_SeverityMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := catalog.IDs()

	randomAllergens := func() []catalog.Allergen {
		var out []catalog.Allergen
		for _, a := range ids {
			if rng.Intn(6) == 0 {
				out = append(out, a)
			}
		}
		return out
	}

	for trial := 0; trial < 500; trial++ {
		n := 1 + rng.Intn(5)
		items := make([]menu.DishItem, 0, n)
		for i := 0; i < n; i++ {
			items = append(items, menu.DishItem{
				ID:           string(rune('a' + i)),
				Name:         string(rune('a' + i)),
				Kind:         menu.KindIngredient,
				Allergens:    randomAllergens(),
				MayContain:   randomAllergens(),
				CrossContact: rng.Intn(4) == 0,
				Removable:    rng.Intn(3) == 0,
			})
		}
		selected := randomAllergens()
		if len(selected) == 0 {
			selected = []catalog.Allergen{ids[rng.Intn(len(ids))]}
		}

		pref := Assess(items, selected, SeverityPreference, false)
		mod := Assess(items, selected, SeverityModerate, false)
		ana := Assess(items, selected, SeverityAnaphylactic, false)

		require.LessOrEqual(t, verdictRank(pref.Verdict), verdictRank(mod.Verdict),
			"trial %d: preference %s stricter than moderate %s", trial, pref.Verdict, mod.Verdict)
		require.LessOrEqual(t, verdictRank(mod.Verdict), verdictRank(ana.Verdict),
			"trial %d: moderate %s stricter than anaphylactic %s", trial, mod.Verdict, ana.Verdict)
	}
}
