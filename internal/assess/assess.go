// Package assess classifies whether a dish can be served to a guest with
// declared allergies.
//
// Assessment is a pure query: given the dish's resolved items, the guest's
// selected allergens, a severity tier, and a cross-contact concern flag, it
// produces a verdict plus the evidence behind it. No stored state is read or
// written.
package assess

import (
	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/menu"
)

// Severity is the guest-declared sensitivity tier. It controls how
// conservatively item triggers are evaluated.
type Severity string

const (
	// SeverityAnaphylactic is the most conservative tier: trace risk and
	// shared-equipment risk both count as full triggers.
	SeverityAnaphylactic Severity = "anaphylactic"
	// SeverityModerate treats direct hits and cross-contact as triggers;
	// may-contain-only items become warnings rather than triggers.
	SeverityModerate Severity = "moderate"
	// SeverityPreference considers direct allergen hits only.
	SeverityPreference Severity = "preference"
)

// Valid reports whether s is a known severity tier.
func (s Severity) Valid() bool {
	switch s {
	case SeverityAnaphylactic, SeverityModerate, SeverityPreference:
		return true
	}
	return false
}

// Verdict is the assessment classification.
type Verdict string

const (
	// VerdictOK: no triggering or warning items; serve as-is.
	VerdictOK Verdict = "ok"
	// VerdictWarning: no triggers, but items may contain trace amounts;
	// serve with disclosure. Moderate tier only.
	VerdictWarning Verdict = "warning"
	// VerdictModify: every triggering item is removable; safe only if the
	// listed items are removed.
	VerdictModify Verdict = "modify"
	// VerdictNotOK: at least one non-removable triggering item; the dish
	// cannot be made safe.
	VerdictNotOK Verdict = "not_ok"
)

// Channel identifies how an item hit a selected allergen.
type Channel string

const (
	ChannelContains     Channel = "contains"
	ChannelMayContain   Channel = "may_contain"
	ChannelCrossContact Channel = "cross_contact"
)

// Hit records one allergen an item triggered on and via which channel.
// Cross-contact hits carry no allergen (the risk is equipment, not
// composition).
type Hit struct {
	Allergen catalog.Allergen `json:"allergen,omitempty"`
	Channel  Channel          `json:"channel"`
}

// Evidence is one item in the trigger or warning list, annotated with the
// hits that put it there.
type Evidence struct {
	Item menu.DishItem `json:"item"`
	Hits []Hit         `json:"hits"`
}

// Assessment is the full decision output.
type Assessment struct {
	Verdict  Verdict    `json:"verdict"`
	Severity Severity   `json:"severity"`
	Triggers []Evidence `json:"triggers,omitempty"`
	// Warnings is populated at the moderate tier only: items whose sole
	// hit is a may-contain intersection.
	Warnings []Evidence `json:"warnings,omitempty"`
	// Removals lists the items that must be removed to clear the guest's
	// selected allergens. Populated for VerdictModify.
	Removals []menu.DishItem `json:"removals,omitempty"`
	// CrossContactConcern echoes the guest's flag. Informational: it does
	// not alter trigger logic.
	CrossContactConcern bool `json:"cross_contact_concern"`
}

// Assess classifies a dish's items against a guest's selected allergens at
// the given severity tier.
//
// An empty selection short-circuits to VerdictOK regardless of the dish.
func Assess(items []menu.DishItem, selected []catalog.Allergen, severity Severity, crossContactConcern bool) Assessment {
	out := Assessment{
		Verdict:             VerdictOK,
		Severity:            severity,
		CrossContactConcern: crossContactConcern,
	}
	if len(selected) == 0 {
		return out
	}
	sel := catalog.NewSet(selected...)

	for _, item := range items {
		direct := intersect(item.Allergens, sel)
		trace := intersect(item.MayContain, sel)

		switch severity {
		case SeverityAnaphylactic:
			if len(direct) > 0 || len(trace) > 0 || item.CrossContact {
				out.Triggers = append(out.Triggers, evidence(item, direct, trace, item.CrossContact))
			}
		case SeverityModerate:
			if len(direct) > 0 || item.CrossContact {
				out.Triggers = append(out.Triggers, evidence(item, direct, nil, item.CrossContact))
			} else if len(trace) > 0 {
				out.Warnings = append(out.Warnings, evidence(item, nil, trace, false))
			}
		case SeverityPreference:
			if len(direct) > 0 {
				out.Triggers = append(out.Triggers, evidence(item, direct, nil, false))
			}
		}
	}

	out.Verdict = classify(out.Triggers, out.Warnings, &out.Removals)
	return out
}

// classify maps the trigger and warning sets to a verdict, filling the
// removal list for VerdictModify.
func classify(triggers, warnings []Evidence, removals *[]menu.DishItem) Verdict {
	if len(triggers) == 0 {
		if len(warnings) == 0 {
			return VerdictOK
		}
		return VerdictWarning
	}

	var removable, nonRemovable []menu.DishItem
	for _, ev := range triggers {
		if ev.Item.Removable {
			removable = append(removable, ev.Item)
		} else {
			nonRemovable = append(nonRemovable, ev.Item)
		}
	}

	if len(nonRemovable) > 0 {
		return VerdictNotOK
	}
	if len(removable) > 0 {
		*removals = removable
		return VerdictModify
	}
	// Unreachable under a correct partition; fail safe.
	return VerdictNotOK
}

// intersect returns the members of allergens present in sel, in catalog
// display order.
func intersect(allergens []catalog.Allergen, sel catalog.Set) []catalog.Allergen {
	hit := catalog.NewSet()
	for _, a := range allergens {
		if sel.Has(a) {
			hit.Add(a)
		}
	}
	if len(hit) == 0 {
		return nil
	}
	return hit.Sorted()
}

// evidence builds the annotated entry for one item.
func evidence(item menu.DishItem, direct, trace []catalog.Allergen, crossContact bool) Evidence {
	ev := Evidence{Item: item}
	for _, a := range direct {
		ev.Hits = append(ev.Hits, Hit{Allergen: a, Channel: ChannelContains})
	}
	for _, a := range trace {
		ev.Hits = append(ev.Hits, Hit{Allergen: a, Channel: ChannelMayContain})
	}
	if crossContact {
		ev.Hits = append(ev.Hits, Hit{Channel: ChannelCrossContact})
	}
	return ev
}
