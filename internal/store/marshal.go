package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kitchenops/allergycheck/internal/catalog"
)

// Allergen sets are persisted as JSON arrays of catalog identifiers in
// TEXT columns; timestamps as RFC 3339 UTC strings.

// marshalAllergens serializes an allergen set for storage.
// A nil slice serializes as the empty array, never null.
func marshalAllergens(allergens []catalog.Allergen) (string, error) {
	if allergens == nil {
		allergens = []catalog.Allergen{}
	}
	b, err := json.Marshal(allergens)
	if err != nil {
		return "", fmt.Errorf("marshal allergens: %w", err)
	}
	return string(b), nil
}

// unmarshalAllergens deserializes a stored allergen set.
// Returns an empty slice (not nil) for empty or null columns.
func unmarshalAllergens(raw string) ([]catalog.Allergen, error) {
	if raw == "" || raw == "null" {
		return []catalog.Allergen{}, nil
	}
	var out []catalog.Allergen
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("unmarshal allergens: %w", err)
	}
	if out == nil {
		out = []catalog.Allergen{}
	}
	return out, nil
}

// validateAllergens rejects identifiers outside the catalog before any
// store call.
func validateAllergens(field string, allergens []catalog.Allergen) error {
	for _, a := range allergens {
		if !catalog.IsKnown(a) {
			return &ValidationError{Field: field, Message: fmt.Sprintf("unknown allergen %q", a)}
		}
	}
	return nil
}

// formatTime serializes a timestamp for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime deserializes a stored timestamp. Empty columns yield the zero
// time rather than an error.
func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", raw, err)
	}
	return t, nil
}

// boolToInt converts a flag for an INTEGER column.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
