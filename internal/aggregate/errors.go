package aggregate

import (
	"errors"
	"fmt"
	"strings"
)

// CycleError reports a component that (transitively) contains itself.
//
// The data model permits component-in-component links, so a malformed graph
// can form a cycle. Traversal detects revisiting an ancestor on the current
// recursion path and halts with this error instead of recursing unboundedly.
// This is a data-integrity fault: aggregation is total over well-formed input
// and raises only here.
type CycleError struct {
	// ComponentID is the component revisited on the recursion path.
	ComponentID string

	// Path lists the component IDs on the recursion path, root first,
	// ending at the revisited component.
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("CYCLE_DETECTED: component %s contains itself (path: %s)",
		e.ComponentID, strings.Join(e.Path, " -> "))
}

// IsCycleError reports whether the error is a CycleError.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	var ce *CycleError
	return errors.As(err, &ce)
}

// UnknownRefError reports a constituent edge pointing at an entity that is
// missing from the snapshot. Not expected under referential integrity, but
// surfaced rather than silently skipped.
type UnknownRefError struct {
	Kind    string
	ChildID string
}

func (e *UnknownRefError) Error() string {
	return fmt.Sprintf("UNKNOWN_REF: %s %s not in snapshot", e.Kind, e.ChildID)
}
