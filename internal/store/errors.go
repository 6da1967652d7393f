package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup targets an entity that does not
// exist. Wrapped with context at the call site.
var ErrNotFound = errors.New("not found")

// ValidationError reports a field rejected before any store write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("VALIDATION: %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether the error is a ValidationError.
// Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UniquenessError reports a duplicate name within one entity kind.
// No partial write occurs: the check runs inside the write transaction.
type UniquenessError struct {
	Kind string // entity kind, e.g. "ingredient"
	Name string
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("UNIQUENESS_VIOLATION: %s named %q already exists", e.Kind, e.Name)
}

// IsUniquenessError reports whether the error is a UniquenessError.
func IsUniquenessError(err error) bool {
	var ue *UniquenessError
	return errors.As(err, &ue)
}

// ReferentialError reports a delete blocked by existing composition links.
// The entity remains unchanged; callers surface this as a blocking message,
// never a cascading delete.
type ReferentialError struct {
	Kind string
	ID   string
	// ReferencedBy names the link tables holding references.
	ReferencedBy []string
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("REFERENTIAL_INTEGRITY: %s %s is referenced by %v and cannot be deleted",
		e.Kind, e.ID, e.ReferencedBy)
}

// IsReferentialError reports whether the error is a ReferentialError.
func IsReferentialError(err error) bool {
	var re *ReferentialError
	return errors.As(err, &re)
}
