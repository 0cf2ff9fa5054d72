package core

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrReference  = errors.New("unresolved category reference")
	ErrNotFound   = errors.New("not found")
)

// ValidationError reports a missing or malformed field on create or update.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ReferenceError reports a categoryId that does not resolve to a live,
// type-matching category, or a category that cannot change because it is
// still referenced.
type ReferenceError struct {
	CategoryID string
	Want       Kind // expected category type, empty when the category is missing
	Got        Kind
	Referenced int // live references blocking a delete or type change
}

func (e *ReferenceError) Error() string {
	switch {
	case e.Referenced > 0:
		return fmt.Sprintf("category %s is referenced by %d entries", e.CategoryID, e.Referenced)
	case e.Got != "":
		return fmt.Sprintf("category %s has type %s, want %s", e.CategoryID, e.Got, e.Want)
	default:
		return fmt.Sprintf("category %s does not exist", e.CategoryID)
	}
}

func (e *ReferenceError) Unwrap() error { return ErrReference }

// NotFoundError reports an update or delete target that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
