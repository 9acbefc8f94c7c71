package entity

import (
	"errors"
	"fmt"
)

// Domain sentinels. Storage and usecase layers wrap these so handlers can
// map them to HTTP statuses with errors.Is.
var (
	// ErrNotFound: no entry with the requested slug or ID.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput: the caller's input failed a precondition.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict: a storage uniqueness constraint was violated, e.g. two
	// publishers racing for the same slug.
	ErrConflict = errors.New("conflicting entity already exists")

	// ErrValidationFailed: one or more field validations failed.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError names the field that failed and why. Its message wording
// is what the respond package treats as safe to return to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
