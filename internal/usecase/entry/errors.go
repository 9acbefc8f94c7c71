// Package entry provides use cases for publishing and reading blog entries.
// It implements the create-or-update publish flow with slug assignment, the
// read paths behind the public pages, and the re-render sweep, delegating
// persistence to the repository.
package entry

import (
	"fmt"

	"inkwell/internal/domain/entity"
)

// Sentinel errors for entry use case operations.
var (
	// ErrEntryNotFound indicates that the requested entry was not found.
	// Returned when reading or republishing an entry that does not exist.
	// Unwraps to entity.ErrNotFound.
	ErrEntryNotFound = fmt.Errorf("entry not found: %w", entity.ErrNotFound)

	// ErrInvalidEntryID indicates that the provided entry ID is invalid.
	// Entry IDs must be positive integers. Unwraps to entity.ErrInvalidInput.
	ErrInvalidEntryID = fmt.Errorf("invalid entry ID: %w", entity.ErrInvalidInput)
)
