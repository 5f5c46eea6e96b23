package simplestructure

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrEntityNotFound indicates an entity was not found
	ErrEntityNotFound = errors.New("entity not found")

	// ErrVersionNotFound indicates an entity version was not found
	ErrVersionNotFound = errors.New("entity version not found")

	// ErrContainerVersionNotFound indicates a container version was not found
	ErrContainerVersionNotFound = errors.New("container version not found")

	// ErrSelectorVersionNotFound indicates a selector version was not found
	ErrSelectorVersionNotFound = errors.New("selector version not found")

	// ErrListNotFound indicates an entity list was not found
	ErrListNotFound = errors.New("entity list not found")

	// ErrVariantNotFound indicates a variant was not found
	ErrVariantNotFound = errors.New("variant not found")

	// ErrNoVersions indicates an entity has no versions yet
	ErrNoVersions = errors.New("entity has no versions")

	// ErrKeyExists indicates an entity key is already taken
	ErrKeyExists = errors.New("entity key already exists")

	// ErrEntityInUse indicates an entity is still referenced by list rows
	// and cannot be deleted
	ErrEntityInUse = errors.New("entity is referenced by list rows")

	// ErrVersionInUse indicates a version is pinned by list rows or is a
	// current draft/published pointer and cannot be deleted
	ErrVersionInUse = errors.New("version is pinned or pointed to")

	// ErrVersionConflict indicates a version number was assigned
	// concurrently by another writer; the caller should retry
	ErrVersionConflict = errors.New("version number conflict")

	// ErrNotContainer indicates an operation expected a container entity
	ErrNotContainer = errors.New("entity is not a container")

	// ErrNotSelector indicates an operation expected a selector entity
	ErrNotSelector = errors.New("entity is not a selector")
)

// ReferentialError reports a row that names a non-existent entity or a
// pinned version that does not belong to the stated entity. It is raised
// at list-creation time; invalid rows are never stored.
type ReferentialError struct {
	Position  int
	EntityID  uuid.UUID
	VersionID *uuid.UUID
	Reason    string
}

func (e *ReferentialError) Error() string {
	if e.VersionID != nil {
		return fmt.Sprintf("row %d references entity %s version %s: %s", e.Position, e.EntityID, *e.VersionID, e.Reason)
	}
	return fmt.Sprintf("row %d references entity %s: %s", e.Position, e.EntityID, e.Reason)
}

// SelectorUnresolvedError reports a variant policy that matched zero or
// more than one variant for a selector version.
type SelectorUnresolvedError struct {
	SelectorVersionID uuid.UUID
	Matched           int
}

func (e *SelectorUnresolvedError) Error() string {
	return fmt.Sprintf("selector version %s: policy matched %d variants, want exactly 1", e.SelectorVersionID, e.Matched)
}

// CycleError reports a repeated (entity, version) pair on the active path
// of a deep resolution.
type CycleError struct {
	EntityID  uuid.UUID
	VersionID uuid.UUID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("resolution cycle through entity %s version %s", e.EntityID, e.VersionID)
}

// InconsistentDraftError reports an entity with no draft pointer
// encountered during draft-mode resolution. Every live entity is required
// to have a draft, so this is a data-integrity fault, not a skippable row.
type InconsistentDraftError struct {
	EntityID uuid.UUID
}

func (e *InconsistentDraftError) Error() string {
	return fmt.Sprintf("entity %s has no draft version", e.EntityID)
}

// StructureError represents an error related to a structure operation
type StructureError struct {
	EntityID uuid.UUID
	Op       string
	Err      error
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("structure operation %s failed for entity %s: %v", e.Op, e.EntityID, e.Err)
}

func (e *StructureError) Unwrap() error {
	return e.Err
}
