package simplestructure

import (
	"time"

	"github.com/google/uuid"
)

// EntityKind is the domain type for publishable entity kinds.
type EntityKind string

// Entity kind constants (typed). The set is closed: the resolution engine
// dispatches on it when deciding whether to recurse into a reference.
const (
	KindComponent EntityKind = "component"
	KindContainer EntityKind = "container"
	KindSelector  EntityKind = "selector"
)

// IsValid returns true if the kind is one of the known entity kinds.
func (k EntityKind) IsValid() bool {
	switch k {
	case KindComponent, KindContainer, KindSelector:
		return true
	}
	return false
}

// ResolutionMode selects which version pointer unpinned references follow
// at resolution time.
type ResolutionMode string

// Resolution mode constants (typed).
const (
	ModeDraft     ResolutionMode = "draft"
	ModePublished ResolutionMode = "published"
)

// IsValid returns true if the mode is one of the known resolution modes.
func (m ResolutionMode) IsValid() bool {
	return m == ModeDraft || m == ModePublished
}

// Entity represents a stable publishable identity. Containers and
// selectors are entities; so is any leaf content (a "component") that a
// container may reference.
//
// The draft and published pointers are an explicit two-field record on the
// identity, updated only inside atomic repository operations. A nil
// pointer means "no such version yet": every live entity gains a draft
// pointer with its first version, while the published pointer stays nil
// until the entity is published.
type Entity struct {
	ID                 uuid.UUID  `json:"id"`
	Kind               EntityKind `json:"kind"`
	Key                string     `json:"key"`
	DraftVersionID     *uuid.UUID `json:"draft_version_id,omitempty"`
	PublishedVersionID *uuid.UUID `json:"published_version_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	CreatedBy          string     `json:"created_by,omitempty"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
}

// EntityVersion is one numbered snapshot of an entity. Version numbers are
// assigned sequentially per entity starting at 1 and are never reused.
type EntityVersion struct {
	ID         uuid.UUID `json:"id"`
	EntityID   uuid.UUID `json:"entity_id"`
	VersionNum int       `json:"version_num"`
	Title      string    `json:"title,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `json:"created_by,omitempty"`
}

// EntityList is an anonymous immutable ordered reference list. Lists are
// keyed by a synthetic id and owned by exactly one container version or
// variant; they are never looked up as independent resources.
type EntityList struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// ListRow is one member of an entity list: a position, a target entity,
// and an optional pin to one specific version of that target. A nil
// PinnedVersionID means the reference floats to the target's current draft
// or published version at resolution time.
//
// Rows are immutable once created. Reordering or re-pinning members always
// produces a replacement list.
type ListRow struct {
	ListID          uuid.UUID  `json:"list_id"`
	Position        int        `json:"position"`
	EntityID        uuid.UUID  `json:"entity_id"`
	PinnedVersionID *uuid.UUID `json:"pinned_version_id,omitempty"`
}

// RowSpec describes one row of a list to be created. Positions are
// assigned 0..n-1 in input order.
type RowSpec struct {
	EntityID        uuid.UUID  `json:"entity_id"`
	PinnedVersionID *uuid.UUID `json:"pinned_version_id,omitempty"`
}

// ContainerVersion is a snapshot of a container: its own metadata plus the
// defined list the author specified for this version.
//
// DefinedListID never changes for a given version, even if the things it
// references get soft-deleted, because reverts must reproduce it exactly.
// InitialListID carries the first version's defined list forward through
// the version chain, and FrozenListID holds the previous version's defined
// list (nil on the first version).
type ContainerVersion struct {
	ID            uuid.UUID  `json:"id"`
	ContainerID   uuid.UUID  `json:"container_id"`
	VersionNum    int        `json:"version_num"`
	Title         string     `json:"title,omitempty"`
	DefinedListID uuid.UUID  `json:"defined_list_id"`
	InitialListID uuid.UUID  `json:"initial_list_id"`
	FrozenListID  *uuid.UUID `json:"frozen_list_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     string     `json:"created_by,omitempty"`
}

// SelectorVersion is a snapshot of a selector. It carries no list of its
// own; candidate lists are bound to it through Variants. OrderNum places
// the selector slot among sibling slots when several selectors are
// composed inside one container, and is immutable like a row position.
type SelectorVersion struct {
	ID         uuid.UUID `json:"id"`
	SelectorID uuid.UUID `json:"selector_id"`
	VersionNum int       `json:"version_num"`
	Title      string    `json:"title,omitempty"`
	OrderNum   int       `json:"order_num"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `json:"created_by,omitempty"`
}

// Variant binds one entity list to one selector version: one concrete
// resolution of the placeholder (an A/B-test arm, a personalized draw of
// items, and so on). The list id is the variant's identity, so a list can
// back at most one variant. Variants are not independently versioned.
type Variant struct {
	ListID            uuid.UUID `json:"list_id"`
	SelectorVersionID uuid.UUID `json:"selector_version_id"`
	Key               string    `json:"key"`
	CreatedAt         time.Time `json:"created_at"`
}

// ResolvedEntry is one row of resolution output: the row's position, the
// entity it targets, and the concrete version it resolved to. For deep
// resolution of containers and selectors, Children holds the recursively
// resolved members.
type ResolvedEntry struct {
	Position   int             `json:"position"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Kind       EntityKind      `json:"kind"`
	VersionID  uuid.UUID       `json:"version_id"`
	VersionNum int             `json:"version_num"`
	Title      string          `json:"title,omitempty"`
	Pinned     bool            `json:"pinned"`
	Children   []ResolvedEntry `json:"children,omitempty"`
}
