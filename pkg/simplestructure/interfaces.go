package simplestructure

import (
	"context"

	"github.com/google/uuid"
)

// EntityStore is the publishable-entity substrate contract: stable
// identities, numbered versions, and the draft/published pointer pair.
// The core never bypasses it to mutate pointers directly.
type EntityStore interface {
	CreateEntity(ctx context.Context, entity *Entity) error
	GetEntity(ctx context.Context, id uuid.UUID) (*Entity, error)
	GetEntityByKey(ctx context.Context, key string) (*Entity, error)
	// DeleteEntity soft-deletes an entity identity. It fails with
	// ErrEntityInUse while any list row still references the entity.
	DeleteEntity(ctx context.Context, id uuid.UUID) error

	// CreateEntityVersion creates a numbered version and moves the
	// entity's draft pointer to it, atomically. A VersionNum of 0 assigns
	// the next sequential number; an explicit number that is already taken
	// fails with ErrVersionConflict.
	CreateEntityVersion(ctx context.Context, params CreateEntityVersionParams) (*EntityVersion, error)
	GetEntityVersion(ctx context.Context, id uuid.UUID) (*EntityVersion, error)
	GetEntityVersionByNum(ctx context.Context, entityID uuid.UUID, versionNum int) (*EntityVersion, error)
	ListEntityVersions(ctx context.Context, entityID uuid.UUID) ([]*EntityVersion, error)
	// DeleteEntityVersion removes a version. It fails with ErrVersionInUse
	// while any row pins the version or a draft/published pointer targets
	// it. Versions referenced only through unpinned rows may be deleted.
	DeleteEntityVersion(ctx context.Context, id uuid.UUID) error

	SetDraft(ctx context.Context, entityID, versionID uuid.UUID) error
	SetPublished(ctx context.Context, entityID, versionID uuid.UUID) error
}

// Repository defines the interface for structure persistence. It embeds
// the substrate so that container and selector version creation can join
// entity-version creation in one atomic operation.
type Repository interface {
	EntityStore

	// Entity list operations. Lists are immutable: there is no update or
	// delete, only creation of replacement lists.
	CreateEntityList(ctx context.Context, rows []RowSpec) (*EntityList, error)
	GetListRows(ctx context.Context, listID uuid.UUID) ([]ListRow, error)

	// Container operations. CreateContainerVersion runs as one atomic
	// unit: the entity version, the new defined list with its rows, the
	// container version record, and the draft pointer update all commit
	// together or not at all.
	CreateContainerVersion(ctx context.Context, params CreateContainerVersionParams) (*ContainerVersion, error)
	GetContainerVersion(ctx context.Context, versionID uuid.UUID) (*ContainerVersion, error)
	GetContainerVersionByNum(ctx context.Context, containerID uuid.UUID, versionNum int) (*ContainerVersion, error)
	GetLatestContainerVersion(ctx context.Context, containerID uuid.UUID) (*ContainerVersion, error)
	ListContainerVersions(ctx context.Context, containerID uuid.UUID) ([]*ContainerVersion, error)

	// Selector operations. CreateSelectorVersion is atomic in the same way
	// container version creation is; CreateVariant creates the variant's
	// list and the binding row together.
	CreateSelectorVersion(ctx context.Context, params CreateSelectorVersionParams) (*SelectorVersion, error)
	GetSelectorVersion(ctx context.Context, versionID uuid.UUID) (*SelectorVersion, error)
	CreateVariant(ctx context.Context, params CreateVariantParams) (*Variant, error)
	ListVariants(ctx context.Context, selectorVersionID uuid.UUID) ([]*Variant, error)
}

// CreateEntityVersionParams contains parameters for creating an entity version
type CreateEntityVersionParams struct {
	EntityID   uuid.UUID
	VersionNum int // 0 means "next sequential"
	Title      string
	CreatedBy  string
}

// CreateContainerVersionParams contains parameters for creating a container version
type CreateContainerVersionParams struct {
	ContainerID uuid.UUID
	VersionNum  int // 0 means "next sequential"
	Title       string
	Rows        []RowSpec
	CreatedBy   string
}

// CreateSelectorVersionParams contains parameters for creating a selector version
type CreateSelectorVersionParams struct {
	SelectorID uuid.UUID
	VersionNum int // 0 means "next sequential"
	Title      string
	OrderNum   int
	CreatedBy  string
}

// CreateVariantParams contains parameters for binding a new variant list
// to a selector version
type CreateVariantParams struct {
	SelectorVersionID uuid.UUID
	Key               string
	Rows              []RowSpec
}
