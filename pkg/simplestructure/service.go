package simplestructure

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the simple-structure library
type Service interface {
	// Publishable entity operations
	CreateEntity(ctx context.Context, req CreateEntityRequest) (*Entity, error)
	CreateEntityVersion(ctx context.Context, req CreateEntityVersionRequest) (*EntityVersion, error)
	GetEntity(ctx context.Context, id uuid.UUID) (*Entity, error)
	GetEntityByKey(ctx context.Context, key string) (*Entity, error)
	GetEntityVersion(ctx context.Context, id uuid.UUID) (*EntityVersion, error)
	ListEntityVersions(ctx context.Context, entityID uuid.UUID) ([]*EntityVersion, error)
	DeleteEntity(ctx context.Context, id uuid.UUID) error
	DeleteEntityVersion(ctx context.Context, id uuid.UUID) error

	// Publish moves the entity's published pointer to its current draft.
	Publish(ctx context.Context, entityID uuid.UUID) error

	// Container operations
	CreateContainer(ctx context.Context, req CreateContainerRequest) (*Entity, error)
	CreateContainerVersion(ctx context.Context, req CreateContainerVersionRequest) (*ContainerVersion, error)
	CreateNextContainerVersion(ctx context.Context, req CreateNextContainerVersionRequest) (*ContainerVersion, error)
	CreateContainerAndVersion(ctx context.Context, req CreateContainerAndVersionRequest) (*Entity, *ContainerVersion, error)
	GetContainerVersion(ctx context.Context, versionID uuid.UUID) (*ContainerVersion, error)
	ContainerVersionByNumber(ctx context.Context, containerID uuid.UUID, versionNum int) (*ContainerVersion, error)
	LatestContainerVersion(ctx context.Context, containerID uuid.UUID) (*ContainerVersion, error)
	ListContainerVersions(ctx context.Context, containerID uuid.UUID) ([]*ContainerVersion, error)
	DraftContainerVersion(ctx context.Context, containerID uuid.UUID) (*ContainerVersion, error)
	PublishedContainerVersion(ctx context.Context, containerID uuid.UUID) (*ContainerVersion, error)

	// Container version list access
	DefinedRows(ctx context.Context, versionID uuid.UUID) ([]ListRow, error)
	InitialRows(ctx context.Context, versionID uuid.UUID) ([]ListRow, error)
	FrozenRows(ctx context.Context, versionID uuid.UUID) ([]ListRow, error)

	// Selector operations
	CreateSelector(ctx context.Context, req CreateSelectorRequest) (*Entity, error)
	CreateSelectorVersion(ctx context.Context, req CreateSelectorVersionRequest) (*SelectorVersion, error)
	GetSelectorVersion(ctx context.Context, versionID uuid.UUID) (*SelectorVersion, error)
	AddVariant(ctx context.Context, req AddVariantRequest) (*Variant, error)
	Variants(ctx context.Context, selectorVersionID uuid.UUID) ([]*Variant, error)
	VariantRows(ctx context.Context, listID uuid.UUID) ([]ListRow, error)

	// Resolution
	Resolve(ctx context.Context, req ResolveRequest) ([]ResolvedEntry, error)
}
