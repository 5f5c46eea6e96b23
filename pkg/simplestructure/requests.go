package simplestructure

import "github.com/google/uuid"

// Request/Response DTOs

// CreateEntityRequest contains parameters for creating a publishable
// entity identity with zero versions
type CreateEntityRequest struct {
	Kind      EntityKind
	Key       string
	CreatedBy string
}

// CreateEntityVersionRequest contains parameters for creating a new
// version of a component entity. Container and selector entities get
// their versions through the container/selector operations instead, so
// that every one of their versions owns its list structure.
type CreateEntityVersionRequest struct {
	EntityID   uuid.UUID
	VersionNum int // 0 means "next sequential"
	Title      string
	CreatedBy  string
}

// CreateContainerRequest contains parameters for creating a container
// identity with zero versions
type CreateContainerRequest struct {
	Key       string
	CreatedBy string
}

// CreateContainerVersionRequest contains parameters for creating a
// container version with an explicit version number (import/migration
// replay flows). VersionNum 0 assigns the next sequential number.
type CreateContainerVersionRequest struct {
	ContainerID uuid.UUID
	VersionNum  int
	Title       string
	Rows        []RowSpec
	CreatedBy   string
}

// CreateNextContainerVersionRequest contains parameters for appending the
// next container version in a straightforward editing flow.
type CreateNextContainerVersionRequest struct {
	ContainerID uuid.UUID
	Title       string
	Rows        []RowSpec
	CreatedBy   string
}

// CreateContainerAndVersionRequest contains parameters for creating a
// container together with its first version in one call.
type CreateContainerAndVersionRequest struct {
	Key       string
	Title     string
	Rows      []RowSpec
	CreatedBy string
}

// CreateSelectorRequest contains parameters for creating a selector
// identity with zero versions
type CreateSelectorRequest struct {
	Key       string
	CreatedBy string
}

// CreateSelectorVersionRequest contains parameters for creating a
// selector version. VersionNum 0 assigns the next sequential number.
type CreateSelectorVersionRequest struct {
	SelectorID uuid.UUID
	VersionNum int
	Title      string
	OrderNum   int
	CreatedBy  string
}

// AddVariantRequest contains parameters for binding a new variant list to
// a selector version
type AddVariantRequest struct {
	SelectorVersionID uuid.UUID
	Key               string
	Rows              []RowSpec
}

// ResolveRequest contains parameters for resolving a container or
// selector version into concrete content.
type ResolveRequest struct {
	// VersionID is the container or selector version to resolve.
	VersionID uuid.UUID
	// Mode selects the pointer unpinned references follow.
	Mode ResolutionMode
	// Deep recursively expands nested containers and selectors. Shallow
	// resolution returns one entry per row regardless of the target kind.
	Deep bool
	// Policy picks among a selector version's variants. Required when the
	// root is a selector version or when Deep resolution reaches one.
	Policy VariantPolicy
}
