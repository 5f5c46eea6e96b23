package simplestructure

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	clock      func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		s.clock = clock
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		clock: func() time.Time { return time.Now().UTC() },
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

// Publishable entity operations

func (s *service) CreateEntity(ctx context.Context, req CreateEntityRequest) (*Entity, error) {
	kind := req.Kind
	if kind == "" {
		kind = KindComponent
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid entity kind %q", req.Kind)
	}

	entity := &Entity{
		ID:        uuid.New(),
		Kind:      kind,
		Key:       req.Key,
		CreatedAt: s.clock(),
		CreatedBy: req.CreatedBy,
	}

	if err := s.repository.CreateEntity(ctx, entity); err != nil {
		return nil, &StructureError{EntityID: entity.ID, Op: "create_entity", Err: err}
	}

	return entity, nil
}

func (s *service) CreateEntityVersion(ctx context.Context, req CreateEntityVersionRequest) (*EntityVersion, error) {
	entity, err := s.repository.GetEntity(ctx, req.EntityID)
	if err != nil {
		return nil, err
	}
	// Container and selector versions must own their list structure, so
	// they are only created through the container/selector operations.
	if entity.Kind != KindComponent {
		return nil, fmt.Errorf("entity %s is a %s: use the %s version operations", entity.ID, entity.Kind, entity.Kind)
	}

	version, err := s.repository.CreateEntityVersion(ctx, CreateEntityVersionParams{
		EntityID:   req.EntityID,
		VersionNum: req.VersionNum,
		Title:      req.Title,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		return nil, &StructureError{EntityID: req.EntityID, Op: "create_version", Err: err}
	}

	return version, nil
}

func (s *service) GetEntity(ctx context.Context, id uuid.UUID) (*Entity, error) {
	return s.repository.GetEntity(ctx, id)
}

func (s *service) GetEntityByKey(ctx context.Context, key string) (*Entity, error) {
	return s.repository.GetEntityByKey(ctx, key)
}

func (s *service) GetEntityVersion(ctx context.Context, id uuid.UUID) (*EntityVersion, error) {
	return s.repository.GetEntityVersion(ctx, id)
}

func (s *service) ListEntityVersions(ctx context.Context, entityID uuid.UUID) ([]*EntityVersion, error) {
	return s.repository.ListEntityVersions(ctx, entityID)
}

func (s *service) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	if err := s.repository.DeleteEntity(ctx, id); err != nil {
		return &StructureError{EntityID: id, Op: "delete_entity", Err: err}
	}
	return nil
}

func (s *service) DeleteEntityVersion(ctx context.Context, id uuid.UUID) error {
	if err := s.repository.DeleteEntityVersion(ctx, id); err != nil {
		return &StructureError{EntityID: id, Op: "delete_version", Err: err}
	}
	return nil
}

func (s *service) Publish(ctx context.Context, entityID uuid.UUID) error {
	entity, err := s.repository.GetEntity(ctx, entityID)
	if err != nil {
		return err
	}
	if entity.DraftVersionID == nil {
		return &StructureError{EntityID: entityID, Op: "publish", Err: ErrNoVersions}
	}

	if err := s.repository.SetPublished(ctx, entityID, *entity.DraftVersionID); err != nil {
		return &StructureError{EntityID: entityID, Op: "publish", Err: err}
	}

	return nil
}

// Container operations

func (s *service) CreateContainer(ctx context.Context, req CreateContainerRequest) (*Entity, error) {
	return s.CreateEntity(ctx, CreateEntityRequest{
		Kind:      KindContainer,
		Key:       req.Key,
		CreatedBy: req.CreatedBy,
	})
}

func (s *service) CreateContainerVersion(ctx context.Context, req CreateContainerVersionRequest) (*ContainerVersion, error) {
	if err := s.checkKind(ctx, req.ContainerID, KindContainer); err != nil {
		return nil, err
	}

	version, err := s.repository.CreateContainerVersion(ctx, CreateContainerVersionParams{
		ContainerID: req.ContainerID,
		VersionNum:  req.VersionNum,
		Title:       req.Title,
		Rows:        req.Rows,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return nil, &StructureError{EntityID: req.ContainerID, Op: "create_container_version", Err: err}
	}

	return version, nil
}

func (s *service) CreateNextContainerVersion(ctx context.Context, req CreateNextContainerVersionRequest) (*ContainerVersion, error) {
	return s.CreateContainerVersion(ctx, CreateContainerVersionRequest{
		ContainerID: req.ContainerID,
		VersionNum:  0, // next sequential
		Title:       req.Title,
		Rows:        req.Rows,
		CreatedBy:   req.CreatedBy,
	})
}

func (s *service) CreateContainerAndVersion(ctx context.Context, req CreateContainerAndVersionRequest) (*Entity, *ContainerVersion, error) {
	container, err := s.CreateContainer(ctx, CreateContainerRequest{
		Key:       req.Key,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		return nil, nil, err
	}

	version, err := s.CreateContainerVersion(ctx, CreateContainerVersionRequest{
		ContainerID: container.ID,
		VersionNum:  1,
		Title:       req.Title,
		Rows:        req.Rows,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return nil, nil, err
	}

	// The version creation moved the draft pointer.
	container, err = s.repository.GetEntity(ctx, container.ID)
	if err != nil {
		return nil, nil, err
	}

	return container, version, nil
}

func (s *service) GetContainerVersion(ctx context.Context, versionID uuid.UUID) (*ContainerVersion, error) {
	return s.repository.GetContainerVersion(ctx, versionID)
}

func (s *service) ContainerVersionByNumber(ctx context.Context, containerID uuid.UUID, versionNum int) (*ContainerVersion, error) {
	return s.repository.GetContainerVersionByNum(ctx, containerID, versionNum)
}

func (s *service) LatestContainerVersion(ctx context.Context, containerID uuid.UUID) (*ContainerVersion, error) {
	return s.repository.GetLatestContainerVersion(ctx, containerID)
}

func (s *service) ListContainerVersions(ctx context.Context, containerID uuid.UUID) ([]*ContainerVersion, error) {
	return s.repository.ListContainerVersions(ctx, containerID)
}

func (s *service) DraftContainerVersion(ctx context.Context, containerID uuid.UUID) (*ContainerVersion, error) {
	return s.pointedContainerVersion(ctx, containerID, ModeDraft)
}

func (s *service) PublishedContainerVersion(ctx context.Context, containerID uuid.UUID) (*ContainerVersion, error) {
	return s.pointedContainerVersion(ctx, containerID, ModePublished)
}

func (s *service) pointedContainerVersion(ctx context.Context, containerID uuid.UUID, mode ResolutionMode) (*ContainerVersion, error) {
	entity, err := s.repository.GetEntity(ctx, containerID)
	if err != nil {
		return nil, err
	}
	if entity.Kind != KindContainer {
		return nil, ErrNotContainer
	}

	pointer := entity.DraftVersionID
	if mode == ModePublished {
		pointer = entity.PublishedVersionID
	}
	if pointer == nil {
		return nil, ErrNoVersions
	}

	return s.repository.GetContainerVersion(ctx, *pointer)
}

// Container version list access

func (s *service) DefinedRows(ctx context.Context, versionID uuid.UUID) ([]ListRow, error) {
	version, err := s.repository.GetContainerVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return s.repository.GetListRows(ctx, version.DefinedListID)
}

func (s *service) InitialRows(ctx context.Context, versionID uuid.UUID) ([]ListRow, error) {
	version, err := s.repository.GetContainerVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return s.repository.GetListRows(ctx, version.InitialListID)
}

func (s *service) FrozenRows(ctx context.Context, versionID uuid.UUID) ([]ListRow, error) {
	version, err := s.repository.GetContainerVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.FrozenListID == nil {
		return nil, nil
	}
	return s.repository.GetListRows(ctx, *version.FrozenListID)
}

// Selector operations

func (s *service) CreateSelector(ctx context.Context, req CreateSelectorRequest) (*Entity, error) {
	return s.CreateEntity(ctx, CreateEntityRequest{
		Kind:      KindSelector,
		Key:       req.Key,
		CreatedBy: req.CreatedBy,
	})
}

func (s *service) CreateSelectorVersion(ctx context.Context, req CreateSelectorVersionRequest) (*SelectorVersion, error) {
	if err := s.checkKind(ctx, req.SelectorID, KindSelector); err != nil {
		return nil, err
	}

	version, err := s.repository.CreateSelectorVersion(ctx, CreateSelectorVersionParams{
		SelectorID: req.SelectorID,
		VersionNum: req.VersionNum,
		Title:      req.Title,
		OrderNum:   req.OrderNum,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		return nil, &StructureError{EntityID: req.SelectorID, Op: "create_selector_version", Err: err}
	}

	return version, nil
}

func (s *service) GetSelectorVersion(ctx context.Context, versionID uuid.UUID) (*SelectorVersion, error) {
	return s.repository.GetSelectorVersion(ctx, versionID)
}

func (s *service) AddVariant(ctx context.Context, req AddVariantRequest) (*Variant, error) {
	variant, err := s.repository.CreateVariant(ctx, CreateVariantParams{
		SelectorVersionID: req.SelectorVersionID,
		Key:               req.Key,
		Rows:              req.Rows,
	})
	if err != nil {
		return nil, &StructureError{EntityID: req.SelectorVersionID, Op: "add_variant", Err: err}
	}

	return variant, nil
}

func (s *service) Variants(ctx context.Context, selectorVersionID uuid.UUID) ([]*Variant, error) {
	return s.repository.ListVariants(ctx, selectorVersionID)
}

func (s *service) VariantRows(ctx context.Context, listID uuid.UUID) ([]ListRow, error) {
	return s.repository.GetListRows(ctx, listID)
}

// checkKind verifies the entity exists and has the expected kind.
func (s *service) checkKind(ctx context.Context, id uuid.UUID, kind EntityKind) error {
	entity, err := s.repository.GetEntity(ctx, id)
	if err != nil {
		return err
	}
	if entity.Kind != kind {
		if kind == KindContainer {
			return ErrNotContainer
		}
		return ErrNotSelector
	}
	return nil
}
