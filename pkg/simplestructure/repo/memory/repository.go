package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/authorkit/simple-structure/pkg/simplestructure"
	"github.com/google/uuid"
)

// Repository implements simplestructure.Repository using in-memory storage.
// A single mutex section stands in for the transactional store: every
// compound operation either fully mutates the maps or returns before
// touching them.
type Repository struct {
	mu sync.RWMutex

	entities      map[uuid.UUID]*simplestructure.Entity
	entitiesByKey map[string]uuid.UUID

	versions         map[uuid.UUID]*simplestructure.EntityVersion
	versionsByEntity map[uuid.UUID][]uuid.UUID // entity_id -> []version_id, creation order

	lists      map[uuid.UUID]*simplestructure.EntityList
	rowsByList map[uuid.UUID][]simplestructure.ListRow

	containerVersions  map[uuid.UUID]*simplestructure.ContainerVersion
	selectorVersions   map[uuid.UUID]*simplestructure.SelectorVersion
	variants           map[uuid.UUID]*simplestructure.Variant // list_id -> variant
	variantsBySelector map[uuid.UUID][]uuid.UUID              // selector_version_id -> []list_id, creation order
}

// New creates a new in-memory repository
func New() simplestructure.Repository {
	return &Repository{
		entities:           make(map[uuid.UUID]*simplestructure.Entity),
		entitiesByKey:      make(map[string]uuid.UUID),
		versions:           make(map[uuid.UUID]*simplestructure.EntityVersion),
		versionsByEntity:   make(map[uuid.UUID][]uuid.UUID),
		lists:              make(map[uuid.UUID]*simplestructure.EntityList),
		rowsByList:         make(map[uuid.UUID][]simplestructure.ListRow),
		containerVersions:  make(map[uuid.UUID]*simplestructure.ContainerVersion),
		selectorVersions:   make(map[uuid.UUID]*simplestructure.SelectorVersion),
		variants:           make(map[uuid.UUID]*simplestructure.Variant),
		variantsBySelector: make(map[uuid.UUID][]uuid.UUID),
	}
}

// Entity operations

func (r *Repository) CreateEntity(ctx context.Context, entity *simplestructure.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entity.Key != "" {
		if _, exists := r.entitiesByKey[entity.Key]; exists {
			return simplestructure.ErrKeyExists
		}
	}

	// Create a copy to avoid external modifications
	entityCopy := *entity
	r.entities[entity.ID] = &entityCopy
	if entity.Key != "" {
		r.entitiesByKey[entity.Key] = entity.ID
	}

	return nil
}

func (r *Repository) GetEntity(ctx context.Context, id uuid.UUID) (*simplestructure.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getEntityLocked(id)
}

func (r *Repository) getEntityLocked(id uuid.UUID) (*simplestructure.Entity, error) {
	entity, exists := r.entities[id]
	if !exists || entity.DeletedAt != nil {
		return nil, simplestructure.ErrEntityNotFound
	}
	entityCopy := *entity
	return &entityCopy, nil
}

func (r *Repository) GetEntityByKey(ctx context.Context, key string) (*simplestructure.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.entitiesByKey[key]
	if !exists {
		return nil, simplestructure.ErrEntityNotFound
	}
	return r.getEntityLocked(id)
}

func (r *Repository) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entity, exists := r.entities[id]
	if !exists || entity.DeletedAt != nil {
		return simplestructure.ErrEntityNotFound
	}

	// Referential-integrity restriction: the identity stays while any list
	// row points at it.
	for _, rows := range r.rowsByList {
		for _, row := range rows {
			if row.EntityID == id {
				return simplestructure.ErrEntityInUse
			}
		}
	}

	now := time.Now()
	entity.DeletedAt = &now
	return nil
}

func (r *Repository) CreateEntityVersion(ctx context.Context, params simplestructure.CreateEntityVersionParams) (*simplestructure.EntityVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	version, err := r.createEntityVersionLocked(params)
	if err != nil {
		return nil, err
	}
	versionCopy := *version
	return &versionCopy, nil
}

// createEntityVersionLocked assigns the version number, stores the
// version, and moves the draft pointer. Callers hold the write lock.
func (r *Repository) createEntityVersionLocked(params simplestructure.CreateEntityVersionParams) (*simplestructure.EntityVersion, error) {
	entity, exists := r.entities[params.EntityID]
	if !exists || entity.DeletedAt != nil {
		return nil, simplestructure.ErrEntityNotFound
	}

	versionNum := params.VersionNum
	if versionNum <= 0 {
		versionNum = r.maxVersionNumLocked(params.EntityID) + 1
	} else {
		for _, vid := range r.versionsByEntity[params.EntityID] {
			if r.versions[vid].VersionNum == versionNum {
				return nil, simplestructure.ErrVersionConflict
			}
		}
	}

	version := &simplestructure.EntityVersion{
		ID:         uuid.New(),
		EntityID:   params.EntityID,
		VersionNum: versionNum,
		Title:      params.Title,
		CreatedAt:  time.Now().UTC(),
		CreatedBy:  params.CreatedBy,
	}

	r.versions[version.ID] = version
	r.versionsByEntity[params.EntityID] = append(r.versionsByEntity[params.EntityID], version.ID)
	draftID := version.ID
	entity.DraftVersionID = &draftID

	return version, nil
}

func (r *Repository) maxVersionNumLocked(entityID uuid.UUID) int {
	max := 0
	for _, vid := range r.versionsByEntity[entityID] {
		if num := r.versions[vid].VersionNum; num > max {
			max = num
		}
	}
	return max
}

func (r *Repository) GetEntityVersion(ctx context.Context, id uuid.UUID) (*simplestructure.EntityVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	version, exists := r.versions[id]
	if !exists {
		return nil, simplestructure.ErrVersionNotFound
	}
	versionCopy := *version
	return &versionCopy, nil
}

func (r *Repository) GetEntityVersionByNum(ctx context.Context, entityID uuid.UUID, versionNum int) (*simplestructure.EntityVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, vid := range r.versionsByEntity[entityID] {
		if version := r.versions[vid]; version.VersionNum == versionNum {
			versionCopy := *version
			return &versionCopy, nil
		}
	}
	return nil, simplestructure.ErrVersionNotFound
}

func (r *Repository) ListEntityVersions(ctx context.Context, entityID uuid.UUID) ([]*simplestructure.EntityVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simplestructure.EntityVersion
	for _, vid := range r.versionsByEntity[entityID] {
		versionCopy := *r.versions[vid]
		result = append(result, &versionCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].VersionNum < result[j].VersionNum
	})

	return result, nil
}

func (r *Repository) DeleteEntityVersion(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	version, exists := r.versions[id]
	if !exists {
		return simplestructure.ErrVersionNotFound
	}

	// A version pinned by any row must stay; unpinned references never
	// name version ids, so they do not block deletion.
	for _, rows := range r.rowsByList {
		for _, row := range rows {
			if row.PinnedVersionID != nil && *row.PinnedVersionID == id {
				return simplestructure.ErrVersionInUse
			}
		}
	}

	if entity, ok := r.entities[version.EntityID]; ok {
		if entity.DraftVersionID != nil && *entity.DraftVersionID == id {
			return simplestructure.ErrVersionInUse
		}
		if entity.PublishedVersionID != nil && *entity.PublishedVersionID == id {
			return simplestructure.ErrVersionInUse
		}
	}

	delete(r.versions, id)
	delete(r.containerVersions, id)
	delete(r.selectorVersions, id)

	ids := r.versionsByEntity[version.EntityID]
	for i, vid := range ids {
		if vid == id {
			r.versionsByEntity[version.EntityID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	return nil
}

func (r *Repository) SetDraft(ctx context.Context, entityID, versionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setPointerLocked(entityID, versionID, true)
}

func (r *Repository) SetPublished(ctx context.Context, entityID, versionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setPointerLocked(entityID, versionID, false)
}

func (r *Repository) setPointerLocked(entityID, versionID uuid.UUID, draft bool) error {
	entity, exists := r.entities[entityID]
	if !exists || entity.DeletedAt != nil {
		return simplestructure.ErrEntityNotFound
	}
	version, exists := r.versions[versionID]
	if !exists {
		return simplestructure.ErrVersionNotFound
	}
	if version.EntityID != entityID {
		return fmt.Errorf("version %s does not belong to entity %s", versionID, entityID)
	}

	id := versionID
	if draft {
		entity.DraftVersionID = &id
	} else {
		entity.PublishedVersionID = &id
	}
	return nil
}

// Entity list operations

func (r *Repository) CreateEntityList(ctx context.Context, rows []simplestructure.RowSpec) (*simplestructure.EntityList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, err := r.createEntityListLocked(rows)
	if err != nil {
		return nil, err
	}
	listCopy := *list
	return &listCopy, nil
}

func (r *Repository) createEntityListLocked(rows []simplestructure.RowSpec) (*simplestructure.EntityList, error) {
	if err := r.validateRowsLocked(rows); err != nil {
		return nil, err
	}

	list := &simplestructure.EntityList{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
	}

	stored := make([]simplestructure.ListRow, len(rows))
	for i, spec := range rows {
		var pinned *uuid.UUID
		if spec.PinnedVersionID != nil {
			id := *spec.PinnedVersionID
			pinned = &id
		}
		stored[i] = simplestructure.ListRow{
			ListID:          list.ID,
			Position:        i,
			EntityID:        spec.EntityID,
			PinnedVersionID: pinned,
		}
	}

	r.lists[list.ID] = list
	r.rowsByList[list.ID] = stored

	return list, nil
}

// validateRowsLocked rejects rows that name a missing entity or a pinned
// version owned by a different entity. Invalid rows are never stored.
func (r *Repository) validateRowsLocked(rows []simplestructure.RowSpec) error {
	for i, spec := range rows {
		entity, exists := r.entities[spec.EntityID]
		if !exists || entity.DeletedAt != nil {
			return &simplestructure.ReferentialError{
				Position: i,
				EntityID: spec.EntityID,
				Reason:   "entity does not exist",
			}
		}
		if spec.PinnedVersionID != nil {
			version, exists := r.versions[*spec.PinnedVersionID]
			if !exists {
				return &simplestructure.ReferentialError{
					Position:  i,
					EntityID:  spec.EntityID,
					VersionID: spec.PinnedVersionID,
					Reason:    "pinned version does not exist",
				}
			}
			if version.EntityID != spec.EntityID {
				return &simplestructure.ReferentialError{
					Position:  i,
					EntityID:  spec.EntityID,
					VersionID: spec.PinnedVersionID,
					Reason:    "pinned version belongs to a different entity",
				}
			}
		}
	}
	return nil
}

func (r *Repository) GetListRows(ctx context.Context, listID uuid.UUID) ([]simplestructure.ListRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, exists := r.rowsByList[listID]
	if !exists {
		return nil, simplestructure.ErrListNotFound
	}

	result := make([]simplestructure.ListRow, len(rows))
	copy(result, rows)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})

	return result, nil
}

// Container operations

func (r *Repository) CreateContainerVersion(ctx context.Context, params simplestructure.CreateContainerVersionParams) (*simplestructure.ContainerVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entity, exists := r.entities[params.ContainerID]
	if !exists || entity.DeletedAt != nil {
		return nil, simplestructure.ErrEntityNotFound
	}
	if entity.Kind != simplestructure.KindContainer {
		return nil, simplestructure.ErrNotContainer
	}

	// Find the prior version before inserting the new one: its defined
	// list becomes the new version's frozen list.
	prior := r.latestContainerVersionLocked(params.ContainerID)

	list, err := r.createEntityListLocked(params.Rows)
	if err != nil {
		return nil, err
	}

	version, err := r.createEntityVersionLocked(simplestructure.CreateEntityVersionParams{
		EntityID:   params.ContainerID,
		VersionNum: params.VersionNum,
		Title:      params.Title,
		CreatedBy:  params.CreatedBy,
	})
	if err != nil {
		// The list created above is unreachable and harmless in memory; a
		// transactional store rolls it back.
		delete(r.lists, list.ID)
		delete(r.rowsByList, list.ID)
		return nil, err
	}

	cv := &simplestructure.ContainerVersion{
		ID:            version.ID,
		ContainerID:   params.ContainerID,
		VersionNum:    version.VersionNum,
		Title:         version.Title,
		DefinedListID: list.ID,
		InitialListID: list.ID,
		CreatedAt:     version.CreatedAt,
		CreatedBy:     version.CreatedBy,
	}
	if prior != nil {
		cv.InitialListID = prior.InitialListID
		frozen := prior.DefinedListID
		cv.FrozenListID = &frozen
	}

	r.containerVersions[cv.ID] = cv

	cvCopy := *cv
	return &cvCopy, nil
}

func (r *Repository) latestContainerVersionLocked(containerID uuid.UUID) *simplestructure.ContainerVersion {
	var latest *simplestructure.ContainerVersion
	for _, vid := range r.versionsByEntity[containerID] {
		if cv, ok := r.containerVersions[vid]; ok {
			if latest == nil || cv.VersionNum > latest.VersionNum {
				latest = cv
			}
		}
	}
	return latest
}

func (r *Repository) GetContainerVersion(ctx context.Context, versionID uuid.UUID) (*simplestructure.ContainerVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cv, exists := r.containerVersions[versionID]
	if !exists {
		return nil, simplestructure.ErrContainerVersionNotFound
	}
	cvCopy := *cv
	return &cvCopy, nil
}

func (r *Repository) GetContainerVersionByNum(ctx context.Context, containerID uuid.UUID, versionNum int) (*simplestructure.ContainerVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, vid := range r.versionsByEntity[containerID] {
		if cv, ok := r.containerVersions[vid]; ok && cv.VersionNum == versionNum {
			cvCopy := *cv
			return &cvCopy, nil
		}
	}
	return nil, simplestructure.ErrContainerVersionNotFound
}

func (r *Repository) GetLatestContainerVersion(ctx context.Context, containerID uuid.UUID) (*simplestructure.ContainerVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := r.latestContainerVersionLocked(containerID)
	if latest == nil {
		return nil, simplestructure.ErrNoVersions
	}
	latestCopy := *latest
	return &latestCopy, nil
}

func (r *Repository) ListContainerVersions(ctx context.Context, containerID uuid.UUID) ([]*simplestructure.ContainerVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simplestructure.ContainerVersion
	for _, vid := range r.versionsByEntity[containerID] {
		if cv, ok := r.containerVersions[vid]; ok {
			cvCopy := *cv
			result = append(result, &cvCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].VersionNum < result[j].VersionNum
	})

	return result, nil
}

// Selector operations

func (r *Repository) CreateSelectorVersion(ctx context.Context, params simplestructure.CreateSelectorVersionParams) (*simplestructure.SelectorVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entity, exists := r.entities[params.SelectorID]
	if !exists || entity.DeletedAt != nil {
		return nil, simplestructure.ErrEntityNotFound
	}
	if entity.Kind != simplestructure.KindSelector {
		return nil, simplestructure.ErrNotSelector
	}

	version, err := r.createEntityVersionLocked(simplestructure.CreateEntityVersionParams{
		EntityID:   params.SelectorID,
		VersionNum: params.VersionNum,
		Title:      params.Title,
		CreatedBy:  params.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	sv := &simplestructure.SelectorVersion{
		ID:         version.ID,
		SelectorID: params.SelectorID,
		VersionNum: version.VersionNum,
		Title:      version.Title,
		OrderNum:   params.OrderNum,
		CreatedAt:  version.CreatedAt,
		CreatedBy:  version.CreatedBy,
	}

	r.selectorVersions[sv.ID] = sv

	svCopy := *sv
	return &svCopy, nil
}

func (r *Repository) GetSelectorVersion(ctx context.Context, versionID uuid.UUID) (*simplestructure.SelectorVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sv, exists := r.selectorVersions[versionID]
	if !exists {
		return nil, simplestructure.ErrSelectorVersionNotFound
	}
	svCopy := *sv
	return &svCopy, nil
}

func (r *Repository) CreateVariant(ctx context.Context, params simplestructure.CreateVariantParams) (*simplestructure.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.selectorVersions[params.SelectorVersionID]; !exists {
		return nil, simplestructure.ErrSelectorVersionNotFound
	}

	list, err := r.createEntityListLocked(params.Rows)
	if err != nil {
		return nil, err
	}

	variant := &simplestructure.Variant{
		ListID:            list.ID,
		SelectorVersionID: params.SelectorVersionID,
		Key:               params.Key,
		CreatedAt:         time.Now().UTC(),
	}

	r.variants[variant.ListID] = variant
	r.variantsBySelector[params.SelectorVersionID] = append(r.variantsBySelector[params.SelectorVersionID], variant.ListID)

	variantCopy := *variant
	return &variantCopy, nil
}

func (r *Repository) ListVariants(ctx context.Context, selectorVersionID uuid.UUID) ([]*simplestructure.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, exists := r.selectorVersions[selectorVersionID]; !exists {
		return nil, simplestructure.ErrSelectorVersionNotFound
	}

	var result []*simplestructure.Variant
	for _, listID := range r.variantsBySelector[selectorVersionID] {
		variantCopy := *r.variants[listID]
		result = append(result, &variantCopy)
	}

	return result, nil
}
