package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/authorkit/simple-structure/pkg/simplestructure"
)

// StructureHandler handles HTTP requests for entities, containers and selectors
// using pkg/simplestructure
type StructureHandler struct {
	service simplestructure.Service
}

// NewStructureHandler creates a new structure handler
func NewStructureHandler(service simplestructure.Service) *StructureHandler {
	return &StructureHandler{service: service}
}

// Routes returns the routes for structure operations
func (h *StructureHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/entities", h.CreateEntity)
	r.Get("/entities/{id}", h.GetEntity)
	r.Delete("/entities/{id}", h.DeleteEntity)
	r.Post("/entities/{id}/versions", h.CreateEntityVersion)
	r.Get("/entities/{id}/versions", h.ListEntityVersions)
	r.Post("/entities/{id}/publish", h.PublishEntity)

	r.Post("/containers", h.CreateContainer)
	r.Post("/containers/{id}/versions", h.CreateContainerVersion)
	r.Get("/containers/{id}/versions/{num}", h.GetContainerVersion)
	r.Get("/containers/{id}/versions/{num}/rows", h.GetContainerVersionRows)

	r.Post("/selectors", h.CreateSelector)
	r.Post("/selectors/{id}/versions", h.CreateSelectorVersion)
	r.Post("/selector-versions/{id}/variants", h.AddVariant)
	r.Get("/selector-versions/{id}/variants", h.ListVariants)

	r.Get("/resolve/{versionID}", h.Resolve)

	return r
}

// EntityResponse is the response body for an entity
type EntityResponse struct {
	ID                 string    `json:"id"`
	Kind               string    `json:"kind"`
	Key                string    `json:"key,omitempty"`
	DraftVersionID     string    `json:"draft_version_id,omitempty"`
	PublishedVersionID string    `json:"published_version_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	CreatedBy          string    `json:"created_by,omitempty"`
}

// VersionResponse is the response body for an entity version
type VersionResponse struct {
	ID         string    `json:"id"`
	EntityID   string    `json:"entity_id"`
	VersionNum int       `json:"version_num"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `json:"created_by,omitempty"`
}

// ContainerVersionResponse is the response body for a container version
type ContainerVersionResponse struct {
	ID            string    `json:"id"`
	ContainerID   string    `json:"container_id"`
	VersionNum    int       `json:"version_num"`
	Title         string    `json:"title"`
	DefinedListID string    `json:"defined_list_id"`
	InitialListID string    `json:"initial_list_id"`
	FrozenListID  string    `json:"frozen_list_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// RowResponse is the response body for a single list row
type RowResponse struct {
	Position        int    `json:"position"`
	EntityID        string `json:"entity_id"`
	PinnedVersionID string `json:"pinned_version_id,omitempty"`
}

// RowRequest describes one row when creating a container version
type RowRequest struct {
	EntityID        string `json:"entity_id"`
	PinnedVersionID string `json:"pinned_version_id,omitempty"`
}

// VariantResponse is the response body for a selector variant
type VariantResponse struct {
	ListID            string    `json:"list_id"`
	SelectorVersionID string    `json:"selector_version_id"`
	Key               string    `json:"key,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// ResolvedEntryResponse is one entry of a resolution result
type ResolvedEntryResponse struct {
	Position   int                     `json:"position"`
	EntityID   string                  `json:"entity_id"`
	Kind       string                  `json:"kind"`
	VersionID  string                  `json:"version_id"`
	VersionNum int                     `json:"version_num"`
	Title      string                  `json:"title"`
	Pinned     bool                    `json:"pinned"`
	Children   []ResolvedEntryResponse `json:"children,omitempty"`
}

// CreateEntityRequest is the request body for creating an entity
type CreateEntityRequest struct {
	Kind      string `json:"kind,omitempty"`
	Key       string `json:"key,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
}

// CreateEntityVersionRequest is the request body for creating an entity version
type CreateEntityVersionRequest struct {
	Title      string `json:"title"`
	VersionNum int    `json:"version_num,omitempty"`
	CreatedBy  string `json:"created_by,omitempty"`
}

// CreateContainerVersionRequest is the request body for creating a container version
type CreateContainerVersionRequest struct {
	Title      string       `json:"title"`
	VersionNum int          `json:"version_num,omitempty"`
	Rows       []RowRequest `json:"rows"`
	CreatedBy  string       `json:"created_by,omitempty"`
}

// CreateSelectorVersionRequest is the request body for creating a selector version
type CreateSelectorVersionRequest struct {
	Title      string `json:"title"`
	VersionNum int    `json:"version_num,omitempty"`
	OrderNum   int    `json:"order_num,omitempty"`
	CreatedBy  string `json:"created_by,omitempty"`
}

// AddVariantRequest is the request body for adding a variant to a selector version
type AddVariantRequest struct {
	Key  string       `json:"key,omitempty"`
	Rows []RowRequest `json:"rows"`
}

// CreateEntity creates a new entity
func (h *StructureHandler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	var req CreateEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entity, err := h.service.CreateEntity(r.Context(), simplestructure.CreateEntityRequest{
		Kind:      simplestructure.EntityKind(req.Kind),
		Key:       req.Key,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		slog.Error("Failed to create entity", "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toEntityResponse(entity))
}

// GetEntity returns an entity by ID
func (h *StructureHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	entity, err := h.service.GetEntity(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, toEntityResponse(entity))
}

// DeleteEntity soft-deletes an entity
func (h *StructureHandler) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteEntity(r.Context(), id); err != nil {
		slog.Error("Failed to delete entity", "entity_id", id, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateEntityVersion creates a new version of a component entity
func (h *StructureHandler) CreateEntityVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req CreateEntityVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	version, err := h.service.CreateEntityVersion(r.Context(), simplestructure.CreateEntityVersionRequest{
		EntityID:   id,
		Title:      req.Title,
		VersionNum: req.VersionNum,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		slog.Error("Failed to create entity version", "entity_id", id, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toVersionResponse(version))
}

// ListEntityVersions lists all versions of an entity
func (h *StructureHandler) ListEntityVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	versions, err := h.service.ListEntityVersions(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	resp := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		resp = append(resp, toVersionResponse(v))
	}
	render.JSON(w, r, resp)
}

// PublishEntity advances the published pointer to the current draft
func (h *StructureHandler) PublishEntity(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Publish(r.Context(), id); err != nil {
		slog.Error("Failed to publish entity", "entity_id", id, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	entity, err := h.service.GetEntity(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	render.JSON(w, r, toEntityResponse(entity))
}

// CreateContainer creates a new container entity
func (h *StructureHandler) CreateContainer(w http.ResponseWriter, r *http.Request) {
	var req CreateEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entity, err := h.service.CreateContainer(r.Context(), simplestructure.CreateContainerRequest{
		Key:       req.Key,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		slog.Error("Failed to create container", "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toEntityResponse(entity))
}

// CreateContainerVersion creates a new version of a container with its rows
func (h *StructureHandler) CreateContainerVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req CreateContainerVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := toRowSpecs(req.Rows)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cv, err := h.service.CreateContainerVersion(r.Context(), simplestructure.CreateContainerVersionRequest{
		ContainerID: id,
		Title:       req.Title,
		VersionNum:  req.VersionNum,
		Rows:        rows,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		slog.Error("Failed to create container version", "container_id", id, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toContainerVersionResponse(cv))
}

// GetContainerVersion returns one numbered version of a container
func (h *StructureHandler) GetContainerVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	num, ok := parseIntParam(w, r, "num")
	if !ok {
		return
	}

	cv, err := h.service.ContainerVersionByNumber(r.Context(), id, num)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, toContainerVersionResponse(cv))
}

// GetContainerVersionRows returns the rows of one of a container version's
// lists. The "list" query parameter selects defined (default), initial or
// frozen.
func (h *StructureHandler) GetContainerVersionRows(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	num, ok := parseIntParam(w, r, "num")
	if !ok {
		return
	}

	cv, err := h.service.ContainerVersionByNumber(r.Context(), id, num)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	var rows []simplestructure.ListRow
	switch list := r.URL.Query().Get("list"); list {
	case "", "defined":
		rows, err = h.service.DefinedRows(r.Context(), cv.ID)
	case "initial":
		rows, err = h.service.InitialRows(r.Context(), cv.ID)
	case "frozen":
		rows, err = h.service.FrozenRows(r.Context(), cv.ID)
	default:
		http.Error(w, "invalid list: "+list, http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	resp := make([]RowResponse, 0, len(rows))
	for i := range rows {
		resp = append(resp, toRowResponse(&rows[i]))
	}
	render.JSON(w, r, resp)
}

// CreateSelector creates a new selector entity
func (h *StructureHandler) CreateSelector(w http.ResponseWriter, r *http.Request) {
	var req CreateEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entity, err := h.service.CreateSelector(r.Context(), simplestructure.CreateSelectorRequest{
		Key:       req.Key,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		slog.Error("Failed to create selector", "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toEntityResponse(entity))
}

// CreateSelectorVersion creates a new version of a selector
func (h *StructureHandler) CreateSelectorVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req CreateSelectorVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sv, err := h.service.CreateSelectorVersion(r.Context(), simplestructure.CreateSelectorVersionRequest{
		SelectorID: id,
		Title:      req.Title,
		VersionNum: req.VersionNum,
		OrderNum:   req.OrderNum,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		slog.Error("Failed to create selector version", "selector_id", id, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, VersionResponse{
		ID:         sv.ID.String(),
		EntityID:   sv.SelectorID.String(),
		VersionNum: sv.VersionNum,
		Title:      sv.Title,
		CreatedAt:  sv.CreatedAt,
		CreatedBy:  sv.CreatedBy,
	})
}

// AddVariant attaches a new variant list to a selector version
func (h *StructureHandler) AddVariant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req AddVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := toRowSpecs(req.Rows)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	variant, err := h.service.AddVariant(r.Context(), simplestructure.AddVariantRequest{
		SelectorVersionID: id,
		Key:               req.Key,
		Rows:              rows,
	})
	if err != nil {
		slog.Error("Failed to add variant", "selector_version_id", id, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toVariantResponse(variant))
}

// ListVariants lists the variants of a selector version
func (h *StructureHandler) ListVariants(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	variants, err := h.service.Variants(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	resp := make([]VariantResponse, 0, len(variants))
	for _, v := range variants {
		resp = append(resp, toVariantResponse(v))
	}
	render.JSON(w, r, resp)
}

// Resolve resolves a container or selector version into its effective entries.
// Query parameters: mode (draft|published, default draft), deep (bool),
// variant (selects variants by key; resolution of selectors fails without it).
func (h *StructureHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	versionID, ok := parseIDParam(w, r, "versionID")
	if !ok {
		return
	}

	mode := simplestructure.ResolutionMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = simplestructure.ModeDraft
	}

	deep := r.URL.Query().Get("deep") == "true"

	var policy simplestructure.VariantPolicy
	if key := r.URL.Query().Get("variant"); key != "" {
		policy = simplestructure.VariantKey(key)
	}

	entries, err := h.service.Resolve(r.Context(), simplestructure.ResolveRequest{
		VersionID: versionID,
		Mode:      mode,
		Deep:      deep,
		Policy:    policy,
	})
	if err != nil {
		slog.Error("Failed to resolve version", "version_id", versionID, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, toResolvedEntries(entries))
}

// statusForError maps service errors to HTTP status codes
func statusForError(err error) int {
	var refErr *simplestructure.ReferentialError
	var selErr *simplestructure.SelectorUnresolvedError
	var cycErr *simplestructure.CycleError
	var draftErr *simplestructure.InconsistentDraftError

	switch {
	case errors.Is(err, simplestructure.ErrEntityNotFound),
		errors.Is(err, simplestructure.ErrVersionNotFound),
		errors.Is(err, simplestructure.ErrContainerVersionNotFound),
		errors.Is(err, simplestructure.ErrSelectorVersionNotFound),
		errors.Is(err, simplestructure.ErrListNotFound),
		errors.Is(err, simplestructure.ErrVariantNotFound),
		errors.Is(err, simplestructure.ErrNoVersions):
		return http.StatusNotFound
	case errors.Is(err, simplestructure.ErrKeyExists),
		errors.Is(err, simplestructure.ErrVersionConflict),
		errors.Is(err, simplestructure.ErrEntityInUse),
		errors.Is(err, simplestructure.ErrVersionInUse):
		return http.StatusConflict
	case errors.Is(err, simplestructure.ErrNotContainer),
		errors.Is(err, simplestructure.ErrNotSelector),
		errors.As(err, &refErr):
		return http.StatusBadRequest
	case errors.As(err, &selErr),
		errors.As(err, &cycErr),
		errors.As(err, &draftErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		slog.Error("Invalid ID", "param", name, "value", raw, "error", err)
		http.Error(w, "Invalid "+name, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	num, err := strconv.Atoi(raw)
	if err != nil || num < 1 {
		http.Error(w, "Invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return num, true
}

func toRowSpecs(rows []RowRequest) ([]simplestructure.RowSpec, error) {
	specs := make([]simplestructure.RowSpec, 0, len(rows))
	for _, row := range rows {
		entityID, err := uuid.Parse(row.EntityID)
		if err != nil {
			return nil, errors.New("invalid entity_id: " + row.EntityID)
		}
		spec := simplestructure.RowSpec{EntityID: entityID}
		if row.PinnedVersionID != "" {
			pinned, err := uuid.Parse(row.PinnedVersionID)
			if err != nil {
				return nil, errors.New("invalid pinned_version_id: " + row.PinnedVersionID)
			}
			spec.PinnedVersionID = &pinned
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func toEntityResponse(e *simplestructure.Entity) EntityResponse {
	resp := EntityResponse{
		ID:        e.ID.String(),
		Kind:      string(e.Kind),
		Key:       e.Key,
		CreatedAt: e.CreatedAt,
		CreatedBy: e.CreatedBy,
	}
	if e.DraftVersionID != nil {
		resp.DraftVersionID = e.DraftVersionID.String()
	}
	if e.PublishedVersionID != nil {
		resp.PublishedVersionID = e.PublishedVersionID.String()
	}
	return resp
}

func toVersionResponse(v *simplestructure.EntityVersion) VersionResponse {
	return VersionResponse{
		ID:         v.ID.String(),
		EntityID:   v.EntityID.String(),
		VersionNum: v.VersionNum,
		Title:      v.Title,
		CreatedAt:  v.CreatedAt,
		CreatedBy:  v.CreatedBy,
	}
}

func toContainerVersionResponse(cv *simplestructure.ContainerVersion) ContainerVersionResponse {
	resp := ContainerVersionResponse{
		ID:            cv.ID.String(),
		ContainerID:   cv.ContainerID.String(),
		VersionNum:    cv.VersionNum,
		Title:         cv.Title,
		DefinedListID: cv.DefinedListID.String(),
		InitialListID: cv.InitialListID.String(),
		CreatedAt:     cv.CreatedAt,
	}
	if cv.FrozenListID != nil {
		resp.FrozenListID = cv.FrozenListID.String()
	}
	return resp
}

func toRowResponse(row *simplestructure.ListRow) RowResponse {
	resp := RowResponse{
		Position: row.Position,
		EntityID: row.EntityID.String(),
	}
	if row.PinnedVersionID != nil {
		resp.PinnedVersionID = row.PinnedVersionID.String()
	}
	return resp
}

func toVariantResponse(v *simplestructure.Variant) VariantResponse {
	return VariantResponse{
		ListID:            v.ListID.String(),
		SelectorVersionID: v.SelectorVersionID.String(),
		Key:               v.Key,
		CreatedAt:         v.CreatedAt,
	}
}

func toResolvedEntries(entries []simplestructure.ResolvedEntry) []ResolvedEntryResponse {
	resp := make([]ResolvedEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, ResolvedEntryResponse{
			Position:   e.Position,
			EntityID:   e.EntityID.String(),
			Kind:       string(e.Kind),
			VersionID:  e.VersionID.String(),
			VersionNum: e.VersionNum,
			Title:      e.Title,
			Pinned:     e.Pinned,
			Children:   toResolvedEntries(e.Children),
		})
	}
	return resp
}
