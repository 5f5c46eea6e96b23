package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authorkit/simple-structure/pkg/simplestructure"
	"github.com/authorkit/simple-structure/pkg/simplestructure/repo/memory"
)

// setupHandlerTest creates a StructureHandler backed by the in-memory repository
func setupHandlerTest(t *testing.T) (chi.Router, simplestructure.Service) {
	svc, err := simplestructure.New(simplestructure.WithRepository(memory.New()))
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Mount("/", NewStructureHandler(svc).Routes())
	return router, svc
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func TestCreateEntityEndpoint(t *testing.T) {
	router, _ := setupHandlerTest(t)

	w := doJSON(t, router, http.MethodPost, "/entities", CreateEntityRequest{Key: "welcome"})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decode[EntityResponse](t, w)
	assert.Equal(t, "component", resp.Kind)
	assert.Equal(t, "welcome", resp.Key)
	assert.NotEmpty(t, resp.ID)

	t.Run("duplicate key conflicts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/entities", CreateEntityRequest{Key: "welcome"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/entities", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEntityVersionEndpoints(t *testing.T) {
	router, _ := setupHandlerTest(t)

	entity := decode[EntityResponse](t, doJSON(t, router, http.MethodPost, "/entities", CreateEntityRequest{}))

	w := doJSON(t, router, http.MethodPost, "/entities/"+entity.ID+"/versions", CreateEntityVersionRequest{Title: "first"})
	require.Equal(t, http.StatusCreated, w.Code)
	v1 := decode[VersionResponse](t, w)
	assert.Equal(t, 1, v1.VersionNum)

	w = doJSON(t, router, http.MethodPost, "/entities/"+entity.ID+"/versions", CreateEntityVersionRequest{Title: "second"})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("list versions", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/entities/"+entity.ID+"/versions", nil)
		require.Equal(t, http.StatusOK, w.Code)
		versions := decode[[]VersionResponse](t, w)
		require.Len(t, versions, 2)
	})

	t.Run("publish", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/entities/"+entity.ID+"/publish", nil)
		require.Equal(t, http.StatusOK, w.Code)
		published := decode[EntityResponse](t, w)
		assert.NotEmpty(t, published.PublishedVersionID)
		assert.Equal(t, published.DraftVersionID, published.PublishedVersionID)
	})

	t.Run("duplicate version number conflicts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/entities/"+entity.ID+"/versions", CreateEntityVersionRequest{
			Title:      "dup",
			VersionNum: 1,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown entity", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/entities/00000000-0000-0000-0000-000000000001", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/entities/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestContainerEndpoints(t *testing.T) {
	router, _ := setupHandlerTest(t)

	comp := decode[EntityResponse](t, doJSON(t, router, http.MethodPost, "/entities", CreateEntityRequest{}))
	compV := decode[VersionResponse](t, doJSON(t, router, http.MethodPost, "/entities/"+comp.ID+"/versions", CreateEntityVersionRequest{Title: "leaf"}))

	w := doJSON(t, router, http.MethodPost, "/containers", CreateEntityRequest{Key: "unit-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	container := decode[EntityResponse](t, w)
	assert.Equal(t, "container", container.Kind)

	w = doJSON(t, router, http.MethodPost, "/containers/"+container.ID+"/versions", CreateContainerVersionRequest{
		Title: "Unit 1",
		Rows: []RowRequest{
			{EntityID: comp.ID, PinnedVersionID: compV.ID},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	cv := decode[ContainerVersionResponse](t, w)
	assert.Equal(t, 1, cv.VersionNum)
	assert.Equal(t, cv.DefinedListID, cv.InitialListID)
	assert.Empty(t, cv.FrozenListID)

	t.Run("get by number", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/containers/%s/versions/1", container.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[ContainerVersionResponse](t, w)
		assert.Equal(t, cv.ID, got.ID)
	})

	t.Run("rows", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/containers/%s/versions/1/rows", container.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		rows := decode[[]RowResponse](t, w)
		require.Len(t, rows, 1)
		assert.Equal(t, comp.ID, rows[0].EntityID)
		assert.Equal(t, compV.ID, rows[0].PinnedVersionID)
	})

	t.Run("invalid list name", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/containers/%s/versions/1/rows?list=final", container.ID), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("row naming a missing entity", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/containers/"+container.ID+"/versions", CreateContainerVersionRequest{
			Title: "bad",
			Rows:  []RowRequest{{EntityID: "00000000-0000-0000-0000-000000000009"}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("version on a component is rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/containers/"+comp.ID+"/versions", CreateContainerVersionRequest{Title: "nope"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestResolveEndpoint(t *testing.T) {
	router, _ := setupHandlerTest(t)

	comp := decode[EntityResponse](t, doJSON(t, router, http.MethodPost, "/entities", CreateEntityRequest{}))
	doJSON(t, router, http.MethodPost, "/entities/"+comp.ID+"/versions", CreateEntityVersionRequest{Title: "leaf"})

	container := decode[EntityResponse](t, doJSON(t, router, http.MethodPost, "/containers", CreateEntityRequest{}))
	cv := decode[ContainerVersionResponse](t, doJSON(t, router, http.MethodPost, "/containers/"+container.ID+"/versions", CreateContainerVersionRequest{
		Title: "Unit",
		Rows:  []RowRequest{{EntityID: comp.ID}},
	}))

	t.Run("draft resolution", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/resolve/"+cv.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		entries := decode[[]ResolvedEntryResponse](t, w)
		require.Len(t, entries, 1)
		assert.Equal(t, comp.ID, entries[0].EntityID)
		assert.Equal(t, 1, entries[0].VersionNum)
	})

	t.Run("published resolution omits the unpublished component", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/resolve/"+cv.ID+"?mode=published", nil)
		require.Equal(t, http.StatusOK, w.Code)
		entries := decode[[]ResolvedEntryResponse](t, w)
		assert.Empty(t, entries)
	})

	t.Run("selector without variant parameter", func(t *testing.T) {
		selector := decode[EntityResponse](t, doJSON(t, router, http.MethodPost, "/selectors", CreateEntityRequest{}))
		sv := decode[VersionResponse](t, doJSON(t, router, http.MethodPost, "/selectors/"+selector.ID+"/versions", CreateSelectorVersionRequest{Title: "exp"}))

		w := doJSON(t, router, http.MethodPost, "/selector-versions/"+sv.ID+"/variants", AddVariantRequest{
			Key:  "control",
			Rows: []RowRequest{{EntityID: comp.ID}},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(t, router, http.MethodGet, "/resolve/"+sv.ID, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		w = doJSON(t, router, http.MethodGet, "/resolve/"+sv.ID+"?variant=control", nil)
		require.Equal(t, http.StatusOK, w.Code)
		entries := decode[[]ResolvedEntryResponse](t, w)
		require.Len(t, entries, 1)
	})

	t.Run("unknown version", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/resolve/00000000-0000-0000-0000-000000000042", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
