package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authorkit/simple-structure/pkg/simplestructure"
	"github.com/authorkit/simple-structure/pkg/simplestructure/repo/memory"
)

func newEntity(kind simplestructure.EntityKind) *simplestructure.Entity {
	return &simplestructure.Entity{
		ID:        uuid.New(),
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
}

func TestEntityCRUD(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	entity := newEntity(simplestructure.KindComponent)
	entity.Key = "crud"
	require.NoError(t, repo.CreateEntity(ctx, entity))

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := repo.GetEntity(ctx, entity.ID)
		require.NoError(t, err)

		got.Key = "mutated"
		again, err := repo.GetEntity(ctx, entity.ID)
		require.NoError(t, err)
		assert.Equal(t, "crud", again.Key)
	})

	t.Run("duplicate key rejected", func(t *testing.T) {
		dup := newEntity(simplestructure.KindComponent)
		dup.Key = "crud"
		err := repo.CreateEntity(ctx, dup)
		assert.ErrorIs(t, err, simplestructure.ErrKeyExists)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetEntity(ctx, uuid.New())
		assert.ErrorIs(t, err, simplestructure.ErrEntityNotFound)
	})

	t.Run("soft delete hides the entity", func(t *testing.T) {
		doomed := newEntity(simplestructure.KindComponent)
		require.NoError(t, repo.CreateEntity(ctx, doomed))
		require.NoError(t, repo.DeleteEntity(ctx, doomed.ID))

		_, err := repo.GetEntity(ctx, doomed.ID)
		assert.ErrorIs(t, err, simplestructure.ErrEntityNotFound)

		err = repo.DeleteEntity(ctx, doomed.ID)
		assert.ErrorIs(t, err, simplestructure.ErrEntityNotFound)
	})
}

func TestVersionNumbering(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	entity := newEntity(simplestructure.KindComponent)
	require.NoError(t, repo.CreateEntity(ctx, entity))

	v1, err := repo.CreateEntityVersion(ctx, simplestructure.CreateEntityVersionParams{EntityID: entity.ID, Title: "one"})
	require.NoError(t, err)
	assert.Equal(t, 1, v1.VersionNum)

	v2, err := repo.CreateEntityVersion(ctx, simplestructure.CreateEntityVersionParams{EntityID: entity.ID, Title: "two"})
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNum)

	t.Run("explicit duplicate conflicts", func(t *testing.T) {
		_, err := repo.CreateEntityVersion(ctx, simplestructure.CreateEntityVersionParams{
			EntityID:   entity.ID,
			VersionNum: 2,
			Title:      "dup",
		})
		assert.ErrorIs(t, err, simplestructure.ErrVersionConflict)
	})

	t.Run("list sorted by number", func(t *testing.T) {
		versions, err := repo.ListEntityVersions(ctx, entity.ID)
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.Equal(t, 1, versions[0].VersionNum)
		assert.Equal(t, 2, versions[1].VersionNum)
	})

	t.Run("lookup by number", func(t *testing.T) {
		got, err := repo.GetEntityVersionByNum(ctx, entity.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, v2.ID, got.ID)
	})

	t.Run("concurrent writers never share a number", func(t *testing.T) {
		target := newEntity(simplestructure.KindComponent)
		require.NoError(t, repo.CreateEntity(ctx, target))

		const writers = 16
		nums := make(chan int, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := repo.CreateEntityVersion(ctx, simplestructure.CreateEntityVersionParams{
					EntityID: target.ID,
					Title:    "concurrent",
				})
				if err == nil {
					nums <- v.VersionNum
				}
			}()
		}
		wg.Wait()
		close(nums)

		seen := map[int]bool{}
		count := 0
		for n := range nums {
			assert.False(t, seen[n], "version number %d assigned twice", n)
			seen[n] = true
			count++
		}
		assert.Equal(t, writers, count)
	})
}

func TestDraftAndPublishedPointers(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	entity := newEntity(simplestructure.KindComponent)
	require.NoError(t, repo.CreateEntity(ctx, entity))

	v1, err := repo.CreateEntityVersion(ctx, simplestructure.CreateEntityVersionParams{EntityID: entity.ID, Title: "one"})
	require.NoError(t, err)

	t.Run("creation moves the draft", func(t *testing.T) {
		got, err := repo.GetEntity(ctx, entity.ID)
		require.NoError(t, err)
		require.NotNil(t, got.DraftVersionID)
		assert.Equal(t, v1.ID, *got.DraftVersionID)
	})

	t.Run("set published", func(t *testing.T) {
		require.NoError(t, repo.SetPublished(ctx, entity.ID, v1.ID))

		got, err := repo.GetEntity(ctx, entity.ID)
		require.NoError(t, err)
		require.NotNil(t, got.PublishedVersionID)
		assert.Equal(t, v1.ID, *got.PublishedVersionID)
	})

	t.Run("pointer must stay within the entity", func(t *testing.T) {
		other := newEntity(simplestructure.KindComponent)
		require.NoError(t, repo.CreateEntity(ctx, other))

		err := repo.SetDraft(ctx, other.ID, v1.ID)
		assert.Error(t, err)
	})
}

func TestEntityLists(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	compA := newEntity(simplestructure.KindComponent)
	compB := newEntity(simplestructure.KindComponent)
	require.NoError(t, repo.CreateEntity(ctx, compA))
	require.NoError(t, repo.CreateEntity(ctx, compB))

	aV1, err := repo.CreateEntityVersion(ctx, simplestructure.CreateEntityVersionParams{EntityID: compA.ID, Title: "A"})
	require.NoError(t, err)

	t.Run("rows get sequential positions", func(t *testing.T) {
		list, err := repo.CreateEntityList(ctx, []simplestructure.RowSpec{
			{EntityID: compA.ID, PinnedVersionID: &aV1.ID},
			{EntityID: compB.ID},
		})
		require.NoError(t, err)

		rows, err := repo.GetListRows(ctx, list.ID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 0, rows[0].Position)
		assert.Equal(t, 1, rows[1].Position)
		require.NotNil(t, rows[0].PinnedVersionID)
		assert.Equal(t, aV1.ID, *rows[0].PinnedVersionID)
		assert.Nil(t, rows[1].PinnedVersionID)
	})

	t.Run("missing entity rejected", func(t *testing.T) {
		_, err := repo.CreateEntityList(ctx, []simplestructure.RowSpec{{EntityID: uuid.New()}})

		var refErr *simplestructure.ReferentialError
		require.ErrorAs(t, err, &refErr)
	})

	t.Run("foreign pin rejected", func(t *testing.T) {
		_, err := repo.CreateEntityList(ctx, []simplestructure.RowSpec{
			{EntityID: compB.ID, PinnedVersionID: &aV1.ID},
		})

		var refErr *simplestructure.ReferentialError
		require.ErrorAs(t, err, &refErr)
		assert.Contains(t, refErr.Reason, "different entity")
	})

	t.Run("unknown list", func(t *testing.T) {
		_, err := repo.GetListRows(ctx, uuid.New())
		assert.ErrorIs(t, err, simplestructure.ErrListNotFound)
	})
}

func TestContainerVersionChain(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	container := newEntity(simplestructure.KindContainer)
	comp := newEntity(simplestructure.KindComponent)
	require.NoError(t, repo.CreateEntity(ctx, container))
	require.NoError(t, repo.CreateEntity(ctx, comp))

	cv1, err := repo.CreateContainerVersion(ctx, simplestructure.CreateContainerVersionParams{
		ContainerID: container.ID,
		Title:       "v1",
		Rows:        []simplestructure.RowSpec{{EntityID: comp.ID}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cv1.VersionNum)
	assert.Equal(t, cv1.DefinedListID, cv1.InitialListID)
	assert.Nil(t, cv1.FrozenListID)

	cv2, err := repo.CreateContainerVersion(ctx, simplestructure.CreateContainerVersionParams{
		ContainerID: container.ID,
		Title:       "v2",
		Rows:        nil,
	})
	require.NoError(t, err)
	assert.Equal(t, cv1.InitialListID, cv2.InitialListID)
	require.NotNil(t, cv2.FrozenListID)
	assert.Equal(t, cv1.DefinedListID, *cv2.FrozenListID)

	t.Run("non-container rejected", func(t *testing.T) {
		_, err := repo.CreateContainerVersion(ctx, simplestructure.CreateContainerVersionParams{
			ContainerID: comp.ID,
			Title:       "nope",
		})
		assert.ErrorIs(t, err, simplestructure.ErrNotContainer)
	})

	t.Run("failed version leaves no partial list", func(t *testing.T) {
		_, err := repo.CreateContainerVersion(ctx, simplestructure.CreateContainerVersionParams{
			ContainerID: container.ID,
			VersionNum:  2,
			Title:       "dup",
		})
		assert.ErrorIs(t, err, simplestructure.ErrVersionConflict)

		latest, err := repo.GetLatestContainerVersion(ctx, container.ID)
		require.NoError(t, err)
		assert.Equal(t, cv2.ID, latest.ID)
	})
}

func TestDeleteRestrictions(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	comp := newEntity(simplestructure.KindComponent)
	require.NoError(t, repo.CreateEntity(ctx, comp))
	v1, err := repo.CreateEntityVersion(ctx, simplestructure.CreateEntityVersionParams{EntityID: comp.ID, Title: "v1"})
	require.NoError(t, err)

	_, err = repo.CreateEntityList(ctx, []simplestructure.RowSpec{
		{EntityID: comp.ID, PinnedVersionID: &v1.ID},
	})
	require.NoError(t, err)

	t.Run("referenced entity", func(t *testing.T) {
		err := repo.DeleteEntity(ctx, comp.ID)
		assert.ErrorIs(t, err, simplestructure.ErrEntityInUse)
	})

	t.Run("pinned version", func(t *testing.T) {
		err := repo.DeleteEntityVersion(ctx, v1.ID)
		assert.ErrorIs(t, err, simplestructure.ErrVersionInUse)
	})
}

func TestVariants(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	selector := newEntity(simplestructure.KindSelector)
	comp := newEntity(simplestructure.KindComponent)
	require.NoError(t, repo.CreateEntity(ctx, selector))
	require.NoError(t, repo.CreateEntity(ctx, comp))

	sv, err := repo.CreateSelectorVersion(ctx, simplestructure.CreateSelectorVersionParams{
		SelectorID: selector.ID,
		Title:      "experiment",
	})
	require.NoError(t, err)

	first, err := repo.CreateVariant(ctx, simplestructure.CreateVariantParams{
		SelectorVersionID: sv.ID,
		Key:               "first",
		Rows:              []simplestructure.RowSpec{{EntityID: comp.ID}},
	})
	require.NoError(t, err)

	second, err := repo.CreateVariant(ctx, simplestructure.CreateVariantParams{
		SelectorVersionID: sv.ID,
		Key:               "second",
	})
	require.NoError(t, err)

	t.Run("listed in creation order", func(t *testing.T) {
		variants, err := repo.ListVariants(ctx, sv.ID)
		require.NoError(t, err)
		require.Len(t, variants, 2)
		assert.Equal(t, first.ListID, variants[0].ListID)
		assert.Equal(t, second.ListID, variants[1].ListID)
	})

	t.Run("unknown selector version", func(t *testing.T) {
		_, err := repo.ListVariants(ctx, uuid.New())
		assert.ErrorIs(t, err, simplestructure.ErrSelectorVersionNotFound)

		_, err = repo.CreateVariant(ctx, simplestructure.CreateVariantParams{SelectorVersionID: uuid.New()})
		assert.ErrorIs(t, err, simplestructure.ErrSelectorVersionNotFound)
	})
}
