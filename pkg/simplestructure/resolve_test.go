package simplestructure_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authorkit/simple-structure/pkg/simplestructure"
)

func TestResolveModes(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	// A unit pinning component A to v1 while referencing component B
	// unpinned. A gains more versions; B is published at v1 and then gains
	// an unpublished draft.
	compA, aV1 := createComponent(t, svc, "A v1")
	compB, _ := createComponent(t, svc, "B v1")
	require.NoError(t, svc.Publish(ctx, compB.ID))

	_, err := svc.CreateEntityVersion(ctx, simplestructure.CreateEntityVersionRequest{
		EntityID: compA.ID,
		Title:    "A v2",
	})
	require.NoError(t, err)
	bV2, err := svc.CreateEntityVersion(ctx, simplestructure.CreateEntityVersionRequest{
		EntityID: compB.ID,
		Title:    "B v2",
	})
	require.NoError(t, err)

	_, cv, err := svc.CreateContainerAndVersion(ctx, simplestructure.CreateContainerAndVersionRequest{
		Title: "Unit 1",
		Rows: []simplestructure.RowSpec{
			{EntityID: compA.ID, PinnedVersionID: &aV1.ID},
			{EntityID: compB.ID},
		},
	})
	require.NoError(t, err)

	t.Run("pins override mode, unpinned rows follow it", func(t *testing.T) {
		draft, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: cv.ID,
			Mode:      simplestructure.ModeDraft,
		})
		require.NoError(t, err)
		require.Len(t, draft, 2)
		assert.Equal(t, aV1.ID, draft[0].VersionID)
		assert.True(t, draft[0].Pinned)
		assert.Equal(t, bV2.ID, draft[1].VersionID)
		assert.False(t, draft[1].Pinned)

		published, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: cv.ID,
			Mode:      simplestructure.ModePublished,
		})
		require.NoError(t, err)
		require.Len(t, published, 2)
		// The pin shows v1 even though component A was never published.
		assert.Equal(t, aV1.ID, published[0].VersionID)
		// The unpinned row follows B's published pointer, not its draft.
		assert.Equal(t, 1, published[1].VersionNum)
	})

	t.Run("entries keep position order", func(t *testing.T) {
		entries, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: cv.ID,
			Mode:      simplestructure.ModeDraft,
		})
		require.NoError(t, err)
		for i, e := range entries {
			assert.Equal(t, i, e.Position)
		}
	})

	t.Run("invalid mode", func(t *testing.T) {
		_, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: cv.ID,
			Mode:      "latest",
		})
		assert.Error(t, err)
	})

	t.Run("component versions do not resolve", func(t *testing.T) {
		_, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: aV1.ID,
			Mode:      simplestructure.ModeDraft,
		})
		assert.Error(t, err)
	})
}

func TestResolvePublishedOmitsUnpublished(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	compA, _ := createComponent(t, svc, "never published")
	compB, _ := createComponent(t, svc, "published")
	require.NoError(t, svc.Publish(ctx, compB.ID))

	_, cv, err := svc.CreateContainerAndVersion(ctx, simplestructure.CreateContainerAndVersionRequest{
		Title: "Unit",
		Rows: []simplestructure.RowSpec{
			{EntityID: compA.ID},
			{EntityID: compB.ID},
		},
	})
	require.NoError(t, err)

	entries, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
		VersionID: cv.ID,
		Mode:      simplestructure.ModePublished,
	})
	require.NoError(t, err)
	// The unpublished target is invisible rather than an error. The
	// surviving entry keeps its stored position.
	require.Len(t, entries, 1)
	assert.Equal(t, compB.ID, entries[0].EntityID)
	assert.Equal(t, 1, entries[0].Position)
}

func TestResolveDeep(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	comp, _ := createComponent(t, svc, "leaf")

	inner, innerCV, err := svc.CreateContainerAndVersion(ctx, simplestructure.CreateContainerAndVersionRequest{
		Title: "Inner",
		Rows:  []simplestructure.RowSpec{{EntityID: comp.ID}},
	})
	require.NoError(t, err)

	_, outerCV, err := svc.CreateContainerAndVersion(ctx, simplestructure.CreateContainerAndVersionRequest{
		Title: "Outer",
		Rows:  []simplestructure.RowSpec{{EntityID: inner.ID}},
	})
	require.NoError(t, err)

	t.Run("shallow stops at the nested container", func(t *testing.T) {
		entries, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: outerCV.ID,
			Mode:      simplestructure.ModeDraft,
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, simplestructure.KindContainer, entries[0].Kind)
		assert.Empty(t, entries[0].Children)
	})

	t.Run("deep expands children", func(t *testing.T) {
		entries, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: outerCV.ID,
			Mode:      simplestructure.ModeDraft,
			Deep:      true,
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, innerCV.ID, entries[0].VersionID)
		require.Len(t, entries[0].Children, 1)
		assert.Equal(t, comp.ID, entries[0].Children[0].EntityID)
	})
}

func TestResolveCycle(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	// A container version whose defined list pins that same version.
	container, cv1, err := svc.CreateContainerAndVersion(ctx, simplestructure.CreateContainerAndVersionRequest{
		Title: "Self",
		Rows:  nil,
	})
	require.NoError(t, err)

	pin := cv1.ID
	cv2, err := svc.CreateNextContainerVersion(ctx, simplestructure.CreateNextContainerVersionRequest{
		ContainerID: container.ID,
		Title:       "Self v2",
		Rows:        []simplestructure.RowSpec{{EntityID: container.ID, PinnedVersionID: &pin}},
	})
	require.NoError(t, err)

	t.Run("shallow self-reference is fine", func(t *testing.T) {
		entries, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: cv2.ID,
			Mode:      simplestructure.ModeDraft,
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("deep unpinned self-reference is a cycle", func(t *testing.T) {
		// cv2's draft pointer is cv2 itself, so the unpinned row recurses
		// into the version being resolved.
		cv3, err := svc.CreateNextContainerVersion(ctx, simplestructure.CreateNextContainerVersionRequest{
			ContainerID: container.ID,
			Title:       "Self v3",
			Rows:        []simplestructure.RowSpec{{EntityID: container.ID}},
		})
		require.NoError(t, err)

		_, err = svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: cv3.ID,
			Mode:      simplestructure.ModeDraft,
			Deep:      true,
		})

		var cycErr *simplestructure.CycleError
		require.ErrorAs(t, err, &cycErr)
		assert.Equal(t, container.ID, cycErr.EntityID)
	})

	t.Run("deep pin to an older version terminates", func(t *testing.T) {
		entries, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: cv2.ID,
			Mode:      simplestructure.ModeDraft,
			Deep:      true,
		})
		require.NoError(t, err)
		// cv2 pins cv1, whose list is empty: distinct versions of the same
		// entity on the path are not a cycle.
		require.Len(t, entries, 1)
		assert.Empty(t, entries[0].Children)
	})
}

func TestResolveMissingDraft(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	// An entity with no versions at all can still be referenced unpinned.
	// Its missing draft pointer is a data fault in draft mode and an
	// ordinary omission in published mode.
	bare, err := svc.CreateEntity(ctx, simplestructure.CreateEntityRequest{})
	require.NoError(t, err)

	_, cv, err := svc.CreateContainerAndVersion(ctx, simplestructure.CreateContainerAndVersionRequest{
		Title: "Unit",
		Rows:  []simplestructure.RowSpec{{EntityID: bare.ID}},
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, simplestructure.ResolveRequest{
		VersionID: cv.ID,
		Mode:      simplestructure.ModeDraft,
	})
	var draftErr *simplestructure.InconsistentDraftError
	require.ErrorAs(t, err, &draftErr)
	assert.Equal(t, bare.ID, draftErr.EntityID)

	entries, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
		VersionID: cv.ID,
		Mode:      simplestructure.ModePublished,
	})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResolveSelector(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	compA, _ := createComponent(t, svc, "A")
	compB, _ := createComponent(t, svc, "B")

	selector, err := svc.CreateSelector(ctx, simplestructure.CreateSelectorRequest{})
	require.NoError(t, err)
	sv, err := svc.CreateSelectorVersion(ctx, simplestructure.CreateSelectorVersionRequest{
		SelectorID: selector.ID,
		Title:      "AB test",
	})
	require.NoError(t, err)

	_, err = svc.AddVariant(ctx, simplestructure.AddVariantRequest{
		SelectorVersionID: sv.ID,
		Key:               "a",
		Rows:              []simplestructure.RowSpec{{EntityID: compA.ID}},
	})
	require.NoError(t, err)
	_, err = svc.AddVariant(ctx, simplestructure.AddVariantRequest{
		SelectorVersionID: sv.ID,
		Key:               "b",
		Rows:              []simplestructure.RowSpec{{EntityID: compB.ID}},
	})
	require.NoError(t, err)

	t.Run("policy picks exactly one variant", func(t *testing.T) {
		entries, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: sv.ID,
			Mode:      simplestructure.ModeDraft,
			Policy:    simplestructure.VariantKey("b"),
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, compB.ID, entries[0].EntityID)
	})

	t.Run("first-variant policy picks the control", func(t *testing.T) {
		entries, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: sv.ID,
			Mode:      simplestructure.ModeDraft,
			Policy:    simplestructure.FirstVariant(),
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, compA.ID, entries[0].EntityID)
	})

	t.Run("missing policy fails", func(t *testing.T) {
		_, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: sv.ID,
			Mode:      simplestructure.ModeDraft,
		})

		var selErr *simplestructure.SelectorUnresolvedError
		require.ErrorAs(t, err, &selErr)
		assert.Equal(t, 0, selErr.Matched)
	})

	t.Run("policy matching no variant fails", func(t *testing.T) {
		_, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: sv.ID,
			Mode:      simplestructure.ModeDraft,
			Policy:    simplestructure.VariantKey("missing"),
		})

		var selErr *simplestructure.SelectorUnresolvedError
		require.ErrorAs(t, err, &selErr)
		assert.Equal(t, 0, selErr.Matched)
	})

	t.Run("policy matching several variants fails", func(t *testing.T) {
		all := simplestructure.VariantPolicyFunc(func(ctx context.Context, sv *simplestructure.SelectorVersion, variants []*simplestructure.Variant) ([]*simplestructure.Variant, error) {
			return variants, nil
		})

		_, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: sv.ID,
			Mode:      simplestructure.ModeDraft,
			Policy:    all,
		})

		var selErr *simplestructure.SelectorUnresolvedError
		require.ErrorAs(t, err, &selErr)
		assert.Equal(t, 2, selErr.Matched)
	})

	t.Run("deep resolution through a nested selector", func(t *testing.T) {
		_, outerCV, err := svc.CreateContainerAndVersion(ctx, simplestructure.CreateContainerAndVersionRequest{
			Title: "Outer",
			Rows:  []simplestructure.RowSpec{{EntityID: selector.ID}},
		})
		require.NoError(t, err)

		entries, err := svc.Resolve(ctx, simplestructure.ResolveRequest{
			VersionID: outerCV.ID,
			Mode:      simplestructure.ModeDraft,
			Deep:      true,
			Policy:    simplestructure.VariantKey("a"),
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, simplestructure.KindSelector, entries[0].Kind)
		require.Len(t, entries[0].Children, 1)
		assert.Equal(t, compA.ID, entries[0].Children[0].EntityID)
	})
}
