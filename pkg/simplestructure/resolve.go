package simplestructure

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// pathKey identifies one (entity, version) pair on the active recursion
// path of a deep resolution.
type pathKey struct {
	entityID  uuid.UUID
	versionID uuid.UUID
}

// resolver carries the per-call state of one Resolve invocation.
type resolver struct {
	repo   Repository
	mode   ResolutionMode
	deep   bool
	policy VariantPolicy
	path   map[pathKey]struct{}
}

// Resolve flattens a container or selector version into an ordered list
// of concrete entity versions.
//
// Pinned rows resolve to exactly their pinned version regardless of mode.
// Unpinned rows follow the target's draft or published pointer; a target
// with no published version is omitted from published-mode output, while a
// missing draft pointer is surfaced as an InconsistentDraftError. Output
// order always equals row position order. Resolution performs no writes,
// so aborting it via ctx leaves no side effects.
func (s *service) Resolve(ctx context.Context, req ResolveRequest) ([]ResolvedEntry, error) {
	if !req.Mode.IsValid() {
		return nil, fmt.Errorf("invalid resolution mode %q", req.Mode)
	}

	rootVersion, err := s.repository.GetEntityVersion(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}
	rootEntity, err := s.repository.GetEntity(ctx, rootVersion.EntityID)
	if err != nil {
		return nil, err
	}

	r := &resolver{
		repo:   s.repository,
		mode:   req.Mode,
		deep:   req.Deep,
		policy: req.Policy,
		path:   map[pathKey]struct{}{},
	}

	// The root joins the active path so a list that transitively
	// references its own version is caught as a cycle.
	r.path[pathKey{rootEntity.ID, rootVersion.ID}] = struct{}{}

	switch rootEntity.Kind {
	case KindContainer:
		cv, err := s.repository.GetContainerVersion(ctx, req.VersionID)
		if err != nil {
			return nil, err
		}
		return r.resolveList(ctx, cv.DefinedListID)
	case KindSelector:
		sv, err := s.repository.GetSelectorVersion(ctx, req.VersionID)
		if err != nil {
			return nil, err
		}
		listID, err := r.chooseVariant(ctx, sv)
		if err != nil {
			return nil, err
		}
		return r.resolveList(ctx, listID)
	default:
		return nil, fmt.Errorf("entity %s is a %s: only container and selector versions resolve", rootEntity.ID, rootEntity.Kind)
	}
}

// resolveList walks one entity list in position order.
func (r *resolver) resolveList(ctx context.Context, listID uuid.UUID) ([]ResolvedEntry, error) {
	rows, err := r.repo.GetListRows(ctx, listID)
	if err != nil {
		return nil, err
	}

	entries := make([]ResolvedEntry, 0, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, ok, err := r.resolveRow(ctx, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Unpublished target in published mode: invisible, not an error.
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// resolveRow resolves one row. The second return value is false when the
// row is omitted from the output.
func (r *resolver) resolveRow(ctx context.Context, row ListRow) (ResolvedEntry, bool, error) {
	entity, err := r.repo.GetEntity(ctx, row.EntityID)
	if err != nil {
		return ResolvedEntry{}, false, err
	}

	var version *EntityVersion
	switch {
	case row.PinnedVersionID != nil:
		// Pinning is authoritative and ignores the mode.
		version, err = r.repo.GetEntityVersion(ctx, *row.PinnedVersionID)
		if err != nil {
			return ResolvedEntry{}, false, err
		}
	case r.mode == ModePublished:
		if entity.PublishedVersionID == nil {
			return ResolvedEntry{}, false, nil
		}
		version, err = r.repo.GetEntityVersion(ctx, *entity.PublishedVersionID)
		if err != nil {
			return ResolvedEntry{}, false, err
		}
	default:
		if entity.DraftVersionID == nil {
			return ResolvedEntry{}, false, &InconsistentDraftError{EntityID: entity.ID}
		}
		version, err = r.repo.GetEntityVersion(ctx, *entity.DraftVersionID)
		if err != nil {
			return ResolvedEntry{}, false, err
		}
	}

	entry := ResolvedEntry{
		Position:   row.Position,
		EntityID:   entity.ID,
		Kind:       entity.Kind,
		VersionID:  version.ID,
		VersionNum: version.VersionNum,
		Title:      version.Title,
		Pinned:     row.PinnedVersionID != nil,
	}

	if !r.deep || entity.Kind == KindComponent {
		return entry, true, nil
	}

	children, err := r.descend(ctx, entity, version)
	if err != nil {
		return ResolvedEntry{}, false, err
	}
	entry.Children = children

	return entry, true, nil
}

// descend recurses into a container or selector version, guarding the
// active path against cycles.
func (r *resolver) descend(ctx context.Context, entity *Entity, version *EntityVersion) ([]ResolvedEntry, error) {
	key := pathKey{entity.ID, version.ID}
	if _, onPath := r.path[key]; onPath {
		return nil, &CycleError{EntityID: entity.ID, VersionID: version.ID}
	}
	r.path[key] = struct{}{}
	defer delete(r.path, key)

	switch entity.Kind {
	case KindContainer:
		cv, err := r.repo.GetContainerVersion(ctx, version.ID)
		if err != nil {
			return nil, err
		}
		return r.resolveList(ctx, cv.DefinedListID)
	case KindSelector:
		sv, err := r.repo.GetSelectorVersion(ctx, version.ID)
		if err != nil {
			return nil, err
		}
		listID, err := r.chooseVariant(ctx, sv)
		if err != nil {
			return nil, err
		}
		return r.resolveList(ctx, listID)
	}

	return nil, nil
}

// chooseVariant applies the variant policy to a selector version and
// returns the chosen variant's list. Exactly one variant must match.
func (r *resolver) chooseVariant(ctx context.Context, sv *SelectorVersion) (uuid.UUID, error) {
	variants, err := r.repo.ListVariants(ctx, sv.ID)
	if err != nil {
		return uuid.Nil, err
	}

	if r.policy == nil {
		return uuid.Nil, &SelectorUnresolvedError{SelectorVersionID: sv.ID, Matched: 0}
	}

	matched, err := r.policy.SelectVariants(ctx, sv, variants)
	if err != nil {
		return uuid.Nil, err
	}
	if len(matched) != 1 {
		return uuid.Nil, &SelectorUnresolvedError{SelectorVersionID: sv.ID, Matched: len(matched)}
	}

	return matched[0].ListID, nil
}
