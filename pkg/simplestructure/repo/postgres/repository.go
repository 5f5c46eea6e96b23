package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authorkit/simple-structure/pkg/simplestructure"
)

// DBTX is an interface that allows us to use either a connection pool, a
// single connection, or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository implements simplestructure.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) simplestructure.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) simplestructure.Repository {
	return &Repository{db: pool}
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "version_num") {
				return simplestructure.ErrVersionConflict
			}
			if strings.Contains(pgErr.ConstraintName, "entity_key") {
				return simplestructure.ErrKeyExists
			}
			return fmt.Errorf("duplicate entry in %s", operation)
		case "23503": // foreign_key_violation
			if strings.Contains(pgErr.TableName, "entity_list_row") {
				return simplestructure.ErrEntityInUse
			}
			return fmt.Errorf("referenced record not found in %s", operation)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// inTx runs fn inside a transaction, rolling back on error.
func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Entity operations

func (r *Repository) CreateEntity(ctx context.Context, entity *simplestructure.Entity) error {
	query := `
		INSERT INTO entity (id, kind, key, created_at, created_by)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)`

	_, err := r.db.Exec(ctx, query,
		entity.ID, entity.Kind, entity.Key, entity.CreatedAt, entity.CreatedBy)
	if err != nil {
		return handlePostgresError("create entity", err)
	}

	return nil
}

const entityColumns = `id, kind, COALESCE(key, ''), draft_version_id, published_version_id, created_at, created_by, deleted_at`

func scanEntity(row pgx.Row) (*simplestructure.Entity, error) {
	var entity simplestructure.Entity
	err := row.Scan(
		&entity.ID, &entity.Kind, &entity.Key, &entity.DraftVersionID,
		&entity.PublishedVersionID, &entity.CreatedAt, &entity.CreatedBy, &entity.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplestructure.ErrEntityNotFound
		}
		return nil, err
	}
	return &entity, nil
}

func (r *Repository) GetEntity(ctx context.Context, id uuid.UUID) (*simplestructure.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entity WHERE id = $1 AND deleted_at IS NULL`
	return scanEntity(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetEntityByKey(ctx context.Context, key string) (*simplestructure.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entity WHERE key = $1 AND deleted_at IS NULL`
	return scanEntity(r.db.QueryRow(ctx, query, key))
}

func (r *Repository) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var referenced bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM entity_list_row WHERE entity_id = $1)`, id).Scan(&referenced)
		if err != nil {
			return handlePostgresError("delete entity", err)
		}
		if referenced {
			return simplestructure.ErrEntityInUse
		}

		tag, err := tx.Exec(ctx,
			`UPDATE entity SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
		if err != nil {
			return handlePostgresError("delete entity", err)
		}
		if tag.RowsAffected() == 0 {
			return simplestructure.ErrEntityNotFound
		}
		return nil
	})
}

func (r *Repository) CreateEntityVersion(ctx context.Context, params simplestructure.CreateEntityVersionParams) (*simplestructure.EntityVersion, error) {
	var version *simplestructure.EntityVersion
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		version, err = createEntityVersionTx(ctx, tx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return version, nil
}

// createEntityVersionTx inserts a version and moves the draft pointer.
// The entity row is locked first so version-number assignment serializes
// per entity; the unique constraint on (entity_id, version_num) is the
// backstop that turns a lost race into ErrVersionConflict.
func createEntityVersionTx(ctx context.Context, tx pgx.Tx, params simplestructure.CreateEntityVersionParams) (*simplestructure.EntityVersion, error) {
	var deleted *time.Time
	err := tx.QueryRow(ctx,
		`SELECT deleted_at FROM entity WHERE id = $1 FOR UPDATE`, params.EntityID).Scan(&deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplestructure.ErrEntityNotFound
		}
		return nil, handlePostgresError("create entity version", err)
	}
	if deleted != nil {
		return nil, simplestructure.ErrEntityNotFound
	}

	versionNum := params.VersionNum
	if versionNum <= 0 {
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(version_num), 0) + 1 FROM entity_version WHERE entity_id = $1`,
			params.EntityID).Scan(&versionNum)
		if err != nil {
			return nil, handlePostgresError("create entity version", err)
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

	_, err = tx.Exec(ctx, `
		INSERT INTO entity_version (id, entity_id, version_num, title, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		version.ID, version.EntityID, version.VersionNum, version.Title,
		version.CreatedAt, version.CreatedBy)
	if err != nil {
		return nil, handlePostgresError("create entity version", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE entity SET draft_version_id = $2 WHERE id = $1`, params.EntityID, version.ID)
	if err != nil {
		return nil, handlePostgresError("create entity version", err)
	}

	return version, nil
}

const versionColumns = `id, entity_id, version_num, title, created_at, created_by`

func scanEntityVersion(row pgx.Row) (*simplestructure.EntityVersion, error) {
	var version simplestructure.EntityVersion
	err := row.Scan(
		&version.ID, &version.EntityID, &version.VersionNum,
		&version.Title, &version.CreatedAt, &version.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplestructure.ErrVersionNotFound
		}
		return nil, err
	}
	return &version, nil
}

func (r *Repository) GetEntityVersion(ctx context.Context, id uuid.UUID) (*simplestructure.EntityVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM entity_version WHERE id = $1`
	return scanEntityVersion(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetEntityVersionByNum(ctx context.Context, entityID uuid.UUID, versionNum int) (*simplestructure.EntityVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM entity_version WHERE entity_id = $1 AND version_num = $2`
	return scanEntityVersion(r.db.QueryRow(ctx, query, entityID, versionNum))
}

func (r *Repository) ListEntityVersions(ctx context.Context, entityID uuid.UUID) ([]*simplestructure.EntityVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM entity_version WHERE entity_id = $1 ORDER BY version_num`

	rows, err := r.db.Query(ctx, query, entityID)
	if err != nil {
		return nil, handlePostgresError("list entity versions", err)
	}
	defer rows.Close()

	var versions []*simplestructure.EntityVersion
	for rows.Next() {
		version, err := scanEntityVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}

	return versions, rows.Err()
}

func (r *Repository) DeleteEntityVersion(ctx context.Context, id uuid.UUID) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var pinned, pointed bool
		err := tx.QueryRow(ctx, `
			SELECT
				EXISTS (SELECT 1 FROM entity_list_row WHERE pinned_version_id = $1),
				EXISTS (SELECT 1 FROM entity WHERE draft_version_id = $1 OR published_version_id = $1)`,
			id).Scan(&pinned, &pointed)
		if err != nil {
			return handlePostgresError("delete entity version", err)
		}
		if pinned || pointed {
			return simplestructure.ErrVersionInUse
		}

		tag, err := tx.Exec(ctx, `DELETE FROM entity_version WHERE id = $1`, id)
		if err != nil {
			return handlePostgresError("delete entity version", err)
		}
		if tag.RowsAffected() == 0 {
			return simplestructure.ErrVersionNotFound
		}
		return nil
	})
}

func (r *Repository) SetDraft(ctx context.Context, entityID, versionID uuid.UUID) error {
	return r.setPointer(ctx, entityID, versionID, "draft_version_id")
}

func (r *Repository) SetPublished(ctx context.Context, entityID, versionID uuid.UUID) error {
	return r.setPointer(ctx, entityID, versionID, "published_version_id")
}

func (r *Repository) setPointer(ctx context.Context, entityID, versionID uuid.UUID, column string) error {
	// Single compare-and-set statement: the pointer moves only when the
	// version actually belongs to the entity.
	query := fmt.Sprintf(`
		UPDATE entity SET %s = $2
		WHERE id = $1 AND deleted_at IS NULL
		  AND EXISTS (SELECT 1 FROM entity_version WHERE id = $2 AND entity_id = $1)`, column)

	tag, err := r.db.Exec(ctx, query, entityID, versionID)
	if err != nil {
		return handlePostgresError("set "+column, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("version %s does not belong to a live entity %s", versionID, entityID)
	}
	return nil
}

// Entity list operations

func (r *Repository) CreateEntityList(ctx context.Context, rows []simplestructure.RowSpec) (*simplestructure.EntityList, error) {
	var list *simplestructure.EntityList
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		list, err = createEntityListTx(ctx, tx, rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func createEntityListTx(ctx context.Context, tx pgx.Tx, rows []simplestructure.RowSpec) (*simplestructure.EntityList, error) {
	if err := validateRowsTx(ctx, tx, rows); err != nil {
		return nil, err
	}

	list := &simplestructure.EntityList{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO entity_list (id, created_at) VALUES ($1, $2)`, list.ID, list.CreatedAt)
	if err != nil {
		return nil, handlePostgresError("create entity list", err)
	}

	for i, spec := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO entity_list_row (list_id, position, entity_id, pinned_version_id)
			VALUES ($1, $2, $3, $4)`,
			list.ID, i, spec.EntityID, spec.PinnedVersionID)
		if err != nil {
			return nil, handlePostgresError("create entity list row", err)
		}
	}

	return list, nil
}

// validateRowsTx enforces referential integrity at list-creation time so
// that invalid rows are never stored.
func validateRowsTx(ctx context.Context, tx pgx.Tx, rows []simplestructure.RowSpec) error {
	for i, spec := range rows {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM entity WHERE id = $1 AND deleted_at IS NULL)`,
			spec.EntityID).Scan(&exists)
		if err != nil {
			return handlePostgresError("validate list rows", err)
		}
		if !exists {
			return &simplestructure.ReferentialError{
				Position: i,
				EntityID: spec.EntityID,
				Reason:   "entity does not exist",
			}
		}

		if spec.PinnedVersionID != nil {
			var owner *uuid.UUID
			err := tx.QueryRow(ctx,
				`SELECT entity_id FROM entity_version WHERE id = $1`, *spec.PinnedVersionID).Scan(&owner)
			if errors.Is(err, pgx.ErrNoRows) {
				return &simplestructure.ReferentialError{
					Position:  i,
					EntityID:  spec.EntityID,
					VersionID: spec.PinnedVersionID,
					Reason:    "pinned version does not exist",
				}
			}
			if err != nil {
				return handlePostgresError("validate list rows", err)
			}
			if *owner != spec.EntityID {
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
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM entity_list WHERE id = $1)`, listID).Scan(&exists); err != nil {
		return nil, handlePostgresError("get list rows", err)
	}
	if !exists {
		return nil, simplestructure.ErrListNotFound
	}

	rows, err := r.db.Query(ctx, `
		SELECT list_id, position, entity_id, pinned_version_id
		FROM entity_list_row WHERE list_id = $1 ORDER BY position`, listID)
	if err != nil {
		return nil, handlePostgresError("get list rows", err)
	}
	defer rows.Close()

	result := []simplestructure.ListRow{}
	for rows.Next() {
		var row simplestructure.ListRow
		if err := rows.Scan(&row.ListID, &row.Position, &row.EntityID, &row.PinnedVersionID); err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// Container operations

func (r *Repository) CreateContainerVersion(ctx context.Context, params simplestructure.CreateContainerVersionParams) (*simplestructure.ContainerVersion, error) {
	var cv *simplestructure.ContainerVersion
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var kind simplestructure.EntityKind
		err := tx.QueryRow(ctx,
			`SELECT kind FROM entity WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
			params.ContainerID).Scan(&kind)
		if errors.Is(err, pgx.ErrNoRows) {
			return simplestructure.ErrEntityNotFound
		}
		if err != nil {
			return handlePostgresError("create container version", err)
		}
		if kind != simplestructure.KindContainer {
			return simplestructure.ErrNotContainer
		}

		// Prior version, if any: its defined list freezes into the new
		// version and its initial list carries forward.
		var initialListID, frozenListID *uuid.UUID
		err = tx.QueryRow(ctx, `
			SELECT initial_list_id, defined_list_id FROM container_version
			WHERE container_id = $1 ORDER BY version_num DESC LIMIT 1`,
			params.ContainerID).Scan(&initialListID, &frozenListID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return handlePostgresError("create container version", err)
		}

		list, err := createEntityListTx(ctx, tx, params.Rows)
		if err != nil {
			return err
		}

		version, err := createEntityVersionTx(ctx, tx, simplestructure.CreateEntityVersionParams{
			EntityID:   params.ContainerID,
			VersionNum: params.VersionNum,
			Title:      params.Title,
			CreatedBy:  params.CreatedBy,
		})
		if err != nil {
			return err
		}

		cv = &simplestructure.ContainerVersion{
			ID:            version.ID,
			ContainerID:   params.ContainerID,
			VersionNum:    version.VersionNum,
			Title:         version.Title,
			DefinedListID: list.ID,
			InitialListID: list.ID,
			FrozenListID:  frozenListID,
			CreatedAt:     version.CreatedAt,
			CreatedBy:     version.CreatedBy,
		}
		if initialListID != nil {
			cv.InitialListID = *initialListID
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO container_version (id, container_id, version_num, title,
				defined_list_id, initial_list_id, frozen_list_id, created_at, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			cv.ID, cv.ContainerID, cv.VersionNum, cv.Title,
			cv.DefinedListID, cv.InitialListID, cv.FrozenListID, cv.CreatedAt, cv.CreatedBy)
		if err != nil {
			return handlePostgresError("create container version", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return cv, nil
}

const containerVersionColumns = `id, container_id, version_num, title, defined_list_id, initial_list_id, frozen_list_id, created_at, created_by`

func scanContainerVersion(row pgx.Row) (*simplestructure.ContainerVersion, error) {
	var cv simplestructure.ContainerVersion
	err := row.Scan(
		&cv.ID, &cv.ContainerID, &cv.VersionNum, &cv.Title,
		&cv.DefinedListID, &cv.InitialListID, &cv.FrozenListID, &cv.CreatedAt, &cv.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplestructure.ErrContainerVersionNotFound
		}
		return nil, err
	}
	return &cv, nil
}

func (r *Repository) GetContainerVersion(ctx context.Context, versionID uuid.UUID) (*simplestructure.ContainerVersion, error) {
	query := `SELECT ` + containerVersionColumns + ` FROM container_version WHERE id = $1`
	return scanContainerVersion(r.db.QueryRow(ctx, query, versionID))
}

func (r *Repository) GetContainerVersionByNum(ctx context.Context, containerID uuid.UUID, versionNum int) (*simplestructure.ContainerVersion, error) {
	query := `SELECT ` + containerVersionColumns + ` FROM container_version WHERE container_id = $1 AND version_num = $2`
	return scanContainerVersion(r.db.QueryRow(ctx, query, containerID, versionNum))
}

func (r *Repository) GetLatestContainerVersion(ctx context.Context, containerID uuid.UUID) (*simplestructure.ContainerVersion, error) {
	query := `SELECT ` + containerVersionColumns + ` FROM container_version WHERE container_id = $1 ORDER BY version_num DESC LIMIT 1`
	cv, err := scanContainerVersion(r.db.QueryRow(ctx, query, containerID))
	if errors.Is(err, simplestructure.ErrContainerVersionNotFound) {
		return nil, simplestructure.ErrNoVersions
	}
	return cv, err
}

func (r *Repository) ListContainerVersions(ctx context.Context, containerID uuid.UUID) ([]*simplestructure.ContainerVersion, error) {
	query := `SELECT ` + containerVersionColumns + ` FROM container_version WHERE container_id = $1 ORDER BY version_num`

	rows, err := r.db.Query(ctx, query, containerID)
	if err != nil {
		return nil, handlePostgresError("list container versions", err)
	}
	defer rows.Close()

	var versions []*simplestructure.ContainerVersion
	for rows.Next() {
		cv, err := scanContainerVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, cv)
	}

	return versions, rows.Err()
}

// Selector operations

func (r *Repository) CreateSelectorVersion(ctx context.Context, params simplestructure.CreateSelectorVersionParams) (*simplestructure.SelectorVersion, error) {
	var sv *simplestructure.SelectorVersion
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var kind simplestructure.EntityKind
		err := tx.QueryRow(ctx,
			`SELECT kind FROM entity WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
			params.SelectorID).Scan(&kind)
		if errors.Is(err, pgx.ErrNoRows) {
			return simplestructure.ErrEntityNotFound
		}
		if err != nil {
			return handlePostgresError("create selector version", err)
		}
		if kind != simplestructure.KindSelector {
			return simplestructure.ErrNotSelector
		}

		version, err := createEntityVersionTx(ctx, tx, simplestructure.CreateEntityVersionParams{
			EntityID:   params.SelectorID,
			VersionNum: params.VersionNum,
			Title:      params.Title,
			CreatedBy:  params.CreatedBy,
		})
		if err != nil {
			return err
		}

		sv = &simplestructure.SelectorVersion{
			ID:         version.ID,
			SelectorID: params.SelectorID,
			VersionNum: version.VersionNum,
			Title:      version.Title,
			OrderNum:   params.OrderNum,
			CreatedAt:  version.CreatedAt,
			CreatedBy:  version.CreatedBy,
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO selector_version (id, selector_id, version_num, title, order_num, created_at, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sv.ID, sv.SelectorID, sv.VersionNum, sv.Title, sv.OrderNum, sv.CreatedAt, sv.CreatedBy)
		if err != nil {
			return handlePostgresError("create selector version", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return sv, nil
}

func (r *Repository) GetSelectorVersion(ctx context.Context, versionID uuid.UUID) (*simplestructure.SelectorVersion, error) {
	var sv simplestructure.SelectorVersion
	err := r.db.QueryRow(ctx, `
		SELECT id, selector_id, version_num, title, order_num, created_at, created_by
		FROM selector_version WHERE id = $1`, versionID).Scan(
		&sv.ID, &sv.SelectorID, &sv.VersionNum, &sv.Title, &sv.OrderNum, &sv.CreatedAt, &sv.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplestructure.ErrSelectorVersionNotFound
		}
		return nil, err
	}
	return &sv, nil
}

func (r *Repository) CreateVariant(ctx context.Context, params simplestructure.CreateVariantParams) (*simplestructure.Variant, error) {
	var variant *simplestructure.Variant
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM selector_version WHERE id = $1)`,
			params.SelectorVersionID).Scan(&exists)
		if err != nil {
			return handlePostgresError("create variant", err)
		}
		if !exists {
			return simplestructure.ErrSelectorVersionNotFound
		}

		list, err := createEntityListTx(ctx, tx, params.Rows)
		if err != nil {
			return err
		}

		variant = &simplestructure.Variant{
			ListID:            list.ID,
			SelectorVersionID: params.SelectorVersionID,
			Key:               params.Key,
			CreatedAt:         time.Now().UTC(),
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO variant (list_id, selector_version_id, key, created_at)
			VALUES ($1, $2, $3, $4)`,
			variant.ListID, variant.SelectorVersionID, variant.Key, variant.CreatedAt)
		if err != nil {
			return handlePostgresError("create variant", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return variant, nil
}

func (r *Repository) ListVariants(ctx context.Context, selectorVersionID uuid.UUID) ([]*simplestructure.Variant, error) {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM selector_version WHERE id = $1)`,
		selectorVersionID).Scan(&exists); err != nil {
		return nil, handlePostgresError("list variants", err)
	}
	if !exists {
		return nil, simplestructure.ErrSelectorVersionNotFound
	}

	rows, err := r.db.Query(ctx, `
		SELECT list_id, selector_version_id, key, created_at
		FROM variant WHERE selector_version_id = $1 ORDER BY created_at, list_id`, selectorVersionID)
	if err != nil {
		return nil, handlePostgresError("list variants", err)
	}
	defer rows.Close()

	var variants []*simplestructure.Variant
	for rows.Next() {
		var v simplestructure.Variant
		if err := rows.Scan(&v.ListID, &v.SelectorVersionID, &v.Key, &v.CreatedAt); err != nil {
			return nil, err
		}
		variants = append(variants, &v)
	}

	return variants, rows.Err()
}
