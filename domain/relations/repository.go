package relations

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/quillcms/quill/pkg/apperror"
	"github.com/quillcms/quill/pkg/logger"
)

// Store is the persistence contract of the relations engine. It is satisfied
// by *Repository in production and by in-memory fakes in tests; the engine
// never touches a global database handle.
type Store interface {
	// WithinTx runs fn against a transactional view of the store. Engine
	// operations that read counts and then write edges run inside it so
	// concurrent mutations resolve at the database's unique indexes.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	InsertDefinition(ctx context.Context, def *RelationDefinition) error
	GetDefinition(ctx context.Context, id uuid.UUID) (*RelationDefinition, error)
	GetDefinitionByName(ctx context.Context, name string) (*RelationDefinition, error)
	UpdateDefinition(ctx context.Context, def *RelationDefinition) error
	DeleteDefinition(ctx context.Context, id uuid.UUID) error
	ListDefinitions(ctx context.Context, params DefinitionListParams) ([]*RelationDefinition, int, error)
	ListDefinitionsForContentType(ctx context.Context, contentTypeID uuid.UUID) ([]*RelationDefinition, error)
	ListDefinitionsTouchingEntry(ctx context.Context, entryID uuid.UUID) ([]*RelationDefinition, error)

	InsertEdge(ctx context.Context, edge *ContentRelation) error
	GetEdge(ctx context.Context, id uuid.UUID) (*ContentRelation, error)
	FindEdge(ctx context.Context, defID, sourceID, targetID uuid.UUID) (*ContentRelation, error)
	UpdateEdge(ctx context.Context, edge *ContentRelation) error
	DeleteEdge(ctx context.Context, id uuid.UUID) error
	DeleteEdgesBySource(ctx context.Context, defID, sourceID uuid.UUID) (int, error)
	DeleteEdgesByTarget(ctx context.Context, defID, targetID uuid.UUID) (int, error)
	CountEdgesBySource(ctx context.Context, defID, sourceID uuid.UUID) (int, error)
	CountEdgesByTarget(ctx context.Context, defID, targetID uuid.UUID) (int, error)
	CountEdgesForDefinition(ctx context.Context, defID uuid.UUID) (int, error)
	ListEdgesBySource(ctx context.Context, defID, sourceID uuid.UUID) ([]*ContentRelation, error)
	ListEdgesByTarget(ctx context.Context, defID, targetID uuid.UUID) ([]*ContentRelation, error)
	ListEdges(ctx context.Context, params EdgeListParams) ([]*ContentRelation, int, error)
}

// Repository implements Store on PostgreSQL via bun.
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates a new relations repository.
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("relations.repo")),
	}
}

// WithinTx runs fn with a Repository bound to a transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Repository{db: tx, log: r.log})
	})
}

// --- definitions ---

func (r *Repository) InsertDefinition(ctx context.Context, def *RelationDefinition) error {
	if def.Metadata == nil {
		def.Metadata = map[string]any{}
	}
	_, err := r.db.NewInsert().
		Model(def).
		Returning("*").
		Exec(ctx)
	return err
}

func (r *Repository) GetDefinition(ctx context.Context, id uuid.UUID) (*RelationDefinition, error) {
	def := new(RelationDefinition)
	err := r.db.NewSelect().
		Model(def).
		Where("rd.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return def, nil
}

func (r *Repository) GetDefinitionByName(ctx context.Context, name string) (*RelationDefinition, error) {
	def := new(RelationDefinition)
	err := r.db.NewSelect().
		Model(def).
		Where("rd.name = ?", name).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return def, nil
}

func (r *Repository) UpdateDefinition(ctx context.Context, def *RelationDefinition) error {
	_, err := r.db.NewUpdate().
		Model(def).
		WherePK().
		Set("updated_at = now()").
		Column("display_name", "target_field_name", "relation_type", "is_bidirectional",
			"is_required", "on_source_delete", "on_target_delete", "min_relations",
			"max_relations", "is_active", "sort_order", "metadata").
		Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

func (r *Repository) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*RelationDefinition)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

func (r *Repository) ListDefinitions(ctx context.Context, params DefinitionListParams) ([]*RelationDefinition, int, error) {
	var defs []*RelationDefinition

	q := r.db.NewSelect().Model(&defs)

	if params.SourceContentTypeID != nil {
		q = q.Where("rd.source_content_type_id = ?", *params.SourceContentTypeID)
	}
	if params.TargetContentTypeID != nil {
		q = q.Where("rd.target_content_type_id = ?", *params.TargetContentTypeID)
	}
	if params.RelationType != nil {
		q = q.Where("rd.relation_type = ?", *params.RelationType)
	}
	if !params.IncludeInactive {
		q = q.Where("rd.is_active")
	}
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("rd.name ILIKE ?", pattern).
				WhereOr("rd.display_name ILIKE ?", pattern)
		})
	}

	q = q.Order("sort_order ASC", "name ASC")
	if params.Limit > 0 {
		q = q.Limit(params.Limit).Offset(params.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, apperror.ErrDatabase.WithInternal(err)
	}
	return defs, total, nil
}

func (r *Repository) ListDefinitionsForContentType(ctx context.Context, contentTypeID uuid.UUID) ([]*RelationDefinition, error) {
	var defs []*RelationDefinition
	err := r.db.NewSelect().
		Model(&defs).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("rd.source_content_type_id = ?", contentTypeID).
				WhereOr("rd.target_content_type_id = ?", contentTypeID)
		}).
		Order("sort_order ASC", "name ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return defs, nil
}

func (r *Repository) ListDefinitionsTouchingEntry(ctx context.Context, entryID uuid.UUID) ([]*RelationDefinition, error) {
	var defs []*RelationDefinition
	err := r.db.NewSelect().
		Model(&defs).
		Where(`EXISTS (
			SELECT 1 FROM cms.content_relations cr
			WHERE cr.relation_definition_id = rd.id
			  AND (cr.source_entry_id = ? OR cr.target_entry_id = ?)
		)`, entryID, entryID).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return defs, nil
}

// --- edges ---

// InsertEdge returns the raw driver error so callers can classify unique
// violations from the defense-in-depth indexes.
func (r *Repository) InsertEdge(ctx context.Context, edge *ContentRelation) error {
	if edge.RelationData == nil {
		edge.RelationData = map[string]any{}
	}
	_, err := r.db.NewInsert().
		Model(edge).
		Returning("*").
		Exec(ctx)
	return err
}

func (r *Repository) GetEdge(ctx context.Context, id uuid.UUID) (*ContentRelation, error) {
	edge := new(ContentRelation)
	err := r.db.NewSelect().
		Model(edge).
		Where("cr.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return edge, nil
}

func (r *Repository) FindEdge(ctx context.Context, defID, sourceID, targetID uuid.UUID) (*ContentRelation, error) {
	edge := new(ContentRelation)
	err := r.db.NewSelect().
		Model(edge).
		Where("cr.relation_definition_id = ?", defID).
		Where("cr.source_entry_id = ?", sourceID).
		Where("cr.target_entry_id = ?", targetID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return edge, nil
}

func (r *Repository) UpdateEdge(ctx context.Context, edge *ContentRelation) error {
	_, err := r.db.NewUpdate().
		Model(edge).
		WherePK().
		Set("updated_at = now()").
		Column("relation_data", "sort_order").
		Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

func (r *Repository) DeleteEdge(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*ContentRelation)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

func (r *Repository) DeleteEdgesBySource(ctx context.Context, defID, sourceID uuid.UUID) (int, error) {
	res, err := r.db.NewDelete().
		Model((*ContentRelation)(nil)).
		Where("relation_definition_id = ?", defID).
		Where("source_entry_id = ?", sourceID).
		Exec(ctx)
	if err != nil {
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	return int(affected), nil
}

func (r *Repository) DeleteEdgesByTarget(ctx context.Context, defID, targetID uuid.UUID) (int, error) {
	res, err := r.db.NewDelete().
		Model((*ContentRelation)(nil)).
		Where("relation_definition_id = ?", defID).
		Where("target_entry_id = ?", targetID).
		Exec(ctx)
	if err != nil {
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	return int(affected), nil
}

func (r *Repository) CountEdgesBySource(ctx context.Context, defID, sourceID uuid.UUID) (int, error) {
	count, err := r.db.NewSelect().
		Model((*ContentRelation)(nil)).
		Where("relation_definition_id = ?", defID).
		Where("source_entry_id = ?", sourceID).
		Count(ctx)
	if err != nil {
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	return count, nil
}

func (r *Repository) CountEdgesByTarget(ctx context.Context, defID, targetID uuid.UUID) (int, error) {
	count, err := r.db.NewSelect().
		Model((*ContentRelation)(nil)).
		Where("relation_definition_id = ?", defID).
		Where("target_entry_id = ?", targetID).
		Count(ctx)
	if err != nil {
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	return count, nil
}

func (r *Repository) CountEdgesForDefinition(ctx context.Context, defID uuid.UUID) (int, error) {
	count, err := r.db.NewSelect().
		Model((*ContentRelation)(nil)).
		Where("relation_definition_id = ?", defID).
		Count(ctx)
	if err != nil {
		return 0, apperror.ErrDatabase.WithInternal(err)
	}
	return count, nil
}

func (r *Repository) ListEdgesBySource(ctx context.Context, defID, sourceID uuid.UUID) ([]*ContentRelation, error) {
	var edges []*ContentRelation
	err := r.db.NewSelect().
		Model(&edges).
		Where("cr.relation_definition_id = ?", defID).
		Where("cr.source_entry_id = ?", sourceID).
		Order("sort_order ASC", "created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return edges, nil
}

func (r *Repository) ListEdgesByTarget(ctx context.Context, defID, targetID uuid.UUID) ([]*ContentRelation, error) {
	var edges []*ContentRelation
	err := r.db.NewSelect().
		Model(&edges).
		Where("cr.relation_definition_id = ?", defID).
		Where("cr.target_entry_id = ?", targetID).
		Order("sort_order ASC", "created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return edges, nil
}

func (r *Repository) ListEdges(ctx context.Context, params EdgeListParams) ([]*ContentRelation, int, error) {
	var edges []*ContentRelation

	q := r.db.NewSelect().Model(&edges)

	if params.RelationDefinitionID != nil {
		q = q.Where("cr.relation_definition_id = ?", *params.RelationDefinitionID)
	}
	if params.SourceEntryID != nil {
		q = q.Where("cr.source_entry_id = ?", *params.SourceEntryID)
	}
	if params.TargetEntryID != nil {
		q = q.Where("cr.target_entry_id = ?", *params.TargetEntryID)
	}

	q = q.Order("created_at DESC")
	if params.Limit > 0 {
		q = q.Limit(params.Limit).Offset(params.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, apperror.ErrDatabase.WithInternal(err)
	}
	return edges, total, nil
}
