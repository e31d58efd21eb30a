package entries

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/quillcms/quill/domain/relations"
	"github.com/quillcms/quill/pkg/apperror"
	"github.com/quillcms/quill/pkg/logger"
)

// Repository is the data access layer for content types and entries. It also
// satisfies relations.EntryStore, giving the relations engine its view of
// entry identity.
type Repository struct {
	db  bun.IDB
	log *slog.Logger
}

// NewRepository creates a new entries repository.
func NewRepository(db bun.IDB, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With(logger.Scope("entries.repo")),
	}
}

// --- content types ---

func (r *Repository) InsertContentType(ctx context.Context, ct *ContentType) error {
	_, err := r.db.NewInsert().
		Model(ct).
		Returning("*").
		Exec(ctx)
	return err
}

func (r *Repository) GetContentType(ctx context.Context, id uuid.UUID) (*ContentType, error) {
	ct := new(ContentType)
	err := r.db.NewSelect().
		Model(ct).
		Where("ct.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return ct, nil
}

func (r *Repository) GetContentTypeByName(ctx context.Context, name string) (*ContentType, error) {
	ct := new(ContentType)
	err := r.db.NewSelect().
		Model(ct).
		Where("ct.name = ?", name).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return ct, nil
}

func (r *Repository) ListContentTypes(ctx context.Context) ([]*ContentType, error) {
	var types []*ContentType
	err := r.db.NewSelect().
		Model(&types).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return types, nil
}

// --- entries ---

func (r *Repository) InsertEntry(ctx context.Context, entry *ContentEntry) error {
	_, err := r.db.NewInsert().
		Model(entry).
		Returning("*").
		Exec(ctx)
	return err
}

func (r *Repository) GetEntry(ctx context.Context, id uuid.UUID) (*ContentEntry, error) {
	entry := new(ContentEntry)
	err := r.db.NewSelect().
		Model(entry).
		Where("ce.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return entry, nil
}

func (r *Repository) ListEntries(ctx context.Context, params EntryListParams) ([]*ContentEntry, int, error) {
	var items []*ContentEntry

	q := r.db.NewSelect().Model(&items)
	if params.ContentTypeID != nil {
		q = q.Where("ce.content_type_id = ?", *params.ContentTypeID)
	}
	if params.Status != "" {
		q = q.Where("ce.status = ?", params.Status)
	}
	q = q.Order("created_at DESC")
	if params.Limit > 0 {
		q = q.Limit(params.Limit).Offset(params.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, apperror.ErrDatabase.WithInternal(err)
	}
	return items, total, nil
}

func (r *Repository) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*ContentEntry)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return apperror.ErrDatabase.WithInternal(err)
	}
	return nil
}

// --- relations.EntryStore ---

func (r *Repository) ContentTypeExists(ctx context.Context, id uuid.UUID) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*ContentType)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, apperror.ErrDatabase.WithInternal(err)
	}
	return exists, nil
}

func (r *Repository) EntryContentType(ctx context.Context, entryID uuid.UUID) (uuid.UUID, bool, error) {
	var contentTypeID uuid.UUID
	err := r.db.NewSelect().
		Model((*ContentEntry)(nil)).
		Column("content_type_id").
		Where("id = ?", entryID).
		Scan(ctx, &contentTypeID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, apperror.ErrDatabase.WithInternal(err)
	}
	return contentTypeID, true, nil
}

func (r *Repository) GetEntrySummary(ctx context.Context, entryID uuid.UUID) (*relations.EntrySummary, error) {
	entry, err := r.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	return toSummary(entry), nil
}

func (r *Repository) GetEntrySummaries(ctx context.Context, entryIDs []uuid.UUID) (map[uuid.UUID]*relations.EntrySummary, error) {
	out := make(map[uuid.UUID]*relations.EntrySummary, len(entryIDs))
	if len(entryIDs) == 0 {
		return out, nil
	}

	var items []*ContentEntry
	err := r.db.NewSelect().
		Model(&items).
		Where("ce.id IN (?)", bun.In(entryIDs)).
		Scan(ctx)
	if err != nil {
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	for _, entry := range items {
		out[entry.ID] = toSummary(entry)
	}
	return out, nil
}

func toSummary(entry *ContentEntry) *relations.EntrySummary {
	return &relations.EntrySummary{
		ID:          entry.ID,
		Slug:        entry.Slug,
		Title:       entry.Title,
		ContentType: entry.ContentTypeID,
		Status:      entry.Status,
	}
}
