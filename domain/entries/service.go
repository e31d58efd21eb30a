package entries

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quillcms/quill/domain/relations"
	"github.com/quillcms/quill/internal/config"
	"github.com/quillcms/quill/pkg/apperror"
	"github.com/quillcms/quill/pkg/logger"
	"github.com/quillcms/quill/pkg/pgutils"
)

// Service manages content types and entries. Entry deletion is gated by the
// relations engine: restrict relations block it, cascade behavior runs first.
type Service struct {
	repo      *Repository
	relations *relations.Service
	cfg       *config.Config
	log       *slog.Logger
}

// NewService creates a new entries service.
func NewService(repo *Repository, relSvc *relations.Service, cfg *config.Config, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		relations: relSvc,
		cfg:       cfg,
		log:       log.With(logger.Scope("entries.service")),
	}
}

// CreateContentType registers a content type.
func (s *Service) CreateContentType(ctx context.Context, req *CreateContentTypeRequest) (*ContentType, error) {
	if fieldErrs := req.Validate(); len(fieldErrs) > 0 {
		return nil, apperror.NewValidation(fieldErrs)
	}

	ct := &ContentType{Name: req.Name, DisplayName: req.DisplayName}
	if err := s.repo.InsertContentType(ctx, ct); err != nil {
		if pgutils.IsUniqueViolation(err) {
			return nil, apperror.ErrConflict.WithMessage(fmt.Sprintf("content type %q already exists", req.Name))
		}
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return ct, nil
}

// GetContentType returns one content type.
func (s *Service) GetContentType(ctx context.Context, id uuid.UUID) (*ContentType, error) {
	ct, err := s.repo.GetContentType(ctx, id)
	if err != nil {
		return nil, err
	}
	if ct == nil {
		return nil, apperror.NewNotFound("content type", id.String())
	}
	return ct, nil
}

// GetContentTypeByName resolves a content type by its unique name.
func (s *Service) GetContentTypeByName(ctx context.Context, name string) (*ContentType, error) {
	ct, err := s.repo.GetContentTypeByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if ct == nil {
		return nil, apperror.NewNotFound("content type", name)
	}
	return ct, nil
}

// ListContentTypes returns all content types.
func (s *Service) ListContentTypes(ctx context.Context) ([]*ContentType, error) {
	types, err := s.repo.ListContentTypes(ctx)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []*ContentType{}
	}
	return types, nil
}

// CreateEntry creates a content entry.
func (s *Service) CreateEntry(ctx context.Context, req *CreateEntryRequest, createdBy string) (*ContentEntry, error) {
	if fieldErrs := req.Validate(); len(fieldErrs) > 0 {
		return nil, apperror.NewValidation(fieldErrs)
	}

	ct, err := s.repo.GetContentType(ctx, req.ContentTypeID)
	if err != nil {
		return nil, err
	}
	if ct == nil {
		return nil, apperror.NewNotFound("content type", req.ContentTypeID.String())
	}

	entry := &ContentEntry{
		ContentTypeID: req.ContentTypeID,
		Slug:          req.Slug,
		Title:         req.Title,
		Status:        req.Status,
	}
	if entry.Status == "" {
		entry.Status = "draft"
	}
	if createdBy != "" {
		entry.CreatedBy = &createdBy
	}

	if err := s.repo.InsertEntry(ctx, entry); err != nil {
		if pgutils.IsUniqueViolation(err) {
			return nil, apperror.ErrConflict.WithMessage(fmt.Sprintf("slug %q is already used by another %q entry", req.Slug, ct.Name))
		}
		return nil, apperror.ErrDatabase.WithInternal(err)
	}
	return entry, nil
}

// GetEntry returns one content entry.
func (s *Service) GetEntry(ctx context.Context, id uuid.UUID) (*ContentEntry, error) {
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperror.NewNotFound("entry", id.String())
	}
	return entry, nil
}

// ListEntries returns one filtered, paginated page of entries.
func (s *Service) ListEntries(ctx context.Context, params EntryListParams) (*EntryListResponse, error) {
	if params.Limit <= 0 {
		params.Limit = s.cfg.Relations.DefaultPageSize
	}
	if max := s.cfg.Relations.MaxPageSize; params.Limit > max {
		params.Limit = max
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	items, total, err := s.repo.ListEntries(ctx, params)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*ContentEntry{}
	}
	return &EntryListResponse{Items: items, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

// DeleteEntry removes an entry after running the relations cascade. Restrict
// relations block the deletion with a conflict naming the definitions.
func (s *Service) DeleteEntry(ctx context.Context, id uuid.UUID) (*DeleteEntryResponse, error) {
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperror.NewNotFound("entry", id.String())
	}

	cascade, err := s.relations.CascadeOnEntryDelete(ctx, id)
	if err != nil {
		return nil, err
	}
	if cascade.HasBlockingRelations {
		return nil, apperror.ErrConflict.
			WithMessage("entry has relations that restrict deletion").
			WithDetails(map[string]any{"blocking_definitions": cascade.BlockingDefinitions})
	}

	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		return nil, err
	}

	s.log.Info("entry deleted",
		slog.String("entry_id", id.String()),
		slog.Int("cascade_deleted_edges", cascade.DeletedEdges),
	)
	return &DeleteEntryResponse{Deleted: true, Cascade: cascade}, nil
}
