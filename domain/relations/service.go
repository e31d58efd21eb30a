// Package relations implements the content relations engine: relation
// definitions, validated edges between content entries, cascade behavior on
// entry deletion and bounded graph traversal.
package relations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quillcms/quill/internal/config"
	"github.com/quillcms/quill/pkg/apperror"
	"github.com/quillcms/quill/pkg/logger"
	"github.com/quillcms/quill/pkg/pgutils"
	"github.com/quillcms/quill/pkg/tracing"
)

// maxTraversalCeiling is the hard server-side limit on related-entry
// expansion depth, regardless of configuration or request parameters.
const maxTraversalCeiling = 5

// EntryStore is the engine's view of the entry subsystem. It resolves entry
// and content type identity only; the engine never owns entry lifecycle.
// Satisfied by the entries repository in production and by fakes in tests.
type EntryStore interface {
	ContentTypeExists(ctx context.Context, id uuid.UUID) (bool, error)
	// EntryContentType returns the content type of an entry, or ok=false
	// when no such entry exists.
	EntryContentType(ctx context.Context, entryID uuid.UUID) (uuid.UUID, bool, error)
	// GetEntrySummary returns nil when the entry does not exist.
	GetEntrySummary(ctx context.Context, entryID uuid.UUID) (*EntrySummary, error)
	// GetEntrySummaries resolves a batch of ids. Missing entries are absent
	// from the result map, not an error; dangling edges are legitimate under
	// the no_action cascade behavior.
	GetEntrySummaries(ctx context.Context, entryIDs []uuid.UUID) (map[uuid.UUID]*EntrySummary, error)
}

// Service is the relations engine.
type Service struct {
	store   Store
	entries EntryStore
	cfg     *config.Config
	log     *slog.Logger
}

// NewService creates a new relations service.
func NewService(store Store, entries EntryStore, cfg *config.Config, log *slog.Logger) *Service {
	return &Service{
		store:   store,
		entries: entries,
		cfg:     cfg,
		log:     log.With(logger.Scope("relations.service")),
	}
}

// --- definitions ---

// CreateDefinition registers a new relation definition. Both content types
// must already exist; the definition name must be unique.
func (s *Service) CreateDefinition(ctx context.Context, req *CreateDefinitionRequest, createdBy string) (*RelationDefinition, error) {
	ctx, span := tracing.Start(ctx, "relations.definition.create")
	defer span.End()

	fieldErrs := req.Validate()

	// Content type existence folds into the same validation response so a
	// client fixing a bad request sees every problem at once.
	if req.SourceContentTypeID != uuid.Nil {
		ok, err := s.entries.ContentTypeExists(ctx, req.SourceContentTypeID)
		if err != nil {
			return nil, err
		}
		if !ok {
			fieldErrs = append(fieldErrs, apperror.FieldError{
				Field:   "source_content_type_id",
				Message: fmt.Sprintf("content type '%s' does not exist", req.SourceContentTypeID),
			})
		}
	}
	if req.TargetContentTypeID != uuid.Nil {
		ok, err := s.entries.ContentTypeExists(ctx, req.TargetContentTypeID)
		if err != nil {
			return nil, err
		}
		if !ok {
			fieldErrs = append(fieldErrs, apperror.FieldError{
				Field:   "target_content_type_id",
				Message: fmt.Sprintf("content type '%s' does not exist", req.TargetContentTypeID),
			})
		}
	}
	if len(fieldErrs) > 0 {
		return nil, apperror.NewValidation(fieldErrs)
	}

	def := &RelationDefinition{
		Name:                req.Name,
		DisplayName:         req.DisplayName,
		SourceContentTypeID: req.SourceContentTypeID,
		SourceFieldName:     req.SourceFieldName,
		TargetContentTypeID: req.TargetContentTypeID,
		TargetFieldName:     req.TargetFieldName,
		RelationType:        req.RelationType,
		IsBidirectional:     req.IsBidirectional,
		IsRequired:          req.IsRequired,
		OnSourceDelete:      req.OnSourceDelete,
		OnTargetDelete:      req.OnTargetDelete,
		MinRelations:        req.MinRelations,
		MaxRelations:        req.MaxRelations,
		IsActive:            true,
		SortOrder:           req.SortOrder,
		Metadata:            req.Metadata,
	}
	if def.OnSourceDelete == "" {
		def.OnSourceDelete = CascadeNoAction
	}
	if def.OnTargetDelete == "" {
		def.OnTargetDelete = CascadeNoAction
	}
	if createdBy != "" {
		def.CreatedBy = &createdBy
	}

	if err := s.store.InsertDefinition(ctx, def); err != nil {
		if pgutils.IsUniqueViolation(err) {
			if pgutils.ConstraintName(err) == "uq_relation_definitions_source_field" {
				return nil, apperror.ErrConflict.WithMessage(fmt.Sprintf(
					"an active relation definition already uses field %q on this content type", req.SourceFieldName))
			}
			return nil, apperror.ErrConflict.WithMessage(fmt.Sprintf(
				"relation definition %q already exists", req.Name))
		}
		return nil, apperror.ErrDatabase.WithInternal(err)
	}

	s.log.Info("relation definition created",
		slog.String("definition_id", def.ID.String()),
		slog.String("name", def.Name),
		slog.String("relation_type", string(def.RelationType)),
	)
	return def, nil
}

// GetDefinition returns one relation definition, active or not.
func (s *Service) GetDefinition(ctx context.Context, id uuid.UUID) (*RelationDefinition, error) {
	def, err := s.store.GetDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apperror.NewNotFound("relation definition", id.String())
	}
	return def, nil
}

// GetDefinitionByName resolves a definition by its unique name. Names are
// stable across environments where ids are not, so clients key on them.
func (s *Service) GetDefinitionByName(ctx context.Context, name string) (*RelationDefinition, error) {
	def, err := s.store.GetDefinitionByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, apperror.NewNotFound("relation definition", name)
	}
	return def, nil
}

// UpdateDefinition applies a partial update. The relation type of a
// definition that already has edges is frozen; existing edges were validated
// under the old cardinality and cannot be reinterpreted.
func (s *Service) UpdateDefinition(ctx context.Context, id uuid.UUID, req *UpdateDefinitionRequest) (*RelationDefinition, error) {
	if fieldErrs := req.Validate(); len(fieldErrs) > 0 {
		return nil, apperror.NewValidation(fieldErrs)
	}

	var updated *RelationDefinition
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		def, err := tx.GetDefinition(ctx, id)
		if err != nil {
			return err
		}
		if def == nil {
			return apperror.NewNotFound("relation definition", id.String())
		}

		if req.RelationType != nil && *req.RelationType != def.RelationType {
			count, err := tx.CountEdgesForDefinition(ctx, def.ID)
			if err != nil {
				return err
			}
			if count > 0 {
				return apperror.ErrConflict.
					WithMessage("cannot change relation_type while relations exist under this definition").
					WithDetails(map[string]any{"relation_count": count})
			}
			def.RelationType = *req.RelationType
		}
		if req.DisplayName != nil {
			def.DisplayName = req.DisplayName
		}
		if req.TargetFieldName != nil {
			def.TargetFieldName = req.TargetFieldName
		}
		if req.IsBidirectional != nil {
			def.IsBidirectional = *req.IsBidirectional
		}
		if req.IsRequired != nil {
			def.IsRequired = *req.IsRequired
		}
		if req.OnSourceDelete != nil {
			def.OnSourceDelete = *req.OnSourceDelete
		}
		if req.OnTargetDelete != nil {
			def.OnTargetDelete = *req.OnTargetDelete
		}
		if req.MinRelations != nil {
			def.MinRelations = *req.MinRelations
		}
		if req.MaxRelations != nil {
			def.MaxRelations = req.MaxRelations
		}
		if def.MaxRelations != nil && def.MinRelations > *def.MaxRelations {
			return apperror.NewValidation([]apperror.FieldError{{
				Field:   "min_relations",
				Message: "min_relations must not exceed max_relations",
			}})
		}
		if req.SortOrder != nil {
			def.SortOrder = *req.SortOrder
		}
		if req.Metadata != nil {
			def.Metadata = req.Metadata
		}

		if err := tx.UpdateDefinition(ctx, def); err != nil {
			return err
		}
		updated = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeactivateDefinition soft-disables a definition. Existing edges survive and
// stay queryable; new edges are rejected.
func (s *Service) DeactivateDefinition(ctx context.Context, id uuid.UUID) (*RelationDefinition, error) {
	var updated *RelationDefinition
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		def, err := tx.GetDefinition(ctx, id)
		if err != nil {
			return err
		}
		if def == nil {
			return apperror.NewNotFound("relation definition", id.String())
		}
		if !def.IsActive {
			updated = def
			return nil
		}
		def.IsActive = false
		if err := tx.UpdateDefinition(ctx, def); err != nil {
			return err
		}
		updated = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("relation definition deactivated", slog.String("definition_id", id.String()))
	return updated, nil
}

// DeleteDefinition removes a definition permanently. Refused while any edge
// still instantiates it.
func (s *Service) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		def, err := tx.GetDefinition(ctx, id)
		if err != nil {
			return err
		}
		if def == nil {
			return apperror.NewNotFound("relation definition", id.String())
		}

		count, err := tx.CountEdgesForDefinition(ctx, def.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperror.ErrConflict.
				WithMessage(fmt.Sprintf("relation definition %q still has %d relations; delete them first or deactivate the definition", def.Name, count)).
				WithDetails(map[string]any{"relation_count": count})
		}
		return tx.DeleteDefinition(ctx, def.ID)
	})
}

// ListDefinitions returns one filtered, paginated page of definitions.
func (s *Service) ListDefinitions(ctx context.Context, params DefinitionListParams) (*DefinitionListResponse, error) {
	params.Limit, params.Offset = s.normalizePage(params.Limit, params.Offset)

	items, total, err := s.store.ListDefinitions(ctx, params)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*RelationDefinition{}
	}
	return &DefinitionListResponse{
		Items:  items,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

// --- edges ---

// CreateRelation creates one edge after validating endpoint identity and
// cardinality. Creating an edge that already exists is an idempotent no-op
// reported via Created=false.
func (s *Service) CreateRelation(ctx context.Context, req *CreateRelationRequest, createdBy string) (*CreateRelationResponse, error) {
	ctx, span := tracing.Start(ctx, "relations.create",
		attribute.String("quill.definition.id", req.RelationDefinitionID.String()),
	)
	defer span.End()

	if fieldErrs := req.Validate(); len(fieldErrs) > 0 {
		return nil, apperror.NewValidation(fieldErrs)
	}
	return s.createOne(ctx, req, createdBy)
}

// createOne runs a single validated edge creation in its own transaction.
// Shared by CreateRelation and BulkCreate.
func (s *Service) createOne(ctx context.Context, req *CreateRelationRequest, createdBy string) (*CreateRelationResponse, error) {
	var out *CreateRelationResponse
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		def, err := tx.GetDefinition(ctx, req.RelationDefinitionID)
		if err != nil {
			return err
		}
		// An inactive definition is indistinguishable from a missing one for
		// new edges; existing edges remain readable elsewhere.
		if def == nil || !def.IsActive {
			return apperror.NewNotFound("relation definition", req.RelationDefinitionID.String())
		}

		if err := s.checkEndpoints(ctx, def, req.SourceEntryID, req.TargetEntryID); err != nil {
			return err
		}

		existing, err := tx.FindEdge(ctx, def.ID, req.SourceEntryID, req.TargetEntryID)
		if err != nil {
			return err
		}
		if existing != nil {
			out = &CreateRelationResponse{Relation: existing, Created: false}
			return nil
		}

		sourceCount, err := tx.CountEdgesBySource(ctx, def.ID, req.SourceEntryID)
		if err != nil {
			return err
		}
		targetCount, err := tx.CountEdgesByTarget(ctx, def.ID, req.TargetEntryID)
		if err != nil {
			return err
		}

		result, err := CheckConstraints(CheckInput{
			Definition:  def,
			Op:          OpAdd,
			SourceCount: sourceCount,
			TargetCount: targetCount,
		})
		if err != nil {
			return apperror.NewInternal("constraint check failed", err)
		}
		if !result.Allowed {
			for _, v := range result.Violations {
				metricConstraintViolations.WithLabelValues(v.Rule).Inc()
			}
			return constraintError(result.Violations)
		}

		edge := &ContentRelation{
			RelationDefinitionID: def.ID,
			SourceEntryID:        req.SourceEntryID,
			TargetEntryID:        req.TargetEntryID,
			RelationType:         def.RelationType,
			RelationData:         req.RelationData,
			SortOrder:            req.SortOrder,
		}
		if createdBy != "" {
			edge.CreatedBy = &createdBy
		}

		if err := tx.InsertEdge(ctx, edge); err != nil {
			return s.classifyInsertErr(def, err)
		}

		metricRelationsCreated.WithLabelValues(string(def.RelationType)).Inc()
		out = &CreateRelationResponse{Relation: edge, Created: true}
		return nil
	})
	if errors.Is(err, errEdgeExists) {
		// The transaction that lost the race is rolled back by now, so the
		// winner's edge has to be re-read on a fresh connection.
		existing, ferr := s.store.FindEdge(ctx, req.RelationDefinitionID, req.SourceEntryID, req.TargetEntryID)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			// Won and then deleted between our rollback and the re-read.
			return nil, apperror.ErrConflict.WithMessage("relation was modified concurrently, retry the request")
		}
		return &CreateRelationResponse{Relation: existing, Created: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// checkEndpoints verifies both entries exist and belong to the content types
// the definition declares. All failures are reported together.
func (s *Service) checkEndpoints(ctx context.Context, def *RelationDefinition, sourceID, targetID uuid.UUID) error {
	var fieldErrs []apperror.FieldError

	srcType, ok, err := s.entries.EntryContentType(ctx, sourceID)
	if err != nil {
		return err
	}
	switch {
	case !ok:
		fieldErrs = append(fieldErrs, apperror.FieldError{
			Field:   "source_entry_id",
			Message: fmt.Sprintf("source entry '%s' does not exist", sourceID),
		})
	case srcType != def.SourceContentTypeID:
		fieldErrs = append(fieldErrs, apperror.FieldError{
			Field:   "source_entry_id",
			Message: fmt.Sprintf("source entry belongs to content type '%s', definition %q expects '%s'", srcType, def.Name, def.SourceContentTypeID),
		})
	}

	dstType, ok, err := s.entries.EntryContentType(ctx, targetID)
	if err != nil {
		return err
	}
	switch {
	case !ok:
		fieldErrs = append(fieldErrs, apperror.FieldError{
			Field:   "target_entry_id",
			Message: fmt.Sprintf("target entry '%s' does not exist", targetID),
		})
	case dstType != def.TargetContentTypeID:
		fieldErrs = append(fieldErrs, apperror.FieldError{
			Field:   "target_entry_id",
			Message: fmt.Sprintf("target entry belongs to content type '%s', definition %q expects '%s'", dstType, def.Name, def.TargetContentTypeID),
		})
	}

	if len(fieldErrs) > 0 {
		return apperror.NewValidation(fieldErrs)
	}
	return nil
}

// errEdgeExists signals that a concurrent request committed the identical
// edge first.
var errEdgeExists = errors.New("relation edge already exists")

// classifyInsertErr maps unique index violations from racing inserts onto the
// same results the validator would have produced for the losing request.
// Postgres aborts the transaction on the failed insert, so no statement may
// run inside it after this point; the duplicate-edge case surfaces as
// errEdgeExists and the caller re-reads after rollback.
func (s *Service) classifyInsertErr(def *RelationDefinition, err error) error {
	if !pgutils.IsUniqueViolation(err) {
		return apperror.ErrDatabase.WithInternal(err)
	}

	switch pgutils.ConstraintName(err) {
	case "uq_content_relations_edge":
		return errEdgeExists

	case "uq_content_relations_one_to_one_source":
		metricConstraintViolations.WithLabelValues(RuleOneToOneSource).Inc()
		return constraintError([]Violation{{
			Rule:    RuleOneToOneSource,
			Message: fmt.Sprintf("source already has a %s relation under definition %q", OneToOne, def.Name),
			Current: 1,
			Allowed: 1,
		}})

	case "uq_content_relations_one_to_one_target":
		metricConstraintViolations.WithLabelValues(RuleOneToOneTarget).Inc()
		return constraintError([]Violation{{
			Rule:    RuleOneToOneTarget,
			Message: fmt.Sprintf("target is already referenced by a %s relation under definition %q", OneToOne, def.Name),
			Current: 1,
			Allowed: 1,
		}})

	case "uq_content_relations_one_to_many_source":
		metricConstraintViolations.WithLabelValues(RuleOneToManySource).Inc()
		return constraintError([]Violation{{
			Rule:    RuleOneToManySource,
			Message: fmt.Sprintf("source already has a relation under %s definition %q", OneToMany, def.Name),
			Current: 1,
			Allowed: 1,
		}})
	}
	return apperror.ErrDatabase.WithInternal(err)
}

func constraintError(violations []Violation) *apperror.Error {
	return apperror.ErrConstraint.WithDetails(map[string]any{"violations": violations})
}

// GetRelation returns one edge.
func (s *Service) GetRelation(ctx context.Context, id uuid.UUID) (*ContentRelation, error) {
	edge, err := s.store.GetEdge(ctx, id)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, apperror.NewNotFound("relation", id.String())
	}
	return edge, nil
}

// UpdateRelation mutates an edge's payload and ordering. Endpoints are
// immutable and attempts to change them are rejected during validation.
func (s *Service) UpdateRelation(ctx context.Context, id uuid.UUID, req *UpdateRelationRequest) (*ContentRelation, error) {
	if fieldErrs := req.Validate(); len(fieldErrs) > 0 {
		return nil, apperror.NewValidation(fieldErrs)
	}

	var updated *ContentRelation
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		edge, err := tx.GetEdge(ctx, id)
		if err != nil {
			return err
		}
		if edge == nil {
			return apperror.NewNotFound("relation", id.String())
		}
		if req.RelationData != nil {
			edge.RelationData = req.RelationData
		}
		if req.SortOrder != nil {
			edge.SortOrder = *req.SortOrder
		}
		if err := tx.UpdateEdge(ctx, edge); err != nil {
			return err
		}
		updated = edge
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteRelation removes one edge. Removal always proceeds; dropping below
// min_relations or emptying a required relation only produces warnings.
func (s *Service) DeleteRelation(ctx context.Context, id uuid.UUID) (*DeleteRelationResponse, error) {
	resp := &DeleteRelationResponse{}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		edge, err := tx.GetEdge(ctx, id)
		if err != nil {
			return err
		}
		if edge == nil {
			return apperror.NewNotFound("relation", id.String())
		}

		def, err := tx.GetDefinition(ctx, edge.RelationDefinitionID)
		if err != nil {
			return err
		}
		if def != nil {
			sourceCount, err := tx.CountEdgesBySource(ctx, def.ID, edge.SourceEntryID)
			if err != nil {
				return err
			}
			result, err := CheckConstraints(CheckInput{
				Definition:  def,
				Op:          OpRemove,
				SourceCount: sourceCount,
			})
			if err == nil {
				resp.Warnings = result.Warnings
			}
		}

		if err := tx.DeleteEdge(ctx, edge.ID); err != nil {
			return err
		}
		resp.Deleted = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	metricRelationsDeleted.Inc()
	return resp, nil
}

// ListRelations returns one filtered, paginated page of edges.
func (s *Service) ListRelations(ctx context.Context, params EdgeListParams) (*EdgeListResponse, error) {
	params.Limit, params.Offset = s.normalizePage(params.Limit, params.Offset)

	items, total, err := s.store.ListEdges(ctx, params)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*ContentRelation{}
	}
	return &EdgeListResponse{
		Items:  items,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

// BulkCreate creates many edges under one definition with partial-success
// semantics: items are processed in order, each in its own transaction, and a
// failed item never rolls back earlier successes.
func (s *Service) BulkCreate(ctx context.Context, req *BulkCreateRequest, createdBy string) (*BulkCreateResponse, error) {
	ctx, span := tracing.Start(ctx, "relations.bulk_create",
		attribute.String("quill.definition.id", req.RelationDefinitionID.String()),
		attribute.Int("quill.bulk.size", len(req.Relations)),
	)
	defer span.End()

	if req.RelationDefinitionID == uuid.Nil {
		return nil, apperror.NewValidation([]apperror.FieldError{{
			Field: "relation_definition_id", Message: "relation_definition_id is required",
		}})
	}
	if len(req.Relations) == 0 {
		return nil, apperror.NewValidation([]apperror.FieldError{{
			Field: "relations", Message: "relations must not be empty",
		}})
	}
	if max := s.cfg.Relations.BulkMaxItems; len(req.Relations) > max {
		return nil, apperror.NewValidation([]apperror.FieldError{{
			Field:   "relations",
			Message: fmt.Sprintf("relations exceeds the maximum of %d items per request", max),
		}})
	}

	// Fail fast on a missing or inactive definition instead of emitting the
	// same per-item error N times.
	def, err := s.store.GetDefinition(ctx, req.RelationDefinitionID)
	if err != nil {
		return nil, err
	}
	if def == nil || !def.IsActive {
		return nil, apperror.NewNotFound("relation definition", req.RelationDefinitionID.String())
	}

	resp := &BulkCreateResponse{
		TotalRequested: len(req.Relations),
		Errors:         []BulkItemError{},
	}
	for i, item := range req.Relations {
		itemReq := &CreateRelationRequest{
			RelationDefinitionID: req.RelationDefinitionID,
			SourceEntryID:        item.SourceEntryID,
			TargetEntryID:        item.TargetEntryID,
			RelationData:         item.RelationData,
			SortOrder:            item.SortOrder,
		}
		if fieldErrs := itemReq.Validate(); len(fieldErrs) > 0 {
			resp.Errors = append(resp.Errors, bulkItemError(i, item, apperror.NewValidation(fieldErrs)))
			continue
		}

		created, err := s.createOne(ctx, itemReq, createdBy)
		if err != nil {
			resp.Errors = append(resp.Errors, bulkItemError(i, item, err))
			continue
		}
		if created.Created {
			resp.CreatedCount++
		}
	}

	s.log.Info("bulk relation create finished",
		slog.String("definition_id", def.ID.String()),
		slog.Int("requested", resp.TotalRequested),
		slog.Int("created", resp.CreatedCount),
		slog.Int("failed", len(resp.Errors)),
	)
	return resp, nil
}

func bulkItemError(index int, item BulkRelationItem, err error) BulkItemError {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return BulkItemError{Index: index, Code: appErr.Code, Message: appErr.Message, Item: item}
	}
	return BulkItemError{Index: index, Code: "internal_error", Message: "relation could not be created", Item: item}
}

// --- cascade ---

// CascadeOnEntryDelete applies the cascade behavior of every definition
// touching the entry, inside one transaction.
//
// If any side with restrict behavior still has edges, nothing is deleted and
// the result reports the blocking definitions; the caller must not delete the
// entry. Otherwise cascade and set_null sides have their edges removed
// (set_null keeps no orphan state since the link itself is the edge row) and
// no_action sides are left alone, deliberately allowing dangling references.
func (s *Service) CascadeOnEntryDelete(ctx context.Context, entryID uuid.UUID) (*CascadeResult, error) {
	ctx, span := tracing.Start(ctx, "relations.cascade",
		attribute.String("quill.entry.id", entryID.String()),
	)
	defer span.End()

	result := &CascadeResult{EntryID: entryID}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		defs, err := tx.ListDefinitionsTouchingEntry(ctx, entryID)
		if err != nil {
			return err
		}

		type side struct {
			def      *RelationDefinition
			behavior CascadeBehavior
			asSource bool
			count    int
		}
		var sides []side
		blocking := map[string]bool{}

		for _, def := range defs {
			sourceCount, err := tx.CountEdgesBySource(ctx, def.ID, entryID)
			if err != nil {
				return err
			}
			if sourceCount > 0 {
				if def.OnSourceDelete == CascadeRestrict {
					blocking[def.Name] = true
				}
				sides = append(sides, side{def: def, behavior: def.OnSourceDelete, asSource: true, count: sourceCount})
			}

			targetCount, err := tx.CountEdgesByTarget(ctx, def.ID, entryID)
			if err != nil {
				return err
			}
			if targetCount > 0 {
				if def.OnTargetDelete == CascadeRestrict {
					blocking[def.Name] = true
				}
				sides = append(sides, side{def: def, behavior: def.OnTargetDelete, asSource: false, count: targetCount})
			}
		}

		if len(blocking) > 0 {
			result.HasBlockingRelations = true
			for name := range blocking {
				result.BlockingDefinitions = append(result.BlockingDefinitions, name)
			}
			sort.Strings(result.BlockingDefinitions)
			return nil
		}

		for _, sd := range sides {
			switch sd.behavior {
			case CascadeDelete, CascadeSetNull:
				var deleted int
				var err error
				if sd.asSource {
					deleted, err = tx.DeleteEdgesBySource(ctx, sd.def.ID, entryID)
				} else {
					deleted, err = tx.DeleteEdgesByTarget(ctx, sd.def.ID, entryID)
				}
				if err != nil {
					return err
				}
				result.DeletedEdges += deleted
				metricCascadeEdgesDeleted.WithLabelValues(string(sd.behavior)).Add(float64(deleted))

				// Removing target-side edges shrinks other entries'
				// relation counts under this definition.
				if !sd.asSource && (sd.def.IsRequired || sd.def.MinRelations > 0) {
					result.Warnings = append(result.Warnings, ConstraintWarning{
						Rule: RuleMinRelations,
						Message: fmt.Sprintf(
							"cascade removed %d relations under definition %q, which expects at least %d per source",
							deleted, sd.def.Name, minRequired(sd.def)),
					})
				}
			case CascadeNoAction:
				// Edges survive with a dangling endpoint; traversal filters
				// them out when resolving entries.
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.HasBlockingRelations {
		s.log.Warn("entry deletion blocked by restrict relations",
			slog.String("entry_id", entryID.String()),
			slog.Any("definitions", result.BlockingDefinitions),
		)
	} else if result.DeletedEdges > 0 {
		s.log.Info("cascade removed relations for deleted entry",
			slog.String("entry_id", entryID.String()),
			slog.Int("deleted_edges", result.DeletedEdges),
		)
	}
	return result, nil
}

func minRequired(def *RelationDefinition) int {
	if def.MinRelations > 0 {
		return def.MinRelations
	}
	return 1
}

// --- traversal ---

// GetEntryRelations materializes the relation graph around one entry:
// forward groups for definitions where the entry's type is the source, and
// reverse groups for bidirectional definitions where it is the target.
// Expansion is depth-bounded and cycle-safe; edges whose far endpoint no
// longer resolves are silently dropped.
func (s *Service) GetEntryRelations(ctx context.Context, entryID uuid.UUID, q EntryRelationsQuery) (*EntryRelationsResponse, error) {
	ctx, span := tracing.Start(ctx, "relations.entry_graph",
		attribute.String("quill.entry.id", entryID.String()),
		attribute.Int("quill.traversal.depth", q.MaxDepth),
	)
	defer span.End()

	entry, err := s.entries.GetEntrySummary(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperror.NewNotFound("entry", entryID.String())
	}

	depth := s.effectiveDepth(q.MaxDepth)
	visited := map[uuid.UUID]bool{entryID: true}
	groups, err := s.expand(ctx, entryID, entry.ContentType, q, depth, visited)
	if err != nil {
		return nil, err
	}

	return &EntryRelationsResponse{Entry: entry, Relations: groups}, nil
}

// effectiveDepth resolves the requested depth against the configured default
// and the hard ceiling.
func (s *Service) effectiveDepth(requested int) int {
	depth := requested
	if depth <= 0 {
		depth = s.cfg.Relations.MaxTraversalDepth
	}
	if depth > maxTraversalCeiling {
		if requested > maxTraversalCeiling {
			metricTraversalDepthClamped.Inc()
		}
		depth = maxTraversalCeiling
	}
	if depth < 1 {
		depth = 1
	}
	return depth
}

// expand builds the relation groups of one entry and recurses into neighbors
// while depth remains. visited holds every entry on the path from the root to
// here, so cycles terminate while diamonds still expand on each branch.
func (s *Service) expand(ctx context.Context, entryID, contentTypeID uuid.UUID, q EntryRelationsQuery, depth int, visited map[uuid.UUID]bool) (map[string]*RelationGroup, error) {
	defs, err := s.store.ListDefinitionsForContentType(ctx, contentTypeID)
	if err != nil {
		return nil, err
	}

	// Forward groups are placed first; definition names are unique, so they
	// never collide with each other. Reverse projections are keyed after and
	// renamed when their declared key is already taken.
	groups := map[string]*RelationGroup{}
	for _, def := range defs {
		if q.RelationName != "" && def.Name != q.RelationName {
			continue
		}
		if def.SourceContentTypeID != contentTypeID {
			continue
		}
		edges, err := s.store.ListEdgesBySource(ctx, def.ID, entryID)
		if err != nil {
			return nil, err
		}
		group, err := s.buildGroup(ctx, def, DirectionForward, edges, q, depth, visited)
		if err != nil {
			return nil, err
		}
		if group != nil {
			groups[def.Name] = group
		}
	}

	for _, def := range defs {
		if q.RelationName != "" && def.Name != q.RelationName {
			continue
		}
		if !def.IsBidirectional || def.TargetContentTypeID != contentTypeID {
			continue
		}
		edges, err := s.store.ListEdgesByTarget(ctx, def.ID, entryID)
		if err != nil {
			return nil, err
		}
		group, err := s.buildGroup(ctx, def, DirectionReverse, edges, q, depth, visited)
		if err != nil {
			return nil, err
		}
		if group != nil {
			groups[resolveGroupKey(groups, def)] = group
		}
	}
	return groups, nil
}

// resolveGroupKey picks the map key for a reverse projection, stepping past
// keys another group already holds so no projection silently shadows
// another.
func resolveGroupKey(groups map[string]*RelationGroup, def *RelationDefinition) string {
	key := reverseGroupKey(def)
	if _, taken := groups[key]; !taken {
		return key
	}
	key = def.Name + "_inverse"
	for i := 2; ; i++ {
		if _, taken := groups[key]; !taken {
			return key
		}
		key = fmt.Sprintf("%s_inverse_%d", def.Name, i)
	}
}

// buildGroup resolves one edge list into a relation group, dropping edges
// whose far endpoint no longer exists.
func (s *Service) buildGroup(ctx context.Context, def *RelationDefinition, dir TraversalDirection, edges []*ContentRelation, q EntryRelationsQuery, depth int, visited map[uuid.UUID]bool) (*RelationGroup, error) {
	if len(edges) == 0 {
		return nil, nil
	}

	neighborOf := func(edge *ContentRelation) uuid.UUID {
		if dir == DirectionForward {
			return edge.TargetEntryID
		}
		return edge.SourceEntryID
	}
	neighborType := def.TargetContentTypeID
	if dir == DirectionReverse {
		neighborType = def.SourceContentTypeID
	}

	ids := make([]uuid.UUID, 0, len(edges))
	for _, edge := range edges {
		ids = append(ids, neighborOf(edge))
	}
	summaries, err := s.entries.GetEntrySummaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	group := &RelationGroup{
		Name:      def.Name,
		Type:      def.RelationType,
		Direction: dir,
		Items:     []*RelatedEntry{},
	}
	for _, edge := range edges {
		neighborID := neighborOf(edge)
		summary := summaries[neighborID]
		if summary == nil {
			// Dangling endpoint left behind by no_action.
			continue
		}

		item := &RelatedEntry{
			Entry:      summary,
			RelationID: edge.ID,
			SortOrder:  edge.SortOrder,
		}
		if q.IncludeMetadata {
			item.RelationData = edge.RelationData
		}

		if depth > 1 && !visited[neighborID] {
			branch := make(map[uuid.UUID]bool, len(visited)+1)
			for id := range visited {
				branch[id] = true
			}
			branch[neighborID] = true

			nested := q
			nested.RelationName = ""
			item.Relations, err = s.expand(ctx, neighborID, neighborType, nested, depth-1, branch)
			if err != nil {
				return nil, err
			}
		}
		group.Items = append(group.Items, item)
	}

	if len(group.Items) == 0 {
		return nil, nil
	}
	group.Count = len(group.Items)
	return group, nil
}

// reverseGroupKey names the target-side projection of a bidirectional
// definition. Falls back to a derived name when no target field was declared.
func reverseGroupKey(def *RelationDefinition) string {
	if def.TargetFieldName != nil && *def.TargetFieldName != "" {
		return *def.TargetFieldName
	}
	return def.Name + "_inverse"
}

// normalizePage applies the configured default and maximum page sizes.
func (s *Service) normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = s.cfg.Relations.DefaultPageSize
	}
	if max := s.cfg.Relations.MaxPageSize; limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
