package relations

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/quillcms/quill/pkg/apperror"
)

// CreateDefinitionRequest is the request body for creating a relation definition.
type CreateDefinitionRequest struct {
	Name                string          `json:"name"`
	DisplayName         *string         `json:"display_name,omitempty"`
	SourceContentTypeID uuid.UUID       `json:"source_content_type_id"`
	SourceFieldName     string          `json:"source_field_name"`
	TargetContentTypeID uuid.UUID       `json:"target_content_type_id"`
	TargetFieldName     *string         `json:"target_field_name,omitempty"`
	RelationType        RelationType    `json:"relation_type"`
	IsBidirectional     bool            `json:"is_bidirectional"`
	IsRequired          bool            `json:"is_required"`
	OnSourceDelete      CascadeBehavior `json:"on_source_delete,omitempty"`
	OnTargetDelete      CascadeBehavior `json:"on_target_delete,omitempty"`
	MinRelations        int             `json:"min_relations"`
	MaxRelations        *int            `json:"max_relations,omitempty"`
	SortOrder           int             `json:"sort_order"`
	Metadata            map[string]any  `json:"metadata,omitempty"`
}

// Validate returns every violated field, not just the first.
func (r *CreateDefinitionRequest) Validate() []apperror.FieldError {
	var errs []apperror.FieldError

	if r.Name == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "name is required"})
	}
	if r.SourceContentTypeID == uuid.Nil {
		errs = append(errs, apperror.FieldError{Field: "source_content_type_id", Message: "source_content_type_id is required"})
	}
	if r.SourceFieldName == "" {
		errs = append(errs, apperror.FieldError{Field: "source_field_name", Message: "source_field_name is required"})
	}
	if r.TargetContentTypeID == uuid.Nil {
		errs = append(errs, apperror.FieldError{Field: "target_content_type_id", Message: "target_content_type_id is required"})
	}
	if !r.RelationType.Valid() {
		errs = append(errs, apperror.FieldError{
			Field:   "relation_type",
			Message: fmt.Sprintf("must be one of %s, %s, %s", OneToOne, OneToMany, ManyToMany),
		})
	}
	if r.OnSourceDelete != "" && !r.OnSourceDelete.Valid() {
		errs = append(errs, apperror.FieldError{
			Field:   "on_source_delete",
			Message: fmt.Sprintf("must be one of %s, %s, %s, %s", CascadeDelete, CascadeSetNull, CascadeRestrict, CascadeNoAction),
		})
	}
	if r.OnTargetDelete != "" && !r.OnTargetDelete.Valid() {
		errs = append(errs, apperror.FieldError{
			Field:   "on_target_delete",
			Message: fmt.Sprintf("must be one of %s, %s, %s, %s", CascadeDelete, CascadeSetNull, CascadeRestrict, CascadeNoAction),
		})
	}
	if r.MinRelations < 0 {
		errs = append(errs, apperror.FieldError{Field: "min_relations", Message: "min_relations must be >= 0"})
	}
	if r.MaxRelations != nil {
		if *r.MaxRelations < 1 {
			errs = append(errs, apperror.FieldError{Field: "max_relations", Message: "max_relations must be >= 1"})
		} else if r.MinRelations > *r.MaxRelations {
			errs = append(errs, apperror.FieldError{Field: "min_relations", Message: "min_relations must not exceed max_relations"})
		}
	}

	return errs
}

// UpdateDefinitionRequest is a partial update; nil fields are left unchanged.
type UpdateDefinitionRequest struct {
	DisplayName     *string          `json:"display_name,omitempty"`
	TargetFieldName *string          `json:"target_field_name,omitempty"`
	RelationType    *RelationType    `json:"relation_type,omitempty"`
	IsBidirectional *bool            `json:"is_bidirectional,omitempty"`
	IsRequired      *bool            `json:"is_required,omitempty"`
	OnSourceDelete  *CascadeBehavior `json:"on_source_delete,omitempty"`
	OnTargetDelete  *CascadeBehavior `json:"on_target_delete,omitempty"`
	MinRelations    *int             `json:"min_relations,omitempty"`
	MaxRelations    *int             `json:"max_relations,omitempty"`
	SortOrder       *int             `json:"sort_order,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty"`
}

// Validate checks the fields that are present.
func (r *UpdateDefinitionRequest) Validate() []apperror.FieldError {
	var errs []apperror.FieldError

	if r.RelationType != nil && !r.RelationType.Valid() {
		errs = append(errs, apperror.FieldError{
			Field:   "relation_type",
			Message: fmt.Sprintf("must be one of %s, %s, %s", OneToOne, OneToMany, ManyToMany),
		})
	}
	if r.OnSourceDelete != nil && !r.OnSourceDelete.Valid() {
		errs = append(errs, apperror.FieldError{Field: "on_source_delete", Message: "unrecognized cascade behavior"})
	}
	if r.OnTargetDelete != nil && !r.OnTargetDelete.Valid() {
		errs = append(errs, apperror.FieldError{Field: "on_target_delete", Message: "unrecognized cascade behavior"})
	}
	if r.MinRelations != nil && *r.MinRelations < 0 {
		errs = append(errs, apperror.FieldError{Field: "min_relations", Message: "min_relations must be >= 0"})
	}
	if r.MaxRelations != nil && *r.MaxRelations < 1 {
		errs = append(errs, apperror.FieldError{Field: "max_relations", Message: "max_relations must be >= 1"})
	}

	return errs
}

// DefinitionListParams filter and paginate definition listings.
type DefinitionListParams struct {
	SourceContentTypeID *uuid.UUID
	TargetContentTypeID *uuid.UUID
	RelationType        *RelationType
	IncludeInactive     bool
	Search              string
	Limit               int
	Offset              int
}

// DefinitionListResponse carries one page plus the total match count.
type DefinitionListResponse struct {
	Items  []*RelationDefinition `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// CreateRelationRequest is the request body for creating an edge.
type CreateRelationRequest struct {
	RelationDefinitionID uuid.UUID      `json:"relation_definition_id"`
	SourceEntryID        uuid.UUID      `json:"source_entry_id"`
	TargetEntryID        uuid.UUID      `json:"target_entry_id"`
	RelationData         map[string]any `json:"relation_data,omitempty"`
	SortOrder            int            `json:"sort_order"`
}

// Validate returns every violated field.
func (r *CreateRelationRequest) Validate() []apperror.FieldError {
	var errs []apperror.FieldError
	if r.RelationDefinitionID == uuid.Nil {
		errs = append(errs, apperror.FieldError{Field: "relation_definition_id", Message: "relation_definition_id is required"})
	}
	if r.SourceEntryID == uuid.Nil {
		errs = append(errs, apperror.FieldError{Field: "source_entry_id", Message: "source_entry_id is required"})
	}
	if r.TargetEntryID == uuid.Nil {
		errs = append(errs, apperror.FieldError{Field: "target_entry_id", Message: "target_entry_id is required"})
	}
	return errs
}

// UpdateRelationRequest mutates edge payload only. Endpoint fields are
// accepted in the body solely so their presence can be rejected explicitly:
// endpoints are immutable, changing one is delete plus recreate.
type UpdateRelationRequest struct {
	RelationData  map[string]any `json:"relation_data,omitempty"`
	SortOrder     *int           `json:"sort_order,omitempty"`
	SourceEntryID *uuid.UUID     `json:"source_entry_id,omitempty"`
	TargetEntryID *uuid.UUID     `json:"target_entry_id,omitempty"`
}

// Validate rejects endpoint mutation attempts.
func (r *UpdateRelationRequest) Validate() []apperror.FieldError {
	var errs []apperror.FieldError
	if r.SourceEntryID != nil {
		errs = append(errs, apperror.FieldError{Field: "source_entry_id", Message: "endpoints are immutable; delete and recreate the relation"})
	}
	if r.TargetEntryID != nil {
		errs = append(errs, apperror.FieldError{Field: "target_entry_id", Message: "endpoints are immutable; delete and recreate the relation"})
	}
	return errs
}

// EdgeListParams filter and paginate edge listings.
type EdgeListParams struct {
	RelationDefinitionID *uuid.UUID
	SourceEntryID        *uuid.UUID
	TargetEntryID        *uuid.UUID
	Limit                int
	Offset               int
}

// EdgeListResponse carries one page of edges plus the total match count.
type EdgeListResponse struct {
	Items  []*ContentRelation `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// CreateRelationResponse reports the stored edge and whether this call
// created it. Created=false means the identical edge already existed and the
// call was an idempotent no-op.
type CreateRelationResponse struct {
	Relation *ContentRelation `json:"relation"`
	Created  bool             `json:"created"`
}

// DeleteRelationResponse reports a completed deletion. Deletion is never
// blocked; warnings flag resulting under-minimum states.
type DeleteRelationResponse struct {
	Deleted  bool                `json:"deleted"`
	Warnings []ConstraintWarning `json:"warnings,omitempty"`
}

// BulkRelationItem is one edge inside a bulk create.
type BulkRelationItem struct {
	SourceEntryID uuid.UUID      `json:"source_entry_id"`
	TargetEntryID uuid.UUID      `json:"target_entry_id"`
	RelationData  map[string]any `json:"relation_data,omitempty"`
	SortOrder     int            `json:"sort_order"`
}

// BulkCreateRequest is the request body for bulk edge creation.
type BulkCreateRequest struct {
	RelationDefinitionID uuid.UUID          `json:"relation_definition_id"`
	Relations            []BulkRelationItem `json:"relations"`
}

// BulkItemError records one failed item by position.
type BulkItemError struct {
	Index   int              `json:"index"`
	Code    string           `json:"code"`
	Message string           `json:"message"`
	Item    BulkRelationItem `json:"item"`
}

// BulkCreateResponse is the partial-success result of a bulk create. Earlier
// successes are never rolled back by later failures.
type BulkCreateResponse struct {
	CreatedCount   int             `json:"created_count"`
	TotalRequested int             `json:"total_requested"`
	Errors         []BulkItemError `json:"errors"`
}

// CascadeResult reports the outcome of applying cascade behavior for a
// deleted entry. HasBlockingRelations means at least one restrict definition
// still references the entry and the caller's entry deletion must not proceed.
type CascadeResult struct {
	EntryID              uuid.UUID           `json:"entry_id"`
	HasBlockingRelations bool                `json:"has_blocking_relations"`
	BlockingDefinitions  []string            `json:"blocking_definitions,omitempty"`
	DeletedEdges         int                 `json:"deleted_edges"`
	Warnings             []ConstraintWarning `json:"warnings,omitempty"`
}

// EntryRelationsQuery are the options for entry graph materialization.
type EntryRelationsQuery struct {
	// RelationName restricts the result to a single definition.
	RelationName string
	// IncludeMetadata includes per-edge relation_data in the items.
	IncludeMetadata bool
	// MaxDepth asks for recursive expansion of related entries. Clamped
	// server-side; see Service.effectiveDepth.
	MaxDepth int
}

// TraversalDirection distinguishes edges followed source-to-target from
// bidirectional edges viewed from the target side.
type TraversalDirection string

const (
	DirectionForward TraversalDirection = "forward"
	DirectionReverse TraversalDirection = "reverse"
)

// RelatedEntry is one neighbor in a materialized relation group.
type RelatedEntry struct {
	Entry        *EntrySummary             `json:"entry"`
	RelationID   uuid.UUID                 `json:"relation_id"`
	SortOrder    int                       `json:"sort_order"`
	RelationData map[string]any            `json:"relation_data,omitempty"`
	Relations    map[string]*RelationGroup `json:"relations,omitempty"`
}

// RelationGroup is all neighbors of an entry under one definition and
// direction.
type RelationGroup struct {
	Name      string             `json:"name"`
	Type      RelationType       `json:"type"`
	Direction TraversalDirection `json:"direction"`
	Items     []*RelatedEntry    `json:"items"`
	Count     int                `json:"count"`
}

// EntryRelationsResponse is the materialized relation graph of one entry.
type EntryRelationsResponse struct {
	Entry     *EntrySummary             `json:"entry"`
	Relations map[string]*RelationGroup `json:"relations"`
}
