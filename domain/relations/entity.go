package relations

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RelationType is the declared shape of a relation definition.
type RelationType string

const (
	OneToOne   RelationType = "one_to_one"
	OneToMany  RelationType = "one_to_many"
	ManyToMany RelationType = "many_to_many"
)

// Valid reports whether t is a recognized relation type.
func (t RelationType) Valid() bool {
	switch t {
	case OneToOne, OneToMany, ManyToMany:
		return true
	}
	return false
}

// CascadeBehavior is the action applied to edges when an endpoint entry is deleted.
type CascadeBehavior string

const (
	CascadeDelete   CascadeBehavior = "cascade"
	CascadeSetNull  CascadeBehavior = "set_null"
	CascadeRestrict CascadeBehavior = "restrict"
	CascadeNoAction CascadeBehavior = "no_action"
)

// Valid reports whether b is a recognized cascade behavior.
func (b CascadeBehavior) Valid() bool {
	switch b {
	case CascadeDelete, CascadeSetNull, CascadeRestrict, CascadeNoAction:
		return true
	}
	return false
}

// RelationDefinition is the declared contract describing how two content
// types may be linked: cardinality, cascade behavior and direction. Content
// types themselves are defined at runtime by the schema subsystem; the
// relations engine treats their ids as opaque.
type RelationDefinition struct {
	bun.BaseModel `bun:"table:cms.relation_definitions,alias:rd"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	DisplayName *string   `bun:"display_name" json:"display_name,omitempty"`

	SourceContentTypeID uuid.UUID `bun:"source_content_type_id,type:uuid,notnull" json:"source_content_type_id"`
	SourceFieldName     string    `bun:"source_field_name,notnull" json:"source_field_name"`
	TargetContentTypeID uuid.UUID `bun:"target_content_type_id,type:uuid,notnull" json:"target_content_type_id"`
	TargetFieldName     *string   `bun:"target_field_name" json:"target_field_name,omitempty"`

	RelationType    RelationType `bun:"relation_type,notnull" json:"relation_type"`
	IsBidirectional bool         `bun:"is_bidirectional,notnull,default:false" json:"is_bidirectional"`
	IsRequired      bool         `bun:"is_required,notnull,default:false" json:"is_required"`

	OnSourceDelete CascadeBehavior `bun:"on_source_delete,notnull,default:'no_action'" json:"on_source_delete"`
	OnTargetDelete CascadeBehavior `bun:"on_target_delete,notnull,default:'no_action'" json:"on_target_delete"`

	MinRelations int  `bun:"min_relations,notnull,default:0" json:"min_relations"`
	MaxRelations *int `bun:"max_relations" json:"max_relations,omitempty"`

	IsActive  bool           `bun:"is_active,notnull,default:true" json:"is_active"`
	SortOrder int            `bun:"sort_order,notnull,default:0" json:"sort_order"`
	Metadata  map[string]any `bun:"metadata,type:jsonb,notnull,default:'{}'" json:"metadata,omitempty"`

	CreatedBy *string   `bun:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:now()" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:now()" json:"updated_at"`
}

// ContentRelation is one directed edge between two content entries,
// instantiating a definition. Endpoints are immutable after creation;
// changing one means delete and recreate.
type ContentRelation struct {
	bun.BaseModel `bun:"table:cms.content_relations,alias:cr"`

	ID                   uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	RelationDefinitionID uuid.UUID `bun:"relation_definition_id,type:uuid,notnull" json:"relation_definition_id"`
	SourceEntryID        uuid.UUID `bun:"source_entry_id,type:uuid,notnull" json:"source_entry_id"`
	TargetEntryID        uuid.UUID `bun:"target_entry_id,type:uuid,notnull" json:"target_entry_id"`

	// RelationType mirrors the definition's type; the one_to_one partial
	// unique indexes key on it.
	RelationType RelationType `bun:"relation_type,notnull" json:"-"`

	RelationData map[string]any `bun:"relation_data,type:jsonb,notnull,default:'{}'" json:"relation_data,omitempty"`
	SortOrder    int            `bun:"sort_order,notnull,default:0" json:"sort_order"`

	CreatedBy *string   `bun:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:now()" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:now()" json:"updated_at"`
}

// EntrySummary is the compact projection of a content entry used in
// traversal results and endpoint validation. The entry store owns the
// full entry lifecycle.
type EntrySummary struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Title       *string   `json:"title,omitempty"`
	ContentType uuid.UUID `json:"content_type_id"`
	Status      string    `json:"status"`
}
