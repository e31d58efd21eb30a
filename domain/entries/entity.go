// Package entries owns content types and content entries. The relations
// engine consumes it through an entry store interface; entry deletion defers
// to the engine's cascade behavior before touching the row.
package entries

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ContentType is a runtime-defined content schema. Field definitions live in
// the schema subsystem; this table only anchors identity for entries and
// relation definitions.
type ContentType struct {
	bun.BaseModel `bun:"table:cms.content_types,alias:ct"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	DisplayName *string   `bun:"display_name" json:"display_name,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:now()" json:"created_at"`
}

// ContentEntry is one piece of content. The field payload lives in the
// content storage subsystem; the relations engine only needs identity, type
// and publication status.
type ContentEntry struct {
	bun.BaseModel `bun:"table:cms.content_entries,alias:ce"`

	ID            uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()" json:"id"`
	ContentTypeID uuid.UUID `bun:"content_type_id,type:uuid,notnull" json:"content_type_id"`
	Slug          string    `bun:"slug,notnull" json:"slug"`
	Title         *string   `bun:"title" json:"title,omitempty"`
	Status        string    `bun:"status,notnull,default:'draft'" json:"status"`
	CreatedBy     *string   `bun:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:now()" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:now()" json:"updated_at"`
}
