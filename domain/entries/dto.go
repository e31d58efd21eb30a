package entries

import (
	"github.com/google/uuid"

	"github.com/quillcms/quill/domain/relations"
	"github.com/quillcms/quill/pkg/apperror"
)

// CreateContentTypeRequest is the request body for registering a content type.
type CreateContentTypeRequest struct {
	Name        string  `json:"name"`
	DisplayName *string `json:"display_name,omitempty"`
}

// Validate checks required fields.
func (r *CreateContentTypeRequest) Validate() []apperror.FieldError {
	var errs []apperror.FieldError
	if r.Name == "" {
		errs = append(errs, apperror.FieldError{Field: "name", Message: "name is required"})
	}
	return errs
}

// CreateEntryRequest is the request body for creating a content entry.
type CreateEntryRequest struct {
	ContentTypeID uuid.UUID `json:"content_type_id"`
	Slug          string    `json:"slug"`
	Title         *string   `json:"title,omitempty"`
	Status        string    `json:"status,omitempty"`
}

// Validate checks required fields.
func (r *CreateEntryRequest) Validate() []apperror.FieldError {
	var errs []apperror.FieldError
	if r.ContentTypeID == uuid.Nil {
		errs = append(errs, apperror.FieldError{Field: "content_type_id", Message: "content_type_id is required"})
	}
	if r.Slug == "" {
		errs = append(errs, apperror.FieldError{Field: "slug", Message: "slug is required"})
	}
	return errs
}

// EntryListParams filter and paginate entry listings.
type EntryListParams struct {
	ContentTypeID *uuid.UUID
	Status        string
	Limit         int
	Offset        int
}

// EntryListResponse carries one page of entries plus the total match count.
type EntryListResponse struct {
	Items  []*ContentEntry `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// DeleteEntryResponse reports a completed entry deletion including what the
// relations cascade did.
type DeleteEntryResponse struct {
	Deleted bool                     `json:"deleted"`
	Cascade *relations.CascadeResult `json:"cascade,omitempty"`
}
