package entries

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/quillcms/quill/pkg/apperror"
	"github.com/quillcms/quill/pkg/auth"
)

// Handler handles HTTP requests for content types and entries
type Handler struct {
	svc *Service
}

// NewHandler creates a new entries handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CreateContentType registers a content type
// POST /api/content-types
func (h *Handler) CreateContentType(c echo.Context) error {
	var req CreateContentTypeRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	ct, err := h.svc.CreateContentType(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ct)
}

// ListContentTypes returns all content types
// GET /api/content-types
func (h *Handler) ListContentTypes(c echo.Context) error {
	types, err := h.svc.ListContentTypes(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, types)
}

// GetContentType returns one content type
// GET /api/content-types/:id
func (h *Handler) GetContentType(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.ErrBadRequest.WithMessage("id must be a valid uuid")
	}

	ct, err := h.svc.GetContentType(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ct)
}

// GetContentTypeByName looks up a content type by name
// GET /api/content-types/by-name/:name
func (h *Handler) GetContentTypeByName(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return apperror.ErrBadRequest.WithMessage("name is required")
	}

	ct, err := h.svc.GetContentTypeByName(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ct)
}

// CreateEntry creates a content entry
// POST /api/entries
func (h *Handler) CreateEntry(c echo.Context) error {
	var req CreateEntryRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	var createdBy string
	if actor := auth.GetActor(c); actor != nil {
		createdBy = actor.ID
	}

	entry, err := h.svc.CreateEntry(c.Request().Context(), &req, createdBy)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

// ListEntries returns a filtered page of entries
// GET /api/entries
func (h *Handler) ListEntries(c echo.Context) error {
	params := EntryListParams{
		Status: c.QueryParam("status"),
	}
	if v := c.QueryParam("content_type_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperror.ErrBadRequest.WithMessage("content_type_id must be a valid uuid")
		}
		params.ContentTypeID = &id
	}
	if v := c.QueryParam("limit"); v != "" {
		params.Limit, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("offset"); v != "" {
		params.Offset, _ = strconv.Atoi(v)
	}

	resp, err := h.svc.ListEntries(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// GetEntry returns one content entry
// GET /api/entries/:id
func (h *Handler) GetEntry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.ErrBadRequest.WithMessage("id must be a valid uuid")
	}

	entry, err := h.svc.GetEntry(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

// DeleteEntry deletes an entry after applying relation cascade behavior
// DELETE /api/entries/:id
func (h *Handler) DeleteEntry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.ErrBadRequest.WithMessage("id must be a valid uuid")
	}

	resp, err := h.svc.DeleteEntry(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
