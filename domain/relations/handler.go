package relations

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/quillcms/quill/pkg/apperror"
	"github.com/quillcms/quill/pkg/auth"
)

// Handler handles HTTP requests for relation definitions and relations
type Handler struct {
	svc *Service
}

// NewHandler creates a new relations handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func actorID(c echo.Context) string {
	if actor := auth.GetActor(c); actor != nil {
		return actor.ID
	}
	return ""
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.ErrBadRequest.WithMessage(name + " must be a valid uuid")
	}
	return id, nil
}

// CreateDefinition creates a relation definition
// POST /api/relation-definitions
func (h *Handler) CreateDefinition(c echo.Context) error {
	var req CreateDefinitionRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	def, err := h.svc.CreateDefinition(c.Request().Context(), &req, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, def)
}

// ListDefinitions returns a filtered page of relation definitions
// GET /api/relation-definitions
func (h *Handler) ListDefinitions(c echo.Context) error {
	params := DefinitionListParams{
		Search:          c.QueryParam("search"),
		IncludeInactive: c.QueryParam("include_inactive") == "true",
		Limit:           intQuery(c, "limit"),
		Offset:          intQuery(c, "offset"),
	}
	if v := c.QueryParam("source_content_type_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperror.ErrBadRequest.WithMessage("source_content_type_id must be a valid uuid")
		}
		params.SourceContentTypeID = &id
	}
	if v := c.QueryParam("target_content_type_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperror.ErrBadRequest.WithMessage("target_content_type_id must be a valid uuid")
		}
		params.TargetContentTypeID = &id
	}
	if v := c.QueryParam("relation_type"); v != "" {
		rt := RelationType(v)
		if !rt.Valid() {
			return apperror.ErrBadRequest.WithMessage("unrecognized relation_type")
		}
		params.RelationType = &rt
	}

	resp, err := h.svc.ListDefinitions(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// GetDefinition returns one relation definition
// GET /api/relation-definitions/:id
func (h *Handler) GetDefinition(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	def, err := h.svc.GetDefinition(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, def)
}

// GetDefinitionByName looks up a relation definition by name
// GET /api/relation-definitions/by-name/:name
func (h *Handler) GetDefinitionByName(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return apperror.ErrBadRequest.WithMessage("name is required")
	}

	def, err := h.svc.GetDefinitionByName(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, def)
}

// UpdateDefinition partially updates a relation definition
// PATCH /api/relation-definitions/:id
func (h *Handler) UpdateDefinition(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateDefinitionRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	def, err := h.svc.UpdateDefinition(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, def)
}

// DeactivateDefinition soft-disables a relation definition
// POST /api/relation-definitions/:id/deactivate
func (h *Handler) DeactivateDefinition(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	def, err := h.svc.DeactivateDefinition(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, def)
}

// DeleteDefinition permanently removes a relation definition
// DELETE /api/relation-definitions/:id
func (h *Handler) DeleteDefinition(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteDefinition(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateRelation creates one relation edge
// POST /api/relations
func (h *Handler) CreateRelation(c echo.Context) error {
	var req CreateRelationRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	resp, err := h.svc.CreateRelation(c.Request().Context(), &req, actorID(c))
	if err != nil {
		return err
	}
	status := http.StatusCreated
	if !resp.Created {
		status = http.StatusOK
	}
	return c.JSON(status, resp)
}

// ListRelations returns a filtered page of relation edges
// GET /api/relations
func (h *Handler) ListRelations(c echo.Context) error {
	params := EdgeListParams{
		Limit:  intQuery(c, "limit"),
		Offset: intQuery(c, "offset"),
	}
	if v := c.QueryParam("relation_definition_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperror.ErrBadRequest.WithMessage("relation_definition_id must be a valid uuid")
		}
		params.RelationDefinitionID = &id
	}
	if v := c.QueryParam("source_entry_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperror.ErrBadRequest.WithMessage("source_entry_id must be a valid uuid")
		}
		params.SourceEntryID = &id
	}
	if v := c.QueryParam("target_entry_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperror.ErrBadRequest.WithMessage("target_entry_id must be a valid uuid")
		}
		params.TargetEntryID = &id
	}

	resp, err := h.svc.ListRelations(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// GetRelation returns one relation edge
// GET /api/relations/:id
func (h *Handler) GetRelation(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	edge, err := h.svc.GetRelation(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, edge)
}

// UpdateRelation mutates an edge's payload and ordering
// PATCH /api/relations/:id
func (h *Handler) UpdateRelation(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateRelationRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	edge, err := h.svc.UpdateRelation(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, edge)
}

// DeleteRelation removes one relation edge
// DELETE /api/relations/:id
func (h *Handler) DeleteRelation(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	resp, err := h.svc.DeleteRelation(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// BulkCreateRelations creates many edges with partial-success semantics
// POST /api/relations/bulk
func (h *Handler) BulkCreateRelations(c echo.Context) error {
	var req BulkCreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.ErrBadRequest.WithMessage("invalid request body")
	}

	resp, err := h.svc.BulkCreate(c.Request().Context(), &req, actorID(c))
	if err != nil {
		return err
	}
	// Partial success is still a multi-status outcome, not an error.
	status := http.StatusCreated
	if len(resp.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	return c.JSON(status, resp)
}

// GetEntryRelations materializes the relation graph around one entry
// GET /api/entries/:id/relations
func (h *Handler) GetEntryRelations(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	q := EntryRelationsQuery{
		RelationName:    c.QueryParam("relation_name"),
		IncludeMetadata: c.QueryParam("include_metadata") == "true",
		MaxDepth:        intQuery(c, "max_depth"),
	}

	resp, err := h.svc.GetEntryRelations(c.Request().Context(), id, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func intQuery(c echo.Context, name string) int {
	v := c.QueryParam(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
