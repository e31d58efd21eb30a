package relations

import (
	"github.com/labstack/echo/v4"

	"github.com/quillcms/quill/pkg/auth"
)

// RegisterRoutes registers relation definition and relation routes
func RegisterRoutes(e *echo.Echo, h *Handler, authMiddleware *auth.Middleware) {
	defs := e.Group("/api/relation-definitions")
	defs.Use(authMiddleware.RequireActor())

	defs.POST("", h.CreateDefinition)
	defs.GET("", h.ListDefinitions)
	defs.GET("/:id", h.GetDefinition)
	defs.GET("/by-name/:name", h.GetDefinitionByName)
	defs.PATCH("/:id", h.UpdateDefinition)
	defs.POST("/:id/deactivate", h.DeactivateDefinition)
	defs.DELETE("/:id", h.DeleteDefinition)

	rels := e.Group("/api/relations")
	rels.Use(authMiddleware.RequireActor())

	rels.POST("", h.CreateRelation)
	rels.POST("/bulk", h.BulkCreateRelations)
	rels.GET("", h.ListRelations)
	rels.GET("/:id", h.GetRelation)
	rels.PATCH("/:id", h.UpdateRelation)
	rels.DELETE("/:id", h.DeleteRelation)

	// The entry graph view lives under the entries surface but is served by
	// the relations engine.
	entries := e.Group("/api/entries")
	entries.Use(authMiddleware.RequireActor())

	entries.GET("/:id/relations", h.GetEntryRelations)
}
