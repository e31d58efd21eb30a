package entries

import (
	"github.com/labstack/echo/v4"

	"github.com/quillcms/quill/pkg/auth"
)

// RegisterRoutes registers content type and entry routes
func RegisterRoutes(e *echo.Echo, h *Handler, authMiddleware *auth.Middleware) {
	types := e.Group("/api/content-types")
	types.Use(authMiddleware.RequireActor())

	types.POST("", h.CreateContentType)
	types.GET("", h.ListContentTypes)
	types.GET("/:id", h.GetContentType)
	types.GET("/by-name/:name", h.GetContentTypeByName)

	ent := e.Group("/api/entries")
	ent.Use(authMiddleware.RequireActor())

	ent.POST("", h.CreateEntry)
	ent.GET("", h.ListEntries)
	ent.GET("/:id", h.GetEntry)
	ent.DELETE("/:id", h.DeleteEntry)
}
