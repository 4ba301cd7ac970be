package server

import (
	"github.com/labstack/echo/v4"

	"github.com/marcus-waldman/litrev-mcp-sub000/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Search and traversal routes
	apiRoutes.POST("/projects/:project/search", routes.SearchProjectHandler)
	apiRoutes.POST("/projects/:project/expand", routes.ExpandProjectHandler)

	// Embedding routes
	apiRoutes.POST("/projects/:project/embed", routes.EmbedProjectHandler)
	apiRoutes.GET("/projects/:project/embedding-status", routes.GetEmbeddingStatusHandler)

	// Grounding routes
	apiRoutes.GET("/projects/:project/gaps", routes.GetGapsHandler)
	apiRoutes.GET("/projects/:project/conflicts", routes.GetConflictsHandler)
	apiRoutes.PATCH("/conflicts/:id", routes.ResolveConflictHandler)
}
