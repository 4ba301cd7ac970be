package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marcus-waldman/litrev-mcp-sub000/internal/queue"
	"github.com/marcus-waldman/litrev-mcp-sub000/internal/server/middleware"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
)

// EmbedProjectHandler enqueues a background embedding run for a project.
func EmbedProjectHandler(c echo.Context) error {
	type embedRequest struct {
		Project string `param:"project" validate:"required"`
		Force   bool   `json:"force"`
	}

	type embedResponse struct {
		Message string `json:"message"`
		Project string `json:"project,omitempty"`
		Queued  bool   `json:"queued"`
	}

	data := new(embedRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, embedResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, embedResponse{
			Message: "Invalid request body",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	err := queue.PublishEmbedJob(ch, queue.EmbedJob{
		Project: data.Project,
		Force:   data.Force,
	})
	if err != nil {
		logger.Error("Failed to publish embed job", "project", data.Project, "err", err)
		return c.JSON(http.StatusInternalServerError, embedResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, embedResponse{
		Message: "Embedding run queued",
		Project: data.Project,
		Queued:  true,
	})
}
