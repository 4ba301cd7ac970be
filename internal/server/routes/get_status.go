package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marcus-waldman/litrev-mcp-sub000/internal/server/middleware"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/store"
	storepgx "github.com/marcus-waldman/litrev-mcp-sub000/pkg/store/pgx"
)

// GetEmbeddingStatusHandler reports embedding coverage for a project.
func GetEmbeddingStatusHandler(c echo.Context) error {
	type statusRequest struct {
		Project string `param:"project" validate:"required"`
	}

	type statusResponse struct {
		Message string                 `json:"message,omitempty"`
		Status  *store.EmbeddingStatus `json:"status,omitempty"`
	}

	data := new(statusRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, statusResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	storage, err := storepgx.NewArgumentDBStorageWithConnection(ctx, app.DBConn)
	if err != nil {
		logger.Error("Failed to init storage", "err", err)
		return c.JSON(http.StatusInternalServerError, statusResponse{
			Message: "Internal server error",
		})
	}

	status, err := storage.GetEmbeddingStatus(ctx, data.Project)
	if err != nil {
		logger.Error("Failed to load embedding status", "project", data.Project, "err", err)
		return c.JSON(http.StatusInternalServerError, statusResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, statusResponse{Status: &status})
}
