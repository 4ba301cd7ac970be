package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marcus-waldman/litrev-mcp-sub000/internal/server/middleware"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
	storepgx "github.com/marcus-waldman/litrev-mcp-sub000/pkg/store/pgx"
)

// GetConflictsHandler lists conflicts between AI claims and literature
// evidence in a project, optionally filtered by status.
func GetConflictsHandler(c echo.Context) error {
	type conflictsRequest struct {
		Project string `param:"project" validate:"required"`
		Status  string `query:"status" validate:"omitempty,oneof=unresolved resolved"`
	}

	type conflictsResponse struct {
		Message   string            `json:"message,omitempty"`
		Conflicts []common.Conflict `json:"conflicts"`
	}

	data := new(conflictsRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, conflictsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, conflictsResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	storage, err := storepgx.NewArgumentDBStorageWithConnection(ctx, app.DBConn)
	if err != nil {
		logger.Error("Failed to init storage", "err", err)
		return c.JSON(http.StatusInternalServerError, conflictsResponse{
			Message: "Internal server error",
		})
	}

	conflicts, err := storage.GetConflicts(ctx, data.Project, common.ConflictStatus(data.Status))
	if err != nil {
		logger.Error("Failed to load conflicts", "project", data.Project, "err", err)
		return c.JSON(http.StatusInternalServerError, conflictsResponse{
			Message: "Internal server error",
		})
	}
	if conflicts == nil {
		conflicts = []common.Conflict{}
	}

	return c.JSON(http.StatusOK, conflictsResponse{Conflicts: conflicts})
}
