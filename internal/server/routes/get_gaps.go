package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marcus-waldman/litrev-mcp-sub000/internal/server/middleware"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/store"
	storepgx "github.com/marcus-waldman/litrev-mcp-sub000/pkg/store/pgx"
)

// GetGapsHandler lists ungrounded propositions in a project: claims from
// model background knowledge with no supporting evidence yet.
func GetGapsHandler(c echo.Context) error {
	type gapsRequest struct {
		Project string `param:"project" validate:"required"`
	}

	type gapsResponse struct {
		Message string      `json:"message,omitempty"`
		Gaps    []store.Gap `json:"gaps"`
	}

	data := new(gapsRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, gapsResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, gapsResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	storage, err := storepgx.NewArgumentDBStorageWithConnection(ctx, app.DBConn)
	if err != nil {
		logger.Error("Failed to init storage", "err", err)
		return c.JSON(http.StatusInternalServerError, gapsResponse{
			Message: "Internal server error",
		})
	}

	gaps, err := storage.GetGaps(ctx, data.Project)
	if err != nil {
		logger.Error("Failed to load gaps", "project", data.Project, "err", err)
		return c.JSON(http.StatusInternalServerError, gapsResponse{
			Message: "Internal server error",
		})
	}
	if gaps == nil {
		gaps = []store.Gap{}
	}

	return c.JSON(http.StatusOK, gapsResponse{Gaps: gaps})
}
