package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marcus-waldman/litrev-mcp-sub000/internal/server/middleware"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
	storepgx "github.com/marcus-waldman/litrev-mcp-sub000/pkg/store/pgx"
)

// ResolveConflictHandler marks a conflict resolved with a human verdict.
func ResolveConflictHandler(c echo.Context) error {
	type resolveRequest struct {
		ID         string `param:"id" validate:"required"`
		Resolution string `json:"resolution" validate:"required,oneof=ai_correct evidence_correct both_valid"`
		Notes      string `json:"notes"`
	}

	type resolveResponse struct {
		Message  string           `json:"message,omitempty"`
		Conflict *common.Conflict `json:"conflict,omitempty"`
	}

	data := new(resolveRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, resolveResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, resolveResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	storage, err := storepgx.NewArgumentDBStorageWithConnection(ctx, app.DBConn)
	if err != nil {
		logger.Error("Failed to init storage", "err", err)
		return c.JSON(http.StatusInternalServerError, resolveResponse{
			Message: "Internal server error",
		})
	}

	conflict, err := storage.ResolveConflict(ctx, data.ID, common.Resolution(data.Resolution), data.Notes)
	if err != nil {
		if errors.Is(err, storepgx.ErrConflictNotFound) {
			return c.JSON(http.StatusNotFound, resolveResponse{
				Message: "Conflict not found",
			})
		}
		logger.Error("Failed to resolve conflict", "id", data.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, resolveResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, resolveResponse{Conflict: &conflict})
}
