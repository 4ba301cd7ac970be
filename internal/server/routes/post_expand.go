package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marcus-waldman/litrev-mcp-sub000/internal/server/middleware"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
	graphquery "github.com/marcus-waldman/litrev-mcp-sub000/pkg/query"
	storepgx "github.com/marcus-waldman/litrev-mcp-sub000/pkg/store/pgx"
)

// ExpandProjectHandler expands the argument map around known proposition ids
// without running a semantic search first.
func ExpandProjectHandler(c echo.Context) error {
	type expandRequest struct {
		Project            string   `param:"project" validate:"required"`
		PropositionIDs     []string `json:"proposition_ids" validate:"required,min=1"`
		HopDepth           int      `json:"hop_depth"`
		RelationshipTypes  []string `json:"relationship_types"`
		MaxNeighborsPerHop int      `json:"max_neighbors_per_hop"`
	}

	type expandResponse struct {
		Message string                   `json:"message,omitempty"`
		Result  *graphquery.ExpandResult `json:"result,omitempty"`
	}

	data := new(expandRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, expandResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, expandResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	storage, err := storepgx.NewArgumentDBStorageWithConnection(ctx, app.DBConn)
	if err != nil {
		logger.Error("Failed to init storage", "err", err)
		return c.JSON(http.StatusInternalServerError, expandResponse{
			Message: "Internal server error",
		})
	}

	queryClient := graphquery.NewArgumentMapQuery(storage, app.AiClient, nil)
	plan := graphquery.TraversalPlan{
		HopDepth:           data.HopDepth,
		RelationshipTypes:  common.FilterRelationshipTypes(data.RelationshipTypes),
		MaxNeighborsPerHop: data.MaxNeighborsPerHop,
	}

	result, err := queryClient.Expand(ctx, data.Project, data.PropositionIDs, plan)
	if err != nil {
		logger.Error("Expand failed", "project", data.Project, "err", err)
		return c.JSON(http.StatusInternalServerError, expandResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, expandResponse{Result: &result})
}
