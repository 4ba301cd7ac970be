package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marcus-waldman/litrev-mcp-sub000/internal/server/middleware"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
	graphquery "github.com/marcus-waldman/litrev-mcp-sub000/pkg/query"
	storepgx "github.com/marcus-waldman/litrev-mcp-sub000/pkg/store/pgx"
)

// SearchProjectHandler runs a semantic search over a project's argument map
// and expands the graph around the best matches.
func SearchProjectHandler(c echo.Context) error {
	type searchRequest struct {
		Project string `param:"project" validate:"required"`
		Query   string `json:"query" validate:"required"`
		TopK    int    `json:"top_k"`
	}

	type searchResponse struct {
		Message string                   `json:"message,omitempty"`
		Result  *graphquery.SearchResult `json:"result,omitempty"`
	}

	data := new(searchRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, searchResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	storage, err := storepgx.NewArgumentDBStorageWithConnection(ctx, app.DBConn)
	if err != nil {
		logger.Error("Failed to init storage", "err", err)
		return c.JSON(http.StatusInternalServerError, searchResponse{
			Message: "Internal server error",
		})
	}

	judge := graphquery.NewLLMJudge(app.AiClient)
	queryClient := graphquery.NewArgumentMapQuery(storage, app.AiClient, judge)

	result, err := queryClient.Search(ctx, data.Project, data.Query, data.TopK)
	if err != nil {
		logger.Error("Search failed", "project", data.Project, "err", err)
		return c.JSON(http.StatusInternalServerError, searchResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, searchResponse{Result: &result})
}
