package main

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	mcpserver "github.com/mark3labs/mcp-go/server"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/marcus-waldman/litrev-mcp-sub000/internal/mcp"
	"github.com/marcus-waldman/litrev-mcp-sub000/internal/util"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/ai"
	oai "github.com/marcus-waldman/litrev-mcp-sub000/pkg/ai/ollama"
	gai "github.com/marcus-waldman/litrev-mcp-sub000/pkg/ai/openai"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger/console"
	storepgx "github.com/marcus-waldman/litrev-mcp-sub000/pkg/store/pgx"
)

func main() {
	util.LoadEnv()

	// logger writes to stderr so stdout stays free for the stdio transport
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	ctx := context.Background()

	databaseURL := util.GetEnv("DATABASE_URL")
	if err := storepgx.RunMigrations(databaseURL); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	pgConn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()
	pgConn.Config().AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	storage, err := storepgx.NewArgumentDBStorageWithConnection(ctx, pgConn)
	if err != nil {
		logger.Fatal("Failed to init storage", "err", err)
	}

	adapter := util.GetEnv("AI_ADAPTER")
	timeoutMin := int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 5))
	parallelReq := int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 0))

	var aiClient ai.ArgumentAIClient
	switch adapter {
	case "ollama":
		client, err := oai.NewArgumentOllamaClient(oai.NewArgumentOllamaClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			TimeoutMin:            timeoutMin,
			MaxConcurrentRequests: parallelReq,
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		aiClient = client
	default:
		aiClient = gai.NewArgumentOpenAIClient(gai.NewArgumentOpenAIClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),

			TimeoutMin:              timeoutMin,
			MaxConcurrentEmbeddings: parallelReq,
		})
	}

	s := mcpserver.NewMCPServer(
		"Argument Map",
		"1.0.0",
	)

	batchTokens := int(util.GetEnvNumeric("EMBED_BATCH_TOKENS", 8000))
	mcp.RegisterTools(s, storage, aiClient, batchTokens)

	logger.Info("Argument map MCP server starting on stdio")
	if err := mcpserver.ServeStdio(s); err != nil {
		logger.Fatal("Server error", "err", err)
	}
}
