package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"

	"github.com/marcus-waldman/litrev-mcp-sub000/internal/util"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/ai"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/embed"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
	storepgx "github.com/marcus-waldman/litrev-mcp-sub000/pkg/store/pgx"
)

// EmbedJob asks the worker to embed a project's propositions.
type EmbedJob struct {
	Project string `json:"project"`
	Force   bool   `json:"force"`
}

// PublishEmbedJob enqueues an embedding run for the given project.
func PublishEmbedJob(ch *amqp091.Channel, job EmbedJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal embed job: %w", err)
	}
	return PublishFIFO(ch, EmbedQueue, body)
}

// ProcessEmbedMessage handles one embedding job from the queue. A provider
// failure returns an error so the message is retried; storage errors do the
// same.
func ProcessEmbedMessage(
	ctx context.Context,
	aiClient ai.ArgumentAIClient,
	conn *pgxpool.Pool,
	body string,
) error {
	var job EmbedJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return fmt.Errorf("parse embed job: %w", err)
	}
	if job.Project == "" {
		return fmt.Errorf("embed job missing project")
	}

	storage, err := storepgx.NewArgumentDBStorageWithConnection(ctx, conn)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	batchTokens := int(util.GetEnvNumeric("EMBED_BATCH_TOKENS", 8000))
	embedder := embed.NewEmbedder(storage, aiClient, batchTokens)

	result, err := embedder.EmbedProject(ctx, job.Project, job.Force)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("embedding run failed: %s", result.Message)
	}

	logger.Info("Embed job done",
		"project", job.Project,
		"embedded", result.Embedded,
		"batches", result.Batches,
		"force", job.Force,
	)
	return nil
}
