package embed

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/ai"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/store"
)

// ErrCodeEmbeddingFailed marks a structured failure caused by the embedding
// provider, as opposed to a storage error.
const ErrCodeEmbeddingFailed = "EMBEDDING_FAILED"

const (
	tokenEncoding      = "o200k_base"
	defaultBatchTokens = 8000
)

// Result reports the outcome of an embedding run over a project.
type Result struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
	Project   string `json:"project"`
	Embedded  int    `json:"embedded"`
	Batches   int    `json:"batches"`
}

// Embedder writes vector embeddings for a project's propositions in
// token-bounded batches, so provider request limits hold regardless of how
// long individual propositions are.
type Embedder struct {
	storage     store.ArgumentStorage
	client      ai.ArgumentAIClient
	batchTokens int
}

// NewEmbedder creates an Embedder. A non-positive batchTokens falls back to
// the default budget.
func NewEmbedder(
	storage store.ArgumentStorage,
	client ai.ArgumentAIClient,
	batchTokens int,
) *Embedder {
	if batchTokens <= 0 {
		batchTokens = defaultBatchTokens
	}
	return &Embedder{
		storage:     storage,
		client:      client,
		batchTokens: batchTokens,
	}
}

// EmbedProject embeds every proposition in the project that is missing an
// embedding or whose embedding is stale; force re-embeds all of them.
// Batches are persisted as they complete, so a provider failure mid-run
// keeps the progress made so far.
func (e *Embedder) EmbedProject(
	ctx context.Context,
	project string,
	force bool,
) (Result, error) {
	result := Result{Project: project}

	targets, err := e.storage.ListEmbeddingTargets(ctx, project, force)
	if err != nil {
		return result, fmt.Errorf("list embedding targets: %w", err)
	}
	if len(targets) == 0 {
		result.Success = true
		return result, nil
	}

	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return result, fmt.Errorf("load token encoding: %w", err)
	}
	counter := func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}

	batches := BatchTargets(targets, e.batchTokens, counter)
	for _, batch := range batches {
		inputs := make([][]byte, 0, len(batch))
		for _, target := range batch {
			inputs = append(inputs, []byte(target.Text))
		}

		vectors, err := e.client.GenerateEmbeddings(ctx, inputs)
		if err != nil {
			logger.Error("Embedding batch failed",
				"project", project, "batch_size", len(batch), "err", err)
			result.ErrorCode = ErrCodeEmbeddingFailed
			result.Message = fmt.Sprintf("embedding provider failed after %d propositions: %v", result.Embedded, err)
			return result, nil
		}

		if err := e.storage.SaveEmbeddings(ctx, batch, vectors); err != nil {
			return result, fmt.Errorf("save embeddings: %w", err)
		}

		result.Embedded += len(batch)
		result.Batches++
	}

	logger.Info("Embedding run complete",
		"project", project, "embedded", result.Embedded, "batches", result.Batches)
	result.Success = true
	return result, nil
}

// BatchTargets splits targets into consecutive batches whose summed token
// counts stay within maxTokens. A single target larger than the budget still
// forms its own batch rather than being dropped.
func BatchTargets(
	targets []store.EmbeddingTarget,
	maxTokens int,
	countTokens func(string) int,
) [][]store.EmbeddingTarget {
	if len(targets) == 0 {
		return nil
	}

	var batches [][]store.EmbeddingTarget
	var current []store.EmbeddingTarget
	currentTokens := 0

	for _, target := range targets {
		tokens := countTokens(target.Text)
		if len(current) > 0 && currentTokens+tokens > maxTokens {
			batches = append(batches, current)
			current = nil
			currentTokens = 0
		}
		current = append(current, target)
		currentTokens += tokens
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
