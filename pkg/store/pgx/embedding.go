package pgx

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/store"
)

// embeddingTextSQL computes the canonical embedding text for a proposition
// row. It must stay in sync with common.Proposition.EmbeddingText.
const embeddingTextSQL = `
	CASE WHEN p.definition = '' THEN p.name ELSE p.name || ': ' || p.definition END`

// ListEmbeddingTargets returns propositions in a project that need an
// embedding written: missing ones, stale ones whose text changed since they
// were embedded, or all of them when force is set.
func (s *ArgumentDBStorage) ListEmbeddingTargets(
	ctx context.Context,
	project string,
	force bool,
) ([]store.EmbeddingTarget, error) {
	query := `
		SELECT p.id, ` + embeddingTextSQL + `
		FROM propositions p
		WHERE EXISTS (
			SELECT 1 FROM project_propositions pp
			WHERE pp.proposition_id = p.id AND pp.project = $1
		)`

	if !force {
		query += `
		AND NOT EXISTS (
			SELECT 1 FROM proposition_embeddings e
			WHERE e.proposition_id = p.id
			  AND e.embedded_text = ` + embeddingTextSQL + `
		)`
	}
	query += " ORDER BY p.id"

	rows, err := s.conn.Query(ctx, query, project)
	if err != nil {
		return nil, fmt.Errorf("list embedding targets: %w", err)
	}
	defer rows.Close()

	var targets []store.EmbeddingTarget
	for rows.Next() {
		var t store.EmbeddingTarget
		if err := rows.Scan(&t.PropositionID, &t.Text); err != nil {
			return nil, fmt.Errorf("scan embedding target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// SaveEmbeddings upserts one embedding per target, recording the text each
// vector was computed from so staleness stays detectable.
func (s *ArgumentDBStorage) SaveEmbeddings(
	ctx context.Context,
	targets []store.EmbeddingTarget,
	vectors [][]float32,
) error {
	if len(targets) != len(vectors) {
		return fmt.Errorf("embedding count mismatch: %d targets, %d vectors", len(targets), len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != common.EmbeddingDim {
			return fmt.Errorf(
				"embedding for %s has %d dimensions, column expects %d (check AI_EMBED_DIM)",
				targets[i].PropositionID, len(vec), common.EmbeddingDim,
			)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save embeddings: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO proposition_embeddings (proposition_id, embedding, embedded_text, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (proposition_id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			embedded_text = EXCLUDED.embedded_text,
			updated_at = now()`

	for i, target := range targets {
		embed := pgvector.NewVector(vectors[i])
		if _, err := tx.Exec(ctx, query, target.PropositionID, embed, target.Text); err != nil {
			return fmt.Errorf("save embedding for %s: %w", target.PropositionID, err)
		}
	}

	return tx.Commit(ctx)
}

// CountEmbeddings returns the number of embedded propositions in a project.
func (s *ArgumentDBStorage) CountEmbeddings(
	ctx context.Context,
	project string,
) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM proposition_embeddings e
		WHERE EXISTS (
			SELECT 1 FROM project_propositions pp
			WHERE pp.proposition_id = e.proposition_id AND pp.project = $1
		)`

	var count int
	if err := s.conn.QueryRow(ctx, query, project).Scan(&count); err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

// GetEmbeddingStatus reports embedding coverage for a project in a single
// aggregate query.
func (s *ArgumentDBStorage) GetEmbeddingStatus(
	ctx context.Context,
	project string,
) (store.EmbeddingStatus, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE e.proposition_id IS NOT NULL),
			COUNT(*) FILTER (WHERE e.proposition_id IS NULL),
			COUNT(*) FILTER (
				WHERE e.proposition_id IS NOT NULL
				  AND e.embedded_text <> ` + embeddingTextSQL + `
			)
		FROM propositions p
		LEFT JOIN proposition_embeddings e ON e.proposition_id = p.id
		WHERE EXISTS (
			SELECT 1 FROM project_propositions pp
			WHERE pp.proposition_id = p.id AND pp.project = $1
		)`

	var status store.EmbeddingStatus
	err := s.conn.QueryRow(ctx, query, project).Scan(
		&status.Total, &status.Embedded, &status.NotEmbedded, &status.Stale,
	)
	if err != nil {
		return store.EmbeddingStatus{}, fmt.Errorf("get embedding status: %w", err)
	}
	return status, nil
}

// SearchSimilar returns the propositions in a project closest to the query
// embedding by cosine similarity, best match first.
func (s *ArgumentDBStorage) SearchSimilar(
	ctx context.Context,
	embedding []float32,
	project string,
	limit int,
) ([]common.ScoredProposition, error) {
	if limit <= 0 {
		limit = 10
	}

	embed := pgvector.NewVector(embedding)

	const query = `
		SELECT p.id, p.name, p.definition, p.source, p.created_at, p.updated_at,
		       1 - (e.embedding <=> $1) AS similarity
		FROM proposition_embeddings e
		JOIN propositions p ON p.id = e.proposition_id
		WHERE EXISTS (
			SELECT 1 FROM project_propositions pp
			WHERE pp.proposition_id = p.id AND pp.project = $2
		)
		ORDER BY e.embedding <=> $1
		LIMIT $3`

	rows, err := s.conn.Query(ctx, query, embed, project, limit)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	var results []common.ScoredProposition
	for rows.Next() {
		var sp common.ScoredProposition
		if err := rows.Scan(
			&sp.Proposition.ID, &sp.Proposition.Name, &sp.Proposition.Definition,
			&sp.Proposition.Source, &sp.Proposition.CreatedAt, &sp.Proposition.UpdatedAt,
			&sp.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan similar proposition: %w", err)
		}
		results = append(results, sp)
	}
	return results, rows.Err()
}
