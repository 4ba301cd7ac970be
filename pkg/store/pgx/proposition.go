package pgx

import (
	"context"
	"fmt"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
)

// SavePropositions upserts propositions and returns their ids in input order.
// A replayed proposition keeps its id; name, definition, and source are
// refreshed and updated_at is bumped so stale embeddings become detectable.
func (s *ArgumentDBStorage) SavePropositions(
	ctx context.Context,
	propositions []common.Proposition,
) ([]string, error) {
	if len(propositions) == 0 {
		return nil, nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin save propositions: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO propositions (id, name, definition, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			definition = CASE
				WHEN EXCLUDED.definition <> '' THEN EXCLUDED.definition
				ELSE propositions.definition
			END,
			source = CASE
				WHEN propositions.source = 'insight' THEN propositions.source
				ELSE EXCLUDED.source
			END,
			updated_at = now()`

	ids := make([]string, 0, len(propositions))
	for _, prop := range propositions {
		if !prop.Source.IsValid() {
			return nil, fmt.Errorf("invalid proposition source: %s", prop.Source)
		}
		if _, err := tx.Exec(ctx, query, prop.ID, prop.Name, prop.Definition, prop.Source); err != nil {
			return nil, fmt.Errorf("save proposition %s: %w", prop.ID, err)
		}
		ids = append(ids, prop.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetPropositions returns the propositions with the given ids. Unknown ids
// are silently absent from the result.
func (s *ArgumentDBStorage) GetPropositions(
	ctx context.Context,
	ids []string,
) ([]common.Proposition, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `
		SELECT id, name, definition, source, created_at, updated_at
		FROM propositions
		WHERE id = ANY($1)`

	rows, err := s.conn.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get propositions: %w", err)
	}
	defer rows.Close()

	var props []common.Proposition
	for rows.Next() {
		var p common.Proposition
		if err := rows.Scan(&p.ID, &p.Name, &p.Definition, &p.Source, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan proposition: %w", err)
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

// FilterKnownPropositionIDs returns the subset of ids that exist in the
// store, preserving input order.
func (s *ArgumentDBStorage) FilterKnownPropositionIDs(
	ctx context.Context,
	ids []string,
) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	const query = `SELECT id FROM propositions WHERE id = ANY($1)`

	rows, err := s.conn.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("filter proposition ids: %w", err)
	}
	defer rows.Close()

	known := make(map[string]bool, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan proposition id: %w", err)
		}
		known[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(known))
	for _, id := range ids {
		if known[id] {
			out = append(out, id)
			known[id] = false
		}
	}
	return out, nil
}
