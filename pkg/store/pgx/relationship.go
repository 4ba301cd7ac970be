package pgx

import (
	"context"
	"fmt"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
)

// SaveRelationships inserts typed edges between propositions. An edge is
// identified by (from, to, type); replays are ignored rather than failed so
// extraction batches can safely overlap. Unknown endpoints fail loudly with
// a foreign key violation.
func (s *ArgumentDBStorage) SaveRelationships(
	ctx context.Context,
	relations []common.Relationship,
) error {
	if len(relations) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save relationships: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO proposition_relationships (from_id, to_id, type, source, grounded_in)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (from_id, to_id, type) DO NOTHING`

	for _, rel := range relations {
		if !rel.Type.IsValid() {
			return fmt.Errorf("invalid relationship type: %s", rel.Type)
		}
		if rel.FromID == rel.ToID {
			return fmt.Errorf("self-referential relationship on %s", rel.FromID)
		}
		source := rel.Source
		if source == "" {
			source = common.SourceInsight
		}
		if !source.IsValid() {
			return fmt.Errorf("invalid relationship source: %s", rel.Source)
		}
		if _, err := tx.Exec(ctx, query, rel.FromID, rel.ToID, rel.Type, source, rel.GroundedIn); err != nil {
			return fmt.Errorf("save relationship %s->%s: %w", rel.FromID, rel.ToID, err)
		}
	}

	return tx.Commit(ctx)
}

// GetPropositionNeighbors returns every edge touching any of the given
// propositions, in either direction. An optional type filter restricts the
// edge types; an optional project restricts results to edges whose far
// endpoint belongs to the project. Results are ordered by insertion so
// frontier truncation upstream is deterministic.
func (s *ArgumentDBStorage) GetPropositionNeighbors(
	ctx context.Context,
	ids []string,
	types []common.RelationshipType,
	project string,
) ([]common.Relationship, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT r.id, r.from_id, r.to_id, r.type, r.source, r.grounded_in, r.created_at
		FROM proposition_relationships r
		WHERE (r.from_id = ANY($1) OR r.to_id = ANY($1))`
	args := []any{ids}

	if len(types) > 0 {
		typeStrings := make([]string, 0, len(types))
		for _, t := range types {
			typeStrings = append(typeStrings, string(t))
		}
		args = append(args, typeStrings)
		query += fmt.Sprintf(" AND r.type = ANY($%d)", len(args))
	}

	if project != "" {
		args = append(args, project)
		query += fmt.Sprintf(`
		AND EXISTS (
			SELECT 1 FROM project_propositions pp
			WHERE pp.project = $%d
			  AND pp.proposition_id = CASE
				WHEN r.from_id = ANY($1) THEN r.to_id
				ELSE r.from_id
			  END
		)`, len(args))
	}

	query += " ORDER BY r.id"

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get neighbors: %w", err)
	}
	defer rows.Close()

	var relations []common.Relationship
	for rows.Next() {
		var rel common.Relationship
		if err := rows.Scan(&rel.ID, &rel.FromID, &rel.ToID, &rel.Type, &rel.Source, &rel.GroundedIn, &rel.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		relations = append(relations, rel)
	}
	return relations, rows.Err()
}
