package pgx

import (
	"context"
	"fmt"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/store"
)

// GetGaps returns propositions in a project that came from model background
// knowledge and have no evidence recorded, together with their topic ids.
// These are the claims a literature search should try to ground next.
func (s *ArgumentDBStorage) GetGaps(
	ctx context.Context,
	project string,
) ([]store.Gap, error) {
	const query = `
		SELECT p.id, p.name, p.definition, p.source, p.created_at, p.updated_at,
		       ARRAY_REMOVE(ARRAY_AGG(pt.topic_id ORDER BY pt.topic_id), NULL)
		FROM propositions p
		JOIN project_propositions pp ON pp.proposition_id = p.id AND pp.project = $1
		LEFT JOIN proposition_topics pt ON pt.proposition_id = p.id AND pt.project = $1
		WHERE p.source = 'ai_knowledge'
		  AND NOT EXISTS (
			SELECT 1 FROM proposition_evidence ev
			WHERE ev.proposition_id = p.id AND ev.project = $1
		  )
		GROUP BY p.id
		ORDER BY p.id`

	rows, err := s.conn.Query(ctx, query, project)
	if err != nil {
		return nil, fmt.Errorf("get gaps: %w", err)
	}
	defer rows.Close()

	var gaps []store.Gap
	for rows.Next() {
		var g store.Gap
		if err := rows.Scan(
			&g.Proposition.ID, &g.Proposition.Name, &g.Proposition.Definition,
			&g.Proposition.Source, &g.Proposition.CreatedAt, &g.Proposition.UpdatedAt,
			&g.TopicIDs,
		); err != nil {
			return nil, fmt.Errorf("scan gap: %w", err)
		}
		gaps = append(gaps, g)
	}
	return gaps, rows.Err()
}
