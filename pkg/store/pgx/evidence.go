package pgx

import (
	"context"
	"fmt"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
)

// AddEvidence appends a citation record to a proposition within a project
// and returns the new record id. Evidence is append-only; corrections are
// expressed as additional records.
func (s *ArgumentDBStorage) AddEvidence(
	ctx context.Context,
	evidence common.Evidence,
) (int64, error) {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	const query = `
		INSERT INTO proposition_evidence (proposition_id, project, insight_id, claim, pages, contested_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64
	err := s.conn.QueryRow(
		ctx, query,
		evidence.PropositionID, evidence.Project, evidence.InsightID,
		evidence.Claim, evidence.Pages, evidence.ContestedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add evidence for %s: %w", evidence.PropositionID, err)
	}
	return id, nil
}

// GetEvidence returns evidence records for the given propositions within a
// project, keyed by proposition id and ordered oldest first.
func (s *ArgumentDBStorage) GetEvidence(
	ctx context.Context,
	project string,
	propositionIDs []string,
) (map[string][]common.Evidence, error) {
	out := make(map[string][]common.Evidence)
	if len(propositionIDs) == 0 {
		return out, nil
	}

	const query = `
		SELECT id, proposition_id, project, insight_id, claim, pages, contested_by, created_at
		FROM proposition_evidence
		WHERE project = $1 AND proposition_id = ANY($2)
		ORDER BY id`

	rows, err := s.conn.Query(ctx, query, project, propositionIDs)
	if err != nil {
		return nil, fmt.Errorf("get evidence: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e common.Evidence
		if err := rows.Scan(&e.ID, &e.PropositionID, &e.Project, &e.InsightID, &e.Claim, &e.Pages, &e.ContestedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		out[e.PropositionID] = append(out[e.PropositionID], e)
	}
	return out, rows.Err()
}

// GetEvidenceCounts returns the number of evidence records per proposition
// within a project. Propositions with no evidence are absent from the map.
func (s *ArgumentDBStorage) GetEvidenceCounts(
	ctx context.Context,
	project string,
	propositionIDs []string,
) (map[string]int, error) {
	out := make(map[string]int)
	if len(propositionIDs) == 0 {
		return out, nil
	}

	const query = `
		SELECT proposition_id, COUNT(*)
		FROM proposition_evidence
		WHERE project = $1 AND proposition_id = ANY($2)
		GROUP BY proposition_id`

	rows, err := s.conn.Query(ctx, query, project, propositionIDs)
	if err != nil {
		return nil, fmt.Errorf("get evidence counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan evidence count: %w", err)
		}
		out[id] = count
	}
	return out, rows.Err()
}
