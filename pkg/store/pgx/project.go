package pgx

import (
	"context"
	"fmt"
)

// LinkPropositionsToProject adds propositions to a project's working set.
// Propositions are global; the link carries its own timestamp and replaying
// it is a no-op. Unknown proposition ids fail with a foreign key violation.
func (s *ArgumentDBStorage) LinkPropositionsToProject(
	ctx context.Context,
	project string,
	propositionIDs []string,
) error {
	if len(propositionIDs) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin link propositions: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO project_propositions (project, proposition_id)
		VALUES ($1, $2)
		ON CONFLICT (project, proposition_id) DO NOTHING`

	for _, id := range propositionIDs {
		if _, err := tx.Exec(ctx, query, project, id); err != nil {
			return fmt.Errorf("link proposition %s to %s: %w", id, project, err)
		}
	}

	return tx.Commit(ctx)
}

// UnlinkPropositionFromProject removes a proposition from a project's
// working set. The global proposition, its relationships, and its evidence
// in other projects are untouched.
func (s *ArgumentDBStorage) UnlinkPropositionFromProject(
	ctx context.Context,
	project string,
	propositionID string,
) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	const query = `
		DELETE FROM project_propositions
		WHERE project = $1 AND proposition_id = $2`

	if _, err := s.conn.Exec(ctx, query, project, propositionID); err != nil {
		return fmt.Errorf("unlink proposition %s from %s: %w", propositionID, project, err)
	}
	return nil
}
