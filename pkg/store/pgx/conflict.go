package pgx

import (
	"context"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
)

// ErrConflictNotFound is returned when a conflict id does not exist.
var ErrConflictNotFound = errors.New("conflict not found")

// CreateConflict records an unresolved conflict between an AI-knowledge
// claim and literature evidence, returning the generated conflict id.
func (s *ArgumentDBStorage) CreateConflict(
	ctx context.Context,
	conflict common.Conflict,
) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate conflict id: %w", err)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	const query = `
		INSERT INTO proposition_conflicts (id, project, proposition_id, ai_claim, evidence_claim, insight_id)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.conn.Exec(
		ctx, query,
		id, conflict.Project, conflict.PropositionID,
		conflict.AIClaim, conflict.EvidenceClaim, conflict.InsightID,
	); err != nil {
		return "", fmt.Errorf("create conflict for %s: %w", conflict.PropositionID, err)
	}
	return id, nil
}

// GetConflicts returns conflicts in a project, newest first. An empty status
// returns conflicts in every state.
func (s *ArgumentDBStorage) GetConflicts(
	ctx context.Context,
	project string,
	status common.ConflictStatus,
) ([]common.Conflict, error) {
	query := `
		SELECT id, project, proposition_id, ai_claim, evidence_claim, insight_id,
		       status, COALESCE(resolution, ''), resolution_note, created_at, resolved_at
		FROM proposition_conflicts
		WHERE project = $1`
	args := []any{project}

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []common.Conflict
	for rows.Next() {
		var c common.Conflict
		if err := rows.Scan(
			&c.ID, &c.Project, &c.PropositionID, &c.AIClaim, &c.EvidenceClaim, &c.InsightID,
			&c.Status, &c.Resolution, &c.ResolutionNote, &c.CreatedAt, &c.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

// ResolveConflict marks a conflict resolved with the given resolution and
// note, and returns the updated record. Resolving an already resolved
// conflict overwrites the previous resolution.
func (s *ArgumentDBStorage) ResolveConflict(
	ctx context.Context,
	id string,
	resolution common.Resolution,
	note string,
) (common.Conflict, error) {
	if !resolution.IsValid() {
		return common.Conflict{}, fmt.Errorf("invalid resolution: %s", resolution)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	const query = `
		UPDATE proposition_conflicts
		SET status = 'resolved',
		    resolution = $2,
		    resolution_note = CASE WHEN $3 <> '' THEN $3 ELSE resolution_note END,
		    resolved_at = now()
		WHERE id = $1
		RETURNING id, project, proposition_id, ai_claim, evidence_claim, insight_id,
		          status, COALESCE(resolution, ''), resolution_note, created_at, resolved_at`

	var c common.Conflict
	err := s.conn.QueryRow(ctx, query, id, resolution, note).Scan(
		&c.ID, &c.Project, &c.PropositionID, &c.AIClaim, &c.EvidenceClaim, &c.InsightID,
		&c.Status, &c.Resolution, &c.ResolutionNote, &c.CreatedAt, &c.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return common.Conflict{}, ErrConflictNotFound
		}
		return common.Conflict{}, fmt.Errorf("resolve conflict %s: %w", id, err)
	}
	return c, nil
}
