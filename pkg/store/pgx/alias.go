package pgx

import (
	"context"
	"fmt"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
)

// AddPropositionAliases records alternative names for a proposition so
// external mentions can be matched back to it. Blank aliases are skipped
// and replays are ignored.
func (s *ArgumentDBStorage) AddPropositionAliases(
	ctx context.Context,
	propositionID string,
	aliases []string,
) error {
	if len(aliases) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin add aliases: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO proposition_aliases (proposition_id, alias)
		VALUES ($1, $2)
		ON CONFLICT (proposition_id, alias) DO NOTHING`

	for _, alias := range aliases {
		if alias == "" {
			continue
		}
		if _, err := tx.Exec(ctx, query, propositionID, alias); err != nil {
			return fmt.Errorf("add alias %q for %s: %w", alias, propositionID, err)
		}
	}

	return tx.Commit(ctx)
}

// GetPropositionAliases returns the aliases of the given propositions,
// keyed by proposition id. Propositions without aliases are absent from
// the result map.
func (s *ArgumentDBStorage) GetPropositionAliases(
	ctx context.Context,
	propositionIDs []string,
) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(propositionIDs) == 0 {
		return out, nil
	}

	const query = `
		SELECT proposition_id, alias
		FROM proposition_aliases
		WHERE proposition_id = ANY($1)
		ORDER BY proposition_id, alias`

	rows, err := s.conn.Query(ctx, query, propositionIDs)
	if err != nil {
		return nil, fmt.Errorf("get aliases: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var propID, alias string
		if err := rows.Scan(&propID, &alias); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		out[propID] = append(out[propID], alias)
	}
	return out, rows.Err()
}

// FindPropositionsByAlias returns propositions whose name or one of whose
// aliases matches the given text, case-insensitively.
func (s *ArgumentDBStorage) FindPropositionsByAlias(
	ctx context.Context,
	alias string,
) ([]common.Proposition, error) {
	if alias == "" {
		return nil, nil
	}

	const query = `
		SELECT DISTINCT p.id, p.name, p.definition, p.source, p.created_at, p.updated_at
		FROM propositions p
		LEFT JOIN proposition_aliases a ON a.proposition_id = p.id
		WHERE lower(p.name) = lower($1) OR lower(a.alias) = lower($1)
		ORDER BY p.id`

	rows, err := s.conn.Query(ctx, query, alias)
	if err != nil {
		return nil, fmt.Errorf("find propositions by alias: %w", err)
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
