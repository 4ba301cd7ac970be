package pgx

import (
	"context"
	"fmt"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
)

// SaveTopics upserts topics into a project. Topic ids are derived from names
// by the caller, so replaying the same batch only refreshes descriptions.
func (s *ArgumentDBStorage) SaveTopics(
	ctx context.Context,
	project string,
	topics []common.Topic,
) error {
	if len(topics) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save topics: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO topics (project, id, name, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project, id) DO UPDATE SET
			name = EXCLUDED.name,
			description = CASE
				WHEN EXCLUDED.description <> '' THEN EXCLUDED.description
				ELSE topics.description
			END,
			updated_at = now()`

	for _, topic := range topics {
		if _, err := tx.Exec(ctx, query, project, topic.ID, topic.Name, topic.Description); err != nil {
			return fmt.Errorf("save topic %s: %w", topic.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// GetTopics returns all topics in a project ordered by name.
func (s *ArgumentDBStorage) GetTopics(
	ctx context.Context,
	project string,
) ([]common.Topic, error) {
	const query = `
		SELECT project, id, name, description, created_at, updated_at
		FROM topics
		WHERE project = $1
		ORDER BY name`

	rows, err := s.conn.Query(ctx, query, project)
	if err != nil {
		return nil, fmt.Errorf("get topics: %w", err)
	}
	defer rows.Close()

	var topics []common.Topic
	for rows.Next() {
		var t common.Topic
		if err := rows.Scan(&t.Project, &t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// DeleteTopic removes a topic from a project. Memberships and topic edges
// cascade away; the propositions themselves stay in the store.
func (s *ArgumentDBStorage) DeleteTopic(
	ctx context.Context,
	project string,
	id string,
) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	const query = `DELETE FROM topics WHERE project = $1 AND id = $2`

	if _, err := s.conn.Exec(ctx, query, project, id); err != nil {
		return fmt.Errorf("delete topic %s: %w", id, err)
	}
	return nil
}

// SaveTopicRelationships inserts typed edges between topics. Duplicate edges
// are ignored; unknown topics fail with a foreign key violation.
func (s *ArgumentDBStorage) SaveTopicRelationships(
	ctx context.Context,
	project string,
	relations []common.TopicRelationship,
) error {
	if len(relations) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save topic relationships: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO topic_relationships (project, from_id, to_id, type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project, from_id, to_id, type) DO NOTHING`

	for _, rel := range relations {
		if !rel.Type.IsValid() {
			return fmt.Errorf("invalid topic relationship type: %s", rel.Type)
		}
		if _, err := tx.Exec(ctx, query, project, rel.FromID, rel.ToID, rel.Type); err != nil {
			return fmt.Errorf("save topic relationship %s->%s: %w", rel.FromID, rel.ToID, err)
		}
	}

	return tx.Commit(ctx)
}

// SaveTopicMemberships links propositions to topics within projects.
// Replaying a membership updates its primary flag instead of failing.
func (s *ArgumentDBStorage) SaveTopicMemberships(
	ctx context.Context,
	memberships []common.TopicMembership,
) error {
	if len(memberships) == 0 {
		return nil
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save memberships: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		INSERT INTO proposition_topics (proposition_id, project, topic_id, is_primary)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (proposition_id, project, topic_id) DO UPDATE SET
			is_primary = EXCLUDED.is_primary`

	for _, m := range memberships {
		if _, err := tx.Exec(ctx, query, m.PropositionID, m.Project, m.TopicID, m.IsPrimary); err != nil {
			return fmt.Errorf("save membership %s/%s: %w", m.PropositionID, m.TopicID, err)
		}
	}

	return tx.Commit(ctx)
}

// GetPropositionTopics returns, for each given proposition, the topic ids it
// belongs to within a project. Propositions without memberships are absent
// from the result map.
func (s *ArgumentDBStorage) GetPropositionTopics(
	ctx context.Context,
	project string,
	propositionIDs []string,
) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(propositionIDs) == 0 {
		return out, nil
	}

	const query = `
		SELECT proposition_id, topic_id
		FROM proposition_topics
		WHERE project = $1 AND proposition_id = ANY($2)
		ORDER BY proposition_id, topic_id`

	rows, err := s.conn.Query(ctx, query, project, propositionIDs)
	if err != nil {
		return nil, fmt.Errorf("get proposition topics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var propID, topicID string
		if err := rows.Scan(&propID, &topicID); err != nil {
			return nil, fmt.Errorf("scan proposition topic: %w", err)
		}
		out[propID] = append(out[propID], topicID)
	}
	return out, rows.Err()
}
