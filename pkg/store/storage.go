package store

import (
	"context"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
)

// EmbeddingTarget is a proposition whose embedding needs to be written or
// refreshed, paired with the exact text the embedding is computed from.
type EmbeddingTarget struct {
	PropositionID string `json:"proposition_id"`
	Text          string `json:"text"`
}

// EmbeddingStatus summarizes embedding coverage for a project. Stale counts
// propositions whose stored embedding was computed from outdated text.
type EmbeddingStatus struct {
	Total       int `json:"total"`
	Embedded    int `json:"embedded"`
	NotEmbedded int `json:"not_embedded"`
	Stale       int `json:"stale"`
}

// Gap is an ungrounded proposition: claimed from model background knowledge
// with no supporting evidence recorded in the project.
type Gap struct {
	Proposition common.Proposition `json:"proposition"`
	TopicIDs    []string           `json:"topic_ids"`
}

// ArgumentStorage defines the interface for persisting and querying the
// argument map: topics, propositions, typed relationships, evidence,
// conflicts, and the vector index over proposition embeddings.
type ArgumentStorage interface {
	SaveTopics(ctx context.Context, project string, topics []common.Topic) error
	GetTopics(ctx context.Context, project string) ([]common.Topic, error)
	DeleteTopic(ctx context.Context, project string, id string) error
	SaveTopicRelationships(ctx context.Context, project string, relations []common.TopicRelationship) error

	SavePropositions(ctx context.Context, propositions []common.Proposition) ([]string, error)
	GetPropositions(ctx context.Context, ids []string) ([]common.Proposition, error)
	FilterKnownPropositionIDs(ctx context.Context, ids []string) ([]string, error)
	LinkPropositionsToProject(ctx context.Context, project string, propositionIDs []string) error
	UnlinkPropositionFromProject(ctx context.Context, project string, propositionID string) error
	AddPropositionAliases(ctx context.Context, propositionID string, aliases []string) error
	GetPropositionAliases(ctx context.Context, propositionIDs []string) (map[string][]string, error)
	FindPropositionsByAlias(ctx context.Context, alias string) ([]common.Proposition, error)
	SaveTopicMemberships(ctx context.Context, memberships []common.TopicMembership) error
	GetPropositionTopics(ctx context.Context, project string, propositionIDs []string) (map[string][]string, error)

	SaveRelationships(ctx context.Context, relations []common.Relationship) error
	GetPropositionNeighbors(
		ctx context.Context,
		ids []string,
		types []common.RelationshipType,
		project string,
	) ([]common.Relationship, error)

	AddEvidence(ctx context.Context, evidence common.Evidence) (int64, error)
	GetEvidence(ctx context.Context, project string, propositionIDs []string) (map[string][]common.Evidence, error)
	GetEvidenceCounts(ctx context.Context, project string, propositionIDs []string) (map[string]int, error)

	CreateConflict(ctx context.Context, conflict common.Conflict) (string, error)
	GetConflicts(ctx context.Context, project string, status common.ConflictStatus) ([]common.Conflict, error)
	ResolveConflict(ctx context.Context, id string, resolution common.Resolution, notes string) (common.Conflict, error)

	ListEmbeddingTargets(ctx context.Context, project string, force bool) ([]EmbeddingTarget, error)
	SaveEmbeddings(ctx context.Context, targets []EmbeddingTarget, vectors [][]float32) error
	CountEmbeddings(ctx context.Context, project string) (int, error)
	GetEmbeddingStatus(ctx context.Context, project string) (EmbeddingStatus, error)
	SearchSimilar(ctx context.Context, embedding []float32, project string, limit int) ([]common.ScoredProposition, error)

	GetGaps(ctx context.Context, project string) ([]Gap, error)
}
