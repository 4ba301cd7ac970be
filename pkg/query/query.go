package query

import (
	"context"
	"fmt"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/ai"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/store"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/traverse"
)

// Error codes for structured operation failures. These travel inside the
// result payload: the caller distinguishes a failed search (success=false
// with a code) from an infrastructure error (non-nil error).
const (
	ErrCodeNoEmbeddings    = "NO_EMBEDDINGS"
	ErrCodeEmbeddingFailed = "EMBEDDING_FAILED"
	ErrCodeInvalidIDs      = "INVALID_IDS"
)

const defaultTopK = 5

// SubgraphNode is a proposition in a query result, annotated with how it was
// reached and how well it is grounded in the project's evidence.
type SubgraphNode struct {
	Proposition   common.Proposition `json:"proposition"`
	Hop           int                `json:"hop"`
	IsSeed        bool               `json:"is_seed"`
	Similarity    float64            `json:"similarity,omitempty"`
	Grounded      bool               `json:"grounded"`
	IsGap         bool               `json:"is_gap"`
	EvidenceCount int                `json:"evidence_count"`
	Evidence      []common.Evidence  `json:"evidence,omitempty"`
	TopicIDs      []string           `json:"topic_ids,omitempty"`
}

// Subgraph is the portion of the argument map returned by a search or
// expansion: seed propositions first, then neighbors in discovery order.
type Subgraph struct {
	Propositions  []SubgraphNode        `json:"propositions"`
	Relationships []common.Relationship `json:"relationships"`
}

// SearchResult is the outcome of a semantic search over a project's
// argument map.
type SearchResult struct {
	Success   bool          `json:"success"`
	ErrorCode string        `json:"error_code,omitempty"`
	Message   string        `json:"message,omitempty"`
	Query     string        `json:"query"`
	Plan      TraversalPlan `json:"plan"`
	Subgraph  Subgraph      `json:"subgraph"`
}

// ExpandResult is the outcome of expanding the argument map around known
// proposition ids.
type ExpandResult struct {
	Success            bool          `json:"success"`
	ErrorCode          string        `json:"error_code,omitempty"`
	Message            string        `json:"message,omitempty"`
	OriginPropositions []string      `json:"origin_propositions,omitempty"`
	InvalidIDs         []string      `json:"invalid_ids,omitempty"`
	Plan               TraversalPlan `json:"plan"`
	Subgraph           Subgraph      `json:"subgraph"`
}

// ArgumentQueryClient defines the two retrieval operations over an argument
// map: semantic search seeded by an embedded query, and direct expansion
// around known propositions.
type ArgumentQueryClient interface {
	Search(ctx context.Context, project string, query string, topK int) (SearchResult, error)
	Expand(ctx context.Context, project string, ids []string, plan TraversalPlan) (ExpandResult, error)
}

// ArgumentMapQuery implements ArgumentQueryClient on top of an
// ArgumentStorage, an AI client for query embeddings, and a judge that
// shapes the traversal per query.
type ArgumentMapQuery struct {
	storage  store.ArgumentStorage
	aiClient ai.ArgumentAIClient
	judge    Judge
}

// NewArgumentMapQuery creates a query client. A nil judge degrades to
// default traversal plans.
func NewArgumentMapQuery(
	storage store.ArgumentStorage,
	aiClient ai.ArgumentAIClient,
	judge Judge,
) *ArgumentMapQuery {
	if judge == nil {
		judge = StaticJudge{}
	}
	return &ArgumentMapQuery{
		storage:  storage,
		aiClient: aiClient,
		judge:    judge,
	}
}

// Search embeds the query, finds the topK most similar propositions in the
// project, asks the judge for a traversal plan, and expands the graph around
// the seeds. Domain-level failures (no embeddings yet, embedding provider
// down) are reported inside the result with success=false; the error return
// is reserved for storage failures.
func (q *ArgumentMapQuery) Search(
	ctx context.Context,
	project string,
	query string,
	topK int,
) (SearchResult, error) {
	result := SearchResult{Query: query, Plan: DefaultTraversalPlan()}

	count, err := q.storage.CountEmbeddings(ctx, project)
	if err != nil {
		return result, fmt.Errorf("check embeddings: %w", err)
	}
	if count == 0 {
		result.ErrorCode = ErrCodeNoEmbeddings
		result.Message = "no propositions in this project have embeddings yet, run embedding first"
		return result, nil
	}

	embedding, err := q.aiClient.GenerateEmbedding(ctx, []byte(query))
	if err != nil {
		logger.Error("Query embedding failed", "project", project, "err", err)
		result.ErrorCode = ErrCodeEmbeddingFailed
		result.Message = fmt.Sprintf("failed to embed query: %v", err)
		return result, nil
	}

	if topK <= 0 {
		topK = defaultTopK
	}
	seeds, err := q.storage.SearchSimilar(ctx, embedding, project, topK)
	if err != nil {
		return result, fmt.Errorf("similarity search: %w", err)
	}

	result.Success = true
	if len(seeds) == 0 {
		return result, nil
	}

	plan := q.judge.PlanTraversal(ctx, query, seeds).Clamp()
	result.Plan = plan

	seedIDs := make([]string, 0, len(seeds))
	similarities := make(map[string]float64, len(seeds))
	for _, seed := range seeds {
		seedIDs = append(seedIDs, seed.Proposition.ID)
		similarities[seed.Proposition.ID] = seed.Similarity
	}

	subgraph, err := q.buildSubgraph(ctx, project, seedIDs, similarities, plan)
	if err != nil {
		return SearchResult{Query: query, Plan: plan}, err
	}
	result.Subgraph = subgraph

	logger.Debug("Search complete",
		"project", project,
		"seeds", len(seeds),
		"propositions", len(subgraph.Propositions),
		"relationships", len(subgraph.Relationships),
	)
	return result, nil
}

// Expand walks the graph outward from the given proposition ids. Unknown ids
// are reported but do not fail the operation as long as at least one id is
// valid; the result names both the origins actually used and the ids that
// were rejected.
func (q *ArgumentMapQuery) Expand(
	ctx context.Context,
	project string,
	ids []string,
	plan TraversalPlan,
) (ExpandResult, error) {
	plan = plan.Clamp()
	result := ExpandResult{Plan: plan}

	ids = store.DedupeStrings(ids)
	known, err := q.storage.FilterKnownPropositionIDs(ctx, ids)
	if err != nil {
		return result, fmt.Errorf("validate proposition ids: %w", err)
	}

	knownSet := make(map[string]bool, len(known))
	for _, id := range known {
		knownSet[id] = true
	}
	for _, id := range ids {
		if !knownSet[id] {
			result.InvalidIDs = append(result.InvalidIDs, id)
		}
	}

	if len(known) == 0 {
		result.ErrorCode = ErrCodeInvalidIDs
		result.Message = "none of the given proposition ids exist"
		return result, nil
	}

	result.OriginPropositions = known

	subgraph, err := q.buildSubgraph(ctx, project, known, nil, plan)
	if err != nil {
		return result, err
	}
	result.Subgraph = subgraph
	result.Success = true
	return result, nil
}

// buildSubgraph runs the traversal and hydrates the reached propositions
// with grounding annotations, evidence, and topic memberships.
func (q *ArgumentMapQuery) buildSubgraph(
	ctx context.Context,
	project string,
	seedIDs []string,
	similarities map[string]float64,
	plan TraversalPlan,
) (Subgraph, error) {
	tr, err := traverse.Traverse(ctx, q.storage, seedIDs, traverse.Params{
		HopDepth:           plan.HopDepth,
		RelationshipTypes:  plan.RelationshipTypes,
		MaxNeighborsPerHop: plan.MaxNeighborsPerHop,
		Project:            project,
	})
	if err != nil {
		return Subgraph{}, err
	}

	props, err := q.storage.GetPropositions(ctx, tr.Order)
	if err != nil {
		return Subgraph{}, fmt.Errorf("load propositions: %w", err)
	}
	byID := make(map[string]common.Proposition, len(props))
	for _, p := range props {
		byID[p.ID] = p
	}

	evidence, err := q.storage.GetEvidence(ctx, project, tr.Order)
	if err != nil {
		return Subgraph{}, fmt.Errorf("load evidence: %w", err)
	}
	topics, err := q.storage.GetPropositionTopics(ctx, project, tr.Order)
	if err != nil {
		return Subgraph{}, fmt.Errorf("load topic memberships: %w", err)
	}

	nodes := make([]SubgraphNode, 0, len(tr.Order))
	for _, id := range tr.Order {
		prop, ok := byID[id]
		if !ok {
			// reachable edge endpoint missing its proposition row
			// indicates a broken foreign key, not a soft failure
			return Subgraph{}, fmt.Errorf("proposition %s referenced but not found", id)
		}

		evidenceCount := len(evidence[id])
		node := SubgraphNode{
			Proposition:   prop,
			Hop:           tr.Hops[id],
			IsSeed:        tr.Hops[id] == 0,
			Grounded:      common.Grounded(prop.Source, evidenceCount),
			IsGap:         common.IsGap(prop.Source, evidenceCount),
			EvidenceCount: evidenceCount,
			Evidence:      evidence[id],
			TopicIDs:      topics[id],
		}
		if similarities != nil {
			node.Similarity = similarities[id]
		}
		nodes = append(nodes, node)
	}

	return Subgraph{
		Propositions:  nodes,
		Relationships: tr.Relationships,
	}, nil
}
