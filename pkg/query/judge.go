package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/ai"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
)

const (
	minHopDepth = 1
	maxHopDepth = 3

	minNeighborsPerHop = 1
	maxNeighborsPerHop = 20

	defaultHopDepth        = 1
	defaultNeighborsPerHop = 10
)

// TraversalPlan is the parameter set that shapes a graph expansion: how far
// to walk, along which edge types, and how wide each hop may fan out.
type TraversalPlan struct {
	HopDepth           int                       `json:"hop_depth"`
	RelationshipTypes  []common.RelationshipType `json:"relationship_types,omitempty"`
	MaxNeighborsPerHop int                       `json:"max_neighbors_per_hop"`
}

// DefaultTraversalPlan returns the conservative plan used whenever no better
// signal is available: one hop, all edge types, ten neighbors per hop.
func DefaultTraversalPlan() TraversalPlan {
	return TraversalPlan{
		HopDepth:           defaultHopDepth,
		RelationshipTypes:  nil,
		MaxNeighborsPerHop: defaultNeighborsPerHop,
	}
}

// Clamp forces every field of the plan into its valid range, replacing
// zero values with defaults and dropping unknown relationship types.
func (p TraversalPlan) Clamp() TraversalPlan {
	out := p
	if out.HopDepth == 0 {
		out.HopDepth = defaultHopDepth
	}
	out.HopDepth = min(max(out.HopDepth, minHopDepth), maxHopDepth)

	if out.MaxNeighborsPerHop == 0 {
		out.MaxNeighborsPerHop = defaultNeighborsPerHop
	}
	out.MaxNeighborsPerHop = min(max(out.MaxNeighborsPerHop, minNeighborsPerHop), maxNeighborsPerHop)

	var types []common.RelationshipType
	seen := make(map[common.RelationshipType]bool)
	for _, t := range out.RelationshipTypes {
		if !t.IsValid() || seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	out.RelationshipTypes = types

	return out
}

// Judge proposes a traversal plan for a query over a set of seed
// propositions. Implementations must not fail: when no informed plan can be
// produced they fall back to defaults.
type Judge interface {
	PlanTraversal(ctx context.Context, query string, seeds []common.ScoredProposition) TraversalPlan
}

// StaticJudge always returns the same plan. A zero StaticJudge returns the
// default plan.
type StaticJudge struct {
	Plan TraversalPlan
}

func (j StaticJudge) PlanTraversal(
	_ context.Context,
	_ string,
	_ []common.ScoredProposition,
) TraversalPlan {
	if j.Plan.HopDepth == 0 && j.Plan.MaxNeighborsPerHop == 0 && len(j.Plan.RelationshipTypes) == 0 {
		return DefaultTraversalPlan()
	}
	return j.Plan.Clamp()
}

// LLMJudge asks a chat model to shape the traversal for a specific query.
// The model sees the query and the seed propositions and proposes hop depth,
// a relationship type filter, and a fan-out cap. Any failure degrades to the
// default plan; a judge never blocks a search.
type LLMJudge struct {
	client ai.ArgumentAIClient
}

// NewLLMJudge creates a judge backed by the given AI client. A nil client is
// allowed and yields default plans.
func NewLLMJudge(client ai.ArgumentAIClient) *LLMJudge {
	return &LLMJudge{client: client}
}

type judgeResponse struct {
	HopDepth           int      `json:"hop_depth" jsonschema:"minimum=1,maximum=3" jsonschema_description:"How many hops to expand from the seed propositions"`
	RelationshipTypes  []string `json:"relationship_types" jsonschema_description:"Edge types to follow; empty means all types"`
	MaxNeighborsPerHop int      `json:"max_neighbors_per_hop" jsonschema:"minimum=1,maximum=20" jsonschema_description:"Maximum new propositions a single hop may discover"`
}

func (j *LLMJudge) PlanTraversal(
	ctx context.Context,
	query string,
	seeds []common.ScoredProposition,
) TraversalPlan {
	if j == nil || j.client == nil {
		return DefaultTraversalPlan()
	}

	var out judgeResponse
	err := j.client.GenerateCompletionWithFormat(
		ctx,
		"traversal_plan",
		"Parameters for expanding an argument graph around search results",
		buildJudgePrompt(query, seeds),
		&out,
		ai.WithTemperature(0.1),
	)
	if err != nil {
		logger.Warn("Traversal judge failed, using defaults", "err", err)
		return DefaultTraversalPlan()
	}

	plan := TraversalPlan{
		HopDepth:           out.HopDepth,
		RelationshipTypes:  common.FilterRelationshipTypes(out.RelationshipTypes),
		MaxNeighborsPerHop: out.MaxNeighborsPerHop,
	}
	return plan.Clamp()
}

func buildJudgePrompt(query string, seeds []common.ScoredProposition) string {
	var b strings.Builder

	b.WriteString("You are planning how far to expand an argument map around search results.\n\n")
	b.WriteString("Propositions are claims connected by typed edges. The available edge types are:\n")
	for _, t := range common.RelationshipTypes {
		fmt.Fprintf(&b, "- %s\n", t)
	}

	fmt.Fprintf(&b, "\nThe user asked: %q\n\n", query)
	b.WriteString("Semantic search found these starting propositions:\n")
	for _, seed := range seeds {
		fmt.Fprintf(&b, "- %s (similarity %.2f)\n", seed.Proposition.Name, seed.Similarity)
	}

	b.WriteString(`
Choose traversal parameters for this query:
- hop_depth: 1 for direct context, 2 for argument chains, 3 only for broad survey questions.
- relationship_types: restrict to the edge types relevant to the question, or leave empty to follow all.
- max_neighbors_per_hop: lower for focused questions, higher when breadth matters.
`)

	return b.String()
}
