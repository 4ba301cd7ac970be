package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/ai"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/embed"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/query"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/store"
)

// RegisterTools wires every argument-map tool into the MCP server.
func RegisterTools(
	server *mcpserver.MCPServer,
	storage store.ArgumentStorage,
	aiClient ai.ArgumentAIClient,
	embedBatchTokens int,
) *Handlers {
	handlers := &Handlers{
		storage:     storage,
		aiClient:    aiClient,
		queryClient: query.NewArgumentMapQuery(storage, aiClient, query.NewLLMJudge(aiClient)),
		embedder:    embed.NewEmbedder(storage, aiClient, embedBatchTokens),
	}

	server.AddTool(mcp.Tool{
		Name:        "save_topics",
		Description: "Upsert topics in a project, optionally with typed topic-to-topic relationships (motivates, contextualizes, contrasts_with, builds_on). Replaying the same topics is safe.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project": map[string]interface{}{
					"type":        "string",
					"description": "Project the topics belong to",
				},
				"topics": map[string]interface{}{
					"type":        "array",
					"description": "Topics to upsert",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"name":        map[string]interface{}{"type": "string"},
							"description": map[string]interface{}{"type": "string"},
						},
						"required": []string{"name"},
					},
				},
				"relationships": map[string]interface{}{
					"type":        "array",
					"description": "Optional directed topic relationships, referencing topic names or ids",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"from": map[string]interface{}{"type": "string"},
							"to":   map[string]interface{}{"type": "string"},
							"type": map[string]interface{}{"type": "string"},
						},
						"required": []string{"from", "to", "type"},
					},
				},
			},
			Required: []string{"project", "topics"},
		},
	}, handlers.SaveTopics)

	server.AddTool(mcp.Tool{
		Name:        "delete_topic",
		Description: "Delete a topic from a project. Propositions linked to the topic are unlinked, not deleted.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project":  map[string]interface{}{"type": "string"},
				"topic_id": map[string]interface{}{"type": "string"},
			},
			Required: []string{"project", "topic_id"},
		},
	}, handlers.DeleteTopic)

	server.AddTool(mcp.Tool{
		Name:        "save_propositions",
		Description: "Upsert propositions and link them into a project. Proposition ids are derived from names, so re-importing extraction output is idempotent. Optional aliases and topic memberships are recorded alongside.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project": map[string]interface{}{
					"type":        "string",
					"description": "Project to link the propositions into",
				},
				"propositions": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"name":       map[string]interface{}{"type": "string"},
							"definition": map[string]interface{}{"type": "string"},
							"source": map[string]interface{}{
								"type": "string",
								"enum": []string{"insight", "ai_knowledge"},
							},
							"aliases": map[string]interface{}{
								"type":  "array",
								"items": map[string]interface{}{"type": "string"},
							},
							"topic_ids": map[string]interface{}{
								"type":        "array",
								"description": "Topic ids this proposition belongs to; the first one is primary",
								"items":       map[string]interface{}{"type": "string"},
							},
						},
						"required": []string{"name", "source"},
					},
				},
			},
			Required: []string{"project", "propositions"},
		},
	}, handlers.SavePropositions)

	server.AddTool(mcp.Tool{
		Name:        "unlink_proposition",
		Description: "Remove a proposition from a project's working set without deleting the global proposition or its relationships.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project":        map[string]interface{}{"type": "string"},
				"proposition_id": map[string]interface{}{"type": "string"},
			},
			Required: []string{"project", "proposition_id"},
		},
	}, handlers.UnlinkProposition)

	server.AddTool(mcp.Tool{
		Name:        "find_proposition",
		Description: "Find propositions whose name or alias matches the given text, for resolving external mentions to graph nodes.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Name or alias to look up (case-insensitive)",
				},
			},
			Required: []string{"name"},
		},
	}, handlers.FindProposition)

	server.AddTool(mcp.Tool{
		Name:        "save_relationships",
		Description: "Insert directed, typed relationships between propositions (supports, contradicts, extends, qualifies, necessitates, leads_to, precedes, enables, depends_on). Duplicate edges are ignored.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"relationships": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"from_id": map[string]interface{}{"type": "string"},
							"to_id":   map[string]interface{}{"type": "string"},
							"type":    map[string]interface{}{"type": "string"},
							"source": map[string]interface{}{
								"type": "string",
								"enum": []string{"insight", "ai_knowledge"},
							},
							"grounded_in": map[string]interface{}{
								"type":        "string",
								"description": "Optional insight document the relationship was extracted from",
							},
						},
						"required": []string{"from_id", "to_id", "type"},
					},
				},
			},
			Required: []string{"relationships"},
		},
	}, handlers.SaveRelationships)

	server.AddTool(mcp.Tool{
		Name:        "add_evidence",
		Description: "Attach a citation from a source document to a proposition within a project. Evidence is append-only.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project":        map[string]interface{}{"type": "string"},
				"proposition_id": map[string]interface{}{"type": "string"},
				"insight_id": map[string]interface{}{
					"type":        "string",
					"description": "Source document id the claim comes from",
				},
				"claim": map[string]interface{}{"type": "string"},
				"pages": map[string]interface{}{"type": "string"},
				"contested_by": map[string]interface{}{
					"type":        "string",
					"description": "Optional description of a conflicting claim",
				},
			},
			Required: []string{"project", "proposition_id", "insight_id", "claim"},
		},
	}, handlers.AddEvidence)

	server.AddTool(mcp.Tool{
		Name:        "flag_conflict",
		Description: "Record a disagreement between an AI-knowledge claim and literature evidence for a proposition. The conflict stays unresolved until resolve_conflict is called.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project":        map[string]interface{}{"type": "string"},
				"proposition_id": map[string]interface{}{"type": "string"},
				"ai_claim":       map[string]interface{}{"type": "string"},
				"evidence_claim": map[string]interface{}{"type": "string"},
				"insight_id":     map[string]interface{}{"type": "string"},
			},
			Required: []string{"project", "proposition_id", "ai_claim", "evidence_claim"},
		},
	}, handlers.FlagConflict)

	server.AddTool(mcp.Tool{
		Name:        "get_conflicts",
		Description: "List conflicts in a project, optionally filtered by status (unresolved or resolved).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project": map[string]interface{}{"type": "string"},
				"status": map[string]interface{}{
					"type": "string",
					"enum": []string{"unresolved", "resolved"},
				},
			},
			Required: []string{"project"},
		},
	}, handlers.GetConflicts)

	server.AddTool(mcp.Tool{
		Name:        "resolve_conflict",
		Description: "Resolve a flagged conflict with a verdict: ai_correct, evidence_correct, or both_valid.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"conflict_id": map[string]interface{}{"type": "string"},
				"resolution": map[string]interface{}{
					"type": "string",
					"enum": []string{"ai_correct", "evidence_correct", "both_valid"},
				},
				"note": map[string]interface{}{"type": "string"},
			},
			Required: []string{"conflict_id", "resolution"},
		},
	}, handlers.ResolveConflict)

	server.AddTool(mcp.Tool{
		Name:        "embed_propositions",
		Description: "Generate vector embeddings for the project's propositions that are missing one or whose text changed. Set force to re-embed everything. Run this before the first search.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project": map[string]interface{}{"type": "string"},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "Re-embed every proposition instead of only missing/stale ones",
				},
			},
			Required: []string{"project"},
		},
	}, handlers.EmbedPropositions)

	server.AddTool(mcp.Tool{
		Name:        "get_embedding_status",
		Description: "Report embedding coverage for a project: total, embedded, not embedded, and stale counts.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project": map[string]interface{}{"type": "string"},
			},
			Required: []string{"project"},
		},
	}, handlers.GetEmbeddingStatus)

	server.AddTool(mcp.Tool{
		Name:        "search_argument_map",
		Description: "Semantic search over the project's argument map: embeds the query, seeds on the most similar propositions, and expands the surrounding graph with an adaptively chosen traversal depth and breadth.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project": map[string]interface{}{"type": "string"},
				"query":   map[string]interface{}{"type": "string"},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of similarity seeds (default: 5)",
					"default":     5,
				},
			},
			Required: []string{"project", "query"},
		},
	}, handlers.SearchArgumentMap)

	server.AddTool(mcp.Tool{
		Name:        "expand_argument_map",
		Description: "Expand the graph around known proposition ids without a similarity search. Invalid ids are reported; valid ones still expand.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project": map[string]interface{}{"type": "string"},
				"proposition_ids": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				},
				"hop_depth": map[string]interface{}{
					"type":        "number",
					"description": "Traversal depth, 1-3 (default: 1)",
				},
				"relationship_types": map[string]interface{}{
					"type":        "array",
					"description": "Optional allow-list of relationship types",
					"items":       map[string]interface{}{"type": "string"},
				},
				"max_neighbors_per_hop": map[string]interface{}{
					"type":        "number",
					"description": "Fan-out cap per hop, 1-20 (default: 10)",
				},
			},
			Required: []string{"project", "proposition_ids"},
		},
	}, handlers.ExpandArgumentMap)

	server.AddTool(mcp.Tool{
		Name:        "find_gaps",
		Description: "List the project's research gaps: AI-knowledge propositions with no supporting evidence yet.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"project": map[string]interface{}{"type": "string"},
			},
			Required: []string{"project"},
		},
	}, handlers.FindGaps)

	return handlers
}
