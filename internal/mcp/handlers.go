package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/marcus-waldman/litrev-mcp-sub000/internal/util"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/ai"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/embed"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/logger"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/query"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/store"
	storepgx "github.com/marcus-waldman/litrev-mcp-sub000/pkg/store/pgx"
)

// Handlers holds the shared clients behind every MCP tool.
type Handlers struct {
	storage     store.ArgumentStorage
	aiClient    ai.ArgumentAIClient
	queryClient query.ArgumentQueryClient
	embedder    *embed.Embedder
}

// toolJSON renders a response object as a JSON tool result.
func toolJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// decodeArg unmarshals a structured tool argument into out. A missing key
// leaves out untouched.
func decodeArg(request mcp.CallToolRequest, key string, out any) error {
	args, ok := request.Params.Arguments.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SaveTopics handles the save_topics tool.
func (h *Handlers) SaveTopics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project argument is required"), nil
	}

	var topicArgs []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeArg(request, "topics", &topicArgs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(topicArgs) == 0 {
		return mcp.NewToolResultError("topics argument is required and must be a non-empty array"), nil
	}

	topics := make([]common.Topic, 0, len(topicArgs))
	topicIDs := make([]string, 0, len(topicArgs))
	for _, t := range topicArgs {
		if t.Name == "" {
			return mcp.NewToolResultError("every topic needs a name"), nil
		}
		id := util.Slugify(t.Name)
		topics = append(topics, common.Topic{
			Project:     project,
			ID:          id,
			Name:        t.Name,
			Description: t.Description,
		})
		topicIDs = append(topicIDs, id)
	}

	if err := h.storage.SaveTopics(ctx, project, topics); err != nil {
		logger.Error("Failed to save topics", "project", project, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to save topics: %v", err)), nil
	}

	var relArgs []struct {
		From string `json:"from"`
		To   string `json:"to"`
		Type string `json:"type"`
	}
	if err := decodeArg(request, "relationships", &relArgs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(relArgs) > 0 {
		relations := make([]common.TopicRelationship, 0, len(relArgs))
		for _, r := range relArgs {
			relations = append(relations, common.TopicRelationship{
				Project: project,
				FromID:  util.Slugify(r.From),
				ToID:    util.Slugify(r.To),
				Type:    common.TopicRelationshipType(r.Type),
			})
		}
		if err := h.storage.SaveTopicRelationships(ctx, project, relations); err != nil {
			logger.Error("Failed to save topic relationships", "project", project, "err", err)
			return mcp.NewToolResultError(fmt.Sprintf("failed to save topic relationships: %v", err)), nil
		}
	}

	return toolJSON(map[string]any{
		"success":   true,
		"topic_ids": topicIDs,
	})
}

// DeleteTopic handles the delete_topic tool.
func (h *Handlers) DeleteTopic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project argument is required"), nil
	}
	topicID, err := request.RequireString("topic_id")
	if err != nil {
		return mcp.NewToolResultError("topic_id argument is required"), nil
	}

	if err := h.storage.DeleteTopic(ctx, project, topicID); err != nil {
		logger.Error("Failed to delete topic", "project", project, "topic", topicID, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete topic: %v", err)), nil
	}

	return toolJSON(map[string]any{"success": true, "topic_id": topicID})
}

// SavePropositions handles the save_propositions tool.
func (h *Handlers) SavePropositions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project argument is required"), nil
	}

	var propArgs []struct {
		Name       string   `json:"name"`
		Definition string   `json:"definition"`
		Source     string   `json:"source"`
		Aliases    []string `json:"aliases"`
		TopicIDs   []string `json:"topic_ids"`
	}
	if err := decodeArg(request, "propositions", &propArgs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(propArgs) == 0 {
		return mcp.NewToolResultError("propositions argument is required and must be a non-empty array"), nil
	}

	props := make([]common.Proposition, 0, len(propArgs))
	var memberships []common.TopicMembership
	for _, p := range propArgs {
		if p.Name == "" {
			return mcp.NewToolResultError("every proposition needs a name"), nil
		}
		source := common.Source(p.Source)
		if !source.IsValid() {
			return mcp.NewToolResultError(fmt.Sprintf("invalid source %q for %q", p.Source, p.Name)), nil
		}
		id := util.Slugify(p.Name)
		props = append(props, common.Proposition{
			ID:         id,
			Name:       p.Name,
			Definition: p.Definition,
			Source:     source,
		})
		for i, topicID := range p.TopicIDs {
			memberships = append(memberships, common.TopicMembership{
				PropositionID: id,
				Project:       project,
				TopicID:       topicID,
				IsPrimary:     i == 0,
			})
		}
	}

	ids, err := h.storage.SavePropositions(ctx, props)
	if err != nil {
		logger.Error("Failed to save propositions", "project", project, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to save propositions: %v", err)), nil
	}
	if err := h.storage.LinkPropositionsToProject(ctx, project, ids); err != nil {
		logger.Error("Failed to link propositions", "project", project, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to link propositions: %v", err)), nil
	}

	for i, p := range propArgs {
		if len(p.Aliases) == 0 {
			continue
		}
		if err := h.storage.AddPropositionAliases(ctx, ids[i], p.Aliases); err != nil {
			logger.Error("Failed to add aliases", "proposition", ids[i], "err", err)
			return mcp.NewToolResultError(fmt.Sprintf("failed to add aliases: %v", err)), nil
		}
	}

	if len(memberships) > 0 {
		if err := h.storage.SaveTopicMemberships(ctx, memberships); err != nil {
			logger.Error("Failed to save topic memberships", "project", project, "err", err)
			return mcp.NewToolResultError(fmt.Sprintf("failed to save topic memberships: %v", err)), nil
		}
	}

	return toolJSON(map[string]any{
		"success":         true,
		"proposition_ids": ids,
	})
}

// UnlinkProposition handles the unlink_proposition tool.
func (h *Handlers) UnlinkProposition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project argument is required"), nil
	}
	propositionID, err := request.RequireString("proposition_id")
	if err != nil {
		return mcp.NewToolResultError("proposition_id argument is required"), nil
	}

	if err := h.storage.UnlinkPropositionFromProject(ctx, project, propositionID); err != nil {
		logger.Error("Failed to unlink proposition", "project", project, "proposition", propositionID, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to unlink proposition: %v", err)), nil
	}

	return toolJSON(map[string]any{"success": true, "proposition_id": propositionID})
}

// FindProposition handles the find_proposition tool.
func (h *Handlers) FindProposition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}

	props, err := h.storage.FindPropositionsByAlias(ctx, name)
	if err != nil {
		logger.Error("Failed to find propositions", "name", name, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to find propositions: %v", err)), nil
	}
	if props == nil {
		props = []common.Proposition{}
	}

	return toolJSON(map[string]any{
		"success":      true,
		"propositions": props,
	})
}

// SaveRelationships handles the save_relationships tool.
func (h *Handlers) SaveRelationships(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var relArgs []struct {
		FromID     string `json:"from_id"`
		ToID       string `json:"to_id"`
		Type       string `json:"type"`
		Source     string `json:"source"`
		GroundedIn string `json:"grounded_in"`
	}
	if err := decodeArg(request, "relationships", &relArgs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(relArgs) == 0 {
		return mcp.NewToolResultError("relationships argument is required and must be a non-empty array"), nil
	}

	relations := make([]common.Relationship, 0, len(relArgs))
	for _, r := range relArgs {
		relations = append(relations, common.Relationship{
			FromID:     r.FromID,
			ToID:       r.ToID,
			Type:       common.RelationshipType(r.Type),
			Source:     common.Source(r.Source),
			GroundedIn: r.GroundedIn,
		})
	}

	if err := h.storage.SaveRelationships(ctx, relations); err != nil {
		logger.Error("Failed to save relationships", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to save relationships: %v", err)), nil
	}

	return toolJSON(map[string]any{
		"success": true,
		"saved":   len(relations),
	})
}

// AddEvidence handles the add_evidence tool.
func (h *Handlers) AddEvidence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project argument is required"), nil
	}
	propositionID, err := request.RequireString("proposition_id")
	if err != nil {
		return mcp.NewToolResultError("proposition_id argument is required"), nil
	}
	insightID, err := request.RequireString("insight_id")
	if err != nil {
		return mcp.NewToolResultError("insight_id argument is required"), nil
	}
	claim, err := request.RequireString("claim")
	if err != nil {
		return mcp.NewToolResultError("claim argument is required"), nil
	}

	id, err := h.storage.AddEvidence(ctx, common.Evidence{
		PropositionID: propositionID,
		Project:       project,
		InsightID:     insightID,
		Claim:         claim,
		Pages:         request.GetString("pages", ""),
		ContestedBy:   request.GetString("contested_by", ""),
	})
	if err != nil {
		logger.Error("Failed to add evidence", "proposition", propositionID, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to add evidence: %v", err)), nil
	}

	return toolJSON(map[string]any{
		"success":     true,
		"evidence_id": id,
	})
}

// FlagConflict handles the flag_conflict tool.
func (h *Handlers) FlagConflict(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project argument is required"), nil
	}
	propositionID, err := request.RequireString("proposition_id")
	if err != nil {
		return mcp.NewToolResultError("proposition_id argument is required"), nil
	}
	aiClaim, err := request.RequireString("ai_claim")
	if err != nil {
		return mcp.NewToolResultError("ai_claim argument is required"), nil
	}
	evidenceClaim, err := request.RequireString("evidence_claim")
	if err != nil {
		return mcp.NewToolResultError("evidence_claim argument is required"), nil
	}

	id, err := h.storage.CreateConflict(ctx, common.Conflict{
		Project:       project,
		PropositionID: propositionID,
		AIClaim:       aiClaim,
		EvidenceClaim: evidenceClaim,
		InsightID:     request.GetString("insight_id", ""),
	})
	if err != nil {
		logger.Error("Failed to create conflict", "proposition", propositionID, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to create conflict: %v", err)), nil
	}

	return toolJSON(map[string]any{
		"success":     true,
		"conflict_id": id,
	})
}

// GetConflicts handles the get_conflicts tool.
func (h *Handlers) GetConflicts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project argument is required"), nil
	}

	conflicts, err := h.storage.GetConflicts(ctx, project, common.ConflictStatus(request.GetString("status", "")))
	if err != nil {
		logger.Error("Failed to load conflicts", "project", project, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to load conflicts: %v", err)), nil
	}
	if conflicts == nil {
		conflicts = []common.Conflict{}
	}

	return toolJSON(map[string]any{
		"success":   true,
		"conflicts": conflicts,
	})
}

// ResolveConflict handles the resolve_conflict tool.
func (h *Handlers) ResolveConflict(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conflictID, err := request.RequireString("conflict_id")
	if err != nil {
		return mcp.NewToolResultError("conflict_id argument is required"), nil
	}
	resolution := common.Resolution(request.GetString("resolution", ""))
	if !resolution.IsValid() {
		return mcp.NewToolResultError("resolution must be one of ai_correct, evidence_correct, both_valid"), nil
	}

	conflict, err := h.storage.ResolveConflict(ctx, conflictID, resolution, request.GetString("note", ""))
	if err != nil {
		if errors.Is(err, storepgx.ErrConflictNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("conflict %s not found", conflictID)), nil
		}
		logger.Error("Failed to resolve conflict", "conflict", conflictID, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve conflict: %v", err)), nil
	}

	return toolJSON(map[string]any{
		"success":  true,
		"conflict": conflict,
	})
}

// EmbedPropositions handles the embed_propositions tool.
func (h *Handlers) EmbedPropositions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project argument is required"), nil
	}
	force := request.GetBool("force", false)

	result, err := h.embedder.EmbedProject(ctx, project, force)
	if err != nil {
		logger.Error("Embedding run failed", "project", project, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("embedding run failed: %v", err)), nil
	}

	return toolJSON(result)
}

// GetEmbeddingStatus handles the get_embedding_status tool.
func (h *Handlers) GetEmbeddingStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project argument is required"), nil
	}

	status, err := h.storage.GetEmbeddingStatus(ctx, project)
	if err != nil {
		logger.Error("Failed to load embedding status", "project", project, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to load embedding status: %v", err)), nil
	}

	return toolJSON(map[string]any{
		"success": true,
		"status":  status,
	})
}

// SearchArgumentMap handles the search_argument_map tool.
func (h *Handlers) SearchArgumentMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project argument is required"), nil
	}
	queryText, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required"), nil
	}
	maxResults := request.GetInt("max_results", 5)

	result, err := h.queryClient.Search(ctx, project, queryText, maxResults)
	if err != nil {
		logger.Error("Search failed", "project", project, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return toolJSON(result)
}

// ExpandArgumentMap handles the expand_argument_map tool.
func (h *Handlers) ExpandArgumentMap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project argument is required"), nil
	}

	var propositionIDs []string
	if err := decodeArg(request, "proposition_ids", &propositionIDs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(propositionIDs) == 0 {
		return mcp.NewToolResultError("proposition_ids argument is required and must be a non-empty array"), nil
	}

	var relationshipTypes []string
	if err := decodeArg(request, "relationship_types", &relationshipTypes); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	plan := query.TraversalPlan{
		HopDepth:           request.GetInt("hop_depth", 0),
		RelationshipTypes:  common.FilterRelationshipTypes(relationshipTypes),
		MaxNeighborsPerHop: request.GetInt("max_neighbors_per_hop", 0),
	}

	result, err := h.queryClient.Expand(ctx, project, propositionIDs, plan)
	if err != nil {
		logger.Error("Expand failed", "project", project, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("expand failed: %v", err)), nil
	}

	return toolJSON(result)
}

// FindGaps handles the find_gaps tool.
func (h *Handlers) FindGaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project argument is required"), nil
	}

	gaps, err := h.storage.GetGaps(ctx, project)
	if err != nil {
		logger.Error("Failed to load gaps", "project", project, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to load gaps: %v", err)), nil
	}
	if gaps == nil {
		gaps = []store.Gap{}
	}

	return toolJSON(map[string]any{
		"success": true,
		"gaps":    gaps,
	})
}
