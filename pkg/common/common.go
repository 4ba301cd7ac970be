package common

import "time"

// EmbeddingDim is the width of proposition embedding vectors. The
// proposition_embeddings column is declared vector(1536), so AI_EMBED_DIM
// must stay at this value unless the schema changes with it.
const EmbeddingDim = 1536

// Source describes the provenance of a proposition.
type Source string

const (
	// SourceInsight marks a proposition extracted from reviewed literature.
	SourceInsight Source = "insight"
	// SourceAIKnowledge marks a proposition contributed from model background
	// knowledge and not yet backed by a citation.
	SourceAIKnowledge Source = "ai_knowledge"
)

// IsValid reports whether s is one of the known proposition sources.
func (s Source) IsValid() bool {
	return s == SourceInsight || s == SourceAIKnowledge
}

// RelationshipType describes a directed edge between two propositions.
type RelationshipType string

const (
	RelationshipSupports     RelationshipType = "supports"
	RelationshipContradicts  RelationshipType = "contradicts"
	RelationshipExtends      RelationshipType = "extends"
	RelationshipQualifies    RelationshipType = "qualifies"
	RelationshipNecessitates RelationshipType = "necessitates"
	RelationshipLeadsTo      RelationshipType = "leads_to"
	RelationshipPrecedes     RelationshipType = "precedes"
	RelationshipEnables      RelationshipType = "enables"
	RelationshipDependsOn    RelationshipType = "depends_on"
)

// RelationshipTypes lists every valid proposition relationship type.
var RelationshipTypes = []RelationshipType{
	RelationshipSupports,
	RelationshipContradicts,
	RelationshipExtends,
	RelationshipQualifies,
	RelationshipNecessitates,
	RelationshipLeadsTo,
	RelationshipPrecedes,
	RelationshipEnables,
	RelationshipDependsOn,
}

// IsValid reports whether t is one of the known proposition relationship types.
func (t RelationshipType) IsValid() bool {
	for _, known := range RelationshipTypes {
		if t == known {
			return true
		}
	}
	return false
}

// FilterRelationshipTypes returns the subset of values that are valid
// relationship types, preserving order and dropping duplicates. A nil or
// empty result means "no filter" to downstream callers.
func FilterRelationshipTypes(values []string) []RelationshipType {
	var out []RelationshipType
	seen := make(map[RelationshipType]bool)
	for _, v := range values {
		t := RelationshipType(v)
		if !t.IsValid() || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// TopicRelationshipType describes a directed edge between two topics.
type TopicRelationshipType string

const (
	TopicRelationshipMotivates      TopicRelationshipType = "motivates"
	TopicRelationshipContextualizes TopicRelationshipType = "contextualizes"
	TopicRelationshipContrastsWith  TopicRelationshipType = "contrasts_with"
	TopicRelationshipBuildsOn       TopicRelationshipType = "builds_on"
)

// IsValid reports whether t is one of the known topic relationship types.
func (t TopicRelationshipType) IsValid() bool {
	switch t {
	case TopicRelationshipMotivates,
		TopicRelationshipContextualizes,
		TopicRelationshipContrastsWith,
		TopicRelationshipBuildsOn:
		return true
	}
	return false
}

// ConflictStatus describes the lifecycle state of a detected conflict.
type ConflictStatus string

const (
	ConflictStatusUnresolved ConflictStatus = "unresolved"
	ConflictStatusResolved   ConflictStatus = "resolved"
)

// Resolution describes how a conflict between AI background knowledge and
// literature evidence was settled.
type Resolution string

const (
	ResolutionAICorrect       Resolution = "ai_correct"
	ResolutionEvidenceCorrect Resolution = "evidence_correct"
	ResolutionBothValid       Resolution = "both_valid"
)

// IsValid reports whether r is one of the known conflict resolutions.
func (r Resolution) IsValid() bool {
	switch r {
	case ResolutionAICorrect, ResolutionEvidenceCorrect, ResolutionBothValid:
		return true
	}
	return false
}

// Topic is a thematic grouping of propositions, scoped to a project.
type Topic struct {
	Project     string    `json:"project"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Proposition is a single claim in the argument map. Propositions are
// global: the same claim can participate in multiple projects through
// topic memberships.
type Proposition struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Definition string    `json:"definition,omitempty"`
	Source     Source    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EmbeddingText returns the canonical text a proposition is embedded under.
// Definitions are included when present so near-duplicate names with
// different meanings stay separable in vector space.
func (p Proposition) EmbeddingText() string {
	if p.Definition == "" {
		return p.Name
	}
	return p.Name + ": " + p.Definition
}

// Relationship is a directed, typed edge between two propositions.
// GroundedIn optionally references the insight document the edge was
// extracted from.
type Relationship struct {
	ID         int64            `json:"id"`
	FromID     string           `json:"from_id"`
	ToID       string           `json:"to_id"`
	Type       RelationshipType `json:"type"`
	Source     Source           `json:"source"`
	GroundedIn string           `json:"grounded_in,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// TopicRelationship is a directed, typed edge between two topics within a
// project.
type TopicRelationship struct {
	Project   string                `json:"project"`
	FromID    string                `json:"from_id"`
	ToID      string                `json:"to_id"`
	Type      TopicRelationshipType `json:"type"`
	CreatedAt time.Time             `json:"created_at"`
}

// TopicMembership links a proposition to a topic within a project.
type TopicMembership struct {
	PropositionID string `json:"proposition_id"`
	Project       string `json:"project"`
	TopicID       string `json:"topic_id"`
	IsPrimary     bool   `json:"is_primary"`
}

// Evidence is an append-only citation record attaching a claim from a
// source document (insight) to a proposition within a project.
type Evidence struct {
	ID            int64     `json:"id"`
	PropositionID string    `json:"proposition_id"`
	Project       string    `json:"project"`
	InsightID     string    `json:"insight_id"`
	Claim         string    `json:"claim"`
	Pages         string    `json:"pages,omitempty"`
	ContestedBy   string    `json:"contested_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Conflict records a disagreement between an AI-knowledge claim and
// grounded literature evidence, tracked until a human resolves it.
type Conflict struct {
	ID             string         `json:"id"`
	Project        string         `json:"project"`
	PropositionID  string         `json:"proposition_id"`
	AIClaim        string         `json:"ai_claim"`
	EvidenceClaim  string         `json:"evidence_claim"`
	InsightID      string         `json:"insight_id,omitempty"`
	Status         ConflictStatus `json:"status"`
	Resolution     Resolution     `json:"resolution,omitempty"`
	ResolutionNote string         `json:"resolution_note,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	ResolvedAt     *time.Time     `json:"resolved_at,omitempty"`
}

// ScoredProposition pairs a proposition with its cosine similarity to a
// query embedding.
type ScoredProposition struct {
	Proposition Proposition `json:"proposition"`
	Similarity  float64     `json:"similarity"`
}

// Grounded reports whether a proposition counts as grounded given its
// source and the amount of evidence recorded for it in a project.
// Insight propositions are grounded by construction; AI-knowledge
// propositions need at least one piece of evidence.
func Grounded(source Source, evidenceCount int) bool {
	return source == SourceInsight || evidenceCount >= 1
}

// IsGap reports whether a proposition is a research gap: contributed from
// model background knowledge and still without any supporting evidence.
func IsGap(source Source, evidenceCount int) bool {
	return source == SourceAIKnowledge && evidenceCount == 0
}
