package query

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/store"
)

// fakeStorage is an in-memory ArgumentStorage covering the read paths the
// query client exercises. Write operations are not used here.
type fakeStorage struct {
	embeddingCount int
	similar        []common.ScoredProposition
	props          map[string]common.Proposition
	edges          []common.Relationship
	evidence       map[string][]common.Evidence
	topics         map[string][]string
}

func (f *fakeStorage) SaveTopics(context.Context, string, []common.Topic) error { return nil }

func (f *fakeStorage) GetTopics(context.Context, string) ([]common.Topic, error) { return nil, nil }

func (f *fakeStorage) DeleteTopic(context.Context, string, string) error { return nil }

func (f *fakeStorage) SaveTopicRelationships(context.Context, string, []common.TopicRelationship) error {
	return nil
}

func (f *fakeStorage) SavePropositions(context.Context, []common.Proposition) ([]string, error) {
	return nil, nil
}

func (f *fakeStorage) GetPropositions(_ context.Context, ids []string) ([]common.Proposition, error) {
	var out []common.Proposition
	for _, id := range ids {
		if p, ok := f.props[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStorage) FilterKnownPropositionIDs(_ context.Context, ids []string) ([]string, error) {
	var out []string
	for _, id := range ids {
		if _, ok := f.props[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeStorage) LinkPropositionsToProject(context.Context, string, []string) error {
	return nil
}

func (f *fakeStorage) UnlinkPropositionFromProject(context.Context, string, string) error {
	return nil
}

func (f *fakeStorage) AddPropositionAliases(context.Context, string, []string) error { return nil }

func (f *fakeStorage) GetPropositionAliases(context.Context, []string) (map[string][]string, error) {
	return nil, nil
}

func (f *fakeStorage) FindPropositionsByAlias(context.Context, string) ([]common.Proposition, error) {
	return nil, nil
}

func (f *fakeStorage) SaveTopicMemberships(context.Context, []common.TopicMembership) error {
	return nil
}

func (f *fakeStorage) GetPropositionTopics(
	_ context.Context, _ string, ids []string,
) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, id := range ids {
		if t, ok := f.topics[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (f *fakeStorage) SaveRelationships(context.Context, []common.Relationship) error { return nil }

func (f *fakeStorage) GetPropositionNeighbors(
	_ context.Context,
	ids []string,
	types []common.RelationshipType,
	_ string,
) ([]common.Relationship, error) {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	typeSet := make(map[common.RelationshipType]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}
	var out []common.Relationship
	for _, e := range f.edges {
		if !idSet[e.FromID] && !idSet[e.ToID] {
			continue
		}
		if len(typeSet) > 0 && !typeSet[e.Type] {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStorage) AddEvidence(context.Context, common.Evidence) (int64, error) { return 0, nil }

func (f *fakeStorage) GetEvidence(
	_ context.Context, _ string, ids []string,
) (map[string][]common.Evidence, error) {
	out := make(map[string][]common.Evidence)
	for _, id := range ids {
		if ev, ok := f.evidence[id]; ok {
			out[id] = ev
		}
	}
	return out, nil
}

func (f *fakeStorage) GetEvidenceCounts(
	_ context.Context, _ string, ids []string,
) (map[string]int, error) {
	out := make(map[string]int)
	for _, id := range ids {
		if ev, ok := f.evidence[id]; ok {
			out[id] = len(ev)
		}
	}
	return out, nil
}

func (f *fakeStorage) CreateConflict(context.Context, common.Conflict) (string, error) {
	return "", nil
}

func (f *fakeStorage) GetConflicts(
	context.Context, string, common.ConflictStatus,
) ([]common.Conflict, error) {
	return nil, nil
}

func (f *fakeStorage) ResolveConflict(
	context.Context, string, common.Resolution, string,
) (common.Conflict, error) {
	return common.Conflict{}, nil
}

func (f *fakeStorage) ListEmbeddingTargets(
	context.Context, string, bool,
) ([]store.EmbeddingTarget, error) {
	return nil, nil
}

func (f *fakeStorage) SaveEmbeddings(context.Context, []store.EmbeddingTarget, [][]float32) error {
	return nil
}

func (f *fakeStorage) CountEmbeddings(context.Context, string) (int, error) {
	return f.embeddingCount, nil
}

func (f *fakeStorage) GetEmbeddingStatus(context.Context, string) (store.EmbeddingStatus, error) {
	return store.EmbeddingStatus{}, nil
}

func (f *fakeStorage) SearchSimilar(
	context.Context, []float32, string, int,
) ([]common.ScoredProposition, error) {
	return f.similar, nil
}

func (f *fakeStorage) GetGaps(context.Context, string) ([]store.Gap, error) { return nil, nil }

func prop(id, name string, source common.Source) common.Proposition {
	return common.Proposition{ID: id, Name: name, Source: source}
}

func TestSearchNoEmbeddings(t *testing.T) {
	storage := &fakeStorage{embeddingCount: 0}
	embedCalls := 0
	client := &fakeAIClient{embedding: func([]byte) ([]float32, error) {
		embedCalls++
		return []float32{0.1}, nil
	}}

	q := NewArgumentMapQuery(storage, client, nil)
	result, err := q.Search(context.Background(), "proj", "measurement error", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Error("expected structured failure")
	}
	if result.ErrorCode != ErrCodeNoEmbeddings {
		t.Errorf("ErrorCode = %q, want %q", result.ErrorCode, ErrCodeNoEmbeddings)
	}
	if embedCalls != 0 {
		t.Errorf("query was embedded despite empty index, %d calls", embedCalls)
	}
}

func TestSearchEmbeddingFailure(t *testing.T) {
	storage := &fakeStorage{embeddingCount: 3}
	client := &fakeAIClient{embedding: func([]byte) ([]float32, error) {
		return nil, errors.New("provider down")
	}}

	q := NewArgumentMapQuery(storage, client, nil)
	result, err := q.Search(context.Background(), "proj", "anything", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || result.ErrorCode != ErrCodeEmbeddingFailed {
		t.Errorf("got success=%v code=%q, want failure with %q",
			result.Success, result.ErrorCode, ErrCodeEmbeddingFailed)
	}
}

func TestSearchNoMatchesIsSuccess(t *testing.T) {
	storage := &fakeStorage{embeddingCount: 3, similar: nil}
	client := &fakeAIClient{embedding: func([]byte) ([]float32, error) {
		return []float32{0.1}, nil
	}}

	q := NewArgumentMapQuery(storage, client, nil)
	result, err := q.Search(context.Background(), "proj", "unrelated topic", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("empty result set should still be a success")
	}
	if len(result.Subgraph.Propositions) != 0 {
		t.Errorf("expected empty subgraph, got %d propositions", len(result.Subgraph.Propositions))
	}
}

func TestSearchSubgraphAnnotations(t *testing.T) {
	storage := &fakeStorage{
		embeddingCount: 3,
		similar: []common.ScoredProposition{
			{Proposition: prop("a", "A", common.SourceInsight), Similarity: 0.91},
			{Proposition: prop("b", "B", common.SourceAIKnowledge), Similarity: 0.84},
		},
		props: map[string]common.Proposition{
			"a": prop("a", "A", common.SourceInsight),
			"b": prop("b", "B", common.SourceAIKnowledge),
			"c": prop("c", "C", common.SourceAIKnowledge),
		},
		edges: []common.Relationship{
			{ID: 1, FromID: "a", ToID: "c", Type: common.RelationshipSupports},
		},
		evidence: map[string][]common.Evidence{
			"b": {{ID: 1, PropositionID: "b", InsightID: "smith-2021", Claim: "B holds in panel data"}},
		},
		topics: map[string][]string{"a": {"bias"}},
	}
	client := &fakeAIClient{embedding: func([]byte) ([]float32, error) {
		return []float32{0.1}, nil
	}}

	q := NewArgumentMapQuery(storage, client, StaticJudge{Plan: TraversalPlan{HopDepth: 1, MaxNeighborsPerHop: 10}})
	result, err := q.Search(context.Background(), "proj", "bias", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("search failed: %s %s", result.ErrorCode, result.Message)
	}

	nodes := result.Subgraph.Propositions
	if len(nodes) != 3 {
		t.Fatalf("got %d propositions, want 3", len(nodes))
	}

	// seeds first, in similarity order, then discovered neighbors
	if nodes[0].Proposition.ID != "a" || nodes[1].Proposition.ID != "b" || nodes[2].Proposition.ID != "c" {
		t.Fatalf("unexpected node order: %s %s %s",
			nodes[0].Proposition.ID, nodes[1].Proposition.ID, nodes[2].Proposition.ID)
	}

	if !nodes[0].IsSeed || nodes[0].Similarity != 0.91 || nodes[0].Hop != 0 {
		t.Errorf("seed a annotations wrong: %+v", nodes[0])
	}
	if !nodes[0].Grounded || nodes[0].IsGap {
		t.Error("insight proposition must be grounded and not a gap")
	}

	// ai_knowledge with evidence: grounded
	if !nodes[1].Grounded || nodes[1].IsGap || nodes[1].EvidenceCount != 1 {
		t.Errorf("seed b annotations wrong: %+v", nodes[1])
	}

	// ai_knowledge without evidence: a gap, one hop out, no similarity
	if nodes[2].IsSeed || nodes[2].Hop != 1 || nodes[2].Similarity != 0 {
		t.Errorf("neighbor c annotations wrong: %+v", nodes[2])
	}
	if nodes[2].Grounded || !nodes[2].IsGap {
		t.Error("ungrounded ai_knowledge proposition must be a gap")
	}

	if want := []string{"bias"}; !reflect.DeepEqual(nodes[0].TopicIDs, want) {
		t.Errorf("TopicIDs = %v, want %v", nodes[0].TopicIDs, want)
	}
	if len(result.Subgraph.Relationships) != 1 {
		t.Errorf("got %d relationships, want 1", len(result.Subgraph.Relationships))
	}
}

func TestExpandPartialValidity(t *testing.T) {
	storage := &fakeStorage{
		props: map[string]common.Proposition{
			"a": prop("a", "A", common.SourceInsight),
			"b": prop("b", "B", common.SourceInsight),
		},
		edges: []common.Relationship{
			{ID: 1, FromID: "a", ToID: "b", Type: common.RelationshipExtends},
		},
	}

	q := NewArgumentMapQuery(storage, &fakeAIClient{}, nil)
	result, err := q.Expand(context.Background(), "proj", []string{"a", "missing", "a"}, TraversalPlan{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expand failed: %s %s", result.ErrorCode, result.Message)
	}
	if want := []string{"a"}; !reflect.DeepEqual(result.OriginPropositions, want) {
		t.Errorf("OriginPropositions = %v, want %v", result.OriginPropositions, want)
	}
	if want := []string{"missing"}; !reflect.DeepEqual(result.InvalidIDs, want) {
		t.Errorf("InvalidIDs = %v, want %v", result.InvalidIDs, want)
	}
	if len(result.Subgraph.Propositions) != 2 {
		t.Errorf("got %d propositions, want 2", len(result.Subgraph.Propositions))
	}
}

func TestExpandAllInvalid(t *testing.T) {
	storage := &fakeStorage{props: map[string]common.Proposition{}}

	q := NewArgumentMapQuery(storage, &fakeAIClient{}, nil)
	result, err := q.Expand(context.Background(), "proj", []string{"x", "y"}, TraversalPlan{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Error("expected structured failure")
	}
	if result.ErrorCode != ErrCodeInvalidIDs {
		t.Errorf("ErrorCode = %q, want %q", result.ErrorCode, ErrCodeInvalidIDs)
	}
	if want := []string{"x", "y"}; !reflect.DeepEqual(result.InvalidIDs, want) {
		t.Errorf("InvalidIDs = %v, want %v", result.InvalidIDs, want)
	}
}

func TestExpandDefaultsPlan(t *testing.T) {
	storage := &fakeStorage{
		props: map[string]common.Proposition{"a": prop("a", "A", common.SourceInsight)},
	}

	q := NewArgumentMapQuery(storage, &fakeAIClient{}, nil)
	result, err := q.Expand(context.Background(), "proj", []string{"a"}, TraversalPlan{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result.Plan, DefaultTraversalPlan()) {
		t.Errorf("Plan = %+v, want defaults", result.Plan)
	}
}
