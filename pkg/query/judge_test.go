package query

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/ai"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
)

// fakeAIClient implements ai.ArgumentAIClient with function hooks for the
// methods a test cares about.
type fakeAIClient struct {
	completionWithFormat func(out any) error
	embedding            func(input []byte) ([]float32, error)
}

func (f *fakeAIClient) GenerateCompletion(
	_ context.Context, _ string, _ ...ai.GenerateOption,
) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeAIClient) GenerateCompletionWithFormat(
	_ context.Context, _, _, _ string, out any, _ ...ai.GenerateOption,
) error {
	if f.completionWithFormat == nil {
		return errors.New("not implemented")
	}
	return f.completionWithFormat(out)
}

func (f *fakeAIClient) GenerateEmbedding(_ context.Context, input []byte) ([]float32, error) {
	if f.embedding == nil {
		return nil, errors.New("not implemented")
	}
	return f.embedding(input)
}

func (f *fakeAIClient) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		emb, err := f.GenerateEmbedding(ctx, in)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

func (f *fakeAIClient) ResetMetrics() {}

func (f *fakeAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func TestStaticJudgeDefaults(t *testing.T) {
	plan := StaticJudge{}.PlanTraversal(context.Background(), "anything", nil)
	if !reflect.DeepEqual(plan, DefaultTraversalPlan()) {
		t.Errorf("zero StaticJudge plan = %+v, want defaults", plan)
	}
}

func TestStaticJudgeClampsPlan(t *testing.T) {
	plan := StaticJudge{Plan: TraversalPlan{HopDepth: 99, MaxNeighborsPerHop: 1000}}.
		PlanTraversal(context.Background(), "q", nil)
	if plan.HopDepth != maxHopDepth {
		t.Errorf("HopDepth = %d, want %d", plan.HopDepth, maxHopDepth)
	}
	if plan.MaxNeighborsPerHop != maxNeighborsPerHop {
		t.Errorf("MaxNeighborsPerHop = %d, want %d", plan.MaxNeighborsPerHop, maxNeighborsPerHop)
	}
}

func TestLLMJudgeNilClient(t *testing.T) {
	plan := NewLLMJudge(nil).PlanTraversal(context.Background(), "q", nil)
	if !reflect.DeepEqual(plan, DefaultTraversalPlan()) {
		t.Errorf("plan = %+v, want defaults", plan)
	}
}

func TestLLMJudgeFailureDegradesToDefaults(t *testing.T) {
	client := &fakeAIClient{
		completionWithFormat: func(any) error { return errors.New("model unavailable") },
	}
	plan := NewLLMJudge(client).PlanTraversal(context.Background(), "q", nil)
	if !reflect.DeepEqual(plan, DefaultTraversalPlan()) {
		t.Errorf("plan after model failure = %+v, want defaults", plan)
	}
}

func TestLLMJudgeClampsModelOutput(t *testing.T) {
	client := &fakeAIClient{
		completionWithFormat: func(out any) error {
			resp := out.(*judgeResponse)
			resp.HopDepth = 7
			resp.MaxNeighborsPerHop = 0
			resp.RelationshipTypes = []string{"supports", "refutes", "supports", "contradicts"}
			return nil
		},
	}

	plan := NewLLMJudge(client).PlanTraversal(context.Background(), "q", []common.ScoredProposition{
		{Proposition: common.Proposition{ID: "a", Name: "A"}, Similarity: 0.9},
	})

	if plan.HopDepth != maxHopDepth {
		t.Errorf("HopDepth = %d, want clamped to %d", plan.HopDepth, maxHopDepth)
	}
	if plan.MaxNeighborsPerHop != defaultNeighborsPerHop {
		t.Errorf("MaxNeighborsPerHop = %d, want default %d", plan.MaxNeighborsPerHop, defaultNeighborsPerHop)
	}
	wantTypes := []common.RelationshipType{common.RelationshipSupports, common.RelationshipContradicts}
	if !reflect.DeepEqual(plan.RelationshipTypes, wantTypes) {
		t.Errorf("RelationshipTypes = %v, want %v", plan.RelationshipTypes, wantTypes)
	}
}

func TestClampFillsZeroValues(t *testing.T) {
	plan := TraversalPlan{}.Clamp()
	if !reflect.DeepEqual(plan, DefaultTraversalPlan()) {
		t.Errorf("Clamp of zero plan = %+v, want defaults", plan)
	}
}

func TestClampLowerBounds(t *testing.T) {
	plan := TraversalPlan{HopDepth: -5, MaxNeighborsPerHop: -1}.Clamp()
	if plan.HopDepth != minHopDepth {
		t.Errorf("HopDepth = %d, want %d", plan.HopDepth, minHopDepth)
	}
	if plan.MaxNeighborsPerHop != minNeighborsPerHop {
		t.Errorf("MaxNeighborsPerHop = %d, want %d", plan.MaxNeighborsPerHop, minNeighborsPerHop)
	}
}
