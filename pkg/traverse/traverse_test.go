package traverse

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
)

// fakeNeighborStore serves edges from memory the way the database does:
// edges touching any queried id, in either direction, in insertion order.
type fakeNeighborStore struct {
	edges []common.Relationship
	calls int
	err   error
}

func (f *fakeNeighborStore) GetPropositionNeighbors(
	_ context.Context,
	ids []string,
	types []common.RelationshipType,
	_ string,
) ([]common.Relationship, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

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

func edge(id int64, from, to string, typ common.RelationshipType) common.Relationship {
	return common.Relationship{ID: id, FromID: from, ToID: to, Type: typ}
}

func TestTraverseCycle(t *testing.T) {
	// a -> b -> c -> a
	store := &fakeNeighborStore{edges: []common.Relationship{
		edge(1, "a", "b", common.RelationshipSupports),
		edge(2, "b", "c", common.RelationshipSupports),
		edge(3, "c", "a", common.RelationshipSupports),
	}}

	result, err := Traverse(context.Background(), store, []string{"a"}, Params{HopDepth: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantHops := map[string]int{"a": 0, "b": 1, "c": 1}
	if !reflect.DeepEqual(result.Hops, wantHops) {
		t.Errorf("Hops = %v, want %v", result.Hops, wantHops)
	}
	if len(result.Relationships) != 3 {
		t.Errorf("got %d relationships, want 3", len(result.Relationships))
	}

	// each edge appears exactly once despite the cycle
	seen := make(map[int64]int)
	for _, rel := range result.Relationships {
		seen[rel.ID]++
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("edge %d appears %d times", id, count)
		}
	}
}

func TestTraverseHopAnnotation(t *testing.T) {
	// chain a -> b -> c -> d, depth 2 must stop before d
	store := &fakeNeighborStore{edges: []common.Relationship{
		edge(1, "a", "b", common.RelationshipLeadsTo),
		edge(2, "b", "c", common.RelationshipLeadsTo),
		edge(3, "c", "d", common.RelationshipLeadsTo),
	}}

	result, err := Traverse(context.Background(), store, []string{"a"}, Params{HopDepth: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantHops := map[string]int{"a": 0, "b": 1, "c": 2}
	if !reflect.DeepEqual(result.Hops, wantHops) {
		t.Errorf("Hops = %v, want %v", result.Hops, wantHops)
	}
	if _, ok := result.Hops["d"]; ok {
		t.Error("d reached beyond hop depth")
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(result.Order, want) {
		t.Errorf("Order = %v, want %v", result.Order, want)
	}
}

func TestTraverseNeighborCap(t *testing.T) {
	// hub with ten spokes, cap three per hop
	edges := make([]common.Relationship, 0, 10)
	spokes := []string{"n0", "n1", "n2", "n3", "n4", "n5", "n6", "n7", "n8", "n9"}
	for i, spoke := range spokes {
		edges = append(edges, edge(int64(i+1), "hub", spoke, common.RelationshipSupports))
	}
	store := &fakeNeighborStore{edges: edges}

	result, err := Traverse(context.Background(), store, []string{"hub"}, Params{
		HopDepth:           1,
		MaxNeighborsPerHop: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Hops) != 4 {
		t.Fatalf("got %d propositions, want 4 (hub + 3 capped neighbors)", len(result.Hops))
	}
	// truncation is deterministic: lowest edge ids win
	for _, want := range []string{"n0", "n1", "n2"} {
		if _, ok := result.Hops[want]; !ok {
			t.Errorf("expected %s in result", want)
		}
	}
	if len(result.Relationships) != 3 {
		t.Errorf("got %d relationships, want 3", len(result.Relationships))
	}
}

func TestTraverseNeighborCapMultiSeed(t *testing.T) {
	// two hubs with ten spokes each: the cap bounds what the whole hop
	// discovers, not what each frontier node contributes
	var edges []common.Relationship
	for i := 0; i < 10; i++ {
		edges = append(edges, edge(int64(i+1), "hub1", fmt.Sprintf("a%d", i), common.RelationshipSupports))
	}
	for i := 0; i < 10; i++ {
		edges = append(edges, edge(int64(i+11), "hub2", fmt.Sprintf("b%d", i), common.RelationshipSupports))
	}
	store := &fakeNeighborStore{edges: edges}

	result, err := Traverse(context.Background(), store, []string{"hub1", "hub2"}, Params{
		HopDepth:           1,
		MaxNeighborsPerHop: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Hops) != 12 {
		t.Fatalf("got %d propositions, want 12 (2 seeds + 10 capped neighbors)", len(result.Hops))
	}
	// truncation is deterministic: lowest edge ids win, so hub1's spokes fill the cap
	for i := 0; i < 10; i++ {
		if _, ok := result.Hops[fmt.Sprintf("a%d", i)]; !ok {
			t.Errorf("expected a%d in result", i)
		}
	}
	if len(result.Relationships) != 10 {
		t.Errorf("got %d relationships, want 10", len(result.Relationships))
	}
}

func TestTraverseNeighborCapBoundsExploredNodes(t *testing.T) {
	// complete 20-ary fan-out three levels deep; the per-hop cap must keep
	// the explored count at 1 + 3*20 regardless of graph size
	var edges []common.Relationship
	var id int64
	level := []string{"root"}
	for depth := 0; depth < 3; depth++ {
		var next []string
		for _, parent := range level {
			for i := 0; i < 20; i++ {
				child := fmt.Sprintf("%s.%d", parent, i)
				id++
				edges = append(edges, edge(id, parent, child, common.RelationshipLeadsTo))
				next = append(next, child)
			}
		}
		level = next
	}
	store := &fakeNeighborStore{edges: edges}

	result, err := Traverse(context.Background(), store, []string{"root"}, Params{
		HopDepth:           3,
		MaxNeighborsPerHop: 20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 1 + 3*20; len(result.Hops) != want {
		t.Fatalf("explored %d propositions, want %d", len(result.Hops), want)
	}
}

func TestTraverseCapSkipsVisitedEndpoints(t *testing.T) {
	// an edge between two seeds discovers nothing and must not consume
	// the cap ahead of edges that do
	store := &fakeNeighborStore{edges: []common.Relationship{
		edge(1, "a", "b", common.RelationshipContradicts),
		edge(2, "a", "x", common.RelationshipSupports),
		edge(3, "b", "y", common.RelationshipSupports),
	}}

	result, err := Traverse(context.Background(), store, []string{"a", "b"}, Params{
		HopDepth:           1,
		MaxNeighborsPerHop: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantHops := map[string]int{"a": 0, "b": 0, "x": 1, "y": 1}
	if !reflect.DeepEqual(result.Hops, wantHops) {
		t.Errorf("Hops = %v, want %v", result.Hops, wantHops)
	}
	// the seed-to-seed edge still belongs in the subgraph
	if len(result.Relationships) != 3 {
		t.Errorf("got %d relationships, want 3", len(result.Relationships))
	}
}

func TestTraverseTypeFilter(t *testing.T) {
	store := &fakeNeighborStore{edges: []common.Relationship{
		edge(1, "a", "b", common.RelationshipSupports),
		edge(2, "a", "c", common.RelationshipContradicts),
	}}

	result, err := Traverse(context.Background(), store, []string{"a"}, Params{
		HopDepth:          1,
		RelationshipTypes: []common.RelationshipType{common.RelationshipContradicts},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantHops := map[string]int{"a": 0, "c": 1}
	if !reflect.DeepEqual(result.Hops, wantHops) {
		t.Errorf("Hops = %v, want %v", result.Hops, wantHops)
	}
}

func TestTraverseZeroDepth(t *testing.T) {
	store := &fakeNeighborStore{edges: []common.Relationship{
		edge(1, "a", "b", common.RelationshipSupports),
	}}

	result, err := Traverse(context.Background(), store, []string{"a", "b", "a"}, Params{HopDepth: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.calls != 0 {
		t.Errorf("expected no storage calls at depth 0, got %d", store.calls)
	}

	wantHops := map[string]int{"a": 0, "b": 0}
	if !reflect.DeepEqual(result.Hops, wantHops) {
		t.Errorf("Hops = %v, want %v", result.Hops, wantHops)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(result.Order, want) {
		t.Errorf("Order = %v, want duplicate seeds collapsed: %v", result.Order, want)
	}
}

func TestTraverseEmptySeeds(t *testing.T) {
	store := &fakeNeighborStore{}
	result, err := Traverse(context.Background(), store, nil, Params{HopDepth: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Hops) != 0 || len(result.Relationships) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestTraversePropagatesStorageError(t *testing.T) {
	sentinel := errors.New("db down")
	store := &fakeNeighborStore{err: sentinel}
	_, err := Traverse(context.Background(), store, []string{"a"}, Params{HopDepth: 1})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}
