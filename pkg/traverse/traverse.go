package traverse

import (
	"context"
	"fmt"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
)

// NeighborStore provides the single storage query traversal needs: every
// edge touching a set of propositions, optionally filtered by type and
// project, ordered by insertion.
type NeighborStore interface {
	GetPropositionNeighbors(
		ctx context.Context,
		ids []string,
		types []common.RelationshipType,
		project string,
	) ([]common.Relationship, error)
}

// Params controls a breadth-first expansion from a set of seed propositions.
type Params struct {
	// HopDepth is how many hops to expand beyond the seeds.
	HopDepth int
	// RelationshipTypes restricts traversal to the given edge types.
	// Empty means all types.
	RelationshipTypes []common.RelationshipType
	// MaxNeighborsPerHop caps how many new propositions a single hop may
	// discover in total. Truncation follows edge insertion order; edges
	// between already-reached propositions do not count against the cap.
	// Together with HopDepth this bounds the explored node count at
	// len(seeds) + HopDepth*MaxNeighborsPerHop.
	MaxNeighborsPerHop int
	// Project scopes discovered neighbors to a project when non-empty.
	Project string
}

// Result is the subgraph discovered by a traversal.
type Result struct {
	// Hops maps each reached proposition id to its hop distance from the
	// nearest seed. Seeds are at hop 0.
	Hops map[string]int
	// Order lists proposition ids in discovery order, seeds first.
	Order []string
	// Relationships holds every accepted edge, deduplicated by
	// (from, to, type).
	Relationships []common.Relationship
}

type edgeKey struct {
	from string
	to   string
	typ  common.RelationshipType
}

// Traverse expands breadth-first from the seeds for up to HopDepth hops.
// Each proposition is visited once, so cycles terminate naturally, and each
// edge appears once in the result regardless of how many hops touch it.
func Traverse(
	ctx context.Context,
	neighbors NeighborStore,
	seeds []string,
	params Params,
) (Result, error) {
	result := Result{Hops: make(map[string]int)}
	if len(seeds) == 0 {
		return result, nil
	}
	if params.HopDepth < 0 {
		return result, fmt.Errorf("negative hop depth: %d", params.HopDepth)
	}

	frontier := make([]string, 0, len(seeds))
	for _, id := range seeds {
		if _, ok := result.Hops[id]; ok {
			continue
		}
		result.Hops[id] = 0
		result.Order = append(result.Order, id)
		frontier = append(frontier, id)
	}

	seenEdges := make(map[edgeKey]bool)

	for hop := 1; hop <= params.HopDepth && len(frontier) > 0; hop++ {
		edges, err := neighbors.GetPropositionNeighbors(ctx, frontier, params.RelationshipTypes, params.Project)
		if err != nil {
			return Result{}, fmt.Errorf("expand hop %d: %w", hop, err)
		}

		inFrontier := make(map[string]bool, len(frontier))
		for _, id := range frontier {
			inFrontier[id] = true
		}

		novel := 0
		var next []string

		for _, edge := range edges {
			key := edgeKey{from: edge.FromID, to: edge.ToID, typ: edge.Type}
			if seenEdges[key] {
				continue
			}

			// orient the edge relative to the frontier: far is the
			// endpoint being discovered this hop
			far := edge.ToID
			if !inFrontier[edge.FromID] {
				far = edge.FromID
			}

			// the cap counts new propositions, not edges, so an edge
			// closing a cycle between reached nodes is always kept
			if _, visited := result.Hops[far]; !visited {
				if params.MaxNeighborsPerHop > 0 && novel >= params.MaxNeighborsPerHop {
					continue
				}
				novel++
				result.Hops[far] = hop
				result.Order = append(result.Order, far)
				next = append(next, far)
			}

			seenEdges[key] = true
			result.Relationships = append(result.Relationships, edge)
		}

		frontier = next
	}

	return result, nil
}
