package embed

import (
	"reflect"
	"strings"
	"testing"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/store"
)

func target(id string, tokens int) store.EmbeddingTarget {
	// one word per token under the fake counter below
	return store.EmbeddingTarget{
		PropositionID: id,
		Text:          strings.TrimSpace(strings.Repeat("w ", tokens)),
	}
}

func wordCount(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Fields(text))
}

func TestBatchTargets(t *testing.T) {
	tests := []struct {
		name      string
		targets   []store.EmbeddingTarget
		maxTokens int
		wantSizes []int
	}{
		{
			name:      "empty",
			targets:   nil,
			maxTokens: 10,
			wantSizes: nil,
		},
		{
			name:      "all fit in one batch",
			targets:   []store.EmbeddingTarget{target("a", 3), target("b", 3)},
			maxTokens: 10,
			wantSizes: []int{2},
		},
		{
			name:      "split at budget",
			targets:   []store.EmbeddingTarget{target("a", 4), target("b", 4), target("c", 4)},
			maxTokens: 8,
			wantSizes: []int{2, 1},
		},
		{
			name:      "oversized target gets own batch",
			targets:   []store.EmbeddingTarget{target("a", 2), target("b", 50), target("c", 2)},
			maxTokens: 10,
			wantSizes: []int{1, 1, 1},
		},
		{
			name:      "exact fit stays in one batch",
			targets:   []store.EmbeddingTarget{target("a", 5), target("b", 5)},
			maxTokens: 10,
			wantSizes: []int{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batches := BatchTargets(tt.targets, tt.maxTokens, wordCount)

			var sizes []int
			for _, b := range batches {
				sizes = append(sizes, len(b))
			}
			if !reflect.DeepEqual(sizes, tt.wantSizes) {
				t.Errorf("batch sizes = %v, want %v", sizes, tt.wantSizes)
			}

			// order must be preserved across batches
			var flat []string
			for _, b := range batches {
				for _, tg := range b {
					flat = append(flat, tg.PropositionID)
				}
			}
			var want []string
			for _, tg := range tt.targets {
				want = append(want, tg.PropositionID)
			}
			if !reflect.DeepEqual(flat, want) {
				t.Errorf("flattened order = %v, want %v", flat, want)
			}
		})
	}
}
