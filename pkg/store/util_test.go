package store

import (
	"errors"
	"reflect"
	"testing"
)

func TestChunkRange(t *testing.T) {
	type call struct{ start, end int }

	tests := []struct {
		name      string
		total     int
		chunkSize int
		want      []call
	}{
		{
			name:      "zero total",
			total:     0,
			chunkSize: 10,
			want:      nil,
		},
		{
			name:      "even split",
			total:     6,
			chunkSize: 3,
			want:      []call{{0, 3}, {3, 6}},
		},
		{
			name:      "ragged tail",
			total:     7,
			chunkSize: 3,
			want:      []call{{0, 3}, {3, 6}, {6, 7}},
		},
		{
			name:      "chunk larger than total",
			total:     2,
			chunkSize: 100,
			want:      []call{{0, 2}},
		},
		{
			name:      "non-positive chunk size means single chunk",
			total:     4,
			chunkSize: 0,
			want:      []call{{0, 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []call
			err := ChunkRange(tt.total, tt.chunkSize, func(start, end int) error {
				got = append(got, call{start, end})
				return nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ChunkRange calls = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChunkRangePropagatesError(t *testing.T) {
	sentinel := errors.New("boom")
	calls := 0
	err := ChunkRange(10, 2, func(start, end int) error {
		calls++
		if start == 4 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected iteration to stop after failure, got %d calls", calls)
	}
}

func TestDedupeStrings(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
		{
			name: "duplicates removed order kept",
			in:   []string{"a", "b", "a", "c", "b"},
			want: []string{"a", "b", "c"},
		},
		{
			name: "blank entries dropped",
			in:   []string{"", "a", ""},
			want: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DedupeStrings(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DedupeStrings(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
