package common

import (
	"reflect"
	"testing"
)

func TestFilterRelationshipTypes(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []RelationshipType
	}{
		{
			name:   "nil input",
			values: nil,
			want:   nil,
		},
		{
			name:   "all valid",
			values: []string{"supports", "contradicts"},
			want:   []RelationshipType{RelationshipSupports, RelationshipContradicts},
		},
		{
			name:   "unknown values dropped",
			values: []string{"supports", "refutes", "extends"},
			want:   []RelationshipType{RelationshipSupports, RelationshipExtends},
		},
		{
			name:   "duplicates dropped",
			values: []string{"enables", "enables", "depends_on"},
			want:   []RelationshipType{RelationshipEnables, RelationshipDependsOn},
		},
		{
			name:   "all invalid yields nil",
			values: []string{"", "related_to"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterRelationshipTypes(tt.values)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterRelationshipTypes(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestRelationshipTypeIsValid(t *testing.T) {
	for _, known := range RelationshipTypes {
		if !known.IsValid() {
			t.Errorf("expected %q to be valid", known)
		}
	}
	if RelationshipType("related_to").IsValid() {
		t.Error("expected unknown type to be invalid")
	}
}

func TestGrounding(t *testing.T) {
	tests := []struct {
		name          string
		source        Source
		evidenceCount int
		wantGrounded  bool
		wantGap       bool
	}{
		{
			name:          "insight without evidence",
			source:        SourceInsight,
			evidenceCount: 0,
			wantGrounded:  true,
			wantGap:       false,
		},
		{
			name:          "insight with evidence",
			source:        SourceInsight,
			evidenceCount: 3,
			wantGrounded:  true,
			wantGap:       false,
		},
		{
			name:          "ai knowledge without evidence",
			source:        SourceAIKnowledge,
			evidenceCount: 0,
			wantGrounded:  false,
			wantGap:       true,
		},
		{
			name:          "ai knowledge with evidence",
			source:        SourceAIKnowledge,
			evidenceCount: 1,
			wantGrounded:  true,
			wantGap:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Grounded(tt.source, tt.evidenceCount); got != tt.wantGrounded {
				t.Errorf("Grounded(%q, %d) = %v, want %v", tt.source, tt.evidenceCount, got, tt.wantGrounded)
			}
			if got := IsGap(tt.source, tt.evidenceCount); got != tt.wantGap {
				t.Errorf("IsGap(%q, %d) = %v, want %v", tt.source, tt.evidenceCount, got, tt.wantGap)
			}
		})
	}
}

func TestEmbeddingText(t *testing.T) {
	withDef := Proposition{Name: "Attenuation bias", Definition: "Bias toward zero caused by measurement error"}
	if got, want := withDef.EmbeddingText(), "Attenuation bias: Bias toward zero caused by measurement error"; got != want {
		t.Errorf("EmbeddingText() = %q, want %q", got, want)
	}

	withoutDef := Proposition{Name: "Attenuation bias"}
	if got := withoutDef.EmbeddingText(); got != "Attenuation bias" {
		t.Errorf("EmbeddingText() = %q, want name only", got)
	}
}
