package ai

import (
	"reflect"
	"testing"
)

type testPayload struct {
	HopDepth          int      `json:"hop_depth"`
	RelationshipTypes []string `json:"relationship_types"`
}

func TestUnmarshalFlexible(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    testPayload
		wantErr bool
	}{
		{
			name:  "well formed",
			input: `{"hop_depth": 2, "relationship_types": ["supports"]}`,
			want:  testPayload{HopDepth: 2, RelationshipTypes: []string{"supports"}},
		},
		{
			name:  "double encoded string",
			input: `"{\"hop_depth\": 1, \"relationship_types\": []}"`,
			want:  testPayload{HopDepth: 1, RelationshipTypes: []string{}},
		},
		{
			name:  "duplicate leading brace",
			input: `{{"hop_depth": 3, "relationship_types": ["contradicts"]}`,
			want:  testPayload{HopDepth: 3, RelationshipTypes: []string{"contradicts"}},
		},
		{
			name:  "unquoted keys repaired",
			input: `{hop_depth: 2, relationship_types: ["extends"]}`,
			want:  testPayload{HopDepth: 2, RelationshipTypes: []string{"extends"}},
		},
		{
			name:  "trailing comma repaired",
			input: `{"hop_depth": 1, "relationship_types": ["supports",],}`,
			want:  testPayload{HopDepth: 1, RelationshipTypes: []string{"supports"}},
		},
		{
			name:    "hopeless input",
			input:   `not even close to json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got testPayload
			err := UnmarshalFlexible(tt.input, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalFlexible() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UnmarshalFlexible() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(&testPayload{})
	if schema == nil {
		t.Fatal("expected non-nil schema")
	}
	// pointer and value inputs must produce the same schema
	if !reflect.DeepEqual(GenerateSchema(testPayload{}), schema) {
		t.Error("schema for value and pointer input differ")
	}
}
