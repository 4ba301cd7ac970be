package pgx

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
)

func TestSaveRelationshipsReplayIsNoOp(t *testing.T) {
	conn := &scriptConn{}
	storage, err := NewArgumentDBStorageWithConnection(context.Background(), conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	relations := []common.Relationship{
		{FromID: "a", ToID: "b", Type: common.RelationshipSupports, Source: common.SourceAIKnowledge},
		{FromID: "b", ToID: "c", Type: common.RelationshipContradicts, GroundedIn: "smith-2021"},
	}

	if err := storage.SaveRelationships(context.Background(), relations); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conn.committed {
		t.Error("transaction was not committed")
	}
	if len(conn.execs) != len(relations) {
		t.Fatalf("got %d statements, want %d", len(conn.execs), len(relations))
	}

	// an edge is identified by (from, to, type): a replayed edge must be
	// ignored, not fail the batch
	if !strings.Contains(conn.execs[0].sql, "ON CONFLICT (from_id, to_id, type) DO NOTHING") {
		t.Errorf("insert statement missing insert-or-ignore clause:\n%s", conn.execs[0].sql)
	}

	// an omitted source defaults to insight on the way in
	wantArgs := []any{"b", "c", common.RelationshipContradicts, common.SourceInsight, "smith-2021"}
	if !reflect.DeepEqual(conn.execs[1].args, wantArgs) {
		t.Errorf("args = %v, want %v", conn.execs[1].args, wantArgs)
	}
}

func TestSaveRelationshipsValidation(t *testing.T) {
	tests := []struct {
		name     string
		relation common.Relationship
	}{
		{
			name:     "unknown type",
			relation: common.Relationship{FromID: "a", ToID: "b", Type: "related_to"},
		},
		{
			name:     "self edge",
			relation: common.Relationship{FromID: "a", ToID: "a", Type: common.RelationshipSupports},
		},
		{
			name:     "unknown source",
			relation: common.Relationship{FromID: "a", ToID: "b", Type: common.RelationshipSupports, Source: "hearsay"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &scriptConn{}
			storage, _ := NewArgumentDBStorageWithConnection(context.Background(), conn)

			err := storage.SaveRelationships(context.Background(), []common.Relationship{tt.relation})
			if err == nil {
				t.Fatal("expected error")
			}
			if conn.committed {
				t.Error("transaction must not commit")
			}
		})
	}
}
