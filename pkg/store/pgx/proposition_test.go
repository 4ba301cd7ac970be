package pgx

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
)

func TestSavePropositionsUpsertKeepsReplaySemantics(t *testing.T) {
	conn := &scriptConn{}
	storage, err := NewArgumentDBStorageWithConnection(context.Background(), conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	props := []common.Proposition{
		{ID: "attenuation-bias", Name: "Attenuation bias", Definition: "Bias toward zero", Source: common.SourceInsight},
		{ID: "panel-attrition", Name: "Panel attrition", Source: common.SourceAIKnowledge},
	}

	ids, err := storage.SavePropositions(context.Background(), props)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"attenuation-bias", "panel-attrition"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if !conn.committed {
		t.Error("transaction was not committed")
	}
	if len(conn.execs) != len(props) {
		t.Fatalf("got %d statements, want %d", len(conn.execs), len(props))
	}

	// the upsert must refresh replayed rows instead of failing, keep an
	// existing definition when the replay carries a blank one, never
	// downgrade insight back to ai_knowledge, and bump updated_at so the
	// embedding pipeline can detect staleness
	sql := conn.execs[0].sql
	for _, fragment := range []string{
		"ON CONFLICT (id) DO UPDATE",
		"WHEN EXCLUDED.definition <> '' THEN EXCLUDED.definition",
		"ELSE propositions.definition",
		"WHEN propositions.source = 'insight' THEN propositions.source",
		"ELSE EXCLUDED.source",
		"updated_at = now()",
	} {
		if !strings.Contains(sql, fragment) {
			t.Errorf("upsert statement missing %q:\n%s", fragment, sql)
		}
	}

	wantArgs := []any{"panel-attrition", "Panel attrition", "", common.SourceAIKnowledge}
	if !reflect.DeepEqual(conn.execs[1].args, wantArgs) {
		t.Errorf("args = %v, want %v", conn.execs[1].args, wantArgs)
	}
}

func TestSavePropositionsRejectsInvalidSource(t *testing.T) {
	conn := &scriptConn{}
	storage, _ := NewArgumentDBStorageWithConnection(context.Background(), conn)

	_, err := storage.SavePropositions(context.Background(), []common.Proposition{
		{ID: "x", Name: "X", Source: "hearsay"},
	})
	if err == nil {
		t.Fatal("expected error for invalid source")
	}
	if len(conn.execs) != 0 {
		t.Errorf("expected no statements, got %d", len(conn.execs))
	}
	if conn.committed {
		t.Error("transaction must not commit")
	}
	if !conn.rolledBack {
		t.Error("transaction was not rolled back")
	}
}

func TestSavePropositionsEmptyInputSkipsTransaction(t *testing.T) {
	conn := &scriptConn{}
	storage, _ := NewArgumentDBStorageWithConnection(context.Background(), conn)

	ids, err := storage.SavePropositions(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids != nil {
		t.Errorf("ids = %v, want nil", ids)
	}
	if conn.begins != 0 {
		t.Errorf("expected no transaction, got %d", conn.begins)
	}
}
