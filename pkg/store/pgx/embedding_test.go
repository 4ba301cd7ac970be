package pgx

import (
	"context"
	"strings"
	"testing"

	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/common"
	"github.com/marcus-waldman/litrev-mcp-sub000/pkg/store"
)

func TestSaveEmbeddingsRejectsWrongDimension(t *testing.T) {
	conn := &scriptConn{}
	storage, err := NewArgumentDBStorageWithConnection(context.Background(), conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	targets := []store.EmbeddingTarget{{PropositionID: "attenuation-bias", Text: "Attenuation bias"}}
	vectors := [][]float32{make([]float32, 768)}

	saveErr := storage.SaveEmbeddings(context.Background(), targets, vectors)
	if saveErr == nil {
		t.Fatal("expected error for vector narrower than the column")
	}
	// the misconfiguration is named instead of surfacing as an opaque
	// insert failure later
	if !strings.Contains(saveErr.Error(), "AI_EMBED_DIM") {
		t.Errorf("error %q does not point at AI_EMBED_DIM", saveErr)
	}
	if conn.begins != 0 {
		t.Errorf("expected no transaction, got %d", conn.begins)
	}
}

func TestSaveEmbeddingsAcceptsColumnWidth(t *testing.T) {
	conn := &scriptConn{}
	storage, _ := NewArgumentDBStorageWithConnection(context.Background(), conn)

	targets := []store.EmbeddingTarget{{PropositionID: "attenuation-bias", Text: "Attenuation bias"}}
	vectors := [][]float32{make([]float32, common.EmbeddingDim)}

	if err := storage.SaveEmbeddings(context.Background(), targets, vectors); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conn.committed {
		t.Error("transaction was not committed")
	}
	if !strings.Contains(conn.execs[0].sql, "ON CONFLICT (proposition_id) DO UPDATE") {
		t.Errorf("insert statement missing upsert clause:\n%s", conn.execs[0].sql)
	}
}
