package pgx

import (
	"context"
	"sync"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// ArgumentDBStorage implements the ArgumentStorage interface using PostgreSQL
// with pgvector for similarity search over proposition embeddings. Writes are
// serialized behind a mutex; reads run concurrently on the pool.
type ArgumentDBStorage struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

// NewArgumentDBStorageWithConnection creates a new ArgumentDBStorage using an
// existing database connection or pool.
func NewArgumentDBStorageWithConnection(
	ctx context.Context,
	conn pgxIConn,
) (*ArgumentDBStorage, error) {
	s := &ArgumentDBStorage{
		conn:   conn,
		dbLock: sync.Mutex{},
	}
	return s, nil
}
