package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// scriptConn implements pgxIConn and records every statement executed
// through transactions it hands out, so write-path tests can assert the
// exact SQL and arguments sent to the database.
type scriptConn struct {
	execs      []recordedExec
	begins     int
	committed  bool
	rolledBack bool
}

type recordedExec struct {
	sql  string
	args []any
}

func (c *scriptConn) Begin(_ context.Context) (pgxv5.Tx, error) {
	c.begins++
	return &scriptTx{conn: c}, nil
}

func (c *scriptConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.execs = append(c.execs, recordedExec{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

func (c *scriptConn) Query(_ context.Context, _ string, _ ...any) (pgxv5.Rows, error) {
	panic("unexpected Query in write-path test")
}

func (c *scriptConn) QueryRow(_ context.Context, _ string, _ ...any) pgxv5.Row {
	panic("unexpected QueryRow in write-path test")
}

// scriptTx embeds pgxv5.Tx for interface completeness; only the methods the
// store's write paths use are implemented.
type scriptTx struct {
	pgxv5.Tx
	conn *scriptConn
}

func (t *scriptTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.conn.execs = append(t.conn.execs, recordedExec{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

func (t *scriptTx) Commit(_ context.Context) error {
	t.conn.committed = true
	return nil
}

func (t *scriptTx) Rollback(_ context.Context) error {
	if !t.conn.committed {
		t.conn.rolledBack = true
	}
	return nil
}
