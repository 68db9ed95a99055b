package store

import (
	"context"
	"database/sql"
)

// DBTX is the interface satisfied by both *sql.DB and *sql.Tx, so
// queries can run standalone or inside a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the prepared query methods for the engine's tables.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given database or
// transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
