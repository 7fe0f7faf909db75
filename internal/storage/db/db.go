// Package db is the hand-written query layer for the AAC schema, written in
// the shape sqlc would generate: a DBTX seam so the same Queries struct runs
// against a pool or a single transaction, one typed params/row struct per
// query, raw SQL strings executed through pgx.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, letting callers run
// queries either directly against the pool or inside a transaction (see
// storage.WithTx).
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Queries wraps a DBTX with the AAC's typed query methods.
type Queries struct {
	db DBTX
}

// New builds a Queries bound to the given executor.
func New(dbtx DBTX) *Queries {
	return &Queries{db: dbtx}
}

// WithTx returns a Queries bound to tx, sharing nothing else with q.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}
