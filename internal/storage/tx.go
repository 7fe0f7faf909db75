package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenforge/aac/internal/storage/db"
)

// WithTx runs fn inside a single Postgres transaction and hands it a
// *db.Queries bound to that transaction, so every statement inside fn
// commits or rolls back together — org.CreateOrgNode relies on this to never
// leave a node without its closure-table rows.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(q *db.Queries) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // safe no-op after Commit

	if err := fn(db.New(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("storage: committing transaction: %w", err)
	}
	return nil
}
