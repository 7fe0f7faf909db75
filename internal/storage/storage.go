// Package storage wires the Postgres connection pool and the transaction
// helper every AAC component builds its queries on top of.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenforge/aac/internal/storage/db"
)

// NewPostgres opens a pooled connection, tuned per the concurrency model's
// pool bounds (min/max connections, 30s health check, 600s idle, 1800s max
// lifetime), and verifies connectivity before returning.
func NewPostgres(ctx context.Context, dsn string, minConns, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parsing DSN: %w", err)
	}

	if minConns > 0 {
		cfg.MinConns = minConns
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnIdleTime = 600 * time.Second
	cfg.MaxConnLifetime = 1800 * time.Second
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: pinging database: %w", err)
	}

	return pool, nil
}

// New wraps a pool or transaction as a Queries instance.
func New(dbtx db.DBTX) *db.Queries {
	return db.New(dbtx)
}
