package db

import "github.com/jackc/pgx/v5"

// errNoRows is returned by mutation queries that affected zero rows where the
// caller needs to distinguish "not found" from a silent no-op. It is
// pgx.ErrNoRows itself, so callers' pgx.ErrNoRows checks match it.
var errNoRows = pgx.ErrNoRows
