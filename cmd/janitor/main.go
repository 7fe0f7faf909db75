package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumenforge/aac/internal/config"
	"github.com/lumenforge/aac/internal/storage"
	"github.com/lumenforge/aac/internal/storage/db"
	"github.com/lumenforge/aac/pkg/logger"
)

// janitor runs the periodic sweeps that keep time-bounded rows from
// accumulating forever: expired-pending invitations, expired refresh
// sessions, and stale OTP codes. None of these are on the request hot path —
// spec.md's state machines only need them lazily resolved on read — but left
// unswept they grow the tables without bound.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.Setup(cfg.AppEnv)

	ctx := context.Background()
	pool, err := storage.NewPostgres(ctx, cfg.DatabaseURL, cfg.DatabaseMinConnections, cfg.DatabaseMaxConnections)
	if err != nil {
		log.Error("janitor_db_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	queries := storage.New(pool)
	log.Info("janitor_started", "interval", "1h")

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	runSweep(ctx, queries, log)

	for {
		select {
		case <-ticker.C:
			runSweep(ctx, queries, log)
		case sig := <-quit:
			log.Info("janitor_shutting_down", "signal", sig)
			return
		}
	}
}

func runSweep(ctx context.Context, q *db.Queries, log *slog.Logger) {
	now := time.Now()

	if n, err := q.CleanExpiredInvitations(ctx, now); err != nil {
		log.Error("janitor_clean_invitations_failed", "error", err)
	} else if n > 0 {
		log.Info("janitor_clean_invitations", "expired", n)
	}

	if n, err := q.CleanExpiredSessions(ctx, now); err != nil {
		log.Error("janitor_clean_sessions_failed", "error", err)
	} else if n > 0 {
		log.Info("janitor_clean_sessions", "deleted", n)
	}

	if n, err := q.CleanStaleOtpCodes(ctx, now); err != nil {
		log.Error("janitor_clean_otp_failed", "error", err)
	} else if n > 0 {
		log.Info("janitor_clean_otp", "deleted", n)
	}
}
