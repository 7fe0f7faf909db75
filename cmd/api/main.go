package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/lumenforge/aac/internal/api"
	"github.com/lumenforge/aac/internal/assignment"
	"github.com/lumenforge/aac/internal/audit"
	"github.com/lumenforge/aac/internal/authz"
	"github.com/lumenforge/aac/internal/capability"
	"github.com/lumenforge/aac/internal/config"
	"github.com/lumenforge/aac/internal/crypto"
	"github.com/lumenforge/aac/internal/identity"
	"github.com/lumenforge/aac/internal/invitation"
	"github.com/lumenforge/aac/internal/kys"
	"github.com/lumenforge/aac/internal/mfa"
	"github.com/lumenforge/aac/internal/notify"
	"github.com/lumenforge/aac/internal/oauth"
	"github.com/lumenforge/aac/internal/org"
	"github.com/lumenforge/aac/internal/ratelimit"
	"github.com/lumenforge/aac/internal/session"
	"github.com/lumenforge/aac/internal/storage"
	"github.com/lumenforge/aac/internal/tokens"
	"github.com/lumenforge/aac/pkg/logger"
)

func main() {
	// Masked: in production these files don't exist and we rely on real env vars.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.Setup(cfg.AppEnv)
	log.Info("application_startup", "env", cfg.AppEnv)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 1.0,
			Environment:      cfg.AppEnv,
		}); err != nil {
			log.Error("sentry_init_failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
			log.Info("sentry_initialized")
		}
	} else {
		log.Warn("sentry_dsn_missing", "details", "skipping_init")
	}

	ctx := context.Background()

	pool, err := storage.NewPostgres(ctx, cfg.DatabaseURL, cfg.DatabaseMinConnections, cfg.DatabaseMaxConnections)
	if err != nil {
		log.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("database_connected")

	queries := storage.New(pool)

	rdb, blacklist, nonces, states := connectRedis(cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	accessTTL, err := time.ParseDuration(cfg.AccessTokenTTL)
	if err != nil {
		log.Error("invalid_access_token_ttl", "error", err)
		os.Exit(1)
	}
	appTokenTTL, err := time.ParseDuration(cfg.AppTokenTTL)
	if err != nil {
		log.Error("invalid_app_token_ttl", "error", err)
		os.Exit(1)
	}
	refreshTTL := time.Duration(cfg.RefreshTokenTTLDays) * 24 * time.Hour

	if cfg.JWTPrivateKey == "" {
		if cfg.AppEnv == "production" {
			log.Error("jwt_private_key_missing", "details", "fatal_in_production")
			os.Exit(1)
		}
		log.Warn("jwt_private_key_missing", "details", "dev_mode_unsafe")
	}

	tok, err := tokens.NewService(cfg.JWTPrivateKey, cfg.JWTKeyID, cfg.JWTPreviousPublicKey, "", blacklist,
		tokens.WithAccessTTL(accessTTL),
		tokens.WithRefreshTTL(refreshTTL),
		tokens.WithIssuer(cfg.ServiceName),
	)
	if err != nil {
		log.Error("token_service_init_failed", "error", err)
		os.Exit(1)
	}

	sealer, err := crypto.NewSealer(cfg.SecretSealingKey, cfg.SecretSealingKeyPrev)
	if err != nil {
		log.Error("sealer_init_failed", "error", err)
		os.Exit(1)
	}

	orgSvc := org.NewService(queries, pool)
	identitySvc := identity.NewService(queries, crypto.NewArgon2Hasher())
	capabilitySvc := capability.NewRegistry(queries)
	assignmentSvc := assignment.NewService(queries)
	authzEngine := authz.NewEngine(queries, log)
	auditRecorder := audit.NewRecorder(queries, log, 4, 256)
	sessionMgr := session.NewManager(queries, tok, auditRecorder, log)
	servicesRegistry := kys.NewRegistry(queries, sealer, nonces, tok)
	mfaSvc := mfa.NewService(queries, cfg.MFAIssuer)
	oauthSvc := oauth.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, states, identitySvc)
	invitationSvc := invitation.NewService(queries, assignmentSvc)

	limiter := ratelimit.NewKeyer(ratelimit.Limits{
		ratelimit.ClassLogin: {
			RPS:   rate.Limit(cfg.RateLimitLoginRPS),
			Burst: cfg.RateLimitLoginBurst,
		},
		ratelimit.ClassPasswordReset: {
			RPS:   rate.Limit(cfg.RateLimitPasswordResetRPS),
			Burst: cfg.RateLimitPasswordResetBurst,
		},
		ratelimit.ClassGeneric: {
			RPS:   rate.Limit(cfg.RateLimitGenericRPS),
			Burst: cfg.RateLimitGenericBurst,
		},
		ratelimit.ClassClientWildcard: {
			RPS:   rate.Limit(cfg.RateLimitGenericRPS),
			Burst: cfg.RateLimitGenericBurst,
		},
	})

	server := api.NewServer(api.Deps{
		Pool:           pool,
		Redis:          rdb,
		Queries:        queries,
		Tokens:         tok,
		Org:            orgSvc,
		Identity:       identitySvc,
		Capability:     capabilitySvc,
		Assignment:     assignmentSvc,
		Authz:          authzEngine,
		Sessions:       sessionMgr,
		Services:       servicesRegistry,
		MFA:            mfaSvc,
		OAuth:          oauthSvc,
		Audit:          auditRecorder,
		Invitations:    invitationSvc,
		Email:          notify.NewLogEmailSender(log),
		SMS:            notify.NewLogSMSSender(log),
		Limiter:        limiter,
		RefreshTTL:     refreshTTL,
		AppTokenTTL:    appTokenTTL,
		AllowedOrigins: []string{cfg.DefaultAppURL},
		AdminAPIKey:    cfg.AdminAPIKey,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server_listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("server_startup_failed", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown_signal_received", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful_shutdown_failed", "error", err)
			if err := srv.Close(); err != nil {
				log.Error("server_force_close_failed", "error", err)
			}
		}

		auditRecorder.Close()
		log.Info("audit_recorder_closed")

		pool.Close()
		log.Info("database_pool_closed")

		log.Info("server_shutdown_complete")
	}
}

// connectRedis wires the three cross-instance stores the auth flows need —
// access/app-token blacklist, signing-envelope nonce cache, OAuth PKCE
// state — onto a shared client. With no REDIS_URL it falls back to
// in-process fakes, fine for a single-instance deployment but not a
// horizontally-scaled one.
func connectRedis(cfg *config.Config, log *slog.Logger) (*redis.Client, tokens.Blacklist, kys.NonceCache, oauth.StateStore) {
	if cfg.RedisURL == "" {
		log.Warn("redis_url_missing", "details", "using_in_memory_fallbacks")
		return nil, tokens.NewMemoryBlacklist(), kys.NewMemoryNonceCache(), oauth.NewMemoryStateStore()
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error("redis_url_parse_failed", "error", err)
		os.Exit(1)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Error("redis_ping_failed", "error", err)
		os.Exit(1)
	}
	log.Info("redis_connected")

	return client, tokens.NewRedisBlacklist(client), kys.NewRedisNonceCache(client), oauth.NewRedisStateStore(client)
}
