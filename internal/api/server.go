// Package api assembles the AAC's chi router: every handler group from §6's
// RPC/HTTP surface plus health and metrics endpoints.
package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/lumenforge/aac/internal/assignment"
	"github.com/lumenforge/aac/internal/audit"
	"github.com/lumenforge/aac/internal/authz"
	"github.com/lumenforge/aac/internal/capability"
	"github.com/lumenforge/aac/internal/identity"
	"github.com/lumenforge/aac/internal/invitation"
	"github.com/lumenforge/aac/internal/kys"
	"github.com/lumenforge/aac/internal/mfa"
	"github.com/lumenforge/aac/internal/notify"
	"github.com/lumenforge/aac/internal/oauth"
	"github.com/lumenforge/aac/internal/org"
	"github.com/lumenforge/aac/internal/ratelimit"
	"github.com/lumenforge/aac/internal/session"
	"github.com/lumenforge/aac/internal/storage/db"
	"github.com/lumenforge/aac/internal/telemetry"
	"github.com/lumenforge/aac/internal/tokens"
)

// Server wires every domain service into a single chi.Mux. It holds no
// request-scoped state of its own; every field is shared read-mostly across
// goroutines handling concurrent requests.
type Server struct {
	Router *chi.Mux

	DB    *db.Queries
	Pool  *pgxpool.Pool
	Redis *redis.Client // nil when running on in-memory fallbacks

	Tokens      *tokens.Service
	Org         *org.Service
	Identity    *identity.Service
	Capability  *capability.Registry
	Assignment  *assignment.Service
	Authz       *authz.Engine
	Sessions    *session.Manager
	Services    *kys.Registry
	MFA         *mfa.Service
	OAuth       *oauth.Service
	Audit       *audit.Recorder
	Invitations *invitation.Service
	Email       notify.EmailSender
	SMS         notify.SMSSender

	Limiter *ratelimit.Keyer

	RefreshTTL     time.Duration
	AppTokenTTL    time.Duration
	AllowedOrigins []string
	AdminAPIKey    string

	Logger  *slog.Logger
	metrics *prometheus.Registry
}

// Deps groups every constructor argument so NewServer's signature stays
// readable as the service count grows.
type Deps struct {
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	Queries     *db.Queries
	Tokens      *tokens.Service
	Org         *org.Service
	Identity    *identity.Service
	Capability  *capability.Registry
	Assignment  *assignment.Service
	Authz       *authz.Engine
	Sessions    *session.Manager
	Services    *kys.Registry
	MFA         *mfa.Service
	OAuth       *oauth.Service
	Audit       *audit.Recorder
	Invitations *invitation.Service
	Email       notify.EmailSender
	SMS         notify.SMSSender

	Limiter        *ratelimit.Keyer
	RefreshTTL     time.Duration
	AppTokenTTL    time.Duration
	AllowedOrigins []string
	AdminAPIKey    string
	Logger         *slog.Logger
}

func NewServer(d Deps) *Server {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		DB:             d.Queries,
		Pool:           d.Pool,
		Redis:          d.Redis,
		Tokens:         d.Tokens,
		Org:            d.Org,
		Identity:       d.Identity,
		Capability:     d.Capability,
		Assignment:     d.Assignment,
		Authz:          d.Authz,
		Sessions:       d.Sessions,
		Services:       d.Services,
		MFA:            d.MFA,
		OAuth:          d.OAuth,
		Audit:          d.Audit,
		Invitations:    d.Invitations,
		Email:          d.Email,
		SMS:            d.SMS,
		Limiter:        d.Limiter,
		RefreshTTL:     d.RefreshTTL,
		AppTokenTTL:    d.AppTokenTTL,
		AllowedOrigins: d.AllowedOrigins,
		AdminAPIKey:    d.AdminAPIKey,
		Logger:         log,
	}

	s.metrics = prometheus.NewRegistry()
	for _, c := range telemetry.All() {
		s.metrics.MustRegister(c)
	}

	s.Router = s.newRouter()
	return s
}
