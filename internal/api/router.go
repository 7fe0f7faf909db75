package api

import (
	"context"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumenforge/aac/internal/api/helpers"
	"github.com/lumenforge/aac/internal/api/middleware"
	"github.com/lumenforge/aac/internal/ratelimit"
)

// newRouter wires every handler into chi.Mux per the RPC/HTTP surface: public
// auth endpoints, bearer-protected self-service endpoints, admin-gated
// bootstrap endpoints and signed service-to-service endpoints each sit in
// their own route group with the matching middleware chain.
func (s *Server) newRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})
	r.Use(sentryHandler.Handle)

	r.Use(middleware.RequestLogger(s.Logger))
	r.Use(middleware.PanicRecovery(s.Logger))
	r.Use(middleware.CORS(s.AllowedOrigins))
	r.Use(middleware.BotFilter)

	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	r.Get("/.well-known/jwks.json", s.JWKS)

	requireAuth := middleware.BearerAuth(s.Tokens, s.DB, s.Logger)
	requireAdmin := middleware.AdminAuth(s.AdminAPIKey)
	requireSigned := middleware.SigningEnvelope(s.Services, s.Logger)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.Limiter, ratelimit.ClassLogin))
			r.Post("/register", s.Register)
			r.Post("/login", s.Login)
			r.Post("/verify-email", s.VerifyEmail)
			r.Post("/refresh", s.Refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.Limiter, ratelimit.ClassPasswordReset))
			r.Post("/password/reset", s.RequestPasswordReset)
			r.Post("/password/confirm", s.ConfirmPasswordReset)
		})

		r.Get("/google/login", s.GoogleLoginURL)
		r.Get("/google/callback", s.GoogleCallback)

		r.Post("/invitations/accept", s.AcceptInvitation)

		r.Group(func(r chi.Router) {
			r.Use(requireSigned)
			r.Use(middleware.RateLimit(s.Limiter, ratelimit.ClassClientWildcard))
			r.Post("/app/token", s.AppToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", s.Logout)
			r.Get("/introspect", s.Introspect)
			r.Get("/me", s.Me)
			r.Get("/sessions", s.ListSessions)

			r.Post("/mfa/setup", s.MFASetup)
			r.Post("/mfa/activate", s.MFAActivate)
			r.Post("/mfa/disable", s.MFADisable)
		})
	})

	r.Route("/authz", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RateLimit(s.Limiter, ratelimit.ClassGeneric))
		r.Post("/decide", s.Decide)
		r.Post("/decide-many", s.DecideMany)
		r.Get("/context", s.Context)
	})

	r.Route("/org", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/nodes", s.CreateOrgNode)
		r.Delete("/nodes/{nodeID}", s.DeactivateOrgNode)
		r.Get("/nodes/{nodeID}/subtree", s.ListSubtree)
	})

	r.Route("/roles", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", s.CreateRole)
		r.Post("/{roleID}/capabilities", s.AttachCapability)
		r.Delete("/{roleID}/capabilities/{capKey}", s.DetachCapability)
		r.Get("/{roleID}/capabilities", s.ListRoleCapabilities)
	})

	r.Route("/assignments", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", s.Assign)
		r.Post("/{assignmentID}/end", s.EndAssignment)
		r.Get("/users/{userID}", s.ListActiveAssignments)

		r.Post("/visibility", s.GrantVisibility)
		r.Delete("/visibility", s.RevokeVisibility)
		r.Get("/visibility/users/{userID}", s.ListVisibility)
	})

	r.Route("/invitations", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/", s.CreateInvitation)
		r.Delete("/", s.RevokeInvitation)
	})

	r.Route("/audit", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/events", s.ListEvents)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Post("/tenants", s.CreateTenant)
		r.Post("/tenants/suspend", s.SuspendTenant)
		r.Post("/capabilities", s.RegisterCapability)

		r.Post("/services", s.RegisterService)
		r.Post("/services/{clientID}/rotate", s.RotateSecret)
		r.Delete("/services/{clientID}", s.RevokeService)
	})

	return r
}

// Health probes each backing dependency and reports "degraded" if any fails,
// per §6's exit-behaviors contract. It never blocks longer than 2s total.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := map[string]string{}
	ok := true

	if err := s.Pool.Ping(ctx); err != nil {
		deps["database"] = "down"
		ok = false
	} else {
		deps["database"] = "ok"
	}

	if s.Redis != nil {
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			deps["redis"] = "down"
			ok = false
		} else {
			deps["redis"] = "ok"
		}
	}

	status := "ok"
	code := http.StatusOK
	if !ok {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	helpers.RespondJSON(w, code, map[string]any{"status": status, "dependencies": deps})
}

// JWKS publishes the current and, during rotation, previous public signing
// key so resource servers can verify access tokens without calling back in.
func (s *Server) JWKS(w http.ResponseWriter, r *http.Request) {
	helpers.RespondJSON(w, http.StatusOK, s.Tokens.JWKS())
}
