// Package httpapi assembles the service's chi router: public reads, bearer
// authenticated caller routes, and token-gated admin routes, plus health and
// metrics endpoints.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	electionhandler "partyreg/internal/election/handler"
	"partyreg/internal/events"
	"partyreg/internal/letters"
	partyhandler "partyreg/internal/party/handler"
	"partyreg/internal/rewards"
	snapshothandler "partyreg/internal/snapshot/handler"
	admintoken "partyreg/pkg/platform/middleware/admin"
	"partyreg/pkg/platform/middleware/auth"
	"partyreg/pkg/platform/middleware/request"
)

// Deps carries everything the router mounts.
type Deps struct {
	Party    *partyhandler.Handler
	Snapshot *snapshothandler.Handler
	Election *electionhandler.Handler
	Letters  *letters.Handler
	Rewards  *rewards.Handler
	Events   *events.Handler

	AdminToken string
	SigningKey []byte
	Logger     *slog.Logger

	// Health is polled by the readiness endpoint; nil checks pass.
	Health func() error
}

// NewRouter mounts all verticals with their middleware chains.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.WithRequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(); err != nil {
				deps.Logger.Warn("health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public reads need no identity.
	deps.Party.RegisterPublic(r)
	deps.Snapshot.RegisterPublic(r)
	deps.Election.RegisterPublic(r)
	deps.Letters.RegisterPublic(r)
	deps.Events.RegisterPublic(r)

	// Caller routes resolve the identity from a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireIdentity(deps.SigningKey, deps.Logger))
		deps.Party.Register(r)
		deps.Election.Register(r)
		deps.Letters.Register(r)
		deps.Rewards.Register(r)
	})

	// Admin routes sit behind the shared token.
	r.Route("/admin", func(r chi.Router) {
		r.Use(admintoken.RequireAdminToken(deps.AdminToken, deps.Logger))
		deps.Party.RegisterAdmin(r)
		deps.Snapshot.RegisterAdmin(r)
		deps.Election.RegisterAdmin(r)
	})

	return r
}
