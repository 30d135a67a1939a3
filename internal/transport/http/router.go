// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services, and render; business rules stay in the services.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vaultbridge/internal/platform/metrics"
	"vaultbridge/internal/platform/middleware"
)

// Health reports readiness of the process' dependencies.
type Health interface {
	Healthy(r *http.Request) bool
}

// HealthFunc adapts a function to Health.
type HealthFunc func(r *http.Request) bool

func (f HealthFunc) Healthy(r *http.Request) bool { return f(r) }

// Router bundles everything the HTTP surface needs.
type Router struct {
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	health       Health

	auth     *AuthHandler
	user     *UserHandler
	custody  *CustodyHandler
	card     *CardHandler
	transfer *TransferHandler
}

func NewRouter(
	logger *slog.Logger,
	m *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	health Health,
	auth *AuthHandler,
	user *UserHandler,
	custody *CustodyHandler,
	card *CardHandler,
	transfer *TransferHandler,
) *Router {
	return &Router{
		logger:       logger,
		metrics:      m,
		jwtValidator: jwtValidator,
		health:       health,
		auth:         auth,
		user:         user,
		custody:      custody,
		card:         card,
		transfer:     transfer,
	}
}

// Handler builds the full route tree. Signup and signin are public; every
// /user, /bridge and /card route requires a bearer token.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(rt.metrics))

	r.Get("/healthz", rt.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/auth/signup", rt.auth.handleSignUp)
	r.Post("/auth/signin", rt.auth.handleSignIn)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(rt.jwtValidator, rt.logger))

		r.Get("/user/dashboard", rt.user.handleDashboard)
		r.Post("/user/refresh-kyc", rt.user.handleRefreshKYC)

		r.Post("/bridge/wallet", rt.custody.handleCreateWallet)
		r.Get("/bridge/wallet", rt.custody.handleGetWallet)
		r.Get("/bridge/wallets", rt.custody.handleListWallets)
		r.Post("/bridge/address", rt.custody.handleCreateAddress)
		r.Get("/bridge/address", rt.custody.handleGetAddress)
		r.Get("/bridge/addresses", rt.custody.handleListAddresses)
		r.Post("/bridge/transfer", rt.transfer.handleCreate)
		r.Get("/bridge/transfer/{transferID}", rt.transfer.handleGet)

		r.Post("/card", rt.card.handleIssue)
		r.Get("/card", rt.card.handleGet)
	})

	return r
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if rt.health != nil && !rt.health.Healthy(r) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
