// Package http assembles the chi router: middleware chain, public routes,
// authenticated routes, and the admin group.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attest/internal/activity"
	authhandler "attest/internal/auth/handler"
	credentialhandler "attest/internal/credential/handler"
	identityhandler "attest/internal/identity/handler"
	platformmetrics "attest/internal/platform/metrics"
	authmw "attest/pkg/platform/middleware/auth"
	"attest/pkg/platform/middleware/metadata"
	"attest/pkg/platform/middleware/requestid"
	"attest/pkg/platform/middleware/requesttime"
)

// Handlers groups the module handlers the router mounts.
type Handlers struct {
	Auth       *authhandler.Handler
	Identity   *identityhandler.Handler
	Credential *credentialhandler.Handler
	Activity   *activity.Handler
}

// New assembles the full router.
func New(h Handlers, validator authmw.TokenValidator, httpMetrics *platformmetrics.HTTP, healthcheck http.HandlerFunc, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
	}

	// Public surface: registration, login, the anonymous share-link verify,
	// and operational endpoints.
	h.Auth.RegisterPublic(r)
	h.Credential.RegisterPublic(r)
	r.Get("/healthz", healthcheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(validator, logger))

		h.Auth.Register(r)
		h.Identity.Register(r)
		h.Credential.Register(r)
		h.Activity.Register(r)

		// Admin portal: same session mechanism plus the admin role claim.
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAdmin(logger))
			h.Credential.RegisterAdmin(r)
		})
	})

	return r
}
