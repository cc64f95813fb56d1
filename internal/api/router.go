package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/db8labs/db8-agent/docs/swagger" // registers the OpenAPI doc
	"github.com/db8labs/db8-agent/internal/auth"
	"github.com/db8labs/db8-agent/internal/listing"
	"github.com/db8labs/db8-agent/internal/logging"
	"github.com/db8labs/db8-agent/internal/store"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Deps holds all dependencies required to build the router.
type Deps struct {
	DB         Pinger
	Cache      Pinger // optional
	Users      store.UserStoreIface
	Properties store.PropertyStoreIface
	Listings   *listing.Service
	Account    *auth.Middleware

	// RateLimitRequests per RateLimitWindow per client IP on the API routes.
	// Zero disables rate limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter builds the HTTP handler for the whole service.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)

	svc := &serviceHandler{db: deps.DB, cache: deps.Cache}
	r.Get("/", svc.Status)
	r.Get("/health", svc.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		if deps.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(deps.RateLimitRequests, deps.RateLimitWindow))
		}
		r.Use(deps.Account.RequireAccount)

		r.Get("/me", me)
		registerPropertyRoutes(r, deps.Properties, deps.Listings)
		registerCaptionRoutes(r, deps.Listings)
		registerAdminRoutes(r, deps.Listings)
	})

	return r
}

// me returns the current account.
//
// @Summary      Current account
// @Description  Returns the single configured account with its plan and remaining credits.
// @Tags         Account
// @Produce      json
// @Success      200  {object}  AccountResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /me [get]
func me(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, r, http.StatusInternalServerError, "account unavailable", "INTERNAL_ERROR")
		return
	}
	writeJSON(w, r, http.StatusOK, AccountResponse{
		ID:               u.ID,
		Email:            u.Email,
		Plan:             u.Plan,
		CreditsRemaining: u.CreditsRemaining,
		CreatedAt:        u.CreatedAt,
	})
}
