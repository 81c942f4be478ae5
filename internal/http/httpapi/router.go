package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"songd/internal/http/handlers"
	"songd/internal/infra"
	"songd/internal/middleware"
)

// NewRouter builds the route tree. The generate endpoint sits behind the API
// key check; status, health and stats are open.
func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger, lookup middleware.CountryLookup) stdhttp.Handler {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestBurst)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger(logger, lookup))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(limiter))

	r.Get("/", app.Health)
	r.Get("/healthz", app.Health)
	r.Get("/stats", app.GetStats)
	r.Get("/status/{job_id}", app.Status)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKey(cfg.APISecret, cfg.APIKeyExpiresAt, nil))
		r.Post("/generate", app.Generate)
	})

	return r
}
