// Package api assembles the GlobeMate HTTP API.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/globemate/globemate/internal/api/handler"
	"github.com/globemate/globemate/internal/api/middleware"
	"github.com/globemate/globemate/internal/api/response"
	"github.com/globemate/globemate/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	Metrics        *middleware.Metrics
	TracerProvider trace.TracerProvider

	Planner         handler.Planner
	Renderer        handler.PlanRenderer
	Recommendations handler.RecommendationLookup
	Registry        *resilience.Registry
	GeocodeCache    handler.GeocodeCache

	CORSAllowedOrigins []string
	RateLimit          middleware.RateLimitConfig // default: StandardRateLimit
	PlanRateLimit      middleware.RateLimitConfig // default: ExpensiveRateLimit
}

// NewRouter creates a chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.RateLimit.RequestLimit <= 0 {
		cfg.RateLimit = middleware.StandardRateLimit
	}
	if cfg.PlanRateLimit.RequestLimit <= 0 {
		cfg.PlanRateLimit = middleware.ExpensiveRateLimit
	}

	r := chi.NewRouter()

	// Order matters: the request ID must exist before anything logs or traces.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(cfg.TracerProvider))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.GeocodeCache)
	tripHandler := handler.NewTripHandler(cfg.Planner, cfg.Renderer, cfg.Logger)
	destinationHandler := handler.NewDestinationHandler(cfg.Recommendations)

	standardRateLimit := middleware.RateLimitByIP(cfg.RateLimit)
	// Planning calls the text generator and the geocoder on every request.
	expensiveRateLimit := middleware.RateLimitByIP(cfg.PlanRateLimit)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, req, "no resource at "+req.URL.Path)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireJSON)
			r.With(standardRateLimit).Post("/trips:parse", tripHandler.ParseTrip)
			r.With(expensiveRateLimit).Post("/trips:plan", tripHandler.PlanTrip)
		})

		r.With(standardRateLimit).Get("/destinations/{destination}/recommendations", destinationHandler.GetRecommendations)
	})

	return r
}
