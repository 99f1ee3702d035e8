// Package app wires configuration, providers and services into a runnable GlobeMate
// process. Every long-lived dependency is built once here and injected.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/globemate/globemate/internal/api"
	"github.com/globemate/globemate/internal/api/middleware"
	"github.com/globemate/globemate/internal/config"
	"github.com/globemate/globemate/internal/expense"
	"github.com/globemate/globemate/internal/extract"
	"github.com/globemate/globemate/internal/planner"
	"github.com/globemate/globemate/internal/provider/resilience"
	"github.com/globemate/globemate/internal/recommend"
	"github.com/globemate/globemate/internal/report"
	"github.com/globemate/globemate/internal/route"
	"github.com/globemate/globemate/internal/route/nominatim"
	"github.com/globemate/globemate/internal/telemetry"
	"github.com/globemate/globemate/internal/textgen"
	"github.com/globemate/globemate/internal/textgen/gemini"
)

// ServiceName identifies the process in logs and telemetry.
const ServiceName = "globemate"

// Options controls how the application is assembled.
type Options struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Version   string
	BuildTime string

	// Generator replaces the Gemini client (optional, for tests).
	Generator textgen.Generator

	// Geocoder replaces the Nominatim client (optional, for tests).
	Geocoder route.Geocoder
}

// App holds the assembled services.
type App struct {
	Config          *config.Config
	Logger          zerolog.Logger
	Telemetry       *telemetry.Provider
	Registry        *resilience.Registry
	Routes          *route.Service
	Recommendations *recommend.Service
	Planner         *planner.Planner
	Renderer        *report.Renderer

	version   string
	buildTime string
}

// NewLogger returns the process logger: JSON lines tagged with service and version.
func NewLogger(w io.Writer, level zerolog.Level, version string) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", ServiceName).
		Str("version", version).
		Logger()
}

// New builds the application. Call Shutdown when done.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	log := opts.Logger

	tel, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    ServiceName,
		ServiceVersion: opts.Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	if cfg.Telemetry.Enabled {
		log.Info().Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).Msg("OpenTelemetry initialized")
	}

	registry := resilience.NewRegistry()

	generator := opts.Generator
	if generator == nil {
		if cfg.Gemini.APIKey == "" {
			_ = tel.Shutdown(ctx)
			return nil, config.ErrMissingAPIKey
		}
		client, err := gemini.NewClient(ctx, gemini.ClientConfig{
			APIKey:     cfg.Gemini.APIKey,
			Model:      cfg.Gemini.Model,
			Timeout:    cfg.Provider.Timeout,
			MaxRetries: cfg.Provider.MaxRetries,
			Registry:   registry,
			Logger:     log,
		})
		if err != nil {
			_ = tel.Shutdown(ctx)
			return nil, fmt.Errorf("creating text generator: %w", err)
		}
		generator = client
	}

	geocoder := opts.Geocoder
	if geocoder == nil {
		geocoder = nominatim.NewClient(nominatim.ClientConfig{
			BaseURL:           cfg.Nominatim.BaseURL,
			UserAgent:         cfg.Nominatim.UserAgent,
			Timeout:           cfg.Provider.Timeout,
			MaxRetries:        cfg.Provider.MaxRetries,
			RequestsPerSecond: cfg.Nominatim.RequestsPerSecond,
			Registry:          registry,
			Logger:            log,
		})
	}

	calculator, err := expense.NewCalculator(expense.Rates{
		LodgingPerNight: cfg.Rates.LodgingPerNight,
		FoodPerDay:      cfg.Rates.FoodPerDay,
	})
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("creating expense calculator: %w", err)
	}

	routes := route.NewService(route.ServiceConfig{
		Geocoder: geocoder,
		Logger:   log,
		CacheTTL: cfg.Cache.GeocodeTTL,
		Metrics:  tel.Metrics,
	})
	recommendations := recommend.NewService(recommend.Config{
		Generator: generator,
		CacheTTL:  cfg.Cache.HotelTTL,
		Metrics:   tel.Metrics,
		Logger:    log,
	})
	extractor := extract.NewExtractor(extract.Config{
		Generator: generator,
		CacheTTL:  cfg.Cache.ParseTTL,
		Metrics:   tel.Metrics,
		Logger:    log,
	})

	p := planner.New(planner.Config{
		Extractor:       extractor,
		Routes:          routes,
		Expenses:        calculator,
		Recommendations: recommendations,
		Currency:        cfg.Currency,
		Logger:          log,
	})

	log.Debug().
		Str("model", cfg.Gemini.Model).
		Str("geocoder", geocoder.Name()).
		Str("currency", p.Currency()).
		Msg("services initialized")

	return &App{
		Config:          cfg,
		Logger:          log,
		Telemetry:       tel,
		Registry:        registry,
		Routes:          routes,
		Recommendations: recommendations,
		Planner:         p,
		Renderer:        report.NewRenderer(p.Currency()),
		version:         opts.Version,
		buildTime:       opts.BuildTime,
	}, nil
}

// Router returns the HTTP API handler.
func (a *App) Router() (http.Handler, error) {
	metrics, err := middleware.NewMetrics()
	if err != nil {
		return nil, fmt.Errorf("creating HTTP metrics: %w", err)
	}
	return api.NewRouter(api.RouterConfig{
		Version:            a.version,
		BuildTime:          a.buildTime,
		Logger:             a.Logger,
		Metrics:            metrics,
		Planner:            a.Planner,
		Renderer:           a.Renderer,
		Recommendations:    a.Recommendations,
		Registry:           a.Registry,
		GeocodeCache:       a.Routes,
		CORSAllowedOrigins: a.Config.HTTP.CORSAllowedOrigins,
		RateLimit:          middleware.PerMinute(a.Config.HTTP.RateLimitPerMinute, middleware.StandardRateLimit),
		PlanRateLimit:      middleware.PerMinute(a.Config.HTTP.PlanLimitPerMinute, middleware.ExpensiveRateLimit),
	}), nil
}

// Serve runs the HTTP API until ctx is cancelled, then drains in-flight requests
// for up to the configured grace period.
func (a *App) Serve(ctx context.Context) error {
	router, err := a.Router()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + a.Config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Planning chains two model calls and two geocodes, each with retries.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serving HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info().Msg("shutting down server")
	grace := a.Config.HTTP.ShutdownGracePeriod
	if grace <= 0 {
		grace = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.Logger.Info().Msg("server stopped")
	return nil
}

// Shutdown flushes telemetry.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Telemetry.Shutdown(ctx)
}
