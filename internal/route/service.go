package route

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/geodesic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/globemate/globemate/internal/telemetry"
	"github.com/globemate/globemate/internal/trip"
	"github.com/globemate/globemate/pkg/polyline"
)

const tracerName = "github.com/globemate/globemate/internal/route"

// ServiceConfig holds configuration for the route service.
type ServiceConfig struct {
	// Geocoder resolves place names.
	Geocoder Geocoder

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache resolved places (default: 24 hours).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale places on provider errors (default: 7 days).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often to clean up expired entries (default: 1 hour).
	CleanupInterval time.Duration

	// FetchTimeout bounds a provider lookup shared by concurrent callers (default: 1 minute).
	FetchTimeout time.Duration

	// Metrics records cache behaviour (optional).
	Metrics *telemetry.ProviderMetrics
}

// Service resolves city pairs with a place cache in front of the geocoder.
type Service struct {
	geocoder        Geocoder
	logger          zerolog.Logger
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
	cleanupInterval time.Duration
	fetchTimeout    time.Duration
	metrics         *telemetry.ProviderMetrics

	inflight singleflight.Group

	mu          sync.RWMutex
	cache       map[string]*cachedPlace
	lastCleanup time.Time
}

type cachedPlace struct {
	place     *trip.Place
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new route service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 7 * 24 * time.Hour
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = time.Hour
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = time.Minute
	}

	return &Service{
		geocoder:        cfg.Geocoder,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		cleanupInterval: cleanupInterval,
		fetchTimeout:    fetchTimeout,
		metrics:         cfg.Metrics,
		cache:           make(map[string]*cachedPlace),
	}
}

// Resolve geocodes both places and returns the truncated geodesic distance between them.
//
// The two lookups run concurrently. When both fail, the origin's error is reported, so the
// outcome matches resolving them one after the other.
func (s *Service) Resolve(ctx context.Context, from, to string) (*trip.Route, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "route.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("route.from", from), attribute.String("route.to", to))

	var (
		fromPlace, toPlace *trip.Place
		fromErr, toErr     error
		g                  errgroup.Group
	)
	g.Go(func() error {
		fromPlace, fromErr = s.Geocode(ctx, from)
		return fromErr
	})
	g.Go(func() error {
		toPlace, toErr = s.Geocode(ctx, to)
		return toErr
	})
	_ = g.Wait() //nolint:errcheck // both errors are inspected in order below

	for _, err := range []error{fromErr, toErr} {
		if err == nil {
			continue
		}
		span.RecordError(err)
		if errors.Is(err, ErrPlaceNotFound) {
			span.SetStatus(codes.Error, "place not found")
			return nil, trip.NewRouteNotFound(from, to, err)
		}
		span.SetStatus(codes.Error, "geocoding failed")
		return nil, trip.NewExternal("geocoding service", err)
	}

	km := Kilometers(fromPlace.Coordinate, toPlace.Coordinate)
	span.SetAttributes(attribute.Int("route.km", km))

	return &trip.Route{
		From:       *fromPlace,
		To:         *toPlace,
		Kilometers: km,
		Geometry: polyline.Encode([]polyline.Point{
			{Lat: fromPlace.Coordinate.Lat, Lon: fromPlace.Coordinate.Lon},
			{Lat: toPlace.Coordinate.Lat, Lon: toPlace.Coordinate.Lon},
		}),
	}, nil
}

// Kilometers returns the WGS-84 geodesic distance between a and b, truncated to whole kilometres.
func Kilometers(a, b trip.Coordinate) int {
	var meters float64
	geodesic.WGS84.Inverse(a.Lat, a.Lon, b.Lat, b.Lon, &meters, nil, nil)
	return int(meters / 1000)
}

// Geocode resolves a single place, using cached data when available and not expired.
// Concurrent lookups of the same place share one provider call, which is not cancelled
// when one of the callers goes away.
func (s *Service) Geocode(ctx context.Context, query string) (*trip.Place, error) {
	key := cacheKey(query)
	if key == "" {
		return nil, &Error{
			Provider: s.geocoder.Name(),
			Code:     "EMPTY_QUERY",
			Message:  "place name is empty",
			Err:      ErrPlaceNotFound,
		}
	}

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.metrics.RecordCacheHit(s.geocoder.Name(), "geocode")
		s.logger.Debug().
			Str("cache_key", key).
			Msg("cache hit for place")
		return withQuery(cached.place, query), nil
	}
	s.mu.RUnlock()
	s.metrics.RecordCacheMiss(s.geocoder.Name(), "geocode")

	ch := s.inflight.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return s.fetchPlace(fetchCtx, query, key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return withQuery(res.Val.(*trip.Place), query), nil
	}
}

// fetchPlace calls the geocoder and updates the cache.
func (s *Service) fetchPlace(ctx context.Context, query, key string) (*trip.Place, error) {
	s.logger.Debug().
		Str("query", query).
		Str("provider", s.geocoder.Name()).
		Msg("geocoding place")

	start := time.Now()
	place, err := s.geocoder.Geocode(ctx, query)
	s.metrics.RecordRequest(s.geocoder.Name(), "geocode", time.Since(start), err)
	if err != nil {
		// A definite "no such place" is an answer, not an outage.
		if errors.Is(err, ErrPlaceNotFound) {
			s.logger.Info().Str("query", query).Msg("place not found")
			return nil, err
		}

		s.logger.Error().Err(err).
			Str("query", query).
			Msg("failed to geocode place")

		s.mu.RLock()
		cached, ok := s.cache[key]
		s.mu.RUnlock()
		if ok && time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.metrics.RecordStaleServed(s.geocoder.Name(), "geocode")
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Str("cache_key", key).
				Msg("serving stale place due to provider error")
			return cached.place, nil
		}

		return nil, err
	}

	now := time.Now()
	s.mu.Lock()
	s.cache[key] = &cachedPlace{
		place:     place,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}
	s.cleanupIfNeeded(now)
	s.mu.Unlock()

	s.logger.Debug().
		Str("cache_key", key).
		Str("display_name", place.DisplayName).
		Msg("cached place")

	return place, nil
}

// cleanupIfNeeded removes entries past the stale-if-error window. Callers hold s.mu.
func (s *Service) cleanupIfNeeded(now time.Time) {
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := 0
	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}
	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired place cache entries")
	}
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	stats := CacheStats{TotalEntries: len(s.cache)}
	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			stats.FreshEntries++
		} else if now.Before(c.fetchedAt.Add(s.staleIfErrorTTL)) {
			stats.StaleEntries++
		}
	}
	return stats
}

// CacheStats contains cache statistics.
type CacheStats struct {
	TotalEntries int `json:"totalEntries"`
	FreshEntries int `json:"freshEntries"`
	StaleEntries int `json:"staleEntries"`
}

// ProviderName returns the name of the underlying geocoder.
func (s *Service) ProviderName() string {
	return s.geocoder.Name()
}

// cacheKey normalises a place name: case-folded, trimmed, inner whitespace collapsed.
func cacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// withQuery returns a copy of p carrying the caller's spelling of the query.
func withQuery(p *trip.Place, query string) *trip.Place {
	out := *p
	out.Query = query
	return &out
}
