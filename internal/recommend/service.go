package recommend

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/globemate/globemate/internal/telemetry"
	"github.com/globemate/globemate/internal/textgen"
	"github.com/globemate/globemate/internal/trip"
)

const tracerName = "github.com/globemate/globemate/internal/recommend"

// Placeholder values used when no hotel could be found or suggested.
const (
	PlaceholderPrice  = 3000
	PlaceholderRating = 4.0
)

// Config holds configuration for the recommendation service.
type Config struct {
	// Catalog is the curated table (optional, defaults to DefaultCatalog).
	Catalog *Catalog

	// Generator suggests hotels for destinations outside the catalog (optional).
	// Without one, unknown destinations get the placeholder hotel.
	Generator textgen.Generator

	// CacheTTL is how long generated suggestions are reused (default: 1 hour).
	CacheTTL time.Duration

	// Metrics records suggestion calls and cache behaviour (optional).
	Metrics *telemetry.ProviderMetrics

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service answers destination lookups. It is safe for concurrent use.
type Service struct {
	catalog   *Catalog
	generator textgen.Generator
	cache     *cache.Cache
	metrics   *telemetry.ProviderMetrics
	logger    zerolog.Logger
}

// NewService creates a recommendation service.
func NewService(cfg Config) *Service {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Service{
		catalog:   catalog,
		generator: cfg.Generator,
		cache:     cache.New(ttl, 2*ttl),
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// Lookup returns hotels, foods and attractions for destination. The three lookups run
// concurrently; none of them fails for an unknown destination.
func (s *Service) Lookup(ctx context.Context, destination string) (trip.Recommendations, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "recommend.Lookup")
	defer span.End()

	if strings.TrimSpace(destination) == "" {
		return trip.Recommendations{}, trip.NewInvalid("destination is required",
			trip.FieldError{Field: "destination", Message: "required"})
	}
	span.SetAttributes(attribute.String("destination", destination))

	rec := trip.Recommendations{Destination: strings.TrimSpace(destination)}
	var g errgroup.Group
	g.Go(func() error {
		rec.Hotels = s.Hotels(ctx, destination)
		return nil
	})
	g.Go(func() error {
		rec.Foods = s.Foods(destination)
		return nil
	})
	g.Go(func() error {
		rec.Attractions = s.Attractions(destination)
		return nil
	})
	_ = g.Wait() //nolint:errcheck // lookups never fail

	span.SetAttributes(
		attribute.Int("hotels.count", len(rec.Hotels)),
		attribute.Int("foods.count", len(rec.Foods)),
		attribute.Int("attractions.count", len(rec.Attractions)),
	)
	return rec, nil
}

// Foods returns the curated dishes for destination, or an empty list.
func (s *Service) Foods(destination string) []string {
	return s.catalog.Foods(destination)
}

// Attractions returns the curated attractions for destination, or an empty list.
func (s *Service) Attractions(destination string) []string {
	return s.catalog.Attractions(destination)
}

// Hotels returns the curated hotels for destination. Destinations outside the catalog
// are sent to the generator; if that yields nothing usable a single placeholder is
// returned, so the list is never empty.
func (s *Service) Hotels(ctx context.Context, destination string) []trip.Hotel {
	if hotels, ok := s.catalog.Hotels(destination); ok {
		return hotels
	}

	key := normalize(destination)
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.RecordCacheHit("textgen", "hotels")
		return append([]trip.Hotel(nil), cached.([]trip.Hotel)...)
	}
	s.metrics.RecordCacheMiss("textgen", "hotels")

	hotels := s.suggestHotels(ctx, destination)
	if len(hotels) == 0 {
		return []trip.Hotel{Placeholder(destination)}
	}
	s.cache.Set(key, append([]trip.Hotel(nil), hotels...), cache.DefaultExpiration)
	return hotels
}

func (s *Service) suggestHotels(ctx context.Context, destination string) []trip.Hotel {
	if s.generator == nil {
		return nil
	}

	start := time.Now()
	output, err := s.generator.Generate(ctx, HotelPrompt(destination))
	s.metrics.RecordRequest("textgen", "hotels", time.Since(start), err)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("destination", destination).
			Msg("hotel suggestion failed, using placeholder")
		return nil
	}

	hotels := ParseHotels(output)
	s.logger.Debug().
		Str("destination", destination).
		Int("hotels", len(hotels)).
		Msg("hotels suggested")
	return hotels
}

// HotelPrompt asks for two affordable hotels in a fixed comma-separated format.
func HotelPrompt(destination string) string {
	return fmt.Sprintf("Suggest 2 affordable hotels in %s with approx prices (in PKR) and ratings. "+
		"Format as: Name, Price, Rating. Example: Hotel One, 4000, 4.5", TitleCase(destination))
}

var (
	listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)
	nonDigits  = regexp.MustCompile(`\D`)
)

// ParseHotels reads "Name, Price, Rating" lines. Lines without exactly three
// comma-separated parts, without any digit in the price, or with a non-numeric
// rating are skipped.
func ParseHotels(output string) []trip.Hotel {
	var hotels []trip.Hotel
	for _, line := range strings.Split(output, "\n") {
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			continue
		}

		name := strings.Trim(strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(parts[0]), "")), "*_")
		if name == "" {
			continue
		}
		price, err := strconv.Atoi(nonDigits.ReplaceAllString(parts[1], ""))
		if err != nil {
			continue
		}
		rating, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			continue
		}
		hotels = append(hotels, trip.Hotel{Name: name, Price: price, Rating: rating})
	}
	return hotels
}

// Placeholder is the hotel reported when nothing better is known.
func Placeholder(destination string) trip.Hotel {
	return trip.Hotel{
		Name:   TitleCase(destination) + " Guest House",
		Price:  PlaceholderPrice,
		Rating: PlaceholderRating,
	}
}

// TitleCase capitalises each word of a trimmed destination name.
func TitleCase(destination string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(destination))
}
