// Package extract turns a free-form trip request into labelled fields by prompting a
// text generator, and validates that all of them were recovered.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/globemate/globemate/internal/telemetry"
	"github.com/globemate/globemate/internal/textgen"
	"github.com/globemate/globemate/internal/trip"
)

// Label names a field in the generator output.
type Label string

// The six labels requested from the generator, in prompt order.
const (
	LabelFrom      Label = "From"
	LabelTo        Label = "To"
	LabelMode      Label = "Mode"
	LabelAverage   Label = "Average"
	LabelFuelPrice Label = "FuelPrice"
	LabelDays      Label = "Days"
)

// Labels lists every label in prompt order.
var Labels = []Label{LabelFrom, LabelTo, LabelMode, LabelAverage, LabelFuelPrice, LabelDays}

// Fields maps a label to its extracted value. Labels that did not match are absent.
type Fields map[Label]string

// Get returns the value for l and whether it was extracted.
func (f Fields) Get(l Label) (string, bool) {
	v, ok := f[l]
	return v, ok
}

const promptTemplate = `
You are a multilingual AI travel assistant. Parse this message and return:
From:
To:
Mode: (car or bike)
Average: (fuel avg km/l)
FuelPrice: (price per liter)
Days: (trip duration)

User message: %s
`

// Prompt returns the instruction template filled with the user's text.
func Prompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

var patterns = buildPatterns()

// buildPatterns compiles one line-anchored, case-insensitive pattern per label.
// Leading bullets and markdown emphasis around the label are tolerated; numeric
// labels capture only a leading run of digits.
func buildPatterns() map[Label]*regexp.Regexp {
	numeric := map[Label]bool{LabelAverage: true, LabelFuelPrice: true, LabelDays: true}
	out := make(map[Label]*regexp.Regexp, len(Labels))
	for _, l := range Labels {
		value := `(\S.*?)[ \t]*$`
		if numeric[l] {
			value = `(\d+)`
		}
		out[l] = regexp.MustCompile(`(?im)^[ \t]*(?:[-*•>][ \t]*)?[*_]*` + string(l) + `[*_]*[ \t]*:[*_]*[ \t]*` + value)
	}
	return out
}

// Parse extracts the labelled fields from generator output.
func Parse(output string) Fields {
	fields := make(Fields, len(Labels))
	for _, l := range Labels {
		m := patterns[l].FindStringSubmatch(output)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(strings.Trim(m[1], "*_"))
		if v == "" {
			continue
		}
		fields[l] = v
	}
	return fields
}

// Config holds configuration for the Extractor.
type Config struct {
	// Generator produces the labelled text (required).
	Generator textgen.Generator

	// CacheTTL is how long a parse is reused for identical input (default: 10 minutes).
	CacheTTL time.Duration

	// Metrics records cache hits and generator calls (optional).
	Metrics *telemetry.ProviderMetrics

	// Logger for extractor operations.
	Logger zerolog.Logger
}

// Extractor is the Field Extractor. It is safe for concurrent use.
type Extractor struct {
	generator textgen.Generator
	cache     *cache.Cache
	metrics   *telemetry.ProviderMetrics
	logger    zerolog.Logger
}

// NewExtractor creates an Extractor with a memoizing parse cache.
func NewExtractor(cfg Config) *Extractor {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &Extractor{
		generator: cfg.Generator,
		cache:     cache.New(ttl, 2*ttl),
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// Extract returns the best-effort fields for text. Repeated identical input within the
// cache window returns the cached parse without calling the generator.
func (e *Extractor) Extract(ctx context.Context, text string) (Fields, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "extract.Extract")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, trip.NewInvalid("trip request is empty", trip.FieldError{Field: "message", Message: "required"})
	}

	if cached, ok := e.cache.Get(text); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		e.metrics.RecordCacheHit("textgen", "extract")
		return cloneFields(cached.(Fields)), nil
	}
	e.metrics.RecordCacheMiss("textgen", "extract")

	start := time.Now()
	output, err := e.generator.Generate(ctx, Prompt(text))
	e.metrics.RecordRequest("textgen", "extract", time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "text generation failed")
		e.logger.Error().Err(err).Msg("field extraction failed")
		return nil, trip.NewExternal("text generator", err)
	}

	fields := Parse(output)
	span.SetAttributes(attribute.Int("fields.count", len(fields)))
	e.logger.Debug().
		Int("fields", len(fields)).
		Int("output_length", len(output)).
		Msg("fields extracted")

	e.cache.Set(text, cloneFields(fields), cache.DefaultExpiration)
	return fields, nil
}

// Flush drops all memoized parses.
func (e *Extractor) Flush() {
	e.cache.Flush()
}

func cloneFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

const tracerName = "github.com/globemate/globemate/internal/extract"
