// Package planner chains extraction, routing, expense estimation and recommendation
// lookup into a single trip plan.
package planner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/globemate/globemate/internal/expense"
	"github.com/globemate/globemate/internal/extract"
	"github.com/globemate/globemate/internal/trip"
)

const tracerName = "github.com/globemate/globemate/internal/planner"

// DefaultCurrency labels amounts when none is configured.
const DefaultCurrency = "Rs."

// FieldExtractor turns free text into labelled fields.
type FieldExtractor interface {
	Extract(ctx context.Context, text string) (extract.Fields, error)
}

// RouteResolver resolves a city pair to a route.
type RouteResolver interface {
	Resolve(ctx context.Context, from, to string) (*trip.Route, error)
}

// ExpenseCalculator estimates trip costs.
type ExpenseCalculator interface {
	Calculate(in expense.Input) (trip.ExpenseBreakdown, error)
}

// RecommendationLookup finds hotels, food and attractions for a destination.
type RecommendationLookup interface {
	Lookup(ctx context.Context, destination string) (trip.Recommendations, error)
}

// Config holds the planner's collaborators.
type Config struct {
	Extractor       FieldExtractor
	Routes          RouteResolver
	Expenses        ExpenseCalculator
	Recommendations RecommendationLookup

	// Currency labels every amount in the plan (default: "Rs.").
	Currency string

	// Now returns the current time (optional, for tests).
	Now func() time.Time

	// TracerProvider creates the planner's spans (optional, defaults to the global provider).
	TracerProvider trace.TracerProvider

	Logger zerolog.Logger
}

// Planner produces trip plans. It holds no per-request state.
type Planner struct {
	extractor       FieldExtractor
	routes          RouteResolver
	expenses        ExpenseCalculator
	recommendations RecommendationLookup
	currency        string
	now             func() time.Time
	tracer          trace.Tracer
	logger          zerolog.Logger
}

// New creates a Planner.
func New(cfg Config) *Planner {
	currency := cfg.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	expenses := cfg.Expenses
	if expenses == nil {
		expenses = &expense.Calculator{}
	}
	return &Planner{
		extractor:       cfg.Extractor,
		routes:          cfg.Routes,
		expenses:        expenses,
		recommendations: cfg.Recommendations,
		currency:        currency,
		now:             now,
		tracer:          tp.Tracer(tracerName),
		logger:          cfg.Logger,
	}
}

// Currency returns the currency label used in plans.
func (p *Planner) Currency() string {
	return p.currency
}

// Parse extracts and validates the six trip fields from text. Nothing beyond the text
// generator is called.
func (p *Planner) Parse(ctx context.Context, text string) (trip.ParsedFields, error) {
	ctx, span := p.tracer.Start(ctx, "planner.Parse")
	defer span.End()

	fields, err := p.extractor.Extract(ctx, text)
	if err != nil {
		return trip.ParsedFields{}, p.fail(span, "extract", err)
	}

	parsed, err := extract.Complete(fields)
	if err != nil {
		return trip.ParsedFields{}, p.fail(span, "complete", err)
	}

	span.SetAttributes(
		attribute.String("trip.from", parsed.From),
		attribute.String("trip.to", parsed.To),
		attribute.String("trip.mode", string(parsed.Mode)),
		attribute.Int("trip.days", parsed.Days),
	)
	return parsed, nil
}

// Plan parses text and builds the full plan.
func (p *Planner) Plan(ctx context.Context, text string) (*trip.Plan, error) {
	ctx, span := p.tracer.Start(ctx, "planner.Plan")
	defer span.End()

	parsed, err := p.Parse(ctx, text)
	if err != nil {
		span.SetStatus(codes.Error, string(trip.StatusOf(err)))
		return nil, err
	}
	plan, err := p.PlanFields(ctx, parsed)
	if err != nil {
		span.SetStatus(codes.Error, string(trip.StatusOf(err)))
		return nil, err
	}
	return plan, nil
}

// PlanFields builds the plan for already validated fields: route, then expenses, then
// recommendations. A route failure stops the pipeline before the later steps run.
func (p *Planner) PlanFields(ctx context.Context, fields trip.ParsedFields) (*trip.Plan, error) {
	ctx, span := p.tracer.Start(ctx, "planner.PlanFields")
	defer span.End()

	if err := extract.Validate(fields); err != nil {
		return nil, p.fail(span, "validate", err)
	}
	if fields.Mode == "" {
		fields.Mode = trip.ModeUnknown
	}

	start := time.Now()

	route, err := p.routes.Resolve(ctx, fields.From, fields.To)
	if err != nil {
		return nil, p.fail(span, "route", err)
	}

	expenses, err := p.expenses.Calculate(expense.Input{
		DistanceKm:  route.Kilometers,
		Days:        fields.Days,
		FuelEconomy: fields.FuelEconomy,
		FuelPrice:   fields.FuelPrice,
	})
	if err != nil {
		return nil, p.fail(span, "expense", err)
	}

	recs, err := p.recommendations.Lookup(ctx, fields.To)
	if err != nil {
		return nil, p.fail(span, "recommend", err)
	}

	plan := &trip.Plan{
		ID:              uuid.NewString(),
		Status:          trip.StatusOK,
		Fields:          fields,
		Route:           *route,
		Expenses:        expenses,
		Recommendations: recs,
		Currency:        p.currency,
		GeneratedAt:     p.now().UTC(),
	}

	span.SetAttributes(
		attribute.String("plan.id", plan.ID),
		attribute.Int("route.km", route.Kilometers),
		attribute.Float64("expenses.total", expenses.TotalCost),
	)
	p.logger.Info().
		Str("plan_id", plan.ID).
		Str("from", fields.From).
		Str("to", fields.To).
		Int("km", route.Kilometers).
		Float64("total_cost", expenses.TotalCost).
		Dur("duration", time.Since(start)).
		Msg("trip planned")

	return plan, nil
}

// fail records err on span and returns it as a *trip.Error.
func (p *Planner) fail(span trace.Span, step string, err error) error {
	var tripErr *trip.Error
	if !errors.As(err, &tripErr) {
		err = &trip.Error{Message: step + " failed", Cause: err}
	}
	status := trip.StatusOf(err)

	span.RecordError(err)
	span.SetStatus(codes.Error, string(status))
	span.SetAttributes(attribute.String("planner.failed_step", step), attribute.String("planner.status", string(status)))

	event := p.logger.Warn()
	if status == trip.StatusInternal || status == trip.StatusExternalServiceError {
		event = p.logger.Error()
	}
	event.Err(err).
		Str("step", step).
		Str("status", string(status)).
		Msg("trip planning stopped")
	return err
}
