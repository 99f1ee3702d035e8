package handler

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/globemate/globemate/internal/api/middleware"
	"github.com/globemate/globemate/internal/api/models"
	"github.com/globemate/globemate/internal/api/response"
	"github.com/globemate/globemate/internal/extract"
	"github.com/globemate/globemate/internal/trip"
)

// Planner turns trip requests into plans.
type Planner interface {
	Parse(ctx context.Context, text string) (trip.ParsedFields, error)
	Plan(ctx context.Context, text string) (*trip.Plan, error)
	PlanFields(ctx context.Context, fields trip.ParsedFields) (*trip.Plan, error)
	Currency() string
}

// PlanRenderer renders a plan as a Markdown report.
type PlanRenderer interface {
	Plan(w io.Writer, plan *trip.Plan) error
}

const contentTypeMarkdown = "text/markdown; charset=utf-8"

// TripHandler handles the parse and plan endpoints.
type TripHandler struct {
	planner  Planner
	renderer PlanRenderer
	log      zerolog.Logger
}

// NewTripHandler creates a TripHandler. A nil renderer disables Markdown responses.
func NewTripHandler(planner Planner, renderer PlanRenderer, log zerolog.Logger) *TripHandler {
	return &TripHandler{planner: planner, renderer: renderer, log: log}
}

// ParseTrip handles POST /v1/trips:parse - detect trip details for confirmation.
func (h *TripHandler) ParseTrip(w http.ResponseWriter, r *http.Request) {
	var req models.ParseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		response.BadRequest(w, r, "message is required", []models.FieldError{
			{Field: "message", Message: "required", Code: "REQUIRED"},
		})
		return
	}

	fields, err := h.planner.Parse(r.Context(), req.Message)
	if err != nil {
		h.fail(w, r, "parse", err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.ParseResponse{
		Status:   trip.StatusOK,
		Fields:   fields,
		Currency: h.planner.Currency(),
	})
}

// PlanTrip handles POST /v1/trips:plan - build a full plan from a message or from
// confirmed trip details. Clients accepting text/markdown receive the report.
func (h *TripHandler) PlanTrip(w http.ResponseWriter, r *http.Request) {
	var req models.PlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	hasMessage := strings.TrimSpace(req.Message) != ""
	if hasMessage == (req.Trip != nil) {
		response.BadRequest(w, r, "exactly one of message or trip is required", []models.FieldError{
			{Field: "message", Message: "required if trip is not provided"},
			{Field: "trip", Message: "required if message is not provided"},
		})
		return
	}

	var (
		plan *trip.Plan
		err  error
	)
	if hasMessage {
		plan, err = h.planner.Plan(r.Context(), req.Message)
	} else {
		plan, err = h.planner.PlanFields(r.Context(), tripFields(req.Trip))
	}
	if err != nil {
		h.fail(w, r, "plan", err)
		return
	}

	if h.renderer != nil && acceptsMarkdown(r) {
		var buf bytes.Buffer
		if err := h.renderer.Plan(&buf, plan); err != nil {
			h.fail(w, r, "render", err)
			return
		}
		response.Text(w, r, http.StatusOK, contentTypeMarkdown, buf.Bytes())
		return
	}
	response.JSON(w, r, http.StatusOK, plan)
}

func (h *TripHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := trip.StatusOf(err)
	event := h.log.Warn()
	if status == trip.StatusInternal || status == trip.StatusExternalServiceError {
		event = h.log.Error()
	}
	event.Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("op", op).
		Str("status", string(status)).
		Msg("trip request failed")
	response.PlanningError(w, r, err)
}

func tripFields(in *models.TripInput) trip.ParsedFields {
	return trip.ParsedFields{
		From:        strings.TrimSpace(in.From),
		To:          strings.TrimSpace(in.To),
		Mode:        extract.NormalizeMode(in.Mode),
		FuelEconomy: in.FuelEconomy,
		FuelPrice:   in.FuelPrice,
		Days:        in.Days,
	}
}

// acceptsMarkdown reports whether the Accept header lists text/markdown.
func acceptsMarkdown(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "text/markdown" {
			return true
		}
	}
	return false
}
