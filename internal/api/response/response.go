// Package response writes JSON bodies and RFC 7807 problems for the API handlers.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/globemate/globemate/internal/api/middleware"
	"github.com/globemate/globemate/internal/api/models"
	"github.com/globemate/globemate/internal/trip"
)

// JSON writes data as a JSON body with the given status code.
// Includes X-Request-Id header for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set(middleware.HeaderRequestID, requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Text writes a plain body with the given media type.
func Text(w http.ResponseWriter, r *http.Request, status int, contentType string, body []byte) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set(middleware.HeaderRequestID, requestID)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes problem for the current request.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// BadRequest writes a 400 problem.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	Error(w, r, models.NewBadRequest(middleware.GetRequestID(r.Context()), detail, errors))
}

// NotFound writes a 404 problem.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotFound(middleware.GetRequestID(r.Context()), detail))
}

// PlanningError writes the problem matching a planning failure:
// IncompleteExtraction and RouteNotFound are 422, InvalidArgument is 400,
// ExternalServiceError is 503 and anything else is 500.
func PlanningError(w http.ResponseWriter, r *http.Request, err error) {
	Error(w, r, ProblemFor(middleware.GetRequestID(r.Context()), err))
}

// ProblemFor maps err to a problem. Causes of internal errors are not exposed.
func ProblemFor(traceID string, err error) *models.Problem {
	status := trip.StatusOf(err)

	var (
		detail string
		fields []models.FieldError
	)
	var tripErr *trip.Error
	if errors.As(err, &tripErr) {
		detail = tripErr.Message
		for _, f := range tripErr.Fields {
			fields = append(fields, models.FieldError{Field: f.Field, Message: f.Message})
		}
	}

	var p *models.Problem
	switch status {
	case trip.StatusIncompleteExtraction:
		p = models.NewIncompleteExtraction(traceID, detail, fields)
	case trip.StatusInvalidArgument:
		p = models.NewBadRequest(traceID, detail, fields)
	case trip.StatusRouteNotFound:
		p = models.NewRouteNotFound(traceID, detail)
	case trip.StatusExternalServiceError:
		p = models.NewServiceUnavailable(traceID, detail)
	default:
		p = models.NewInternalError(traceID, "an unexpected error occurred")
	}
	return p.WithCode(string(status))
}
