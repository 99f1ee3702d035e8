package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/globemate/globemate/internal/api/models"
)

func TestProblem_Builders(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_test123").
		WithDetail("days must be greater than zero").
		WithInstance("/v1/trips:plan").
		WithCode("INVALID_ARGUMENT").
		WithErrors([]models.FieldError{{Field: "days", Message: "must be greater than zero"}})

	assert.Equal(t, models.ProblemTypeValidation, p.Type)
	assert.Equal(t, "Validation error", p.Title)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "req_test123", p.TraceID)
	assert.Equal(t, "days must be greater than zero", p.Detail)
	assert.Equal(t, "/v1/trips:plan", p.Instance)
	assert.Equal(t, "INVALID_ARGUMENT", p.Code)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "days", p.Errors[0].Field)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewIncompleteExtraction("req_test123", "couldn't extract all travel details", []models.FieldError{
		{Field: "Days", Message: "missing"},
	}).WithInstance("/v1/trips:parse").WithCode("INCOMPLETE_EXTRACTION")

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var result models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, *p, result)
}

func TestProblem_WriteWithoutTraceID(t *testing.T) {
	w := httptest.NewRecorder()
	models.NewNotFound("", "no such route").Write(w)

	assert.Empty(t, w.Header().Get("X-Request-Id"))
	assert.Contains(t, w.Body.String(), `"traceId":""`)
}

func TestProblemConstructors(t *testing.T) {
	tests := []struct {
		name   string
		p      *models.Problem
		typ    string
		status int
	}{
		{"bad request", models.NewBadRequest("r", "d", nil), models.ProblemTypeValidation, http.StatusBadRequest},
		{"incomplete", models.NewIncompleteExtraction("r", "d", nil), models.ProblemTypeIncompleteExtraction, http.StatusUnprocessableEntity},
		{"route not found", models.NewRouteNotFound("r", "d"), models.ProblemTypeRouteNotFound, http.StatusUnprocessableEntity},
		{"not found", models.NewNotFound("r", "d"), models.ProblemTypeNotFound, http.StatusNotFound},
		{"unsupported media", models.NewUnsupportedMediaType("r", "d"), models.ProblemTypeUnsupportedMedia, http.StatusUnsupportedMediaType},
		{"too many", models.NewTooManyRequests("r", "d"), models.ProblemTypeTooManyRequests, http.StatusTooManyRequests},
		{"internal", models.NewInternalError("r", "d"), models.ProblemTypeInternal, http.StatusInternalServerError},
		{"unavailable", models.NewServiceUnavailable("r", "d"), models.ProblemTypeUnavailable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.p.Type)
			assert.Equal(t, tt.status, tt.p.Status)
			assert.Equal(t, "d", tt.p.Detail)
			assert.Equal(t, "r", tt.p.TraceID)
			assert.NotEmpty(t, tt.p.Title)
		})
	}
}

func TestTimestamp_JSON(t *testing.T) {
	loc := time.FixedZone("PKT", 5*60*60)
	ts := models.Timestamp(time.Date(2025, 6, 1, 14, 30, 0, 0, loc))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2025-06-01T09:30:00Z"`, string(data))

	var back models.Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Time().Equal(back.Time()))

	assert.Error(t, json.Unmarshal([]byte(`12`), &back))
	assert.NoError(t, json.Unmarshal([]byte(`null`), &back))
}
