package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/globemate/globemate/internal/api/response"
	"github.com/globemate/globemate/internal/trip"
)

// RecommendationLookup finds hotels, food and attractions for a destination.
type RecommendationLookup interface {
	Lookup(ctx context.Context, destination string) (trip.Recommendations, error)
}

// DestinationHandler handles destination endpoints.
type DestinationHandler struct {
	recommendations RecommendationLookup
}

// NewDestinationHandler creates a DestinationHandler.
func NewDestinationHandler(recommendations RecommendationLookup) *DestinationHandler {
	return &DestinationHandler{recommendations: recommendations}
}

// GetRecommendations handles GET /v1/destinations/{destination}/recommendations.
func (h *DestinationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	destination, err := url.PathUnescape(chi.URLParam(r, "destination"))
	if err != nil || strings.TrimSpace(destination) == "" {
		response.BadRequest(w, r, "destination is required", nil)
		return
	}

	recs, err := h.recommendations.Lookup(r.Context(), destination)
	if err != nil {
		response.PlanningError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, recs)
}
