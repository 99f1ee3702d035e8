package handler

import (
	"net/http"
	"time"

	"github.com/globemate/globemate/internal/api/models"
	"github.com/globemate/globemate/internal/api/response"
	"github.com/globemate/globemate/internal/provider/resilience"
	"github.com/globemate/globemate/internal/route"
)

// GeocodeCache reports the state of the place cache.
type GeocodeCache interface {
	ProviderName() string
	CacheStats() route.CacheStats
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	geocodes  GeocodeCache
	now       func() time.Time
}

// NewOpsHandler creates an OpsHandler. A nil registry reports no providers and a nil
// geocode cache is left out of the status.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, geocodes GeocodeCache) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		geocodes:  geocodes,
		now:       time.Now,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(h.now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. It fails while any provider circuit is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	overall, providers := h.providers()
	status := http.StatusOK
	if overall == models.HealthStatusFail {
		status = http.StatusServiceUnavailable
	}

	var open []string
	for _, p := range providers {
		if p.Status == models.HealthStatusFail {
			open = append(open, p.Provider)
		}
	}
	health := models.Health{Status: overall, Time: models.Timestamp(h.now())}
	if len(open) > 0 {
		health.Details = map[string]any{"openCircuits": open}
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status - circuit state of every provider and the
// geocode cache occupancy.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	overall, providers := h.providers()
	status := models.SystemStatus{
		Status:    overall,
		Time:      models.Timestamp(h.now()),
		Version:   h.version,
		Providers: providers,
	}
	if h.geocodes != nil {
		stats := h.geocodes.CacheStats()
		status.Caches = append(status.Caches, models.CacheStatus{
			Name:         "geocode",
			Provider:     h.geocodes.ProviderName(),
			TotalEntries: stats.TotalEntries,
			FreshEntries: stats.FreshEntries,
			StaleEntries: stats.StaleEntries,
		})
	}
	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) providers() (models.HealthStatus, []models.ProviderStatus) {
	overall := models.HealthStatusOK
	providers := []models.ProviderStatus{}
	if h.registry == nil {
		return overall, providers
	}

	for _, ph := range h.registry.GetAllHealth() {
		ps := models.ProviderStatus{
			Provider:            ph.Name,
			CircuitState:        ph.CircuitState.String(),
			ConsecutiveFailures: int(ph.Counts.ConsecutiveFailures),
			LastSuccessAt:       timestampPtr(ph.LastSuccessAt),
			LastFailureAt:       timestampPtr(ph.LastFailureAt),
		}
		if ph.LastError != "" {
			msg := ph.LastError
			ps.Message = &msg
		}

		switch {
		case ph.IsUnhealthy():
			ps.Status = models.HealthStatusFail
			overall = models.HealthStatusFail
		case ph.IsDegraded():
			ps.Status = models.HealthStatusDegraded
			if overall == models.HealthStatusOK {
				overall = models.HealthStatusDegraded
			}
		default:
			ps.Status = models.HealthStatusOK
		}
		providers = append(providers, ps)
	}
	return overall, providers
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := models.Timestamp(*t)
	return &ts
}
