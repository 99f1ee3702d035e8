// Package route resolves a pair of place names to coordinates and the great-circle
// distance between them.
package route

import (
	"context"
	"errors"

	"github.com/globemate/globemate/internal/trip"
)

// Sentinel errors for geocoding operations.
var (
	// ErrPlaceNotFound indicates the geocoder returned no result for the query.
	ErrPlaceNotFound = errors.New("place not found")
	// ErrProviderUnavailable indicates the geocoder is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrRateLimitExceeded indicates the provider's usage quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// Geocoder resolves a free-text place name to a single best match.
type Geocoder interface {
	// Geocode returns the best match for query, or ErrPlaceNotFound.
	Geocode(ctx context.Context, query string) (*trip.Place, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Error provides detailed error information from a geocoding provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
