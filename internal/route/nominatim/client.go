// Package nominatim provides a geocoder backed by the OpenStreetMap Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/globemate/globemate/internal/provider/resilience"
	"github.com/globemate/globemate/internal/route"
	"github.com/globemate/globemate/internal/trip"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies the application, as the usage policy requires.
	DefaultUserAgent = "travel_agent_ai"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultRequestsPerSecond is the ceiling allowed by the public usage policy.
	DefaultRequestsPerSecond = 1
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public instance).
	BaseURL string

	// UserAgent is sent with every request (optional, defaults to DefaultUserAgent).
	UserAgent string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// MaxRetries is the retry budget of the default HTTP client (optional, defaults to 3).
	MaxRetries uint64

	// RequestsPerSecond throttles outgoing requests (optional, defaults to 1).
	// A negative value disables throttling.
	RequestsPerSecond float64

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Nominatim search API client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient HTTPDoer
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

var _ route.Geocoder = (*Client)(nil)

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	rps := cfg.RequestsPerSecond
	if rps == 0 {
		rps = DefaultRequestsPerSecond
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	// Every attempt, including retries, waits for the limiter.
	var httpClient HTTPDoer
	if cfg.HTTPClient != nil {
		httpClient = &throttledDoer{limiter: limiter, next: cfg.HTTPClient}
	} else {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.MaxRetries > 0 {
			clientCfg.MaxRetries = cfg.MaxRetries
		}
		clientCfg.Registry = cfg.Registry
		clientCfg.Transport = &throttledTransport{limiter: limiter, base: http.DefaultTransport}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Geocode returns the best match for a free-text place name.
func (c *Client) Geocode(ctx context.Context, query string) (*trip.Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("query", query).
		Msg("requesting place from Nominatim")

	resp, err := c.httpClient.Do(httpReq)
	if errors.Is(err, errThrottled) {
		return nil, &route.Error{
			Provider: ProviderName,
			Code:     "THROTTLED",
			Message:  "request cancelled while waiting for rate limiter",
			Err:      fmt.Errorf("%w: %w", route.ErrProviderUnavailable, err),
		}
	}
	if err != nil {
		return nil, &route.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach geocoding provider",
			Err:      fmt.Errorf("%w: %w", route.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &route.Error{
			Provider: ProviderName,
			Code:     "BAD_RESPONSE",
			Message:  "geocoding provider returned malformed JSON",
			Err:      fmt.Errorf("%w: %w", route.ErrProviderUnavailable, err),
		}
	}
	if len(results) == 0 {
		return nil, &route.Error{
			Provider: ProviderName,
			Code:     "NOT_FOUND",
			Message:  fmt.Sprintf("no place matches %q", query),
			Err:      route.ErrPlaceNotFound,
		}
	}

	place, err := toPlace(query, &results[0])
	if err != nil {
		return nil, &route.Error{
			Provider: ProviderName,
			Code:     "BAD_RESPONSE",
			Message:  "geocoding provider returned invalid coordinates",
			Err:      fmt.Errorf("%w: %w", route.ErrProviderUnavailable, err),
		}
	}

	c.logger.Debug().
		Str("query", query).
		Str("display_name", place.DisplayName).
		Float64("lat", place.Coordinate.Lat).
		Float64("lon", place.Coordinate.Lon).
		Msg("received place from Nominatim")

	return place, nil
}

// handleErrorResponse maps Nominatim error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	message := fmt.Sprintf("geocoding provider returned status %d", statusCode)
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &route.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "geocoding rate limit exceeded, please try again later",
			Err:      route.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusForbidden:
		return &route.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "geocoding access denied - check the configured user agent",
			Err:      route.ErrProviderUnavailable,
		}
	case statusCode >= 500:
		return &route.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "geocoding provider is temporarily unavailable",
			Err:      route.ErrProviderUnavailable,
		}
	default:
		return &route.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  message,
			Err:      route.ErrProviderUnavailable,
		}
	}
}

func toPlace(query string, r *searchResult) (*trip.Place, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", r.Lat, err)
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", r.Lon, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("coordinate %f,%f out of range", lat, lon)
	}

	name := r.DisplayName
	if name == "" {
		name = r.Name
	}
	return &trip.Place{
		Query:       query,
		DisplayName: name,
		Coordinate:  trip.Coordinate{Lat: lat, Lon: lon},
	}, nil
}
