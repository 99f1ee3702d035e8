package nominatim

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/globemate/globemate/internal/provider/resilience"
	"github.com/globemate/globemate/internal/route"
)

// mockHTTPClient wraps http.Client to implement HTTPDoer interface.
type mockHTTPClient struct {
	client *http.Client
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.client.Do(req)
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(ClientConfig{
		BaseURL:           server.URL,
		HTTPClient:        &mockHTTPClient{client: server.Client()},
		RequestsPerSecond: -1,
		Logger:            zerolog.Nop(),
	})
}

func TestClient_Geocode_Success(t *testing.T) {
	respBody, err := os.ReadFile("testdata/search_hunza.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/search" {
			t.Errorf("expected path /search, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Hunza" {
			t.Errorf("expected q=Hunza, got %q", q.Get("q"))
		}
		if q.Get("format") != "jsonv2" {
			t.Errorf("expected format=jsonv2, got %q", q.Get("format"))
		}
		if q.Get("limit") != "1" {
			t.Errorf("expected limit=1, got %q", q.Get("limit"))
		}
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("expected User-Agent %q, got %q", DefaultUserAgent, r.Header.Get("User-Agent"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}))
	defer server.Close()

	place, err := newTestClient(server).Geocode(context.Background(), "Hunza")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if place.DisplayName != "Hunza District, Gilgit-Baltistan, Pakistan" {
		t.Errorf("unexpected display name %q", place.DisplayName)
	}
	if place.Query != "Hunza" {
		t.Errorf("expected query Hunza, got %q", place.Query)
	}
	if place.Coordinate.Lat != 36.3167 || place.Coordinate.Lon != 74.65 {
		t.Errorf("unexpected coordinate %+v", place.Coordinate)
	}
}

func TestClient_Geocode_NoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Geocode(context.Background(), "Atlantis")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routeErr *route.Error
	if !errors.As(err, &routeErr) {
		t.Fatalf("expected route.Error, got %T", err)
	}
	if !errors.Is(err, route.ErrPlaceNotFound) {
		t.Errorf("expected ErrPlaceNotFound, got %v", routeErr.Err)
	}
	if errors.Is(err, route.ErrProviderUnavailable) {
		t.Error("not-found must not be reported as an outage")
	}
}

func TestClient_Geocode_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  error
		wantCode string
	}{
		{"rate limited", http.StatusTooManyRequests, ``, route.ErrRateLimitExceeded, "RATE_LIMIT"},
		{"blocked user agent", http.StatusForbidden, ``, route.ErrProviderUnavailable, "FORBIDDEN"},
		{"server error", http.StatusBadGateway, `<html>bad gateway</html>`, route.ErrProviderUnavailable, "SERVER_502"},
		{"bad request", http.StatusBadRequest, `{"error":{"code":400,"message":"Parameter 'q' empty"}}`, route.ErrProviderUnavailable, "HTTP_400"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server).Geocode(context.Background(), "Skardu")

			var routeErr *route.Error
			if !errors.As(err, &routeErr) {
				t.Fatalf("expected route.Error, got %T (%v)", err, err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, routeErr.Err)
			}
			if routeErr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, routeErr.Code)
			}
		})
	}
}

func TestClient_Geocode_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"north","lon":"74.6"}]`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Geocode(context.Background(), "Hunza")
	if !errors.Is(err, route.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_Geocode_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(server)
	server.Close()

	_, err := client.Geocode(context.Background(), "Murree")

	var routeErr *route.Error
	if !errors.As(err, &routeErr) {
		t.Fatalf("expected route.Error, got %T", err)
	}
	if routeErr.Code != "REQUEST_FAILED" {
		t.Errorf("expected REQUEST_FAILED, got %s", routeErr.Code)
	}
	if !errors.Is(err, route.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_Geocode_Throttled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"33.9","lon":"73.4","display_name":"Murree"}]`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:           server.URL,
		HTTPClient:        &mockHTTPClient{client: server.Client()},
		RequestsPerSecond: 5,
		Logger:            zerolog.Nop(),
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.Geocode(context.Background(), "Murree"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Burst of one, then 200ms between requests.
	if elapsed := time.Since(start); elapsed < 350*time.Millisecond {
		t.Errorf("expected throttling to space requests, took %v", elapsed)
	}
}

func TestClient_Geocode_ThrottleRespectsContext(t *testing.T) {
	client := NewClient(ClientConfig{
		BaseURL:           "http://127.0.0.1:0",
		HTTPClient:        &mockHTTPClient{client: http.DefaultClient},
		RequestsPerSecond: 0.001,
		Logger:            zerolog.Nop(),
	})
	// Drain the single token.
	_ = client.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Geocode(ctx, "Skardu")
	if !errors.Is(err, route.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
	var routeErr *route.Error
	if !errors.As(err, &routeErr) || routeErr.Code != "THROTTLED" {
		t.Errorf("expected THROTTLED, got %v", err)
	}
}

func TestClient_Geocode_RetriesAreThrottled(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []time.Time
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, time.Now())
		n := len(calls)
		mu.Unlock()
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"lat":"36.3","lon":"74.6","display_name":"Hunza"}]`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:           server.URL,
		RequestsPerSecond: 2,
		MaxRetries:        3,
		Logger:            zerolog.Nop(),
	})

	if _, err := client.Geocode(context.Background(), "Hunza"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(calls))
	}
	// Backoff alone would resend after 100-300ms; the limiter holds each attempt to 500ms.
	for i := 1; i < len(calls); i++ {
		if gap := calls[i].Sub(calls[i-1]); gap < 450*time.Millisecond {
			t.Errorf("attempt %d sent %v after the previous one", i+1, gap)
		}
	}
}

func TestClient_Geocode_ResilientClientRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"lat":"35.3","lon":"75.6","display_name":"Skardu, Gilgit-Baltistan, Pakistan"}]`))
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	client := NewClient(ClientConfig{
		BaseURL:           server.URL,
		RequestsPerSecond: -1,
		MaxRetries:        2,
		Registry:          registry,
		Logger:            zerolog.Nop(),
	})

	place, err := client.Geocode(context.Background(), "Skardu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.DisplayName != "Skardu, Gilgit-Baltistan, Pakistan" {
		t.Errorf("unexpected display name %q", place.DisplayName)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if health := registry.GetHealth(ProviderName); health == nil || health.LastSuccessAt == nil {
		t.Error("expected provider success to be recorded")
	}
}

func TestClient_Name(t *testing.T) {
	client := NewClient(ClientConfig{Logger: zerolog.Nop()})
	if client.Name() != ProviderName {
		t.Errorf("expected %s, got %s", ProviderName, client.Name())
	}
}
