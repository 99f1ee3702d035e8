package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/globemate/globemate/internal/api/models"
)

// RateLimitConfig is a fixed-window request budget per client IP.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Default budgets. The plan endpoint fans out to the text generator and the geocoder,
// so it sits in the expensive tier.
var (
	StandardRateLimit  = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}
	ExpensiveRateLimit = RateLimitConfig{RequestLimit: 10, WindowLength: time.Minute}
)

// PerMinute returns a one-minute budget of n requests, or fallback when n is not positive.
func PerMinute(n int, fallback RateLimitConfig) RateLimitConfig {
	if n <= 0 {
		return fallback
	}
	return RateLimitConfig{RequestLimit: n, WindowLength: time.Minute}
}

// RateLimitByIP limits requests per client address. Place it after chi's RealIP
// middleware so forwarded addresses are honoured.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Round(time.Second).Seconds()))
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.").
				WithInstance(r.URL.Path).
				Write(w)
		}),
	)
}
