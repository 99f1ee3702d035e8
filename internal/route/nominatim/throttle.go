package nominatim

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// errThrottled marks a request abandoned while waiting for the rate limiter.
var errThrottled = errors.New("request cancelled while waiting for rate limiter")

// throttledTransport waits for the limiter before every round trip, so retries made by
// the resilient client are throttled as well.
type throttledTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("%w: %w", errThrottled, err)
	}
	return t.base.RoundTrip(req)
}

// throttledDoer applies the limiter to a caller-supplied HTTPDoer.
type throttledDoer struct {
	limiter *rate.Limiter
	next    HTTPDoer
}

func (d *throttledDoer) Do(req *http.Request) (*http.Response, error) {
	if err := d.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("%w: %w", errThrottled, err)
	}
	return d.next.Do(req)
}
