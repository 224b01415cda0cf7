package naver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// headerRoundTripper adds fixed headers (API credentials) to every request.
type headerRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}
	return t.Transport.RoundTrip(req)
}

var errLimiterRefused = errors.New("rate limiter refused request")

// limitRoundTripper blocks until the shared token bucket admits the request.
type limitRoundTripper struct {
	Transport http.RoundTripper
	Limiter   *rate.Limiter
}

// RoundTrip implements the http.RoundTripper interface.
func (t *limitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("%w: %w", errLimiterRefused, err)
	}
	return t.Transport.RoundTrip(req)
}

// logRoundTripper logs each exchange at debug level. Headers are never logged.
type logRoundTripper struct {
	Transport http.RoundTripper
}

// RoundTrip implements the http.RoundTripper interface.
func (t *logRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Transport.RoundTrip(req)

	attrs := []any{
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
		"latency", time.Since(start).String(),
	}
	if err != nil {
		slog.DebugContext(req.Context(), "upstream request failed", append(attrs, "error", err)...)
		return nil, err
	}
	slog.DebugContext(req.Context(), "upstream request", append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}
