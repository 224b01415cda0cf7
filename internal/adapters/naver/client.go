// Package naver implements place search and reverse geocoding against the
// Naver Cloud Platform Maps APIs and the Naver Developers search API.
package naver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/samirrijal/lunchpick/internal/core/domain"
	"github.com/samirrijal/lunchpick/internal/pkg/metrics"
)

// Provider names reported by the adapters.
const (
	PlaceProviderName   = "naver-place"
	LocalProviderName   = "naver-local"
	ReverseProviderName = "naver-reverse"
)

const maxBodyBytes = 1 << 20

// Options configures one adapter's HTTP client.
type Options struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// Timeout caps a single exchange. The caller's context may be shorter.
	Timeout time.Duration
	// Limiter is shared by every adapter talking to the same quota. Optional.
	Limiter *rate.Limiter
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

type client struct {
	provider string
	baseURL  string
	http     *http.Client
}

func newClient(provider string, opts Options, headers map[string]string) *client {
	rt := opts.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	rt = &logRoundTripper{Transport: rt}
	if opts.Limiter != nil {
		rt = &limitRoundTripper{Transport: rt, Limiter: opts.Limiter}
	}
	rt = &headerRoundTripper{Transport: rt, Headers: headers}

	return &client{
		provider: provider,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     &http.Client{Transport: rt, Timeout: opts.Timeout},
	}
}

// ncpHeaders are the API gateway credentials used by the NCP Maps APIs.
func ncpHeaders(opts Options) map[string]string {
	return map[string]string{
		"X-NCP-APIGW-API-KEY-ID": opts.ClientID,
		"X-NCP-APIGW-API-KEY":    opts.ClientSecret,
	}
}

// record observes one finished provider operation. The outcome comes from
// the error the adapter returns to its caller, so failures found after
// decoding are counted too.
func (c *client) record(op string, start time.Time, err error) {
	outcome := "ok"
	var ae *domain.AdapterError
	if errors.As(err, &ae) {
		outcome = string(ae.Reason)
	} else if err != nil {
		outcome = string(domain.ReasonTransport)
	}
	metrics.ObserveProviderCall(c.provider, op, outcome, time.Since(start))
}

// getJSON performs one GET and decodes a 2xx JSON body into out.
// Every failure is returned as *domain.AdapterError.
func (c *client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return c.fail(op, domain.ReasonTransport, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(op, transportReason(ctx, err), 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.fail(op, transportReason(ctx, err), resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(op, classifyStatus(resp.StatusCode), resp.StatusCode, errors.New(upstreamMessage(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return c.fail(op, domain.ReasonMalformed, resp.StatusCode, fmt.Errorf("decode body: %w", err))
	}
	return nil
}

func (c *client) fail(op string, reason domain.UpstreamReason, status int, err error) *domain.AdapterError {
	return &domain.AdapterError{Provider: c.provider, Op: op, Reason: reason, Status: status, Err: err}
}

// classifyStatus maps a non-2xx status to a failure reason.
func classifyStatus(status int) domain.UpstreamReason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ReasonAuth
	case status == http.StatusTooManyRequests:
		return domain.ReasonRateLimit
	case status >= 500:
		return domain.ReasonServer
	default:
		return domain.ReasonRejected
	}
}

func transportReason(ctx context.Context, err error) domain.UpstreamReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ReasonTimeout
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return domain.ReasonCanceled
	}
	// The limiter refuses up front when the wait would outlive the deadline.
	if errors.Is(err, errLimiterRefused) {
		if _, ok := ctx.Deadline(); ok {
			return domain.ReasonTimeout
		}
		return domain.ReasonRateLimit
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.ReasonTimeout
	}
	return domain.ReasonTransport
}

// upstreamMessage extracts the error message from either Naver error envelope.
func upstreamMessage(body []byte) string {
	var env struct {
		ErrorMessage string `json:"errorMessage"`
		ErrorCode    string `json:"errorCode"`
		Error        struct {
			ErrorCode string `json:"errorCode"`
			Message   string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.ErrorMessage != "":
			return fmt.Sprintf("%s (code %s)", env.ErrorMessage, env.ErrorCode)
		case env.Error.Message != "":
			return fmt.Sprintf("%s (code %s)", env.Error.Message, env.Error.ErrorCode)
		}
	}
	return "unexpected upstream status"
}

func formatCoord(c domain.Coordinate) string {
	return fmt.Sprintf("%s,%s", formatFloat(c.Lng), formatFloat(c.Lat))
}
