package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable cause tag of a failure.
type ErrorKind string

const (
	KindBadInput        ErrorKind = "BAD_INPUT"
	KindGeocodeFailure  ErrorKind = "GEOCODE_FAILURE"
	KindSearchFailure   ErrorKind = "SEARCH_FAILURE"
	KindUpstreamFailure ErrorKind = "UPSTREAM_FAILURE"
)

// UpstreamReason refines an UPSTREAM_FAILURE for logs and metrics.
type UpstreamReason string

const (
	ReasonTransport UpstreamReason = "transport"
	ReasonTimeout   UpstreamReason = "timeout"
	ReasonCanceled  UpstreamReason = "canceled"
	ReasonAuth      UpstreamReason = "auth"
	ReasonRateLimit UpstreamReason = "rate_limit"
	ReasonRejected  UpstreamReason = "rejected"
	ReasonServer    UpstreamReason = "server"
	ReasonMalformed UpstreamReason = "malformed"
)

// AdapterError is the only error a provider adapter returns.
type AdapterError struct {
	Provider string
	Op       string
	Reason   UpstreamReason
	Status   int // HTTP status, 0 when no response was read
	Err      error
}

// Kind is always UPSTREAM_FAILURE.
func (e *AdapterError) Kind() ErrorKind { return KindUpstreamFailure }

func (e *AdapterError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Reason)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AdapterError) Unwrap() error { return e.Err }

// RecommendError is returned by the recommendation pipeline.
type RecommendError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *RecommendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RecommendError) Unwrap() error { return e.Err }

// NewBadInput returns a BAD_INPUT error with msg.
func NewBadInput(msg string) *RecommendError {
	return &RecommendError{Kind: KindBadInput, Message: msg}
}

// KindOf returns the cause tag carried by err, or "" when err has none.
func KindOf(err error) ErrorKind {
	var re *RecommendError
	if errors.As(err, &re) {
		return re.Kind
	}
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Kind()
	}
	return ""
}
