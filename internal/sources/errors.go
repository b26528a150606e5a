package sources

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jonesrussell/newsfeed/infrastructure/circuitbreaker"
	infraerrors "github.com/jonesrussell/newsfeed/infrastructure/errors"
)

// ErrorType classifies adapter failures for logging and metadata.
type ErrorType string

const (
	ErrTypeTimeout     ErrorType = "timeout"
	ErrTypeNetwork     ErrorType = "network"
	ErrTypeHTTPStatus  ErrorType = "http_status"
	ErrTypeParse       ErrorType = "parse"
	ErrTypeUnavailable ErrorType = "unavailable"
	ErrTypeCircuitOpen ErrorType = "circuit_open"
)

// AdapterFetchError is the only error adapters return.
type AdapterFetchError struct {
	Source     string
	Type       ErrorType
	StatusCode int
	URL        string
	Cause      error
}

func (e *AdapterFetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s fetch %s: HTTP %d for %s: %v", e.Source, e.Type, e.StatusCode, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s fetch %s: %v", e.Source, e.Type, e.Cause)
}

func (e *AdapterFetchError) Unwrap() error { return e.Cause }

// ErrNotConfigured is the cause of unavailable errors.
var ErrNotConfigured = errors.New("adapter not configured")

func unavailable(source string) *AdapterFetchError {
	return &AdapterFetchError{Source: source, Type: ErrTypeUnavailable, Cause: ErrNotConfigured}
}

func parseError(source, url string, cause error) *AdapterFetchError {
	return &AdapterFetchError{Source: source, Type: ErrTypeParse, URL: url, Cause: cause}
}

// classify wraps err in an AdapterFetchError unless it already is one.
// Redacted is the request URL without credentials.
func classify(source, redacted string, err error) *AdapterFetchError {
	var fetchErr *AdapterFetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}

	out := &AdapterFetchError{Source: source, URL: redacted, Cause: err}

	var httpErr *infraerrors.HTTPError
	var netErr net.Error
	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		out.Type = ErrTypeCircuitOpen
	case errors.As(err, &httpErr):
		out.Type = ErrTypeHTTPStatus
		out.StatusCode = httpErr.StatusCode
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		out.Type = ErrTypeTimeout
	default:
		out.Type = ErrTypeNetwork
	}
	return out
}

// ErrorTypeOf returns the classification of err, or "" when err is not an
// AdapterFetchError.
func ErrorTypeOf(err error) ErrorType {
	var fetchErr *AdapterFetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Type
	}
	return ""
}
