// Package errors turns failed upstream HTTP responses into typed errors.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MinErrorStatusCode is the first status treated as a failure.
const MinErrorStatusCode = 400

const maxErrorBody = 4 << 10

// HTTPError describes a non-success upstream response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error (%d %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Status)
}

// Temporary reports whether a retry could succeed (429 and 5xx).
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// ParseHTTPError returns nil for statuses below 400. Otherwise it reads at
// most 4KiB of the body and extracts a message from the common JSON error
// shapes used by news APIs ({"message"}, {"error"}, {"response":{"message"}},
// {"fault":{"faultstring"}}).
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode < MinErrorStatusCode {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Message:    fmt.Sprintf("read error body: %v", err),
		}
	}

	text := strings.TrimSpace(string(body))
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Body:       text,
		Message:    extractMessage(body, text),
	}
}

func extractMessage(body []byte, fallback string) string {
	var payload struct {
		Error    json.RawMessage `json:"error"`
		Message  string          `json:"message"`
		Response struct {
			Message string `json:"message"`
		} `json:"response"`
		Fault struct {
			FaultString string `json:"faultstring"`
		} `json:"fault"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return fallback
	}

	var errText string
	_ = json.Unmarshal(payload.Error, &errText)

	for _, candidate := range []string{payload.Message, errText, payload.Response.Message, payload.Fault.FaultString} {
		if candidate != "" {
			return candidate
		}
	}
	return fallback
}

// StatusCode extracts the status from an HTTPError anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}
