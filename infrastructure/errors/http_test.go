package errors_test

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	infraerrors "github.com/jonesrussell/newsfeed/infrastructure/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(code int, body string) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(body))}
}

func TestParseHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		code      int
		body      string
		wantNil   bool
		wantMsg   string
		temporary bool
	}{
		{name: "success is nil", code: http.StatusOK, body: "{}", wantNil: true},
		{name: "newsapi message", code: http.StatusUnauthorized, body: `{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`, wantMsg: "Your API key is invalid"},
		{name: "guardian response message", code: http.StatusBadRequest, body: `{"response":{"status":"error","message":"Unknown section"}}`, wantMsg: "Unknown section"},
		{name: "nytimes fault", code: http.StatusTooManyRequests, body: `{"fault":{"faultstring":"Rate limit quota violation"}}`, wantMsg: "Rate limit quota violation", temporary: true},
		{name: "plain error string", code: http.StatusForbidden, body: `{"error":"forbidden"}`, wantMsg: "forbidden"},
		{name: "non json body", code: http.StatusBadGateway, body: "upstream exploded", wantMsg: "upstream exploded", temporary: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := infraerrors.ParseHTTPError(response(tc.code, tc.body))
			if tc.wantNil {
				require.NoError(t, err)
				return
			}

			var httpErr *infraerrors.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tc.code, httpErr.StatusCode)
			assert.Equal(t, tc.wantMsg, httpErr.Message)
			assert.Equal(t, tc.temporary, httpErr.Temporary())
		})
	}
}

func TestStatusCode_Unwraps(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("fetch: %w", infraerrors.ParseHTTPError(response(http.StatusServiceUnavailable, "")))

	code, ok := infraerrors.StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	_, ok = infraerrors.StatusCode(fmt.Errorf("plain"))
	assert.False(t, ok)
}
