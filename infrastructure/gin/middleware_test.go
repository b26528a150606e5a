package gin_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/newsfeed/infrastructure/gin"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, routes func(*gin.Engine)) *gin.Engine {
	t.Helper()
	cfg := &infragin.Config{ServiceName: "newsfeed-test", CORS: infragin.CORSConfig{Enabled: true}}
	return infragin.NewServer(cfg, logger.NewNop(), routes).Router()
}

func TestRequestIDLoggerMiddleware(t *testing.T) {
	t.Parallel()

	var seen logger.Logger
	router := newTestServer(t, func(r *gin.Engine) {
		r.GET("/test", func(c *gin.Context) {
			seen = logger.FromContext(c.Request.Context())
			c.Status(http.StatusOK)
		})
	})

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generates when missing", incoming: "", keep: false},
		{name: "preserves caller id", incoming: "abc-123", keep: true},
		{name: "replaces oversized id", incoming: strings.Repeat("x", 200), keep: false},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		if tc.incoming != "" {
			req.Header.Set(infragin.RequestIDHeader, tc.incoming)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		got := rec.Header().Get(infragin.RequestIDHeader)
		require.NotEmpty(t, got, tc.name)
		if tc.keep {
			assert.Equal(t, tc.incoming, got, tc.name)
		} else {
			assert.NotEqual(t, tc.incoming, got, tc.name)
		}
	}
	assert.NotNil(t, seen)
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	router := newTestServer(t, func(r *gin.Engine) {
		r.GET("/boom", func(*gin.Context) { panic("boom") })
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	t.Parallel()

	router := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/news", nil)
	req.Header.Set("Origin", "https://reader.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthRoutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		checks   map[string]infragin.HealthChecker
		wantCode int
		wantBody string
	}{
		{name: "no checks", wantCode: http.StatusOK, wantBody: `"status":"healthy"`},
		{
			name: "optional dependency down",
			checks: map[string]infragin.HealthChecker{
				"redis": infragin.PingChecker(func(context.Context) error { return errors.New("refused") }, true),
			},
			wantCode: http.StatusOK,
			wantBody: `"status":"degraded"`,
		},
		{
			name: "required dependency down",
			checks: map[string]infragin.HealthChecker{
				"redis":    infragin.PingChecker(func(context.Context) error { return nil }, true),
				"database": infragin.PingChecker(func(context.Context) error { return errors.New("refused") }, false),
			},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `"status":"unhealthy"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router := newTestServer(t, func(r *gin.Engine) {
				infragin.RegisterHealthRoutes(r, infragin.HealthOptions{ServiceName: "newsfeed", Checks: tc.checks})
			})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
		})
	}
}
