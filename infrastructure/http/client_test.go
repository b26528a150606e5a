package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	infrahttp "github.com/jonesrussell/newsfeed/infrastructure/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	client := infrahttp.NewClient(nil)
	assert.Equal(t, infrahttp.DefaultTimeout, client.Timeout)

	client = infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: 2 * time.Second})
	assert.Equal(t, 2*time.Second, client.Timeout)
}

func TestNewClient_SetsUserAgent(t *testing.T) {
	t.Parallel()

	agents := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents <- r.UserAgent()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := infrahttp.NewClient(&infrahttp.ClientConfig{UserAgent: "tester/1"})

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "tester/1", <-agents)
	assert.Equal(t, "custom", <-agents)
}
