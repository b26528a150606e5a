package telemetry_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonesrussell/newsfeed/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_RecordsMetrics(t *testing.T) {
	t.Parallel()

	p := telemetry.NewProvider()

	p.RecordAdapterRequest("newsapi", nil, 120*time.Millisecond)
	p.RecordAdapterRequest("newsapi", errors.New("boom"), time.Second)
	p.RecordCacheLookup(true)
	p.RecordCacheLookup(false)
	p.RecordCacheLookup(false)
	p.RecordIngest(telemetry.IngestStored, 3)
	p.RecordIngest(telemetry.IngestDuplicate, 0)
	p.RecordCleanup(4)
	p.SetCorpusDocuments(42)

	m := p.Metrics
	assert.InDelta(t, 1, testutil.ToFloat64(m.AdapterRequests.WithLabelValues("newsapi", telemetry.StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AdapterRequests.WithLabelValues("newsapi", telemetry.StatusError)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.AggregatorCache.WithLabelValues("miss")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.IngestArticles.WithLabelValues(telemetry.IngestStored)), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.CleanupRemoved), 0)
	assert.InDelta(t, 42, testutil.ToFloat64(m.CorpusDocuments), 0)
}

func TestProvider_IndependentRegistries(t *testing.T) {
	t.Parallel()

	a := telemetry.NewProvider()
	b := telemetry.NewProvider()
	a.RecordCacheLookup(true)

	assert.InDelta(t, 0, testutil.ToFloat64(b.Metrics.AggregatorCache.WithLabelValues("hit")), 0)
}

func TestProvider_Handler(t *testing.T) {
	t.Parallel()

	p := telemetry.NewProvider()
	p.RecordIngest(telemetry.IngestFailed, 1)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `newsfeed_ingest_articles_total{result="failed"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestProvider_NilIsNoop(t *testing.T) {
	t.Parallel()

	var p *telemetry.Provider
	assert.NotPanics(t, func() {
		p.RecordAdapterRequest("x", nil, time.Millisecond)
		p.RecordCacheLookup(true)
		p.RecordIngest(telemetry.IngestStored, 1)
		p.RecordCleanup(1)
		p.SetCorpusDocuments(1)
		_, span := p.TracerOrNoop().Start(t.Context(), "test")
		span.End()
		assert.NotNil(t, p.HTTPMiddleware())
	})
}
