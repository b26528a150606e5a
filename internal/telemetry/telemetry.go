// Package telemetry exports Prometheus metrics and an OpenTelemetry tracer
// for the newsfeed service.
package telemetry

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonesrussell/newsfeed/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "newsfeed"

// Adapter request outcomes.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Ingest outcomes.
const (
	IngestStored    = "stored"
	IngestDuplicate = "duplicate"
	IngestFailed    = "failed"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	AdapterRequests *prometheus.CounterVec
	AdapterDuration *prometheus.HistogramVec
	AggregatorCache *prometheus.CounterVec
	IngestArticles  *prometheus.CounterVec
	CleanupRemoved  prometheus.Counter
	CorpusDocuments prometheus.Gauge
}

// Provider bundles the tracer and metrics. Every method is a no-op on a
// nil Provider so that components can run uninstrumented in tests.
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	HTTP     *metrics.HTTPMetrics
	registry *prometheus.Registry
}

// NewProvider registers all metrics on a fresh registry together with the
// Go runtime and process collectors.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  initMetrics(promauto.With(reg)),
		HTTP:     metrics.NewHTTPMetrics(reg, serviceName),
		registry: reg,
	}
}

func initMetrics(f promauto.Factory) *Metrics {
	return &Metrics{
		AdapterRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "newsfeed_adapter_requests_total",
			Help: "Source adapter calls by outcome",
		}, []string{"source", "status"}),
		AdapterDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsfeed_adapter_request_duration_seconds",
			Help:    "Source adapter call latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		AggregatorCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "newsfeed_aggregator_cache_total",
			Help: "Aggregator cache lookups by result",
		}, []string{"result"}),
		IngestArticles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "newsfeed_ingest_articles_total",
			Help: "Articles seen by ingestion by result",
		}, []string{"result"}),
		CleanupRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "newsfeed_dedup_cleanup_removed_total",
			Help: "Articles removed by duplicate cleanup",
		}),
		CorpusDocuments: f.NewGauge(prometheus.GaugeOpts{
			Name: "newsfeed_tagger_corpus_documents",
			Help: "Documents counted in the tagger corpus",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	if p == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// HTTPMiddleware records request metrics for gin routes.
func (p *Provider) HTTPMiddleware() gin.HandlerFunc {
	if p == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return p.HTTP.Middleware()
}

// TracerOrNoop returns the provider's tracer, or a no-op tracer for nil.
func (p *Provider) TracerOrNoop() trace.Tracer {
	if p == nil || p.Tracer == nil {
		return noop.NewTracerProvider().Tracer(serviceName)
	}
	return p.Tracer
}

// RecordAdapterRequest records one adapter call.
func (p *Provider) RecordAdapterRequest(source string, err error, d time.Duration) {
	if p == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	p.Metrics.AdapterRequests.WithLabelValues(source, status).Inc()
	p.Metrics.AdapterDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordCacheLookup records an aggregator cache hit or miss.
func (p *Provider) RecordCacheLookup(hit bool) {
	if p == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	p.Metrics.AggregatorCache.WithLabelValues(result).Inc()
}

// RecordIngest adds n articles with the given result.
func (p *Provider) RecordIngest(result string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.Metrics.IngestArticles.WithLabelValues(result).Add(float64(n))
}

// RecordCleanup adds removed articles.
func (p *Provider) RecordCleanup(removed int64) {
	if p == nil || removed <= 0 {
		return
	}
	p.Metrics.CleanupRemoved.Add(float64(removed))
}

// SetCorpusDocuments reports the tagger corpus size.
func (p *Provider) SetCorpusDocuments(n int) {
	if p == nil {
		return
	}
	p.Metrics.CorpusDocuments.Set(float64(n))
}
