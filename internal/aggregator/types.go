package aggregator

import (
	"time"

	"github.com/jonesrussell/newsfeed/internal/domain"
)

// Request selects live news. An empty Category means every category; a
// non-empty Query switches adapters to search.
type Request struct {
	Category domain.Category
	Query    string
	Limit    int
	UseCache bool
}

// SourceFailure records why one adapter contributed nothing.
type SourceFailure struct {
	Source  string `json:"source"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Metadata describes how a Result was assembled. Callers detect degraded
// operation through SourcesFailed and SourcesUsed.
type Metadata struct {
	TotalArticles  int             `json:"total_articles"`
	SourceCounts   map[string]int  `json:"source_counts"`
	CategoryCounts map[string]int  `json:"category_counts"`
	TotalSources   int             `json:"total_sources"`
	SourcesUsed    int             `json:"sources_used"`
	SourcesFailed  int             `json:"sources_failed"`
	Failures       []SourceFailure `json:"failures,omitempty"`
	CacheHit       bool            `json:"cache_hit"`
	FetchedAt      time.Time       `json:"fetched_at"`
}

// Result is what FetchLiveNews returns and what the cache stores.
type Result struct {
	Articles []domain.Article `json:"articles"`
	Metadata Metadata         `json:"metadata"`
}

// SourceInfo describes an available adapter.
type SourceInfo struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Source health states.
const (
	HealthHealthy  = "healthy"
	HealthDisabled = "disabled"
	HealthError    = "error"
)

// Overall health states.
const (
	OverallHealthy   = "healthy"
	OverallDegraded  = "degraded"
	OverallUnhealthy = "unhealthy"
)

// SourceHealth is one adapter's probe result.
type SourceHealth struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Health has exactly one entry per configured adapter.
type Health struct {
	Status    string                  `json:"status"`
	Sources   map[string]SourceHealth `json:"sources"`
	CheckedAt time.Time               `json:"checked_at"`
}
