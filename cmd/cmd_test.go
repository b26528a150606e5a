package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/internal/aggregator"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/jonesrussell/newsfeed/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func emptyConfig(t *testing.T) string {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\n"), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "newsfeed dev"))
}

func TestTagsCommand(t *testing.T) {
	cfg := emptyConfig(t)

	out, err := run(t, "tags", "--config", cfg, "Central", "bank", "chief", "testifies", "before", "Senate")
	require.NoError(t, err)

	assert.Contains(t, out, "tags:")
	assert.Contains(t, out, "categories: business, politics")
}

func TestTagsCommand_RequiresTitle(t *testing.T) {
	cfg := emptyConfig(t)

	_, err := run(t, "tags", "--config", cfg)
	require.Error(t, err)
}

func TestIngestCommand_RejectsUnknownCategory(t *testing.T) {
	cfg := emptyConfig(t)

	_, err := run(t, "ingest", "--config", cfg, "--category", "gossip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestSourcesCommand_ListsWithoutProbing(t *testing.T) {
	cfg := emptyConfig(t)

	out, err := run(t, "sources", "--config", cfg)
	require.NoError(t, err)

	for _, name := range []string{"newsapi", "guardian", "nytimes"} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, strings.ToLower(out), "latency")
}

func TestRenderSources_WithHealth(t *testing.T) {
	t.Parallel()

	adapters := sources.Build(sources.Config{
		Feeds: []sources.FeedConfig{{Name: "Example", URL: "https://example.com/rss", Category: domain.CategoryWorld}},
	}, nil, logger.NewNop())

	health := &aggregator.Health{
		Status: aggregator.OverallDegraded,
		Sources: map[string]aggregator.SourceHealth{
			"rss:example": {Status: aggregator.HealthError, Error: "timeout"},
			"newsapi":     {Status: aggregator.HealthDisabled},
		},
	}

	var buf bytes.Buffer
	renderSources(&buf, adapters, health)
	out := buf.String()

	assert.Contains(t, out, "rss:example")
	assert.Contains(t, out, "timeout")
	assert.Contains(t, out, aggregator.OverallDegraded)
	assert.NotContains(t, out, strings.ToUpper(aggregator.OverallDegraded))
	assert.Less(t, strings.Index(out, "guardian"), strings.Index(out, "newsapi"))
}
