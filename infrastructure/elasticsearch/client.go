// Package elasticsearch builds go-elasticsearch clients whose connection is
// verified with retries before they are handed out.
package elasticsearch

import (
	"context"
	"fmt"
	"io"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/infrastructure/retry"
)

// NewClient creates a client for cfg and pings it until it answers or the
// retry budget is spent.
func NewClient(ctx context.Context, cfg Config, log logger.Logger) (*es.Client, error) {
	cfg.SetDefaults()
	address := normalizeURL(cfg.URL)

	esCfg := es.Config{
		Addresses:  []string{address},
		MaxRetries: cfg.MaxRetries,
	}
	switch {
	case cfg.APIKey != "":
		esCfg.APIKey = cfg.APIKey
	case cfg.Username != "":
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	client, err := es.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	log.Info("Verifying Elasticsearch connection", logger.String("url", address))

	if err = retry.Retry(ctx, cfg.Retry, func() error {
		return Ping(ctx, client, cfg)
	}); err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}

	return client, nil
}

// Ping checks that the cluster answers within cfg.PingTimeout.
func Ping(ctx context.Context, client *es.Client, cfg Config) error {
	pingCtx := ctx
	if cfg.PingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.PingTimeout)
		defer cancel()
	}

	res, err := client.Ping(client.Ping.WithContext(pingCtx))
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("ping returned %s: %s", res.Status(), strings.TrimSpace(string(body)))
	}
	return nil
}

func normalizeURL(raw string) string {
	switch {
	case raw == "":
		return "http://localhost:9200"
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	default:
		return "http://" + raw
	}
}
