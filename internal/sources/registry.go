package sources

import (
	"net/http"

	"github.com/jonesrussell/newsfeed/infrastructure/logger"
)

// Build returns every configured adapter, available or not, so that
// health reporting can list disabled ones too.
func Build(cfg Config, httpClient *http.Client, log logger.Logger) []Adapter {
	adapters := []Adapter{
		NewNewsAPI(resolve(cfg.NewsAPI.APIConfig, cfg.NewsAPI.Key, cfg.TrackingParams), httpClient, log),
		NewGuardian(resolve(cfg.Guardian.APIConfig, cfg.Guardian.Key, cfg.TrackingParams), httpClient, log),
		NewNYTimes(resolve(cfg.NYTimes.APIConfig, cfg.NYTimes.Key, cfg.TrackingParams), httpClient, log),
	}

	for _, feed := range cfg.Feeds {
		feed.TrackingParams = cfg.TrackingParams
		adapters = append(adapters, NewFeed(feed, cfg.FeedClient, httpClient, log))
	}

	available := 0
	for _, a := range adapters {
		if a.IsAvailable() {
			available++
		}
	}
	log.Info("Source adapters configured",
		logger.Int("total", len(adapters)),
		logger.Int("available", available),
	)
	return adapters
}
