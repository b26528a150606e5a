package sources

import "github.com/jonesrussell/newsfeed/internal/domain"

// APIConfig configures one keyed news API. An adapter is available once it
// has a key, unless explicitly disabled.
type APIConfig struct {
	Disabled       bool         `yaml:"disabled"`
	APIKey         string       `yaml:"api_key"`
	BaseURL        string       `yaml:"base_url"`
	Weight         float64      `yaml:"weight"`
	Country        string       `yaml:"country"`
	Section        string       `yaml:"section"`
	Client         ClientConfig `yaml:"client"`
	TrackingParams []string     `yaml:"-"`
}

func (c *APIConfig) setDefaults(baseURL string, weight float64) {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Weight <= 0 {
		c.Weight = weight
	}
}

func (c *APIConfig) available() bool {
	return !c.Disabled && c.APIKey != ""
}

// FeedConfig configures one RSS or Atom feed.
type FeedConfig struct {
	Name           string          `yaml:"name"`
	URL            string          `yaml:"url"`
	Weight         float64         `yaml:"weight"`
	Category       domain.Category `yaml:"category"`
	Disabled       bool            `yaml:"disabled"`
	TrackingParams []string        `yaml:"-"`
}

// Config holds every adapter's settings.
type Config struct {
	NewsAPI  NewsAPIConfig  `yaml:"newsapi"`
	Guardian GuardianConfig `yaml:"guardian"`
	NYTimes  NYTimesConfig  `yaml:"nytimes"`
	Feeds    []FeedConfig   `yaml:"feeds"`

	// FeedClient applies to every feed.
	FeedClient ClientConfig `yaml:"feed_client"`

	// TrackingParams are stripped from article URLs before ids are derived.
	// nil means dedup.DefaultTrackingParams.
	TrackingParams []string `yaml:"-"`
}

// The per-provider wrappers only exist to bind distinct environment
// variables to each API key.
type (
	NewsAPIConfig struct {
		APIConfig `yaml:",inline"`
		Key       string `env:"NEWSAPI_API_KEY" yaml:"-"`
	}
	GuardianConfig struct {
		APIConfig `yaml:",inline"`
		Key       string `env:"GUARDIAN_API_KEY" yaml:"-"`
	}
	NYTimesConfig struct {
		APIConfig `yaml:",inline"`
		Key       string `env:"NYTIMES_API_KEY" yaml:"-"`
	}
)

func resolve(c APIConfig, envKey string, trackingParams []string) APIConfig {
	if envKey != "" {
		c.APIKey = envKey
	}
	c.TrackingParams = trackingParams
	return c
}
