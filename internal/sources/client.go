package sources

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonesrussell/newsfeed/infrastructure/circuitbreaker"
	infraerrors "github.com/jonesrussell/newsfeed/infrastructure/errors"
	"github.com/jonesrussell/newsfeed/infrastructure/logger"
	"github.com/jonesrussell/newsfeed/infrastructure/retry"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout          = 10 * time.Second
	DefaultRateLimit        = 5.0
	DefaultMaxRetries       = 2
	defaultRetryDelay       = 200 * time.Millisecond
	defaultFailureThreshold = 5
	defaultOpenTimeout      = time.Minute
)

// ClientConfig controls outbound behaviour shared by every HTTP adapter.
// Zero values use the defaults; a negative RateLimit disables limiting and
// a negative MaxRetries disables retries.
type ClientConfig struct {
	Timeout          time.Duration `yaml:"timeout"`
	RateLimit        float64       `yaml:"rate_limit"`
	Burst            int           `yaml:"burst"`
	MaxRetries       int           `yaml:"max_retries"`
	FailureThreshold int           `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
}

// client performs one rate-limited, retried and circuit-broken GET per
// fetch, bounded by the per-call timeout.
type client struct {
	source  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *circuitbreaker.Breaker
	retry   retry.Config
	timeout time.Duration
}

func newClient(source string, httpClient *http.Client, cfg ClientConfig, log logger.Logger) *client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	limit := rate.Limit(cfg.RateLimit)
	switch {
	case cfg.RateLimit < 0:
		limit = rate.Inf
	case cfg.RateLimit == 0:
		limit = rate.Limit(DefaultRateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(1, int(DefaultRateLimit))
	}

	attempts := DefaultMaxRetries + 1
	switch {
	case cfg.MaxRetries < 0:
		attempts = 1
	case cfg.MaxRetries > 0:
		attempts = cfg.MaxRetries + 1
	}

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: orDefault(cfg.FailureThreshold, defaultFailureThreshold),
		Timeout:          orDefault(cfg.OpenTimeout, defaultOpenTimeout),
		OnStateChange: func(from, to circuitbreaker.State) {
			log.Warn("Source circuit state changed",
				logger.String("source", source),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})

	return &client{
		source:  source,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
		retry: retry.Config{
			MaxAttempts:  attempts,
			InitialDelay: defaultRetryDelay,
			IsRetryable:  isRetryable,
		},
		timeout: cfg.Timeout,
	}
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

func isRetryable(err error) bool {
	var fetchErr *AdapterFetchError
	if errors.As(err, &fetchErr) {
		return false
	}
	var httpErr *infraerrors.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	return retry.DefaultIsRetryable(err)
}

// get fetches u and hands the body to decode. Every error it returns is an
// *AdapterFetchError.
func (c *client) get(ctx context.Context, u *url.URL, header http.Header, decode func(io.Reader) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return retry.Retry(ctx, c.retry, func() error {
			return c.do(ctx, u, header, decode)
		})
	})
	if err != nil {
		return classify(c.source, redact(u), err)
	}
	return nil
}

func (c *client) do(ctx context.Context, u *url.URL, header http.Header, decode func(io.Reader) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return err
	}
	for k, vs := range header {
		req.Header[k] = vs
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return httpErr
	}

	if decodeErr := decode(resp.Body); decodeErr != nil {
		return parseError(c.source, redact(u), decodeErr)
	}
	return nil
}

var secretParams = []string{"apiKey", "api-key", "api_key"}

// redact returns u as a string with credential query parameters masked.
func redact(u *url.URL) string {
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return u.String()
	}
	clone := *u
	clone.RawQuery = q.Encode()
	return clone.String()
}

func buildURL(base, path string, query url.Values) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	u = u.JoinPath(path)
	u.RawQuery = query.Encode()
	return u, nil
}
