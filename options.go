package repovista

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/repovista/repovista/infrastructure/persistence"
	"github.com/repovista/repovista/internal/config"
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	app        config.AppConfig
	logger     *slog.Logger
	httpClient *http.Client
	store      *persistence.Store
}

// newClientConfig creates a clientConfig with defaults from internal/config.
// This ensures all defaults come from the single source of truth.
func newClientConfig() clientConfig {
	return clientConfig{
		app:    config.NewAppConfig(),
		logger: slog.Default(),
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithServerURL sets the backend API base URL.
func WithServerURL(url string) Option {
	return func(c *clientConfig) {
		c.app = c.app.Apply(config.WithServerURL(url))
	}
}

// WithDataDir sets the directory holding the local state store.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.app = c.app.Apply(config.WithDataDir(dir))
	}
}

// WithPollInterval sets the indexing status poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *clientConfig) {
		c.app = c.app.Apply(config.WithPollInterval(d))
	}
}

// WithStatsFreshness sets how long fetched statistics are served from
// cache before a refetch.
func WithStatsFreshness(d time.Duration) Option {
	return func(c *clientConfig) {
		c.app = c.app.Apply(config.WithStatsFreshness(d))
	}
}

// WithSessionTTL sets the session cookie lifetime.
func WithSessionTTL(d time.Duration) Option {
	return func(c *clientConfig) {
		c.app = c.app.Apply(config.WithSessionTTL(d))
	}
}

// WithGatewayAddr sets the local gateway listen host and port.
func WithGatewayAddr(host string, port int) Option {
	return func(c *clientConfig) {
		c.app = c.app.Apply(config.WithGatewayHost(host), config.WithGatewayPort(port))
	}
}

// WithRateLimit sets the outbound request rate limit in requests per
// second.
func WithRateLimit(rps float64) Option {
	return func(c *clientConfig) {
		c.app = c.app.Apply(config.WithRateLimitPerSec(rps))
	}
}

// WithConfig replaces the whole application configuration, typically one
// loaded from the environment.
func WithConfig(cfg config.AppConfig) Option {
	return func(c *clientConfig) { c.app = cfg }
}

// WithHTTPClient sets the http.Client used for backend requests, replacing
// the default one built from the configured request timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = hc }
}

// WithStateStore injects an already-open state store instead of opening one
// at the configured path. The caller keeps ownership; Close does not close
// an injected store.
func WithStateStore(store *persistence.Store) Option {
	return func(c *clientConfig) { c.store = store }
}

// WithLogger sets the logger used by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
