// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultServerURL       = "http://localhost:8080/api/v1"
	DefaultGatewayHost     = "127.0.0.1"
	DefaultGatewayPort     = 3000
	DefaultLogLevel        = "INFO"
	DefaultPollInterval    = 2 * time.Second
	DefaultStatsFreshness  = 30 * time.Second
	DefaultSessionTTL      = 7 * 24 * time.Hour
	DefaultRequestTimeout  = 30 * time.Second
	DefaultRateLimitPerSec = 10.0
	DefaultStateFile       = "repovista.db"
)

// SessionCookieName is the cookie consulted by the gateway's route gating
// and promoted to the Authorization header on proxied API calls.
const SessionCookieName = "auth-token"

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// AppConfig holds the main application configuration.
type AppConfig struct {
	serverURL       string
	gatewayHost     string
	gatewayPort     int
	dataDir         string
	logLevel        string
	logFormat       LogFormat
	pollInterval    time.Duration
	statsFreshness  time.Duration
	sessionTTL      time.Duration
	requestTimeout  time.Duration
	rateLimitPerSec float64
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repovista"
	}
	return filepath.Join(home, ".repovista")
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		serverURL:       DefaultServerURL,
		gatewayHost:     DefaultGatewayHost,
		gatewayPort:     DefaultGatewayPort,
		dataDir:         DefaultDataDir(),
		logLevel:        DefaultLogLevel,
		logFormat:       LogFormatPretty,
		pollInterval:    DefaultPollInterval,
		statsFreshness:  DefaultStatsFreshness,
		sessionTTL:      DefaultSessionTTL,
		requestTimeout:  DefaultRequestTimeout,
		rateLimitPerSec: DefaultRateLimitPerSec,
	}
}

// ServerURL returns the analytics backend base URL.
func (c AppConfig) ServerURL() string { return c.serverURL }

// GatewayHost returns the local gateway bind host.
func (c AppConfig) GatewayHost() string { return c.gatewayHost }

// GatewayPort returns the local gateway bind port.
func (c AppConfig) GatewayPort() int { return c.gatewayPort }

// GatewayAddr returns the combined gateway host:port address.
func (c AppConfig) GatewayAddr() string {
	return fmt.Sprintf("%s:%d", c.gatewayHost, c.gatewayPort)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// StatePath returns the local state database path.
func (c AppConfig) StatePath() string {
	return filepath.Join(c.dataDir, DefaultStateFile)
}

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// PollInterval returns the status polling interval.
func (c AppConfig) PollInterval() time.Duration { return c.pollInterval }

// StatsFreshness returns how long fetched statistics stay fresh in the cache.
func (c AppConfig) StatsFreshness() time.Duration { return c.statsFreshness }

// SessionTTL returns the lifetime of the persisted session cookie.
func (c AppConfig) SessionTTL() time.Duration { return c.sessionTTL }

// RequestTimeout returns the per-request HTTP timeout.
func (c AppConfig) RequestTimeout() time.Duration { return c.requestTimeout }

// RateLimitPerSec returns the outbound request rate limit.
func (c AppConfig) RateLimitPerSec() float64 { return c.rateLimitPerSec }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithServerURL sets the backend base URL.
func WithServerURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.serverURL = url }
}

// WithGatewayHost sets the gateway bind host.
func WithGatewayHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.gatewayHost = host }
}

// WithGatewayPort sets the gateway bind port.
func WithGatewayPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.gatewayPort = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.dataDir = dir }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithPollInterval sets the status polling interval.
func WithPollInterval(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithStatsFreshness sets the statistics cache freshness window.
func WithStatsFreshness(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.statsFreshness = d
		}
	}
}

// WithSessionTTL sets the session cookie lifetime.
func WithSessionTTL(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.sessionTTL = d
		}
	}
}

// WithRequestTimeout sets the per-request HTTP timeout.
func WithRequestTimeout(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithRateLimitPerSec sets the outbound request rate limit.
func WithRateLimitPerSec(rps float64) AppConfigOption {
	return func(c *AppConfig) {
		if rps > 0 {
			c.rateLimitPerSec = rps
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
