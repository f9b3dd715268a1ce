package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Variables carry the REPOVISTA_ prefix (e.g. REPOVISTA_SERVER_URL).
type EnvConfig struct {
	// ServerURL is the analytics backend base URL.
	// Env: REPOVISTA_SERVER_URL (default: http://localhost:8080/api/v1)
	ServerURL string `envconfig:"SERVER_URL"`

	// GatewayHost is the local gateway bind host.
	// Env: REPOVISTA_GATEWAY_HOST (default: 127.0.0.1)
	GatewayHost string `envconfig:"GATEWAY_HOST"`

	// GatewayPort is the local gateway bind port.
	// Env: REPOVISTA_GATEWAY_PORT (default: 3000)
	GatewayPort int `envconfig:"GATEWAY_PORT"`

	// DataDir is the data directory path.
	// Env: REPOVISTA_DATA_DIR
	// Default: ~/.repovista
	DataDir string `envconfig:"DATA_DIR"`

	// LogLevel is the log verbosity level.
	// Env: REPOVISTA_LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL"`

	// LogFormat is the log output format (pretty or json).
	// Env: REPOVISTA_LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT"`

	// PollIntervalSeconds is the status polling interval in seconds.
	// Env: REPOVISTA_POLL_INTERVAL_SECONDS (default: 2)
	PollIntervalSeconds float64 `envconfig:"POLL_INTERVAL_SECONDS"`

	// StatsFreshSeconds is the statistics cache freshness window in seconds.
	// Env: REPOVISTA_STATS_FRESH_SECONDS (default: 30)
	StatsFreshSeconds float64 `envconfig:"STATS_FRESH_SECONDS"`

	// SessionTTLDays is the session cookie lifetime in days.
	// Env: REPOVISTA_SESSION_TTL_DAYS (default: 7)
	SessionTTLDays float64 `envconfig:"SESSION_TTL_DAYS"`

	// RequestTimeoutSeconds is the per-request HTTP timeout in seconds.
	// Env: REPOVISTA_REQUEST_TIMEOUT_SECONDS (default: 30)
	RequestTimeoutSeconds float64 `envconfig:"REQUEST_TIMEOUT_SECONDS"`

	// RateLimitPerSec is the outbound request rate limit.
	// Env: REPOVISTA_RATE_LIMIT_PER_SEC (default: 10)
	RateLimitPerSec float64 `envconfig:"RATE_LIMIT_PER_SEC"`
}

// EnvPrefix is the prefix for all environment variables.
const EnvPrefix = "REPOVISTA"

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig, applying only set values.
func (e EnvConfig) ToAppConfig() AppConfig {
	opts := []AppConfigOption{}

	if e.ServerURL != "" {
		opts = append(opts, WithServerURL(strings.TrimRight(e.ServerURL, "/")))
	}
	if e.GatewayHost != "" {
		opts = append(opts, WithGatewayHost(e.GatewayHost))
	}
	if e.GatewayPort != 0 {
		opts = append(opts, WithGatewayPort(e.GatewayPort))
	}
	if e.DataDir != "" {
		opts = append(opts, WithDataDir(e.DataDir))
	}
	if e.LogLevel != "" {
		opts = append(opts, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		opts = append(opts, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.PollIntervalSeconds > 0 {
		opts = append(opts, WithPollInterval(secondsToDuration(e.PollIntervalSeconds)))
	}
	if e.StatsFreshSeconds > 0 {
		opts = append(opts, WithStatsFreshness(secondsToDuration(e.StatsFreshSeconds)))
	}
	if e.SessionTTLDays > 0 {
		opts = append(opts, WithSessionTTL(time.Duration(e.SessionTTLDays*24)*time.Hour))
	}
	if e.RequestTimeoutSeconds > 0 {
		opts = append(opts, WithRequestTimeout(secondsToDuration(e.RequestTimeoutSeconds)))
	}
	if e.RateLimitPerSec > 0 {
		opts = append(opts, WithRateLimitPerSec(e.RateLimitPerSec))
	}

	return NewAppConfigWithOptions(opts...)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
