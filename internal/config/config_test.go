package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repovista/repovista/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.NewAppConfig()

	assert.Equal(t, config.DefaultServerURL, cfg.ServerURL())
	assert.Equal(t, "127.0.0.1:3000", cfg.GatewayAddr())
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
	assert.Equal(t, 30*time.Second, cfg.StatsFreshness())
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, filepath.Join(cfg.DataDir(), config.DefaultStateFile), cfg.StatePath())
}

func TestApplyCopies(t *testing.T) {
	base := config.NewAppConfig()
	changed := base.Apply(config.WithServerURL("https://api.example.com/v1"))

	assert.Equal(t, "https://api.example.com/v1", changed.ServerURL())
	assert.Equal(t, config.DefaultServerURL, base.ServerURL())
}

func TestEnvToAppConfig(t *testing.T) {
	env := config.EnvConfig{
		ServerURL:           "https://api.example.com/v1/",
		GatewayPort:         8123,
		PollIntervalSeconds: 0.5,
		SessionTTLDays:      1,
	}

	cfg := env.ToAppConfig()
	assert.Equal(t, "https://api.example.com/v1", cfg.ServerURL(), "trailing slash trimmed")
	assert.Equal(t, 8123, cfg.GatewayPort())
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
	assert.Equal(t, config.DefaultGatewayHost, cfg.GatewayHost(), "unset values keep defaults")
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("REPOVISTA_SERVER_URL", "http://localhost:9999/api/v1")
	t.Setenv("REPOVISTA_LOG_FORMAT", "json")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/api/v1", cfg.ServerURL())
	assert.Equal(t, config.LogFormatJSON, cfg.LogFormat())
}
