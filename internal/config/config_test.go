package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/talentbridge/internal/config"
	"github.com/stretchr/testify/assert"
)

func Test_MustLoadFromEnv(t *testing.T) {
	t.Setenv("TB_ENV", "local")
	t.Setenv("TB_HTTP_PORT", "8181")
	t.Setenv("TB_PROVIDER_TYPE", "google")
	t.Setenv("TB_PROVIDER_API_KEY", "testAPIKey")
	t.Setenv("TB_SEARCH_DEFAULT_CITY", "Cambridge")
	t.Setenv("TB_SEARCH_CACHE_TTL", "1m")
	t.Setenv("TB_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TB_HTTP_CORS_ORIGINS", "https://app.talentbridge.io, https://admin.talentbridge.io")

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 8181, cfg.HTTPPort)
	assert.Equal(t, 9090, cfg.MonitorPort)
	assert.Equal(t, "google", cfg.Provider.Type)
	assert.Equal(t, "testAPIKey", cfg.Provider.APIKey)
	assert.InDelta(t, 1.0, cfg.Provider.RateLimit, 0.0001)
	assert.Equal(t, "Cambridge", cfg.Search.DefaultCity)
	assert.Equal(t, "MA", cfg.Search.DefaultState)
	assert.Equal(t, 5, cfg.Search.Limit)
	assert.Equal(t, time.Minute, cfg.Search.CacheTTL)
	assert.Equal(t, 15*time.Second, cfg.Search.Timeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, []string{"https://app.talentbridge.io", "https://admin.talentbridge.io"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 10, cfg.HTTP.RateBurst)
}

func Test_MustLoadDefaults(t *testing.T) {
	cfg := config.MustLoad()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "nominatim", cfg.Provider.Type)
	assert.Equal(t, "Boston", cfg.Search.DefaultCity)
	assert.Equal(t, "-71.1912,42.4008,-70.9860,42.2279", cfg.Search.ViewBox)
	assert.Equal(t, 10*time.Minute, cfg.Search.CacheTTL)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Empty(t, cfg.Redis.URL)
}

func Test_MustLoadFromFile(t *testing.T) {
	defer filet.CleanUp(t)

	dir := filet.TmpDir(t, "")
	path := filepath.Join(dir, "talentbridge.yaml")
	filet.File(t, path, `
env: development
monitor:
  port: 9191
search:
  default_city: Somerville
  limit: 8
`)
	t.Setenv("TB_CONFIG_FILE", path)
	t.Setenv("TB_SEARCH_LIMIT", "3")

	cfg := config.MustLoad()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 9191, cfg.MonitorPort)
	assert.Equal(t, "Somerville", cfg.Search.DefaultCity)
	assert.Equal(t, 3, cfg.Search.Limit, "environment overrides the file")
}

func TestMustLoad_FileError(t *testing.T) {
	t.Setenv("TB_CONFIG_FILE", "/nonexistent/talentbridge.yaml")

	assert.PanicsWithValue(t, "failed to read configuration file", func() {
		config.MustLoad()
	})
}

func TestMustLoad_PortError(t *testing.T) {
	t.Setenv("TB_MONITOR_PORT", "error_value")

	assert.PanicsWithValue(t, "failed to parse port for monitoring server from configuration", func() {
		config.MustLoad()
	})
}

func TestMustLoad_LimitError(t *testing.T) {
	t.Setenv("TB_SEARCH_LIMIT", "error_value")

	assert.PanicsWithValue(t, "failed to parse search limit from configuration, must be an integer types", func() {
		config.MustLoad()
	})
}

func TestMustLoad_CacheTTLError(t *testing.T) {
	t.Setenv("TB_SEARCH_CACHE_TTL", "error_value")

	assert.PanicsWithValue(t, "failed to parse cache ttl from configuration", func() {
		config.MustLoad()
	})
}
