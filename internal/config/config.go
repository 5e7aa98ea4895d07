package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the address search service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - HTTPPort: The port for the public API server.
// - MonitorPort: The port for the health and metrics server.
// - Provider: Settings of the upstream geocoding provider.
// - Search: Locality defaults and limits applied to every search.
// - Redis: Connection settings for the result cache and session storage.
// - HTTP: Settings shared by the API server middleware.
type Config struct {
	Env         string         // Env is the current environment: local, development, production.
	HTTPPort    int            // HTTPPort is the public API port.
	MonitorPort int            // MonitorPort is the health/metrics server port.
	Provider    ProviderConfig // Provider configures the geocoding provider.
	Search      SearchConfig   // Search holds locality defaults and limits.
	Redis       RedisConfig    // Redis holds the cache connection settings.
	HTTP        HTTPConfig     // HTTP holds API middleware settings.
}

// ProviderConfig describes which geocoding provider to use and how to reach it.
type ProviderConfig struct {
	Type      string  // Type is "nominatim" or "google".
	APIKey    string  // APIKey is required by the Google provider.
	BaseURL   string  // BaseURL overrides the Nominatim endpoint (self-hosted instances).
	UserAgent string  // UserAgent identifies the service per the provider usage policy.
	RateLimit float64 // RateLimit is the maximum number of provider requests per second.
}

// SearchConfig holds the target market of the deployment.
type SearchConfig struct {
	DefaultCity  string        // DefaultCity is used when a request carries no city.
	DefaultState string        // DefaultState is used when a request carries no state.
	ViewBox      string        // ViewBox restricts provider results to the metro area.
	Limit        int           // Limit is the default number of results.
	CacheTTL     time.Duration // CacheTTL is how long provider results stay cached; 0 disables caching.
	Timeout      time.Duration // Timeout bounds a single search request.
}

// RedisConfig holds the redis connection string. An empty URL disables redis.
type RedisConfig struct {
	URL string
}

// HTTPConfig holds the API server middleware settings.
type HTTPConfig struct {
	CORSOrigins []string // CORSOrigins lists allowed browser origins; "*" allows all.
	RateLimit   float64  // RateLimit is the per-IP request rate (requests per second).
	RateBurst   int      // RateBurst is the per-IP burst size.
}

// MustLoad reads the configuration from the environment, an optional .env file
// and an optional YAML file referenced by TB_CONFIG_FILE. It panics on malformed values.
func MustLoad() *Config {
	_ = godotenv.Load()

	vpr := newViper()

	if file := os.Getenv("TB_CONFIG_FILE"); file != "" {
		vpr.SetConfigFile(file)
		if err := vpr.ReadInConfig(); err != nil {
			panic("failed to read configuration file")
		}
	}

	httpPort, err := strconv.Atoi(vpr.GetString("http.port"))
	if err != nil {
		panic("failed to parse port for api server from configuration")
	}

	monitorPort, err := strconv.Atoi(vpr.GetString("monitor.port"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	providerRate, err := strconv.ParseFloat(vpr.GetString("provider.rate_limit"), 64)
	if err != nil {
		panic("failed to parse provider rate limit from configuration, must be a number")
	}

	limit, err := strconv.Atoi(vpr.GetString("search.limit"))
	if err != nil {
		panic("failed to parse search limit from configuration, must be an integer types")
	}

	cacheTTL, err := time.ParseDuration(vpr.GetString("search.cache_ttl"))
	if err != nil {
		panic("failed to parse cache ttl from configuration")
	}

	timeout, err := time.ParseDuration(vpr.GetString("search.timeout"))
	if err != nil {
		panic("failed to parse search timeout from configuration")
	}

	httpRate, err := strconv.ParseFloat(vpr.GetString("http.rate_limit"), 64)
	if err != nil {
		panic("failed to parse http rate limit from configuration, must be a number")
	}

	httpBurst, err := strconv.Atoi(vpr.GetString("http.rate_burst"))
	if err != nil {
		panic("failed to parse http rate burst from configuration, must be an integer types")
	}

	return &Config{
		Env:         vpr.GetString("env"),
		HTTPPort:    httpPort,
		MonitorPort: monitorPort,
		Provider: ProviderConfig{
			Type:      vpr.GetString("provider.type"),
			APIKey:    vpr.GetString("provider.api_key"),
			BaseURL:   vpr.GetString("provider.base_url"),
			UserAgent: vpr.GetString("provider.user_agent"),
			RateLimit: providerRate,
		},
		Search: SearchConfig{
			DefaultCity:  vpr.GetString("search.default_city"),
			DefaultState: vpr.GetString("search.default_state"),
			ViewBox:      vpr.GetString("search.viewbox"),
			Limit:        limit,
			CacheTTL:     cacheTTL,
			Timeout:      timeout,
		},
		Redis: RedisConfig{
			URL: vpr.GetString("redis.url"),
		},
		HTTP: HTTPConfig{
			CORSOrigins: splitList(vpr.GetString("http.cors_origins")),
			RateLimit:   httpRate,
			RateBurst:   httpBurst,
		},
	}
}

func newViper() *viper.Viper {
	vpr := viper.New()
	vpr.SetEnvPrefix("TB")
	vpr.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vpr.AutomaticEnv()

	vpr.SetDefault("env", "production")
	vpr.SetDefault("http.port", "8080")
	vpr.SetDefault("monitor.port", "9090")
	vpr.SetDefault("provider.type", "nominatim")
	vpr.SetDefault("provider.api_key", "")
	vpr.SetDefault("provider.base_url", "https://nominatim.openstreetmap.org/search")
	vpr.SetDefault("provider.user_agent", "TalentBridge-Address-Search/1.0 (https://github.com/UnknownOlympus/talentbridge)")
	vpr.SetDefault("provider.rate_limit", "1")
	vpr.SetDefault("search.default_city", "Boston")
	vpr.SetDefault("search.default_state", "MA")
	vpr.SetDefault("search.viewbox", "-71.1912,42.4008,-70.9860,42.2279")
	vpr.SetDefault("search.limit", "5")
	vpr.SetDefault("search.cache_ttl", "10m")
	vpr.SetDefault("search.timeout", "15s")
	vpr.SetDefault("redis.url", "")
	vpr.SetDefault("http.cors_origins", "*")
	vpr.SetDefault("http.rate_limit", "5")
	vpr.SetDefault("http.rate_burst", "10")

	return vpr
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}
