package api

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RouterConfig holds the HTTP layer settings.
type RouterConfig struct {
	CORSOrigins []string // Allowed origins, "*" allows any
	RateLimit   float64  // Requests per second per client IP, 0 disables limiting
	RateBurst   int      // Burst size per client IP
}

// NewRouter builds the gin engine serving the public API.
func NewRouter(cfg RouterConfig, handler *Handler, log *slog.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger(log))
	engine.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	api := engine.Group("/api")
	api.GET("/health", handler.Health)

	search := api.Group("/address")
	if cfg.RateLimit > 0 {
		limiter := NewIPRateLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1), log)
		search.Use(limiter.RateLimit())
	}
	search.GET("/search", handler.SearchAddresses)

	return engine
}

func corsConfig(origins []string) cors.Config {
	const maxAge = 12 * time.Hour

	config := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", RequestIDHeader}
	config.ExposeHeaders = []string{RequestIDHeader}
	config.MaxAge = maxAge

	return config
}
