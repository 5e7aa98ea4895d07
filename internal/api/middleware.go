package api

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// RequestIDHeader carries the request identifier in both directions.
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "requestID"
)

// RequestID tags every request with an identifier, reusing the caller's one when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}

// RequestLogger logs HTTP requests with timing.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.InfoContext(c.Request.Context(), "HTTP request",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP())
	}
}

const (
	// limiterIdleTTL is how long a client IP may stay silent before its limiter is dropped.
	limiterIdleTTL = 10 * time.Minute
	// limiterSweepInterval is the minimum time between two sweeps of idle limiters.
	limiterSweepInterval = time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// IPRateLimiter manages per-IP rate limiters. Limiters of clients idle for
// longer than limiterIdleTTL are evicted.
type IPRateLimiter struct {
	limiters  sync.Map // client IP -> *ipLimiter
	rate      rate.Limit
	burst     int
	log       *slog.Logger
	now       func() time.Time
	lastSweep atomic.Int64
}

// NewIPRateLimiter creates a new IP-based rate limiter.
func NewIPRateLimiter(r rate.Limit, burst int, log *slog.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
		log:   log,
		now:   time.Now,
	}
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	now := i.now().UnixNano()
	i.sweep(now)

	entry, ok := i.limiters.Load(ip)
	if !ok {
		fresh := &ipLimiter{limiter: rate.NewLimiter(i.rate, i.burst)}
		fresh.lastSeen.Store(now)
		entry, _ = i.limiters.LoadOrStore(ip, fresh)
	}
	client := entry.(*ipLimiter)
	client.lastSeen.Store(now)

	return client.limiter
}

// sweep drops idle limiters at most once per limiterSweepInterval.
func (i *IPRateLimiter) sweep(now int64) {
	last := i.lastSweep.Load()
	if last == 0 {
		i.lastSweep.CompareAndSwap(0, now)
		return
	}
	if now-last < int64(limiterSweepInterval) || !i.lastSweep.CompareAndSwap(last, now) {
		return
	}

	cutoff := now - int64(limiterIdleTTL)
	i.limiters.Range(func(key, value any) bool {
		if value.(*ipLimiter).lastSeen.Load() < cutoff {
			i.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit returns a middleware that rate limits by IP.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		if !i.getLimiter(ip).Allow() {
			i.log.WarnContext(c.Request.Context(), "Rate limit exceeded", "ip", ip, "path", c.Request.URL.Path)
			writeError(c, http.StatusTooManyRequests, "rate limit exceeded", "")
			return
		}

		c.Next()
	}
}
