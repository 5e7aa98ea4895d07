package api

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func trackedIPs(limiter *IPRateLimiter) []string {
	var ips []string
	limiter.limiters.Range(func(key, _ any) bool {
		ips = append(ips, key.(string))
		return true
	})
	return ips
}

func TestIPRateLimiter_EvictsIdleClients(t *testing.T) {
	clock := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(rate.Limit(1), 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	limiter.now = func() time.Time { return clock }

	limiter.getLimiter("198.51.100.1")
	limiter.getLimiter("198.51.100.2")
	assert.ElementsMatch(t, []string{"198.51.100.1", "198.51.100.2"}, trackedIPs(limiter))

	clock = clock.Add(limiterIdleTTL / 2)
	limiter.getLimiter("198.51.100.2")

	clock = clock.Add(limiterIdleTTL/2 + time.Second)
	limiter.getLimiter("198.51.100.3")

	assert.ElementsMatch(t, []string{"198.51.100.2", "198.51.100.3"}, trackedIPs(limiter))
}

func TestIPRateLimiter_KeepsStateBetweenSweeps(t *testing.T) {
	clock := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(rate.Every(time.Hour), 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	limiter.now = func() time.Time { return clock }

	assert.True(t, limiter.getLimiter("198.51.100.1").Allow())

	clock = clock.Add(limiterSweepInterval * 2)
	assert.False(t, limiter.getLimiter("198.51.100.1").Allow())
}
