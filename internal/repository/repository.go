package repository

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UnknownOlympus/talentbridge/internal/models"
	"github.com/redis/go-redis/v9"
)

// Redis is the subset of the redis client used by the repository.
type Redis interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type Repository struct {
	rdb Redis
	ttl time.Duration
	log *slog.Logger
}

type Interface interface {
	FetchCachedAddresses(ctx context.Context, key string) ([]models.Address, bool, error)
	StoreAddresses(ctx context.Context, key string, addresses []models.Address) error
}

// NewRepository creates a new instance of Repository with the provided redis client.
// Entries are stored with the given ttl.
func NewRepository(rdb Redis, ttl time.Duration, log *slog.Logger) *Repository {
	return &Repository{rdb: rdb, ttl: ttl, log: log}
}

// NewRedisClient connects to redis using a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	const pingTimeout = 3 * time.Second
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err = client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// CacheKey builds a deterministic cache key from parts.
func CacheKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(joined))

	return fmt.Sprintf("tb:addr:%x", hash[:12])
}
