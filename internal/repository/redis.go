package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/talentbridge/internal/models"
	"github.com/redis/go-redis/v9"
)

// FetchCachedAddresses returns the provider output stored under key.
// The boolean result is false on a cache miss.
func (r *Repository) FetchCachedAddresses(ctx context.Context, key string) ([]models.Address, bool, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached addresses: %w", err)
	}

	var addresses []models.Address
	if err = json.Unmarshal(data, &addresses); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached addresses: %w", err)
	}

	r.log.DebugContext(ctx, "Cached addresses found", "key", key, "count", len(addresses))

	return addresses, true, nil
}

// StoreAddresses caches the provider output under key for the repository ttl.
func (r *Repository) StoreAddresses(ctx context.Context, key string, addresses []models.Address) error {
	if addresses == nil {
		addresses = []models.Address{}
	}

	data, err := json.Marshal(addresses)
	if err != nil {
		return fmt.Errorf("failed to encode addresses: %w", err)
	}

	if err = r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store addresses: %w", err)
	}

	return nil
}
