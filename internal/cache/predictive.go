// Package cache stores predictive search results in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

type Predictive struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPredictive(client *redis.Client, ttl time.Duration) *Predictive {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Predictive{client: client, ttl: ttl}
}

// Key folds the term so equivalent inputs share an entry.
func Key(shopID string, limit int, term string) string {
	return fmt.Sprintf("predictive:%s:%d:%s", shopID, limit, strings.ToLower(strings.TrimSpace(term)))
}

func (c *Predictive) Get(ctx context.Context, key string) (domain.PredictiveResult, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PredictiveResult{}, ErrCacheMiss
	}
	if err != nil {
		return domain.PredictiveResult{}, fmt.Errorf("redis get: %w", err)
	}
	var result domain.PredictiveResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.PredictiveResult{}, fmt.Errorf("unmarshal predictive result: %w", err)
	}
	return result, nil
}

func (c *Predictive) Set(ctx context.Context, key string, result domain.PredictiveResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal predictive result: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity; used by readiness.
func (c *Predictive) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
