// Package cache keeps short lived state: the set of feed items already
// turned into articles and the admin sessions.
package cache

import (
	"context"
	"time"

	"github.com/bilgisen/s13core/internal/config"
	"github.com/bilgisen/s13core/internal/logger"
)

const (
	processedSpace = "processed:"
	sessionSpace   = "session:"
)

// Cache is implemented by RedisClient and Memory. A missing key reads as
// nil with no error.
type Cache interface {
	IsProcessed(ctx context.Context, hash string) (bool, error)
	MarkProcessed(ctx context.Context, hash string, ttl time.Duration) error
	ClearProcessed(ctx context.Context) error

	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, sub string) error

	Close() error
}

// New connects to Redis when REDIS_URL is set and falls back to the
// in-process cache otherwise.
func New(cfg *config.Config) (Cache, error) {
	if cfg.RedisURL == "" {
		logger.Get().Info().Msg("REDIS_URL not set, using in-memory cache")
		return NewMemory(cfg.RedisPrefix), nil
	}
	return NewRedisClient(cfg)
}
