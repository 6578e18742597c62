package cache

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewClient builds a Redis client from REDIS_URL, which may be either a
// redis:// URL or a bare host:port.
func NewClient(raw string) (*redis.Client, error) {
	if strings.HasPrefix(raw, "redis://") || strings.HasPrefix(raw, "rediss://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: raw}), nil
}
