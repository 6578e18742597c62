package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/user-directory/pkg/users"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrCacheMiss indicates the requested page was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// DefaultTTL is how long a page stays cached when no TTL is configured.
const DefaultTTL = 30 * time.Second

// Manager handles page caching with a Redis backend.
type Manager struct {
	redis  *redis.Client
	ttl    time.Duration
	clock  clockwork.Clock
	logger zerolog.Logger
}

// NewManager creates a new page cache. A non-positive ttl uses DefaultTTL.
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		redis:  redisClient,
		ttl:    ttl,
		clock:  clockwork.NewRealClock(),
		logger: log.With().Str("component", "page-cache").Logger(),
	}
}

// WithClock replaces the clock used for entry timestamps (for testing).
func (m *Manager) WithClock(clock clockwork.Clock) *Manager {
	m.clock = clock
	return m
}

// Generation returns the current page generation. A missing counter is 0.
func (m *Manager) Generation(ctx context.Context) (int64, error) {
	gen, err := m.redis.Get(ctx, GenerationKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return gen, nil
}

// Get retrieves a cached page. The returned generation must be passed to Set
// when the caller fills the cache after a miss.
// Returns ErrCacheMiss if the page is absent or expired.
func (m *Manager) Get(ctx context.Context, req users.PageRequest) ([]users.User, int64, error) {
	gen, err := m.Generation(ctx)
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, 0, err
	}

	key := PageKey{Generation: gen, Request: req}

	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, gen, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, gen, fmt.Errorf("redis get: %w", err)
	}

	var entry PageEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, gen, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired(m.clock.Now()) {
		_ = m.redis.Del(ctx, key.String()).Err()
		CacheMisses.Inc()
		return nil, gen, ErrCacheMiss
	}

	CacheHits.Inc()
	m.logger.Debug().Str("key", key.String()).Int("count", len(entry.Users)).Msg("Page cache hit")

	return entry.Users, gen, nil
}

// Set stores a page under the given generation with the manager's TTL.
func (m *Manager) Set(ctx context.Context, generation int64, req users.PageRequest, list []users.User) error {
	now := m.clock.Now()
	entry := PageEntry{
		Users:    list,
		CachedAt: now,
		Expires:  now.Add(m.ttl),
	}
	if entry.Users == nil {
		entry.Users = []users.User{}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal page entry: %w", err)
	}

	key := PageKey{Generation: generation, Request: req}
	if err := m.redis.Set(ctx, key.String(), data, m.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	m.logger.Debug().Str("key", key.String()).Dur("ttl", m.ttl).Msg("Cached page")
	return nil
}

// Invalidate bumps the generation so every cached page becomes unreachable.
func (m *Manager) Invalidate(ctx context.Context) error {
	gen, err := m.redis.Incr(ctx, GenerationKey).Result()
	if err != nil {
		CacheErrors.WithLabelValues("invalidate").Inc()
		return fmt.Errorf("redis incr generation: %w", err)
	}

	CacheInvalidations.Inc()
	m.logger.Debug().Int64("generation", gen).Msg("Page cache invalidated")
	return nil
}

// Ping checks the Redis connection.
func (m *Manager) Ping(ctx context.Context) error {
	return m.redis.Ping(ctx).Err()
}
