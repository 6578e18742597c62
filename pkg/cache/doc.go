// Package cache provides a Redis-backed page cache for the user directory.
//
// Pages are cached per request (page number and letter filter) under a
// generation number. Writes bump the generation instead of deleting keys, so
// every page cached before the write becomes unreachable at once and expires
// on its own TTL.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient, 30*time.Second)
//
//	list, gen, err := manager.Get(ctx, users.PageRequest{Page: 2, Letter: "B"})
//	if err == cache.ErrCacheMiss {
//		list = loadFromStorage()
//		_ = manager.Set(ctx, gen, users.PageRequest{Page: 2, Letter: "B"}, list)
//	}
//
// After inserting a user:
//
//	_ = manager.Invalidate(ctx)
//
// The generation returned by Get must be passed to Set. A page read under an
// old generation is then written under that old generation and is never
// served after the invalidation.
//
// # Metrics
//
//   - userdir_page_cache_hits_total
//   - userdir_page_cache_misses_total
//   - userdir_page_cache_invalidations_total
//   - userdir_page_cache_errors_total{operation}
package cache
