// Package cache provides a Redis-backed page store for row sources.
//
// Pages fetched from an upstream (for example the HTTP page server) are stored
// as JSON rows under a deterministic key, so several viewers, or a viewer that
// restarts, can serve the same pages without hitting the upstream again.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewManager(redisClient)
//
//	key := cache.PageKey{Dataset: "orders", Page: 3, PageSize: 50}
//	entry, err := store.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch upstream, then store.Set(ctx, key, entry)
//	}
//
// # Read-through fetching
//
// ReadThrough wraps a pagination.FetchFunc so a RowSource reads pages from Redis
// first and only falls back to the upstream on a miss:
//
//	fetch := cache.ReadThrough(store, "orders", 10*time.Minute, upstream)
//	src, err := pagination.New(cfg, pagination.Hooks[Order]{Fetch: fetch, Render: render})
//
// Pages for which the upstream returned no data are never stored, so they stay
// retry-eligible. Redis errors are logged and counted, and the upstream is used
// instead.
//
// # Metrics
//
//   - grid_page_cache_hits_total - Pages served from Redis
//   - grid_page_cache_misses_total - Pages not in Redis
//   - grid_page_cache_errors_total{operation} - Redis errors
//   - grid_page_cache_size_bytes - Bytes written to Redis
package cache
