package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/paged-grid/pkg/logging"
	"github.com/Sternrassler/paged-grid/pkg/pagination"
)

// ReadThrough returns a fetch hook that serves pages from the store and falls
// back to upstream on a miss or a store error. Pages returned by upstream are
// stored for ttl (DefaultTTL when ttl <= 0); empty pages are never stored.
func ReadThrough[R any](m *Manager, dataset string, ttl time.Duration, upstream pagination.FetchFunc[R]) pagination.FetchFunc[R] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger := logging.NewLogger("page-store")

	return func(ctx context.Context, page, pageSize int) ([]R, error) {
		key := PageKey{Dataset: dataset, Page: page, PageSize: pageSize}

		entry, err := m.Get(ctx, key)
		switch {
		case err == nil:
			rows, decodeErr := decodeRows[R](entry.Rows)
			if decodeErr == nil {
				logger.Debug().
					Str("key", key.String()).
					Int("rows", len(rows)).
					Msg("Page served from store")
				return rows, nil
			}
			CacheErrors.WithLabelValues("decode").Inc()
			logger.Warn().Err(decodeErr).Str("key", key.String()).Msg("Stored page unreadable, using upstream")
		case errors.Is(err, ErrCacheMiss):
			logger.Debug().Str("key", key.String()).Msg("Page store miss")
		default:
			logger.Warn().Err(err).Str("key", key.String()).Msg("Page store get failed, using upstream")
		}

		rows, err := upstream(ctx, page, pageSize)
		if err != nil || len(rows) == 0 {
			return rows, err
		}

		raw, err := encodeRows(rows)
		if err != nil {
			CacheErrors.WithLabelValues("encode").Inc()
			logger.Warn().Err(err).Str("key", key.String()).Msg("Page not stored")
			return rows, nil
		}

		now := time.Now()
		if err := m.Set(ctx, key, &PageEntry{Rows: raw, Expires: now.Add(ttl), CachedAt: now}); err != nil {
			logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to store page")
		}
		return rows, nil
	}
}

func encodeRows[R any](rows []R) ([]json.RawMessage, error) {
	raw := make([]json.RawMessage, len(rows))
	for i, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encode row %d: %w", i, err)
		}
		raw[i] = data
	}
	return raw, nil
}

func decodeRows[R any](raw []json.RawMessage) ([]R, error) {
	rows := make([]R, len(raw))
	for i, data := range raw {
		if err := json.Unmarshal(data, &rows[i]); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", i, err)
		}
	}
	return rows, nil
}
