package cache

import (
	"encoding/json"
	"time"
)

// PageEntry is a stored page of rows.
type PageEntry struct {
	// Rows holds one JSON document per row, in page order
	Rows []json.RawMessage `json:"rows"`

	// Expires is when the stored page becomes stale
	Expires time.Time `json:"expires"`

	// CachedAt is when the page was stored
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the entry has expired.
func (e *PageEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *PageEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
