package cache

import (
	"time"

	"github.com/Sternrassler/user-directory/pkg/users"
)

// PageEntry represents a cached page of users.
type PageEntry struct {
	// Users is the page content in storage order.
	Users []users.User `json:"users"`

	// CachedAt is when the page was stored.
	CachedAt time.Time `json:"cached_at"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`
}

// IsExpired returns true if the entry has expired at now.
func (e *PageEntry) IsExpired(now time.Time) bool {
	return now.After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *PageEntry) TTL(now time.Time) time.Duration {
	ttl := e.Expires.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
