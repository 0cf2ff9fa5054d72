// Package cache memoizes aggregation responses. Entries are keyed by the
// ledger version they were computed from, so a mutation makes every older
// entry unreachable and the TTL only bounds memory.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Key builds a cache key from a route, its query and the ledger version.
// Query values are encoded in sorted order so equivalent requests share a key.
func Key(route string, query url.Values, version uint64) string {
	return fmt.Sprintf("%s?%s@%d", route, query.Encode(), version)
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic cleanup over registered caches.
type Manager struct {
	caches []Cleaner
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Run cleans all registered caches every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanAll(); n > 0 {
				slog.DebugContext(ctx, "Expired cache entries removed", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// CleanAll runs one cleanup pass and returns how many entries were removed.
func (m *Manager) CleanAll() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}
