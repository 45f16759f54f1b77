package protocol

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	return e
}

func anchorAt(id string, start time.Time) Anchor {
	return Anchor{ProtocolID: id, Name: "Lote " + id, StartDate: start}
}

// mapCache is a minimal ProjectionCache that counts hits and writes.
type mapCache struct {
	mu     sync.Mutex
	items  map[string][]ProjectedMilestone
	hits   int
	writes int
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string][]ProjectedMilestone)}
}

func (c *mapCache) Get(key string) ([]ProjectedMilestone, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *mapCache) Add(key string, ms []ProjectedMilestone) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = ms
	c.writes++
}
