// Package cache provides the in-process projection cache used by the
// timeline engine.
package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/reprotrack/iatfmon/internal/domain/protocol"
	"github.com/reprotrack/iatfmon/internal/infrastructure/monitoring/logging"
	"github.com/reprotrack/iatfmon/pkg/errors"
)

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

// ProjectionCache is a bounded LRU of projected timelines.  It satisfies
// protocol.ProjectionCache and is safe for concurrent use.
type ProjectionCache struct {
	items  *lru.Cache[string, []protocol.ProjectedMilestone]
	logger logging.Logger
	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ protocol.ProjectionCache = (*ProjectionCache)(nil)

type Option func(*ProjectionCache)

// WithLogger logs evictions at DEBUG.
func WithLogger(l logging.Logger) Option {
	return func(c *ProjectionCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewProjectionCache builds a cache holding at most size timelines.  A size
// of 0 returns nil, nil: callers treat a nil cache as "caching disabled".
func NewProjectionCache(size int, opts ...Option) (*ProjectionCache, error) {
	if size < 0 {
		return nil, errors.InvalidParam("projection cache size must be >= 0").
			WithDetail(fmt.Sprintf("size=%d", size))
	}
	if size == 0 {
		return nil, nil
	}

	c := &ProjectionCache{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(c)
	}

	items, err := lru.NewWithEvict[string, []protocol.ProjectedMilestone](size, func(key string, _ []protocol.ProjectedMilestone) {
		c.logger.Debug("projection evicted", logging.String("key", key))
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCacheError, "failed to create projection cache")
	}
	c.items = items
	return c, nil
}

// Get implements protocol.ProjectionCache.  A nil cache always misses.
func (c *ProjectionCache) Get(key string) ([]protocol.ProjectedMilestone, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.items.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Add implements protocol.ProjectionCache.
func (c *ProjectionCache) Add(key string, milestones []protocol.ProjectedMilestone) {
	if c == nil {
		return
	}
	c.items.Add(key, milestones)
}

// Purge drops every entry; counters are kept.
func (c *ProjectionCache) Purge() {
	if c == nil {
		return
	}
	c.items.Purge()
}

// Stats reports hit and miss counters and the current size.  A nil cache
// reports zeros.
func (c *ProjectionCache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.items.Len(),
	}
}
