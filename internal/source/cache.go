package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/gyaneshwarpardhi/netbench/internal/metrics"
	"github.com/gyaneshwarpardhi/netbench/internal/record"
)

// Cached reuses a fetch result for ttl. Queries whose Since falls into the
// same ttl-wide slot share an entry.
type Cached struct {
	src   Source
	ttl   time.Duration
	cache *ttlcache.Cache[string, []record.Raw]
}

func NewCached(src Source, ttl time.Duration) *Cached {
	return &Cached{
		src: src,
		ttl: ttl,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, []record.Raw](ttl),
		),
	}
}

func (c *Cached) Fetch(ctx context.Context, q Query) ([]record.Raw, error) {
	key := c.key(q)
	if item := c.cache.Get(key); item != nil {
		metrics.SourceCacheHits.Inc()
		return item.Value(), nil
	}
	raws, err := c.src.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, raws, ttlcache.DefaultTTL)
	return raws, nil
}

// Invalidate drops every cached result.
func (c *Cached) Invalidate() {
	c.cache.DeleteAll()
}

func (c *Cached) key(q Query) string {
	return fmt.Sprintf("%d/%d", q.Since.Truncate(c.ttl).Unix(), q.Limit)
}
