package dataset

import (
	"context"
	"sync"

	"github.com/shardfeed/shardfeed/pkg/metrics"
)

// InfoCache memoizes split metadata lookups. Resolving split tables can
// involve disk or network reads, and every pipeline construction needs
// the same answer, so results are kept for the lifetime of the cache.
type InfoCache struct {
	provider InfoProvider
	metrics  *metrics.Registry

	mu      sync.Mutex
	entries map[string]map[string]SplitInfo
}

// NewInfoCache wraps a provider with memoization. A nil registry
// disables instrumentation.
func NewInfoCache(provider InfoProvider, reg *metrics.Registry) *InfoCache {
	return &InfoCache{
		provider: provider,
		metrics:  reg,
		entries:  make(map[string]map[string]SplitInfo),
	}
}

// SplitInfo implements InfoProvider. Errors are not cached so transient
// failures can be retried.
func (c *InfoCache) SplitInfo(ctx context.Context, name string, opts Options) (map[string]SplitInfo, error) {
	key := name + "\x00" + opts.DataDir

	c.mu.Lock()
	if infos, ok := c.entries[key]; ok {
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.MetadataCacheHits.WithLabelValues(name).Inc()
		}
		return infos, nil
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.MetadataCacheMisses.WithLabelValues(name).Inc()
	}

	infos, err := c.provider.SplitInfo(ctx, name, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = infos
	c.mu.Unlock()

	return infos, nil
}
