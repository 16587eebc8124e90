package search

import (
	"context"
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/agglo/clusterset"
	"github.com/hupe1980/agglo/internal/cache"
	"github.com/hupe1980/agglo/node"
)

// CacheStats is a snapshot of ResultCache counters.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// HitRate returns the fraction of lookups served from the cache.
func (s CacheStats) HitRate() float64 {
	if total := s.Hits + s.Misses; total > 0 {
		return float64(s.Hits) / float64(total)
	}
	return 0
}

// ResultCache memoizes utilities by node set and delegates only the
// combinations it cannot answer.
//
// An entry is valid while none of its nodes is dirty. Every Search first
// revalidates: dirty nodes are drained from the registry and their entries
// evicted, so a result is never served for a node that changed after the
// result was computed.
type ResultCache struct {
	inner    Searcher
	registry *node.Registry
	scope    func(n *node.Node) bool
	store    *cache.Store
	logger   *slog.Logger
	metrics  MetricsObserver
}

// NewResultCache wraps inner. registry must be the registry the nodes of the
// searched sets mark themselves dirty in.
func NewResultCache(inner Searcher, registry *node.Registry, optFns ...func(o *Options)) *ResultCache {
	opts := newOptions(optFns)
	return &ResultCache{
		inner:    inner,
		registry: registry,
		scope:    opts.Scope,
		store:    cache.New(opts.Capacity, opts.Resource),
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// TheoreticalMaximum implements Searcher.
func (c *ResultCache) TheoreticalMaximum(set *clusterset.Set) float64 {
	return c.inner.TheoreticalMaximum(set)
}

// Stats returns the cache counters.
func (c *ResultCache) Stats() CacheStats {
	s := c.store.Stats()
	return CacheStats{
		Hits:      s.Hits,
		Misses:    s.Misses,
		Evictions: s.Evictions,
		Size:      s.Size,
	}
}

// Reset drops every entry and releases its memory reservation. Counters are
// kept.
func (c *ResultCache) Reset() { c.store.Clear() }

// Len returns the number of cached entries.
func (c *ResultCache) Len() int { return c.store.Len() }

// Revalidate drains the dirty nodes this cache is responsible for and evicts
// their entries. It returns the number of evicted entries. Calling it again
// without an intervening mutation evicts nothing.
func (c *ResultCache) Revalidate(set *clusterset.Set) int {
	drained := c.registry.DrainFunc(func(n *node.Node) bool {
		return c.scope == nil || c.scope(n) || set.Contains(n) || c.store.Tracks(n)
	})

	evicted := 0
	for _, n := range drained {
		if set.Contains(n) {
			it := set.CombinationsContaining(n).Iterator()
			for it.HasNext() {
				if c.store.Delete(set.Combination(it.Next()).Key()) {
					evicted++
				}
			}
		}
		// Entries whose other members already left the set.
		evicted += c.store.EvictNode(n)
	}

	if len(drained) > 0 {
		c.logger.Debug("revalidated result cache",
			"dirty", len(drained),
			"evicted", evicted,
			"size", c.store.Len())
	}
	return evicted
}

// Search implements Searcher.
func (c *ResultCache) Search(ctx context.Context, ids *roaring.Bitmap, set *clusterset.Set) (Utilities, error) {
	evicted := c.Revalidate(set)
	if ids == nil || ids.IsEmpty() {
		return Utilities{}, nil
	}

	result := make(Utilities, ids.GetCardinality())
	remaining := ids.Clone()

	hits := 0
	if c.store.Len() > 0 {
		it := ids.Iterator()
		for it.HasNext() {
			id := it.Next()
			if int(id) >= set.NumCombinations() {
				continue
			}
			comb := set.Combination(id)
			e, ok := c.store.Get(comb.Key())
			if !ok {
				continue
			}
			for _, n := range e.Nodes {
				if n.IsDirty() {
					return nil, invariant("cache", ErrStaleCacheEntry, "combination %s, dirty member %s", comb, n)
				}
			}
			result[id] = e.Utility
			remaining.Remove(id)
			hits++
		}
	}

	requested := int(ids.GetCardinality())
	misses := requested - hits
	c.metrics.OnCache(hits, misses, evicted)
	c.logger.Debug("results found in cache",
		"found", hits,
		"requested", requested)

	if remaining.IsEmpty() {
		return result, nil
	}

	fresh, err := c.inner.Search(ctx, remaining, set)
	if err != nil {
		return nil, err
	}
	for id, u := range fresh {
		c.store.Set(set.Combination(id), u)
		result[id] = u
	}
	return result, nil
}
