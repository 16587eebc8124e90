package search

import (
	"context"
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/agglo/clusterset"
)

// OverlapFilter drops pairs whose nodes share no attribute key before
// delegating. Such a pair cannot score above the minimum utility, so dropping
// it never hides the best merge.
//
// Pairs confirmed to overlap are remembered across rounds by node set, since
// combination ids are renumbered when the set shrinks. Merges only rewrite a
// shared key to the merged parent, so a known pair keeps overlapping and is
// not tested again. The known set only grows.
type OverlapFilter struct {
	inner   Searcher
	known   map[clusterset.Key]struct{}
	logger  *slog.Logger
	metrics MetricsObserver
}

// NewOverlapFilter wraps inner.
func NewOverlapFilter(inner Searcher, optFns ...func(o *Options)) *OverlapFilter {
	opts := newOptions(optFns)
	return &OverlapFilter{
		inner:   inner,
		known:   make(map[clusterset.Key]struct{}),
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// TheoreticalMaximum implements Searcher.
func (f *OverlapFilter) TheoreticalMaximum(set *clusterset.Set) float64 {
	return f.inner.TheoreticalMaximum(set)
}

// Known returns the number of pairs remembered as overlapping.
func (f *OverlapFilter) Known() int { return len(f.known) }

// Search implements Searcher.
func (f *OverlapFilter) Search(ctx context.Context, ids *roaring.Bitmap, set *clusterset.Set) (Utilities, error) {
	if ids == nil || ids.IsEmpty() {
		return f.inner.Search(ctx, ids, set)
	}

	survivors := ids.Clone()
	removed := 0

	it := ids.Iterator()
	for it.HasNext() {
		id := it.Next()
		if int(id) >= set.NumCombinations() {
			// Left for the inner searcher to reject.
			continue
		}
		a, b := set.Pair(id)
		key := clusterset.KeyOf(a, b)
		if _, ok := f.known[key]; ok {
			continue
		}
		if a.SharesAttribute(b) {
			f.known[key] = struct{}{}
			continue
		}
		survivors.Remove(id)
		removed++
	}

	requested := int(ids.GetCardinality())
	f.metrics.OnFilter(requested, removed)
	f.logger.Debug("filtered combinations without shared attributes",
		"requested", requested,
		"removed", removed,
		"known", len(f.known))

	if survivors.IsEmpty() {
		return Utilities{}, nil
	}
	return f.inner.Search(ctx, survivors, set)
}
