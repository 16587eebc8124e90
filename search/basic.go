package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/agglo/clusterset"
	"github.com/hupe1980/agglo/internal/resource"
	"github.com/hupe1980/agglo/scoring"
	"golang.org/x/sync/errgroup"
)

// Basic scores combinations with a scoring function, one shard per worker.
type Basic struct {
	fn      scoring.Function
	workers int
	logger  *slog.Logger
	metrics MetricsObserver
	rc      *resource.Controller
}

// NewBasic creates the innermost searcher of a chain.
func NewBasic(fn scoring.Function, optFns ...func(o *Options)) *Basic {
	opts := newOptions(optFns)
	return &Basic{
		fn:      fn,
		workers: opts.Workers,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		rc:      opts.Resource,
	}
}

// TheoreticalMaximum implements Searcher.
func (b *Basic) TheoreticalMaximum(set *clusterset.Set) float64 {
	return b.fn.TheoreticalMaximum(set)
}

// Search implements Searcher.
//
// The requested ids are split into contiguous shards scored in parallel. The
// call returns after every shard finished. Any scoring error fails the whole
// call; a partial result is never returned.
func (b *Basic) Search(ctx context.Context, ids *roaring.Bitmap, set *clusterset.Set) (Utilities, error) {
	if ids == nil || ids.IsEmpty() {
		return Utilities{}, nil
	}
	if last := ids.Maximum(); int(last) >= set.NumCombinations() {
		return nil, invariant("basic", ErrUnknownCombination, "id %d, open set has %d combinations", last, set.NumCombinations())
	}

	start := time.Now()
	maximum := b.fn.TheoreticalMaximum(set)
	all := ids.ToArray()

	shards := min(b.workers, len(all))
	size := (len(all) + shards - 1) / shards
	results := make([]Utilities, shards)

	// One flag per call; raised at most once and never reset.
	var found atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	for s := range shards {
		lo := s * size
		hi := min(lo+size, len(all))
		if lo >= hi {
			continue
		}
		g.Go(func() (err error) {
			if err := b.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer b.rc.ReleaseWorker()

			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: panic: %v", ErrScoringFailed, r)
				}
			}()

			out, err := b.scoreShard(gctx, all[lo:hi], set, maximum, &found)
			results[s] = out
			return err
		})
	}

	err := g.Wait()
	scored := 0
	for _, r := range results {
		scored += len(r)
	}
	b.metrics.OnScore(time.Since(start), len(all), scored, found.Load(), err)
	if err != nil {
		return nil, err
	}

	utilities := make(Utilities, scored)
	for _, r := range results {
		for id, u := range r {
			utilities[id] = u
		}
	}

	b.logger.Debug("scored combinations",
		"requested", len(all),
		"scored", scored,
		"shards", shards,
		"early_termination", found.Load(),
		"duration", time.Since(start))

	return utilities, nil
}

func (b *Basic) scoreShard(ctx context.Context, ids []clusterset.CombinationID, set *clusterset.Set, maximum float64, found *atomic.Bool) (Utilities, error) {
	out := make(Utilities, len(ids))
	for _, id := range ids {
		if found.Load() {
			return out, nil
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		c := set.Combination(id)
		u, err := b.fn.Utility(c, set)
		if err != nil {
			return out, fmt.Errorf("%w: %s: %w", ErrScoringFailed, c, err)
		}
		switch {
		case math.IsNaN(u):
			return out, invariant("basic", ErrInvalidUtility, "combination %s", c)
		case u > maximum:
			return out, invariant("basic", ErrUtilityExceedsMaximum, "combination %s scored %v, maximum %v", c, u, maximum)
		case u == maximum:
			out[id] = u
			found.Store(true)
			return out, nil
		}
		out[id] = u
	}
	return out, nil
}
