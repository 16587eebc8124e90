package search

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/agglo/clusterset"
	"github.com/hupe1980/agglo/internal/resource"
	"github.com/hupe1980/agglo/node"
)

// Utilities maps combination ids of one round to their utility. A missing id
// means the combination was not worth scoring, never that it scored zero.
type Utilities map[clusterset.CombinationID]float64

// Searcher scores combinations of an open set.
type Searcher interface {
	// Search returns the utilities of the requested combination ids. The
	// bitmap is owned by the caller and must not be modified.
	Search(ctx context.Context, ids *roaring.Bitmap, set *clusterset.Set) (Utilities, error)

	// TheoreticalMaximum returns the upper bound of any utility of set.
	TheoreticalMaximum(set *clusterset.Set) float64
}

// Options configures searchers and decorators.
type Options struct {
	// Workers is the number of shards Basic scores in parallel.
	// Defaults to runtime.GOMAXPROCS(0).
	Workers int

	// Capacity bounds the number of entries of a ResultCache (0 = unbounded).
	Capacity int

	// Logger receives debug output. Defaults to a discarding logger.
	Logger *slog.Logger

	// Metrics observes search events.
	Metrics MetricsObserver

	// Resource limits worker slots and cache memory. Optional.
	Resource *resource.Controller

	// Scope selects the dirty nodes a ResultCache drains besides the nodes of
	// the searched set and of its own entries. A nil scope drains every dirty
	// node. Caches sharing a registry over disjoint node populations must each
	// be scoped to their population, so that retired nodes reach the cache
	// holding their entries.
	Scope func(n *node.Node) bool
}

// DefaultOptions contains the default options.
var DefaultOptions = Options{
	Workers:  0,
	Capacity: 0,
}

func newOptions(optFns []func(o *Options)) Options {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Capacity < 0 {
		opts.Capacity = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Metrics == nil {
		opts.Metrics = &NoopMetricsObserver{}
	}
	return opts
}

// WithWorkers sets the number of parallel shards.
func WithWorkers(n int) func(*Options) {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithCapacity bounds the result cache.
func WithCapacity(n int) func(*Options) {
	return func(o *Options) {
		o.Capacity = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetrics sets the metrics observer.
func WithMetrics(m MetricsObserver) func(*Options) {
	return func(o *Options) {
		o.Metrics = m
	}
}

// WithResource sets the resource controller.
func WithResource(rc *resource.Controller) func(*Options) {
	return func(o *Options) {
		o.Resource = rc
	}
}

// WithScope sets the dirty node scope of a ResultCache.
func WithScope(fn func(n *node.Node) bool) func(*Options) {
	return func(o *Options) {
		o.Scope = fn
	}
}
