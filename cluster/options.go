package cluster

import (
	"log/slog"
	"time"

	"github.com/hupe1980/agglo/internal/resource"
	"github.com/hupe1980/agglo/search"
)

// Options configures a Builder.
type Options struct {
	// Workers is the number of shards scored in parallel per round.
	// Defaults to runtime.GOMAXPROCS(0).
	Workers int

	// CacheCapacity bounds the result cache of each kind (0 = unbounded).
	CacheCapacity int

	// DisableCache skips the result cache decorator.
	DisableCache bool

	// DisableOverlapFilter skips the attribute overlap decorator.
	DisableOverlapFilter bool

	// Logger receives progress and debug output.
	Logger *slog.Logger

	// Metrics observes the search chains.
	Metrics search.MetricsObserver

	// Resource limits worker slots and cache memory.
	Resource *resource.Controller

	// ProgressInterval throttles progress logs. Defaults to 5s.
	ProgressInterval time.Duration

	// OnMerge is called after every merge.
	OnMerge func(m Merge)
}

// DefaultOptions contains the default options.
var DefaultOptions = Options{
	ProgressInterval: 5 * time.Second,
}

// WithWorkers sets the number of parallel scoring shards.
func WithWorkers(n int) func(*Options) {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithCacheCapacity bounds each result cache.
func WithCacheCapacity(n int) func(*Options) {
	return func(o *Options) {
		o.CacheCapacity = n
	}
}

// WithoutCache disables result caching.
func WithoutCache() func(*Options) {
	return func(o *Options) {
		o.DisableCache = true
	}
}

// WithoutOverlapFilter disables the attribute overlap filter.
func WithoutOverlapFilter() func(*Options) {
	return func(o *Options) {
		o.DisableOverlapFilter = true
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetrics sets the search metrics observer.
func WithMetrics(m search.MetricsObserver) func(*Options) {
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

// WithProgressInterval sets the minimum interval between progress logs.
func WithProgressInterval(d time.Duration) func(*Options) {
	return func(o *Options) {
		o.ProgressInterval = d
	}
}

// WithOnMerge registers a merge callback.
func WithOnMerge(fn func(m Merge)) func(*Options) {
	return func(o *Options) {
		o.OnMerge = fn
	}
}
