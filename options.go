package agglo

import (
	"time"
)

type options struct {
	workers              int
	cacheCapacity        int
	disableCache         bool
	disableOverlapFilter bool
	memoryLimitBytes     int64
	maxWorkers           int64
	progressInterval     time.Duration
	metricsCollector     MetricsCollector
	logger               *Logger
}

// Option configures a Clusterer.
type Option func(*options)

// WithWorkers sets the number of shards scored in parallel per round.
// Defaults to runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithCacheCapacity bounds the number of memoized results per node kind.
// 0 (the default) keeps every result until one of its nodes changes.
func WithCacheCapacity(n int) Option {
	return func(o *options) {
		o.cacheCapacity = n
	}
}

// WithoutCache disables result memoization. Every round rescores all
// candidate pairs.
func WithoutCache() Option {
	return func(o *options) {
		o.disableCache = true
	}
}

// WithoutOverlapFilter disables pruning of pairs without a shared attribute.
func WithoutOverlapFilter() Option {
	return func(o *options) {
		o.disableOverlapFilter = true
	}
}

// WithMemoryLimit caps the bytes held by result caches. Results that do not
// fit are recomputed instead of cached.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimitBytes = bytes
	}
}

// WithMaxWorkers caps the scoring shards running at once across all node
// kinds and concurrent builds of one Clusterer.
func WithMaxWorkers(n int64) Option {
	return func(o *options) {
		o.maxWorkers = n
	}
}

// WithProgressInterval sets the minimum interval between progress logs.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) {
		o.progressInterval = d
	}
}

// WithMetricsCollector configures a metrics collector for monitoring builds.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &agglo.BasicMetricsCollector{}
//	c := agglo.New(g, fn, agglo.WithMetricsCollector(metrics))
//	// ... build ...
//	stats := metrics.GetStats()
//	fmt.Printf("Cache hit rate: %.2f\n", stats.CacheHitRate())
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example:
//
//	logger := agglo.NewJSONLogger(slog.LevelDebug)
//	c := agglo.New(g, fn, agglo.WithLogger(logger))
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
