package agglo

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/agglo/cluster"
	"github.com/hupe1980/agglo/node"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see package promcollector).
type MetricsCollector interface {
	// RecordScore is called after every parallel scoring pass.
	// earlyTermination reports whether a shard hit the theoretical maximum.
	RecordScore(duration time.Duration, requested, scored int, earlyTermination bool, err error)

	// RecordFilter is called after the overlap filter pruned a request.
	RecordFilter(requested, removed int)

	// RecordCache is called after the result cache answered a request.
	RecordCache(hits, misses, evicted int)

	// RecordMerge is called after every merge round.
	RecordMerge(kind node.Kind, utility float64, duration time.Duration, forced bool)

	// RecordBuild is called after each Build.
	RecordBuild(duration time.Duration, merges int, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordScore(time.Duration, int, int, bool, error)    {}
func (NoopMetricsCollector) RecordFilter(int, int)                               {}
func (NoopMetricsCollector) RecordCache(int, int, int)                           {}
func (NoopMetricsCollector) RecordMerge(node.Kind, float64, time.Duration, bool) {}
func (NoopMetricsCollector) RecordBuild(time.Duration, int, error)               {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ScoreCount      atomic.Int64
	ScoreErrors     atomic.Int64
	ScoreTotalNanos atomic.Int64
	Scored          atomic.Int64
	EarlyTerminated atomic.Int64
	FilterRequested atomic.Int64
	FilterRemoved   atomic.Int64
	CacheHits       atomic.Int64
	CacheMisses     atomic.Int64
	CacheEvictions  atomic.Int64
	MergeCount      atomic.Int64
	ForcedMerges    atomic.Int64
	MergeTotalNanos atomic.Int64
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
}

// RecordScore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScore(duration time.Duration, requested, scored int, earlyTermination bool, err error) {
	b.ScoreCount.Add(1)
	b.ScoreTotalNanos.Add(duration.Nanoseconds())
	b.Scored.Add(int64(scored))
	if earlyTermination {
		b.EarlyTerminated.Add(1)
	}
	if err != nil {
		b.ScoreErrors.Add(1)
	}
}

// RecordFilter implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFilter(requested, removed int) {
	b.FilterRequested.Add(int64(requested))
	b.FilterRemoved.Add(int64(removed))
}

// RecordCache implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCache(hits, misses, evicted int) {
	b.CacheHits.Add(int64(hits))
	b.CacheMisses.Add(int64(misses))
	b.CacheEvictions.Add(int64(evicted))
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(kind node.Kind, utility float64, duration time.Duration, forced bool) {
	b.MergeCount.Add(1)
	b.MergeTotalNanos.Add(duration.Nanoseconds())
	if forced {
		b.ForcedMerges.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(duration time.Duration, merges int, err error) {
	b.BuildCount.Add(1)
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ScoreCount:      b.ScoreCount.Load(),
		ScoreErrors:     b.ScoreErrors.Load(),
		ScoreAvgNanos:   avg(b.ScoreTotalNanos.Load(), b.ScoreCount.Load()),
		Scored:          b.Scored.Load(),
		EarlyTerminated: b.EarlyTerminated.Load(),
		FilterRequested: b.FilterRequested.Load(),
		FilterRemoved:   b.FilterRemoved.Load(),
		CacheHits:       b.CacheHits.Load(),
		CacheMisses:     b.CacheMisses.Load(),
		CacheEvictions:  b.CacheEvictions.Load(),
		MergeCount:      b.MergeCount.Load(),
		ForcedMerges:    b.ForcedMerges.Load(),
		MergeAvgNanos:   avg(b.MergeTotalNanos.Load(), b.MergeCount.Load()),
		BuildCount:      b.BuildCount.Load(),
		BuildErrors:     b.BuildErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ScoreCount      int64
	ScoreErrors     int64
	ScoreAvgNanos   int64
	Scored          int64
	EarlyTerminated int64
	FilterRequested int64
	FilterRemoved   int64
	CacheHits       int64
	CacheMisses     int64
	CacheEvictions  int64
	MergeCount      int64
	ForcedMerges    int64
	MergeAvgNanos   int64
	BuildCount      int64
	BuildErrors     int64
}

// CacheHitRate returns hits / (hits + misses).
func (s BasicMetricsStats) CacheHitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

// observer forwards search and merge events to a MetricsCollector.
type observer struct {
	mc MetricsCollector
}

func (o observer) OnScore(duration time.Duration, requested, scored int, earlyTermination bool, err error) {
	o.mc.RecordScore(duration, requested, scored, earlyTermination, err)
}

func (o observer) OnFilter(requested, removed int) { o.mc.RecordFilter(requested, removed) }

func (o observer) OnCache(hits, misses, evicted int) { o.mc.RecordCache(hits, misses, evicted) }

func (o observer) onMerge(m cluster.Merge) {
	o.mc.RecordMerge(m.Kind, m.Utility, m.Duration, m.Forced)
}
