// Package promcollector exports agglo metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	c := agglo.New(g, fn, agglo.WithMetricsCollector(promcollector.New(reg)))
package promcollector

import (
	"time"

	"github.com/hupe1980/agglo/node"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "agglo"

// Collector implements agglo.MetricsCollector on Prometheus metrics.
type Collector struct {
	scoreTotal      *prometheus.CounterVec
	scoreDuration   prometheus.Histogram
	scored          prometheus.Counter
	filterRequested prometheus.Counter
	filterRemoved   prometheus.Counter
	cacheLookups    *prometheus.CounterVec
	cacheEvictions  prometheus.Counter
	mergeTotal      *prometheus.CounterVec
	mergeUtility    *prometheus.HistogramVec
	mergeDuration   *prometheus.HistogramVec
	buildTotal      *prometheus.CounterVec
	buildDuration   prometheus.Histogram
}

// New registers the metrics on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		scoreTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "score_passes_total",
			Help:      "Parallel scoring passes by result",
		}, []string{"result"}),
		scoreDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "score_duration_seconds",
			Help:      "Duration of one parallel scoring pass",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		}),
		scored: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "combinations_scored_total",
			Help:      "Combinations scored by the scoring function",
		}),
		filterRequested: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "filter_requested_total",
			Help:      "Combinations seen by the overlap filter",
		}),
		filterRemoved: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "filter_removed_total",
			Help:      "Combinations dropped for lack of a shared attribute",
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by outcome",
		}, []string{"outcome"}),
		cacheEvictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_evictions_total",
			Help:      "Result cache entries evicted by revalidation",
		}),
		mergeTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "merges_total",
			Help:      "Merge rounds by node kind and mode",
		}, []string{"kind", "mode"}),
		mergeUtility: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "merge_utility",
			Help:      "Utility of selected merges",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"kind"}),
		mergeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "merge_duration_seconds",
			Help:      "Duration of one merge round",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"kind"}),
		buildTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "builds_total",
			Help:      "Tree builds by result",
		}, []string{"result"}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of a tree build",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16), // 10ms to ~5min
		}),
	}
}

// RecordScore implements agglo.MetricsCollector.
func (c *Collector) RecordScore(duration time.Duration, requested, scored int, earlyTermination bool, err error) {
	result := "complete"
	switch {
	case err != nil:
		result = "error"
	case earlyTermination:
		result = "early_termination"
	}
	c.scoreTotal.WithLabelValues(result).Inc()
	c.scoreDuration.Observe(duration.Seconds())
	c.scored.Add(float64(scored))
}

// RecordFilter implements agglo.MetricsCollector.
func (c *Collector) RecordFilter(requested, removed int) {
	c.filterRequested.Add(float64(requested))
	c.filterRemoved.Add(float64(removed))
}

// RecordCache implements agglo.MetricsCollector.
func (c *Collector) RecordCache(hits, misses, evicted int) {
	c.cacheLookups.WithLabelValues("hit").Add(float64(hits))
	c.cacheLookups.WithLabelValues("miss").Add(float64(misses))
	c.cacheEvictions.Add(float64(evicted))
}

// RecordMerge implements agglo.MetricsCollector.
func (c *Collector) RecordMerge(kind node.Kind, utility float64, duration time.Duration, forced bool) {
	mode := "selected"
	if forced {
		mode = "forced"
	}
	c.mergeTotal.WithLabelValues(kind.String(), mode).Inc()
	c.mergeDuration.WithLabelValues(kind.String()).Observe(duration.Seconds())
	if !forced {
		c.mergeUtility.WithLabelValues(kind.String()).Observe(utility)
	}
}

// RecordBuild implements agglo.MetricsCollector.
func (c *Collector) RecordBuild(duration time.Duration, merges int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	c.buildTotal.WithLabelValues(result).Inc()
	c.buildDuration.Observe(duration.Seconds())
}
