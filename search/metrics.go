package search

import "time"

// MetricsObserver defines the interface for observing search events.
type MetricsObserver interface {
	// OnScore is called when Basic finished a call.
	OnScore(duration time.Duration, requested, scored int, earlyTermination bool, err error)

	// OnFilter is called when the OverlapFilter pruned a request.
	OnFilter(requested, removed int)

	// OnCache is called when the ResultCache answered a request.
	OnCache(hits, misses, evicted int)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (o *NoopMetricsObserver) OnScore(duration time.Duration, requested, scored int, earlyTermination bool, err error) {
}
func (o *NoopMetricsObserver) OnFilter(requested, removed int)   {}
func (o *NoopMetricsObserver) OnCache(hits, misses, evicted int) {}
