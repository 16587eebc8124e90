package agglo

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/agglo/cluster"
	"github.com/hupe1980/agglo/internal/resource"
	"github.com/hupe1980/agglo/node"
	"github.com/hupe1980/agglo/scoring"
	"github.com/hupe1980/agglo/search"
)

// Clusterer builds cluster trees over the nodes of one graph.
//
// A Clusterer is safe for concurrent use. Builds share the dirty registry
// of the graph and run one at a time; each build's scoring shards share the
// worker and memory limits.
type Clusterer struct {
	graph   *node.Graph
	builder *cluster.Builder
	rc      *resource.Controller
	metrics MetricsCollector
	logger  *Logger
}

// New creates a Clusterer for the nodes of g scored by fn.
func New(g *node.Graph, fn scoring.MergingFunction, opts ...Option) *Clusterer {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}

	var rc *resource.Controller
	if o.memoryLimitBytes > 0 || o.maxWorkers > 0 {
		rc = resource.NewController(resource.Config{
			MemoryLimitBytes: o.memoryLimitBytes,
			MaxWorkers:       o.maxWorkers,
		})
	}

	obs := observer{mc: o.metricsCollector}
	logger := o.logger
	builderOpts := []func(*cluster.Options){
		cluster.WithWorkers(o.workers),
		cluster.WithCacheCapacity(o.cacheCapacity),
		cluster.WithLogger(logger.Logger),
		cluster.WithMetrics(obs),
		cluster.WithResource(rc),
		cluster.WithOnMerge(func(m cluster.Merge) {
			obs.onMerge(m)
			logger.LogMerge(context.Background(), m.Round, m.Kind, m.Utility, m.Forced)
		}),
	}
	if o.progressInterval > 0 {
		builderOpts = append(builderOpts, cluster.WithProgressInterval(o.progressInterval))
	}
	if o.disableCache {
		builderOpts = append(builderOpts, cluster.WithoutCache())
	}
	if o.disableOverlapFilter {
		builderOpts = append(builderOpts, cluster.WithoutOverlapFilter())
	}

	return &Clusterer{
		graph:   g,
		builder: cluster.NewBuilder(g, fn, builderOpts...),
		rc:      rc,
		metrics: o.metricsCollector,
		logger:  logger,
	}
}

// NewShared returns the variance-based reference scoring function.
func NewShared(acuity float64) (*scoring.Shared, error) {
	fn, err := scoring.NewShared(acuity)
	if errors.Is(err, scoring.ErrInvalidAcuity) {
		return nil, &ErrInvalidAcuity{Acuity: acuity, cause: err}
	}
	return fn, err
}

// Graph returns the graph the Clusterer builds over.
func (c *Clusterer) Graph() *node.Graph { return c.graph }

// Build clusters every kind of sets into one tree per kind.
//
// Errors are classified: ErrInvalidInput for unusable node sets,
// ErrScoringFailed when the scoring function failed, ErrInvariantViolation
// for corrupted state. A canceled ctx aborts between scoring steps.
func (c *Clusterer) Build(ctx context.Context, sets map[node.Kind][]*node.Node) (*cluster.Tree, error) {
	nodes := 0
	for _, s := range sets {
		nodes += len(s)
	}

	start := time.Now()
	tree, err := c.builder.Build(ctx, sets)
	duration := time.Since(start)

	merges := 0
	if tree != nil {
		merges = len(tree.Merges)
	}
	c.metrics.RecordBuild(duration, merges, err)
	c.logger.LogBuild(ctx, nodes, merges, duration, err)

	return tree, translateError(err)
}

// MemoryUsage returns the bytes held by result caches. It is only tracked
// when a memory or worker limit is configured and 0 otherwise.
func (c *Clusterer) MemoryUsage() int64 {
	return c.rc.MemoryUsage()
}

// NewSelector assembles the default search chain for driving rounds by hand:
// ResultCache(OverlapFilter(Basic)) over the dirty registry of g.
func NewSelector(g *node.Graph, fn scoring.Function, optFns ...func(*search.Options)) *search.Selector {
	var s search.Searcher = search.NewBasic(fn, optFns...)
	s = search.NewOverlapFilter(s, optFns...)
	s = search.NewResultCache(s, g.Registry(), optFns...)
	return search.NewSelector(s)
}
