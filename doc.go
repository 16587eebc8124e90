// Package agglo builds hierarchical cluster trees by incremental
// agglomeration under a pluggable category utility.
//
// Every round merges the combination of open nodes that maximizes the
// utility. The candidate search scores all pairs of the open set in parallel,
// prunes pairs without a shared attribute and memoizes results of nodes that
// did not change since they were scored, so a round only pays for the pairs
// touched by the previous merge.
//
// # Quick Start
//
//	g := node.NewGraph()
//	leaves := buildLeaves(g) // user and content leaves keyed by each other
//
//	fn, _ := scoring.NewShared(scoring.DefaultAcuity)
//	c := agglo.New(g, fn, agglo.WithLogger(agglo.NewTextLogger(slog.LevelInfo)))
//
//	tree, err := c.Build(ctx, map[node.Kind][]*node.Node{
//	    node.KindUser:    leaves.Users,
//	    node.KindContent: leaves.Contents,
//	})
//
// # Search Pipeline
//
// The default chain per node kind is
//
//	ResultCache(OverlapFilter(Basic))
//
// Both decorators can be disabled; the tree stays the same, only the amount
// of scoring changes. See package search for the individual stages.
//
// # Observability
//
// Logging uses log/slog through Logger. Metrics are reported to a
// MetricsCollector; BasicMetricsCollector keeps in-memory counters and
// package promcollector exports them to Prometheus.
package agglo
