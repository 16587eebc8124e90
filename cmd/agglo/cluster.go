package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/hupe1980/agglo"
	"github.com/hupe1980/agglo/cluster"
	"github.com/hupe1980/agglo/internal/config"
	"github.com/hupe1980/agglo/internal/dataset"
	"github.com/hupe1980/agglo/node"
	"github.com/hupe1980/agglo/promcollector"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newClusterCmd() *cobra.Command {
	var printTree bool

	cmd := &cobra.Command{
		Use:   "cluster [ratings file]",
		Short: "Build the user and content trees of a rating file",
		Long: `Reads user,item,rating records (optionally .gz, .zst or .lz4 compressed)
and merges users and contents bottom-up until each kind has a single root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if err := overrideFromFlags(cmd, &cfg, args); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Input.Path == "" {
				return errors.New("no ratings file given")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return runCluster(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, printTree)
		},
	}

	f := cmd.Flags()
	f.Float64("acuity", 0, "smallest distinguished standard deviation")
	f.Int("workers", 0, "shards scored in parallel (0 = GOMAXPROCS)")
	f.Int("cache-capacity", 0, "memoized results per kind (0 = unbounded)")
	f.Bool("no-cache", false, "disable result memoization")
	f.Bool("no-overlap-filter", false, "score pairs without a shared attribute")
	f.Int64("memory-limit", 0, "bytes held by result caches (0 = unlimited)")
	f.String("delimiter", "", "field delimiter of the ratings file")
	f.String("log-level", "", "debug, info, warn or error")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address")
	f.BoolVar(&printTree, "tree", false, "print the trees")

	return cmd
}

// overrideFromFlags applies explicitly set flags over the loaded config.
func overrideFromFlags(cmd *cobra.Command, cfg *config.Config, args []string) error {
	if len(args) == 1 {
		cfg.Input.Path = args[0]
	}
	f := cmd.Flags()
	var err error
	if f.Changed("acuity") {
		cfg.Cluster.Acuity, err = f.GetFloat64("acuity")
	}
	if err == nil && f.Changed("workers") {
		cfg.Cluster.Workers, err = f.GetInt("workers")
	}
	if err == nil && f.Changed("cache-capacity") {
		cfg.Cluster.CacheCapacity, err = f.GetInt("cache-capacity")
	}
	if err == nil && f.Changed("no-cache") {
		cfg.Cluster.DisableCache, err = f.GetBool("no-cache")
	}
	if err == nil && f.Changed("no-overlap-filter") {
		cfg.Cluster.DisableOverlapFilter, err = f.GetBool("no-overlap-filter")
	}
	if err == nil && f.Changed("memory-limit") {
		cfg.Limits.MemoryBytes, err = f.GetInt64("memory-limit")
	}
	if err == nil && f.Changed("delimiter") {
		cfg.Input.Delimiter, err = f.GetString("delimiter")
	}
	if err == nil && f.Changed("log-level") {
		cfg.Log.Level, err = f.GetString("log-level")
	}
	if err == nil && f.Changed("metrics-addr") {
		cfg.Metrics.Addr, err = f.GetString("metrics-addr")
	}
	return err
}

func runCluster(ctx context.Context, out, errOut io.Writer, cfg config.Config, printTree bool) error {
	logger, err := newLogger(errOut, cfg.Log)
	if err != nil {
		return err
	}

	ratings, err := dataset.Open(cfg.Input.Path, dataset.WithDelimiter(cfg.Delimiter()))
	if err != nil {
		return err
	}
	g := node.NewGraph()
	leaves := dataset.Build(g, ratings)
	logger.Info("dataset loaded",
		slog.String("path", cfg.Input.Path),
		slog.Int("ratings", len(ratings)),
		slog.Int("users", len(leaves.Users)),
		slog.Int("contents", len(leaves.Contents)),
	)

	fn, err := agglo.NewShared(cfg.Cluster.Acuity)
	if err != nil {
		return err
	}

	opts := []agglo.Option{
		agglo.WithLogger(logger),
		agglo.WithWorkers(cfg.Cluster.Workers),
		agglo.WithCacheCapacity(cfg.Cluster.CacheCapacity),
		agglo.WithMemoryLimit(cfg.Limits.MemoryBytes),
		agglo.WithMaxWorkers(cfg.Limits.MaxWorkers),
		agglo.WithProgressInterval(cfg.Cluster.ProgressInterval),
	}
	if cfg.Cluster.DisableCache {
		opts = append(opts, agglo.WithoutCache())
	}
	if cfg.Cluster.DisableOverlapFilter {
		opts = append(opts, agglo.WithoutOverlapFilter())
	}

	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, agglo.WithMetricsCollector(promcollector.New(reg)))
		shutdown, err := serveMetrics(cfg.Metrics.Addr, reg, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	tree, err := agglo.New(g, fn, opts...).Build(ctx, leaves.ByKind())
	if err != nil {
		return err
	}

	writeSummary(out, tree)
	if printTree {
		for _, kind := range []node.Kind{node.KindUser, node.KindContent} {
			if root := tree.Root(kind); root != nil {
				fmt.Fprintf(out, "\n%s tree:\n", kind)
				writeTree(out, root, leaves, 0)
			}
		}
	}
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig) (*agglo.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	hopts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return agglo.NewLogger(slog.NewJSONHandler(w, hopts)), nil
	}
	return agglo.NewLogger(slog.NewTextHandler(w, hopts)), nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *agglo.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", slog.String("error", err.Error()))
		}
	}()
	logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func writeSummary(w io.Writer, tree *cluster.Tree) {
	for _, kind := range []node.Kind{node.KindUser, node.KindContent} {
		root := tree.Root(kind)
		if root == nil {
			continue
		}
		var merges, forced int
		for _, m := range tree.Merges {
			if m.Kind != kind {
				continue
			}
			merges++
			if m.Forced {
				forced++
			}
		}
		stats := tree.CacheStats[kind]
		fmt.Fprintf(w, "%-8s leaves=%d merges=%d forced=%d depth=%d top=%d cache_hit_rate=%.2f\n",
			kind, root.NumLeaves(), merges, forced, tree.Depth(kind), root.NumChildren(), stats.HitRate())
	}
}

func writeTree(w io.Writer, n *node.Node, leaves *dataset.Leaves, indent int) {
	pad := strings.Repeat("  ", indent)
	if label, ok := leaves.Label(n); ok {
		fmt.Fprintf(w, "%s%s\n", pad, label)
		return
	}
	fmt.Fprintf(w, "%s%s (%d leaves)\n", pad, n, n.NumLeaves())
	for _, c := range n.Children() {
		writeTree(w, c, leaves, indent+1)
	}
}
