package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/agglo/clusterset"
	"github.com/hupe1980/agglo/node"
	"github.com/hupe1980/agglo/scoring"
	"github.com/hupe1980/agglo/search"
	"golang.org/x/time/rate"
)

var (
	// ErrKindMismatch is returned when a node is passed under a foreign kind.
	ErrKindMismatch = errors.New("cluster: node kind mismatch")

	// ErrNotRoot is returned when an initial node already has a parent.
	ErrNotRoot = errors.New("cluster: node already attached")
)

// Builder builds cluster trees over the nodes of one graph.
//
// Build calls on one Builder run one at a time: every build mutates nodes
// that mark themselves in the graph's single dirty registry.
type Builder struct {
	mu sync.Mutex

	graph  *node.Graph
	fn     scoring.MergingFunction
	opts   Options
	logger *slog.Logger
}

// NewBuilder creates a builder. fn scores candidate merges and merges the
// attribute values of merged nodes.
func NewBuilder(g *node.Graph, fn scoring.MergingFunction, optFns ...func(o *Options)) *Builder {
	opts := DefaultOptions
	for _, f := range optFns {
		f(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultOptions.ProgressInterval
	}

	return &Builder{
		graph:  g,
		fn:     fn,
		opts:   opts,
		logger: opts.Logger,
	}
}

// kindState is the open set and search chain of one node kind.
type kindState struct {
	kind     node.Kind
	set      *clusterset.Set
	selector *search.Selector
	cache    *search.ResultCache
	done     bool
}

// Build clusters every kind of sets until one root per kind remains.
//
// Rounds alternate between kinds in ascending kind order. A kind finishes
// when a single node is open; if the remaining nodes share no attribute at
// all they are attached to one forced root.
func (b *Builder) Build(ctx context.Context, sets map[node.Kind][]*node.Node) (*Tree, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	states, err := b.prepare(sets)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, st := range states {
			if st.cache != nil {
				st.cache.Reset()
			}
		}
	}()

	tree := &Tree{
		Roots:      make(map[node.Kind]*node.Node, len(states)),
		CacheStats: make(map[node.Kind]search.CacheStats, len(states)),
	}
	progress := rate.Sometimes{Interval: b.opts.ProgressInterval}
	start := time.Now()

	b.logger.Info("clustering started", "kinds", len(states), "nodes", b.graph.Len())

	for round := 0; ; {
		active := 0
		for _, st := range states {
			if st.done {
				continue
			}
			active++

			if err := ctx.Err(); err != nil {
				return nil, err
			}

			roundStart := time.Now()
			r, err := st.selector.Select(ctx, st.set)
			switch {
			case errors.Is(err, search.ErrComplete):
				st.done = true
				continue
			case errors.Is(err, search.ErrNoCandidates):
				m, err := b.forceRoot(st, round)
				if err != nil {
					return nil, err
				}
				m.Duration = time.Since(roundStart)
				b.record(tree, m)
				st.done = true
				round++
				continue
			case err != nil:
				return nil, fmt.Errorf("cluster: round %d (%s): %w", round, st.kind, err)
			}

			parent, err := b.merge(st.set, r.Nodes)
			if err != nil {
				return nil, fmt.Errorf("cluster: round %d (%s): %w", round, st.kind, err)
			}
			b.record(tree, Merge{
				Round:    round,
				Kind:     st.kind,
				Parent:   parent.ID(),
				Children: ids(r.Nodes),
				Utility:  r.Utility,
				Duration: time.Since(roundStart),
			})
			round++

			progress.Do(func() {
				b.logger.Info("clustering progress",
					"round", round,
					"kind", st.kind,
					"open", st.set.Len(),
					"utility", r.Utility)
			})
		}
		if active == 0 {
			break
		}
	}

	for _, st := range states {
		if st.set.Len() == 1 {
			tree.Roots[st.kind] = st.set.Node(0)
		}
		if st.cache != nil {
			tree.CacheStats[st.kind] = st.cache.Stats()
		}
	}

	b.logger.Info("clustering complete",
		"rounds", len(tree.Merges),
		"duration", time.Since(start))

	return tree, nil
}

func (b *Builder) prepare(sets map[node.Kind][]*node.Node) ([]*kindState, error) {
	kinds := slices.Sorted(maps.Keys(sets))
	states := make([]*kindState, 0, len(kinds))

	for _, kind := range kinds {
		for _, n := range sets[kind] {
			if n.Kind() != kind {
				return nil, fmt.Errorf("%w: %s passed as %s", ErrKindMismatch, n, kind)
			}
			if !n.IsRoot() {
				return nil, fmt.Errorf("%w: %s", ErrNotRoot, n)
			}
		}
		set, err := clusterset.New(sets[kind]...)
		if err != nil {
			return nil, fmt.Errorf("cluster: %s: %w", kind, err)
		}

		st := &kindState{kind: kind, set: set}
		st.selector = search.NewSelector(b.chain(st))
		states = append(states, st)
	}
	return states, nil
}

// chain assembles Cache(OverlapFilter(Basic)) for one kind.
func (b *Builder) chain(st *kindState) search.Searcher {
	kind := st.kind
	optFns := []func(*search.Options){
		search.WithWorkers(b.opts.Workers),
		search.WithCapacity(b.opts.CacheCapacity),
		search.WithLogger(b.logger.With("kind", kind.String())),
		search.WithMetrics(b.opts.Metrics),
		search.WithResource(b.opts.Resource),
		search.WithScope(func(n *node.Node) bool { return n.Kind() == kind }),
	}

	var s search.Searcher = search.NewBasic(b.fn, optFns...)
	if !b.opts.DisableOverlapFilter {
		s = search.NewOverlapFilter(s, optFns...)
	}
	if !b.opts.DisableCache {
		st.cache = search.NewResultCache(s, b.graph.Registry(), optFns...)
		s = st.cache
	}
	return s
}

// merge replaces children by a new parent in set and propagates the merge to
// every node keyed by a child.
func (b *Builder) merge(set *clusterset.Set, children clusterset.Combination) (*node.Node, error) {
	parent := b.graph.NewNode(children[0].Kind())

	keys := unionKeys(children)
	attrs := make(map[*node.Node]node.Attribute, len(keys))
	for _, key := range keys {
		v, err := b.fn.MergeAttribute(key, children)
		if err != nil {
			return nil, err
		}
		attrs[key] = v
	}

	// Rewrite the references of every key node before touching the tree, so a
	// failing Combine leaves the key nodes consistent with the open set.
	combined := make([]node.Attribute, len(keys))
	for i, key := range keys {
		var values []node.Attribute
		for _, c := range children {
			if v, ok := key.Attribute(c); ok {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		v, err := b.fn.Combine(values...)
		if err != nil {
			return nil, fmt.Errorf("combine %s: %w", key, err)
		}
		combined[i] = v
	}
	for i, key := range keys {
		if combined[i] == nil {
			continue
		}
		for _, c := range children {
			key.RemoveAttribute(c)
		}
		key.SetAttribute(parent, combined[i])
	}

	if err := set.Replace(parent, children...); err != nil {
		return nil, err
	}
	for _, c := range children {
		parent.AddChild(c)
		b.graph.Registry().Mark(c)
	}
	parent.SetAttributes(attrs)

	return parent, nil
}

// forceRoot attaches every open node of a kind without candidates to one root.
func (b *Builder) forceRoot(st *kindState, round int) (Merge, error) {
	children := clusterset.NewCombination(st.set.Nodes()...)
	parent, err := b.merge(st.set, children)
	if err != nil {
		return Merge{}, fmt.Errorf("cluster: round %d (%s): %w", round, st.kind, err)
	}

	b.logger.Info("no candidate merge left, attaching remaining nodes to one root",
		"kind", st.kind,
		"nodes", len(children))

	return Merge{
		Round:    round,
		Kind:     st.kind,
		Parent:   parent.ID(),
		Children: ids(children),
		Forced:   true,
	}, nil
}

func (b *Builder) record(tree *Tree, m Merge) {
	tree.Merges = append(tree.Merges, m)
	if b.opts.OnMerge != nil {
		b.opts.OnMerge(m)
	}
	b.logger.Debug("merged",
		"round", m.Round,
		"kind", m.Kind,
		"parent", m.Parent,
		"children", len(m.Children),
		"utility", m.Utility,
		"forced", m.Forced)
}

func unionKeys(nodes []*node.Node) []*node.Node {
	seen := make(map[*node.Node]struct{})
	var keys []*node.Node
	for _, n := range nodes {
		n.RangeAttributes(func(key *node.Node, _ node.Attribute) bool {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
			return true
		})
	}
	node.SortByID(keys)
	return keys
}

func ids(nodes []*node.Node) []node.ID {
	out := make([]node.ID, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}
