package search

import (
	"sync/atomic"
	"testing"

	"github.com/hupe1980/agglo/clusterset"
	"github.com/hupe1980/agglo/internal/dataset"
	"github.com/hupe1980/agglo/node"
	"github.com/hupe1980/agglo/scoring"
	"github.com/hupe1980/agglo/testutil"
	"github.com/stretchr/testify/require"
)

// tableFunc scores combinations from a fixed table; unknown sets score 0.
type tableFunc struct {
	max   float64
	table map[clusterset.Key]float64
	err   error
	panic bool
	calls atomic.Int64
}

func (f *tableFunc) Utility(c clusterset.Combination, _ *clusterset.Set) (float64, error) {
	f.calls.Add(1)
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return 0, f.err
	}
	return f.table[c.Key()], nil
}

func (f *tableFunc) TheoreticalMaximum(*clusterset.Set) float64 { return f.max }

func (f *tableFunc) set(u float64, nodes ...*node.Node) {
	if f.table == nil {
		f.table = make(map[clusterset.Key]float64)
	}
	f.table[clusterset.KeyOf(nodes...)] = u
}

// newUsers creates n user nodes that all carry one shared attribute key, so
// the overlap filter keeps every pair.
func newUsers(g *node.Graph, n int) []*node.Node {
	key := g.NewNode(node.KindContent)
	out := make([]*node.Node, n)
	for i := range out {
		out[i] = g.NewNode(node.KindUser)
		out[i].SetAttribute(key, scoring.NewRating(3))
	}
	return out
}

func newSet(t *testing.T, nodes ...*node.Node) *clusterset.Set {
	t.Helper()
	s, err := clusterset.New(nodes...)
	require.NoError(t, err)
	return s
}

// merge performs one round of tree building the way a driver does: a new
// parent with merged attributes replaces the children in the open set, and
// the children are marked dirty.
func merge(t *testing.T, g *node.Graph, set *clusterset.Set, fn scoring.Merger, children clusterset.Combination) *node.Node {
	t.Helper()

	parent := g.NewNode(children[0].Kind())
	seen := make(map[*node.Node]struct{})
	for _, c := range children {
		for _, k := range c.AttributeKeys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			v, err := fn.MergeAttribute(k, children)
			require.NoError(t, err)
			parent.SetAttribute(k, v)
		}
	}
	for _, c := range children {
		parent.AddChild(c)
		g.Registry().Mark(c)
	}
	require.NoError(t, set.Replace(parent, children...))
	return parent
}

// best returns the highest utility, lowest id on ties.
func best(u Utilities) (clusterset.CombinationID, float64) {
	var (
		id    clusterset.CombinationID
		value float64
		first = true
	)
	for k, v := range u {
		if first || v > value || (v == value && k < id) {
			id, value, first = k, v, false
		}
	}
	return id, value
}

func ratingsFixture(seed int64) []dataset.Rating {
	return testutil.NewRNG(seed).Ratings(testutil.RatingsConfig{
		Users:   24,
		Items:   16,
		Groups:  3,
		PerUser: 5,
		Noise:   0.2,
	})
}

func buildUsers(g *node.Graph, ratings []dataset.Rating) []*node.Node {
	return dataset.Build(g, ratings).Users
}
