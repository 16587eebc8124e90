package cluster

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/hupe1980/agglo/clusterset"
	"github.com/hupe1980/agglo/internal/dataset"
	"github.com/hupe1980/agglo/node"
	"github.com/hupe1980/agglo/scoring"
	"github.com/hupe1980/agglo/search"
	"github.com/hupe1980/agglo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShared(t *testing.T) *scoring.Shared {
	t.Helper()
	fn, err := scoring.NewShared(scoring.DefaultAcuity)
	require.NoError(t, err)
	return fn
}

func syntheticLeaves(seed int64, users, items int) (*node.Graph, *dataset.Leaves) {
	ratings := testutil.NewRNG(seed).Ratings(testutil.RatingsConfig{
		Users:   users,
		Items:   items,
		Groups:  3,
		PerUser: items / 2,
		Noise:   0.1,
	})
	// A hub item rated by everyone keeps the rating graph connected.
	for u := range users {
		ratings = append(ratings, dataset.Rating{User: "u" + strconv.Itoa(u), Item: "hub", Value: 3})
	}
	g := node.NewGraph()
	return g, dataset.Build(g, ratings)
}

func TestBuilder_Bipartite(t *testing.T) {
	g, leaves := syntheticLeaves(42, 20, 12)

	var merges []Merge
	b := NewBuilder(g, newShared(t), WithWorkers(4), WithOnMerge(func(m Merge) {
		merges = append(merges, m)
	}))
	tree, err := b.Build(t.Context(), leaves.ByKind())
	require.NoError(t, err)

	for kind, want := range map[node.Kind][]*node.Node{
		node.KindUser:    leaves.Users,
		node.KindContent: leaves.Contents,
	} {
		root := tree.Root(kind)
		require.NotNil(t, root, kind)
		assert.True(t, root.IsRoot())
		assert.Equal(t, len(want), root.NumLeaves())
		assert.Equal(t, want, tree.Leaves(kind))
		assert.Positive(t, tree.Depth(kind))
	}

	// n leaves need n-1 binary merges per kind.
	assert.Equal(t, tree.Merges, merges)
	forced := 0
	for i, m := range tree.Merges {
		assert.Equal(t, i, m.Round)
		if m.Forced {
			forced++
			continue
		}
		assert.Len(t, m.Children, 2)
		assert.Positive(t, m.Utility)
		assert.LessOrEqual(t, m.Utility, 1.0)
	}
	assert.Zero(t, forced, "the hub keeps every round scorable")
	assert.Len(t, tree.Merges, len(leaves.Users)-1+len(leaves.Contents)-1)

	// Rounds alternate while both kinds are open.
	assert.Equal(t, node.KindUser, tree.Merges[0].Kind)
	assert.Equal(t, node.KindContent, tree.Merges[1].Kind)

	hits := tree.CacheStats[node.KindUser].Hits + tree.CacheStats[node.KindContent].Hits
	assert.Positive(t, hits, "later rounds reuse cached results")
}

func TestBuilder_ReferencesFollowMerges(t *testing.T) {
	g, leaves := syntheticLeaves(7, 10, 8)
	tree, err := NewBuilder(g, newShared(t)).Build(t.Context(), leaves.ByKind())
	require.NoError(t, err)

	userRoot, contentRoot := tree.Root(node.KindUser), tree.Root(node.KindContent)

	// After both sides collapsed, each root is keyed only by the other root.
	assert.Equal(t, []*node.Node{contentRoot}, userRoot.AttributeKeys())
	assert.Equal(t, []*node.Node{userRoot}, contentRoot.AttributeKeys())

	// Both sides account for every rating.
	total := 0
	for _, u := range leaves.Users {
		total += u.NumAttributes()
	}
	v, ok := userRoot.Attribute(contentRoot)
	require.True(t, ok)
	assert.Equal(t, total, v.Support())
	w, _ := contentRoot.Attribute(userRoot)
	assert.Equal(t, total, w.Support())
}

func TestBuilder_DecoratorsDoNotChangeTheTree(t *testing.T) {
	build := func(optFns ...func(*Options)) []Merge {
		g, leaves := syntheticLeaves(3, 14, 10)
		optFns = append(optFns, WithWorkers(1))
		tree, err := NewBuilder(g, newShared(t), optFns...).Build(t.Context(), leaves.ByKind())
		require.NoError(t, err)
		for i := range tree.Merges {
			tree.Merges[i].Duration = 0
		}
		return tree.Merges
	}

	want := build(WithoutCache(), WithoutOverlapFilter())
	assert.Equal(t, want, build())
	assert.Equal(t, want, build(WithoutCache()))
	assert.Equal(t, want, build(WithCacheCapacity(8)))
}

func TestBuilder_ForcedRoot(t *testing.T) {
	g := node.NewGraph()
	k1, k2 := g.NewNode(node.KindContent), g.NewNode(node.KindContent)
	a, b, c := g.NewNode(node.KindUser), g.NewNode(node.KindUser), g.NewNode(node.KindUser)
	a.SetAttribute(k1, scoring.NewRating(4))
	b.SetAttribute(k1, scoring.NewRating(4))
	c.SetAttribute(k2, scoring.NewRating(1))

	tree, err := NewBuilder(g, newShared(t)).Build(t.Context(), map[node.Kind][]*node.Node{
		node.KindUser: {a, b, c},
	})
	require.NoError(t, err)

	require.Len(t, tree.Merges, 2)
	assert.False(t, tree.Merges[0].Forced)
	assert.Equal(t, []node.ID{a.ID(), b.ID()}, tree.Merges[0].Children)
	assert.True(t, tree.Merges[1].Forced)

	root := tree.Root(node.KindUser)
	assert.Equal(t, 3, root.NumLeaves())
	assert.Equal(t, 2, root.NumChildren())
	assert.True(t, root.HasAttribute(k1))
	assert.True(t, root.HasAttribute(k2))
}

func TestBuilder_SingleAndEmptyKinds(t *testing.T) {
	g := node.NewGraph()
	only := g.NewNode(node.KindUser)

	tree, err := NewBuilder(g, newShared(t)).Build(t.Context(), map[node.Kind][]*node.Node{
		node.KindUser:    {only},
		node.KindContent: nil,
	})
	require.NoError(t, err)
	assert.Equal(t, only, tree.Root(node.KindUser))
	assert.Nil(t, tree.Root(node.KindContent))
	assert.Empty(t, tree.Merges)
	assert.Nil(t, tree.Leaves(node.KindContent))
}

func TestBuilder_InvalidInput(t *testing.T) {
	g := node.NewGraph()
	u := g.NewNode(node.KindUser)
	c := g.NewNode(node.KindContent)
	b := NewBuilder(g, newShared(t))

	_, err := b.Build(t.Context(), map[node.Kind][]*node.Node{node.KindUser: {u, c}})
	assert.ErrorIs(t, err, ErrKindMismatch)

	p := g.NewNode(node.KindUser)
	p.AddChild(u)
	_, err = b.Build(t.Context(), map[node.Kind][]*node.Node{node.KindUser: {u, p}})
	assert.ErrorIs(t, err, ErrNotRoot)
}

type failingMerger struct {
	*scoring.Shared
}

var errMerge = errors.New("merge failed")

func (failingMerger) Combine(...node.Attribute) (node.Attribute, error) { return nil, errMerge }

func TestBuilder_Errors(t *testing.T) {
	t.Run("merge error aborts", func(t *testing.T) {
		g, leaves := syntheticLeaves(1, 6, 6)
		_, err := NewBuilder(g, failingMerger{newShared(t)}).Build(t.Context(), leaves.ByKind())
		assert.ErrorIs(t, err, errMerge)
	})

	t.Run("canceled context", func(t *testing.T) {
		g, leaves := syntheticLeaves(1, 6, 6)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		_, err := NewBuilder(g, newShared(t)).Build(ctx, leaves.ByKind())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invariant violation aborts", func(t *testing.T) {
		g, leaves := syntheticLeaves(1, 6, 6)
		_, err := NewBuilder(g, lowMaximum{newShared(t)}).Build(t.Context(), leaves.ByKind())
		assert.ErrorIs(t, err, search.ErrUtilityExceedsMaximum)
	})
}

// lowMaximum claims a maximum every overlapping pair exceeds.
type lowMaximum struct {
	*scoring.Shared
}

func (lowMaximum) TheoreticalMaximum(_ *clusterset.Set) float64 { return 1e-9 }
