package search

import (
	"testing"

	"github.com/hupe1980/agglo/clusterset"
	"github.com/hupe1980/agglo/node"
	"github.com/hupe1980/agglo/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlapFilter_DropsDisjointPairs(t *testing.T) {
	g := node.NewGraph()
	k1, k2, k3 := g.NewNode(node.KindContent), g.NewNode(node.KindContent), g.NewNode(node.KindContent)

	a, b, c, d := g.NewNode(node.KindUser), g.NewNode(node.KindUser), g.NewNode(node.KindUser), g.NewNode(node.KindUser)
	a.SetAttribute(k1, scoring.NewRating(1))
	b.SetAttribute(k2, scoring.NewRating(2))
	c.SetAttribute(k1, scoring.NewRating(1))
	c.SetAttribute(k2, scoring.NewRating(2))
	d.SetAttribute(k3, scoring.NewRating(5))
	set := newSet(t, a, b, c, d)

	fn := &tableFunc{max: 1}
	fn.set(0.4, a, c)
	fn.set(0.6, b, c)
	obs := &recordingObserver{}
	f := NewOverlapFilter(NewBasic(fn), WithMetrics(obs))

	ids := set.AllCombinationIDs()
	u, err := f.Search(t.Context(), ids, set)
	require.NoError(t, err)

	assert.Equal(t, Utilities{
		set.CombinationID(a, c): 0.4,
		set.CombinationID(b, c): 0.6,
	}, u)
	assert.Equal(t, uint64(6), ids.GetCardinality(), "the caller's request must not be modified")
	assert.Equal(t, 2, f.Known())
	assert.Equal(t, 4, obs.filtered)
	assert.Equal(t, int64(2), fn.calls.Load())

	// Known pairs are not tested again, disjoint pairs are dropped again.
	_, err = f.Search(t.Context(), ids, set)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Known())
	assert.Equal(t, 8, obs.filtered)
	assert.Equal(t, int64(4), fn.calls.Load())
}

func TestOverlapFilter_RemembersPairsAcrossRenumbering(t *testing.T) {
	g := node.NewGraph()
	k1, k2, k3, k4 := g.NewNode(node.KindContent), g.NewNode(node.KindContent), g.NewNode(node.KindContent), g.NewNode(node.KindContent)

	a, b, c, d := g.NewNode(node.KindUser), g.NewNode(node.KindUser), g.NewNode(node.KindUser), g.NewNode(node.KindUser)
	a.SetAttribute(k1, scoring.NewRating(1))
	b.SetAttribute(k1, scoring.NewRating(1))
	b.SetAttribute(k2, scoring.NewRating(2))
	c.SetAttribute(k3, scoring.NewRating(3))
	d.SetAttribute(k4, scoring.NewRating(4))
	set := newSet(t, a, b, c, d)

	fn := &tableFunc{max: 1}
	fn.set(0.5, a, b)
	fn.set(0.3, b, d)
	fn.set(0.3, b, c)
	f := NewOverlapFilter(NewBasic(fn))

	u, err := f.Search(t.Context(), set.AllCombinationIDs(), set)
	require.NoError(t, err)
	assert.Equal(t, Utilities{set.CombinationID(a, b): 0.5}, u)
	assert.Equal(t, 1, f.Known())

	// Removing a moves d into its slot, so the id {a,b} had now names {b,d}.
	oldID := set.CombinationID(a, b)
	require.True(t, set.Remove(a))
	require.Equal(t, oldID, set.CombinationID(b, d))

	u, err = f.Search(t.Context(), set.AllCombinationIDs(), set)
	require.NoError(t, err)
	assert.Empty(t, u)
	assert.Equal(t, int64(1), fn.calls.Load())

	_, err = NewSelector(f).Select(t.Context(), set)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestOverlapFilter_NothingSurvives(t *testing.T) {
	g := node.NewGraph()
	k1, k2 := g.NewNode(node.KindContent), g.NewNode(node.KindContent)
	a, b := g.NewNode(node.KindUser), g.NewNode(node.KindUser)
	a.SetAttribute(k1, scoring.NewRating(1))
	b.SetAttribute(k2, scoring.NewRating(1))
	set := newSet(t, a, b)

	fn := &tableFunc{max: 1}
	u, err := NewOverlapFilter(NewBasic(fn)).Search(t.Context(), set.AllCombinationIDs(), set)
	require.NoError(t, err)
	assert.Empty(t, u)
	assert.Equal(t, int64(0), fn.calls.Load())
}

// The filter must never hide the combination the unfiltered search selects.
func TestOverlapFilter_Safety(t *testing.T) {
	ratings := ratingsFixture(11)
	fn, err := scoring.NewShared(1)
	require.NoError(t, err)

	g := node.NewGraph()
	users := buildUsers(g, ratings)
	set := newSet(t, users...)

	plain := NewBasic(fn, WithWorkers(1))
	filtered := NewOverlapFilter(NewBasic(fn, WithWorkers(1)))

	for set.Len() >= 2 {
		want, err := plain.Search(t.Context(), set.AllCombinationIDs(), set)
		require.NoError(t, err)
		got, err := filtered.Search(t.Context(), set.AllCombinationIDs(), set)
		require.NoError(t, err)

		wantID, wantU := best(want)
		if wantU == 0 {
			// Only disjoint pairs left.
			assert.Empty(t, got)
			break
		}
		_, gotU := best(got)
		assert.Equal(t, wantU, gotU)
		assert.Contains(t, got, wantID)

		merge(t, g, set, fn, set.Combination(wantID))
	}
}

func TestOverlapFilter_TheoreticalMaximum(t *testing.T) {
	fn := &tableFunc{max: 0.25}
	f := NewOverlapFilter(NewBasic(fn))
	assert.Equal(t, 0.25, f.TheoreticalMaximum(&clusterset.Set{}))
}
