package search

import (
	"testing"

	"github.com/hupe1980/agglo/clusterset"
	"github.com/hupe1980/agglo/node"
	"github.com/hupe1980/agglo/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(fn scoring.Function, registry *node.Registry, optFns ...func(*Options)) Searcher {
	return NewResultCache(NewOverlapFilter(NewBasic(fn, optFns...), optFns...), registry, optFns...)
}

func TestSelector_PicksHighestUtility(t *testing.T) {
	g := node.NewGraph()
	n := newUsers(g, 3)
	a, b, c := n[0], n[1], n[2]
	set := newSet(t, a, b, c)

	fn := &tableFunc{max: 0.9}
	fn.set(0.5, a, b)
	fn.set(0.2, a, c)
	fn.set(0.9, b, c)

	for _, workers := range []int{1, 3} {
		s := NewSelector(chain(fn, g.Registry(), WithWorkers(workers)))
		r, err := s.Select(t.Context(), set)
		require.NoError(t, err)
		assert.True(t, r.Equal(MergeResult{Nodes: clusterset.NewCombination(c, b)}))
		assert.Equal(t, 0.9, r.Utility)
		assert.Equal(t, set.CombinationID(b, c), r.ID)
	}
}

func TestSelector_TiesGoToLowestID(t *testing.T) {
	g := node.NewGraph()
	set := newSet(t, newUsers(g, 5)...)
	fn := &tableFunc{max: 1}
	for id := range set.NumCombinations() {
		a, b := set.Pair(uint32(id))
		fn.set(0.25, a, b)
	}

	r, err := NewSelector(NewBasic(fn, WithWorkers(4))).Select(t.Context(), set)
	require.NoError(t, err)
	assert.Equal(t, clusterset.CombinationID(0), r.ID)
}

func TestSelector_CompletionAndNoCandidates(t *testing.T) {
	g := node.NewGraph()
	fn := &tableFunc{max: 1}
	s := NewSelector(NewOverlapFilter(NewBasic(fn)))

	_, err := s.Select(t.Context(), newSet(t))
	assert.ErrorIs(t, err, ErrComplete)
	_, err = s.Select(t.Context(), newSet(t, g.NewNode(node.KindUser)))
	assert.ErrorIs(t, err, ErrComplete)

	// Two nodes without any attribute share nothing.
	_, err = s.Select(t.Context(), newSet(t, g.NewNode(node.KindUser), g.NewNode(node.KindUser)))
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestMergeResult_Identity(t *testing.T) {
	g := node.NewGraph()
	n := newUsers(g, 3)

	r1 := MergeResult{ID: 2, Nodes: clusterset.NewCombination(n[0], n[1]), Utility: 0.1}
	r2 := MergeResult{ID: 7, Nodes: clusterset.NewCombination(n[1], n[0]), Utility: 0.8}
	r3 := MergeResult{ID: 2, Nodes: clusterset.NewCombination(n[0], n[2]), Utility: 0.1}

	assert.True(t, r1.Equal(r2), "identity is the node set, not the utility")
	assert.False(t, r1.Equal(r3))
	assert.Equal(t, r1.Key(), r2.Key())
	assert.Contains(t, r1.String(), "u=0.1")
}
