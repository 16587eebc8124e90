package search

import (
	"context"
	"fmt"

	"github.com/hupe1980/agglo/clusterset"
)

// MergeResult is a scored candidate merge. Its identity is the node set;
// two results of the same nodes are equal whatever their utilities.
type MergeResult struct {
	// ID is the round-local combination id.
	ID      clusterset.CombinationID
	Nodes   clusterset.Combination
	Utility float64
}

// Key returns the identity of the merged node set.
func (r MergeResult) Key() clusterset.Key { return r.Nodes.Key() }

// Equal reports whether r and other merge the same nodes.
func (r MergeResult) Equal(other MergeResult) bool { return r.Key() == other.Key() }

// String implements fmt.Stringer.
func (r MergeResult) String() string {
	return fmt.Sprintf("%s u=%.6g", r.Nodes, r.Utility)
}

// Selector picks the best merge of a round.
type Selector struct {
	searcher Searcher
}

// NewSelector creates a selector over a (decorated) searcher.
func NewSelector(searcher Searcher) *Selector {
	return &Selector{searcher: searcher}
}

// Searcher returns the searcher chain.
func (s *Selector) Searcher() Searcher { return s.searcher }

// Select searches every combination of set and returns the one of highest
// utility; ties go to the lowest combination id. It returns ErrComplete when
// fewer than two nodes are open and ErrNoCandidates when nothing was scored.
func (s *Selector) Select(ctx context.Context, set *clusterset.Set) (MergeResult, error) {
	if set.Len() < 2 {
		return MergeResult{}, ErrComplete
	}

	utilities, err := s.searcher.Search(ctx, set.AllCombinationIDs(), set)
	if err != nil {
		return MergeResult{}, err
	}
	if len(utilities) == 0 {
		return MergeResult{}, ErrNoCandidates
	}

	var (
		bestID clusterset.CombinationID
		bestU  float64
		first  = true
	)
	for id, u := range utilities {
		if first || u > bestU || (u == bestU && id < bestID) {
			bestID, bestU, first = id, u, false
		}
	}

	return MergeResult{
		ID:      bestID,
		Nodes:   set.Combination(bestID),
		Utility: bestU,
	}, nil
}
