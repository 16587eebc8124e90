package scoring

import (
	"fmt"

	"github.com/hupe1980/agglo/clusterset"
	"github.com/hupe1980/agglo/node"
)

// DefaultAcuity is the smallest standard deviation the Shared function
// distinguishes.
const DefaultAcuity = 1.0

// Shared is a variance-based category utility over shared numeric attributes.
//
// For a combination C with the union of attribute keys A:
//
//	U(C) = 1/|A| · Σ_{a shared by ≥ 2 members} coverage(a) · acuity / max(σ(a), acuity)
//
// coverage(a) is the fraction of C's leaves that belong to a member carrying a,
// σ(a) is the standard deviation of the merged observations of a. U lies in
// [0, 1]; a perfect merge (every key carried by every member, no spread above
// the acuity) scores exactly 1. Combinations without a shared key score 0.
//
// Shared is safe for concurrent use.
type Shared struct {
	acuity float64
}

// NewShared creates the function with the given acuity.
func NewShared(acuity float64) (*Shared, error) {
	if !(acuity > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAcuity, acuity)
	}
	return &Shared{acuity: acuity}, nil
}

// Acuity returns the configured acuity.
func (f *Shared) Acuity() float64 { return f.acuity }

// TheoreticalMaximum implements Function.
func (f *Shared) TheoreticalMaximum(*clusterset.Set) float64 { return 1 }

// Utility implements Function.
func (f *Shared) Utility(c clusterset.Combination, _ *clusterset.Set) (float64, error) {
	totalLeaves := 0
	for _, m := range c {
		totalLeaves += m.NumLeaves()
	}

	seen := make(map[*node.Node]struct{})
	var keys []*node.Node
	for _, m := range c {
		m.RangeAttributes(func(key *node.Node, _ node.Attribute) bool {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
			return true
		})
	}
	if len(keys) == 0 {
		return 0, nil
	}
	// Fixed summation order keeps the result bit-identical across calls.
	node.SortByID(keys)

	var sum float64
	for _, key := range keys {
		merged, holders, coveredLeaves, err := mergeNumeric(key, c)
		if err != nil {
			return 0, err
		}
		if holders < 2 {
			continue
		}
		sigma := merged.StdDev()
		if sigma < f.acuity {
			sigma = f.acuity
		}
		coverage := float64(coveredLeaves) / float64(totalLeaves)
		sum += coverage * (f.acuity / sigma)
	}

	return sum / float64(len(keys)), nil
}

// MergeAttribute implements Merger. It sums the statistics of every member
// carrying key.
func (f *Shared) MergeAttribute(key *node.Node, members []*node.Node) (node.Attribute, error) {
	merged, _, _, err := mergeNumeric(key, members)
	if err != nil {
		return nil, err
	}
	if merged.support < 1 {
		return nil, fmt.Errorf("%w: key %s", ErrNoSupport, key)
	}
	return merged, nil
}

// Combine implements Merger.
func (f *Shared) Combine(values ...node.Attribute) (node.Attribute, error) {
	var merged Numeric
	for _, v := range values {
		num, ok := v.(*Numeric)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedAttribute, v)
		}
		merged.support += num.support
		merged.sum += num.sum
		merged.sumOfSquare += num.sumOfSquare
	}
	if merged.support < 1 {
		return nil, ErrNoSupport
	}
	return &merged, nil
}

func mergeNumeric(key *node.Node, members []*node.Node) (*Numeric, int, int, error) {
	var (
		merged  Numeric
		holders int
		leaves  int
	)
	for _, m := range members {
		v, ok := m.Attribute(key)
		if !ok {
			continue
		}
		num, ok := v.(*Numeric)
		if !ok {
			return nil, 0, 0, fmt.Errorf("%w: %T on %s", ErrUnsupportedAttribute, v, m)
		}
		merged.support += num.support
		merged.sum += num.sum
		merged.sumOfSquare += num.sumOfSquare
		holders++
		leaves += m.NumLeaves()
	}
	return &merged, holders, leaves, nil
}
