// Package scoring defines the category utility contract consumed by the merge
// search and ships a variance-based reference implementation.
//
// A Function scores one candidate combination of open nodes and states the
// theoretical maximum any combination of the current open set can reach.
// Implementations must be deterministic and safe for concurrent use, since the
// search scores disjoint shards in parallel against the same read-only set.
package scoring

import (
	"errors"

	"github.com/hupe1980/agglo/clusterset"
	"github.com/hupe1980/agglo/node"
)

var (
	// ErrUnsupportedAttribute is returned for attribute values of a foreign type.
	ErrUnsupportedAttribute = errors.New("scoring: unsupported attribute type")

	// ErrNoSupport is returned when a merged attribute would carry no observation.
	ErrNoSupport = errors.New("scoring: attribute without support")

	// ErrInvalidAcuity is returned for a non-positive acuity.
	ErrInvalidAcuity = errors.New("scoring: acuity must be positive")
)

// Function computes the category utility of merging a combination.
type Function interface {
	// Utility scores merging the nodes of c. It must never exceed
	// TheoreticalMaximum(set).
	Utility(c clusterset.Combination, set *clusterset.Set) (float64, error)

	// TheoreticalMaximum is the utility of a degenerate perfect merge. It does
	// not depend on which combination is chosen.
	TheoreticalMaximum(set *clusterset.Set) float64
}

// Merger builds the attribute values of merged nodes.
type Merger interface {
	// MergeAttribute builds the value a merged parent of members holds for key.
	MergeAttribute(key *node.Node, members []*node.Node) (node.Attribute, error)

	// Combine folds the values another node holds for each merged member into
	// the single value it holds for their parent.
	Combine(values ...node.Attribute) (node.Attribute, error)
}

// MergingFunction is a scoring function that also knows how to merge its
// attribute values.
type MergingFunction interface {
	Function
	Merger
}
