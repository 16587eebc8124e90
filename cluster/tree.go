package cluster

import (
	"time"

	"github.com/hupe1980/agglo/node"
	"github.com/hupe1980/agglo/search"
)

// Merge records one round.
type Merge struct {
	Round    int
	Kind     node.Kind
	Parent   node.ID
	Children []node.ID
	Utility  float64

	// Forced is set for the final merge of nodes no pair of which shared an
	// attribute; Utility is 0 then.
	Forced bool

	Duration time.Duration
}

// Tree is the result of a Build.
type Tree struct {
	// Roots holds the root of every kind that had at least one node.
	Roots map[node.Kind]*node.Node

	// Merges lists the rounds in order.
	Merges []Merge

	// CacheStats holds the final result cache counters per kind.
	CacheStats map[node.Kind]search.CacheStats
}

// Root returns the root of kind.
func (t *Tree) Root(kind node.Kind) *node.Node {
	return t.Roots[kind]
}

// Leaves returns the leaves below the root of kind ordered by id.
func (t *Tree) Leaves(kind node.Kind) []*node.Node {
	root := t.Roots[kind]
	if root == nil {
		return nil
	}
	var leaves []*node.Node
	stack := []*node.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsLeaf() {
			leaves = append(leaves, n)
			continue
		}
		stack = append(stack, n.Children()...)
	}
	node.SortByID(leaves)
	return leaves
}

// Depth returns the number of edges on the longest root to leaf path of kind.
func (t *Tree) Depth(kind node.Kind) int {
	return depth(t.Roots[kind])
}

func depth(n *node.Node) int {
	if n == nil || n.IsLeaf() {
		return 0
	}
	d := 0
	for _, c := range n.Children() {
		d = max(d, depth(c))
	}
	return d + 1
}
