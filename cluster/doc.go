// Package cluster builds category-utility cluster trees round by round.
//
// Each round asks a Selector for the best merge of one node kind, creates a
// parent for the selected nodes and replaces them by it in the open set. With
// several kinds (users and contents of a rating data set) rounds alternate
// between the kinds that still have two or more open nodes, so that every
// merge of one side is visible to the other side's next round.
//
// # Attribute propagation
//
// Nodes reference each other through their attribute maps: a user holds a
// rating keyed by every content it rated and vice versa. After merging
// children into a parent, every node keyed by a child is rewritten to hold one
// combined value keyed by the parent:
//
//	before:  i1 → {u1: 4, u2: 5}
//	merge:   p = {u1, u2}
//	after:   i1 → {p: avg 4.5, n 2}
//
// The rewrite marks i1 dirty, which evicts every cached content pair of i1
// before the next content round. Merged children are marked dirty too, so
// their cached pairs are released.
package cluster
