// Package node provides the graph nodes that are clustered into a tree and the
// registry that tracks which nodes changed since the last cache revalidation.
//
// # Nodes
//
// A Node has a stable numeric ID, a Kind (the category of entity it stands for),
// an attribute map keyed by other nodes, a set of children and at most one parent.
// Leaves are created at data-load time; internal nodes are created when a merge
// is applied. Nodes are never deleted, only reparented.
//
//	g := node.NewGraph()
//	user := g.NewNode(node.KindUser)
//	item := g.NewNode(node.KindContent)
//	user.SetAttribute(item, rating)
//
// # Dirty Tracking
//
// Every change of a node's attribute map marks the node dirty in the Registry of
// the Graph that created it:
//
//	┌──────────────┐ SetAttribute ┌──────────────┐  DrainFunc  ┌──────────────┐
//	│     Node     │ ───────────▶ │   Registry   │ ──────────▶ │ ResultCache  │
//	│ dirty = true │              │ (bitset ids) │             │  eviction    │
//	└──────────────┘              └──────────────┘             └──────────────┘
//
// A node is registered iff its dirty flag is set. Flags are only reset by a drain.
//
// # Thread Safety
//
// Nodes and the Registry are not safe for concurrent mutation. Concurrent reads
// are safe as long as no goroutine mutates the graph, which is how the parallel
// merge search uses them.
package node
