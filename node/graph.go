package node

import "sync/atomic"

// Graph allocates node ids and owns the dirty registry of its nodes.
// NewNode is safe for concurrent use; changing the attributes of its nodes
// is not, since every change marks the shared registry.
type Graph struct {
	nextID   atomic.Uint64
	registry *Registry
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		registry: NewRegistry(),
	}
}

// NewNode creates a parentless node without attributes.
// The node is clean until its attribute map is first changed.
func (g *Graph) NewNode(kind Kind) *Node {
	return &Node{
		id:       ID(g.nextID.Add(1) - 1),
		kind:     kind,
		registry: g.registry,
	}
}

// Registry returns the dirty registry shared by all nodes of g.
func (g *Graph) Registry() *Registry { return g.registry }

// Len returns the number of nodes created so far.
func (g *Graph) Len() int { return int(g.nextID.Load()) }
