package node

import (
	"github.com/bits-and-blooms/bitset"
)

// Registry is the set of nodes marked dirty since they were last drained.
//
// A node is contained iff its dirty flag is set. Registry is NOT thread-safe;
// it must only be mutated between parallel search phases.
//
// A nil Registry ignores marks.
type Registry struct {
	members *bitset.BitSet
	pending []*Node
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		members: bitset.New(0),
	}
}

// Mark sets the dirty flag of n and registers it. Marking a dirty node is a no-op.
func (r *Registry) Mark(n *Node) {
	if r == nil || n == nil {
		return
	}
	n.dirty = true
	if r.members.Test(uint(n.id)) {
		return
	}
	r.members.Set(uint(n.id))
	r.pending = append(r.pending, n)
}

// Contains reports whether n is registered.
func (r *Registry) Contains(n *Node) bool {
	if r == nil || n == nil {
		return false
	}
	return r.members.Test(uint(n.id))
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.pending)
}

// Nodes returns a snapshot of the registered nodes in marking order.
func (r *Registry) Nodes() []*Node {
	if r == nil {
		return nil
	}
	out := make([]*Node, len(r.pending))
	copy(out, r.pending)
	return out
}

// Drain removes every node, resets their dirty flags and returns them.
func (r *Registry) Drain() []*Node {
	return r.DrainFunc(func(*Node) bool { return true })
}

// DrainFunc removes the nodes for which take returns true, resets their dirty
// flags and returns them in marking order. Other nodes stay registered.
func (r *Registry) DrainFunc(take func(n *Node) bool) []*Node {
	if r == nil || len(r.pending) == 0 {
		return nil
	}

	var drained []*Node
	kept := r.pending[:0]
	for _, n := range r.pending {
		if !take(n) {
			kept = append(kept, n)
			continue
		}
		n.dirty = false
		r.members.Clear(uint(n.id))
		drained = append(drained, n)
	}
	// Release references held by the tail of the reused backing array.
	clear(r.pending[len(kept):])
	r.pending = kept

	return drained
}
