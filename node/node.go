package node

import (
	"fmt"
	"slices"
)

// ID is the stable numeric identity of a node.
type ID uint64

// Kind is the category of entity a node stands for.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindUser         // users of a rating data set
	KindContent      // rated items
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindContent:
		return "content"
	default:
		return "unknown"
	}
}

// Attribute is the value a node holds for one of its attribute keys.
// The statistics behind a value are owned by the scoring function.
type Attribute interface {
	// Support is the number of observations folded into the value.
	Support() int
}

// Node is a vertex of the cluster tree.
type Node struct {
	id       ID
	kind     Kind
	attrs    map[*Node]Attribute
	children map[*Node]struct{}
	parent   *Node
	leaves   int // leaves below a non-leaf node
	dirty    bool
	registry *Registry
}

// ID returns the node id.
func (n *Node) ID() ID { return n.id }

// Kind returns the node kind.
func (n *Node) Kind() Kind { return n.kind }

// IsDirty reports whether the attribute map changed since the last drain.
func (n *Node) IsDirty() bool { return n.dirty }

// SetAttribute maps key to value, replacing any previous mapping, and marks
// the node dirty.
func (n *Node) SetAttribute(key *Node, value Attribute) {
	if n.attrs == nil {
		n.attrs = make(map[*Node]Attribute)
	}
	n.attrs[key] = value
	n.markDirty()
}

// SetAttributes replaces the whole attribute map and marks the node dirty.
// The map is copied.
func (n *Node) SetAttributes(attrs map[*Node]Attribute) {
	n.attrs = make(map[*Node]Attribute, len(attrs))
	for k, v := range attrs {
		n.attrs[k] = v
	}
	n.markDirty()
}

// RemoveAttribute deletes the mapping for key and returns the previous value.
// The node is only marked dirty if a mapping existed.
func (n *Node) RemoveAttribute(key *Node) (Attribute, bool) {
	v, ok := n.attrs[key]
	if !ok {
		return nil, false
	}
	delete(n.attrs, key)
	n.markDirty()
	return v, true
}

// Attribute returns the value mapped to key.
func (n *Node) Attribute(key *Node) (Attribute, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// HasAttribute reports whether key is mapped.
func (n *Node) HasAttribute(key *Node) bool {
	_, ok := n.attrs[key]
	return ok
}

// NumAttributes returns the number of attribute keys.
func (n *Node) NumAttributes() int { return len(n.attrs) }

// AttributeKeys returns the attribute keys ordered by id.
func (n *Node) AttributeKeys() []*Node {
	keys := make([]*Node, 0, len(n.attrs))
	for k := range n.attrs {
		keys = append(keys, k)
	}
	SortByID(keys)
	return keys
}

// RangeAttributes calls fn for every attribute in unspecified order until fn
// returns false.
func (n *Node) RangeAttributes(fn func(key *Node, value Attribute) bool) {
	for k, v := range n.attrs {
		if !fn(k, v) {
			return
		}
	}
}

// SharesAttribute reports whether n and other have at least one attribute key
// in common.
func (n *Node) SharesAttribute(other *Node) bool {
	small, large := n.attrs, other.attrs
	if len(large) < len(small) {
		small, large = large, small
	}
	for k := range small {
		if _, ok := large[k]; ok {
			return true
		}
	}
	return false
}

// AddChild attaches child to n. A previous parent of child loses it.
// Adding an existing child is a no-op.
func (n *Node) AddChild(child *Node) {
	if child.parent == n {
		return
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	if n.children == nil {
		n.children = make(map[*Node]struct{})
	}
	old := n.NumLeaves()
	if len(n.children) == 0 {
		n.leaves = 0
	}
	n.children[child] = struct{}{}
	child.parent = n
	n.leaves += child.NumLeaves()
	n.propagateLeaves(n.NumLeaves() - old)
}

// RemoveChild detaches child from n. It returns false if child was not a child of n.
func (n *Node) RemoveChild(child *Node) bool {
	if _, ok := n.children[child]; !ok {
		return false
	}
	old := n.NumLeaves()
	delete(n.children, child)
	child.parent = nil
	n.leaves -= child.NumLeaves()
	n.propagateLeaves(n.NumLeaves() - old)
	return true
}

func (n *Node) propagateLeaves(delta int) {
	if delta == 0 {
		return
	}
	for p := n.parent; p != nil; p = p.parent {
		p.leaves += delta
	}
}

// IsChild reports whether c is a child of n.
func (n *Node) IsChild(c *Node) bool {
	_, ok := n.children[c]
	return ok
}

// Children returns the children ordered by id.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.children))
	for c := range n.children {
		out = append(out, c)
	}
	SortByID(out)
	return out
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// Parent returns the parent or nil.
func (n *Node) Parent() *Node { return n.parent }

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool { return n.parent == nil }

// NumLeaves returns the number of leaves in the subtree of n; 1 for a leaf.
func (n *Node) NumLeaves() int {
	if n.IsLeaf() {
		return 1
	}
	return n.leaves
}

// NumNodesInSubtree returns the number of descendants of n; 0 for a leaf.
func (n *Node) NumNodesInSubtree() int {
	total := 0
	for c := range n.children {
		total += 1 + c.NumNodesInSubtree()
	}
	return total
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return fmt.Sprintf("%s#%d", n.kind, n.id)
}

func (n *Node) markDirty() {
	n.registry.Mark(n)
}

// SortByID sorts nodes in ascending id order.
func SortByID(nodes []*Node) {
	slices.SortFunc(nodes, func(a, b *Node) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
}
