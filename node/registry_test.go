package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_DrainFunc(t *testing.T) {
	g := NewGraph()
	r := g.Registry()

	nodes := make([]*Node, 5)
	for i := range nodes {
		nodes[i] = g.NewNode(KindUser)
		r.Mark(nodes[i])
	}
	assert.Equal(t, 5, r.Len())

	even := r.DrainFunc(func(n *Node) bool { return n.ID()%2 == 0 })
	assert.Equal(t, []*Node{nodes[0], nodes[2], nodes[4]}, even)
	assert.Equal(t, []*Node{nodes[1], nodes[3]}, r.Nodes())

	for i, n := range nodes {
		assert.Equal(t, i%2 == 1, n.IsDirty(), "node %d", i)
		assert.Equal(t, n.IsDirty(), r.Contains(n), "flag and membership agree for node %d", i)
	}

	rest := r.Drain()
	assert.Len(t, rest, 2)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Drain(), "draining an empty registry is a no-op")

	// Drained nodes can be marked again.
	r.Mark(nodes[1])
	assert.True(t, r.Contains(nodes[1]))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Nil(t *testing.T) {
	var r *Registry
	n := NewGraph().NewNode(KindUser)

	r.Mark(n)
	assert.False(t, n.IsDirty())
	assert.False(t, r.Contains(n))
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Drain())
	assert.Nil(t, r.Nodes())
}
