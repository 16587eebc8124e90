package clusterset

import (
	"encoding/binary"
	"strings"

	"github.com/hupe1980/agglo/node"
)

// CombinationID encodes a combination of open nodes as a dense integer.
// Ids are only meaningful for the Set (and round) that issued them.
type CombinationID = uint32

// Combination is a candidate group of open nodes ordered by node id.
type Combination []*node.Node

// NewCombination returns the nodes as a Combination ordered by id.
func NewCombination(nodes ...*node.Node) Combination {
	c := make(Combination, len(nodes))
	copy(c, nodes)
	node.SortByID(c)
	return c
}

// Key returns the identity of the node set.
func (c Combination) Key() Key {
	return KeyOf(c...)
}

// Contains reports whether n is a member.
func (c Combination) Contains(n *node.Node) bool {
	for _, m := range c {
		if m == n {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (c Combination) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, n := range c {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(n.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// Key identifies a set of nodes independently of member order and of the
// round-local combination id. It is comparable and usable as a map key.
type Key string

// KeyOf builds the key of the given nodes.
func KeyOf(nodes ...*node.Node) Key {
	ids := make([]uint64, len(nodes))
	for i, n := range nodes {
		ids[i] = uint64(n.ID())
	}
	sortUint64(ids)

	buf := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.BigEndian.PutUint64(buf[i*8:], id)
	}
	return Key(buf)
}

// IDs decodes the member node ids of the key in ascending order.
func (k Key) IDs() []node.ID {
	b := []byte(k)
	ids := make([]node.ID, len(b)/8)
	for i := range ids {
		ids[i] = node.ID(binary.BigEndian.Uint64(b[i*8:]))
	}
	return ids
}

// Len returns the number of member nodes.
func (k Key) Len() int { return len(k) / 8 }

func sortUint64(a []uint64) {
	// Combinations are tiny; insertion sort avoids the generic sort overhead.
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j] < a[j-1]; j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}
