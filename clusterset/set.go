package clusterset

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/agglo/node"
)

// MaxNodes is the largest open set whose pair ids fit into a CombinationID.
const MaxNodes = 92682

var (
	// ErrDuplicateNode is returned when a node is added twice.
	ErrDuplicateNode = errors.New("clusterset: node already open")

	// ErrCapacityExceeded is returned when the set would exceed MaxNodes.
	ErrCapacityExceeded = errors.New("clusterset: capacity exceeded")

	// ErrNodeNotOpen is returned when a merge references a node outside the set.
	ErrNodeNotOpen = errors.New("clusterset: node not open")
)

// Set is the indexed set of open nodes of one clustering round.
//
// Every open node owns a dense slot in [0, Len()). Unordered pairs of slots
// i < j are encoded as the combination id j*(j-1)/2 + i, so the ids of a round
// are exactly [0, C(Len(), 2)).
//
//	slot:   0   1   2   3
//	        A   B   C   D
//
//	id 0 = {A,B}   id 1 = {A,C}   id 2 = {B,C}
//	id 3 = {A,D}   id 4 = {B,D}   id 5 = {C,D}
//
// Removing a node moves the node of the last slot into the freed slot, which
// reassigns the ids of that node's pairs. Ids are therefore stable while the
// set is not mutated, i.e. for the duration of one search call.
//
// Set is NOT thread-safe for mutation; concurrent reads are safe.
type Set struct {
	nodes []*node.Node
	slots map[*node.Node]int
}

// New creates a set holding the given nodes in slot order.
func New(nodes ...*node.Node) (*Set, error) {
	s := &Set{
		nodes: make([]*node.Node, 0, len(nodes)),
		slots: make(map[*node.Node]int, len(nodes)),
	}
	for _, n := range nodes {
		if err := s.Add(n); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Len returns the number of open nodes.
func (s *Set) Len() int { return len(s.nodes) }

// Contains reports whether n is open.
func (s *Set) Contains(n *node.Node) bool {
	_, ok := s.slots[n]
	return ok
}

// Add opens n in the next free slot.
func (s *Set) Add(n *node.Node) error {
	if _, ok := s.slots[n]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n)
	}
	if len(s.nodes) >= MaxNodes {
		return ErrCapacityExceeded
	}
	s.slots[n] = len(s.nodes)
	s.nodes = append(s.nodes, n)
	return nil
}

// Remove closes n. It returns false if n was not open.
func (s *Set) Remove(n *node.Node) bool {
	slot, ok := s.slots[n]
	if !ok {
		return false
	}
	last := len(s.nodes) - 1
	if slot != last {
		moved := s.nodes[last]
		s.nodes[slot] = moved
		s.slots[moved] = slot
	}
	s.nodes[last] = nil
	s.nodes = s.nodes[:last]
	delete(s.slots, n)
	return true
}

// Replace closes children and opens parent. The set is left unchanged if a
// child is not open or parent already is.
func (s *Set) Replace(parent *node.Node, children ...*node.Node) error {
	if s.Contains(parent) {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, parent)
	}
	for _, c := range children {
		if !s.Contains(c) {
			return fmt.Errorf("%w: %s", ErrNodeNotOpen, c)
		}
	}
	for _, c := range children {
		s.Remove(c)
	}
	return s.Add(parent)
}

// Nodes returns the open nodes in slot order.
func (s *Set) Nodes() []*node.Node {
	out := make([]*node.Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Node returns the node of the given slot.
func (s *Set) Node(slot int) *node.Node { return s.nodes[slot] }

// Lookup returns the slot of n.
func (s *Set) Lookup(n *node.Node) (int, bool) {
	slot, ok := s.slots[n]
	return slot, ok
}

// IDOf returns the slot of n. Asking for a node that is not open is a
// programming error and panics.
func (s *Set) IDOf(n *node.Node) int {
	slot, ok := s.slots[n]
	if !ok {
		panic(fmt.Sprintf("clusterset: %s is not open", n))
	}
	return slot
}

// NumCombinations returns C(Len(), 2).
func (s *Set) NumCombinations() int {
	n := uint64(len(s.nodes))
	if n < 2 {
		return 0
	}
	return int(n * (n - 1) / 2)
}

// CombinationID returns the id of the pair {a, b}. It panics if a node is not
// open or a == b.
func (s *Set) CombinationID(a, b *node.Node) CombinationID {
	i, j := s.IDOf(a), s.IDOf(b)
	if i == j {
		panic(fmt.Sprintf("clusterset: degenerate pair %s", a))
	}
	if i > j {
		i, j = j, i
	}
	return pairID(i, j)
}

// Pair returns the two nodes encoded by id in slot order. It panics if id is
// outside [0, NumCombinations()).
func (s *Set) Pair(id CombinationID) (*node.Node, *node.Node) {
	if int(id) >= s.NumCombinations() {
		panic(fmt.Sprintf("clusterset: combination %d out of range [0,%d)", id, s.NumCombinations()))
	}
	i, j := decodePair(id)
	return s.nodes[i], s.nodes[j]
}

// Combination returns the nodes encoded by id.
func (s *Set) Combination(id CombinationID) Combination {
	a, b := s.Pair(id)
	return NewCombination(a, b)
}

// AllCombinationIDs returns every pair id of the current open set.
func (s *Set) AllCombinationIDs() *roaring.Bitmap {
	ids := roaring.New()
	if c := s.NumCombinations(); c > 0 {
		ids.AddRange(0, uint64(c))
	}
	return ids
}

// CombinationsContaining returns the ids of all pairs that contain n in
// O(Len()). It panics if n is not open.
func (s *Set) CombinationsContaining(n *node.Node) *roaring.Bitmap {
	slot := s.IDOf(n)
	ids := roaring.New()

	// Pairs {i, slot} with i < slot are contiguous.
	if slot > 0 {
		base := uint64(pairID(0, slot))
		ids.AddRange(base, base+uint64(slot))
	}
	for j := slot + 1; j < len(s.nodes); j++ {
		ids.Add(pairID(slot, j))
	}
	return ids
}

func pairID(i, j int) CombinationID {
	jj := uint64(j)
	return CombinationID(jj*(jj-1)/2 + uint64(i))
}

func decodePair(id CombinationID) (int, int) {
	x := uint64(id)
	j := uint64((1 + math.Sqrt(float64(8*x+1))) / 2)
	// Correct float rounding at triangular boundaries.
	for j > 1 && j*(j-1)/2 > x {
		j--
	}
	for (j+1)*j/2 <= x {
		j++
	}
	return int(x - j*(j-1)/2), int(j)
}
