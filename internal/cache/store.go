package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/agglo/clusterset"
	"github.com/hupe1980/agglo/internal/resource"
	"github.com/hupe1980/agglo/node"
)

// entryOverhead approximates the bytes held by one entry besides its members
// (list element, map slots, reverse index slots).
const entryOverhead = 160

// Entry is a memoized utility of one node set.
type Entry struct {
	Key     clusterset.Key
	Nodes   []*node.Node
	Utility float64
}

func (e *Entry) size() int64 {
	return entryOverhead + int64(len(e.Nodes))*16 + int64(len(e.Key))
}

// Stats is a snapshot of store counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// HitRate returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Store is a result store with a per-node reverse index.
type Store struct {
	mu        sync.Mutex
	capacity  int
	items     map[clusterset.Key]*list.Element
	byNode    map[*node.Node]map[clusterset.Key]struct{}
	evictList *list.List
	rc        *resource.Controller

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// New creates a store holding at most capacity entries (0 = unbounded).
// If rc is provided, it will be used to track memory usage.
func New(capacity int, rc *resource.Controller) *Store {
	if capacity < 0 {
		capacity = 0
	}
	return &Store{
		capacity:  capacity,
		items:     make(map[clusterset.Key]*list.Element),
		byNode:    make(map[*node.Node]map[clusterset.Key]struct{}),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get returns the entry of key.
func (s *Store) Get(key clusterset.Key) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		s.hits.Add(1)
		s.evictList.MoveToFront(el)
		return *el.Value.(*Entry), true
	}
	s.misses.Add(1)
	return Entry{}, false
}

// Set stores the utility of nodes, replacing a previous entry of the same set.
// It reports whether the entry was stored.
func (s *Store) Set(nodes []*node.Node, utility float64) bool {
	key := clusterset.KeyOf(nodes...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		el.Value.(*Entry).Utility = utility
		s.evictList.MoveToFront(el)
		return true
	}

	members := make([]*node.Node, len(nodes))
	copy(members, nodes)
	e := &Entry{Key: key, Nodes: members, Utility: utility}

	// Evict locally first so the released memory can be acquired back.
	if s.capacity > 0 {
		for s.evictList.Len() >= s.capacity {
			s.removeElement(s.evictList.Back())
			s.evictions.Add(1)
		}
	}
	if !s.rc.TryAcquireMemory(e.size()) {
		return false
	}

	s.items[key] = s.evictList.PushFront(e)
	for _, n := range members {
		keys, ok := s.byNode[n]
		if !ok {
			keys = make(map[clusterset.Key]struct{})
			s.byNode[n] = keys
		}
		keys[key] = struct{}{}
	}
	return true
}

// Delete removes the entry of key. It reports whether an entry existed.
func (s *Store) Delete(key clusterset.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return false
	}
	s.removeElement(el)
	s.evictions.Add(1)
	return true
}

// EvictNode removes every entry that contains n and returns their number.
func (s *Store) EvictNode(n *node.Node) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.byNode[n]
	if len(keys) == 0 {
		return 0
	}
	toRemove := make([]*list.Element, 0, len(keys))
	for key := range keys {
		toRemove = append(toRemove, s.items[key])
	}
	for _, el := range toRemove {
		s.removeElement(el)
	}
	s.evictions.Add(int64(len(toRemove)))
	return len(toRemove)
}

// Tracks reports whether any entry contains n.
func (s *Store) Tracks(n *node.Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byNode[n]) > 0
}

// Clear removes every entry. Counters are kept.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for el := s.evictList.Front(); el != nil; el = el.Next() {
		s.rc.ReleaseMemory(el.Value.(*Entry).size())
	}
	s.items = make(map[clusterset.Key]*list.Element)
	s.byNode = make(map[*node.Node]map[clusterset.Key]struct{})
	s.evictList.Init()
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Stats returns the store counters.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
		Size:      s.Len(),
	}
}

func (s *Store) removeElement(el *list.Element) {
	s.evictList.Remove(el)
	e := el.Value.(*Entry)
	delete(s.items, e.Key)
	for _, n := range e.Nodes {
		keys := s.byNode[n]
		delete(keys, e.Key)
		if len(keys) == 0 {
			delete(s.byNode, n)
		}
	}
	s.rc.ReleaseMemory(e.size())
}
