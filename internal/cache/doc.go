// Package cache stores memoized merge results keyed by the set of nodes they
// were computed for.
//
// # Result Store
//
// Entries are keyed by clusterset.Key, the order-independent identity of a
// node set, never by a round-local combination id. A reverse index from each
// member node to its entries bounds invalidation cost by the degree of the
// invalidated node instead of the total store size:
//
//	items:   {A,B} → 0.50   {A,C} → 0.20   {B,D} → 0.75
//	byNode:  A → {A,B} {A,C}
//	         B → {A,B} {B,D}
//	         C → {A,C}
//	         D → {B,D}
//
// EvictNode(B) removes {A,B} and {B,D} and leaves {A,C} untouched.
//
// # Capacity
//
// A Store is unbounded by default. With a positive capacity it evicts the
// least recently used entries, which only costs recomputation. When a
// resource.Controller is supplied every entry reserves an estimate of its
// footprint; a denied reservation skips caching instead of blocking.
package cache
