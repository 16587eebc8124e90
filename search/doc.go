// Package search finds the best merge of a clustering round.
//
// A Searcher maps combination ids of a clusterset.Set to utilities. Searchers
// compose: decorators wrap an inner Searcher, prune or answer part of the
// request and delegate the rest.
//
//	Selector
//	   │  Search(all ids)
//	   ▼
//	ResultCache ──── serves entries of clean node sets
//	   │  misses
//	   ▼
//	OverlapFilter ── drops pairs without a shared attribute key
//	   │  survivors
//	   ▼
//	Basic ────────── scores shards in parallel, stops early at the maximum
//
// # Concurrency
//
// Only Basic runs in parallel, and its shards only read the set and its nodes.
// Decorators mutate their own state (known overlaps, cached entries, the dirty
// registry) on the calling goroutine before and after delegating. A Searcher
// chain must therefore not be shared by concurrent Search calls.
//
// # Early termination
//
// Basic shares one atomic flag per call between its shards. A shard that
// scores a combination at the theoretical maximum raises the flag and stops,
// and the other shards stop before their next combination. Reads of the flag
// race with the write on purpose: a late reader scores at most one more
// combination. When two shards find different maximal combinations at the
// same time both are returned and the Selector picks the lower id.
package search
