// Package resource governs the resources shared by concurrent clustering runs.
//
// The Controller manages two resource types:
//
//   - Workers: limit the number of scoring shards running at once across all
//     searchers that share the controller (blocking acquire)
//   - Memory: track and optionally cap the bytes held by result caches
//     (non-blocking, fail-fast)
//
// # Architecture
//
//	┌───────────────────────────────────────────────┐
//	│                  Controller                   │
//	├───────────────────────┬───────────────────────┤
//	│  Worker Slots (sem)   │  Memory Limit (sem)   │
//	├───────────────────────┼───────────────────────┤
//	│  AcquireWorker        │  TryAcquireMemory     │
//	│  ReleaseWorker        │  ReleaseMemory        │
//	│  BusyWorkers          │  MemoryUsage          │
//	└───────────────────────┴───────────────────────┘
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops that
// always grant the request.
package resource
