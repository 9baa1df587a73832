// Package domain contains the core entities of the micro-batching model.
//
// This package is the innermost layer. It has no dependencies on transport,
// logging, or scheduling concerns and contains only the data shapes and
// invariants the rest of the module is built on.
//
// # Entities
//
//   - [Request]: a single submitted payload with its result channel
//   - [Batch]: an ordered group of requests dispatched together
//
// A Batch never exceeds its configured capacity, and every Request that
// enters a Batch is resolved exactly once: either with its position-aligned
// result or with an error shared by the whole batch.
package domain
