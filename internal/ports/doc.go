// Package ports defines the interfaces (ports) that connect the batching
// core to the outside world.
//
// In Hexagonal Architecture terms, ports are the boundaries between the
// application core and infrastructure. They define what the core needs from
// external systems without specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [BatchProcessor]: processes an ordered batch of payloads
//   - [ModelClient]: batch inference against a remote model runtime
//   - [ExperimentTracker]: records per-batch serving metrics
//   - [ModelRegistry]: resolves a model name and stage to a serving endpoint
//   - [Logger]: structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The batching core and the gateway depend only on these interfaces.
// Infrastructure adapters (internal/adapters) provide the concrete
// implementations, which keeps the core testable with in-memory fakes.
package ports
