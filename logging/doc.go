// Package logging provides a minimal logging interface and adapters for opsmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the orchestration components use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - OpsMeshLogger with contextual helpers and domain specific log methods
//     for tool invocations, agent delegations and workflow executions
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	connector := mcp.New(specs, func(o *mcp.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
