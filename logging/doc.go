// Package logging provides a minimal logging interface and adapters for mcpflow.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn,
// Error) that the orchestration layers use for observability. This package
// includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - FlowLogger with contextual helpers for servers, agents and runs
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	orch := workflow.NewOrchestrator(cfg, m, func(o *workflow.OrchestratorOptions) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
