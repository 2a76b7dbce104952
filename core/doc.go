// Package core provides the foundational domain types shared by the mcpflow
// orchestration layers. It defines the units that flow between components:
//
//   - ToolInvocation (a structured tool call extracted from agent output)
//   - ToolResult (the normalized outcome of dispatching an invocation)
//   - Message (one agent turn, optionally carrying a tool result)
//   - WorkflowResult (the terminal outcome of one workflow execution)
//   - Capability (the closed set of recognized agent capability tags)
//
// The package intentionally keeps implementation concerns (HTTP transport,
// discovery, parsing, model calls) out of scope so that every other package
// can depend on it without cycles. All types here are plain values; once a
// ToolResult or Message has been handed to the conversation history it must
// be treated as immutable.
package core
