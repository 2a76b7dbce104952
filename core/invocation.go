package core

import "fmt"

// ToolInvocation is a structured tool call extracted from free-form agent
// output. It is constructed by the command parser and consumed exactly once
// by the dispatcher; it is never persisted.
type ToolInvocation struct {
	// Tool is the name of the remote tool to call.
	Tool string `json:"tool"`
	// Server is the name of the configured server that owns the tool.
	Server string `json:"server"`
	// Params is the parameter mapping sent as the JSON request body.
	Params map[string]any `json:"params"`
}

// String renders the invocation in the explicit command form, which is also
// how it appears in logs.
func (i ToolInvocation) String() string {
	return fmt.Sprintf("MCP:%s:%s(%v)", i.Server, i.Tool, i.Params)
}

// ToolResult is the normalized outcome of dispatching one ToolInvocation.
// Failures are values: a failed dispatch produces a ToolResult with Success
// false and Error set, never an escaping error. Raw retains the unmodified
// server payload for diagnostics. Immutable once constructed.
type ToolResult struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Tool    string `json:"tool"`
	Server  string `json:"server"`
	Raw     any    `json:"raw,omitempty"`
}
