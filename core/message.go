package core

import "time"

// Message is one agent turn in a workflow conversation. The sequence of
// messages is append-only for the duration of a single workflow execution and
// is discarded when the workflow ends.
type Message struct {
	// ID uniquely identifies the message within a run.
	ID string `json:"id"`
	// Agent is the name of the agent that produced the content.
	Agent string `json:"agent"`
	// Content is the text the agent produced.
	Content string `json:"content"`
	// ToolResult carries the outcome of a tool invocation triggered by this
	// message, when the agent issued one. Nil otherwise.
	ToolResult *ToolResult `json:"tool_result,omitempty"`
	// Timestamp records when the message was appended (UTC).
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage constructs a message authored by the named agent.
func NewMessage(agent, content string) Message {
	return Message{
		ID:        NewID(),
		Agent:     agent,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// WorkflowResult is the terminal outcome of one workflow execution. On
// failure Messages still holds whatever turns completed before the error;
// partial progress is preserved, not discarded.
type WorkflowResult struct {
	Success  bool      `json:"success"`
	Messages []Message `json:"messages"`
	Error    string    `json:"error,omitempty"`
}
