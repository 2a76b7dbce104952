// Package model defines the completion capability consumed by agents: a text
// task goes in, a stream of produced responses comes out. The interface is
// deliberately opaque to the orchestration core: a model may internally run
// its own tool-calling loop or answer in one shot. Provider adapters live in
// the subpackages; MockModel backs tests and examples.
package model

import (
	"context"
	"fmt"
)

// Request captures the normalized model input produced by an agent turn.
type Request struct {
	// Instructions is the system prompt assembled from the agent's persona.
	Instructions string `json:"instructions"`
	// Input is the task text for this turn (user query or bounded context).
	Input string `json:"input"`
	// Stream requests partial responses when the provider supports it.
	Stream bool `json:"stream,omitempty"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	Partial      bool   `json:"partial"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"` // "stop", "length", etc.
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required to drive agent completions. The
// caller-supplied context carries cancellation: an aborted call must surface
// on the error channel rather than hang.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
type MockModel struct {
	info      Info
	responses map[string]string
	// queue serves responses in order when no keyed match exists.
	queue   []string
	calls   int
	failErr error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input task.
func (m *MockModel) AddResponse(input, response string) { m.responses[input] = response }

// QueueResponses registers responses served in order regardless of input.
func (m *MockModel) QueueResponses(responses ...string) {
	m.queue = append(m.queue, responses...)
}

// FailWith makes every subsequent Generate call emit err instead of a
// response.
func (m *MockModel) FailWith(err error) { m.failErr = err }

// Calls returns how many times Generate has been invoked.
func (m *MockModel) Calls() int { return m.calls }

// Generate implements Model; emits optional streaming chunks then the final
// response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.calls++
	if m.failErr != nil {
		go func() {
			defer close(respCh)
			defer close(errCh)
			errCh <- m.failErr
		}()
		return respCh, errCh
	}

	full, ok := m.responses[req.Input]
	if !ok && len(m.queue) > 0 {
		full = m.queue[0]
		m.queue = m.queue[1:]
		ok = true
	}
	if !ok {
		full = fmt.Sprintf("Mock response to: %s", req.Input)
	}

	go func() {
		defer close(respCh)
		defer close(errCh)
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Partial: false, Text: full, FinishReason: "stop"}:
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
