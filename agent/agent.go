package agent

import (
	"context"

	"github.com/mcpflow/mcpflow/core"
	"github.com/mcpflow/mcpflow/logging"
	"github.com/mcpflow/mcpflow/model"
)

// Options configure an Agent.
type Options struct {
	// Role is a short human description of what the agent does.
	Role string

	// Instructions is the system prompt sent with every completion.
	Instructions string

	// Capabilities controls tool access and termination authority.
	Capabilities core.CapabilitySet

	// MaxToolAttempts bounds tool executions per conversation turn.
	MaxToolAttempts int

	// Logger receives diagnostic output. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Agent is one configured persona backed by a completion model.
type Agent struct {
	name            string
	role            string
	instructions    string
	capabilities    core.CapabilitySet
	maxToolAttempts int
	model           model.Model
	logger          logging.Logger
}

// New creates an Agent for the given model.
func New(name string, m model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		MaxToolAttempts: 5,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{
		name:            name,
		role:            opts.Role,
		instructions:    opts.Instructions,
		capabilities:    opts.Capabilities,
		maxToolAttempts: opts.MaxToolAttempts,
		model:           m,
		logger:          opts.Logger,
	}
}

// Name returns the agent's unique name.
func (a *Agent) Name() string { return a.name }

// Role returns the agent's role description.
func (a *Agent) Role() string { return a.role }

// Instructions returns the system prompt used for completions.
func (a *Agent) Instructions() string { return a.instructions }

// Capabilities returns the agent's capability set.
func (a *Agent) Capabilities() core.CapabilitySet { return a.capabilities }

// MaxToolAttempts returns the per-turn tool execution bound.
func (a *Agent) MaxToolAttempts() int { return a.maxToolAttempts }

// Complete sends the task to the underlying model and collects the produced
// messages in order. Cancelling the context aborts the in-flight call and
// returns ctx.Err alongside whatever messages arrived before the cancel.
func (a *Agent) Complete(ctx context.Context, task string) ([]string, error) {
	a.logger.Debug("agent completion started", "agent", a.name)

	out, errCh := a.model.Generate(ctx, model.Request{
		Instructions: a.instructions,
		Input:        task,
	})

	var messages []string
	for out != nil || errCh != nil {
		select {
		case resp, ok := <-out:
			if !ok {
				out = nil
				continue
			}
			if !resp.Partial && resp.Text != "" {
				messages = append(messages, resp.Text)
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				a.logger.Error("agent completion failed", "agent", a.name, "error", err)
				return messages, err
			}
		case <-ctx.Done():
			return messages, ctx.Err()
		}
	}

	a.logger.Debug("agent completion finished", "agent", a.name, "messages", len(messages))
	return messages, nil
}
