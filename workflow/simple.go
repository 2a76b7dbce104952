package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mcpflow/mcpflow/agent"
	"github.com/mcpflow/mcpflow/command"
	"github.com/mcpflow/mcpflow/core"
	"github.com/mcpflow/mcpflow/logging"
)

// SimpleOptions configure a SimpleWorkflow.
type SimpleOptions struct {
	// Parser extracts tool commands from agent output.
	Parser *command.Parser

	// Executor dispatches parsed invocations. Nil disables tool execution.
	Executor Executor

	// Catalog supplies the registry snapshot for parsing. Nil disables tool
	// execution.
	Catalog CatalogSource

	// Explain controls the follow-up completion: when a tool ran, the agent
	// is asked once more to explain the result. Defaults to true.
	Explain bool

	// Logger receives diagnostic output. Defaults to NoOpLogger.
	Logger logging.Logger
}

// SimpleWorkflow runs a single agent exactly once. When the agent's output
// contains a tool command, the tool is executed and, if enabled, one extra
// completion turns the raw tool output into an explanation. It is the
// turn-order-length-one form of the multi-agent engine with no rounds.
type SimpleWorkflow struct {
	id       string
	agent    *agent.Agent
	parser   *command.Parser
	executor Executor
	catalog  CatalogSource
	explain  bool
	logger   logging.Logger
	state    State
}

// NewSimple constructs a single-agent workflow.
func NewSimple(a *agent.Agent, optFns ...func(o *SimpleOptions)) *SimpleWorkflow {
	opts := SimpleOptions{
		Explain: true,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Parser == nil {
		opts.Parser = command.NewParser()
	}
	return &SimpleWorkflow{
		id:       core.NewID(),
		agent:    a,
		parser:   opts.Parser,
		executor: opts.Executor,
		catalog:  opts.Catalog,
		explain:  opts.Explain,
		logger:   opts.Logger,
		state:    StateInit,
	}
}

// ID returns the workflow run identifier.
func (w *SimpleWorkflow) ID() string { return w.id }

// State returns the current lifecycle phase.
func (w *SimpleWorkflow) State() State { return w.state }

// Run executes the single turn (plus the optional explanation turn) for the
// given query.
func (w *SimpleWorkflow) Run(ctx context.Context, query string) core.WorkflowResult {
	started := time.Now()
	w.state = StateRunning
	w.logger.Info("simple workflow started", "workflow", w.id, "agent", w.agent.Name())

	outputs, err := w.agent.Complete(ctx, query)
	if err != nil {
		w.state = StateFailed
		return w.failSimple(nil, newWorkflowError(w.id, "completion", err))
	}
	text := strings.Join(outputs, "\n")

	msg := core.NewMessage(w.agent.Name(), text)
	var result *core.ToolResult
	if w.canUseTools() {
		result = w.runToolStep(ctx, text)
		msg.ToolResult = result
	}
	messages := []core.Message{msg}

	if result != nil && w.explain {
		explanation, err := w.agent.Complete(ctx, explainTask(query, result))
		if err != nil {
			w.state = StateFailed
			return w.failSimple(messages, newWorkflowError(w.id, "explanation", err))
		}
		messages = append(messages,
			core.NewMessage(w.agent.Name(), strings.Join(explanation, "\n")))
	}

	w.state = StateCompleted
	w.logger.Info("simple workflow completed",
		"workflow", w.id, "turns", len(messages), "duration", time.Since(started))
	return core.WorkflowResult{Success: true, Messages: messages}
}

func (w *SimpleWorkflow) canUseTools() bool {
	return w.executor != nil && w.catalog != nil &&
		w.agent.Capabilities().AllowsToolUse() && w.agent.MaxToolAttempts() > 0
}

func (w *SimpleWorkflow) runToolStep(ctx context.Context, text string) *core.ToolResult {
	reg := w.catalog.Current()
	inv, err := w.parser.Parse(text, reg)
	if err != nil {
		w.logger.Debug("agent output had no parsable tool command",
			"workflow", w.id, "error", err)
		return nil
	}
	if inv == nil {
		return nil
	}
	res := w.executor.Execute(ctx, *inv)
	return &res
}

func (w *SimpleWorkflow) failSimple(messages []core.Message, werr *WorkflowError) core.WorkflowResult {
	w.logger.Error("simple workflow failed",
		"workflow", w.id, "stage", werr.Stage, "error", werr.Err)
	return core.WorkflowResult{Success: false, Messages: messages, Error: werr.Error()}
}

// explainTask phrases the follow-up completion that turns a raw tool outcome
// into a user-facing explanation.
func explainTask(query string, res *core.ToolResult) string {
	outcome := res.Content
	if !res.Success {
		outcome = "error: " + res.Error
	}
	return fmt.Sprintf(
		"The user asked: %s\n\nThe tool %s on server %s returned:\n%s\n\nExplain these results to the user.",
		query, res.Tool, res.Server, outcome)
}
