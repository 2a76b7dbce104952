package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mcpflow/mcpflow/agent"
	"github.com/mcpflow/mcpflow/catalog"
	"github.com/mcpflow/mcpflow/command"
	"github.com/mcpflow/mcpflow/core"
	"github.com/mcpflow/mcpflow/logging"
)

// State is the lifecycle phase of a workflow.
type State string

const (
	StateInit      State = "INIT"
	StateRunning   State = "RUNNING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

// contextWindow bounds how many trailing messages feed the next turn.
const contextWindow = 3

// Executor runs one structured tool invocation. Satisfied by
// *dispatch.Dispatcher.
type Executor interface {
	Execute(ctx context.Context, inv core.ToolInvocation) core.ToolResult
}

// CatalogSource exposes the current tool catalog snapshot. Satisfied by
// *catalog.Store.
type CatalogSource interface {
	Current() *catalog.Catalog
}

// MultiOptions configure a MultiAgentWorkflow.
type MultiOptions struct {
	// TurnOrder is the explicit agent sequence per round. Names that do not
	// match a known agent are skipped with a warning. Empty means the agents
	// participate in the order they were provided.
	TurnOrder []string

	// MaxRounds bounds the number of passes through the turn order.
	MaxRounds int

	// Parser extracts tool commands from agent output.
	Parser *command.Parser

	// Executor dispatches parsed invocations. Nil disables tool execution.
	Executor Executor

	// Catalog supplies the registry snapshot the parser resolves against.
	// Nil disables tool execution.
	Catalog CatalogSource

	// Logger receives diagnostic output. Defaults to NoOpLogger.
	Logger logging.Logger
}

// MultiAgentWorkflow drives a set of agents through rounds of a turn order
// until a termination rule fires or the round budget runs out. A single run
// is strictly sequential; run independent conversations on separate workflow
// instances.
type MultiAgentWorkflow struct {
	id        string
	agents    []*agent.Agent
	byName    map[string]*agent.Agent
	turnOrder []string
	maxRounds int
	parser    *command.Parser
	executor  Executor
	catalog   CatalogSource
	logger    logging.Logger
	state     State
}

// NewMulti constructs a workflow over the given agents.
func NewMulti(agents []*agent.Agent, optFns ...func(o *MultiOptions)) *MultiAgentWorkflow {
	opts := MultiOptions{
		MaxRounds: 3,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Parser == nil {
		opts.Parser = command.NewParser()
	}

	byName := make(map[string]*agent.Agent, len(agents))
	for _, a := range agents {
		byName[a.Name()] = a
	}
	return &MultiAgentWorkflow{
		id:        core.NewID(),
		agents:    agents,
		byName:    byName,
		turnOrder: opts.TurnOrder,
		maxRounds: opts.MaxRounds,
		parser:    opts.Parser,
		executor:  opts.Executor,
		catalog:   opts.Catalog,
		logger:    opts.Logger,
		state:     StateInit,
	}
}

// ID returns the workflow run identifier.
func (w *MultiAgentWorkflow) ID() string { return w.id }

// State returns the current lifecycle phase.
func (w *MultiAgentWorkflow) State() State { return w.state }

// Run executes the conversation for the given user query. The returned
// result always carries the full ordered message sequence produced so far,
// including on failure.
func (w *MultiAgentWorkflow) Run(ctx context.Context, query string) core.WorkflowResult {
	started := time.Now()

	order, err := w.resolveOrder()
	if err != nil {
		w.state = StateFailed
		return w.fail(nil, newWorkflowError(w.id, "init", err))
	}
	w.state = StateRunning
	w.logger.Info("workflow started",
		"workflow", w.id, "agents", len(order), "max_rounds", w.maxRounds)

	var messages []core.Message
	for round := 0; round < w.maxRounds; round++ {
		for turn, name := range order {
			ag := w.byName[name]

			task := query
			if !(round == 0 && turn == 0) {
				task = buildContext(query, messages)
			}

			outputs, err := ag.Complete(ctx, task)
			if err != nil {
				w.state = StateFailed
				return w.fail(messages, newWorkflowError(w.id, "completion", err))
			}
			text := strings.Join(outputs, "\n")

			msg := core.NewMessage(ag.Name(), text)
			if w.canUseTools(ag) {
				msg.ToolResult = w.runToolStep(ctx, text)
			}
			messages = append(messages, msg)

			if shouldTerminate(round, ag, order, text) {
				w.state = StateCompleted
				w.logger.Info("workflow completed",
					"workflow", w.id, "round", round, "turns", len(messages),
					"duration", time.Since(started))
				return core.WorkflowResult{Success: true, Messages: messages}
			}
		}
	}

	// Round budget exhausted without a termination message.
	w.state = StateCompleted
	w.logger.Info("workflow completed at round limit",
		"workflow", w.id, "turns", len(messages), "duration", time.Since(started))
	return core.WorkflowResult{Success: true, Messages: messages}
}

// resolveOrder filters the configured turn order to known agents, warning on
// unknown names, and falls back to the provided agent order.
func (w *MultiAgentWorkflow) resolveOrder() ([]string, error) {
	if len(w.agents) == 0 {
		return nil, fmt.Errorf("no agents available")
	}

	if len(w.turnOrder) == 0 {
		order := make([]string, len(w.agents))
		for i, a := range w.agents {
			order[i] = a.Name()
		}
		return order, nil
	}

	order := make([]string, 0, len(w.turnOrder))
	for _, name := range w.turnOrder {
		if _, ok := w.byName[name]; !ok {
			w.logger.Warn("unknown agent in turn order, skipping", "agent", name)
			continue
		}
		order = append(order, name)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("turn order matches no known agent")
	}
	return order, nil
}

func (w *MultiAgentWorkflow) canUseTools(a *agent.Agent) bool {
	return w.executor != nil && w.catalog != nil &&
		a.Capabilities().AllowsToolUse() && a.MaxToolAttempts() > 0
}

// runToolStep parses the agent output against the current catalog snapshot
// and dispatches any invocation found. A parse failure degrades to no
// invocation; a dispatch failure comes back as a failed ToolResult. Neither
// aborts the conversation.
func (w *MultiAgentWorkflow) runToolStep(ctx context.Context, text string) *core.ToolResult {
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

	w.logger.Debug("dispatching tool command",
		"workflow", w.id, "server", inv.Server, "tool", inv.Tool)
	res := w.executor.Execute(ctx, *inv)
	return &res
}

func (w *MultiAgentWorkflow) fail(messages []core.Message, werr *WorkflowError) core.WorkflowResult {
	w.logger.Error("workflow failed",
		"workflow", w.id, "stage", werr.Stage, "error", werr.Err)
	return core.WorkflowResult{
		Success:  false,
		Messages: messages,
		Error:    werr.Error(),
	}
}

// buildContext assembles the bounded task text for a follow-up turn: the
// original query plus at most the last contextWindow messages, each with any
// attached tool outcome.
func buildContext(query string, messages []core.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original query: %s\n\nRecent conversation:\n", query)

	start := len(messages) - contextWindow
	if start < 0 {
		start = 0
	}
	for _, m := range messages[start:] {
		fmt.Fprintf(&b, "%s: %s\n", m.Agent, m.Content)
		if m.ToolResult == nil {
			continue
		}
		if m.ToolResult.Success {
			fmt.Fprintf(&b, "[tool %s result: %s]\n", m.ToolResult.Tool, m.ToolResult.Content)
		} else {
			fmt.Fprintf(&b, "[tool %s error: %s]\n", m.ToolResult.Tool, m.ToolResult.Error)
		}
	}
	return b.String()
}
