package workflow

import (
	"context"
	"fmt"

	"github.com/mcpflow/mcpflow/agent"
	"github.com/mcpflow/mcpflow/catalog"
	"github.com/mcpflow/mcpflow/command"
	"github.com/mcpflow/mcpflow/config"
	"github.com/mcpflow/mcpflow/core"
	"github.com/mcpflow/mcpflow/dispatch"
	"github.com/mcpflow/mcpflow/logging"
	"github.com/mcpflow/mcpflow/mcp"
	"github.com/mcpflow/mcpflow/model"
)

// OrchestratorOptions configure an Orchestrator.
type OrchestratorOptions struct {
	Logger logging.Logger
}

// Orchestrator wires the server pool, tool catalog, parser, dispatcher and
// agent set together from one configuration and runs workflows over them.
// Construct it once per process; individual runs are independent.
type Orchestrator struct {
	cfg        *config.Config
	model      model.Model
	pool       *mcp.Pool
	store      *catalog.Store
	parser     *command.Parser
	dispatcher *dispatch.Dispatcher
	logger     logging.Logger
}

// NewOrchestrator builds the component graph for the given configuration and
// completion model. Call Init before running workflows.
func NewOrchestrator(cfg *config.Config, m model.Model, optFns ...func(o *OrchestratorOptions)) *Orchestrator {
	opts := OrchestratorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	pool := mcp.NewPool(func(o *mcp.PoolOptions) { o.Logger = opts.Logger })
	store := catalog.NewStore(func(o *catalog.StoreOptions) { o.Logger = opts.Logger })

	return &Orchestrator{
		cfg:        cfg,
		model:      m,
		pool:       pool,
		store:      store,
		parser:     command.NewParser(func(o *command.ParserOptions) { o.Logger = opts.Logger }),
		dispatcher: dispatch.NewDispatcher(pool, func(o *dispatch.Options) { o.Logger = opts.Logger }),
		logger:     opts.Logger,
	}
}

// Init connects the enabled servers and runs the first discovery pass. Called
// once before any workflow reads the catalog. Per-server connect or discovery
// failures degrade that server's participation; Init fails only when the
// context is cancelled.
func (o *Orchestrator) Init(ctx context.Context) error {
	if !o.cfg.MCP.Enabled {
		o.logger.Info("mcp integration disabled, running without tools")
		return nil
	}

	servers := o.cfg.EnabledServers()
	if err := o.pool.Connect(ctx, servers); err != nil {
		return fmt.Errorf("connect server pool: %w", err)
	}

	sources := make([]catalog.Lister, 0, o.pool.Len())
	for _, c := range o.pool.Clients() {
		sources = append(sources, c)
	}
	if _, err := o.store.Refresh(ctx, sources); err != nil {
		return fmt.Errorf("discover tools: %w", err)
	}
	return nil
}

// Refresh re-runs tool discovery over the connected pool.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	sources := make([]catalog.Lister, 0, o.pool.Len())
	for _, c := range o.pool.Clients() {
		sources = append(sources, c)
	}
	_, err := o.store.Refresh(ctx, sources)
	return err
}

// Pool returns the server connection pool.
func (o *Orchestrator) Pool() *mcp.Pool { return o.pool }

// Catalog returns the tool catalog store.
func (o *Orchestrator) Catalog() *catalog.Store { return o.store }

// Agents builds the enabled agent set from configuration, with each agent's
// visible tool listing baked into its instructions.
func (o *Orchestrator) Agents() []*agent.Agent {
	factory := agent.NewFactory(o.model, o.store, func(fo *agent.FactoryOptions) {
		fo.Logger = o.logger
	})
	return factory.Build(o.cfg.Agents)
}

// RunMulti executes the configured multi-agent conversation for the query.
func (o *Orchestrator) RunMulti(ctx context.Context, query string) core.WorkflowResult {
	agents := o.Agents()

	order, skipped := o.cfg.ResolveTurnOrder()
	for _, name := range skipped {
		o.logger.Warn("configured turn order references unknown agent", "agent", name)
	}

	wf := NewMulti(agents, func(mo *MultiOptions) {
		mo.TurnOrder = order
		mo.MaxRounds = o.cfg.Workflow.MaxRounds
		mo.Parser = o.parser
		mo.Executor = o.dispatcher
		mo.Catalog = o.store
		mo.Logger = o.logger
	})
	return wf.Run(ctx, query)
}

// RunSimple executes the single-agent workflow for the query using the first
// enabled agent.
func (o *Orchestrator) RunSimple(ctx context.Context, query string) core.WorkflowResult {
	agents := o.Agents()
	if len(agents) == 0 {
		werr := newWorkflowError("simple", "init", fmt.Errorf("no agents available"))
		return core.WorkflowResult{Success: false, Error: werr.Error()}
	}

	wf := NewSimple(agents[0], func(so *SimpleOptions) {
		so.Parser = o.parser
		so.Executor = o.dispatcher
		so.Catalog = o.store
		so.Logger = o.logger
	})
	return wf.Run(ctx, query)
}

// Close releases the server pool.
func (o *Orchestrator) Close() {
	o.pool.Close()
}
