// Package mcpflow provides a high-level façade over the multi-server MCP tool
// orchestration engine. Most applications interact with this package by:
//  1. Loading a configuration (config.Load) and choosing a completion model
//  2. Creating a Flow via New()
//  3. Calling Init once, then Run / RunMulti per user query
//
// The façade delegates server connections, tool discovery, command parsing
// and dispatch to workflow.Orchestrator while keeping setup concise. Defaults
// are safe for local development; production deployments typically supply a
// structured logger and real server credentials.
package mcpflow

import (
	"context"
	"fmt"

	"github.com/mcpflow/mcpflow/config"
	"github.com/mcpflow/mcpflow/core"
	"github.com/mcpflow/mcpflow/logging"
	"github.com/mcpflow/mcpflow/model"
	"github.com/mcpflow/mcpflow/model/anthropic"
	"github.com/mcpflow/mcpflow/model/openai"
	"github.com/mcpflow/mcpflow/workflow"
)

// Options configures the Flow instance.
type Options struct {
	// Model overrides the completion model. When nil, a model is built from
	// the configuration's llm section (provider, model name, credentials).
	Model model.Model

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Flow is the high-level façade aggregating the orchestrator and its
// component graph.
type Flow struct {
	cfg          *config.Config
	orchestrator *workflow.Orchestrator
}

// New creates a Flow for the given configuration.
func New(cfg *config.Config, optFns ...func(o *Options)) (*Flow, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	m := opts.Model
	if m == nil {
		built, err := ModelFromConfig(cfg.LLM)
		if err != nil {
			return nil, err
		}
		m = built
	}

	orch := workflow.NewOrchestrator(cfg, m, func(o *workflow.OrchestratorOptions) {
		o.Logger = opts.Logger
	})
	return &Flow{cfg: cfg, orchestrator: orch}, nil
}

// ModelFromConfig builds a completion model from the llm configuration
// section. Recognized providers are "openai" and "anthropic".
func ModelFromConfig(cfg config.LLMConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai", "":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// Init connects the configured servers and discovers their tools. Call once
// before Run or RunMulti.
func (f *Flow) Init(ctx context.Context) error {
	return f.orchestrator.Init(ctx)
}

// Run executes the single-agent workflow for the query.
func (f *Flow) Run(ctx context.Context, query string) core.WorkflowResult {
	return f.orchestrator.RunSimple(ctx, query)
}

// RunMulti executes the configured multi-agent conversation for the query.
func (f *Flow) RunMulti(ctx context.Context, query string) core.WorkflowResult {
	return f.orchestrator.RunMulti(ctx, query)
}

// Orchestrator exposes the underlying component graph for status inspection.
func (f *Flow) Orchestrator() *workflow.Orchestrator { return f.orchestrator }

// Close releases the server pool.
func (f *Flow) Close() { f.orchestrator.Close() }
