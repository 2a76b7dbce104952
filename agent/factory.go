package agent

import (
	"fmt"
	"strings"

	"github.com/mcpflow/mcpflow/catalog"
	"github.com/mcpflow/mcpflow/command"
	"github.com/mcpflow/mcpflow/config"
	"github.com/mcpflow/mcpflow/core"
	"github.com/mcpflow/mcpflow/logging"
	"github.com/mcpflow/mcpflow/model"
)

// ToolLister supplies the tool entries visible to one configured agent.
// *catalog.Store satisfies it.
type ToolLister interface {
	ForAgent(agent config.AgentConfig) []catalog.Entry
}

// FactoryOptions configure a Factory.
type FactoryOptions struct {
	Logger logging.Logger
}

// Factory builds the enabled agent set from configuration, binding each
// persona to the shared completion model and injecting its visible tool
// listing into the system instructions.
type Factory struct {
	model  model.Model
	tools  ToolLister
	logger logging.Logger
}

// NewFactory creates a Factory. tools may be nil when no tool servers are
// configured; agents are then built without a tool listing.
func NewFactory(m model.Model, tools ToolLister, optFns ...func(o *FactoryOptions)) *Factory {
	opts := FactoryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Factory{model: m, tools: tools, logger: opts.Logger}
}

// Build constructs one Agent per enabled configuration entry, preserving
// configuration order. Disabled entries are skipped with a debug line.
func (f *Factory) Build(cfgs []config.AgentConfig) []*Agent {
	agents := make([]*Agent, 0, len(cfgs))
	for _, cfg := range cfgs {
		if !cfg.Enabled {
			f.logger.Debug("skipping disabled agent", "agent", cfg.Name)
			continue
		}
		agents = append(agents, f.buildOne(cfg))
	}
	return agents
}

func (f *Factory) buildOne(cfg config.AgentConfig) *Agent {
	caps := core.ParseCapabilities(cfg.Capabilities)

	var visible []catalog.Entry
	if f.tools != nil && caps.AllowsToolUse() {
		visible = f.tools.ForAgent(cfg)
	}

	f.logger.Debug("building agent",
		"agent", cfg.Name, "role", cfg.Role, "tools", len(visible))

	return New(cfg.Name, f.model, func(o *Options) {
		o.Role = cfg.Role
		o.Instructions = buildInstructions(cfg, visible)
		o.Capabilities = caps
		o.MaxToolAttempts = cfg.MaxToolAttempts
		o.Logger = f.logger
	})
}

// buildInstructions assembles the system prompt: the configured prompt,
// then the tool listing and invocation syntax when the agent can see tools.
func buildInstructions(cfg config.AgentConfig, visible []catalog.Entry) string {
	var b strings.Builder
	b.WriteString(cfg.SystemPrompt)

	if len(visible) == 0 {
		return b.String()
	}

	b.WriteString("\n\nYou have access to the following MCP tools:\n")
	for _, e := range visible {
		desc := e.Description
		if desc == "" {
			desc = "(no description)"
		}
		fmt.Fprintf(&b, "- %s.%s: %s\n", e.Server, e.Name, desc)
	}
	fmt.Fprintf(&b,
		"\nTo call a tool, respond with a single line of the form:\n"+
			"%sserver:tool:{\"param\": \"value\"}\n"+
			"Only call tools from the list above.", command.DefaultMarker)
	return b.String()
}
