package catalog

import (
	"github.com/mcpflow/mcpflow/config"
	"github.com/mcpflow/mcpflow/core"
)

// FilterForAgent returns the catalog entries visible to one agent. It is a
// pure function of the agent descriptor and the snapshot: an agent sees a
// tool only if its capability set allows tool use at all, and its own
// allow-list is empty, "*", or explicitly names the tool.
func FilterForAgent(agent config.AgentConfig, c *Catalog) []Entry {
	caps := core.ParseCapabilities(agent.Capabilities)
	if !caps.AllowsToolUse() {
		return nil
	}

	if allowsAll(agent.Tools) {
		return c.Entries()
	}

	allowed := make(map[string]struct{}, len(agent.Tools))
	for _, name := range agent.Tools {
		allowed[name] = struct{}{}
	}

	var out []Entry
	for _, e := range c.Entries() {
		if _, ok := allowed[e.Name]; ok {
			out = append(out, e)
		}
	}
	return out
}

// allowsAll reports whether an agent allow-list means "every tool": empty or
// containing the wildcard.
func allowsAll(tools []string) bool {
	if len(tools) == 0 {
		return true
	}
	for _, t := range tools {
		if t == "*" {
			return true
		}
	}
	return false
}
