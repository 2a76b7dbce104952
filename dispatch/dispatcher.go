// Package dispatch routes structured tool invocations to the owning server
// connection and folds whatever the server answers into a uniform
// core.ToolResult. Dispatch failures are values attached to the conversation,
// never errors that abort a turn.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mcpflow/mcpflow/core"
	"github.com/mcpflow/mcpflow/logging"
	"github.com/mcpflow/mcpflow/mcp"
)

// ClientSet is the pool surface the dispatcher needs. Satisfied by *mcp.Pool.
type ClientSet interface {
	Get(name string) (*mcp.Client, bool)
}

// Options configure a Dispatcher.
type Options struct {
	Logger logging.Logger
}

// Dispatcher executes tool invocations against the active client set.
type Dispatcher struct {
	clients ClientSet
	logger  logging.Logger
}

// NewDispatcher constructs a Dispatcher over the given client set.
func NewDispatcher(clients ClientSet, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{clients: clients, logger: opts.Logger}
}

// Execute resolves the invocation's server, invokes the tool and normalizes
// the response. Every outcome is a ToolResult: an unknown server or a remote
// failure produces a failed result with a descriptive error, never a panic or
// an escaping error.
func (d *Dispatcher) Execute(ctx context.Context, inv core.ToolInvocation) core.ToolResult {
	client, ok := d.clients.Get(inv.Server)
	if !ok {
		d.logger.Warn("dispatch to unknown server", "server", inv.Server, "tool", inv.Tool)
		return core.ToolResult{
			Success: false,
			Error:   fmt.Sprintf("mcp server %q not available", inv.Server),
			Tool:    inv.Tool,
			Server:  inv.Server,
		}
	}

	d.logger.Info("executing tool", "server", inv.Server, "tool", inv.Tool)
	start := time.Now()

	resp := client.Invoke(ctx, inv.Tool, inv.Params)
	if !resp.Success {
		d.logger.Error("tool execution failed", "server", inv.Server, "tool", inv.Tool,
			"duration", time.Since(start), "error", resp.Err)
		return core.ToolResult{
			Success: false,
			Error:   resp.Err,
			Tool:    inv.Tool,
			Server:  inv.Server,
			Raw:     resp.Data,
		}
	}

	d.logger.Debug("tool execution completed", "server", inv.Server, "tool", inv.Tool,
		"duration", time.Since(start))
	return core.ToolResult{
		Success: true,
		Content: ExtractContent(resp.Data),
		Tool:    inv.Tool,
		Server:  inv.Server,
		Raw:     resp.Data,
	}
}

// ExtractContent normalizes an arbitrary server payload into plain text. The
// heuristics run in order: a "content" list of blocks bearing "text", a bare
// "content" string, a "text" field, a "result" field, and finally the
// stringified payload. The function is total: every payload shape yields
// some textual content.
func ExtractContent(data any) string {
	if m, ok := data.(map[string]any); ok {
		if content, ok := m["content"]; ok {
			switch c := content.(type) {
			case []any:
				if text := joinTextBlocks(c); text != "" {
					return text
				}
			case string:
				return c
			}
		}
		if text, ok := m["text"].(string); ok {
			return text
		}
		if result, ok := m["result"]; ok {
			return stringify(result)
		}
	}
	return stringify(data)
}

func joinTextBlocks(blocks []any) string {
	var parts []string
	for _, b := range blocks {
		if block, ok := b.(map[string]any); ok {
			if text, ok := block["text"].(string); ok {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// stringify renders any payload as text, preferring compact JSON for
// structured values so map output stays deterministic.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}
