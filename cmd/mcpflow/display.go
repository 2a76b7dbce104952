package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mcpflow/mcpflow/core"
)

// printResult renders a finished workflow: each message with its author, any
// attached tool outcome, and the overall verdict.
func printResult(w io.Writer, res core.WorkflowResult) {
	for _, m := range res.Messages {
		fmt.Fprintf(w, "\n[%s]\n%s\n", m.Agent, strings.TrimSpace(m.Content))
		if m.ToolResult == nil {
			continue
		}
		if m.ToolResult.Success {
			fmt.Fprintf(w, "  tool %s @ %s:\n  %s\n",
				m.ToolResult.Tool, m.ToolResult.Server,
				indent(m.ToolResult.Content))
		} else {
			fmt.Fprintf(w, "  tool %s @ %s failed: %s\n",
				m.ToolResult.Tool, m.ToolResult.Server, m.ToolResult.Error)
		}
	}

	fmt.Fprintln(w)
	if res.Success {
		fmt.Fprintf(w, "Workflow completed (%d message(s)).\n", len(res.Messages))
		return
	}
	fmt.Fprintf(w, "Workflow failed: %s (%d message(s) before failure)\n",
		res.Error, len(res.Messages))
}

func indent(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n  ")
}
