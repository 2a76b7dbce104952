package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpflow/mcpflow/agent"
	"github.com/mcpflow/mcpflow/catalog"
	"github.com/mcpflow/mcpflow/core"
	"github.com/mcpflow/mcpflow/model"
)

func TestSimple_PlainAnswer(t *testing.T) {
	a := mockAgent("solo", []string{"The answer is 42."})

	wf := NewSimple(a)
	res := wf.Run(context.Background(), "what is the answer?")

	assert.True(t, res.Success)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "The answer is 42.", res.Messages[0].Content)
	assert.Equal(t, StateCompleted, wf.State())
}

func TestSimple_ToolCommandTriggersExplanation(t *testing.T) {
	a := mockAgent("solo",
		[]string{
			`Let me check. MCP:k8s:get_pods:{}`,
			"The cluster currently runs 3 pods.",
		},
		func(o *agent.Options) {
			o.Capabilities = core.CapabilitySet{core.CapabilityToolUse}
		})

	exec := &fakeExecutor{result: core.ToolResult{Success: true, Content: "3 pods running"}}
	wf := NewSimple(a, func(o *SimpleOptions) {
		o.Executor = exec
		o.Catalog = catalog.NewStore()
	})
	res := wf.Run(context.Background(), "how many pods?")

	assert.True(t, res.Success)
	require.Len(t, res.Messages, 2)

	first := res.Messages[0]
	require.NotNil(t, first.ToolResult)
	assert.Equal(t, "3 pods running", first.ToolResult.Content)

	// Second message is the explanation completion.
	assert.Equal(t, "The cluster currently runs 3 pods.", res.Messages[1].Content)
	assert.Nil(t, res.Messages[1].ToolResult)
}

func TestSimple_ExplanationDisabled(t *testing.T) {
	a := mockAgent("solo",
		[]string{`MCP:k8s:get_pods:{}`},
		func(o *agent.Options) {
			o.Capabilities = core.CapabilitySet{core.CapabilityToolUse}
		})

	exec := &fakeExecutor{result: core.ToolResult{Success: true, Content: "ok"}}
	wf := NewSimple(a, func(o *SimpleOptions) {
		o.Executor = exec
		o.Catalog = catalog.NewStore()
		o.Explain = false
	})
	res := wf.Run(context.Background(), "query")

	assert.True(t, res.Success)
	assert.Len(t, res.Messages, 1)
}

func TestSimple_NoToolCommandNoExtraTurn(t *testing.T) {
	a := mockAgent("solo",
		[]string{"no tools needed here"},
		func(o *agent.Options) {
			o.Capabilities = core.CapabilitySet{core.CapabilityToolUse}
		})

	exec := &fakeExecutor{result: core.ToolResult{Success: true}}
	wf := NewSimple(a, func(o *SimpleOptions) {
		o.Executor = exec
		o.Catalog = catalog.NewStore()
	})
	res := wf.Run(context.Background(), "query")

	assert.True(t, res.Success)
	assert.Len(t, res.Messages, 1)
	assert.Empty(t, exec.calls)
}

func TestSimple_ModelFailure(t *testing.T) {
	m := model.NewMockModel("broken")
	m.FailWith(errors.New("provider down"))
	a := agent.New("solo", m)

	wf := NewSimple(a)
	res := wf.Run(context.Background(), "query")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "provider down")
	assert.Equal(t, StateFailed, wf.State())
}

func TestExplainTask_FailureMentionsError(t *testing.T) {
	task := explainTask("why?", &core.ToolResult{
		Success: false,
		Tool:    "get_pods",
		Server:  "k8s",
		Error:   "timeout",
	})
	assert.Contains(t, task, "error: timeout")
	assert.Contains(t, task, "get_pods")
}
