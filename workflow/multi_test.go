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

// fakeExecutor records dispatched invocations and answers with a canned
// result.
type fakeExecutor struct {
	calls  []core.ToolInvocation
	result core.ToolResult
}

func (f *fakeExecutor) Execute(_ context.Context, inv core.ToolInvocation) core.ToolResult {
	f.calls = append(f.calls, inv)
	res := f.result
	res.Tool = inv.Tool
	res.Server = inv.Server
	return res
}

func mockAgent(name string, responses []string, optFns ...func(o *agent.Options)) *agent.Agent {
	m := model.NewMockModel(name + "-model")
	m.QueueResponses(responses...)
	return agent.New(name, m, optFns...)
}

// -------------------- Termination Tests --------------------

func TestMulti_ReviewerApprovalEndsWorkflow(t *testing.T) {
	planner := mockAgent("planner", []string{"Here is the rollout plan."})
	reviewer := mockAgent("reviewer", []string{"Looks solid. APPROVED."},
		func(o *agent.Options) {
			o.Capabilities = core.CapabilitySet{core.CapabilityReview}
		})

	wf := NewMulti([]*agent.Agent{planner, reviewer}, func(o *MultiOptions) {
		o.TurnOrder = []string{"planner", "reviewer"}
		o.MaxRounds = 3
	})

	res := wf.Run(context.Background(), "plan the rollout")
	assert.True(t, res.Success)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "planner", res.Messages[0].Agent)
	assert.Equal(t, "reviewer", res.Messages[1].Agent)
	assert.Equal(t, StateCompleted, wf.State())
}

func TestMulti_ForcedTerminationBeyondFirstRound(t *testing.T) {
	// Nobody ever utters a termination phrase; the first message of round
	// one must still end the run.
	a := mockAgent("a", []string{"still thinking", "still thinking"})
	b := mockAgent("b", []string{"me too", "me too"})

	wf := NewMulti([]*agent.Agent{a, b}, func(o *MultiOptions) {
		o.MaxRounds = 5
	})

	res := wf.Run(context.Background(), "never ends?")
	assert.True(t, res.Success)
	assert.Len(t, res.Messages, 3) // full round zero plus one forced turn
}

func TestMulti_LastAgentInOrderIsTerminating(t *testing.T) {
	// The closer has no review capability but speaks last, so its phrase
	// counts.
	opener := mockAgent("opener", []string{"Working on it."})
	closer := mockAgent("closer", []string{"Task finished."})

	wf := NewMulti([]*agent.Agent{opener, closer})
	res := wf.Run(context.Background(), "do the thing")

	assert.True(t, res.Success)
	assert.Len(t, res.Messages, 2)
}

func TestMulti_PhraseFromNonTerminatingAgentIgnored(t *testing.T) {
	// The first agent says "approved" but is neither a reviewer nor last in
	// the order, so round zero continues.
	eager := mockAgent("eager", []string{"I say approved already!", ""})
	second := mockAgent("second", []string{"Not so fast.", ""})

	wf := NewMulti([]*agent.Agent{eager, second}, func(o *MultiOptions) {
		o.MaxRounds = 1
	})
	res := wf.Run(context.Background(), "query")

	assert.True(t, res.Success)
	// "Not so fast." carries no phrase either, so the whole round runs.
	assert.Len(t, res.Messages, 2)
}

// -------------------- Turn Order Tests --------------------

func TestMulti_UnknownTurnOrderNamesSkipped(t *testing.T) {
	known := mockAgent("known", []string{"analysis complete"})

	wf := NewMulti([]*agent.Agent{known}, func(o *MultiOptions) {
		o.TurnOrder = []string{"ghost", "known"}
	})
	res := wf.Run(context.Background(), "query")

	assert.True(t, res.Success)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "known", res.Messages[0].Agent)
}

func TestMulti_NoAgents(t *testing.T) {
	wf := NewMulti(nil)
	res := wf.Run(context.Background(), "query")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no agents")
	assert.Equal(t, StateFailed, wf.State())
}

// -------------------- Failure Tests --------------------

func TestMulti_ModelFailurePreservesPartialProgress(t *testing.T) {
	fine := mockAgent("fine", []string{"step one done"})

	broken := model.NewMockModel("broken-model")
	broken.FailWith(errors.New("provider down"))
	failing := agent.New("failing", broken)

	wf := NewMulti([]*agent.Agent{fine, failing})
	res := wf.Run(context.Background(), "query")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "provider down")
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "fine", res.Messages[0].Agent)
	assert.Equal(t, StateFailed, wf.State())
}

// -------------------- Tool Step Tests --------------------

func TestMulti_ToolCommandDispatchedAndAttached(t *testing.T) {
	operator := mockAgent("operator",
		[]string{`Analysis complete. MCP:k8s:get_pods:{"namespace":"default"}`},
		func(o *agent.Options) {
			o.Capabilities = core.CapabilitySet{core.CapabilityToolUse, core.CapabilityReview}
		})

	exec := &fakeExecutor{result: core.ToolResult{Success: true, Content: "3 pods running"}}

	wf := NewMulti([]*agent.Agent{operator}, func(o *MultiOptions) {
		o.Executor = exec
		o.Catalog = catalog.NewStore()
	})
	res := wf.Run(context.Background(), "check the pods")

	assert.True(t, res.Success)
	require.Len(t, res.Messages, 1)
	require.NotNil(t, res.Messages[0].ToolResult)
	assert.Equal(t, "3 pods running", res.Messages[0].ToolResult.Content)

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "k8s", exec.calls[0].Server)
	assert.Equal(t, "get_pods", exec.calls[0].Tool)
	assert.Equal(t, map[string]any{"namespace": "default"}, exec.calls[0].Params)
}

func TestMulti_FailedToolResultDoesNotAbort(t *testing.T) {
	operator := mockAgent("operator",
		[]string{`MCP:k8s:get_pods:{} workflow completed`},
		func(o *agent.Options) {
			o.Capabilities = core.CapabilitySet{core.CapabilityToolUse}
		})

	exec := &fakeExecutor{result: core.ToolResult{Success: false, Error: "server gone"}}

	wf := NewMulti([]*agent.Agent{operator}, func(o *MultiOptions) {
		o.Executor = exec
		o.Catalog = catalog.NewStore()
	})
	res := wf.Run(context.Background(), "check the pods")

	assert.True(t, res.Success)
	require.Len(t, res.Messages, 1)
	require.NotNil(t, res.Messages[0].ToolResult)
	assert.False(t, res.Messages[0].ToolResult.Success)
	assert.Equal(t, "server gone", res.Messages[0].ToolResult.Error)
}

func TestMulti_NoToolStepWithoutCapability(t *testing.T) {
	chatty := mockAgent("chatty", []string{"MCP:k8s:get_pods:{} task finished"})

	exec := &fakeExecutor{result: core.ToolResult{Success: true}}
	wf := NewMulti([]*agent.Agent{chatty}, func(o *MultiOptions) {
		o.Executor = exec
		o.Catalog = catalog.NewStore()
	})
	res := wf.Run(context.Background(), "query")

	assert.True(t, res.Success)
	assert.Nil(t, res.Messages[0].ToolResult)
	assert.Empty(t, exec.calls)
}

// -------------------- Context Building Tests --------------------

func TestBuildContext_BoundedToLastThreeMessages(t *testing.T) {
	var messages []core.Message
	for _, content := range []string{"one", "two", "three", "four", "five"} {
		messages = append(messages, core.NewMessage("speaker", content))
	}

	ctx := buildContext("the query", messages)
	assert.Contains(t, ctx, "Original query: the query")
	assert.NotContains(t, ctx, "one")
	assert.NotContains(t, ctx, "two")
	assert.Contains(t, ctx, "three")
	assert.Contains(t, ctx, "four")
	assert.Contains(t, ctx, "five")
}

func TestBuildContext_IncludesToolOutcomes(t *testing.T) {
	ok := core.NewMessage("operator", "ran the tool")
	ok.ToolResult = &core.ToolResult{Success: true, Tool: "get_pods", Content: "3 pods"}

	failed := core.NewMessage("operator", "tried again")
	failed.ToolResult = &core.ToolResult{Success: false, Tool: "get_pods", Error: "timeout"}

	ctx := buildContext("q", []core.Message{ok, failed})
	assert.Contains(t, ctx, "[tool get_pods result: 3 pods]")
	assert.Contains(t, ctx, "[tool get_pods error: timeout]")
}
