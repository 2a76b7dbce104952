package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpflow/mcpflow/config"
	"github.com/mcpflow/mcpflow/model"
)

// newToolServer serves a two-tool catalog and records every invocation body
// posted to the get_pods call endpoint.
func newToolServer(t *testing.T) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var calls []map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/mcp/tools/list", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tools": []any{
				map[string]any{"name": "get_pods", "description": "List pods in a namespace"},
				map[string]any{"name": "delete_pods", "description": "Delete pods"},
			},
		})
	})
	mux.HandleFunc("/mcp/tools/get_pods/call", func(w http.ResponseWriter, r *http.Request) {
		var params map[string]any
		_ = json.NewDecoder(r.Body).Decode(&params)
		calls = append(calls, params)
		_ = json.NewEncoder(w).Encode(map[string]any{"content": "3 pods running"})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &calls
}

func orchestratorServer(name, url string, tools ...string) config.ServerConfig {
	if len(tools) == 0 {
		tools = []string{"*"}
	}
	return config.ServerConfig{
		Name:          name,
		URL:           url,
		Enabled:       true,
		Timeout:       5 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		HealthPath:    "/health",
		ToolsPath:     "/mcp/tools",
		Tools:         tools,
	}
}

func orchestratorConfig(servers ...config.ServerConfig) *config.Config {
	return &config.Config{
		LLM:      config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "test-key"},
		MCP:      config.MCPConfig{Enabled: len(servers) > 0, Servers: servers},
		Workflow: config.WorkflowConfig{MaxRounds: 3},
	}
}

// -------------------- Turn Order Derivation Tests --------------------

func TestOrchestrator_AutoTurnOrderFromPriorities(t *testing.T) {
	cfg := orchestratorConfig()
	// The reviewer is listed first but carries the higher priority value, so
	// the derived order must still put the planner first.
	cfg.Agents = []config.AgentConfig{
		{
			Name: "reviewer", Role: "Reviews the plan", Enabled: true,
			Priority: 2, Capabilities: []string{"review"}, MaxToolAttempts: 5,
		},
		{
			Name: "planner", Role: "Plans the steps", Enabled: true,
			Priority: 1, MaxToolAttempts: 5,
		},
	}

	m := model.NewMockModel("shared")
	m.QueueResponses("Here is the rollout plan.", "Looks good. APPROVED.")

	orch := NewOrchestrator(cfg, m)
	defer orch.Close()
	require.NoError(t, orch.Init(context.Background()))
	assert.Equal(t, 0, orch.Pool().Len())

	res := orch.RunMulti(context.Background(), "plan the rollout")
	assert.True(t, res.Success)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "planner", res.Messages[0].Agent)
	assert.Equal(t, "reviewer", res.Messages[1].Agent)
}

// -------------------- Init and Discovery Tests --------------------

func TestOrchestrator_InitAppliesServerAllowList(t *testing.T) {
	ts, _ := newToolServer(t)
	cfg := orchestratorConfig(orchestratorServer("ops", ts.URL, "get_pods"))

	orch := NewOrchestrator(cfg, model.NewMockModel("shared"))
	defer orch.Close()
	require.NoError(t, orch.Init(context.Background()))
	assert.Equal(t, 1, orch.Pool().Len())

	reg := orch.Catalog().Current()
	assert.Equal(t, 1, reg.Len())
	entry, ok := reg.Lookup("ops", "get_pods")
	require.True(t, ok)
	assert.Equal(t, "List pods in a namespace", entry.Description)
	_, ok = reg.Lookup("ops", "delete_pods")
	assert.False(t, ok)
}

func TestOrchestrator_InitToleratesUnreachableServer(t *testing.T) {
	ts, _ := newToolServer(t)
	down := orchestratorServer("down", "http://127.0.0.1:1")
	cfg := orchestratorConfig(down, orchestratorServer("ops", ts.URL))

	orch := NewOrchestrator(cfg, model.NewMockModel("shared"))
	defer orch.Close()
	require.NoError(t, orch.Init(context.Background()))

	assert.Equal(t, 1, orch.Pool().Len())
	_, ok := orch.Pool().Get("down")
	assert.False(t, ok)
	assert.Equal(t, 2, orch.Catalog().Current().Len())
}

func TestOrchestrator_InitSkipsWhenMCPDisabled(t *testing.T) {
	cfg := orchestratorConfig(orchestratorServer("ops", "http://127.0.0.1:1"))
	cfg.MCP.Enabled = false

	orch := NewOrchestrator(cfg, model.NewMockModel("shared"))
	defer orch.Close()
	require.NoError(t, orch.Init(context.Background()))

	assert.Equal(t, 0, orch.Pool().Len())
	assert.Equal(t, 0, orch.Catalog().Current().Len())
}

// -------------------- End-to-End Workflow Tests --------------------

func TestOrchestrator_MultiWorkflowDispatchesDiscoveredTool(t *testing.T) {
	ts, calls := newToolServer(t)
	cfg := orchestratorConfig(orchestratorServer("ops", ts.URL, "get_pods"))
	cfg.Agents = []config.AgentConfig{{
		Name: "operator", Role: "Operates the cluster", Enabled: true,
		Priority: 1, Capabilities: []string{"mcp", "review"},
		Tools: []string{"*"}, MaxToolAttempts: 5,
	}}

	m := model.NewMockModel("shared")
	m.QueueResponses(`Analysis complete. MCP:ops:get_pods:{"namespace":"default"}`)

	orch := NewOrchestrator(cfg, m)
	defer orch.Close()
	require.NoError(t, orch.Init(context.Background()))

	res := orch.RunMulti(context.Background(), "check the pods")
	assert.True(t, res.Success)
	require.Len(t, res.Messages, 1)
	require.NotNil(t, res.Messages[0].ToolResult)
	assert.True(t, res.Messages[0].ToolResult.Success)
	assert.Equal(t, "3 pods running", res.Messages[0].ToolResult.Content)

	require.Len(t, *calls, 1)
	assert.Equal(t, map[string]any{"namespace": "default"}, (*calls)[0])
}

func TestOrchestrator_RunSimpleWithExplanation(t *testing.T) {
	ts, calls := newToolServer(t)
	cfg := orchestratorConfig(orchestratorServer("ops", ts.URL))
	cfg.Agents = []config.AgentConfig{{
		Name: "operator", Role: "Operates the cluster", Enabled: true,
		Capabilities: []string{"mcp"}, Tools: []string{"*"}, MaxToolAttempts: 5,
	}}

	m := model.NewMockModel("shared")
	m.QueueResponses(`MCP:ops:get_pods:{}`, "The cluster currently runs 3 pods.")

	orch := NewOrchestrator(cfg, m)
	defer orch.Close()
	require.NoError(t, orch.Init(context.Background()))

	res := orch.RunSimple(context.Background(), "how many pods?")
	assert.True(t, res.Success)
	require.Len(t, res.Messages, 2)
	require.NotNil(t, res.Messages[0].ToolResult)
	assert.Equal(t, "3 pods running", res.Messages[0].ToolResult.Content)
	assert.Equal(t, "The cluster currently runs 3 pods.", res.Messages[1].Content)
	assert.Len(t, *calls, 1)
}

func TestOrchestrator_RunSimpleNoAgents(t *testing.T) {
	cfg := orchestratorConfig()
	cfg.Agents = []config.AgentConfig{{Name: "off", Enabled: false}}

	orch := NewOrchestrator(cfg, model.NewMockModel("shared"))
	defer orch.Close()
	require.NoError(t, orch.Init(context.Background()))

	res := orch.RunSimple(context.Background(), "anyone home?")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no agents available")
}
