// Package config loads and validates the immutable mcpflow configuration:
// the tool server descriptors, the agent descriptors, the workflow settings
// and the model settings. Configuration is read once before any discovery or
// conversation begins; the loaded Config is never mutated afterwards.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	MCP      MCPConfig      `mapstructure:"mcp" yaml:"mcp"`
	Workflow WorkflowConfig `mapstructure:"workflow" yaml:"workflow"`
	Agents   []AgentConfig  `mapstructure:"agents" yaml:"agents"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig configures the completion capability backing every agent.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int64         `mapstructure:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// MCPConfig configures the tool server integration as a whole.
type MCPConfig struct {
	Enabled bool           `mapstructure:"enabled" yaml:"enabled"`
	Servers []ServerConfig `mapstructure:"servers" yaml:"servers"`
}

// ServerConfig describes one HTTP-reachable tool server. Immutable after load.
type ServerConfig struct {
	Name          string        `mapstructure:"name" yaml:"name"`
	URL           string        `mapstructure:"url" yaml:"url"`
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	APIKey        string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	RetryAttempts int           `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	HealthPath    string        `mapstructure:"health_path" yaml:"health_path"`
	ToolsPath     string        `mapstructure:"tools_path" yaml:"tools_path"`
	// Tools is the server's allow-list of tool names; "*" keeps everything.
	Tools []string `mapstructure:"tools" yaml:"tools"`
}

// AgentConfig describes one configured agent persona.
type AgentConfig struct {
	Name         string `mapstructure:"name" yaml:"name"`
	Role         string `mapstructure:"role" yaml:"role"`
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt"`
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	// Priority orders agents when no explicit turn order is configured;
	// lower values run first.
	Priority     int      `mapstructure:"priority" yaml:"priority"`
	Capabilities []string `mapstructure:"capabilities" yaml:"capabilities"`
	// Tools is the agent's allow-list of tool names; "*" or empty means all.
	Tools []string `mapstructure:"tools" yaml:"tools"`
	// MaxToolAttempts bounds tool executions within a single turn.
	MaxToolAttempts int `mapstructure:"max_tool_attempts" yaml:"max_tool_attempts"`
}

// WorkflowConfig configures the conversation engine.
type WorkflowConfig struct {
	MaxRounds int `mapstructure:"max_rounds" yaml:"max_rounds"`
	// TurnOrder is the explicit agent sequence per round; empty derives the
	// order from agent priorities.
	TurnOrder []string `mapstructure:"turn_order" yaml:"turn_order"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads configuration from the given file (or the conventional search
// paths when empty), applies defaults and environment overrides and validates
// the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("mcpflow")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.mcpflow")
	}

	setDefaults(v)
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyServerDefaults(cfg)

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("mcp.enabled", true)

	v.SetDefault("workflow.max_rounds", 3)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("MCPFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets are the common env-only values.
	_ = v.BindEnv("llm.api_key", "MCPFLOW_LLM_API_KEY")
	_ = v.BindEnv("llm.base_url", "MCPFLOW_LLM_BASE_URL")
	_ = v.BindEnv("llm.model", "MCPFLOW_LLM_MODEL")
	_ = v.BindEnv("logging.level", "MCPFLOW_LOGGING_LEVEL")
}

// applyServerDefaults fills per-server and per-agent zero values that viper
// defaults cannot reach inside list elements.
func applyServerDefaults(cfg *Config) {
	for i := range cfg.MCP.Servers {
		s := &cfg.MCP.Servers[i]
		if s.Timeout == 0 {
			s.Timeout = 30 * time.Second
		}
		if s.RetryAttempts == 0 {
			s.RetryAttempts = 3
		}
		if s.RetryDelay == 0 {
			s.RetryDelay = time.Second
		}
		if s.HealthPath == "" {
			s.HealthPath = "/health"
		}
		if s.ToolsPath == "" {
			s.ToolsPath = "/mcp/tools"
		}
		if len(s.Tools) == 0 {
			s.Tools = []string{"*"}
		}
	}
	for i := range cfg.Agents {
		a := &cfg.Agents[i]
		if a.MaxToolAttempts == 0 {
			a.MaxToolAttempts = 5
		}
	}
}

// Validate checks the configuration and returns the full list of problems
// rather than stopping at the first one.
func (c *Config) Validate() []string {
	var errs []string

	if c.LLM.APIKey == "" || c.LLM.APIKey == "your-api-key-here" {
		errs = append(errs, "llm api key is not configured")
	}
	if c.Workflow.MaxRounds < 1 {
		errs = append(errs, "workflow max_rounds must be at least 1")
	}
	if c.MCP.Enabled && len(c.MCP.Servers) == 0 {
		errs = append(errs, "at least one mcp server must be configured when mcp is enabled")
	}

	seenServers := map[string]struct{}{}
	for _, s := range c.MCP.Servers {
		if s.Name == "" {
			errs = append(errs, "mcp server with empty name")
			continue
		}
		if _, dup := seenServers[s.Name]; dup {
			errs = append(errs, fmt.Sprintf("duplicate mcp server name %q", s.Name))
		}
		seenServers[s.Name] = struct{}{}
		if s.Enabled && s.URL == "" {
			errs = append(errs, fmt.Sprintf("mcp server %q is enabled but has no url", s.Name))
		}
		if s.RetryAttempts < 1 {
			errs = append(errs, fmt.Sprintf("mcp server %q retry_attempts must be at least 1", s.Name))
		}
	}

	seenAgents := map[string]struct{}{}
	for _, a := range c.Agents {
		if a.Name == "" {
			errs = append(errs, "agent with empty name")
			continue
		}
		if _, dup := seenAgents[a.Name]; dup {
			errs = append(errs, fmt.Sprintf("duplicate agent name %q", a.Name))
		}
		seenAgents[a.Name] = struct{}{}
	}

	return errs
}

// EnabledServers returns the enabled server descriptors in configured order.
func (c *Config) EnabledServers() []ServerConfig {
	var out []ServerConfig
	for _, s := range c.MCP.Servers {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// EnabledAgents returns the enabled agent descriptors in configured order.
func (c *Config) EnabledAgents() []AgentConfig {
	var out []AgentConfig
	for _, a := range c.Agents {
		if a.Enabled {
			out = append(out, a)
		}
	}
	return out
}

// AgentByName returns the agent descriptor with the given name, or false.
func (c *Config) AgentByName(name string) (AgentConfig, bool) {
	for _, a := range c.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return AgentConfig{}, false
}

// AutoTurnOrder derives the default turn order from enabled agents sorted
// ascending by priority. The sort is stable so equal priorities keep their
// configured order.
func (c *Config) AutoTurnOrder() []string {
	agents := c.EnabledAgents()
	sort.SliceStable(agents, func(i, j int) bool { return agents[i].Priority < agents[j].Priority })
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.Name
	}
	return names
}

// ResolveTurnOrder returns the effective turn order: the explicit configured
// order filtered to existing enabled agents, or the priority-derived order
// when none is configured. The second return value lists configured names
// that were skipped because they do not match an enabled agent.
func (c *Config) ResolveTurnOrder() (order []string, skipped []string) {
	if len(c.Workflow.TurnOrder) == 0 {
		return c.AutoTurnOrder(), nil
	}
	enabled := map[string]struct{}{}
	for _, a := range c.EnabledAgents() {
		enabled[a.Name] = struct{}{}
	}
	for _, name := range c.Workflow.TurnOrder {
		if _, ok := enabled[name]; ok {
			order = append(order, name)
		} else {
			skipped = append(skipped, name)
		}
	}
	return order, skipped
}

// WriteStarter renders a commented starter configuration to the given path.
// It refuses to overwrite an existing file.
func WriteStarter(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	starter := Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			APIKey:      "your-api-key-here",
			Temperature: 0.7,
			MaxTokens:   4096,
			Timeout:     60 * time.Second,
		},
		MCP: MCPConfig{
			Enabled: true,
			Servers: []ServerConfig{{
				Name:          "kubernetes",
				URL:           "http://localhost:8080",
				Enabled:       true,
				Timeout:       30 * time.Second,
				RetryAttempts: 3,
				RetryDelay:    time.Second,
				HealthPath:    "/health",
				ToolsPath:     "/mcp/tools",
				Tools:         []string{"*"},
			}},
		},
		Workflow: WorkflowConfig{MaxRounds: 3},
		Agents: []AgentConfig{
			{
				Name:         "planner",
				Role:         "Plans the steps needed to answer the query",
				SystemPrompt: "You are a planning assistant. Break the task into concrete steps.",
				Enabled:      true,
				Priority:     1,
				Capabilities: []string{"mcp"},
				Tools:        []string{"*"},
			},
			{
				Name:         "reviewer",
				Role:         "Reviews the plan and approves the final answer",
				SystemPrompt: "You are a reviewer. Reply with APPROVED when the answer is complete.",
				Enabled:      true,
				Priority:     2,
				Capabilities: []string{"review"},
			},
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}

	data, err := yaml.Marshal(&starter)
	if err != nil {
		return fmt.Errorf("failed to render starter config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
