// Package config loads the orchestrator configuration: the agent endpoints
// and tool servers to discover at startup, workflow limits and the model
// used for planning. Configuration is read once; there is no hot-reload.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/opsmesh/a2a"
	"github.com/hupe1980/opsmesh/mcp"
)

// Duration wraps time.Duration so YAML values like "30s" decode naturally.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig configures the orchestrator's own protocol endpoint.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// WorkflowConfig bounds workflow execution.
type WorkflowConfig struct {
	StepTimeout   Duration `yaml:"step_timeout"`
	Deadline      Duration `yaml:"deadline"`
	MaxSteps      int      `yaml:"max_steps"`
	TrackingAgent string   `yaml:"tracking_agent"`
}

// ModelConfig selects the planning model.
type ModelConfig struct {
	// Provider is "anthropic", "openai" or "none" (deterministic planner).
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	MaxTokens   int64   `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// Config is the root configuration document.
type Config struct {
	Server      ServerConfig         `yaml:"server"`
	Agents      []a2a.Endpoint       `yaml:"agents"`
	ToolServers []mcp.ToolServerSpec `yaml:"tool_servers"`
	Workflow    WorkflowConfig       `yaml:"workflow"`
	Model       ModelConfig          `yaml:"model"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Listen: ":8080"},
		Workflow: WorkflowConfig{
			StepTimeout:   Duration(2 * time.Minute),
			Deadline:      Duration(15 * time.Minute),
			MaxSteps:      25,
			TrackingAgent: "ServiceNowAgent",
		},
		Model: ModelConfig{
			Provider:    "none",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
	}
}

// Load reads and validates a YAML configuration file, filling unset fields
// with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()

	if c.Server.Listen == "" {
		c.Server.Listen = def.Server.Listen
	}
	if c.Workflow.StepTimeout <= 0 {
		c.Workflow.StepTimeout = def.Workflow.StepTimeout
	}
	if c.Workflow.Deadline <= 0 {
		c.Workflow.Deadline = def.Workflow.Deadline
	}
	if c.Workflow.MaxSteps <= 0 {
		c.Workflow.MaxSteps = def.Workflow.MaxSteps
	}
	if c.Workflow.TrackingAgent == "" {
		c.Workflow.TrackingAgent = def.Workflow.TrackingAgent
	}
	if c.Model.Provider == "" {
		c.Model.Provider = def.Model.Provider
	}
	if c.Model.MaxTokens <= 0 {
		c.Model.MaxTokens = def.Model.MaxTokens
	}
	// Temperature is not defaulted here: Load unmarshals over Default(), so an
	// absent key keeps 0.7 while an explicit 0 stays 0.
}

// Validate rejects configurations the orchestrator cannot start with.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "anthropic", "openai", "none":
	default:
		return fmt.Errorf("unknown model provider: %q", c.Model.Provider)
	}

	seen := make(map[string]bool, len(c.Agents))
	for i, ep := range c.Agents {
		if ep.Name == "" {
			return fmt.Errorf("agent %d has no name", i)
		}
		if ep.URL == "" {
			return fmt.Errorf("agent %q has no url", ep.Name)
		}
		if seen[ep.Name] {
			return fmt.Errorf("duplicate agent name: %q", ep.Name)
		}
		seen[ep.Name] = true
	}

	for i, spec := range c.ToolServers {
		if spec.Name == "" {
			return fmt.Errorf("tool server %d has no name", i)
		}
		if spec.Command == "" {
			return fmt.Errorf("tool server %q has no command", spec.Name)
		}
	}

	return nil
}
