package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/opsmesh/a2a"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opsmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: ":9090"
agents:
  - name: PlannerAgent
    url: http://localhost:10001
  - name: ServiceNowAgent
    url: http://localhost:10002
tool_servers:
  - name: servicenow
    command: uvx
    args: ["servicenow-mcp"]
    env:
      SN_PASSWORD: ${SERVICENOW_PASSWORD}
workflow:
  step_timeout: 30s
  max_steps: 10
model:
  provider: anthropic
  name: claude-sonnet-4-20250514
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Listen)
	require.Len(t, cfg.Agents, 2)
	assert.Equal(t, "PlannerAgent", cfg.Agents[0].Name)
	require.Len(t, cfg.ToolServers, 1)
	assert.Equal(t, "${SERVICENOW_PASSWORD}", cfg.ToolServers[0].Env["SN_PASSWORD"])
	assert.Equal(t, 30*time.Second, cfg.Workflow.StepTimeout.Std())
	assert.Equal(t, 10, cfg.Workflow.MaxSteps)
	// unset fields fall back to defaults
	assert.Equal(t, 15*time.Minute, cfg.Workflow.Deadline.Std())
	assert.Equal(t, "ServiceNowAgent", cfg.Workflow.TrackingAgent)
	assert.Equal(t, "anthropic", cfg.Model.Provider)
}

func TestLoad_ZeroTemperatureIsKept(t *testing.T) {
	path := writeConfig(t, `
model:
  provider: openai
  temperature: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.0, cfg.Model.Temperature)
	// absent max_tokens still falls back to the default
	assert.Equal(t, int64(4096), cfg.Model.MaxTokens)
}

func TestLoad_RejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
workflow:
  step_timeout: fast
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid duration")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	cfg.Model.Provider = "cohere"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Agents = append(cfg.Agents, a2a.Endpoint{Name: "A", URL: "http://a"})
	assert.NoError(t, cfg.Validate())

	cfg.Agents = append(cfg.Agents, a2a.Endpoint{Name: "B"})
	assert.ErrorContains(t, cfg.Validate(), "no url")
}

func TestLoad_RejectsDuplicateAgents(t *testing.T) {
	path := writeConfig(t, `
agents:
  - name: PlannerAgent
    url: http://localhost:10001
  - name: PlannerAgent
    url: http://localhost:10002
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "duplicate agent name")
}

func TestLoad_RejectsToolServerWithoutCommand(t *testing.T) {
	path := writeConfig(t, `
tool_servers:
  - name: broken
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "no command")
}
