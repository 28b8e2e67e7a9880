// Package opsmesh provides a high-level façade over the orchestrator core:
// agent discovery, tool discovery, the workflow engine and the task boundary.
// Most applications interact with this package by:
//  1. Creating an OpsMesh via New() with the configured endpoints and tool servers
//  2. Calling Discover() once at startup to populate the registries
//  3. Serving the protocol endpoint via Handler(), or sending goals directly via Send()
//
// All defaults are safe for local development; production deployments supply
// a structured logger and a real planning model.
package opsmesh

import (
	"context"
	"net/http"
	"time"

	"github.com/hupe1980/opsmesh/a2a"
	"github.com/hupe1980/opsmesh/core"
	"github.com/hupe1980/opsmesh/logging"
	"github.com/hupe1980/opsmesh/mcp"
	"github.com/hupe1980/opsmesh/runner"
	"github.com/hupe1980/opsmesh/task"
	"github.com/hupe1980/opsmesh/workflow"
)

// Version of the orchestrator, set at build time via ldflags.
var Version = "dev"

// Options configures the OpsMesh instance.
type Options struct {
	// Agents are the remote agent endpoints to discover at startup.
	Agents []a2a.Endpoint
	// ToolServers are the MCP tool servers to discover at startup.
	ToolServers []mcp.ToolServerSpec
	// Planner produces workflow plans. Defaults to the deterministic
	// deployment planner; supply workflow.NewLLMPlanner for model planning.
	Planner workflow.Planner
	// TaskStore holds task state (defaults to in-memory).
	TaskStore task.Store
	// TrackingAgent receives synthesized progress and closing steps.
	TrackingAgent string
	// StepTimeout bounds each workflow step.
	StepTimeout time.Duration
	// Deadline bounds a whole workflow invocation.
	Deadline time.Duration
	// MaxSteps caps executed steps per workflow, synthesized included.
	MaxSteps int
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// OpsMesh is the high-level façade aggregating discovery, the workflow engine
// and the task boundary.
type OpsMesh struct {
	opts   Options
	tools  *mcp.Connector
	agents *a2a.Client
	runner *runner.Runner
}

// New creates a new OpsMesh instance with optional overrides. Call Discover
// before serving or sending.
func New(optFns ...func(o *Options)) *OpsMesh {
	opts := Options{
		Planner:       workflow.NewDeploymentPlanner(),
		TaskStore:     task.NewInMemoryStore(),
		TrackingAgent: "ServiceNowAgent",
		StepTimeout:   2 * time.Minute,
		Deadline:      15 * time.Minute,
		MaxSteps:      25,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &OpsMesh{opts: opts}
}

// Discover fetches agent cards for every configured endpoint and enumerates
// tools from every configured tool server, then wires the engine and task
// boundary. Unreachable peers are logged and skipped.
func (m *OpsMesh) Discover(ctx context.Context) error {
	discovery := a2a.NewDiscoveryClient(func(o *a2a.DiscoveryOptions) {
		o.Logger = m.opts.Logger
	})
	registry := discovery.Discover(ctx, m.opts.Agents)

	m.agents = a2a.NewClient(registry, func(o *a2a.ClientOptions) {
		o.Logger = m.opts.Logger
		o.Timeout = m.opts.StepTimeout
	})

	m.tools = mcp.New(m.opts.ToolServers, func(o *mcp.Options) {
		o.Logger = m.opts.Logger
		o.CallTimeout = m.opts.StepTimeout
	})
	m.tools.Discover(ctx)

	engine := workflow.New(m.agents, m.tools, func(o *workflow.Options) {
		o.Planner = m.opts.Planner
		o.TrackingAgent = m.opts.TrackingAgent
		o.StepTimeout = m.opts.StepTimeout
		o.Deadline = m.opts.Deadline
		o.MaxSteps = m.opts.MaxSteps
		o.Logger = m.opts.Logger
	})

	m.runner = runner.New(engine, func(o *runner.Options) {
		o.Store = m.opts.TaskStore
		o.Logger = m.opts.Logger
	})

	m.opts.Logger.Info("discovery complete",
		"agents", len(m.agents.Names()), "tools", len(m.tools.Names()))

	return nil
}

// Agents returns the discovered agent names.
func (m *OpsMesh) Agents() []string { return m.agents.Names() }

// Tools returns the discovered tool names.
func (m *OpsMesh) Tools() []string { return m.tools.Names() }

// Send runs one goal through the task boundary and returns the completed
// task. The reply report is the last history entry.
func (m *OpsMesh) Send(ctx context.Context, taskID, sessionID, goal string) (*core.Task, error) {
	return m.runner.OnSendTask(ctx, a2a.TaskSendParams{
		ID:        taskID,
		SessionID: sessionID,
		Message: a2a.Message{
			Role:  string(core.RoleUser),
			Parts: []a2a.Part{{Type: "text", Text: goal}},
		},
	})
}

// Card describes this orchestrator for capability discovery.
func (m *OpsMesh) Card(baseURL string) a2a.AgentCard {
	return a2a.AgentCard{
		Name:        "OrchestratorAgent",
		Description: "Coordinates specialized agents and tools for multi-step operational workflows",
		URL:         baseURL,
		Version:     Version,
		Skills: []a2a.AgentSkill{
			{
				ID:          "orchestrate",
				Name:        "Workflow orchestration",
				Description: "Plans and executes multi-step deployment workflows with incident tracking",
				Tags:        []string{"orchestration", "deployment", "itsm"},
				Examples:    []string{"Deploy the application to ns-a", "Check cluster status"},
			},
		},
	}
}

// Handler returns the protocol endpoint serving capability discovery and
// task delegation.
func (m *OpsMesh) Handler(baseURL string) http.Handler {
	server := a2a.NewServer(m.Card(baseURL), m.runner, func(o *a2a.ServerOptions) {
		o.Logger = m.opts.Logger
	})
	return server.Handler()
}
