package mcp

import (
	"context"
	"fmt"
	"sort"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpproto "github.com/mark3labs/mcp-go/mcp"

	"github.com/hupe1980/opsmesh/internal/util"
	"github.com/hupe1980/opsmesh/logging"
	"github.com/hupe1980/opsmesh/tool"
)

// ToolServerSpec describes one configured MCP tool server: the command to
// spawn and the environment it runs with. Env values may contain ${VAR}
// placeholders resolved at discovery time.
type ToolServerSpec struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"`
	Args    []string          `yaml:"args" json:"args"`
	Env     map[string]string `yaml:"env" json:"env"`
}

// Descriptor is one discovered tool. Spec carries the resolved spawn
// parameters so invocations reuse the environment expanded at discovery time.
type Descriptor struct {
	Name        string
	Description string
	InputSchema map[string]any
	Spec        ToolServerSpec
}

// ToolNotFoundError indicates an invocation of a name no configured server
// advertises.
type ToolNotFoundError struct {
	Name string
}

// Error implements the error interface for ToolNotFoundError.
func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// session is the minimal MCP client surface the connector needs. The stdio
// client satisfies it; tests substitute fakes through the dial hook.
type session interface {
	Initialize(ctx context.Context, req mcpproto.InitializeRequest) (*mcpproto.InitializeResult, error)
	ListTools(ctx context.Context, req mcpproto.ListToolsRequest) (*mcpproto.ListToolsResult, error)
	CallTool(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error)
	Close() error
}

// dialFunc spawns a new subprocess session for a tool server.
type dialFunc func(spec ToolServerSpec) (session, error)

// stdioDial is the production dialer spawning the server over stdio.
func stdioDial(spec ToolServerSpec) (session, error) {
	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}
	return mcpclient.NewStdioMCPClient(spec.Command, env, spec.Args...)
}

// Options configures the Connector.
type Options struct {
	// CallTimeout bounds a single discovery or invocation session.
	CallTimeout time.Duration
	// Logger for discovery progress and invocation outcomes.
	Logger logging.Logger
}

// Connector discovers tools from configured MCP servers and invokes them
// through ephemeral sessions. After Discover the descriptor set is read-only
// and safe to share without locking; there is no hot-reload.
type Connector struct {
	specs       []ToolServerSpec
	descriptors map[string]Descriptor
	dial        dialFunc
	callTimeout time.Duration
	logger      logging.Logger
}

// New constructs a Connector for the given server specs. Call Discover
// before invoking tools.
func New(specs []ToolServerSpec, optFns ...func(o *Options)) *Connector {
	opts := Options{
		CallTimeout: time.Minute,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Connector{
		specs:       specs,
		descriptors: make(map[string]Descriptor),
		dial:        stdioDial,
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger,
	}
}

// Discover spawns each configured server once, performs the handshake and
// lists its tools. A failing server is logged and skipped; the remaining
// servers still contribute their descriptors. On tool name collisions across
// servers the last registration wins (logged, precedence is otherwise
// undocumented).
func (c *Connector) Discover(ctx context.Context) {
	for _, spec := range c.specs {
		if spec.Command == "" {
			c.logger.Warn("no command specified for tool server, skipping", "server", spec.Name)
			continue
		}

		resolved := spec
		resolved.Env = ExpandEnv(spec.Env, c.logger)

		tools, err := c.listTools(ctx, resolved)
		if err != nil {
			c.logger.Warn("tool discovery failed, skipping server", "server", spec.Name, "error", err)
			continue
		}

		for _, t := range tools {
			if prev, exists := c.descriptors[t.Name]; exists {
				c.logger.Warn("tool name collision, last registration wins",
					"tool", t.Name, "previous_server", prev.Spec.Name, "server", spec.Name)
			}
			c.descriptors[t.Name] = Descriptor{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: schemaToMap(t.InputSchema),
				Spec:        resolved,
			}
		}

		c.logger.Info("loaded tools from server", "server", spec.Name, "count", len(tools))
	}
}

// listTools opens an ephemeral session for discovery and tears it down before
// returning.
func (c *Connector) listTools(ctx context.Context, spec ToolServerSpec) ([]mcpproto.Tool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	sess, err := c.dial(spec)
	if err != nil {
		return nil, fmt.Errorf("spawn tool server: %w", err)
	}
	defer func() { _ = sess.Close() }()

	if err := handshake(ctx, sess); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}

	result, err := sess.ListTools(ctx, mcpproto.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	return result.Tools, nil
}

// Known reports whether a tool with the given name was discovered.
func (c *Connector) Known(name string) bool {
	_, ok := c.descriptors[name]
	return ok
}

// Names returns the sorted names of all discovered tools.
func (c *Connector) Names() []string {
	names := make([]string, 0, len(c.descriptors))
	for name := range c.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns all discovered descriptors sorted by name.
func (c *Connector) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(c.descriptors))
	for _, name := range c.Names() {
		out = append(out, c.descriptors[name])
	}
	return out
}

// Tools exposes every discovered descriptor through the uniform tool.Tool
// interface.
func (c *Connector) Tools() []tool.Tool {
	out := make([]tool.Tool, 0, len(c.descriptors))
	for _, name := range c.Names() {
		out = append(out, &connectorTool{connector: c, descriptor: c.descriptors[name]})
	}
	return out
}

// Invoke looks up the descriptor and executes the tool in a fresh subprocess
// session scoped to this single call. The session is torn down on every exit
// path. Failures come back as *ToolNotFoundError (routing miss) or
// *tool.ToolError (validation, transport or tool-level failure); they never
// panic across the component boundary.
func (c *Connector) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	d, ok := c.descriptors[name]
	if !ok {
		return "", &ToolNotFoundError{Name: name}
	}

	if d.InputSchema != nil {
		if err := util.ValidateParameters(args, d.InputSchema); err != nil {
			return "", &tool.ToolError{
				Tool:    name,
				Message: fmt.Sprintf("parameter validation failed: %v", err),
				Code:    tool.CodeValidation,
				Details: err,
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	start := time.Now()

	sess, err := c.dial(d.Spec)
	if err != nil {
		return "", tool.NewToolError(name, "spawn tool server: "+err.Error(), tool.CodeTransport)
	}
	defer func() { _ = sess.Close() }()

	if err := handshake(ctx, sess); err != nil {
		return "", tool.NewToolError(name, "handshake: "+err.Error(), tool.CodeTransport)
	}

	callReq := mcpproto.CallToolRequest{}
	callReq.Params.Name = name
	callReq.Params.Arguments = args

	result, err := sess.CallTool(ctx, callReq)
	if err != nil {
		c.logger.Error("tool invocation failed", "tool", name, "duration", time.Since(start), "error", err)
		return "", tool.NewToolError(name, err.Error(), tool.CodeTransport)
	}

	text := contentText(result.Content)
	if result.IsError {
		c.logger.Error("tool returned error", "tool", name, "duration", time.Since(start))
		return "", tool.NewToolError(name, text, tool.CodeExecution)
	}

	c.logger.Info("tool invocation completed", "tool", name, "duration", time.Since(start))
	return text, nil
}

// handshake performs the MCP initialize exchange on a fresh session.
func handshake(ctx context.Context, sess session) error {
	initReq := mcpproto.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpproto.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpproto.Implementation{Name: "opsmesh", Version: "0.1.0"}

	_, err := sess.Initialize(ctx, initReq)
	return err
}

// schemaToMap converts the protocol input schema into the generic map form
// used by the shared argument validator.
func schemaToMap(s mcpproto.ToolInputSchema) map[string]any {
	m := map[string]any{"type": s.Type}
	if s.Properties != nil {
		m["properties"] = s.Properties
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	return m
}

// contentText extracts and concatenates all text content items.
func contentText(content []mcpproto.Content) string {
	var out string
	for _, item := range content {
		if tc, ok := mcpproto.AsTextContent(item); ok {
			out += tc.Text
		}
	}
	return out
}

// connectorTool adapts a Descriptor to the tool.Tool interface.
type connectorTool struct {
	connector  *Connector
	descriptor Descriptor
}

// Name returns the unique tool name.
func (t *connectorTool) Name() string { return t.descriptor.Name }

// Description returns the tool description advertised by its server.
func (t *connectorTool) Description() string { return t.descriptor.Description }

// Parameters returns the advertised input schema.
func (t *connectorTool) Parameters() map[string]any { return t.descriptor.InputSchema }

// Call invokes the tool through the owning connector.
func (t *connectorTool) Call(ctx context.Context, args map[string]any) (string, error) {
	return t.connector.Invoke(ctx, t.descriptor.Name, args)
}
