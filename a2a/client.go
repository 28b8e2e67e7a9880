package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hupe1980/opsmesh/core"
	"github.com/hupe1980/opsmesh/logging"
)

// NoResponseText is the sentinel reply used when a remote task's history
// contains no entry beyond the original message.
const NoResponseText = "No response from agent"

// ClientOptions configures the delegation Client.
type ClientOptions struct {
	// HTTPClient used for task-send requests.
	HTTPClient *http.Client
	// Timeout bounds a single delegation round trip.
	Timeout time.Duration
	// Logger for delegation outcomes.
	Logger logging.Logger
}

// Client delegates messages to remote agents over the task-send protocol.
// Each delegation is a fresh request; connections are not pooled beyond what
// the underlying http.Client provides.
type Client struct {
	registry   *Registry
	httpClient *http.Client
	timeout    time.Duration
	logger     logging.Logger
}

// NewClient constructs a Client over an immutable registry.
func NewClient(registry *Registry, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{
		HTTPClient: http.DefaultClient,
		Timeout:    2 * time.Minute,
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{registry: registry, httpClient: opts.HTTPClient, timeout: opts.Timeout, logger: opts.Logger}
}

// Registry returns the registry the client routes by.
func (c *Client) Registry() *Registry { return c.registry }

// Known reports whether agentName resolves to a discovered endpoint.
func (c *Client) Known(agentName string) bool { return c.registry.Known(agentName) }

// Names returns the sorted names of all delegatable agents.
func (c *Client) Names() []string { return c.registry.Names() }

// Delegate forwards a message to a remote agent and returns its reply text.
// A freshly generated task id is used per delegation. Transport and protocol
// failures are returned as *DelegationError so callers can treat them as
// step-result data; *UnknownAgentError signals a routing miss.
func (c *Client) Delegate(ctx context.Context, agentName, message, sessionID string) (string, error) {
	card, ok := c.registry.Get(agentName)
	if !ok {
		return "", &UnknownAgentError{Name: agentName}
	}

	start := time.Now()

	remote, err := c.sendTask(ctx, card, TaskSendParams{
		ID:        core.NewID(),
		SessionID: sessionID,
		Message: Message{
			Role:  string(core.RoleUser),
			Parts: []Part{{Type: "text", Text: message}},
		},
	})
	if err != nil {
		c.logger.Error("delegation failed", "agent", agentName, "duration", time.Since(start), "error", err)
		return "", err
	}

	c.logger.Info("delegation completed", "agent", agentName, "duration", time.Since(start))

	// The remote history holds the original message followed by the reply.
	if len(remote.History) > 1 {
		return remote.History[len(remote.History)-1].Text(), nil
	}
	return NoResponseText, nil
}

// sendTask issues one tasks/send JSON-RPC call and decodes the remote task.
func (c *Client) sendTask(ctx context.Context, card AgentCard, params TaskSendParams) (*Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, &DelegationError{Agent: card.Name, Message: "encode params", Err: err}
	}

	body, err := json.Marshal(Request{
		JSONRPC: "2.0",
		ID:      core.NewID(),
		Method:  MethodTasksSend,
		Params:  rawParams,
	})
	if err != nil {
		return nil, &DelegationError{Agent: card.Name, Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, card.URL, bytes.NewReader(body))
	if err != nil {
		return nil, &DelegationError{Agent: card.Name, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &DelegationError{Agent: card.Name, Message: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &DelegationError{Agent: card.Name, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, &DelegationError{Agent: card.Name, Message: "decode response", Err: err}
	}

	if rpcResp.Error != nil {
		return nil, &DelegationError{Agent: card.Name, Message: rpcResp.Error.Message}
	}

	var remote Task
	if err := json.Unmarshal(rpcResp.Result, &remote); err != nil {
		return nil, &DelegationError{Agent: card.Name, Message: "decode task", Err: err}
	}

	return &remote, nil
}
