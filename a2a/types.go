package a2a

import (
	"encoding/json"

	"github.com/hupe1980/opsmesh/core"
)

// Part is the wire form of a message content part. The orchestration engine
// only produces and consumes text parts.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message is the wire form of a role plus ordered parts.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Text concatenates all text parts of the wire message.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		out += p.Text
	}
	return out
}

// TaskStatus is the wire form of a task status.
type TaskStatus struct {
	State string `json:"state"`
}

// Task is the wire form of a task including its full history.
type Task struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId,omitempty"`
	Status    TaskStatus `json:"status"`
	History   []Message  `json:"history"`
}

// TaskSendParams are the parameters of a tasks/send call.
type TaskSendParams struct {
	ID        string  `json:"id"`
	SessionID string  `json:"sessionId"`
	Message   Message `json:"message"`
}

// TaskQueryParams are the parameters of a tasks/get call.
type TaskQueryParams struct {
	ID string `json:"id"`
}

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Response is a JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Standard JSON-RPC 2.0 error codes used by the server.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Protocol method names.
const (
	MethodTasksSend = "tasks/send"
	MethodTasksGet  = "tasks/get"
)

// ToWire converts a core message to its wire form.
func ToWire(msg core.Message) Message {
	wire := Message{Role: string(msg.Role)}
	for _, p := range msg.Parts {
		if tp, ok := p.(core.TextPart); ok {
			wire.Parts = append(wire.Parts, Part{Type: "text", Text: tp.Text})
		}
	}
	return wire
}

// FromWire converts a wire message to a core message.
func FromWire(msg Message) core.Message {
	out := core.Message{Role: core.Role(msg.Role)}
	for _, p := range msg.Parts {
		out.Parts = append(out.Parts, core.TextPart{Text: p.Text})
	}
	return out
}

// TaskToWire converts a core task to its wire form.
func TaskToWire(t *core.Task) Task {
	wire := Task{
		ID:        t.ID,
		SessionID: t.SessionID,
		Status:    TaskStatus{State: string(t.Status.State)},
	}
	for _, msg := range t.History {
		wire.History = append(wire.History, ToWire(msg))
	}
	return wire
}
