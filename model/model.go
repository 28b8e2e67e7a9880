package model

import (
	"context"
	"fmt"
	"sync"
)

// Request is a single-shot completion request. Instructions carry the system
// prompt, Prompt the user turn.
type Request struct {
	Instructions string
	Prompt       string
}

// TokenUsage reports provider token accounting for one completion.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the provider-normalized completion result.
type Response struct {
	Text  string
	Usage TokenUsage
}

// Info describes a model implementation (for logging and diagnostics).
type Info struct {
	Name     string
	Provider string
}

// Model is the provider-agnostic completion interface.
type Model interface {
	// Complete runs one prompt to completion and returns the full text.
	Complete(ctx context.Context, req Request) (*Response, error)
	// Info returns metadata describing the underlying model.
	Info() Info
}

// MockModel is a scripted Model for tests. Responses are returned in the
// order they were added; running out of responses is an error.
type MockModel struct {
	mu        sync.Mutex
	responses []string
	requests  []Request
}

// NewMockModel creates an empty mock. Use AddResponse to script replies.
func NewMockModel() *MockModel {
	return &MockModel{}
}

// AddResponse appends a scripted reply.
func (m *MockModel) AddResponse(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, text)
	return m
}

// Requests returns a copy of all requests seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Complete implements Model by replaying scripted responses.
func (m *MockModel) Complete(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.responses) == 0 {
		return nil, fmt.Errorf("mock model: no scripted response left")
	}

	text := m.responses[0]
	m.responses = m.responses[1:]

	return &Response{Text: text}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info {
	return Info{Name: "mock", Provider: "mock"}
}
