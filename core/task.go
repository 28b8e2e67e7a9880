package core

import "time"

// TaskState enumerates the lifecycle states of a task. Transitions are
// strictly forward: submitted -> working -> {completed|failed}.
type TaskState string

const (
	// TaskStateSubmitted is the initial state of a freshly created task.
	TaskStateSubmitted TaskState = "submitted"
	// TaskStateWorking indicates the task is being processed.
	TaskStateWorking TaskState = "working"
	// TaskStateCompleted is the terminal success state.
	TaskStateCompleted TaskState = "completed"
	// TaskStateFailed is the terminal failure state.
	TaskStateFailed TaskState = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed
}

// CanTransition reports whether moving from s to next is a legal forward
// transition. Self transitions are allowed for idempotent updates.
func (s TaskState) CanTransition(next TaskState) bool {
	if s == next {
		return true
	}
	switch s {
	case TaskStateSubmitted:
		return next == TaskStateWorking || next == TaskStateCompleted || next == TaskStateFailed
	case TaskStateWorking:
		return next == TaskStateCompleted || next == TaskStateFailed
	default:
		return false
	}
}

// TaskStatus couples a state with the time it was entered.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// Role identifies the author of a message.
type Role string

const (
	// RoleUser marks messages originating from the caller.
	RoleUser Role = "user"
	// RoleAgent marks messages produced by an agent.
	RoleAgent Role = "agent"
)

// Message is an immutable role plus ordered content parts. Once appended to a
// task history a message must not be mutated.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Text concatenates all text parts of the message.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// NewUserMessage builds a single text part user message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{TextPart{Text: text}}}
}

// NewAgentMessage builds a single text part agent message.
func NewAgentMessage(text string) Message {
	return Message{Role: RoleAgent, Parts: []Part{TextPart{Text: text}}}
}

// Task is the unit of conversation state tracked by the task store. History is
// append-only and its order is significant.
//
// Contract:
//   - Status transitions only move forward (see TaskState.CanTransition)
//   - History length only grows
//   - All mutation happens through the owning store under its mutex
type Task struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Status    TaskStatus `json:"status"`
	History   []Message  `json:"history"`
}

// LastText returns the text of the most recent history entry or "" when the
// history is empty.
func (t *Task) LastText() string {
	if len(t.History) == 0 {
		return ""
	}
	return t.History[len(t.History)-1].Text()
}

// Clone returns a deep enough copy of the task for safe external use. Parts
// are immutable by convention so the message slice copy suffices.
func (t *Task) Clone() *Task {
	clone := &Task{ID: t.ID, SessionID: t.SessionID, Status: t.Status, History: make([]Message, len(t.History))}
	copy(clone.History, t.History)
	return clone
}
