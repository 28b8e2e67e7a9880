package task

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/opsmesh/core"
)

// ErrEmptyTaskID is returned when a caller supplies an empty task id.
// It is the store's only invalid-argument condition.
var ErrEmptyTaskID = errors.New("task: id must not be empty")

// NotFoundError indicates a lookup for an id the store has never seen.
type NotFoundError struct {
	ID string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}

// Store persists tasks and their evolving status / message history.
//
// Contract:
//   - Upsert with an unseen id creates the task (state submitted) with the
//     incoming message as the sole history entry
//   - Upsert with a seen id appends the message to the existing history
//   - History is append-only; SetState enforces forward-only transitions
//   - All mutation happens under the store's mutex
type Store interface {
	Upsert(id, sessionID string, msg core.Message) (*core.Task, error)
	Get(id string) (*core.Task, error)
	AppendMessage(id string, msg core.Message) error
	SetState(id string, state core.TaskState) error
}

// InMemoryStore is a volatile Store implementation keeping tasks in a process
// local map. Tasks live for the process lifetime and are never deleted. It is
// safe for concurrent access; a single mutex guards all tasks (contention is
// expected to be low). Each returned task is cloned to prevent external
// mutation of internal state.
type InMemoryStore struct {
	mu    sync.Mutex
	tasks map[string]*core.Task
}

// NewInMemoryStore constructs an empty in-memory task store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tasks: make(map[string]*core.Task)}
}

// Upsert creates the task on first reference to an unseen id, or appends the
// incoming message to the existing history. The returned task is a clone.
func (s *InMemoryStore) Upsert(id, sessionID string, msg core.Message) (*core.Task, error) {
	if id == "" {
		return nil, ErrEmptyTaskID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		t = &core.Task{
			ID:        id,
			SessionID: sessionID,
			Status:    core.TaskStatus{State: core.TaskStateSubmitted, Timestamp: time.Now().UTC()},
			History:   []core.Message{msg},
		}
		s.tasks[id] = t
		return t.Clone(), nil
	}

	t.History = append(t.History, msg)
	return t.Clone(), nil
}

// Get returns a clone of the task or a NotFoundError.
func (s *InMemoryStore) Get(id string) (*core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return t.Clone(), nil
}

// AppendMessage appends a message to an existing task's history.
func (s *InMemoryStore) AppendMessage(id string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	t.History = append(t.History, msg)
	return nil
}

// SetState moves the task into a new state, rejecting backward transitions.
func (s *InMemoryStore) SetState(id string, state core.TaskState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	if !t.Status.State.CanTransition(state) {
		return fmt.Errorf("task %s: illegal transition %s -> %s", id, t.Status.State, state)
	}
	t.Status = core.TaskStatus{State: state, Timestamp: time.Now().UTC()}
	return nil
}
