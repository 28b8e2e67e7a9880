package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/opsmesh/a2a"
	"github.com/hupe1980/opsmesh/core"
	"github.com/hupe1980/opsmesh/logging"
	"github.com/hupe1980/opsmesh/task"
	"github.com/hupe1980/opsmesh/workflow"
)

// WorkflowRunner abstracts the workflow engine for the task boundary. Tests
// substitute scripted fakes.
type WorkflowRunner interface {
	Run(ctx context.Context, goal, sessionID string) (*workflow.Report, error)
}

// Options holds dependency overrides passed to New().
type Options struct {
	// Store holds task state. Defaults to a fresh in-memory store.
	Store task.Store
	// Logger for task lifecycle events.
	Logger logging.Logger
}

// Runner is the task-manager boundary: it owns task lifecycle around one
// workflow invocation. Safe for concurrent use; the store serializes task
// mutation.
type Runner struct {
	engine WorkflowRunner
	store  task.Store
	logger logging.Logger
}

var _ a2a.TaskHandler = (*Runner)(nil)

// New constructs a Runner around a workflow engine.
func New(engine WorkflowRunner, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Store:  task.NewInMemoryStore(),
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		engine: engine,
		store:  opts.Store,
		logger: opts.Logger,
	}
}

// Store exposes the underlying task store.
func (r *Runner) Store() task.Store { return r.store }

// OnSendTask handles a tasks/send request: upsert the task, run the workflow,
// append the report as an agent message and mark the task COMPLETED. A
// planning failure records the error in history and marks the task FAILED;
// both outcomes return the well-formed task.
func (r *Runner) OnSendTask(ctx context.Context, params a2a.TaskSendParams) (*core.Task, error) {
	incoming := a2a.FromWire(params.Message)

	if _, err := r.store.Upsert(params.ID, params.SessionID, incoming); err != nil {
		return nil, err
	}
	// Resending a finished task id appends a new round to its history; the
	// terminal state is kept rather than moved backwards.
	if err := r.setStateIfAllowed(params.ID, core.TaskStateWorking); err != nil {
		return nil, err
	}

	r.logger.Info("task accepted", "task_id", params.ID, "session_id", params.SessionID)

	goal := params.Message.Text()

	report, err := r.engine.Run(ctx, goal, params.SessionID)
	if err != nil {
		var planErr *workflow.PlanningError
		if !errors.As(err, &planErr) {
			err = &workflow.PlanningError{Message: "workflow failed", Err: err}
		}
		return r.fail(params.ID, err)
	}

	reply := core.NewAgentMessage(report.Render())
	if err := r.store.AppendMessage(params.ID, reply); err != nil {
		return nil, err
	}
	if err := r.setStateIfAllowed(params.ID, core.TaskStateCompleted); err != nil {
		return nil, err
	}

	r.logger.Info("task completed", "task_id", params.ID, "status", report.Status)

	return r.store.Get(params.ID)
}

// OnGetTask returns the current task state.
func (r *Runner) OnGetTask(_ context.Context, id string) (*core.Task, error) {
	return r.store.Get(id)
}

// fail records err in the task history and marks the task FAILED, returning
// the task so the protocol layer still answers with a well-formed result.
func (r *Runner) fail(id string, cause error) (*core.Task, error) {
	r.logger.Error("task failed", "task_id", id, "error", cause)

	msg := core.NewAgentMessage(fmt.Sprintf("Workflow aborted: %v", cause))
	if err := r.store.AppendMessage(id, msg); err != nil {
		return nil, err
	}
	if err := r.setStateIfAllowed(id, core.TaskStateFailed); err != nil {
		return nil, err
	}

	return r.store.Get(id)
}

// setStateIfAllowed applies a forward transition and is a no-op when the
// task's current state does not permit it.
func (r *Runner) setStateIfAllowed(id string, next core.TaskState) error {
	t, err := r.store.Get(id)
	if err != nil {
		return err
	}
	if !t.Status.State.CanTransition(next) {
		return nil
	}
	return r.store.SetState(id, next)
}
