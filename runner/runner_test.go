package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/opsmesh/a2a"
	"github.com/hupe1980/opsmesh/core"
	"github.com/hupe1980/opsmesh/task"
	"github.com/hupe1980/opsmesh/workflow"
)

// fakeEngine replays a scripted report or error.
type fakeEngine struct {
	report *workflow.Report
	err    error
	goals  []string
}

func (f *fakeEngine) Run(_ context.Context, goal, _ string) (*workflow.Report, error) {
	f.goals = append(f.goals, goal)
	return f.report, f.err
}

func sendParams(id, text string) a2a.TaskSendParams {
	return a2a.TaskSendParams{
		ID:        id,
		SessionID: "sess-1",
		Message: a2a.Message{
			Role:  "user",
			Parts: []a2a.Part{{Type: "text", Text: text}},
		},
	}
}

func TestRunner_CompletesTask(t *testing.T) {
	engine := &fakeEngine{report: &workflow.Report{
		Status:     workflow.OutcomeSuccess,
		TrackingID: "INC0010001",
		Results: []workflow.StepResult{
			{Step: workflow.Step{Target: "PlannerAgent"}, Output: "ready"},
		},
	}}

	r := New(engine)

	result, err := r.OnSendTask(context.Background(), sendParams("task-1", "deploy to ns-a"))
	require.NoError(t, err)

	assert.Equal(t, core.TaskStateCompleted, result.Status.State)
	require.Len(t, result.History, 2)
	assert.Equal(t, core.RoleAgent, result.History[1].Role)
	assert.Contains(t, result.History[1].Text(), "INC0010001")
	assert.Equal(t, []string{"deploy to ns-a"}, engine.goals)
}

func TestRunner_PlanningErrorFailsTask(t *testing.T) {
	engine := &fakeEngine{err: &workflow.PlanningError{Message: "plan is empty"}}

	r := New(engine)

	result, err := r.OnSendTask(context.Background(), sendParams("task-1", "deploy to ns-a"))
	require.NoError(t, err)

	assert.Equal(t, core.TaskStateFailed, result.Status.State)
	require.Len(t, result.History, 2)
	assert.Contains(t, result.History[1].Text(), "plan is empty")
}

func TestRunner_ForeignEngineErrorFailsTask(t *testing.T) {
	engine := &fakeEngine{err: errors.New("engine blew up")}

	r := New(engine)

	result, err := r.OnSendTask(context.Background(), sendParams("task-1", "deploy to ns-a"))
	require.NoError(t, err)

	assert.Equal(t, core.TaskStateFailed, result.Status.State)
}

func TestRunner_EmptyTaskIDPropagates(t *testing.T) {
	r := New(&fakeEngine{report: &workflow.Report{}})

	_, err := r.OnSendTask(context.Background(), sendParams("", "hello"))
	assert.ErrorIs(t, err, task.ErrEmptyTaskID)
}

func TestRunner_RepeatedSendAppendsHistory(t *testing.T) {
	engine := &fakeEngine{report: &workflow.Report{Status: workflow.OutcomeSuccess}}

	r := New(engine)

	first, err := r.OnSendTask(context.Background(), sendParams("task-1", "first"))
	require.NoError(t, err)
	require.Len(t, first.History, 2)

	second, err := r.OnSendTask(context.Background(), sendParams("task-1", "second"))
	require.NoError(t, err)
	assert.Len(t, second.History, 4)
}

func TestRunner_OnGetTask(t *testing.T) {
	engine := &fakeEngine{report: &workflow.Report{Status: workflow.OutcomeSuccess}}

	r := New(engine)

	_, err := r.OnSendTask(context.Background(), sendParams("task-1", "hello"))
	require.NoError(t, err)

	got, err := r.OnGetTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", got.ID)

	_, err = r.OnGetTask(context.Background(), "missing")
	var nf *task.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
