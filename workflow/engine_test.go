package workflow

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type agentCall struct {
	Agent   string
	Message string
}

// fakeAgents scripts per-agent replies and records every delegation. Agents
// listed in fails return their error instead of a reply.
type fakeAgents struct {
	replies map[string]func(message string) string
	fails   map[string]error
	calls   []agentCall
}

func (f *fakeAgents) Delegate(ctx context.Context, agentName, message, _ string) (string, error) {
	f.calls = append(f.calls, agentCall{Agent: agentName, Message: message})

	if err, ok := f.fails[agentName]; ok {
		return "", err
	}

	fn, ok := f.replies[agentName]
	if !ok {
		return "", errors.New("agent unreachable")
	}
	if fn == nil {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return fn(message), nil
}

func (f *fakeAgents) Known(name string) bool {
	_, ok := f.replies[name]
	return ok
}

func (f *fakeAgents) Names() []string {
	names := make([]string, 0, len(f.replies))
	for name := range f.replies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// noTools is an empty tool dispatcher.
type noTools struct{}

func (noTools) Invoke(_ context.Context, name string, _ map[string]any) (string, error) {
	return "", errors.New("no tools configured: " + name)
}
func (noTools) Known(string) bool { return false }
func (noTools) Names() []string   { return nil }

// fakeTools scripts tool replies and records invocations.
type fakeTools struct {
	replies map[string]string
	args    []map[string]any
}

func (f *fakeTools) Invoke(_ context.Context, name string, args map[string]any) (string, error) {
	f.args = append(f.args, args)
	if reply, ok := f.replies[name]; ok {
		return reply, nil
	}
	return "", errors.New("tool unreachable")
}

func (f *fakeTools) Known(name string) bool {
	_, ok := f.replies[name]
	return ok
}

func (f *fakeTools) Names() []string {
	names := make([]string, 0, len(f.replies))
	for name := range f.replies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fakePlanner replays a scripted plan or error.
type fakePlanner struct {
	steps []Step
	err   error
}

func (f *fakePlanner) Plan(_ context.Context, _ string, _ Targets) ([]Step, error) {
	return f.steps, f.err
}

func deploymentAgents() *fakeAgents {
	return &fakeAgents{replies: map[string]func(string) string{
		"ServiceNowAgent": func(msg string) string {
			if strings.Contains(msg, "Create incident") {
				return "Created incident INC0010001 for tracking"
			}
			return "Incident updated"
		},
		"PlannerAgent": func(string) string {
			return "Cluster is healthy and ready for deployment"
		},
		"ExecutorAgent": func(msg string) string {
			if strings.Contains(msg, "Check status") {
				return "Job 42 completed successfully"
			}
			return "Deployment started. Job ID is `42`"
		},
	}}
}

func deploymentPlan() []Step {
	return []Step{
		{Target: "ServiceNowAgent", Instruction: "Create incident for deployment tracking"},
		{Target: "PlannerAgent", Instruction: "Assess cluster readiness for ns-a"},
		{Target: "ExecutorAgent", Instruction: "Deploy application to ns-a namespace"},
		{Target: "ServiceNowAgent", Instruction: "Close the tracking incident"},
	}
}

func TestEngine_DeploymentSuccess(t *testing.T) {
	agents := deploymentAgents()
	engine := New(agents, noTools{}, func(o *Options) {
		o.Planner = &fakePlanner{steps: deploymentPlan()}
	})

	report, err := engine.Run(context.Background(), "Deploy Monte Carlo to ns-a", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, report.Status)
	assert.Equal(t, "INC0010001", report.TrackingID)
	assert.Equal(t, "42", report.JobID)

	// the rewritten close step references the collected identifiers
	var closeCall agentCall
	for _, call := range agents.calls {
		if strings.Contains(call.Message, "state 6") {
			closeCall = call
		}
	}
	require.NotEmpty(t, closeCall.Agent)
	assert.Equal(t, "ServiceNowAgent", closeCall.Agent)
	assert.Contains(t, closeCall.Message, "INC0010001")
	assert.Contains(t, closeCall.Message, "Job 42")
	assert.NotContains(t, closeCall.Message, "Close the tracking incident")
}

func TestEngine_OrderWithSynthesizedSteps(t *testing.T) {
	agents := deploymentAgents()
	engine := New(agents, noTools{}, func(o *Options) {
		o.Planner = &fakePlanner{steps: deploymentPlan()}
	})

	report, err := engine.Run(context.Background(), "Deploy Monte Carlo to ns-a", "sess-1")
	require.NoError(t, err)

	type entry struct {
		target string
		synth  bool
		label  string
	}
	var got []entry
	for _, r := range report.Results {
		got = append(got, entry{r.Step.Target, r.Synthesized, r.Label})
	}

	want := []entry{
		{"ServiceNowAgent", false, ""},
		{"PlannerAgent", false, ""},
		{"ServiceNowAgent", true, "progress"},
		{"ExecutorAgent", false, ""},
		{"ExecutorAgent", true, "status-poll"},
		{"ServiceNowAgent", true, "progress"},
		{"ServiceNowAgent", false, ""},
	}
	assert.Equal(t, want, got)
}

func TestEngine_AssessmentFailureStillExecutes(t *testing.T) {
	agents := deploymentAgents()
	agents.replies["PlannerAgent"] = func(string) string {
		return "Cluster is not ready: nodes unavailable"
	}
	agents.replies["ExecutorAgent"] = func(string) string {
		return "Deployment attempt failed"
	}

	engine := New(agents, noTools{}, func(o *Options) {
		o.Planner = &fakePlanner{steps: deploymentPlan()}
	})

	report, err := engine.Run(context.Background(), "Deploy Monte Carlo to ns-a", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailure, report.Status)

	ready, ok := report.Context.Bool(KeyReady)
	require.True(t, ok)
	assert.False(t, ready)

	// the executor step is still invoked per plan
	executed := false
	for _, call := range agents.calls {
		if call.Agent == "ExecutorAgent" {
			executed = true
		}
	}
	assert.True(t, executed)

	// the close step synthesizes a failure-state instruction
	last := agents.calls[len(agents.calls)-1]
	assert.Equal(t, "ServiceNowAgent", last.Agent)
	assert.Contains(t, last.Message, "did not complete successfully")
	assert.Contains(t, last.Message, "INC0010001")
}

func TestEngine_DeployDelegationErrorClosesWithFailureState(t *testing.T) {
	agents := deploymentAgents()
	agents.fails = map[string]error{"ExecutorAgent": errors.New("connection refused")}

	engine := New(agents, noTools{}, func(o *Options) {
		o.Planner = &fakePlanner{steps: deploymentPlan()}
	})

	report, err := engine.Run(context.Background(), "Deploy Monte Carlo to ns-a", "sess-1")
	require.NoError(t, err)

	// a ready assessment alone must not produce a success close
	assert.Equal(t, OutcomeFailure, report.Status)

	last := agents.calls[len(agents.calls)-1]
	assert.Equal(t, "ServiceNowAgent", last.Agent)
	assert.Contains(t, last.Message, "state 2")
	assert.Contains(t, last.Message, "did not complete successfully")
	assert.NotContains(t, last.Message, "state 6")
	assert.NotContains(t, last.Message, "successfully deployed")
}

func TestEngine_EmptyPlanAborts(t *testing.T) {
	agents := deploymentAgents()
	engine := New(agents, noTools{}, func(o *Options) {
		o.Planner = &fakePlanner{err: &PlanningError{Message: "plan is empty"}}
	})

	_, err := engine.Run(context.Background(), "Deploy Monte Carlo to ns-a", "sess-1")

	var planErr *PlanningError
	require.ErrorAs(t, err, &planErr)
	assert.Empty(t, agents.calls)
}

func TestEngine_WrapsForeignPlannerError(t *testing.T) {
	engine := New(deploymentAgents(), noTools{}, func(o *Options) {
		o.Planner = &fakePlanner{err: errors.New("model unavailable")}
	})

	_, err := engine.Run(context.Background(), "Deploy Monte Carlo to ns-a", "sess-1")

	var planErr *PlanningError
	require.ErrorAs(t, err, &planErr)
}

func TestEngine_UnknownTargetContinues(t *testing.T) {
	agents := &fakeAgents{replies: map[string]func(string) string{
		"PlannerAgent": func(string) string { return "ready" },
	}}

	engine := New(agents, noTools{}, func(o *Options) {
		o.Planner = &fakePlanner{steps: []Step{
			{Target: "GhostAgent", Instruction: "deployment step one"},
			{Target: "PlannerAgent", Instruction: "deployment step two"},
		}}
	})

	report, err := engine.Run(context.Background(), "run deployment", "sess-1")
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	assert.True(t, report.Results[0].Failed)
	assert.Contains(t, report.Results[0].Output, "unknown target")
	assert.False(t, report.Results[1].Failed)
}

func TestEngine_StepTimeoutIsFailedStep(t *testing.T) {
	agents := &fakeAgents{replies: map[string]func(string) string{
		"SlowAgent":    nil, // blocks until the step context expires
		"PlannerAgent": func(string) string { return "ready" },
	}}

	engine := New(agents, noTools{}, func(o *Options) {
		o.Planner = &fakePlanner{steps: []Step{
			{Target: "SlowAgent", Instruction: "deployment hang"},
			{Target: "PlannerAgent", Instruction: "deployment assess"},
		}}
		o.StepTimeout = 20 * time.Millisecond
	})

	report, err := engine.Run(context.Background(), "run deployment", "sess-1")
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	assert.True(t, report.Results[0].Failed)
	assert.False(t, report.Results[1].Failed)
}

func TestEngine_StepLimit(t *testing.T) {
	agents := deploymentAgents()
	engine := New(agents, noTools{}, func(o *Options) {
		o.Planner = &fakePlanner{steps: deploymentPlan()}
		o.MaxSteps = 2
	})

	report, err := engine.Run(context.Background(), "Deploy Monte Carlo to ns-a", "sess-1")
	require.NoError(t, err)

	assert.LessOrEqual(t, len(report.Results), 2)
}

func TestEngine_SimpleQueryRouting(t *testing.T) {
	agents := &fakeAgents{replies: map[string]func(string) string{
		"TellTimeAgent": func(string) string { return "It is noon" },
	}}

	engine := New(agents, noTools{})

	report, err := engine.Run(context.Background(), "what time is it?", "sess-1")
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	assert.Equal(t, "It is noon", report.Results[0].Output)
	require.Len(t, agents.calls, 1)
	assert.Equal(t, "TellTimeAgent", agents.calls[0].Agent)
}

func TestEngine_SimpleQueryNoRouteSummarizes(t *testing.T) {
	agents := &fakeAgents{replies: map[string]func(string) string{
		"PlannerAgent": func(string) string { return "ok" },
	}}

	engine := New(agents, noTools{})

	report, err := engine.Run(context.Background(), "tell me a joke", "sess-1")
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	assert.Contains(t, report.Results[0].Output, "PlannerAgent")
	assert.Empty(t, agents.calls)
}

func TestEngine_ToolStep(t *testing.T) {
	tools := &fakeTools{replies: map[string]string{
		"create_incident": "Created incident INC0020002",
	}}

	engine := New(&fakeAgents{replies: map[string]func(string) string{}}, tools, func(o *Options) {
		o.Planner = &fakePlanner{steps: []Step{
			{Target: "create_incident", Instruction: `{"short_description": "deploy ns-a"}`},
		}}
	})

	report, err := engine.Run(context.Background(), "run deployment", "sess-1")
	require.NoError(t, err)

	assert.Equal(t, "INC0020002", report.TrackingID)
	require.Len(t, tools.args, 1)
	assert.Equal(t, "deploy ns-a", tools.args[0]["short_description"])
}

func TestClosingInstruction_PureFunctionOfContext(t *testing.T) {
	wctx := Context{
		KeyTrackingID: "INC0010001",
		KeyJobID:      "42",
		KeySucceeded:  true,
		KeyNamespace:  "ns-a",
	}

	first := ClosingInstruction(wctx)
	second := ClosingInstruction(wctx)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "INC0010001")
	assert.Contains(t, first, "Job 42")
	assert.Contains(t, first, "ns-a")
}

func TestClosingInstruction_MissingTrackingIDRendersNotFound(t *testing.T) {
	out := ClosingInstruction(Context{KeySucceeded: false})
	assert.Contains(t, out, "NOT_FOUND")
}

func TestClosingInstruction_ReadinessAloneIsNotSuccess(t *testing.T) {
	out := ClosingInstruction(Context{KeyTrackingID: "INC0010001", KeyReady: true})

	assert.Contains(t, out, "state 2")
	assert.Contains(t, out, "Manual intervention required")
}
