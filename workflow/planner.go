package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/opsmesh/model"
)

// Targets lists the dispatchable names a planner may use as step targets.
type Targets struct {
	Agents []string
	Tools  []string
}

// Planner produces an ordered, non-empty plan for a goal. Plan generation is
// a black box; the engine only requires the structured result.
type Planner interface {
	Plan(ctx context.Context, goal string, targets Targets) ([]Step, error)
}

// PlanningError indicates the planner returned an empty, malformed or
// non-parseable plan. It is the only error that aborts a workflow invocation.
type PlanningError struct {
	Message string
	Err     error
}

// Error implements the error interface for PlanningError.
func (e *PlanningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("planning failed: %s", e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *PlanningError) Unwrap() error { return e.Err }

const plannerInstructions = `You are a workflow planner for an operations orchestrator.
Given a goal and the available agents and tools, produce an ordered plan.

Respond with ONLY a JSON array. Each element is an object with exactly two
string fields: "target" (one of the available agent or tool names) and
"instruction" (the message to send to that target). No prose, no markdown.`

// LLMPlanner asks a language model for a JSON plan and parses it into steps.
type LLMPlanner struct {
	model model.Model
}

var _ Planner = (*LLMPlanner)(nil)

// NewLLMPlanner wraps a model as a Planner.
func NewLLMPlanner(m model.Model) *LLMPlanner {
	return &LLMPlanner{model: m}
}

// Plan implements Planner. Model failures and unparseable output surface as
// *PlanningError.
func (p *LLMPlanner) Plan(ctx context.Context, goal string, targets Targets) ([]Step, error) {
	prompt := fmt.Sprintf("Goal: %s\n\nAvailable agents: %s\nAvailable tools: %s",
		goal,
		strings.Join(targets.Agents, ", "),
		strings.Join(targets.Tools, ", "))

	resp, err := p.model.Complete(ctx, model.Request{
		Instructions: plannerInstructions,
		Prompt:       prompt,
	})
	if err != nil {
		return nil, &PlanningError{Message: "model call failed", Err: err}
	}

	steps, err := ParsePlan(resp.Text)
	if err != nil {
		return nil, err
	}
	return steps, nil
}

// ParsePlan decodes a JSON array of steps, tolerating markdown code fences
// around the payload. An empty or malformed plan is a *PlanningError.
func ParsePlan(text string) ([]Step, error) {
	cleaned := stripFences(text)

	var steps []Step
	if err := json.Unmarshal([]byte(cleaned), &steps); err != nil {
		return nil, &PlanningError{Message: "plan is not a valid JSON array", Err: err}
	}
	if len(steps) == 0 {
		return nil, &PlanningError{Message: "plan is empty"}
	}

	for i, step := range steps {
		if step.Target == "" || step.Instruction == "" {
			return nil, &PlanningError{Message: fmt.Sprintf("step %d is missing target or instruction", i)}
		}
	}

	return steps, nil
}

func stripFences(text string) string {
	out := strings.TrimSpace(text)
	if strings.HasPrefix(out, "```") {
		out = strings.TrimPrefix(out, "```json")
		out = strings.TrimPrefix(out, "```")
		out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	}
	return strings.TrimSpace(out)
}

// DeploymentPlanner is a deterministic planner for deployment goals. It emits
// the fixed incident-tracked flow: create a tracking incident, assess the
// target, deploy, then close the incident. Useful as a no-model fallback and
// in tests.
type DeploymentPlanner struct {
	// TrackingAgent handles incident creation and closing.
	TrackingAgent string
	// AssessAgent performs the readiness assessment.
	AssessAgent string
	// ExecuteAgent runs the deployment.
	ExecuteAgent string
}

var _ Planner = (*DeploymentPlanner)(nil)

// NewDeploymentPlanner returns a DeploymentPlanner with the default agent
// names used by the reference mesh.
func NewDeploymentPlanner() *DeploymentPlanner {
	return &DeploymentPlanner{
		TrackingAgent: "ServiceNowAgent",
		AssessAgent:   "PlannerAgent",
		ExecuteAgent:  "ExecutorAgent",
	}
}

// Plan implements Planner.
func (p *DeploymentPlanner) Plan(_ context.Context, goal string, _ Targets) ([]Step, error) {
	namespace := ExtractNamespace(goal)

	return []Step{
		{
			Target: p.TrackingAgent,
			Instruction: fmt.Sprintf("Create incident with short description 'Deploy application to %s namespace', "+
				"description 'Automated deployment workflow to %s namespace. Includes cluster assessment, "+
				"deployment execution, and status tracking.', category 'Software', urgency 2, impact 2",
				namespace, namespace),
		},
		{
			Target:      p.AssessAgent,
			Instruction: fmt.Sprintf("Assess cluster readiness for deployment to %s", namespace),
		},
		{
			Target:      p.ExecuteAgent,
			Instruction: fmt.Sprintf("Deploy application to %s namespace", namespace),
		},
		{
			Target:      p.TrackingAgent,
			Instruction: "Close the tracking incident with final deployment status",
		},
	}, nil
}
