package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/opsmesh/core"
	"github.com/hupe1980/opsmesh/logging"
)

// AgentCaller dispatches a step instruction to a named remote agent.
type AgentCaller interface {
	Delegate(ctx context.Context, agentName, message, sessionID string) (string, error)
	Known(name string) bool
	Names() []string
}

// ToolCaller dispatches a step instruction to a named tool.
type ToolCaller interface {
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
	Known(name string) bool
	Names() []string
}

// Route maps goal keywords to the agent that answers simple queries directly.
type Route struct {
	Keywords []string
	Agent    string
}

// DefaultRoutes is the keyword routing table for simple queries, checked in
// order with first match winning.
func DefaultRoutes() []Route {
	return []Route{
		{Keywords: []string{"assess", "check", "status", "ready"}, Agent: "PlannerAgent"},
		{Keywords: []string{"incident", "servicenow", "itsm", "ticket"}, Agent: "ServiceNowAgent"},
		{Keywords: []string{"time", "date"}, Agent: "TellTimeAgent"},
		{Keywords: []string{"greet", "hello", "hi"}, Agent: "GreetingAgent"},
	}
}

// Options configures the Engine.
type Options struct {
	// Planner produces the ordered plan for orchestrated goals.
	Planner Planner
	// Extractor updates the workflow context from step result text.
	Extractor Extractor
	// Classifier maps result text to outcomes.
	Classifier Classifier
	// QueryClassifier splits simple from orchestrated goals.
	QueryClassifier QueryClassifier
	// Routes answer simple queries via a single delegation.
	Routes []Route
	// TrackingAgent receives synthesized progress and closing steps.
	TrackingAgent string
	// StepTimeout bounds each individual step dispatch.
	StepTimeout time.Duration
	// Deadline bounds the whole workflow invocation.
	Deadline time.Duration
	// MaxSteps caps total executed steps including synthesized ones.
	MaxSteps int
	// Logger for step progress.
	Logger logging.Logger
}

// Engine executes workflows: classify, plan, execute sequentially with
// context accumulation, report. Safe for concurrent use; each Run carries its
// own context map and results list.
type Engine struct {
	agents AgentCaller
	tools  ToolCaller
	opts   Options
}

// New constructs an Engine over the given agent and tool dispatchers.
func New(agents AgentCaller, tools ToolCaller, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Extractor:       &RegexExtractor{},
		Classifier:      &KeywordClassifier{},
		QueryClassifier: &KeywordQueryClassifier{},
		Routes:          DefaultRoutes(),
		TrackingAgent:   "ServiceNowAgent",
		StepTimeout:     2 * time.Minute,
		Deadline:        15 * time.Minute,
		MaxSteps:        25,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		agents: agents,
		tools:  tools,
		opts:   opts,
	}
}

// Run executes the workflow for goal within sessionID. Per-step failures are
// recorded in the report and execution continues; the only error returned in
// normal operation is *PlanningError.
func (e *Engine) Run(ctx context.Context, goal, sessionID string) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Deadline)
	defer cancel()

	if e.opts.QueryClassifier.ClassifyQuery(goal) == QuerySimple {
		return e.runSimple(ctx, goal, sessionID), nil
	}

	return e.runOrchestrated(ctx, goal, sessionID)
}

// runSimple answers a goal through a single routed delegation, or with a
// capability summary when no route matches.
func (e *Engine) runSimple(ctx context.Context, goal, sessionID string) *Report {
	lower := strings.ToLower(goal)

	for _, route := range e.opts.Routes {
		if !containsAny(lower, route.Keywords) {
			continue
		}

		e.opts.Logger.Info("routing simple query", "agent", route.Agent, "session_id", sessionID)

		step := Step{Target: route.Agent, Instruction: goal}
		result := e.executeStep(ctx, step, sessionID)

		status := OutcomeSuccess
		if result.Failed {
			status = OutcomeFailure
		}

		return &Report{Status: status, Results: []StepResult{result}}
	}

	summary := fmt.Sprintf("I can coordinate these agents: %s. "+
		"Ask for a deployment, an assessment, an incident operation, the time, or a greeting.",
		strings.Join(e.agents.Names(), ", "))

	return &Report{
		Status: OutcomeUnknown,
		Results: []StepResult{{
			Step:        Step{Instruction: goal},
			Output:      summary,
			Synthesized: true,
			Label:       "capabilities",
		}},
	}
}

// runOrchestrated runs the full plan-execute-report machine.
func (e *Engine) runOrchestrated(ctx context.Context, goal, sessionID string) (*Report, error) {
	targets := Targets{Agents: e.agents.Names(), Tools: e.tools.Names()}

	plan, err := e.opts.Planner.Plan(ctx, goal, targets)
	if err != nil {
		var planErr *PlanningError
		if !errors.As(err, &planErr) {
			err = &PlanningError{Message: "planner failed", Err: err}
		}
		return nil, err
	}

	e.opts.Logger.Info("executing workflow plan", "session_id", sessionID, "steps", len(plan))

	wctx := NewContext()
	if ns := ExtractNamespace(goal); ns != "unknown" {
		wctx[KeyNamespace] = ns
	}

	limiter := core.NewStepLimiter(e.opts.MaxSteps)
	var results []StepResult

	for _, step := range plan {
		if err := limiter.Increment(); err != nil {
			e.opts.Logger.Warn("step limit reached, stopping execution", "session_id", sessionID)
			break
		}

		// A close/finalize step reflects final state, not stale plan text.
		if e.isClosingStep(step) {
			step.Instruction = ClosingInstruction(wctx)
		}

		result := e.executeStep(ctx, step, sessionID)
		results = append(results, result)
		e.absorb(wctx, result)

		extras := e.synthesizeProgress(ctx, step, result, wctx, sessionID, limiter)
		for _, extra := range extras {
			results = append(results, extra)
			e.absorb(wctx, extra)
		}
	}

	return e.report(wctx, results), nil
}

// absorb merges extracted values from a step result into the context. A
// failed planned step is recorded as missing success evidence so the close
// action and report reflect it; a failed synthesized tracking update carries
// no deployment outcome and is skipped.
func (e *Engine) absorb(wctx Context, result StepResult) {
	if result.Failed {
		if !result.Synthesized {
			wctx[KeySucceeded] = false
		}
		return
	}
	wctx.Merge(e.opts.Extractor.Extract(result.Output))
}

// isClosingStep recognizes a planned close/finalize action against the
// tracking agent by keyword match on its instruction text.
func (e *Engine) isClosingStep(step Step) bool {
	if step.Target != e.opts.TrackingAgent {
		return false
	}
	lower := strings.ToLower(step.Instruction)
	return strings.Contains(lower, "close") || strings.Contains(lower, "finalize") || strings.Contains(lower, "final status")
}

// executeStep dispatches one step to an agent or tool with a per-step timeout
// and converts every failure mode, panics included, into step-result data.
func (e *Engine) executeStep(ctx context.Context, step Step, sessionID string) (result StepResult) {
	result = StepResult{Step: step}

	defer func() {
		if r := recover(); r != nil {
			result.Output = fmt.Sprintf("step panicked: %v", r)
			result.Failed = true
			e.opts.Logger.Error("workflow step recovered from panic", "target", step.Target, "panic", r)
		}
	}()

	stepCtx, cancel := context.WithTimeout(ctx, e.opts.StepTimeout)
	defer cancel()

	start := time.Now()

	var (
		output string
		err    error
	)

	switch {
	case e.agents.Known(step.Target):
		output, err = e.agents.Delegate(stepCtx, step.Target, step.Instruction, sessionID)
	case e.tools.Known(step.Target):
		output, err = e.tools.Invoke(stepCtx, step.Target, toolArgs(step.Instruction))
	default:
		result.Output = fmt.Sprintf("unknown target: %s", step.Target)
		result.Failed = true
		return result
	}

	if err != nil {
		e.opts.Logger.Error("step failed", "target", step.Target, "duration", time.Since(start), "error", err)
		result.Output = fmt.Sprintf("step failed: %v", err)
		result.Failed = true
		return result
	}

	e.opts.Logger.Debug("step completed", "target", step.Target, "duration", time.Since(start))
	result.Output = output
	return result
}

// toolArgs decodes a JSON-object instruction into tool arguments, falling
// back to a single "query" argument for plain text.
func toolArgs(instruction string) map[string]any {
	trimmed := strings.TrimSpace(instruction)
	if strings.HasPrefix(trimmed, "{") {
		var args map[string]any
		if err := json.Unmarshal([]byte(trimmed), &args); err == nil {
			return args
		}
	}
	return map[string]any{"query": instruction}
}

// synthesizeProgress appends extra tracking steps after assessment and
// deployment steps. Synthesized steps run immediately after their trigger,
// carry a distinguishing label and never become part of the original plan.
func (e *Engine) synthesizeProgress(
	ctx context.Context,
	step Step,
	result StepResult,
	wctx Context,
	sessionID string,
	limiter *core.StepLimiter,
) []StepResult {
	// Tracking-agent steps report state themselves and never trigger extras.
	if result.Failed || step.Target == e.opts.TrackingAgent || !e.agents.Known(e.opts.TrackingAgent) {
		return nil
	}

	trackingID := wctx.String(KeyTrackingID)
	lower := strings.ToLower(step.Instruction)
	var extras []StepResult

	runExtra := func(target, instruction, label string) bool {
		if err := limiter.Increment(); err != nil {
			return false
		}
		extra := e.executeStep(ctx, Step{Target: target, Instruction: instruction}, sessionID)
		extra.Synthesized = true
		extra.Label = label
		extras = append(extras, extra)
		// Later synthesis in this trigger needs the freshly extracted values.
		e.absorb(wctx, extra)
		return true
	}

	switch {
	case strings.Contains(lower, "assess"):
		if trackingID == "" {
			return nil
		}
		runExtra(e.opts.TrackingAgent,
			fmt.Sprintf("Update incident %s with state 2, work_notes 'Cluster assessment completed. Results: %s'",
				trackingID, truncate(result.Output, 200)),
			"progress")

	case strings.Contains(lower, "deploy"):
		if jobID := wctx.String(KeyJobID); jobID != "" {
			runExtra(step.Target,
				fmt.Sprintf("Check status of job %s", jobID),
				"status-poll")
		}
		if trackingID != "" {
			runExtra(e.opts.TrackingAgent,
				fmt.Sprintf("Update incident %s with state 2, work_notes 'Deployment step executed. Results: %s'",
					trackingID, truncate(result.Output, 200)),
				"progress")
		}
	}

	return extras
}

// report derives the overall status from the accumulated context and wraps
// the ordered results.
func (e *Engine) report(wctx Context, results []StepResult) *Report {
	status := OutcomeUnknown
	if succeeded, ok := wctx.Bool(KeySucceeded); ok {
		if succeeded {
			status = OutcomeSuccess
		} else {
			status = OutcomeFailure
		}
	} else if ready, ok := wctx.Bool(KeyReady); ok && !ready {
		status = OutcomeFailure
	} else if len(results) > 0 {
		// No structured outcome collected; classify the last result text.
		status = e.opts.Classifier.Classify(results[len(results)-1].Output)
	}

	return &Report{
		Status:     status,
		TrackingID: wctx.String(KeyTrackingID),
		JobID:      wctx.String(KeyJobID),
		Results:    results,
		Context:    wctx.Clone(),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
