package workflow

import (
	"fmt"
	"strings"

	"github.com/hupe1980/opsmesh/internal/util"
)

// StepResult is one executed step and its textual outcome. Synthesized marks
// steps the engine inserted itself (progress updates, status polls).
type StepResult struct {
	Step        Step
	Output      string
	Failed      bool
	Synthesized bool
	Label       string
}

// Report is the consolidated workflow result: overall status, collected
// identifiers and the ordered step results including synthesized ones.
type Report struct {
	Status     Outcome
	TrackingID string
	JobID      string
	Results    []StepResult
	Context    Context
}

// Render produces the human-readable report text: a header summarizing
// status and tracking identifiers, then per-step results in execution order.
func (r *Report) Render() string {
	var b strings.Builder

	b.WriteString("Workflow Report\n")
	b.WriteString(fmt.Sprintf("Status: %s\n", r.Status))

	tracking := r.TrackingID
	if tracking == "" {
		tracking = "NOT_FOUND"
	}
	b.WriteString(fmt.Sprintf("Tracking: %s\n", tracking))

	if r.JobID != "" {
		b.WriteString(fmt.Sprintf("Job: %s\n", r.JobID))
	}
	b.WriteString("\n")

	for i, result := range r.Results {
		marker := "ok"
		if result.Failed {
			marker = "failed"
		}

		label := result.Step.Target
		if result.Synthesized {
			label = fmt.Sprintf("%s (%s)", label, result.Label)
		}

		b.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, marker, label))
		b.WriteString(fmt.Sprintf("   %s\n", result.Output))
	}

	return b.String()
}

// closingSuccess and closingFailure are the templates the engine substitutes
// for a planned close step. The instruction is a pure function of the
// workflow context at execution time.
const (
	closingSuccess = "Update incident {{ .trackingId | default \"NOT_FOUND\" }} with state 6, " +
		"comments 'Application successfully deployed to {{ .namespace | default \"unknown\" }} namespace." +
		"{{ if .jobId }} Job {{ .jobId }} completed successfully.{{ end }} " +
		"Application is running and ready for use.', " +
		"work_notes 'Deployment completed successfully via automation.'"

	closingFailure = "Update incident {{ .trackingId | default \"NOT_FOUND\" }} with state 2, " +
		"work_notes 'Deployment to {{ .namespace | default \"unknown\" }} namespace did not complete successfully." +
		"{{ if .jobId }} Job {{ .jobId }} requires review.{{ end }} Manual intervention required.'"
)

// ClosingInstruction synthesizes the close-step instruction from the current
// context, replacing the planner's literal text so the close action reflects
// final state. A missing tracking identifier renders as NOT_FOUND.
func ClosingInstruction(wctx Context) string {
	// Only explicit success evidence selects the success template; readiness
	// alone does not prove the deployment completed.
	succeeded, ok := wctx.Bool(KeySucceeded)
	success := ok && succeeded

	tmpl := closingFailure
	if success {
		tmpl = closingSuccess
	}

	state := make(map[string]any, len(wctx))
	for k, v := range wctx {
		state[k] = v
	}

	out, err := util.RenderTemplate(tmpl, state)
	if err != nil {
		// The templates are static; a render failure means a context value
		// broke substitution. Fall back to a minimal literal.
		return "Update the tracking incident with the final deployment status"
	}
	return out
}
