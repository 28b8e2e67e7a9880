package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReport_Render(t *testing.T) {
	r := &Report{
		Status:     OutcomeSuccess,
		TrackingID: "INC0010001",
		JobID:      "42",
		Results: []StepResult{
			{Step: Step{Target: "PlannerAgent"}, Output: "Cluster is ready"},
			{Step: Step{Target: "ServiceNowAgent"}, Output: "Incident updated", Synthesized: true, Label: "progress"},
			{Step: Step{Target: "ExecutorAgent"}, Output: "step failed: connection refused", Failed: true},
		},
	}

	out := r.Render()

	assert.Contains(t, out, "Status: SUCCESS")
	assert.Contains(t, out, "Tracking: INC0010001")
	assert.Contains(t, out, "Job: 42")
	assert.Contains(t, out, "1. [ok] PlannerAgent")
	assert.Contains(t, out, "2. [ok] ServiceNowAgent (progress)")
	assert.Contains(t, out, "3. [failed] ExecutorAgent")
}

func TestReport_RenderWithoutIdentifiers(t *testing.T) {
	r := &Report{Status: OutcomeFailure}

	out := r.Render()

	assert.Contains(t, out, "Tracking: NOT_FOUND")
	assert.NotContains(t, out, "Job:")
}
