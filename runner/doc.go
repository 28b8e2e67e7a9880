// Package runner implements the task-manager boundary between the protocol
// layer and the workflow engine.
//
// The Runner receives an incoming task request, records it in the task store,
// drives the workflow engine to completion and appends the resulting report
// as an agent message before marking the task COMPLETED. Planning failures
// mark the task FAILED with the error recorded in history; for any input that
// reaches the Runner the caller always receives a well-formed task.
package runner
