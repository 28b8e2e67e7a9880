// Package tool defines the uniform callable-tool abstraction shared by local
// function tools and subprocess-backed MCP tools, with schema validated
// arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/opsmesh/internal/util"
)

// Tool is a named callable capability. MCP descriptors and local functions
// both satisfy it, so the workflow engine can dispatch to either uniformly.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Return failures as errors, never panic across the boundary
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with structured arguments. The returned string
	// is the tool's content payload.
	Call(ctx context.Context, args map[string]any) (string, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes used across tool implementations.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeTransport  = "TRANSPORT_ERROR"
)

// ToolError represents errors that occur during tool execution. It carries a
// message so callers can treat tool failure as data rather than an
// exceptional control path.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
