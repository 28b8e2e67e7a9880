package a2a

import "fmt"

// UnknownAgentError indicates a delegation to a name absent from the registry.
type UnknownAgentError struct {
	Name string
}

// Error implements the error interface for UnknownAgentError.
func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent: %s", e.Name)
}

// DelegationError wraps a transport or remote-side failure during delegation.
// It is non-fatal to the overall workflow; callers convert it to step-result
// text at the dispatch boundary.
type DelegationError struct {
	Agent   string
	Message string
	Err     error
}

// Error implements the error interface for DelegationError.
func (e *DelegationError) Error() string {
	return fmt.Sprintf("delegation to %s failed: %s", e.Agent, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *DelegationError) Unwrap() error { return e.Err }
