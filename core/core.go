package core

import "github.com/google/uuid"

// NewID returns a new random identifier suitable for tasks and invocations.
func NewID() string {
	return uuid.NewString()
}
