// Package task provides storage for tasks and their append-only message
// histories. The in-memory implementation is the process-lifetime registry
// used by the orchestration runner; durable implementations can satisfy the
// same Store interface.
package task
