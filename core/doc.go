// Package core contains the shared vocabulary of the opsmesh orchestration
// engine: tasks with append-only message histories, role-based message parts,
// the task state machine and small cross-cutting helpers (id generation, step
// limiting). Higher-level packages (task store, a2a client/server, workflow
// engine, runner) all speak in terms of these types.
package core
