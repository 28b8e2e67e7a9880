// Package a2a implements the agent-to-agent task delegation protocol: agent
// card discovery, an immutable endpoint registry, a JSON-RPC client for
// delegating tasks to remote agents and an HTTP server exposing this agent's
// own card and tasks/send endpoint.
//
// The protocol is deliberately small. A request carries a task id, session id
// and a role/parts message; the response carries the full remote task whose
// history includes the original message followed by the agent's reply. A
// single unreachable peer degrades one delegation, never the whole process.
package a2a
