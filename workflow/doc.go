// Package workflow implements the orchestration engine: it classifies an
// incoming goal, obtains an ordered plan from an injected Planner, executes
// the plan step by step against agents and tools, accumulates extracted
// identifiers in a running context and renders a consolidated report.
//
// The engine is a deterministic state machine. Everything generative or
// heuristic (planning, outcome classification, identifier extraction) sits
// behind small injected interfaces so the machine itself is testable with
// fakes. The only workflow-aborting condition is a malformed or empty plan;
// every per-step failure is recorded as data and execution continues.
package workflow
