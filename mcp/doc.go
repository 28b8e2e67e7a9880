// Package mcp implements the tool connector: it discovers configured MCP
// tool servers, resolves ${VAR} environment placeholders, enumerates each
// server's tools once at startup and invokes tools through ephemeral
// subprocess sessions scoped to a single call.
//
// Discovery is partial-failure tolerant: one bad server is logged and
// skipped, never aborting the whole connector. Invocation guarantees the
// session and its subprocess are torn down on every exit path, and returns
// tool failures as *tool.ToolError values so callers can treat them as data.
package mcp
