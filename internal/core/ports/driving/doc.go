// Package driving holds the use-case interfaces that the CLI, HTTP API, MCP
// server and chat TUI call into. internal/core/services implements them.
package driving
