// Package driving holds the interfaces the CLI, MCP server and watch view
// call into. internal/core/services implements them.
package driving
