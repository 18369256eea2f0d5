// Package common provides shared utilities for MCP tool implementations:
// argument helpers and the instrumentation wrapper every scheduling tool
// handler is registered through.
package common
