// Package server provides the runtime pieces shared by the MCP transports of
// autoschedule.
//
// ServerContext owns the scheduling engine and the calendar environment
// (calendar id, time zone) every tool call runs against. Scheduling
// operations that write to the calendar are serialized through
// ServerContext.Exclusive so at most one of them is in flight per process.
//
// HealthChecker exposes /healthz, /readyz and /healthz/detailed for the
// streamable HTTP transport, and MetricsServer serves Prometheus metrics on a
// dedicated port.
package server
