// Package scheduling_tools exposes the scheduling engine as MCP tools.
//
// Mutating tools (schedule_manual, schedule_auto, sweep_conflicts,
// set_weekly_hours) run under the server's scheduling lock. Read-only tools
// (find_availability, list_events) are always registered; mutating tools are
// skipped when the server runs read-only.
package scheduling_tools
