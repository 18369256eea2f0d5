// Package cmd implements the command-line interface for autoschedule.
//
// This package provides the following commands:
//   - manual, auto: Place an event at a fixed time or in the earliest free slot
//   - find, list: Inspect availability without changing the calendar
//   - hours: Replace the weekly working or unavailable hours
//   - sweep: Reschedule events that overlap fixed events
//   - export: Write events as iCalendar
//   - serve: Start the MCP server to provide tools for AI assistants
//   - config: Create and inspect the configuration file
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Settings are read from the config file, then from AUTOSCHEDULE_*
// environment variables, then from flags.
package cmd
