package scheduling_tools

import (
	"fmt"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autoschedule/internal/calendar"
	"github.com/teemow/autoschedule/internal/scheduling"
	"github.com/teemow/autoschedule/internal/server"
)

// displayLayout is how instants are rendered in tool output.
const displayLayout = "Mon 2006-01-02 15:04 MST"

// RegisterSchedulingTools registers all scheduling tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := registerAvailabilityTools(s, sc); err != nil {
		return fmt.Errorf("failed to register availability tools: %w", err)
	}

	if readOnly {
		return nil
	}

	if err := registerScheduleTools(s, sc); err != nil {
		return fmt.Errorf("failed to register schedule tools: %w", err)
	}
	if err := registerMaintenanceTools(s, sc); err != nil {
		return fmt.Errorf("failed to register maintenance tools: %w", err)
	}
	return nil
}

// formatResult renders a scheduling result for the caller.
func formatResult(summary string, res *scheduling.Result, loc *time.Location) string {
	var b strings.Builder
	if res.Placed {
		fmt.Fprintf(&b, "Scheduled %q from %s to %s", summary,
			res.Start.In(loc).Format(displayLayout), res.End.In(loc).Format(displayLayout))
		if res.EventID != "" {
			fmt.Fprintf(&b, " (event id: %s)", res.EventID)
		}
		b.WriteString("\n")
		if res.Escalated {
			b.WriteString("Placed over lower-priority events to meet the deadline.\n")
		}
	} else {
		fmt.Fprintf(&b, "%q was not scheduled.\n", summary)
	}

	if res.Message.EventBeingScheduled != "" {
		fmt.Fprintf(&b, "\nEvent: %s\n", res.Message.EventBeingScheduled)
	}
	if res.Message.ConflictingEvents != "" {
		fmt.Fprintf(&b, "Conflicts: %s\n", res.Message.ConflictingEvents)
	}
	return b.String()
}

// formatEvents renders events one per line with their scheduling class.
func formatEvents(events []calendar.Event, loc *time.Location) string {
	if len(events) == 0 {
		return "No events found.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d event(s):\n\n", len(events))
	for i, ev := range events {
		fmt.Fprintf(&b, "%d. %s\n", i+1, ev.Summary)
		fmt.Fprintf(&b, "   ID: %s\n", ev.ID)
		fmt.Fprintf(&b, "   When: %s to %s\n", ev.Start.In(loc).Format(displayLayout), ev.End.In(loc).Format(displayLayout))
		fmt.Fprintf(&b, "   Class: %s\n", scheduling.ClassOf(ev.Description))
		if ev.Description != "" {
			fmt.Fprintf(&b, "   Settings: %s\n", ev.Description)
		}
	}
	return b.String()
}

// location returns env's zone, UTC when unset.
func location(env scheduling.Env) *time.Location {
	if env.Location == nil {
		return time.UTC
	}
	return env.Location
}
