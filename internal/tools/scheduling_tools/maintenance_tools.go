package scheduling_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autoschedule/internal/calendar"
	"github.com/teemow/autoschedule/internal/instrumentation"
	"github.com/teemow/autoschedule/internal/scheduling"
	"github.com/teemow/autoschedule/internal/server"
	"github.com/teemow/autoschedule/internal/tools/common"
)

func registerMaintenanceTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	sweepTool := mcp.NewTool("sweep_conflicts",
		mcp.WithDescription("Reschedule events that overlap manually scheduled events or weekly hours anywhere in the scheduling horizon"),
		calendarOption(),
	)

	s.AddTool(sweepTool, common.InstrumentedToolHandler("sweep_conflicts", instrumentation.ModeSweep, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSweepConflicts(ctx, request, sc)
		}))

	hoursTool := mcp.NewTool("set_weekly_hours",
		mcp.WithDescription("Replace the weekly working hours or unavailable hours with the given blocks. Overlapping events are not moved until sweep_conflicts runs."),
		calendarOption(),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Which hours to replace"),
			mcp.Enum("working", "unavailable"),
		),
		mcp.WithString("blocks",
			mcp.Required(),
			mcp.Description("Comma-separated weekly blocks, e.g. 'mon 09:00-17:00, fri 09:00-13:00'. An empty string clears the hours."),
		),
	)

	s.AddTool(hoursTool, common.InstrumentedToolHandler("set_weekly_hours", instrumentation.ModeHours, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSetWeeklyHours(ctx, request, sc)
		}))

	return nil
}

func handleSweepConflicts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	env := sc.Env(common.CalendarFromArgs(request.GetArguments(), ""))
	loc := location(env)

	var report *scheduling.SweepReport
	err := sc.Exclusive(ctx, func(ctx context.Context) error {
		var err error
		report, err = sc.Engine().SweepConflicts(ctx, env)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to sweep conflicts: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Swept %s to %s: %d conflicting window(s).\n",
		report.From.In(loc).Format(displayLayout), report.To.In(loc).Format(displayLayout), report.Windows)
	if report.Message != "" {
		b.WriteString(report.Message + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleSetWeeklyHours(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	env := sc.Env(common.CalendarFromArgs(request.GetArguments(), ""))
	loc := location(env)

	kindArg, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := scheduling.ParseHoursKind(kindArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	blocks, err := scheduling.ParseWeeklyBlocks(request.GetString("blocks", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var created []calendar.Event
	err = sc.Exclusive(ctx, func(ctx context.Context) error {
		var err error
		created, err = sc.Engine().ReplaceWeeklyHours(ctx, env, kind, blocks)
		return err
	})
	if err != nil {
		if errors.Is(err, scheduling.ErrInvalidHours) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to replace weekly hours (%d created): %v", len(created), err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weekly %s hours replaced with %d block(s).\n", kindArg, len(created))
	for _, ev := range created {
		fmt.Fprintf(&b, "  %s to %s, repeating weekly (series id: %s)\n",
			ev.Start.In(loc).Format(displayLayout), ev.End.In(loc).Format("15:04"), ev.ID)
	}
	return mcp.NewToolResultText(b.String()), nil
}
