package scheduling_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autoschedule/internal/instrumentation"
	"github.com/teemow/autoschedule/internal/scheduling"
	"github.com/teemow/autoschedule/internal/server"
	"github.com/teemow/autoschedule/internal/tools/common"
)

func calendarOption() mcp.ToolOption {
	return mcp.WithString("calendar",
		mcp.Description("Calendar ID (default: the configured calendar)"),
	)
}

func registerScheduleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	manualTool := mcp.NewTool("schedule_manual",
		mcp.WithDescription("Book an event at an exact local date and time. The event is marked as manually scheduled and lower-priority events it overlaps are rescheduled."),
		calendarOption(),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Local date (YYYY-MM-DD)"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Local start time (HH:MM, 24h)"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Required(),
			mcp.Description("Event duration in minutes"),
		),
		mcp.WithString("eventId",
			mcp.Description("Move this existing event instead of creating a new one"),
		),
	)

	s.AddTool(manualTool, common.InstrumentedToolHandler("schedule_manual", instrumentation.ModeManual, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleScheduleManual(ctx, request, sc)
		}))

	autoTool := mcp.NewTool("schedule_auto",
		mcp.WithDescription("Place an event in the earliest free slot, optionally before a deadline and not before a minimum start time. If the deadline cannot be met otherwise, lower-priority events are moved out of the way."),
		calendarOption(),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Required(),
			mcp.Description("Event duration in minutes"),
		),
		mcp.WithString("deadline",
			mcp.Description("The event must end by this instant (RFC3339, or YYYY-MM-DDTHH:MM in the calendar time zone)"),
		),
		mcp.WithString("minStart",
			mcp.Description("The event must not start before this instant (RFC3339, or YYYY-MM-DDTHH:MM in the calendar time zone)"),
		),
		mcp.WithString("eventId",
			mcp.Description("Move this existing event instead of creating a new one"),
		),
	)

	s.AddTool(autoTool, common.InstrumentedToolHandler("schedule_auto", instrumentation.ModeAuto, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleScheduleAuto(ctx, request, sc)
		}))

	return nil
}

func handleScheduleManual(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	env := sc.Env(common.CalendarFromArgs(request.GetArguments(), ""))

	summary, err := request.RequireString("summary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := request.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	clock, err := request.RequireString("time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	duration := request.GetInt("durationMinutes", 0)
	if duration <= 0 {
		return mcp.NewToolResultError("durationMinutes must be a positive number"), nil
	}

	req := scheduling.ManualRequest{
		Summary:         summary,
		Date:            date,
		Time:            clock,
		DurationMinutes: duration,
		EventID:         request.GetString("eventId", ""),
	}

	var res *scheduling.Result
	err = sc.Exclusive(ctx, func(ctx context.Context) error {
		var err error
		res, err = sc.Engine().ManualSchedule(ctx, env, req)
		return err
	})
	if err != nil {
		if res != nil {
			// The event is booked; only conflict handling failed.
			return mcp.NewToolResultError(fmt.Sprintf("%sFailed to reschedule conflicting events: %v",
				formatResult(summary, res, location(env)), err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to schedule event: %v", err)), nil
	}

	return mcp.NewToolResultText(formatResult(summary, res, location(env))), nil
}

func handleScheduleAuto(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	env := sc.Env(common.CalendarFromArgs(request.GetArguments(), ""))
	loc := location(env)

	summary, err := request.RequireString("summary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	duration := request.GetInt("durationMinutes", 0)
	if duration <= 0 {
		return mcp.NewToolResultError("durationMinutes must be a positive number"), nil
	}
	deadline, err := common.OptionalTime(request, "deadline", loc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	minStart, err := common.OptionalTime(request, "minStart", loc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := scheduling.AutoRequest{
		Summary:         summary,
		DurationMinutes: duration,
		Deadline:        deadline,
		MinStart:        minStart,
		EventID:         request.GetString("eventId", ""),
	}

	var res *scheduling.Result
	err = sc.Exclusive(ctx, func(ctx context.Context) error {
		var err error
		res, err = sc.Engine().AutoSchedule(ctx, env, req)
		return err
	})
	if err != nil {
		if res != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%sFailed to reschedule conflicting events: %v",
				formatResult(summary, res, loc), err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to schedule event: %v", err)), nil
	}

	return mcp.NewToolResultText(formatResult(summary, res, loc)), nil
}
