package scheduling_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autoschedule/internal/instrumentation"
	"github.com/teemow/autoschedule/internal/scheduling"
	"github.com/teemow/autoschedule/internal/server"
	"github.com/teemow/autoschedule/internal/tools/common"
)

func registerAvailabilityTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	findTool := mcp.NewTool("find_availability",
		mcp.WithDescription("Find the earliest start time at which an event of the given duration fits, without booking anything"),
		calendarOption(),
		mcp.WithNumber("durationMinutes",
			mcp.Required(),
			mcp.Description("Event duration in minutes"),
		),
		mcp.WithString("deadline",
			mcp.Description("The slot must end by this instant (RFC3339, or YYYY-MM-DDTHH:MM in the calendar time zone)"),
		),
		mcp.WithString("minStart",
			mcp.Description("The slot must not start before this instant"),
		),
		mcp.WithBoolean("highPriority",
			mcp.Description("Only treat manually scheduled, deadline-bound and weekly hours events as busy (default: false)"),
		),
	)

	s.AddTool(findTool, common.InstrumentedToolHandler("find_availability", instrumentation.ModeFind, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindAvailability(ctx, request, sc)
		}))

	listTool := mcp.NewTool("list_events",
		mcp.WithDescription("List events in a time range together with their scheduling class"),
		calendarOption(),
		mcp.WithString("timeMin",
			mcp.Description("Start of the range (RFC3339; default: now)"),
		),
		mcp.WithString("timeMax",
			mcp.Description("End of the range (RFC3339; default: end of the scheduling horizon)"),
		),
	)

	s.AddTool(listTool, common.InstrumentedToolHandler("list_events", instrumentation.ModeFind, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	return nil
}

func handleFindAvailability(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	env := sc.Env(common.CalendarFromArgs(request.GetArguments(), ""))
	loc := location(env)

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

	start, found, err := sc.Engine().FindAvailability(ctx, env, scheduling.FindRequest{
		Duration:     time.Duration(duration) * time.Minute,
		Deadline:     deadline,
		MinStart:     minStart,
		HighPriority: request.GetBool("highPriority", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search availability: %v", err)), nil
	}
	if !found {
		if !deadline.IsZero() {
			return mcp.NewToolResultText(scheduling.DeadlineWarning), nil
		}
		return mcp.NewToolResultText(scheduling.NoAvailabilityMessage), nil
	}

	end := scheduling.EndTime(start, duration)
	return mcp.NewToolResultText(fmt.Sprintf("Earliest available slot: %s to %s\n",
		start.In(loc).Format(displayLayout), end.In(loc).Format(displayLayout))), nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	env := sc.Env(common.CalendarFromArgs(request.GetArguments(), ""))
	loc := location(env)

	timeMin, err := common.OptionalTime(request, "timeMin", loc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := common.OptionalTime(request, "timeMax", loc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	now := time.Now()
	if env.Now != nil {
		now = env.Now()
	}
	if timeMin.IsZero() {
		timeMin = now
	}
	if timeMax.IsZero() {
		timeMax = timeMin.AddDate(0, 0, sc.Engine().HorizonDays())
	}
	if !timeMax.After(timeMin) {
		return mcp.NewToolResultError("timeMax must be after timeMin"), nil
	}

	events, err := sc.Engine().ListEventsInRange(ctx, env, timeMin, timeMax)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}
	return mcp.NewToolResultText(formatEvents(events, loc)), nil
}
