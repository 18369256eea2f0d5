package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// CalendarFromArgs returns the "calendar" argument, or fallback when it is
// absent or empty.
func CalendarFromArgs(args map[string]interface{}, fallback string) string {
	if v, ok := args["calendar"].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

// OptionalTime parses an RFC 3339 argument in loc. A missing or empty
// argument yields the zero time.
func OptionalTime(request mcp.CallToolRequest, name string, loc *time.Location) (time.Time, error) {
	raw := strings.TrimSpace(request.GetString(name, ""))
	if raw == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(time.RFC3339, raw, loc)
	if err != nil {
		// Accept a bare local date-time without offset.
		t, err = time.ParseInLocation("2006-01-02T15:04", raw, loc)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp, got %q", name, raw)
	}
	return t, nil
}
