// Package logging provides structured logging helpers for autoschedule.
//
// It keeps attribute names consistent across the engine, the calendar
// backends and the MCP tools, and builds the process logger from the
// --log-format and --debug flags.
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "schedule.auto")
//	logger.Info("event placed",
//	    logging.EventID(ev.ID),
//	    logging.SummaryHash(ev.Summary))
//
// Event summaries are user content; log them through SummaryHash.
// OAuth tokens are only ever logged through SanitizeToken.
package logging
