package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/autoschedule/internal/scheduling"
)

// displayLayout is how instants are printed.
const displayLayout = "Mon 2006-01-02 15:04 MST"

func newManualCmd(opts *globalOptions) *cobra.Command {
	var (
		date     string
		at       string
		duration int
		eventID  string
	)

	cmd := &cobra.Command{
		Use:   "manual <summary>",
		Short: "Book an event at an exact local date and time",
		Long: `Book an event at an exact local date and time and mark it as manually
scheduled. Events it now overlaps are rescheduled, except other manually
scheduled events and weekly hours.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				res, err := a.engine.ManualSchedule(ctx, a.env, scheduling.ManualRequest{
					Summary:         args[0],
					Date:            date,
					Time:            at,
					DurationMinutes: duration,
					EventID:         eventID,
				})
				if res != nil {
					printResult(cmd.OutOrStdout(), args[0], res, a.env.Location)
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Local date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&at, "time", "", "Local start time (HH:MM)")
	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in minutes")
	cmd.Flags().StringVar(&eventID, "event-id", "", "Move this existing event instead of creating a new one")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

func newAutoCmd(opts *globalOptions) *cobra.Command {
	var (
		duration int
		deadline string
		minStart string
		eventID  string
	)

	cmd := &cobra.Command{
		Use:   "auto <summary>",
		Short: "Place an event in the earliest free slot",
		Long: `Place an event in the earliest free slot that ends before the deadline and
starts after the minimum start time. When only lower-priority events stand in
the way of the deadline, they are moved out of the way.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				dl, err := parseInstant(deadline, a.env.Location)
				if err != nil {
					return fmt.Errorf("--deadline: %w", err)
				}
				ms, err := parseInstant(minStart, a.env.Location)
				if err != nil {
					return fmt.Errorf("--min-start: %w", err)
				}

				res, err := a.engine.AutoSchedule(ctx, a.env, scheduling.AutoRequest{
					Summary:         args[0],
					DurationMinutes: duration,
					Deadline:        dl,
					MinStart:        ms,
					EventID:         eventID,
				})
				if res != nil {
					printResult(cmd.OutOrStdout(), args[0], res, a.env.Location)
				}
				return err
			})
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in minutes")
	cmd.Flags().StringVar(&deadline, "deadline", "", "The event must end by this time")
	cmd.Flags().StringVar(&minStart, "min-start", "", "The event must not start before this time")
	cmd.Flags().StringVar(&eventID, "event-id", "", "Move this existing event instead of creating a new one")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

func newFindCmd(opts *globalOptions) *cobra.Command {
	var (
		duration     int
		deadline     string
		minStart     string
		highPriority bool
	)

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Show the earliest free slot without booking it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				dl, err := parseInstant(deadline, a.env.Location)
				if err != nil {
					return fmt.Errorf("--deadline: %w", err)
				}
				ms, err := parseInstant(minStart, a.env.Location)
				if err != nil {
					return fmt.Errorf("--min-start: %w", err)
				}

				start, found, err := a.engine.FindAvailability(ctx, a.env, scheduling.FindRequest{
					Duration:     time.Duration(duration) * time.Minute,
					Deadline:     dl,
					MinStart:     ms,
					HighPriority: highPriority,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				switch {
				case found:
					end := scheduling.EndTime(start, duration)
					fmt.Fprintf(out, "%s to %s\n", start.In(a.env.Location).Format(displayLayout), end.In(a.env.Location).Format(displayLayout))
				case !dl.IsZero():
					fmt.Fprintln(out, scheduling.DeadlineWarning)
				default:
					fmt.Fprintln(out, scheduling.NoAvailabilityMessage)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 0, "Duration in minutes")
	cmd.Flags().StringVar(&deadline, "deadline", "", "The slot must end by this time")
	cmd.Flags().StringVar(&minStart, "min-start", "", "The slot must not start before this time")
	cmd.Flags().BoolVar(&highPriority, "high-priority", false, "Only count manually scheduled, deadline-bound and weekly hours events as busy")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events with their scheduling class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				start, end, err := parseRange(from, to, a)
				if err != nil {
					return err
				}

				events, err := a.engine.ListEventsInRange(ctx, a.env, start, end)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintln(out, "No events found.")
					return nil
				}
				for _, ev := range events {
					fmt.Fprintf(out, "%s  %s  %-18s  %s  (%s)\n",
						ev.Start.In(a.env.Location).Format(displayLayout),
						ev.End.In(a.env.Location).Format("15:04"),
						scheduling.ClassOf(ev.Description),
						ev.Summary,
						ev.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start of the range (default: now)")
	cmd.Flags().StringVar(&to, "to", "", "End of the range (default: end of the scheduling horizon)")

	return cmd
}

// parseRange resolves --from/--to, defaulting to [now, now+horizon).
func parseRange(from, to string, a *app) (time.Time, time.Time, error) {
	start, err := parseInstant(from, a.env.Location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
	}
	end, err := parseInstant(to, a.env.Location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
	}
	if start.IsZero() {
		start = time.Now().In(a.env.Location)
	}
	if end.IsZero() {
		end = start.AddDate(0, 0, a.engine.HorizonDays())
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to must be after --from")
	}
	return start, end, nil
}

func printResult(w io.Writer, summary string, res *scheduling.Result, loc *time.Location) {
	if res.Placed {
		fmt.Fprintf(w, "Scheduled %q: %s to %s", summary,
			res.Start.In(loc).Format(displayLayout), res.End.In(loc).Format(displayLayout))
		if res.EventID != "" {
			fmt.Fprintf(w, " [%s]", res.EventID)
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "%q was not scheduled.\n", summary)
	}
	if msg := res.Message.String(); msg != "" {
		fmt.Fprintln(w, msg)
	}
}
