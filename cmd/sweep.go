package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/autoschedule/internal/scheduling"
)

func newSweepCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reschedule events that overlap manually scheduled events or weekly hours",
		Long: `Scan the scheduling horizon for manually scheduled events and weekly hours
that overlap other events, and reschedule those events. Use this after editing
the calendar outside of autoschedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				report, err := a.engine.SweepConflicts(ctx, a.env)
				if report != nil {
					printSweep(cmd.OutOrStdout(), report, a.env.Location)
				}
				return err
			})
		},
	}
}

func printSweep(w io.Writer, report *scheduling.SweepReport, loc *time.Location) {
	fmt.Fprintf(w, "Swept %s to %s: %d conflicting window(s)\n",
		report.From.In(loc).Format(displayLayout), report.To.In(loc).Format(displayLayout), report.Windows)
	if report.Message != "" {
		fmt.Fprintln(w, report.Message)
	}
}
