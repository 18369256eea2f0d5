package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/autoschedule/internal/scheduling"
)

func newHoursCmd(opts *globalOptions) *cobra.Command {
	var sweep bool

	cmd := &cobra.Command{
		Use:   "hours <working|unavailable> [blocks]",
		Short: "Replace the weekly working or unavailable hours",
		Long: `Replace the weekly working or unavailable hours with recurring events.

Blocks are comma-separated, e.g.:
  autoschedule hours working "mon 09:00-17:00, tue 09:00-17:00, fri 09:00-13:00"

Omitting the blocks clears the hours. Pass --sweep to reschedule events the new
hours overlap right away.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := scheduling.ParseHoursKind(args[0])
			if err != nil {
				return err
			}
			var spec string
			if len(args) == 2 {
				spec = args[1]
			}
			blocks, err := scheduling.ParseWeeklyBlocks(spec)
			if err != nil {
				return err
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				created, err := a.engine.ReplaceWeeklyHours(ctx, a.env, kind, blocks)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Weekly %s hours: %d block(s)\n", strings.ToLower(args[0]), len(created))
				for _, ev := range created {
					fmt.Fprintf(out, "  %s %s-%s\n",
						ev.Start.In(a.env.Location).Weekday(),
						ev.Start.In(a.env.Location).Format("15:04"),
						ev.End.In(a.env.Location).Format("15:04"))
				}

				if !sweep {
					return nil
				}
				report, err := a.engine.SweepConflicts(ctx, a.env)
				if err != nil {
					return err
				}
				printSweep(out, report, a.env.Location)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&sweep, "sweep", false, "Reschedule events overlapping the new hours")

	return cmd
}
