package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/autoschedule/internal/export"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	var from, to, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export events as an iCalendar (.ics) file",
		Long: `Export the events of a time range as iCalendar. Each event carries its
scheduling class as CATEGORIES and its scheduling settings as DESCRIPTION.`,
		Args: cobra.NoArgs,
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

				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", output, err)
					}
					defer f.Close()
					w = f
				}

				if err := export.Write(w, events, export.Options{}); err != nil {
					return err
				}
				if output != "" && output != "-" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d event(s) to %s\n", len(events), output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start of the range (default: now)")
	cmd.Flags().StringVar(&to, "to", "", "End of the range (default: end of the scheduling horizon)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
