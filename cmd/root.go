package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	calendarID string
	timezone   string
	backend    string
	logFormat  string
	debug      bool
	timeout    time.Duration
}

// version will be set by main
var version = "dev"

// rootCmd represents the base command for the autoschedule application
var rootCmd = newRootCmd()

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "autoschedule version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "autoschedule",
		Short: "Schedules events around deadlines and resolves calendar conflicts",
		Long: `autoschedule places events on a calendar under priority and deadline
constraints. Manually scheduled events and weekly hours always win; events
they displace are moved to the next free slot that still meets their deadline.

It can run as:
  - A command-line tool (manual, auto, find, hours, sweep, export)
  - An MCP (Model Context Protocol) server for AI assistants (serve)`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/autoschedule/config.yaml)")
	flags.StringVar(&opts.calendarID, "calendar", "", "Calendar ID (overrides the config file)")
	flags.StringVar(&opts.timezone, "timezone", "", "IANA time zone days are cut in, or Local (overrides the config file)")
	flags.StringVar(&opts.backend, "backend", "", "Calendar backend: google or local (overrides the config file)")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall timeout for one command (0 disables it)")

	cmd.AddCommand(newManualCmd(opts))
	cmd.AddCommand(newAutoCmd(opts))
	cmd.AddCommand(newFindCmd(opts))
	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newHoursCmd(opts))
	cmd.AddCommand(newSweepCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newGenerateDocsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
