package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pical/internal/calendar"
	appLog "pical/internal/log"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "pical",
		Short: "pical: SAFe Planning Interval working-day scheduler",
		Long: "pical maintains a Planning Interval (PI) schedule over working days,\n" +
			"skipping weekends, holidays and manually listed skip dates.\n\n" +
			"Typical flow: `pical holidays` refreshes the holiday calendar from the\n" +
			"ICS feed, then `pical update` recomputes the schedule for today.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return appLog.Init(verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			appLog.Sync()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newHolidaysCmd())
	cmd.AddCommand(newUpdateCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pical %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// todayIn returns the civil date "today" in the configured timezone,
// falling back to the system clock's local date when the zone cannot be
// loaded.
func todayIn(timezone string) calendar.Date {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		appLog.Warn("unknown timezone, using local clock", "timezone", timezone, "err", err)
		return calendar.DateOf(time.Now())
	}
	return calendar.DateOf(time.Now().In(loc))
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
