package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pical/internal/calendar"
	"pical/internal/config"
	"pical/internal/holiday"
	"pical/internal/ics"
	appLog "pical/internal/log"
)

func newHolidaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "holidays",
		Short: "Refresh the holiday calendar from the ICS feed",
		Long: "Downloads the configured ICS holiday feed, keeps the holidays inside the\n" +
			"configured window, drops government-only entries and writes the holidays\n" +
			"YAML document consumed by `pical update`.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHolidays(cmd.Context(), config.FromEnv())
		},
	}
}

func runHolidays(ctx context.Context, cfg *config.Config) error {
	today := todayIn(cfg.Timezone)

	win, err := holidayWindow(cfg, today)
	if err != nil {
		return err
	}

	res, err := ics.NewFetcher(cfg.ICSCacheDir).Fetch(ctx, cfg.ICSURL)
	if err != nil {
		return fmt.Errorf("fetching holiday feed: %w", err)
	}

	holidays, err := ics.ExtractHolidays(res.Body, win)
	if err != nil {
		return fmt.Errorf("extracting holidays: %w", err)
	}

	if err := holiday.Save(cfg.HolidaysFile, &holiday.Set{Holidays: holidays}); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.HolidaysFile, err)
	}

	appLog.Info("holiday calendar written",
		"file", cfg.HolidaysFile,
		"holidays", len(holidays),
		"window_start", win.Start.String(),
		"window_end", win.End.String(),
		"from_cache", res.FromCache,
	)
	return nil
}

// holidayWindow resolves the half-open holiday window: fixed bounds when
// both are configured, otherwise today plus MonthsAhead months of 30 days.
func holidayWindow(cfg *config.Config, today calendar.Date) (ics.Window, error) {
	if cfg.WindowStart != "" && cfg.WindowEnd != "" {
		start, err := calendar.ParseDate(cfg.WindowStart)
		if err != nil {
			return ics.Window{}, fmt.Errorf("%s: %w", config.EnvWindowStart, err)
		}
		end, err := calendar.ParseDate(cfg.WindowEnd)
		if err != nil {
			return ics.Window{}, fmt.Errorf("%s: %w", config.EnvWindowEnd, err)
		}
		return ics.Window{Start: start, End: end}, nil
	}
	return ics.Window{Start: today, End: today.AddDays(30 * cfg.MonthsAhead)}, nil
}
