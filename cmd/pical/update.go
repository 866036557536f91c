package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pical/internal/calendar"
	"pical/internal/config"
	"pical/internal/holiday"
	appLog "pical/internal/log"
	"pical/internal/schedule"
	"pical/internal/template"
)

func newUpdateCmd() *cobra.Command {
	var (
		startFlag  string
		policyFlag string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Recompute the PI schedule for today",
		Long: "Reads the holiday calendar, skip dates, PI template and existing schedule,\n" +
			"then bootstraps, reflows or appends as needed for today's date and writes\n" +
			"the schedule back. A no-op run exits successfully without touching the file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			if startFlag != "" {
				cfg.StartDate = startFlag
			}
			if policyFlag != "" {
				cfg.Policy = policyFlag
				cfg.Normalize()
			}
			return runUpdate(cfg)
		},
	}

	cmd.Flags().StringVar(&startFlag, "start", "", "explicit PI start date, YYYY-MM-DD (overrides "+config.EnvStartDate+")")
	cmd.Flags().StringVar(&policyFlag, "policy", "", "maintenance policy, reflow or append (overrides "+config.EnvPolicy+")")
	return cmd
}

func runUpdate(cfg *config.Config) error {
	holidays, err := holiday.Load(cfg.HolidaysFile)
	if err != nil {
		return fmt.Errorf("loading holiday calendar: %w", err)
	}

	days, err := template.Load(cfg.TemplateFile)
	if err != nil {
		return fmt.Errorf("loading PI template: %w", err)
	}
	appLog.Debug("PI template loaded", "file", cfg.TemplateFile, "days", len(days))

	skips, err := calendar.LoadSkipDates(cfg.SkipDatesFile)
	if err != nil {
		return fmt.Errorf("loading skip dates: %w", err)
	}
	if len(skips) > 0 {
		appLog.Info("manual skip dates loaded", "file", cfg.SkipDatesFile, "count", len(skips))
	}

	holidayDates := holidays.Dates()
	excluded := holidayDates.Union(skips)
	if cfg.BridgeDays {
		bridges := calendar.Bridges(holidayDates)
		if len(bridges) > 0 {
			appLog.Info("bridge days enabled", "count", len(bridges))
		}
		excluded = excluded.Union(bridges)
	}

	doc, err := schedule.Load(cfg.ScheduleFile)
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}

	today := todayIn(cfg.Timezone)
	override, err := resolveOverride(cfg.StartDate, len(doc.Entries) == 0)
	if err != nil {
		return err
	}

	engine := &schedule.Engine{
		Template:      days,
		Excluded:      excluded,
		Today:         today,
		StartOverride: override,
		LookaheadDays: cfg.LookaheadDays,
		Policy:        schedule.Policy(cfg.Policy),
	}

	result, err := engine.Run(doc)
	if err != nil {
		return err
	}

	if !result.Changed {
		appLog.Info("schedule unchanged", "file", cfg.ScheduleFile, "entries", len(doc.Entries))
		return nil
	}

	if err := result.Doc.Save(cfg.ScheduleFile); err != nil {
		return fmt.Errorf("writing schedule: %w", err)
	}

	kv := []any{
		"file", cfg.ScheduleFile,
		"action", string(result.Action),
		"today", today.String(),
		"policy", cfg.Policy,
		"entries", len(result.Doc.Entries),
	}
	if result.Action == schedule.ActionReflow {
		kv = append(kv, "past_kept", result.PastKept)
	}
	if len(result.Current) > 0 {
		kv = append(kv, "pi_range", entryRange(result.Current))
	}
	if len(result.Next) > 0 {
		kv = append(kv, "next_pi_range", entryRange(result.Next))
	}
	appLog.Info("schedule updated", kv...)
	return nil
}

// resolveOverride parses the explicit start date. A malformed value is
// fatal when it is required (bootstrap) and a logged no-op otherwise.
func resolveOverride(raw string, bootstrapping bool) (*calendar.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		if bootstrapping {
			return nil, fmt.Errorf("start date is required to bootstrap an empty schedule: %w", err)
		}
		appLog.Warn("start date override ignored", "value", raw, "err", err)
		return nil, nil
	}
	return &d, nil
}

func entryRange(entries []schedule.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	return entries[0].Date + " -> " + entries[len(entries)-1].Date
}
