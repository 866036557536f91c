// Package config builds the process configuration once, from environment
// variables, and hands it to components explicitly. No other package reads
// ambient process state.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names. They form the external contract of the tool
// and mirror the file/override surface described in the docs.
const (
	EnvHolidaysFile  = "HOLIDAYS_FILE"
	EnvTemplateFile  = "PI_TEMPLATE_FILE"
	EnvScheduleFile  = "PI_SCHEDULE_FILE"
	EnvSkipDatesFile = "SKIP_DATES_FILE"
	EnvStartDate     = "PI_START_DATE"
	EnvLookaheadDays = "PI_LOOKAHEAD_DAYS"
	EnvPolicy        = "PI_POLICY"
	EnvBridgeDays    = "BRIDGE_DAYS"
	EnvICSURL        = "ICS_URL"
	EnvICSCacheDir   = "ICS_CACHE_DIR"
	EnvMonthsAhead   = "MONTHS_AHEAD"
	EnvWindowStart   = "START_DATE"
	EnvWindowEnd     = "END_DATE"
	EnvTimezone      = "TIMEZONE"
)

// Config is the top-level application configuration.
type Config struct {
	// HolidaysFile is the holiday YAML document: output of `pical
	// holidays`, input of `pical update`.
	HolidaysFile string

	// TemplateFile is the PI day-template YAML document.
	TemplateFile string

	// ScheduleFile is the persisted schedule document read and rewritten
	// by `pical update`.
	ScheduleFile string

	// SkipDatesFile is an optional plain-text list of manual skip dates.
	SkipDatesFile string

	// StartDate is the raw explicit start override (ISO date). Required
	// when bootstrapping an empty schedule; otherwise optional.
	StartDate string

	// LookaheadDays is the pre-generation window before a PI's end.
	LookaheadDays int

	// Policy selects the maintenance behavior: "reflow" (default) or
	// "append".
	Policy string

	// BridgeDays enables deriving bridge days ("emendas") next to
	// Tuesday/Thursday holidays.
	BridgeDays bool

	// ICSURL is the holiday feed endpoint.
	ICSURL string

	// ICSCacheDir backs the feed's HTTP cache.
	ICSCacheDir string

	// MonthsAhead sizes the holiday window when no fixed bounds are set.
	MonthsAhead int

	// WindowStart / WindowEnd, when both set (raw ISO dates), fix the
	// holiday window instead of deriving it from today.
	WindowStart string
	WindowEnd   string

	// Timezone is the civil calendar used to determine "today".
	Timezone string
}

// FromEnv builds the configuration from the environment and fills in
// defaults.
func FromEnv() *Config {
	cfg := &Config{
		HolidaysFile:  os.Getenv(EnvHolidaysFile),
		TemplateFile:  os.Getenv(EnvTemplateFile),
		ScheduleFile:  os.Getenv(EnvScheduleFile),
		SkipDatesFile: os.Getenv(EnvSkipDatesFile),
		StartDate:     strings.TrimSpace(os.Getenv(EnvStartDate)),
		LookaheadDays: intFromEnv(EnvLookaheadDays),
		Policy:        strings.ToLower(strings.TrimSpace(os.Getenv(EnvPolicy))),
		BridgeDays:    boolFromEnv(EnvBridgeDays),
		ICSURL:        os.Getenv(EnvICSURL),
		ICSCacheDir:   os.Getenv(EnvICSCacheDir),
		MonthsAhead:   intFromEnv(EnvMonthsAhead),
		WindowStart:   strings.TrimSpace(os.Getenv(EnvWindowStart)),
		WindowEnd:     strings.TrimSpace(os.Getenv(EnvWindowEnd)),
		Timezone:      os.Getenv(EnvTimezone),
	}
	cfg.Normalize()
	return cfg
}

// Normalize fills missing/zero values with defaults so a partially
// configured environment still behaves correctly.
func (c *Config) Normalize() {
	if c.HolidaysFile == "" {
		c.HolidaysFile = "holidays.yaml"
	}
	if c.TemplateFile == "" {
		c.TemplateFile = "planning-interval.yaml"
	}
	if c.ScheduleFile == "" {
		c.ScheduleFile = "planning-interval-schedule.yaml"
	}
	if c.SkipDatesFile == "" {
		c.SkipDatesFile = "skip-dates.txt"
	}
	if c.LookaheadDays <= 0 {
		c.LookaheadDays = 5
	}
	switch c.Policy {
	case "reflow", "append":
	default:
		c.Policy = "reflow"
	}
	if c.ICSURL == "" {
		c.ICSURL = "https://www.officeholidays.com/ics-clean/brazil/sao-paulo"
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = "./var/ics-cache"
	}
	if c.MonthsAhead <= 0 {
		c.MonthsAhead = 12
	}
	if c.Timezone == "" {
		c.Timezone = "America/Sao_Paulo"
	}
}

func intFromEnv(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func boolFromEnv(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "on", "yes", "y":
		return true
	}
	return false
}
