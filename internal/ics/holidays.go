// Package ics turns the external ICS holiday feed into holiday entries.
// It fetches with HTTP caching (fetch.go) and extracts dated holidays from
// VEVENTs, expanding recurring rules into the configured window.
package ics

import (
	"bytes"
	"errors"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"pical/internal/calendar"
	"pical/internal/holiday"
	appLog "pical/internal/log"
)

// govHolidayMarker flags feed entries that only apply to government
// offices; those are excluded from the working-day calendar.
const govHolidayMarker = "(Government Holiday)"

// maxOccurrencesPerRule caps recurrence expansion as a safety net against
// pathological rules.
const maxOccurrencesPerRule = 1000

// Window is the half-open date range [Start, End) of holidays to keep.
type Window struct {
	Start calendar.Date
	End   calendar.Date
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d calendar.Date) bool {
	return !d.Before(w.Start) && d.Before(w.End)
}

// ExtractHolidays parses an ICS payload and returns the holidays inside
// win, filtered of government-only entries, deduplicated by date and
// sorted. Individual malformed VEVENTs are logged and skipped.
func ExtractHolidays(body []byte, win Window) ([]holiday.Holiday, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if win.End.Before(win.Start) {
		return nil, errors.New("holiday window end is before its start")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	seen := calendar.NewDateSet()
	var out []holiday.Holiday

	for _, ve := range cal.Events() {
		summary := propertyValue(ve, ical.ComponentPropertySummary)
		summary = strings.TrimSpace(summary)
		if summary == "" || strings.HasSuffix(summary, govHolidayMarker) {
			continue
		}

		startVal := propertyValue(ve, ical.ComponentPropertyDtStart)
		start, perr := parseICSDate(startVal)
		if perr != nil {
			appLog.Warn("ics vevent skipped, unparsable DTSTART", "summary", summary, "dtstart", startVal)
			continue
		}

		dates := []calendar.Date{start}
		if raw := propertyValue(ve, ical.ComponentPropertyRrule); raw != "" {
			expanded, eerr := expandRule(raw, start, win)
			if eerr != nil {
				appLog.Warn("ics vevent RRULE ignored", "summary", summary, "rrule", raw, "err", eerr)
			} else {
				dates = expanded
			}
		}

		for _, d := range dates {
			if !win.Contains(d) || seen.Has(d) {
				continue
			}
			seen.Add(d)
			out = append(out, holiday.Holiday{Date: d, Name: summary})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	appLog.Info("ics extract completed", "holidays", len(out),
		"window_start", win.Start.String(), "window_end", win.End.String())
	return out, nil
}

// expandRule expands a recurring holiday into every occurrence date inside
// the window. Public feeds publish national holidays as yearly rules, so a
// single VEVENT can stand for many calendar dates.
func expandRule(raw string, start calendar.Date, win Window) ([]calendar.Date, error) {
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, err
	}
	r.DTStart(start.Time())

	var set rrule.Set
	set.RRule(r)

	// Between is inclusive on both ends; the window is half-open.
	times := set.Between(win.Start.Time(), win.End.AddDays(-1).Time(), true)
	if len(times) > maxOccurrencesPerRule {
		times = times[:maxOccurrencesPerRule]
	}

	dates := make([]calendar.Date, 0, len(times))
	for _, t := range times {
		dates = append(dates, calendar.DateOf(t))
	}
	return dates, nil
}

func propertyValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

// parseICSDate parses the date part of an ICS DTSTART value, accepting the
// DATE, UTC DATE-TIME and floating DATE-TIME forms.
func parseICSDate(v string) (calendar.Date, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return calendar.Date{}, errors.New("empty time value")
	}

	for _, layout := range []string{"20060102", "20060102T150405Z", "20060102T150405"} {
		if t, err := time.Parse(layout, v); err == nil {
			return calendar.DateOf(t), nil
		}
	}
	return calendar.Date{}, errors.New("unsupported ICS date format: " + v)
}
