package schedule

import (
	"pical/internal/calendar"
	"pical/internal/template"
)

// Materialize maps the template days, in day_index order, onto consecutive
// working days starting at start. The cursor advances one calendar day per
// entry; any landing on a weekend or excluded date is corrected forward at
// the top of the next iteration, so output dates are strictly increasing
// working days and the first date is the first working day at-or-after
// start.
//
// piNumber tags each entry with its PI generation; zero emits entries
// without a pi field (the pre-numbering schema).
func Materialize(days []template.Day, start calendar.Date, excluded calendar.DateSet, piNumber int) []Entry {
	sorted := template.SortedByIndex(days)

	out := make([]Entry, 0, len(sorted))
	cursor := start
	for _, d := range sorted {
		if !calendar.IsWorkingDay(cursor, excluded) {
			cursor = calendar.NextWorkingDay(cursor, excluded)
		}

		entry := Entry{
			Date:        cursor.String(),
			PIDay:       d.Index,
			Sprint:      d.Sprint,
			DayInSprint: d.DayInSprint,
			PI:          piNumber,
			Description: d.Description(),
			Meta:        d.Meta(),
		}
		if d.Color != nil {
			entry.Color = d.Color
		}

		out = append(out, entry)
		cursor = cursor.AddDays(1)
	}
	return out
}
