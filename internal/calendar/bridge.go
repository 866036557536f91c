package calendar

import "time"

// Bridges derives the extra skip dates implied by holidays adjacent to a
// weekend ("emendas"):
//
//   - a holiday on a Tuesday bridges the preceding Monday
//   - a holiday on a Thursday bridges the following Friday
//
// Monday, Wednesday, Friday and weekend holidays produce nothing. A bridge
// candidate is only added when it is itself a weekday and not already a
// holiday.
func Bridges(holidays DateSet) DateSet {
	bridges := NewDateSet()
	for d := range holidays {
		var candidate Date
		switch d.Weekday() {
		case time.Tuesday:
			candidate = d.AddDays(-1)
		case time.Thursday:
			candidate = d.AddDays(1)
		default:
			continue
		}
		if candidate.IsWeekend() || holidays.Has(candidate) {
			continue
		}
		bridges.Add(candidate)
	}
	return bridges
}
