package calendar

// IsWorkingDay reports whether d is a Monday-Friday date that is not in
// the excluded set (holidays, bridge days, manual skips).
func IsWorkingDay(d Date, excluded DateSet) bool {
	return !d.IsWeekend() && !excluded.Has(d)
}

// NextWorkingDay returns d itself when d is already a working day,
// otherwise the first working day after it. Termination relies on the
// excluded set being finite: weekends recur every seven days, so any
// finite set is exhausted eventually.
func NextWorkingDay(d Date, excluded DateSet) Date {
	for !IsWorkingDay(d, excluded) {
		d = d.AddDays(1)
	}
	return d
}
