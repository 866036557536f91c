package calendar

import (
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ISODate is the on-disk layout for all calendar dates.
const ISODate = "2006-01-02"

// Date is a civil calendar date with no time-of-day or timezone component.
// Internally it is a time.Time pinned to midnight UTC, which keeps weekday
// and day arithmetic exact.
type Date struct {
	t time.Time
}

// NewDate constructs a Date from year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is a test/fixture helper; it panics on malformed input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) String() string { return d.t.Format(ISODate) }

func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// AddDays returns the date n calendar days after d (n may be negative).
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// DaysUntil returns the number of calendar days from d to o
// (negative when o is before d).
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t) / (24 * time.Hour))
}

// Time exposes the midnight-UTC instant backing the date.
func (d Date) Time() time.Time { return d.t }

// IsWeekend reports whether d falls on Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// MarshalYAML encodes the date as a plain YYYY-MM-DD scalar.
func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML accepts either a quoted ISO string or a bare YAML date
// scalar (which yaml.v3 hands over as the same text).
func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateSet is an unordered set of dates.
type DateSet map[Date]struct{}

// NewDateSet builds a set from the given dates.
func NewDateSet(dates ...Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

func (s DateSet) Add(d Date)      { s[d] = struct{}{} }
func (s DateSet) Has(d Date) bool { _, ok := s[d]; return ok }

// Union returns a new set containing every date from s and the others.
// The receiver is never mutated; excluded sets are recomputed each run.
func (s DateSet) Union(others ...DateSet) DateSet {
	out := make(DateSet, len(s))
	for d := range s {
		out.Add(d)
	}
	for _, o := range others {
		for d := range o {
			out.Add(d)
		}
	}
	return out
}

// Sorted returns the set's dates in ascending order.
func (s DateSet) Sorted() []Date {
	out := make([]Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
