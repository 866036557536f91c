package schedule

import (
	"errors"

	"pical/internal/calendar"
	appLog "pical/internal/log"
	"pical/internal/template"
)

// DefaultLookaheadDays is how close to the current PI's end a run must be
// before the next PI is pre-generated.
const DefaultLookaheadDays = 5

// ErrMissingStartDate is returned when an empty schedule is bootstrapped
// without an explicit start date override.
var ErrMissingStartDate = errors.New("an explicit start date is required to bootstrap an empty schedule")

// Policy selects which of the two historical maintenance behaviors the
// engine runs. They are not compatible, so the choice is an explicit
// configuration value rather than a silent default.
type Policy string

const (
	// PolicyReflow keeps past entries, regenerates the current PI from
	// today, preserves any already-generated future PI and pre-generates
	// the next PI near the end of the current one.
	PolicyReflow Policy = "reflow"

	// PolicyAppend never rewrites anything: it appends exactly one new
	// (unnumbered) PI once today is past the last scheduled date plus the
	// lookahead window.
	PolicyAppend Policy = "append"
)

// Action describes what a run did to the schedule.
type Action string

const (
	ActionBootstrap Action = "bootstrap"
	ActionAppend    Action = "append"
	ActionReflow    Action = "reflow"
	ActionNone      Action = "none"
)

// Engine is the schedule decision procedure. All inputs are explicit;
// Today in particular is injected so runs are deterministic and testable.
type Engine struct {
	Template      []template.Day
	Excluded      calendar.DateSet
	Today         calendar.Date
	StartOverride *calendar.Date
	LookaheadDays int
	Policy        Policy
}

// Result reports the outcome of a run. Doc is the document to persist;
// when Changed is false it is the input document untouched.
type Result struct {
	Doc      *Document
	Action   Action
	Changed  bool
	PastKept int     // entries preserved ahead of the regenerated PI
	Current  []Entry // the PI generated by this run, if any
	Next     []Entry // the pre-generated next PI, if any
}

// NeedsNextPI reports whether today falls within windowDays calendar days
// of the current PI's end (inclusive), i.e. the next PI should already
// exist.
func NeedsNextPI(currentPIEnd, today calendar.Date, windowDays int) bool {
	return today.DaysUntil(currentPIEnd) <= windowDays
}

// Run applies the configured policy to doc and returns the outcome. The
// input document is never mutated.
func (e *Engine) Run(doc *Document) (Result, error) {
	if e.Policy == PolicyAppend {
		return e.runAppend(doc)
	}
	return e.runReflow(doc)
}

func (e *Engine) window() int {
	if e.LookaheadDays > 0 {
		return e.LookaheadDays
	}
	return DefaultLookaheadDays
}

// runReflow evaluates the reflow policy's cases in order: bootstrap,
// append-beyond-end, future-schedule no-op, reflow.
func (e *Engine) runReflow(doc *Document) (Result, error) {
	if len(doc.Entries) == 0 {
		return e.bootstrap(doc)
	}

	last, lastOK := doc.LastDate()

	// Explicit override strictly after everything scheduled: append one
	// new PI and leave existing entries alone. The override is forward
	// motion by itself, so no lookahead runs here.
	if e.StartOverride != nil && lastOK {
		anchor := calendar.NextWorkingDay(*e.StartOverride, e.Excluded)
		if anchor.After(last) {
			return e.appendBeyondEnd(doc, anchor), nil
		}
	}

	if first, ok := doc.FirstDate(); ok && e.Today.Before(first) {
		appLog.Info("schedule starts in the future, nothing to do",
			"today", e.Today.String(), "first", first.String())
		return Result{Doc: doc, Action: ActionNone}, nil
	}

	return e.reflow(doc), nil
}

func (e *Engine) bootstrap(doc *Document) (Result, error) {
	if e.StartOverride == nil {
		return Result{}, ErrMissingStartDate
	}

	anchor := calendar.NextWorkingDay(*e.StartOverride, e.Excluded)
	current := Materialize(e.Template, anchor, e.Excluded, 1)
	entries := current

	var next []Entry
	if end, ok := lastDate(current); ok && NeedsNextPI(end, e.Today, e.window()) {
		nextStart := calendar.NextWorkingDay(end.AddDays(1), e.Excluded)
		next = Materialize(e.Template, nextStart, e.Excluded, 2)
		entries = append(entries, next...)
	}

	return Result{
		Doc:     &Document{Entries: entries, Wrapped: doc.Wrapped},
		Action:  ActionBootstrap,
		Changed: true,
		Current: current,
		Next:    next,
	}, nil
}

func (e *Engine) appendBeyondEnd(doc *Document, anchor calendar.Date) Result {
	num := maxPI(doc.Entries) + 1
	pi := Materialize(e.Template, anchor, e.Excluded, num)

	entries := make([]Entry, 0, len(doc.Entries)+len(pi))
	entries = append(entries, doc.Entries...)
	entries = append(entries, pi...)

	return Result{
		Doc:     &Document{Entries: entries, Wrapped: doc.Wrapped},
		Action:  ActionAppend,
		Changed: true,
		Current: pi,
	}
}

func (e *Engine) reflow(doc *Document) Result {
	past, future := splitAt(doc.Entries, e.Today)
	num := currentPINumber(past, future)

	start := calendar.NextWorkingDay(e.Today, e.Excluded)
	current := Materialize(e.Template, start, e.Excluded, num)
	end, _ := lastDate(current)

	// Future entries inside the regenerated range are superseded; anything
	// strictly after it is an already-generated next PI and survives.
	var retained []Entry
	for _, entry := range future {
		if d, ok := entry.Day(); ok && d.After(end) {
			retained = append(retained, entry)
		}
	}

	entries := make([]Entry, 0, len(past)+len(current)+len(retained))
	entries = append(entries, past...)
	entries = append(entries, current...)
	entries = append(entries, retained...)

	var next []Entry
	if NeedsNextPI(end, e.Today, e.window()) && len(retained) == 0 {
		nextStart := calendar.NextWorkingDay(end.AddDays(1), e.Excluded)
		nextNum := maxPI(entries) + 1
		next = Materialize(e.Template, nextStart, e.Excluded, nextNum)
		entries = append(entries, next...)
	}

	return Result{
		Doc:      &Document{Entries: entries, Wrapped: doc.Wrapped},
		Action:   ActionReflow,
		Changed:  true,
		PastKept: len(past),
		Current:  current,
		Next:     next,
	}
}

// runAppend implements the append-only policy: generate one unnumbered PI
// when the schedule is empty or today is strictly past the last scheduled
// date plus the lookahead window; otherwise do nothing.
func (e *Engine) runAppend(doc *Document) (Result, error) {
	last, lastOK := doc.LastDate()

	if lastOK && !e.Today.After(last.AddDays(e.window())) {
		appLog.Info("last PI still within the lookahead window, nothing to do",
			"today", e.Today.String(), "last", last.String(), "window_days", e.window())
		return Result{Doc: doc, Action: ActionNone}, nil
	}

	var anchor calendar.Date
	if lastOK {
		anchor = calendar.NextWorkingDay(last.AddDays(1), e.Excluded)
		if e.StartOverride != nil {
			override := calendar.NextWorkingDay(*e.StartOverride, e.Excluded)
			if override.After(last) {
				anchor = override
			}
		}
	} else {
		// Empty schedule, or one with no determinable end: the explicit
		// start date is the only possible anchor.
		if e.StartOverride == nil {
			return Result{}, ErrMissingStartDate
		}
		anchor = calendar.NextWorkingDay(*e.StartOverride, e.Excluded)
	}

	pi := Materialize(e.Template, anchor, e.Excluded, 0)

	entries := make([]Entry, 0, len(doc.Entries)+len(pi))
	entries = append(entries, doc.Entries...)
	entries = append(entries, pi...)

	action := ActionAppend
	if len(doc.Entries) == 0 {
		action = ActionBootstrap
	}

	return Result{
		Doc:     &Document{Entries: entries, Wrapped: doc.Wrapped},
		Action:  action,
		Changed: true,
		Current: pi,
	}, nil
}

// splitAt partitions entries into past (date < pivot) and future
// (date >= pivot). Entries without a parsable date are conservatively kept
// in the past partition so they are never discarded by a reflow.
func splitAt(entries []Entry, pivot calendar.Date) (past, future []Entry) {
	for _, entry := range entries {
		d, ok := entry.Day()
		if !ok || d.Before(pivot) {
			past = append(past, entry)
			continue
		}
		future = append(future, entry)
	}
	return past, future
}

// currentPINumber determines which PI number a reflow regenerates: the
// highest number seen in the past, falling back to the first future
// entry's number, defaulting to 1.
func currentPINumber(past, future []Entry) int {
	if len(past) > 0 {
		if n := maxPI(past); n > 0 {
			return n
		}
	}
	if len(future) > 0 && future[0].PI > 0 {
		return future[0].PI
	}
	return 1
}
