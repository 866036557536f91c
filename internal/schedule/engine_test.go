package schedule

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pical/internal/calendar"
	"pical/internal/template"
)

func dptr(s string) *calendar.Date {
	d := calendar.MustParseDate(s)
	return &d
}

func shortTemplate(n int) []template.Day {
	days := make([]template.Day, 0, n)
	for i := 1; i <= n; i++ {
		days = append(days, template.Day{Index: i, Sprint: 1, DayInSprint: i})
	}
	return days
}

func newEngine(days []template.Day, today string) *Engine {
	return &Engine{
		Template:      days,
		Excluded:      calendar.NewDateSet(),
		Today:         calendar.MustParseDate(today),
		LookaheadDays: 5,
		Policy:        PolicyReflow,
	}
}

func TestBootstrapRequiresStartDate(t *testing.T) {
	for _, policy := range []Policy{PolicyReflow, PolicyAppend} {
		t.Run(string(policy), func(t *testing.T) {
			e := newEngine(twoSprintTemplate(), "2025-11-10")
			e.Policy = policy

			_, err := e.Run(&Document{})
			assert.ErrorIs(t, err, ErrMissingStartDate)
		})
	}
}

func TestBootstrap(t *testing.T) {
	e := newEngine(twoSprintTemplate(), "2025-10-01")
	e.StartOverride = dptr("2025-11-01") // a Saturday; anchor rolls to Monday

	res, err := e.Run(&Document{})
	require.NoError(t, err)

	assert.Equal(t, ActionBootstrap, res.Action)
	assert.True(t, res.Changed)
	require.Len(t, res.Doc.Entries, 10)
	assert.Equal(t, "2025-11-03", res.Doc.Entries[0].Date)
	assert.Equal(t, 1, res.Doc.Entries[0].PI)
	assert.Empty(t, res.Next)

	t.Run("is deterministic", func(t *testing.T) {
		again, err := e.Run(&Document{})
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(res.Doc.Entries, again.Doc.Entries))
	})
}

func TestBootstrapNearEndPreGeneratesSecondPI(t *testing.T) {
	e := newEngine(twoSprintTemplate(), "2025-11-13")
	e.StartOverride = dptr("2025-11-03")

	res, err := e.Run(&Document{})
	require.NoError(t, err)

	// PI 1 ends 2025-11-14, one day away: PI 2 must exist already.
	require.Len(t, res.Doc.Entries, 20)
	require.Len(t, res.Next, 10)
	assert.Equal(t, "2025-11-17", res.Next[0].Date)
	assert.Equal(t, 2, res.Next[0].PI)
}

func TestAppendBeyondEnd(t *testing.T) {
	existing := Materialize(twoSprintTemplate(), calendar.MustParseDate("2025-11-03"), calendar.NewDateSet(), 1)
	doc := &Document{Entries: existing}

	e := newEngine(twoSprintTemplate(), "2025-11-10")
	e.StartOverride = dptr("2025-12-01")

	res, err := e.Run(doc)
	require.NoError(t, err)

	assert.Equal(t, ActionAppend, res.Action)
	require.Len(t, res.Doc.Entries, 20)

	// Existing entries are untouched.
	assert.Empty(t, cmp.Diff(existing, res.Doc.Entries[:10]))

	appended := res.Doc.Entries[10:]
	assert.Equal(t, "2025-12-01", appended[0].Date)
	assert.Equal(t, 2, appended[0].PI)

	// An explicit append is forward motion by itself; no pre-generation.
	assert.Empty(t, res.Next)
}

func TestFutureScheduleIsNoOp(t *testing.T) {
	future := Materialize(twoSprintTemplate(), calendar.MustParseDate("2025-12-01"), calendar.NewDateSet(), 1)
	doc := &Document{Entries: future}

	e := newEngine(twoSprintTemplate(), "2025-11-10")

	res, err := e.Run(doc)
	require.NoError(t, err)

	assert.Equal(t, ActionNone, res.Action)
	assert.False(t, res.Changed)
	assert.Same(t, doc, res.Doc)
}

func TestReflowPreservesPast(t *testing.T) {
	original := Materialize(twoSprintTemplate(), calendar.MustParseDate("2025-11-03"), calendar.NewDateSet(), 1)
	doc := &Document{Entries: original}

	e := newEngine(twoSprintTemplate(), "2025-11-10")

	res, err := e.Run(doc)
	require.NoError(t, err)

	assert.Equal(t, ActionReflow, res.Action)
	assert.Equal(t, 5, res.PastKept)

	// The five elapsed days survive unchanged.
	assert.Empty(t, cmp.Diff(original[:5], res.Doc.Entries[:5]))

	// The current PI is regenerated in full from today.
	require.Len(t, res.Doc.Entries, 15)
	assert.Equal(t, "2025-11-10", res.Doc.Entries[5].Date)
	assert.Equal(t, "2025-11-21", res.Doc.Entries[14].Date)
	assert.Equal(t, 1, res.Doc.Entries[5].PI)
}

func TestReflowRetainsAlreadyGeneratedNextPI(t *testing.T) {
	none := calendar.NewDateSet()
	pi1 := Materialize(twoSprintTemplate(), calendar.MustParseDate("2025-11-03"), none, 1)
	pi2 := Materialize(twoSprintTemplate(), calendar.MustParseDate("2025-11-17"), none, 2)
	doc := &Document{Entries: append(append([]Entry{}, pi1...), pi2...)}

	e := newEngine(twoSprintTemplate(), "2025-11-12")

	res, err := e.Run(doc)
	require.NoError(t, err)

	// Regenerated PI 1 runs 2025-11-12 .. 2025-11-25; PI 2 entries after
	// that end survive, the ones it swallowed do not.
	assert.Equal(t, ActionReflow, res.Action)
	require.Len(t, res.Doc.Entries, 20)

	tail := res.Doc.Entries[len(res.Doc.Entries)-3:]
	for _, e := range tail {
		assert.Equal(t, 2, e.PI)
	}
	assert.Equal(t, "2025-11-26", tail[0].Date)
	assert.Equal(t, "2025-11-28", tail[2].Date)

	// A retained future PI suppresses pre-generation.
	assert.Empty(t, res.Next)
}

func TestReflowLookaheadPreGeneratesNextPI(t *testing.T) {
	// Two-day PI whose last scheduled date lies four days before today:
	// the regenerated PI ends within the window, so the next PI is
	// pre-generated under its own number.
	past := Materialize(shortTemplate(2), calendar.MustParseDate("2025-11-03"), calendar.NewDateSet(), 1)
	doc := &Document{Entries: past} // ends 2025-11-04

	e := newEngine(shortTemplate(2), "2025-11-10")

	res, err := e.Run(doc)
	require.NoError(t, err)

	assert.Equal(t, ActionReflow, res.Action)
	require.Len(t, res.Next, 2)
	assert.Equal(t, 2, res.Next[0].PI)
	assert.Equal(t, "2025-11-12", res.Next[0].Date)
	require.Len(t, res.Doc.Entries, 6)
}

func TestReflowKeepsUnparsableEntriesInPast(t *testing.T) {
	doc := &Document{Entries: []Entry{
		{Date: "soon(tm)", PIDay: 1, Sprint: 1, DayInSprint: 1, PI: 1},
		{Date: "2025-11-03", PIDay: 2, Sprint: 1, DayInSprint: 2, PI: 1},
	}}

	e := newEngine(shortTemplate(2), "2025-11-10")

	res, err := e.Run(doc)
	require.NoError(t, err)

	assert.Equal(t, 2, res.PastKept)
	assert.Equal(t, "soon(tm)", res.Doc.Entries[0].Date)
	assert.Equal(t, "2025-11-03", res.Doc.Entries[1].Date)
}

func TestReflowOverrideNotBeyondEndFallsThrough(t *testing.T) {
	entries := Materialize(twoSprintTemplate(), calendar.MustParseDate("2025-11-03"), calendar.NewDateSet(), 1)
	doc := &Document{Entries: entries}

	e := newEngine(twoSprintTemplate(), "2025-11-10")
	e.StartOverride = dptr("2025-11-05") // inside the scheduled range

	res, err := e.Run(doc)
	require.NoError(t, err)
	assert.Equal(t, ActionReflow, res.Action)
}

func TestReflowPreservesDocumentShape(t *testing.T) {
	entries := Materialize(twoSprintTemplate(), calendar.MustParseDate("2025-11-03"), calendar.NewDateSet(), 1)
	doc := &Document{Entries: entries, Wrapped: true}

	e := newEngine(twoSprintTemplate(), "2025-11-10")

	res, err := e.Run(doc)
	require.NoError(t, err)
	assert.True(t, res.Doc.Wrapped)
}

func TestAppendPolicy(t *testing.T) {
	t.Run("bootstrap on empty schedule is unnumbered", func(t *testing.T) {
		e := newEngine(twoSprintTemplate(), "2025-10-01")
		e.Policy = PolicyAppend
		e.StartOverride = dptr("2025-11-03")

		res, err := e.Run(&Document{})
		require.NoError(t, err)

		assert.Equal(t, ActionBootstrap, res.Action)
		require.Len(t, res.Doc.Entries, 10)
		assert.Zero(t, res.Doc.Entries[0].PI)
		assert.Equal(t, "2025-11-03", res.Doc.Entries[0].Date)
	})

	t.Run("no-op while today is within the window of the last date", func(t *testing.T) {
		entries := Materialize(twoSprintTemplate(), calendar.MustParseDate("2025-11-03"), calendar.NewDateSet(), 0)
		doc := &Document{Entries: entries} // ends 2025-11-14

		e := newEngine(twoSprintTemplate(), "2025-11-18") // last + 4
		e.Policy = PolicyAppend

		res, err := e.Run(doc)
		require.NoError(t, err)
		assert.Equal(t, ActionNone, res.Action)
		assert.False(t, res.Changed)
	})

	t.Run("appends one PI once today is past last date plus window", func(t *testing.T) {
		entries := Materialize(twoSprintTemplate(), calendar.MustParseDate("2025-11-03"), calendar.NewDateSet(), 0)
		doc := &Document{Entries: entries} // ends 2025-11-14

		e := newEngine(twoSprintTemplate(), "2025-11-20") // last + 6
		e.Policy = PolicyAppend

		res, err := e.Run(doc)
		require.NoError(t, err)

		assert.Equal(t, ActionAppend, res.Action)
		require.Len(t, res.Doc.Entries, 20)
		assert.Empty(t, cmp.Diff(entries, res.Doc.Entries[:10]))

		appended := res.Doc.Entries[10:]
		assert.Equal(t, "2025-11-17", appended[0].Date) // next working day after the old end
		assert.Zero(t, appended[0].PI)
	})

	t.Run("later override wins over the default anchor", func(t *testing.T) {
		entries := Materialize(twoSprintTemplate(), calendar.MustParseDate("2025-11-03"), calendar.NewDateSet(), 0)
		doc := &Document{Entries: entries}

		e := newEngine(twoSprintTemplate(), "2025-11-20")
		e.Policy = PolicyAppend
		e.StartOverride = dptr("2025-12-01")

		res, err := e.Run(doc)
		require.NoError(t, err)
		assert.Equal(t, "2025-12-01", res.Doc.Entries[10].Date)
	})
}

func TestNeedsNextPI(t *testing.T) {
	tests := []struct {
		name  string
		end   string
		today string
		want  bool
	}{
		{"far from the end", "2025-11-28", "2025-11-10", false},
		{"exactly at the window", "2025-11-15", "2025-11-10", true},
		{"inside the window", "2025-11-12", "2025-11-10", true},
		{"today is the end", "2025-11-10", "2025-11-10", true},
		{"end already past", "2025-11-06", "2025-11-10", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NeedsNextPI(calendar.MustParseDate(tt.end), calendar.MustParseDate(tt.today), 5)
			assert.Equal(t, tt.want, got)
		})
	}
}
