// Package template loads the PI day-template: the ordered description of a
// Planning Interval (which sprint and day-in-sprint each position holds),
// independent of any calendar date.
package template

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMalformed tags every template validation failure.
var ErrMalformed = errors.New("malformed PI template")

// NotFoundError is returned when no day table can be located in the
// template document. It carries the document's top-level keys to aid
// debugging a misshapen file.
type NotFoundError struct {
	TopLevelKeys []string
}

func (e *NotFoundError) Error() string {
	msg := "no PI day table found; expected a list of records with day_index, sprint and day_in_sprint"
	if len(e.TopLevelKeys) > 0 {
		msg += fmt.Sprintf(" (top-level keys: %s)", strings.Join(e.TopLevelKeys, ", "))
	}
	return msg
}

// Day is one row of the PI template. Index is the 1-based position within
// the PI and drives ordering; the four descriptive fields feed the derived
// schedule description. Unknown keys are preserved in Extra.
type Day struct {
	Index       int            `yaml:"day_index"`
	Sprint      int            `yaml:"sprint"`
	DayInSprint int            `yaml:"day_in_sprint"`
	Phase       string         `yaml:"phase,omitempty"`
	Activities  string         `yaml:"activities,omitempty"`
	Notes       string         `yaml:"notes,omitempty"`
	Events      string         `yaml:"events,omitempty"`
	Color       *string        `yaml:"color,omitempty"`
	Extra       map[string]any `yaml:",inline"`
}

// Description concatenates the non-empty descriptive fields in fixed order.
func (d Day) Description() string {
	parts := make([]string, 0, 4)
	for _, v := range []string{d.Phase, d.Activities, d.Notes, d.Events} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | ")
}

// Meta returns the template fields carried into a schedule entry's meta
// mapping: the descriptive fields plus any extra keys, excluding the
// positional fields and color.
func (d Day) Meta() map[string]any {
	m := make(map[string]any, len(d.Extra)+4)
	for k, v := range d.Extra {
		m[k] = v
	}
	if d.Phase != "" {
		m["phase"] = d.Phase
	}
	if d.Activities != "" {
		m["activities"] = d.Activities
	}
	if d.Notes != "" {
		m["notes"] = d.Notes
	}
	if d.Events != "" {
		m["events"] = d.Events
	}
	return m
}

// SortedByIndex returns a copy of days stable-sorted by Index ascending.
func SortedByIndex(days []Day) []Day {
	out := make([]Day, len(days))
	copy(out, days)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Load reads and validates the template document at path.
//
// The day table is looked up at the known locations first (pi.days, a
// top-level days key, or the document itself being the list) and only
// then by a recursive fallback search, so a well-formed file never pays
// for the generic scan.
func Load(path string) ([]Day, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing template file %s: %w", path, err)
	}

	doc := documentNode(&root)
	table := locateDayTable(doc)
	if table == nil {
		return nil, &NotFoundError{TopLevelKeys: topLevelKeys(doc)}
	}

	var days []Day
	if err := table.Decode(&days); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := Validate(days); err != nil {
		return nil, err
	}
	return days, nil
}

// Validate enforces the template invariants the materializer depends on:
// a non-empty table with positive, unique day indices. Duplicate indices
// would silently map two logical days onto overlapping dates, so they are
// rejected instead of stable-sorted through.
func Validate(days []Day) error {
	if len(days) == 0 {
		return fmt.Errorf("%w: day table is empty", ErrMalformed)
	}
	seen := make(map[int]struct{}, len(days))
	for _, d := range days {
		if d.Index < 1 {
			return fmt.Errorf("%w: day_index %d is not a positive integer", ErrMalformed, d.Index)
		}
		if _, dup := seen[d.Index]; dup {
			return fmt.Errorf("%w: duplicate day_index %d", ErrMalformed, d.Index)
		}
		seen[d.Index] = struct{}{}
	}
	return nil
}

func documentNode(root *yaml.Node) *yaml.Node {
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		return root.Content[0]
	}
	return root
}

func locateDayTable(doc *yaml.Node) *yaml.Node {
	if doc == nil {
		return nil
	}
	if pi := mappingValue(doc, "pi"); pi != nil {
		if t := mappingValue(pi, "days"); isDayTable(t) {
			return t
		}
	}
	if t := mappingValue(doc, "days"); isDayTable(t) {
		return t
	}
	if isDayTable(doc) {
		return doc
	}
	return findDayTable(doc)
}

// findDayTable is the fallback: a depth-first search for any sequence of
// mappings that all carry the three required keys. Direct children of a
// mapping are tried before descending, matching the cheapest plausible
// location first.
func findDayTable(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if isDayTable(n) {
		return n
	}
	switch n.Kind {
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			if isDayTable(n.Content[i]) {
				return n.Content[i]
			}
		}
		for i := 1; i < len(n.Content); i += 2 {
			if found := findDayTable(n.Content[i]); found != nil {
				return found
			}
		}
	case yaml.SequenceNode:
		for _, c := range n.Content {
			if found := findDayTable(c); found != nil {
				return found
			}
		}
	}
	return nil
}

func isDayTable(n *yaml.Node) bool {
	if n == nil || n.Kind != yaml.SequenceNode {
		return false
	}
	for _, c := range n.Content {
		if c.Kind != yaml.MappingNode {
			return false
		}
		if !hasKeys(c, "day_index", "sprint", "day_in_sprint") {
			return false
		}
	}
	return true
}

func hasKeys(mapping *yaml.Node, required ...string) bool {
	present := make(map[string]struct{}, len(mapping.Content)/2)
	for i := 0; i < len(mapping.Content)-1; i += 2 {
		present[mapping.Content[i].Value] = struct{}{}
	}
	for _, k := range required {
		if _, ok := present[k]; !ok {
			return false
		}
	}
	return true
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(n.Content)-1; i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func topLevelKeys(doc *yaml.Node) []string {
	if doc == nil || doc.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(doc.Content)/2)
	for i := 0; i < len(doc.Content)-1; i += 2 {
		keys = append(keys, doc.Content[i].Value)
	}
	sort.Strings(keys)
	return keys
}
