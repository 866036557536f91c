// Package schedule owns the persisted PI schedule document and the logic
// that creates and maintains it: materializing a day-template onto working
// days and deciding, per run, whether to bootstrap, reflow, append or do
// nothing.
package schedule

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"pical/internal/calendar"
	"pical/internal/yamlutil"
)

// ErrMalformedDocument is returned when an existing schedule file is
// neither a list of entries nor a mapping wrapping one under "schedule".
var ErrMalformedDocument = errors.New("schedule document must be a list or a map with a schedule key")

// Entry is one materialized schedule day. Date stays a raw string so that
// entries with missing or unparsable dates survive a load/save round trip;
// Day() is the parsed view. PI is optional for backward compatibility with
// schedules written before PI numbering existed (zero means absent).
type Entry struct {
	Date        string         `yaml:"date"`
	PIDay       int            `yaml:"pi_day"`
	Sprint      int            `yaml:"sprint"`
	DayInSprint int            `yaml:"day_in_sprint"`
	PI          int            `yaml:"pi,omitempty"`
	Description string         `yaml:"description"`
	Color       *string        `yaml:"color,omitempty"`
	Meta        map[string]any `yaml:"meta,omitempty"`
	Extra       map[string]any `yaml:",inline"`
}

// Day parses the entry's date field. ok is false for missing or malformed
// dates; callers conservatively treat such entries as past.
func (e Entry) Day() (calendar.Date, bool) {
	d, err := calendar.ParseDate(e.Date)
	if err != nil {
		return calendar.Date{}, false
	}
	return d, true
}

// Document is the full persisted schedule. Wrapped records whether the
// file carried a top-level "schedule" key, so the document is written back
// in the shape it was read in. New documents are flat lists.
type Document struct {
	Entries []Entry
	Wrapped bool
}

type wrappedDocument struct {
	Schedule []Entry `yaml:"schedule"`
}

// Load reads the schedule at path. A missing file is a valid empty
// schedule (first run), not an error.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Document{}, nil
		}
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing schedule file %s: %w", path, err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	switch node.Kind {
	case 0: // empty file
		return &Document{}, nil
	case yaml.SequenceNode:
		var entries []Entry
		if err := node.Decode(&entries); err != nil {
			return nil, fmt.Errorf("parsing schedule file %s: %w", path, err)
		}
		return &Document{Entries: entries}, nil
	case yaml.MappingNode:
		var wrapped wrappedDocument
		if err := node.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("parsing schedule file %s: %w", path, err)
		}
		if !hasMappingKey(node, "schedule") {
			return nil, fmt.Errorf("%s: %w", path, ErrMalformedDocument)
		}
		return &Document{Entries: wrapped.Schedule, Wrapped: true}, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return &Document{}, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrMalformedDocument)
}

// Save writes the document atomically, preserving the shape it was read in.
func (d *Document) Save(path string) error {
	entries := d.Entries
	if entries == nil {
		entries = []Entry{}
	}
	if d.Wrapped {
		return yamlutil.WriteFileAtomic(path, &wrappedDocument{Schedule: entries})
	}
	return yamlutil.WriteFileAtomic(path, entries)
}

// FirstDate returns the earliest parsable entry date.
func (d *Document) FirstDate() (calendar.Date, bool) {
	return firstDate(d.Entries)
}

// LastDate returns the latest parsable entry date.
func (d *Document) LastDate() (calendar.Date, bool) {
	return lastDate(d.Entries)
}

// MaxPI returns the largest PI number present, or zero when no entry
// carries one.
func (d *Document) MaxPI() int {
	return maxPI(d.Entries)
}

func firstDate(entries []Entry) (calendar.Date, bool) {
	var min calendar.Date
	found := false
	for _, e := range entries {
		d, ok := e.Day()
		if !ok {
			continue
		}
		if !found || d.Before(min) {
			min = d
			found = true
		}
	}
	return min, found
}

func lastDate(entries []Entry) (calendar.Date, bool) {
	var max calendar.Date
	found := false
	for _, e := range entries {
		d, ok := e.Day()
		if !ok {
			continue
		}
		if !found || d.After(max) {
			max = d
			found = true
		}
	}
	return max, found
}

func maxPI(entries []Entry) int {
	max := 0
	for _, e := range entries {
		if e.PI > max {
			max = e.PI
		}
	}
	return max
}

func hasMappingKey(n *yaml.Node, key string) bool {
	for i := 0; i < len(n.Content)-1; i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}
