// Package holiday models the persisted holiday calendar: a YAML document
// with a list of dated, named entries under a top-level "holidays" key.
package holiday

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"pical/internal/calendar"
	"pical/internal/yamlutil"
)

// Holiday is a single excluded date with an optional display name.
type Holiday struct {
	Date calendar.Date `yaml:"date"`
	Name string        `yaml:"name,omitempty"`
}

// Set is the holiday document. Entries are kept sorted by date on save;
// load order is whatever the file says.
type Set struct {
	Holidays []Holiday `yaml:"holidays"`
}

// Load reads the holiday document at path. A file without the "holidays"
// key decodes to an empty set; a missing file is the caller's error to
// classify (the schedule updater treats it as fatal missing input).
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing holiday file %s: %w", path, err)
	}
	return &set, nil
}

// Save writes the set to path atomically, sorted by date.
func Save(path string, set *Set) error {
	sorted := make([]Holiday, len(set.Holidays))
	copy(sorted, set.Holidays)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return yamlutil.WriteFileAtomic(path, &Set{Holidays: sorted})
}

// Dates returns the set of holiday dates, dropping names.
func (s *Set) Dates() calendar.DateSet {
	out := calendar.NewDateSet()
	for _, h := range s.Holidays {
		out.Add(h.Date)
	}
	return out
}
