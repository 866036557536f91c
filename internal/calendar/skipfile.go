package calendar

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"

	appLog "pical/internal/log"
)

// LoadSkipDates reads a plain-text list of manual skip dates, one ISO date
// per line. Blank lines and lines starting with '#' are ignored. Lines that
// do not parse as dates are skipped with a warning; they are never fatal.
// A missing file simply yields an empty set.
func LoadSkipDates(path string) (DateSet, error) {
	dates := NewDateSet()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dates, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d, perr := ParseDate(line)
		if perr != nil {
			appLog.Warn("skip-dates line ignored, expected ISO YYYY-MM-DD",
				"file", path, "line", lineNo, "value", line)
			continue
		}
		dates.Add(d)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return dates, nil
}
