// Package yamlutil holds the shared atomic YAML write used by every
// document writer (holidays, schedule).
package yamlutil

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WriteFileAtomic marshals v to YAML and writes it to path via a temp file
// plus rename, so a crashed run never leaves a truncated document behind.
// The parent directory is created when missing; the final file is 0600.
func WriteFileAtomic(path string, v any) error {
	if path == "" {
		return errors.New("output path is empty")
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".pical-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
