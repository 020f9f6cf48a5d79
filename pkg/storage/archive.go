package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive keeps a copy of every uploaded roster file under a base directory.
type Archive struct {
	baseDir string
	now     func() time.Time
}

// NewArchive ensures the base directory exists and returns a handle.
func NewArchive(baseDir string) (*Archive, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("archive directory required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &Archive{baseDir: baseDir, now: time.Now}, nil
}

// Save writes data under a timestamped name derived from the original file name
// and returns the stored name relative to the base directory.
func (a *Archive) Save(original string, data []byte) (string, error) {
	name := a.now().UTC().Format("20060102T150405.000000000") + "_" + sanitize(original)
	if err := os.WriteFile(filepath.Join(a.baseDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write archive file: %w", err)
	}
	return name, nil
}

// PruneOlderThan removes archived files older than ttl and returns their names.
func (a *Archive) PruneOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := a.now().Add(-ttl)
	entries, err := os.ReadDir(a.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read archive directory: %w", err)
	}

	deleted := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return deleted, fmt.Errorf("stat archive file: %w", err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(a.baseDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return deleted, fmt.Errorf("delete archive file: %w", err)
		}
		deleted = append(deleted, entry.Name())
	}
	return deleted, nil
}

// Path exposes the absolute location of a stored file.
func (a *Archive) Path(name string) string {
	return filepath.Join(a.baseDir, filepath.Base(name))
}

func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
