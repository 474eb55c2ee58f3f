package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FailLog is the persisted record of file names that could not be extracted
// or located. It is deduplicated, alphabetically sorted, and append-only
// across restarts: entries are never removed automatically.
type FailLog struct {
	mu    sync.Mutex
	path  string
	names map[string]struct{}
}

// OpenFailLog loads the log at path. A missing file is an empty log; parent
// directories are created on first write.
func OpenFailLog(path string) (*FailLog, error) {
	f := &FailLog{path: path, names: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read failed-file log: %w", err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse failed-file log: %w", err)
	}
	for _, name := range names {
		f.names[name] = struct{}{}
	}
	return f, nil
}

// Add records a failed file name and persists the log. Adding a name that is
// already present is a no-op.
func (f *FailLog) Add(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.names[name]; ok {
		return nil
	}
	f.names[name] = struct{}{}
	return f.persistLocked()
}

// Names returns the logged file names in sorted order.
func (f *FailLog) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedLocked()
}

func (f *FailLog) persistLocked() error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(f.sortedLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode failed-file log: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write failed-file log: %w", err)
	}
	return nil
}

func (f *FailLog) sortedLocked() []string {
	names := make([]string, 0, len(f.names))
	for name := range f.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
