// Package watch observes the document roots for new files and polls the
// canonical record store for new uploads. The watcher is observational; the
// poller drives processing, so a missed filesystem event never loses a
// document.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher follows filesystem events under the configured roots, including
// subdirectories created after startup.
type Watcher struct {
	roots     []string
	supported func(ext string) bool
	onFile    func(path string)
	logger    *slog.Logger
}

// NewWatcher creates a watcher over roots. supported filters events by file
// extension; onFile, when non-nil, is invoked for every matching created or
// modified file.
func NewWatcher(roots []string, supported func(ext string) bool, onFile func(path string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{roots: roots, supported: supported, onFile: onFile, logger: logger}
}

// Run watches until ctx is cancelled. Event handling errors are logged and
// contained; only watcher setup errors are fatal.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	for _, root := range w.roots {
		if err := addRecursive(fsw, root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}
	w.logger.Info("watching document roots", "roots", w.roots)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		// New directories join the watch so files dropped into them are seen.
		if event.Has(fsnotify.Create) {
			if err := addRecursive(fsw, event.Name); err != nil {
				w.logger.Warn("watch new directory", "path", event.Name, "error", err)
			}
		}
		return
	}

	if !w.supported(filepath.Ext(event.Name)) {
		return
	}

	w.logger.Info("file event", "op", event.Op.String(), "file", filepath.Base(event.Name))
	if w.onFile != nil {
		w.onFile(event.Name)
	}
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
