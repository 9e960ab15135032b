package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/logger"
	"go.uber.org/zap"
)

// ChangeCallback is called once per burst of input file changes
type ChangeCallback func(changed []string)

// Watcher watches a source directory and reports input file changes after
// a quiet period
type Watcher struct {
	dir            *Dir
	watcher        *fsnotify.Watcher
	debouncePeriod time.Duration
	logger         *zap.SugaredLogger

	mu            sync.Mutex
	callbacks     []ChangeCallback
	pending       map[string]bool
	debounceTimer *time.Timer
}

// NewWatcher watches the root, snapshots and diffs directories that exist
func NewWatcher(dir *Dir, debounce time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	watched := 0
	for _, path := range []string{dir.Root, filepath.Join(dir.Root, SnapshotsDir), filepath.Join(dir.Root, DiffsDir)} {
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			continue
		}
		if err := fw.Add(path); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", path)
		}
		watched++
	}
	if watched == 0 {
		fw.Close()
		return nil, errors.NewNotFoundError("source directory %s does not exist", dir.Root)
	}

	return &Watcher{
		dir:            dir,
		watcher:        fw,
		debouncePeriod: debounce,
		logger:         logger.ChildLogger(log.Named("source.watcher"), "root", dir.Root),
		pending:        make(map[string]bool),
	}, nil
}

// OnChange registers a callback
func (w *Watcher) OnChange(cb ChangeCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Run delivers change notifications until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.debounceTimer != nil {
				w.debounceTimer.Stop()
			}
			w.mu.Unlock()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !isInputFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debugw("Source file changed",
				logger.FieldFile, event.Name,
				"op", event.Op.String())
			w.schedule(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("Source watcher error", logger.FieldError, err)
		}
	}
}

// schedule collects a changed path and restarts the quiet period
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]bool)
	callbacks := make([]ChangeCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)

	w.logger.Infow("Source changed",
		logger.FieldCount, len(changed))
	for _, cb := range callbacks {
		cb(changed)
	}
}

// isInputFile skips editor temp files and anything no decoder reads
func isInputFile(path string) bool {
	base := filepath.Base(path)
	if base == "" || base[0] == '.' {
		return false
	}
	_, err := FormatFromPath(path)
	return err == nil
}
