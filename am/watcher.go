package am

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/teranos/kgmap/errors"
	"github.com/teranos/kgmap/logger"
)

// ReloadCallback receives each configuration that loaded and validated
type ReloadCallback func(*Config) error

// ConfigWatcher reloads am.toml when it changes on disk.
// The parent directory is watched so editors that swap the file are seen.
type ConfigWatcher struct {
	configPath     string
	fs             *fsnotify.Watcher
	debouncePeriod time.Duration

	mu        sync.Mutex
	callbacks []ReloadCallback
	timer     *time.Timer

	ownWrite atomic.Bool // Set by SetValue so `am set` does not echo back
	stopOnce sync.Once
	done     chan struct{}
}

// active is the watcher SetValue notifies, if serve registered one
var active atomic.Pointer[ConfigWatcher]

// SetGlobalWatcher registers w for own-write suppression. nil clears it.
func SetGlobalWatcher(w *ConfigWatcher) {
	active.Store(w)
}

// NewConfigWatcher watches configPath. Call Start to begin delivering reloads.
func NewConfigWatcher(configPath string) (*ConfigWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := fs.Add(filepath.Dir(configPath)); err != nil {
		fs.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", configPath)
	}

	return &ConfigWatcher{
		configPath:     filepath.Clean(configPath),
		fs:             fs,
		debouncePeriod: 500 * time.Millisecond,
		done:           make(chan struct{}),
	}, nil
}

// OnReload adds a callback. Callbacks run in registration order.
func (cw *ConfigWatcher) OnReload(cb ReloadCallback) {
	cw.mu.Lock()
	cw.callbacks = append(cw.callbacks, cb)
	cw.mu.Unlock()
}

// MarkOwnWrite makes the watcher skip the next change it sees
func (cw *ConfigWatcher) MarkOwnWrite() {
	cw.ownWrite.Store(true)
}

func (cw *ConfigWatcher) checkOwnWrite() bool {
	return cw.ownWrite.Swap(false)
}

// Start runs the event loop in a goroutine until Stop
func (cw *ConfigWatcher) Start() {
	go cw.loop()
}

func (cw *ConfigWatcher) loop() {
	for {
		select {
		case <-cw.done:
			return
		case ev, ok := <-cw.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != cw.configPath || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if cw.checkOwnWrite() {
				logger.Debugw("Skipping config change written by kgmap", logger.FieldFile, ev.Name)
				continue
			}
			logger.Infow("Config file changed", logger.FieldFile, ev.Name, "op", ev.Op.String())
			cw.debounce()
		case err, ok := <-cw.fs.Errors:
			if !ok {
				return
			}
			logger.Warnw("Config watcher error", logger.FieldError, err)
		}
	}
}

// debounce restarts the reload timer so a burst of writes reloads once
func (cw *ConfigWatcher) debounce() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.timer = time.AfterFunc(cw.debouncePeriod, func() {
		if err := cw.reload(); err != nil {
			logger.Errorw("Config reload failed, keeping previous settings", logger.FieldError, err)
		}
	})
}

// reload re-reads the cascade and hands a validated Config to each callback.
// A failing callback is logged and does not stop the others.
func (cw *ConfigWatcher) reload() error {
	Reset()
	cfg, err := Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "reloaded config is invalid")
	}

	cw.mu.Lock()
	callbacks := append([]ReloadCallback(nil), cw.callbacks...)
	cw.mu.Unlock()

	logger.Infow("Config reloaded", logger.FieldPath, cw.configPath, logger.FieldCount, len(callbacks))
	for _, cb := range callbacks {
		if err := cb(cfg); err != nil {
			logger.Warnw("Config reload callback failed", logger.FieldError, err)
		}
	}
	return nil
}

// Stop ends the event loop and releases the fsnotify handle. Safe to call twice.
func (cw *ConfigWatcher) Stop() error {
	var err error
	cw.stopOnce.Do(func() {
		cw.mu.Lock()
		if cw.timer != nil {
			cw.timer.Stop()
		}
		cw.mu.Unlock()
		close(cw.done)
		err = cw.fs.Close()
		active.CompareAndSwap(cw, nil)
	})
	return err
}
