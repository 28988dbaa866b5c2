package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/voxmind/voxmind/domain/config"
	"github.com/voxmind/voxmind/infrastructure/logging"
)

// debounceWindow coalesces the write bursts editors and atomic-rename
// writers produce into a single reload.
const debounceWindow = 100 * time.Millisecond

// ReloadFunc receives the freshly loaded configuration on each change.
type ReloadFunc func(cfg *config.AgentConfig)

// Watcher reloads a configuration file when it changes on disk. Reloads
// that fail to parse or validate are logged and skipped; the previous
// configuration stays in effect.
type Watcher struct {
	path    string
	loader  *Loader
	onLoad  ReloadFunc
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	current *config.AgentConfig
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher loads the file once, then watches it for changes. The reload
// callback is invoked for the initial load and every successful reload.
func NewWatcher(path string, loader *Loader, onLoad ReloadFunc) (*Watcher, error) {
	if loader == nil {
		loader = NewLoader()
	}

	cfg, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory, not the file: atomic renames replace the inode
	// and a file watch would silently die.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    path,
		loader:  loader,
		onLoad:  onLoad,
		watcher: fw,
		current: cfg,
		done:    make(chan struct{}),
	}

	if onLoad != nil {
		onLoad(cfg)
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *config.AgentConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Close stops watching. It does not invalidate the current configuration.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn().
				Add(logging.Component("config")).
				Add(logging.ErrorField(err)).
				Msg("config watch error")
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceWindow, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := w.loader.LoadFile(w.path)
	if err != nil {
		logging.Warn().
			Add(logging.Component("config")).
			Add(logging.Str("path", w.path)).
			Add(logging.ErrorField(err)).
			Msg("config reload failed, keeping previous configuration")
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	logging.Info().
		Add(logging.Component("config")).
		Add(logging.Str("path", w.path)).
		Msg("configuration reloaded")

	if w.onLoad != nil {
		w.onLoad(cfg)
	}
}
