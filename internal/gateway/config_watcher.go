package gateway

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/inferlab/microbatch/internal/ports"
)

// EndpointUpdate carries the hot-reloadable part of the configuration.
type EndpointUpdate struct {
	ModelURL string
	AuthKey  string
}

// ConfigWatcher monitors the gateway config file via fsnotify and applies
// endpoint changes at runtime, so the served model can be repointed without
// restarting the batcher.
type ConfigWatcher struct {
	path   string
	apply  func(EndpointUpdate)
	logger ports.Logger

	mu       sync.Mutex
	debounce *time.Timer
	done     chan struct{}
	stopOnce sync.Once
}

// NewConfigWatcher creates a watcher for the given config file.
// apply is called with the new endpoint values after each change.
func NewConfigWatcher(path string, apply func(EndpointUpdate), logger ports.Logger) *ConfigWatcher {
	return &ConfigWatcher{
		path:   path,
		apply:  apply,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start begins watching in a background goroutine. No-op if the config file
// path is empty.
func (w *ConfigWatcher) Start() error {
	if w.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory: editors typically replace the file, which drops
	// a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}

	go w.run(watcher)
	return nil
}

// Stop terminates the watch loop.
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *ConfigWatcher) run(watcher *fsnotify.Watcher) {
	defer watcher.Close()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload(100 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", ports.Err(err))
		}
	}
}

// debounceReload coalesces rapid write events into one reload.
func (w *ConfigWatcher) debounceReload(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(delay, w.reload)
}

func (w *ConfigWatcher) reload() {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", ports.Err(err))
		return
	}
	if fc.ModelURL == "" && fc.AuthKey == "" {
		return
	}

	w.apply(EndpointUpdate{
		ModelURL: trimSlash(fc.ModelURL),
		AuthKey:  fc.AuthKey,
	})
	w.logger.Info("config reloaded", ports.String("path", w.path))
}
