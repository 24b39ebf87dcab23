package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadHandler receives the result of reloading a changed config file.
// On load or validation failure cfg may be nil and err carries the
// cause; the previous configuration should stay in effect.
type ReloadHandler func(cfg *Config, err error)

// Watcher reloads the configuration file when it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	onReload ReloadHandler

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits for rapid successive
// writes to settle before reloading.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watch starts watching the config file at path and calls onReload after
// each settled change. The parent directory is watched rather than the
// file itself so editors that replace the file by rename are still seen.
func Watch(path string, onReload ReloadHandler, opts ...WatchOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     absPath,
		debounce: 100 * time.Millisecond,
		onReload: onReload,
		fsw:      fsw,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// loop coalesces change events and reloads once they settle.
func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var settled <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			settled = timer.C

		case <-settled:
			settled = nil
			cfg, err := Load(w.path)
			if err == nil {
				if verr := cfg.Validate(); verr != nil {
					cfg, err = nil, verr
				}
			}
			w.onReload(cfg, err)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.onReload(nil, err)
		}
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
