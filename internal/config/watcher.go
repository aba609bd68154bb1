package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces editor-style save bursts (truncate+write,
// or write+rename) into one reload.
const reloadDebounce = 100 * time.Millisecond

// Watcher reloads the configuration when its file changes on disk.
type Watcher struct {
	mu sync.Mutex

	watcher *fsnotify.Watcher
	path    string
	onload  func(*Config)
	onerror func(error)

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Watch starts watching the config file at path. onLoad receives each
// successfully reloaded config; onError receives reload failures.
// Watching the parent directory keeps rename-style saves visible.
func Watch(path string, onLoad func(*Config), onError func(error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		path:    abs,
		onload:  onLoad,
		onerror: onError,
		closeCh: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	w.closed = true
	close(w.closeCh)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// loop converts file events on the config path into debounced reloads.
func (w *Watcher) loop() {
	defer w.wg.Done()
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onerror != nil {
				w.onerror(err)
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		if w.onerror != nil {
			w.onerror(err)
		}
		return
	}
	if w.onload != nil {
		w.onload(cfg)
	}
}
