package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultCoalesceWindow = 250 * time.Millisecond

// ReloadedMsg is delivered after the config file changed on disk and the
// writes went quiet for the coalesce window.
type ReloadedMsg struct {
	Config *Config
	Err    error
}

// Watcher reloads the config file when it changes. Editors tend to write
// a file several times in a row (truncate, write, rename), so events are
// batched into a single reload.
type Watcher struct {
	path   string
	fsw    *fsnotify.Watcher
	logger *slog.Logger

	mu             sync.Mutex
	timer          *time.Timer
	coalesceWindow time.Duration
	closed         bool

	out  chan ReloadedMsg
	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher watches the directory containing path. The directory must
// exist; the file itself may be created later.
func NewWatcher(path string, window time.Duration, logger *slog.Logger) (*Watcher, error) {
	if window <= 0 {
		window = defaultCoalesceWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:           filepath.Clean(path),
		fsw:            fsw,
		logger:         logger,
		coalesceWindow: window,
		out:            make(chan ReloadedMsg, 1),
		done:           make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Changes returns the channel reloads are delivered on.
func (w *Watcher) Changes() <-chan ReloadedMsg {
	return w.out
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher", "err", err)
		}
	}
}

// schedule resets the coalesce timer; the reload runs once events stop.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.coalesceWindow, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	w.timer = nil
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	cfg, err := LoadFrom(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", "path", w.path, "err", err)
	}

	// Replace an unread reload with the newer one.
	msg := ReloadedMsg{Config: cfg, Err: err}
	select {
	case w.out <- msg:
	default:
		select {
		case <-w.out:
		default:
		}
		select {
		case w.out <- msg:
		default:
		}
	}
}

// Close stops watching and cancels any pending reload.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
