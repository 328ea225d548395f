// Package watcher reloads datasets when their file changes on disk.
//
// A [Watcher] observes the directory that holds one file, so editors that
// save by rename and tools that replace the file atomically are still seen.
// Bursts of events collapse into one change notification after the debounce
// delay.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/abid8042/chessnetviz/pkg/viewport"
)

// DefaultDebounce is the quiet period after the last event before a change
// is reported.
const DefaultDebounce = 200 * time.Millisecond

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Zero reports every event immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithClock replaces the clock driving the debounce timer.
func WithClock(c viewport.Clock) Option {
	return func(w *Watcher) { w.clock = c }
}

// WithOnChange sets a callback run after each debounced change.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets a callback run for removal and fsnotify errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// Watcher monitors a single file.
type Watcher struct {
	path     string
	debounce time.Duration
	clock    viewport.Clock
	onChange func()
	onError  func(error)

	mu        sync.Mutex
	fsw       *fsnotify.Watcher
	debouncer *viewport.Debouncer
	cancel    context.CancelFunc
	done      chan struct{}
	started   bool
	changed   chan struct{}
}

// New creates a watcher for path. The file does not have to exist yet.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		onChange: func() {},
		onError:  func(error) {},
		changed:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = viewport.NewDebouncer(w.clock)
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Changed returns a channel that receives after each debounced change. Sends
// never block; a pending signal absorbs later ones until it is read.
func (w *Watcher) Changed() <-chan struct{} { return w.changed }

// Start begins watching in the background until ctx is done or Stop is
// called. Call Stop to release the underlying watcher.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = true

	go w.loop(ctx, fsw, w.done)
	return nil
}

// Stop ends watching and drops a pending notification. It is safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.cancel()
	fsw, done := w.fsw, w.done
	w.fsw = nil
	w.mu.Unlock()

	fsw.Close()
	<-done
	w.debouncer.Cancel()
}

// Started reports whether the watcher is running.
func (w *Watcher) Started() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	target := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove):
				// Atomic replace shows up as Remove then Create on some
				// platforms; only report if the file is really gone.
				if _, err := os.Stat(w.path); os.IsNotExist(err) {
					w.onError(ErrFileRemoved)
				}
			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create), ev.Has(fsnotify.Rename):
				w.debouncer.Schedule(w.debounce, w.notify)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) notify() {
	if !w.Started() {
		return
	}
	w.onChange()
	select {
	case w.changed <- struct{}{}:
	default:
	}
}
