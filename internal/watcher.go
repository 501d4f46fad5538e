package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of filesystem event
type EventType int

const (
	EventCreate EventType = iota
	EventDelete
)

func (t EventType) String() string {
	if t == EventDelete {
		return "delete"
	}
	return "create"
}

// WatchEvent represents a filesystem event we care about
type WatchEvent struct {
	Type EventType
	Path string
}

// DefaultSettle is how long a file must stay unchanged before it is reported.
const DefaultSettle = 500 * time.Millisecond

const eventQueueSize = 100

// Watcher wraps an fsnotify watcher. A created file is reported once it has
// stopped changing for the settle period, so half-copied files are not
// handed to the cleaner.
type Watcher struct {
	watcher   *fsnotify.Watcher
	accept    func(path string) bool
	recursive bool
	settle    time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer

	events chan *WatchEvent
	errors chan error
	done   chan struct{}
	once   sync.Once
}

// NewWatcher watches root. accept filters paths before any event is emitted;
// nil accepts everything.
func NewWatcher(root string, recursive bool, settle time.Duration, accept func(path string) bool) (*Watcher, error) {
	return newWatcher(root, recursive, settle, accept, eventQueueSize)
}

func newWatcher(root string, recursive bool, settle time.Duration, accept func(path string) bool, queue int) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if accept == nil {
		accept = func(string) bool { return true }
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	w := &Watcher{
		watcher:   fsWatcher,
		accept:    accept,
		recursive: recursive,
		settle:    settle,
		pending:   make(map[string]*time.Timer),
		events:    make(chan *WatchEvent, queue),
		errors:    make(chan error, 10),
		done:      make(chan struct{}),
	}

	if err := w.add(root); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	go w.processEvents()

	return w, nil
}

// add registers root, and its subdirectories when recursive.
func (w *Watcher) add(root string) error {
	if !w.recursive {
		return w.watcher.Add(root)
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				// Error channel is full, drop error
			}

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if event.Has(fsnotify.Create) && w.recursive {
				if err := w.add(event.Name); err != nil {
					w.sendError(err)
				}
			}
			return
		}
		if w.accept(event.Name) {
			w.schedule(event.Name)
		}

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.mu.Lock()
		if t, ok := w.pending[event.Name]; ok {
			t.Stop()
			delete(w.pending, event.Name)
		}
		w.mu.Unlock()
		if w.accept(event.Name) {
			w.send(&WatchEvent{Type: EventDelete, Path: event.Name})
		}
	}
}

// schedule (re)arms the settle timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		// blocks until read; every timer runs on its own goroutine
		select {
		case <-w.done:
		case w.events <- &WatchEvent{Type: EventCreate, Path: path}:
		}
	})
}

// send is used from the fsnotify loop and must not block it.
func (w *Watcher) send(ev *WatchEvent) {
	select {
	case <-w.done:
	case w.events <- ev:
	default:
		w.sendError(fmt.Errorf("event queue full, dropped %s event for %s", ev.Type, ev.Path))
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

// Events returns the channel of filtered watch events
func (w *Watcher) Events() <-chan *WatchEvent {
	return w.events
}

// Errors returns the channel of watcher errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and cleans up resources
func (w *Watcher) Close() error {
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		for p, t := range w.pending {
			t.Stop()
			delete(w.pending, p)
		}
		w.mu.Unlock()
	})
	return w.watcher.Close()
}
