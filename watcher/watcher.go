// Package watcher delivers change signals for a single file. fsnotify
// callbacks run on their own goroutine, so raw events are handed to
// the driver through a small bounded channel and never processed in
// the callback path itself.
package watcher

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// queueSize bounds the signal queue. Editors can emit bursts of write
// events; anything beyond the queue is dropped, which is safe because
// a single pending signal already triggers a full re-read.
const queueSize = 10

// Watcher forwards modification events for one file into a channel.
type Watcher struct {
	fs     *fsnotify.Watcher
	events chan struct{}
	logger *log.Logger
}

// New starts watching path. The file must exist; callers create an
// empty transcript first when needed.
func New(path string, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(path); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &Watcher{
		fs:     fs,
		events: make(chan struct{}, queueSize),
		logger: logger,
	}
	go w.forward()
	return w, nil
}

// Events yields at least one signal per external write. Signals carry
// no payload; consumers re-read the file. Duplicates are expected and
// debounced downstream. The channel closes after Close.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// forward filters raw fsnotify events down to content modifications
// and performs a non-blocking handoff into the bounded queue.
func (w *Watcher) forward() {
	defer close(w.events)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("detect: file change", "op", ev.Op.String())
			select {
			case w.events <- struct{}{}:
			default:
				// Queue full; a signal is already pending.
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}
