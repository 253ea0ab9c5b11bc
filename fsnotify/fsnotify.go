// Package fsnotify turns writes to the store directory by other processes
// into [parley.Change] notifications on a [parley.Hub].
package fsnotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/fwojciec/parley"
)

// rule maps file names matching pattern to a store key.
type rule struct {
	pattern string
	key     string
}

// Watcher publishes a Change with External set whenever a file in the
// watched directory matching one of its patterns is created, written,
// renamed into place or removed. Temp files never match the default
// pattern, so a tmp-then-rename save produces one notification per commit.
type Watcher struct {
	dir    string
	hub    *parley.Hub
	rules  []rule
	logger *slog.Logger

	fsw  *fsnotify.Watcher
	wg   sync.WaitGroup
	once sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPattern adds a doublestar pattern, matched against base file names,
// whose events are published under key.
func WithPattern(pattern, key string) Option {
	return func(w *Watcher) { w.rules = append(w.rules, rule{pattern: pattern, key: key}) }
}

// WithLogger sets the logger for watch errors.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// NewWatcher creates a Watcher for dir. Without WithPattern it watches
// chatSessions.json.
func NewWatcher(dir string, hub *parley.Hub, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		dir:    dir,
		hub:    hub,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	if len(w.rules) == 0 {
		w.rules = []rule{{pattern: parley.SessionsKey + ".json", key: parley.SessionsKey}}
	}
	for _, r := range w.rules {
		if !doublestar.ValidatePattern(r.pattern) {
			return nil, fmt.Errorf("fsnotify: invalid pattern %q", r.pattern)
		}
	}
	return w, nil
}

// Start establishes the watch and forwards events in the background until
// ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("fsnotify: create directory: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("fsnotify: watch %s: %w", w.dir, err)
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.run(ctx)
	return nil
}

// Close stops watching and waits for the forwarding goroutine to exit.
func (w *Watcher) Close() error {
	err := w.stop()
	w.wg.Wait()
	return err
}

func (w *Watcher) stop() error {
	var err error
	w.once.Do(func() {
		if w.fsw != nil {
			err = w.fsw.Close()
		}
	})
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			_ = w.stop()
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if !errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("watch error", "dir", w.dir, "error", err)
				continue
			}
			// Events were dropped; assume everything changed.
			for _, r := range w.rules {
				w.hub.Publish(parley.Change{Key: r.key, External: true})
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Base(event.Name)
	for _, r := range w.rules {
		if ok, _ := doublestar.Match(r.pattern, name); ok {
			w.logger.Debug("store changed", "file", name, "op", event.Op.String())
			w.hub.Publish(parley.Change{Key: r.key, External: true})
			return
		}
	}
}
