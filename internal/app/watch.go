package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"jumpflood/internal/jfa"
)

// Reload carries the settings that can change while the window is open.
type Reload struct {
	Mode   jfa.Mode
	Passes int
}

// reloadFile mirrors the live keys of Config. Pointers distinguish keys
// that are absent from keys set to their zero value.
type reloadFile struct {
	Mode   *jfa.Mode `toml:"mode"`
	Passes *int      `toml:"passes"`
}

// Watcher reloads the live settings whenever the config file changes.
type Watcher struct {
	path    string
	log     *zap.Logger
	watcher *fsnotify.Watcher
	current Reload
}

// NewWatcher watches path. The directory is watched rather than the file so
// editors that replace the file on save keep triggering reloads.
func NewWatcher(path string, initial Reload, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &Watcher{path: abs, log: log, watcher: fw, current: initial}, nil
}

// Run delivers reloads to apply until ctx is done. apply runs on the
// watcher goroutine and only for changes.
func (w *Watcher) Run(ctx context.Context, apply func(Reload)) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			next, err := w.read()
			if err != nil {
				w.log.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			if next == w.current {
				continue
			}
			w.log.Info("config reloaded",
				zap.String("path", w.path), zap.Stringer("mode", next.Mode), zap.Int("passes", next.Passes))
			w.current = next
			apply(next)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) read() (Reload, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return Reload{}, err
	}
	var f reloadFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return Reload{}, err
	}
	next := w.current
	if f.Mode != nil {
		next.Mode = *f.Mode
	}
	if f.Passes != nil {
		if *f.Passes < 0 {
			return Reload{}, fmt.Errorf("passes %d must not be negative", *f.Passes)
		}
		next.Passes = *f.Passes
	}
	return next, nil
}
