package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/infra/logger"
)

// DefaultDebounce is how long the watcher waits for a burst of edits to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a seed directory when its files change.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	debounce  time.Duration
}

// NewWatcher creates a watcher for dir. A non-positive debounce uses
// DefaultDebounce.
func NewWatcher(dir string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}
	return &Watcher{fsWatcher: fsw, dir: dir, debounce: debounce}, nil
}

// Run calls onChange after each settled burst of seed file changes until ctx is
// done. It closes the underlying fsnotify watcher on return.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) error {
	defer w.fsWatcher.Close()

	log := logger.With("seed.watcher")
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if !isRelevant(event) {
				continue
			}
			log.Debug("registry.seed.event", "file", event.Name, "op", event.Op.String())
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			if pending {
				pending = false
				onChange(ctx)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("registry.seed.watch_error", "dir", w.dir, "err", err)

		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
}

func isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return IsSeedFile(event.Name)
}

// Reloader returns an onChange callback that reloads dir into regs, logging
// (and keeping the previous content) when the new files do not load.
func Reloader(dir string, regs Registries) func(context.Context) {
	return func(ctx context.Context) {
		cat, err := LoadDir(dir)
		if err != nil {
			logger.L().Error("registry.seed.reload_failed", "dir", dir, "err", err)
			return
		}
		if err := cat.Apply(ctx, regs); err != nil {
			logger.L().Error("registry.seed.apply_failed", "dir", dir, "err", err)
			return
		}
		logger.L().Info("registry.seed.reloaded", "dir", dir, "entries", cat.Len())
	}
}
