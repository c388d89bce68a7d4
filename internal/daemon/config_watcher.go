package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/logfields"
)

// DefaultDebounce coalesces editor save bursts into one run.
const DefaultDebounce = 500 * time.Millisecond

// ConfigWatcher monitors the configuration and section sources and triggers
// debounced full re-runs.
type ConfigWatcher struct {
	mu           sync.Mutex
	files        map[string]struct{}
	watcher      *fsnotify.Watcher
	onChange     func(ctx context.Context)
	debounceTime time.Duration
}

// NewConfigWatcher watches paths; onChange runs after changes settle.
func NewConfigWatcher(paths []string, debounce time.Duration, onChange func(ctx context.Context)) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.DaemonError("failed to create file watcher").WithCause(err).Build()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	cw := &ConfigWatcher{
		files:        make(map[string]struct{}),
		watcher:      watcher,
		onChange:     onChange,
		debounceTime: debounce,
	}
	dirs := map[string]struct{}{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = watcher.Close()
			return nil, ferrors.DaemonError("failed to resolve watched path").WithCause(err).WithContext("path", p).Build()
		}
		cw.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	// Watch directories rather than files so atomic-save renames are observed.
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, ferrors.DaemonError("failed to watch directory").WithCause(err).WithContext("path", dir).Build()
		}
	}
	return cw, nil
}

// Update replaces the watched file set, e.g. after sections changed.
func (cw *ConfigWatcher) Update(paths []string) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	files := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		files[abs] = struct{}{}
		if _, known := cw.files[abs]; !known {
			if err := cw.watcher.Add(filepath.Dir(abs)); err != nil {
				slog.Warn("Failed to watch directory", logfields.Path(filepath.Dir(abs)), logfields.Error(err))
			}
		}
	}
	cw.files = files
}

// Run processes events until ctx is done, then closes the watcher.
func (cw *ConfigWatcher) Run(ctx context.Context) error {
	slog.Info("Starting configuration watcher", logfields.Count(len(cw.files)))
	defer func() {
		if err := cw.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return nil
			}
			if !cw.relevant(event) {
				continue
			}
			slog.Debug("Watched file changed", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(cw.debounceTime)
			} else {
				timer.Reset(cw.debounceTime)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			cw.onChange(ctx)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Config watcher error", logfields.Error(err))
		}
	}
}

func (cw *ConfigWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		if event.Has(fsnotify.Remove) {
			slog.Warn("Watched file removed", logfields.Path(event.Name))
		}
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	cw.mu.Lock()
	defer cw.mu.Unlock()
	_, ok := cw.files[abs]
	return ok
}
