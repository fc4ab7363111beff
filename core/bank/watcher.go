package bank

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// Watcher
// =============================================================================

// ErrNoBankFile indicates the watcher was given an empty path.
var ErrNoBankFile = errors.New("no bank file configured")

// DefaultDebounce batches rapid successive writes to the bank file so a
// partially written file is not loaded mid-save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a YAML bank file when it changes and publishes the new
// snapshot through a Provider. A failed reload keeps the previous
// snapshot: the engine always sees a complete pool.
type Watcher struct {
	path     string
	provider *Provider
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher constructs a Watcher. logger may be nil.
func NewWatcher(path string, provider *Provider, logger *slog.Logger) (*Watcher, error) {
	if path == "" {
		return nil, ErrNoBankFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		provider: provider,
		debounce: DefaultDebounce,
		logger:   logger,
	}, nil
}

// Run loads the bank once, then watches for changes until ctx is done.
// The initial load failing is fatal; later reload failures are logged
// and skipped.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.reload(); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Watch the directory: editors and atomic writers replace the file,
	// which drops a watch registered on the file itself.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("bank watcher error", "error", err)
		case <-timerC:
			if err := w.reload(); err != nil {
				w.logger.Error("bank reload failed, keeping previous snapshot",
					"path", w.path, "error", err)
			}
		}
	}
}

func (w *Watcher) reload() error {
	pool, err := LoadFile(w.path)
	if err != nil {
		return err
	}
	w.provider.Publish(pool)
	w.logger.Info("bank snapshot published",
		"path", w.path,
		"items", pool.Len(),
		"usable", pool.UsableCount(),
	)
	return nil
}
