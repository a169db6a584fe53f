// Package watch triggers ingestion when files land in watched directories.
// Events are debounced so a burst of writes (a large copy, an editor save
// sequence) results in one batch run.
package watch

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const defaultDebounce = 5 * time.Second

type Watcher struct {
	dirs     []string
	debounce time.Duration
	trigger  func(ctx context.Context)
}

// New creates a watcher over dirs; trigger is invoked after the debounce
// window closes following the last filesystem event.
func New(dirs []string, debounce time.Duration, trigger func(ctx context.Context)) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{dirs: dirs, debounce: debounce, trigger: trigger}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	logger := logutil.GetLogger(ctx)
	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			logger.Error("failed to watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		logger.Info("watching directory", zap.String("dir", dir))
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("filesystem event", zap.String("event", event.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", zap.Error(err))
		case <-timerC:
			timer = nil
			timerC = nil
			w.trigger(ctx)
		}
	}
}
