package pattern

import (
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// Watcher reloads the detection config whenever its file changes, so a
// collaborator can adjust thresholds without restarting the pipeline. Invalid
// intermediate file states are logged and skipped; the last good config
// stands until a valid one replaces it.
type Watcher struct {
	configCh chan Config
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher begins watching the config file at the given path. The file must
// be valid at start.
func NewWatcher(path string, logger golog.Logger) (*Watcher, error) {
	initial, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// watch the directory, not the file: editors replace files on save
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		return nil, multierr.Combine(
			errors.Wrap(err, "adding config directory to watcher"),
			fsWatcher.Close(),
		)
	}

	w := &Watcher{
		configCh: make(chan Config, 1),
		watcher:  fsWatcher,
		done:     make(chan struct{}),
	}
	w.configCh <- initial

	utils.PanicCapturingGo(func() {
		for {
			select {
			case <-w.done:
				return
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if event.Name != path || !event.Op.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				cfg, err := ReadConfig(path)
				if err != nil {
					logger.Warnw("ignoring invalid config update", "path", path, "error", err)
					continue
				}
				select {
				case w.configCh <- cfg:
				case <-w.done:
					return
				}
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				logger.Errorw("config watcher error", "error", err)
			}
		}
	})
	return w, nil
}

// Config returns the channel on which config updates are delivered. The
// initial config is delivered immediately.
func (w *Watcher) Config() <-chan Config {
	return w.configCh
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
