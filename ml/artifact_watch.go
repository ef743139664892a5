package ml

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher reports artifact files that change on disk after they were
// loaded. Loaded artifacts are never swapped; a restart picks up new files.
type ArtifactWatcher struct {
	watcher *fsnotify.Watcher
	paths   map[string]bool
	logger  *zap.Logger
	changes chan string
	done    chan struct{}
	once    sync.Once
}

func WatchArtifacts(logger *zap.Logger, paths ...string) (*ArtifactWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &ArtifactWatcher{
		watcher: watcher,
		paths:   make(map[string]bool, len(paths)),
		logger:  logger,
		changes: make(chan string, 16),
		done:    make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, path := range paths {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return nil, err
		}
		w.paths[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// directories, not files: deploys usually replace the file by rename
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	go w.run()
	return w, nil
}

// Changes delivers the path of every modified artifact. Sends are dropped
// when nobody reads; the channel is closed by Close.
func (w *ArtifactWatcher) Changes() <-chan string {
	return w.changes
}

func (w *ArtifactWatcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *ArtifactWatcher) run() {
	defer close(w.done)
	defer close(w.changes)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.paths[abs] {
				continue
			}
			w.logger.Debug("artifact event",
				zap.String("path", abs),
				zap.String("op", event.Op.String()))
			select {
			case w.changes <- abs:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}
