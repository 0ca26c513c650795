package explorer

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads path whenever it changes until ctx is done. The directory is
// watched rather than the file so editors that save by rename still trigger
// a reload. Bursts of events within the debounce window cause one reload.
//
// onReload, if non-nil, is called after every reload attempt with its error.
// A failed reload keeps the previous graph.
func (s *Session) Watch(ctx context.Context, path string, onReload func(error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	s.logger.Debug("watching", "file", abs)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(s.debounce, func() {
				s.logger.Debug("file changed, reloading", "file", path)
				err := s.LoadFile(ctx, path)
				if err == nil {
					s.logger.Info("reloaded", "file", path, "nodes", s.Snapshot().Graph.Len())
				}
				if onReload != nil {
					onReload(err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}
