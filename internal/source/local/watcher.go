package local

import (
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marcus/agentview/internal/source"
)

// debounceDelay coalesces the rapid write bursts agents produce while
// streaming output.
const debounceDelay = 150 * time.Millisecond

// Watch emits a Notice whenever the session's log files change. Events are
// debounced; the returned closer stops the watch.
func (s *Source) Watch(sessionID string) (<-chan source.Notice, io.Closer, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return nil, nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, nil, err
	}

	notices := make(chan source.Notice, 16)

	go func() {
		var debounceTimer *time.Timer
		var closed bool
		var mu sync.Mutex

		defer func() {
			mu.Lock()
			closed = true
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			mu.Unlock()
			close(notices)
		}()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				base := filepath.Base(event.Name)
				if base != eventsFile && base != promptsFile {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				mu.Lock()
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDelay, func() {
					mu.Lock()
					defer mu.Unlock()
					if closed {
						return
					}
					select {
					case notices <- source.Notice{SessionID: sessionID}:
					default:
						// Channel full; the pending notice already
						// covers this burst.
					}
				})
				mu.Unlock()

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Keep watching through transient errors.
			}
		}
	}()

	return notices, &watcherCloser{watcher: watcher}, nil
}

// watcherCloser tears down the fsnotify watcher, which in turn ends the
// forwarding goroutine.
type watcherCloser struct {
	watcher *fsnotify.Watcher
}

func (c *watcherCloser) Close() error {
	return c.watcher.Close()
}
