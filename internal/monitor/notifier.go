// internal/monitor/notifier.go
package monitor

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// notifier fans native filesystem events out to the watched files they concern.
type notifier struct {
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	mu   sync.Mutex
	subs map[string]*watchedFile

	done chan struct{}
}

func newNotifier(logger *zap.Logger) (*notifier, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	n := &notifier{
		logger:  logger.Named("notifier"),
		watcher: w,
		subs:    make(map[string]*watchedFile),
		done:    make(chan struct{}),
	}
	go n.loop()
	return n, nil
}

// add subscribes wf to change events for its path.
func (n *notifier) add(wf *watchedFile) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.watcher.Add(wf.path); err != nil {
		return fmt.Errorf("failed to register %s for notifications: %w", wf.path, err)
	}
	n.subs[filepath.Clean(wf.path)] = wf
	return nil
}

// remove unsubscribes wf. A newer subscription on the same path is left alone.
func (n *notifier) remove(wf *watchedFile) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := filepath.Clean(wf.path)
	if n.subs[key] != wf {
		return nil
	}
	delete(n.subs, key)
	if err := n.watcher.Remove(wf.path); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return fmt.Errorf("failed to unregister %s from notifications: %w", wf.path, err)
	}
	return nil
}

func (n *notifier) loop() {
	defer close(n.done)
	for {
		select {
		case ev, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			n.mu.Lock()
			wf := n.subs[filepath.Clean(ev.Name)]
			n.mu.Unlock()
			if wf != nil {
				wf.notify()
			}
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.logger.Warn("Filesystem notification error.", zap.Error(err))
		}
	}
}

// close stops the event loop and releases the OS watcher.
func (n *notifier) close() error {
	err := n.watcher.Close()
	<-n.done
	return err
}
