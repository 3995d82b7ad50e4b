// internal/monitor/watched_file.go
package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/api/schemas"
)

// watchedFile is the state of one active watch. The registry owns it; a new
// watch on the same path always gets a fresh record.
type watchedFile struct {
	path    string
	session string
	opts    Options
	logger  *zap.Logger

	// busy is set while a change is being processed for this path.
	busy atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	// events receives native change notifications. Buffered so a burst collapses to one pass.
	events chan struct{}
	done   chan struct{}

	mu         sync.Mutex
	offset     int64
	history    []schemas.Finding
	lastUpdate time.Time
}

func newWatchedFile(path, session string, opts Options, offset int64, now time.Time, logger *zap.Logger) *watchedFile {
	ctx, cancel := context.WithCancel(context.Background())
	return &watchedFile{
		path:       path,
		session:    session,
		opts:       opts,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		events:     make(chan struct{}, 1),
		done:       make(chan struct{}),
		offset:     offset,
		history:    make([]schemas.Finding, 0, 8),
		lastUpdate: now,
	}
}

// notify schedules a pass without blocking the caller.
func (w *watchedFile) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}

func (w *watchedFile) currentOffset() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offset
}

// record appends f, evicting the oldest entry once the history is full.
// Callers hold w.mu.
func (w *watchedFile) record(f schemas.Finding) {
	if len(w.history) >= HistoryLimit {
		n := copy(w.history, w.history[len(w.history)-HistoryLimit+1:])
		w.history = w.history[:n]
	}
	w.history = append(w.history, f)
}

func (w *watchedFile) snapshot() schemas.FileSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	history := make([]schemas.Finding, len(w.history))
	copy(history, w.history)
	return schemas.FileSnapshot{
		Path:         w.path,
		Offset:       w.offset,
		History:      history,
		LastUpdate:   w.lastUpdate,
		PollInterval: w.opts.PollInterval,
	}
}
