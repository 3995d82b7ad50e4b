// internal/monitor/monitor.go
package monitor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/analyzer"
	"github.com/xkilldash9x/logwarden/internal/patterns"
)

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("monitor closed")

// Monitor tracks a set of growing files and analyzes the error-like content
// appended to each of them. A Monitor owns its registry; create one per
// process and Close it on shutdown.
type Monitor struct {
	logger    *zap.Logger
	analyzer  analyzer.Analyzer
	fs        afero.Fs
	now       func() time.Time
	maxChunk  int64
	onFinding func(path string, f schemas.Finding)
	parseOpts schemas.ParseOptions

	// opMu serializes Watch, StopWatching and StopAll.
	opMu sync.Mutex

	mu       sync.RWMutex
	files    map[string]*watchedFile
	notifier *notifier
	closed   bool

	wg sync.WaitGroup
}

// New creates a Monitor that hands error-bearing content to a.
func New(a analyzer.Analyzer, logger *zap.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		logger:    logger.Named("monitor"),
		analyzer:  a,
		fs:        afero.NewOsFs(),
		now:       time.Now,
		maxChunk:  DefaultMaxChunkBytes,
		parseOpts: schemas.DefaultParseOptions(),
		files:     make(map[string]*watchedFile),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Watch starts monitoring path. A path that is already watched is first torn
// down, so the new watch starts from the current size of the file.
func (m *Monitor) Watch(path string, opts Options) (schemas.WatchResult, error) {
	opts = opts.withDefaults()

	size, err := m.probe(path)
	if err != nil {
		return schemas.WatchResult{}, err
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	var offset int64
	if opts.IgnoreInitial {
		offset = size
	}
	session := uuid.NewString()
	wf := newWatchedFile(path, session, opts, offset, m.now(),
		m.logger.With(zap.String("path", path), zap.String("session", session)))

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		wf.cancel()
		return schemas.WatchResult{}, ErrClosed
	}
	previous := m.files[path]
	m.files[path] = wf
	m.mu.Unlock()

	if previous != nil {
		previous.logger.Info("Restarting watch.")
		if err := m.teardown(previous); err != nil {
			m.logger.Warn("Failed to release previous watch.", zap.String("path", path), zap.Error(err))
		}
	}

	if !opts.UsePolling {
		if err := m.subscribe(wf); err != nil {
			wf.logger.Warn("Native notifications unavailable, falling back to polling.", zap.Error(err))
			wf.opts.UsePolling = true
		}
	}

	m.wg.Add(1)
	go m.run(wf)

	wf.logger.Info("Watching file.",
		zap.Duration("poll_interval", opts.PollInterval),
		zap.Bool("polling", wf.opts.UsePolling),
		zap.Bool("ignore_initial", opts.IgnoreInitial),
		zap.Int64("offset", offset))

	return schemas.WatchResult{Path: path, PollIntervalMs: opts.PollInterval.Milliseconds()}, nil
}

// probe proves path is a readable regular file and returns its size.
func (m *Monitor) probe(path string) (int64, error) {
	f, err := m.fs.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", schemas.ErrPathUnreadable, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", schemas.ErrPathUnreadable, path, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory", schemas.ErrPathUnreadable, path)
	}

	// A zero length read still fails for files the OS will not let us read.
	if _, err := f.Read(make([]byte, 1)); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: %s: %v", schemas.ErrPathUnreadable, path, err)
	}
	return info.Size(), nil
}

// subscribe registers wf with the shared notifier, creating it on first use.
func (m *Monitor) subscribe(wf *watchedFile) error {
	m.mu.Lock()
	if m.notifier == nil {
		n, err := newNotifier(m.logger)
		if err != nil {
			m.mu.Unlock()
			return err
		}
		m.notifier = n
	}
	n := m.notifier
	m.mu.Unlock()
	return n.add(wf)
}

// StopWatching tears down the watch on path. A pass in flight for path is
// cancelled and its result discarded.
func (m *Monitor) StopWatching(path string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	wf, ok := m.files[path]
	if ok {
		delete(m.files, path)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", schemas.ErrNotWatched, path)
	}
	wf.logger.Info("Stopped watching file.")
	return m.teardown(wf)
}

// StopAll tears down every watch concurrently and reports every failure.
func (m *Monitor) StopAll() error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	records := make([]*watchedFile, 0, len(m.files))
	for path, wf := range m.files {
		records = append(records, wf)
		delete(m.files, path)
	}
	m.mu.Unlock()

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  error
	)
	for _, wf := range records {
		wg.Add(1)
		go func(wf *watchedFile) {
			defer wg.Done()
			if err := m.teardown(wf); err != nil {
				errMu.Lock()
				errs = multierr.Append(errs, err)
				errMu.Unlock()
			}
		}(wf)
	}
	wg.Wait()

	if len(records) > 0 {
		m.logger.Info("Stopped all watches.", zap.Int("count", len(records)))
	}
	return errs
}

// teardown releases the resources of a record already removed from the registry.
func (m *Monitor) teardown(wf *watchedFile) error {
	wf.cancel()

	m.mu.RLock()
	n := m.notifier
	m.mu.RUnlock()
	if n == nil || wf.opts.UsePolling {
		return nil
	}
	return n.remove(wf)
}

// Close stops every watch, releases the notifier and waits for all watch
// goroutines to exit. Watch fails with ErrClosed afterwards.
func (m *Monitor) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	err := m.StopAll()

	m.mu.Lock()
	n := m.notifier
	m.notifier = nil
	m.mu.Unlock()
	if n != nil {
		err = multierr.Append(err, n.close())
	}

	m.wg.Wait()
	return err
}

// Snapshot returns a copy of every watched file's state, sorted by path.
func (m *Monitor) Snapshot() []schemas.FileSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]schemas.FileSnapshot, 0, len(m.files))
	for _, wf := range m.files {
		out = append(out, wf.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// File returns a copy of path's state.
func (m *Monitor) File(path string) (schemas.FileSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wf, ok := m.files[path]
	if !ok {
		return schemas.FileSnapshot{}, false
	}
	return wf.snapshot(), true
}

// run is the per-file loop. It exits when the watch is torn down.
func (m *Monitor) run(wf *watchedFile) {
	defer m.wg.Done()
	defer close(wf.done)

	if !wf.opts.IgnoreInitial {
		m.handleChange(wf)
	}

	var tick <-chan time.Time
	if wf.opts.UsePolling {
		ticker := time.NewTicker(wf.opts.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-wf.ctx.Done():
			return
		case <-tick:
			m.handleChange(wf)
		case <-wf.events:
			m.handleChange(wf)
		}
	}
}

// handleChange runs one pass for wf unless one is already in flight.
func (m *Monitor) handleChange(wf *watchedFile) {
	if !wf.busy.CompareAndSwap(false, true) {
		return
	}
	defer wf.busy.Store(false)

	if err := m.processGrowth(wf); err != nil {
		// Errors caused by the watch being torn down are expected.
		if wf.ctx.Err() != nil {
			return
		}
		wf.logger.Warn("Failed to process new content, will retry on next change.",
			zap.Int64("offset", wf.currentOffset()), zap.Error(err))
	}
}

// processGrowth reads the bytes appended since the last committed offset and
// analyzes them when they contain error-like lines. The offset only moves in
// commit.
func (m *Monitor) processGrowth(wf *watchedFile) error {
	start := wf.currentOffset()

	info, err := m.fs.Stat(wf.path)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	size := info.Size()
	if size <= start {
		return nil
	}

	chunk, err := m.readRange(wf.path, start, size)
	if err != nil {
		return err
	}
	if len(chunk) == 0 {
		return nil
	}
	end := start + int64(len(chunk))

	wf.logger.Debug("Read new content.",
		zap.Int64("from", start),
		zap.Int64("to", end),
		zap.String("size", humanize.Bytes(uint64(len(chunk)))))

	text := string(chunk)
	if strings.TrimSpace(text) == "" || len(patterns.ExtractErrorPatterns(text)) == 0 {
		m.commit(wf, start, end, nil)
		return nil
	}

	finding, err := m.analyzer.Analyze(wf.ctx, text, m.parseOpts)
	if err != nil {
		return fmt.Errorf("analysis of bytes %d-%d failed: %w", start, end, err)
	}
	if finding == nil {
		return fmt.Errorf("analysis of bytes %d-%d returned no finding: %w", start, end, schemas.ErrAnalysisUnavailable)
	}
	m.commit(wf, start, end, finding)
	return nil
}

// readRange reads [start, size) capped at maxChunk. A capped read is cut back to
// the last complete line so a line is never split across passes, unless the
// chunk holds no newline at all.
func (m *Monitor) readRange(path string, start, size int64) ([]byte, error) {
	end := size
	if end-start > m.maxChunk {
		end = start + m.maxChunk
	}

	f, err := m.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, end-start)
	n, err := f.ReadAt(buf, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read bytes %d-%d: %w", start, end, err)
	}
	buf = buf[:n]

	if start+int64(n) < size {
		if i := bytes.LastIndexByte(buf, '\n'); i >= 0 {
			buf = buf[:i+1]
		}
	}
	return buf, nil
}

// commit advances wf to end and records finding, if any. It is a no-op when wf
// was stopped or replaced while the pass was running, or when the offset moved
// since the read started.
func (m *Monitor) commit(wf *watchedFile, start, end int64, finding *schemas.Finding) {
	m.mu.RLock()
	live := m.files[wf.path] == wf && wf.ctx.Err() == nil
	if !live {
		m.mu.RUnlock()
		wf.logger.Debug("Discarding result of a stopped watch.")
		return
	}

	wf.mu.Lock()
	if wf.offset != start {
		wf.mu.Unlock()
		m.mu.RUnlock()
		return
	}
	var recorded schemas.Finding
	if finding != nil {
		recorded = schemas.NewFinding(*finding)
		wf.record(recorded)
	}
	wf.offset = end
	wf.lastUpdate = m.now()
	wf.mu.Unlock()
	m.mu.RUnlock()

	if finding == nil {
		return
	}
	wf.logger.Info("Recorded finding.",
		zap.String("severity", string(recorded.Metadata.Severity)),
		zap.String("error_type", recorded.Metadata.ErrorType),
		zap.Int("confidence", recorded.Confidence))
	if m.onFinding != nil {
		m.onFinding(wf.path, recorded)
	}
}
