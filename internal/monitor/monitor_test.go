package monitor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/analyzer"
	"github.com/xkilldash9x/logwarden/internal/mocks"
	"github.com/xkilldash9x/logwarden/internal/monitor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	tick    = 10 * time.Millisecond
	waitFor = 2 * time.Second
)

// -- Test Doubles --

// recordingAnalyzer returns a fixed finding and remembers every chunk it saw.
type recordingAnalyzer struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingAnalyzer) Analyze(_ context.Context, text string, _ schemas.ParseOptions) (*schemas.Finding, error) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
	f := schemas.NewFinding(schemas.Finding{RootCause: strings.TrimSpace(text), Confidence: 70})
	return &f, nil
}

func (r *recordingAnalyzer) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

// blockingAnalyzer parks every call until release is closed. It ignores the
// context so a pass can outlive the watch that started it.
type blockingAnalyzer struct {
	started chan struct{}
	release chan struct{}
	count   atomic.Int32
}

func newBlockingAnalyzer() *blockingAnalyzer {
	return &blockingAnalyzer{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (b *blockingAnalyzer) Analyze(_ context.Context, text string, _ schemas.ParseOptions) (*schemas.Finding, error) {
	b.count.Add(1)
	b.started <- struct{}{}
	<-b.release
	f := schemas.NewFinding(schemas.Finding{RootCause: text})
	return &f, nil
}

// -- Helpers --

func newTestMonitor(t *testing.T, a analyzer.Analyzer, opts ...monitor.Option) (*monitor.Monitor, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	opts = append([]monitor.Option{monitor.WithFs(fs)}, opts...)
	m := monitor.New(a, zaptest.NewLogger(t), opts...)
	t.Cleanup(func() { _ = m.Close() })
	return m, fs
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func appendTo(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	f, err := fs.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func polling() monitor.Options {
	return monitor.Options{PollInterval: tick, UsePolling: true, IgnoreInitial: true}
}

func snapshotOf(t *testing.T, m *monitor.Monitor, path string) schemas.FileSnapshot {
	t.Helper()
	snap, ok := m.File(path)
	require.True(t, ok, "expected %s to be watched", path)
	return snap
}

// -- Watch --

func TestWatch_NonErrorGrowthAdvancesWithoutAnalysis(t *testing.T) {
	a := &recordingAnalyzer{}
	m, fs := newTestMonitor(t, a)
	writeFile(t, fs, "/app.log", "")

	_, err := m.Watch("/app.log", polling())
	require.NoError(t, err)

	appendTo(t, fs, "/app.log", "INFO ok\n")

	require.Eventually(t, func() bool {
		return snapshotOf(t, m, "/app.log").Offset == int64(len("INFO ok\n"))
	}, waitFor, tick)
	assert.Empty(t, snapshotOf(t, m, "/app.log").History)
	assert.Empty(t, a.calls())
}

func TestWatch_ErrorGrowthRecordsFinding(t *testing.T) {
	finding := schemas.NewFinding(schemas.Finding{RootCause: "boom", Confidence: 80})
	a := new(mocks.MockAnalyzer)
	a.On("Analyze", mock.Anything, "ERROR boom\n", schemas.DefaultParseOptions()).Return(&finding, nil).Once()

	var hooked atomic.Int32
	fixed := time.Date(2025, 10, 26, 10, 0, 0, 0, time.UTC)
	m, fs := newTestMonitor(t, a,
		monitor.WithClock(func() time.Time { return fixed }),
		monitor.WithFindingHook(func(path string, f schemas.Finding) {
			assert.Equal(t, "/app.log", path)
			assert.Equal(t, "boom", f.RootCause)
			hooked.Add(1)
		}))
	writeFile(t, fs, "/app.log", "INFO ok\n")

	res, err := m.Watch("/app.log", polling())
	require.NoError(t, err)
	assert.Equal(t, schemas.WatchResult{Path: "/app.log", PollIntervalMs: tick.Milliseconds()}, res)

	appendTo(t, fs, "/app.log", "ERROR boom\n")

	require.Eventually(t, func() bool {
		return len(snapshotOf(t, m, "/app.log").History) == 1
	}, waitFor, tick)

	snap := snapshotOf(t, m, "/app.log")
	assert.Equal(t, int64(len("INFO ok\nERROR boom\n")), snap.Offset)
	assert.Equal(t, "boom", snap.History[0].RootCause)
	assert.Equal(t, fixed, snap.LastUpdate)
	assert.Equal(t, int32(1), hooked.Load())
	a.AssertExpectations(t)
}

func TestWatch_InitialContentAnalyzedImmediately(t *testing.T) {
	a := &recordingAnalyzer{}
	m, fs := newTestMonitor(t, a)
	writeFile(t, fs, "/app.log", "ERROR at startup\n")

	// A long interval proves the first pass does not wait for a tick.
	_, err := m.Watch("/app.log", monitor.Options{PollInterval: time.Hour, UsePolling: true})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(snapshotOf(t, m, "/app.log").History) == 1
	}, waitFor, tick)
	assert.Equal(t, []string{"ERROR at startup\n"}, a.calls())
	assert.Equal(t, int64(len("ERROR at startup\n")), snapshotOf(t, m, "/app.log").Offset)
}

func TestWatch_IgnoreInitialStartsAtCurrentSize(t *testing.T) {
	a := &recordingAnalyzer{}
	m, fs := newTestMonitor(t, a)
	writeFile(t, fs, "/app.log", "ERROR old news\n")

	_, err := m.Watch("/app.log", polling())
	require.NoError(t, err)

	assert.Equal(t, int64(len("ERROR old news\n")), snapshotOf(t, m, "/app.log").Offset)
	assert.Never(t, func() bool { return len(a.calls()) > 0 }, 10*tick, tick)
}

func TestWatch_UnreadablePath(t *testing.T) {
	m, fs := newTestMonitor(t, &recordingAnalyzer{})
	require.NoError(t, fs.MkdirAll("/logs", 0o755))

	_, err := m.Watch("/missing.log", polling())
	assert.ErrorIs(t, err, schemas.ErrPathUnreadable)

	_, err = m.Watch("/logs", polling())
	assert.ErrorIs(t, err, schemas.ErrPathUnreadable)

	assert.Empty(t, m.Snapshot())
}

func TestWatch_IdempotentRestart(t *testing.T) {
	m, fs := newTestMonitor(t, &recordingAnalyzer{})
	writeFile(t, fs, "/app.log", "INFO one\n")

	_, err := m.Watch("/app.log", polling())
	require.NoError(t, err)

	appendTo(t, fs, "/app.log", "INFO two\n")
	_, err = m.Watch("/app.log", polling())
	require.NoError(t, err)

	snaps := m.Snapshot()
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(len("INFO one\nINFO two\n")), snaps[0].Offset)
}

func TestWatch_ShrinkIsIgnored(t *testing.T) {
	a := &recordingAnalyzer{}
	m, fs := newTestMonitor(t, a)
	writeFile(t, fs, "/app.log", "INFO a fairly long line\n")

	_, err := m.Watch("/app.log", polling())
	require.NoError(t, err)
	writeFile(t, fs, "/app.log", "ERROR x\n")

	assert.Never(t, func() bool {
		return snapshotOf(t, m, "/app.log").Offset != int64(len("INFO a fairly long line\n"))
	}, 10*tick, tick)
	assert.Empty(t, a.calls())
}

func TestWatch_MaxChunkSplitsOnLineBoundaries(t *testing.T) {
	a := &recordingAnalyzer{}
	m, fs := newTestMonitor(t, a, monitor.WithMaxChunkBytes(16))
	content := "ERROR one\nERROR two\nERROR three\n"
	writeFile(t, fs, "/app.log", content)

	_, err := m.Watch("/app.log", monitor.Options{PollInterval: tick, UsePolling: true})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return snapshotOf(t, m, "/app.log").Offset == int64(len(content))
	}, waitFor, tick)
	assert.Equal(t, []string{"ERROR one\n", "ERROR two\n", "ERROR three\n"}, a.calls())
	assert.Len(t, snapshotOf(t, m, "/app.log").History, 3)
}

// -- Failure Handling --

func TestWatch_AnalysisFailureRetriesSameRange(t *testing.T) {
	finding := schemas.NewFinding(schemas.Finding{RootCause: "db down"})
	a := new(mocks.MockAnalyzer)
	a.On("Analyze", mock.Anything, "ERROR db down\n", mock.Anything).
		Return(nil, schemas.ErrAnalysisUnavailable).Once()
	a.On("Analyze", mock.Anything, "ERROR db down\n", mock.Anything).
		Return(&finding, nil).Once()

	m, fs := newTestMonitor(t, a)
	writeFile(t, fs, "/app.log", "")
	_, err := m.Watch("/app.log", polling())
	require.NoError(t, err)

	appendTo(t, fs, "/app.log", "ERROR db down\n")

	require.Eventually(t, func() bool {
		return len(snapshotOf(t, m, "/app.log").History) == 1
	}, waitFor, tick)
	assert.Equal(t, int64(len("ERROR db down\n")), snapshotOf(t, m, "/app.log").Offset)
	a.AssertNumberOfCalls(t, "Analyze", 2)
}

func TestWatch_NilFindingIsRetried(t *testing.T) {
	finding := schemas.NewFinding(schemas.Finding{RootCause: "late"})
	a := new(mocks.MockAnalyzer)
	a.On("Analyze", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Once()
	a.On("Analyze", mock.Anything, mock.Anything, mock.Anything).Return(&finding, nil).Once()

	m, fs := newTestMonitor(t, a)
	writeFile(t, fs, "/app.log", "FATAL late\n")
	_, err := m.Watch("/app.log", monitor.Options{PollInterval: tick, UsePolling: true})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(snapshotOf(t, m, "/app.log").History) == 1
	}, waitFor, tick)
	a.AssertNumberOfCalls(t, "Analyze", 2)
}

// -- Concurrency --

func TestWatch_SkipsTicksWhileBusy(t *testing.T) {
	a := newBlockingAnalyzer()
	m, fs := newTestMonitor(t, a)
	writeFile(t, fs, "/app.log", "ERROR first\n")

	_, err := m.Watch("/app.log", monitor.Options{PollInterval: tick, UsePolling: true})
	require.NoError(t, err)
	<-a.started

	appendTo(t, fs, "/app.log", "ERROR second\n")
	assert.Never(t, func() bool { return a.count.Load() > 1 }, 10*tick, tick)
	assert.Equal(t, int64(0), snapshotOf(t, m, "/app.log").Offset)

	close(a.release)
	require.Eventually(t, func() bool {
		return snapshotOf(t, m, "/app.log").Offset == int64(len("ERROR first\nERROR second\n"))
	}, waitFor, tick)
	assert.Len(t, snapshotOf(t, m, "/app.log").History, 2)
}

func TestStopWatching_InFlightPassDoesNotResurrect(t *testing.T) {
	a := newBlockingAnalyzer()
	var hooked atomic.Int32
	m, fs := newTestMonitor(t, a, monitor.WithFindingHook(func(string, schemas.Finding) { hooked.Add(1) }))
	writeFile(t, fs, "/app.log", "PANIC: nil map\n")

	_, err := m.Watch("/app.log", monitor.Options{PollInterval: tick, UsePolling: true})
	require.NoError(t, err)
	<-a.started

	require.NoError(t, m.StopWatching("/app.log"))
	close(a.release)
	require.NoError(t, m.Close())

	_, ok := m.File("/app.log")
	assert.False(t, ok)
	assert.Empty(t, m.Snapshot())
	assert.Zero(t, hooked.Load())
}

// -- Stop --

func TestStopWatching_NotWatched(t *testing.T) {
	m, _ := newTestMonitor(t, &recordingAnalyzer{})
	err := m.StopWatching("/nope.log")
	assert.ErrorIs(t, err, schemas.ErrNotWatched)
}

func TestStopAll_And_Close(t *testing.T) {
	m, fs := newTestMonitor(t, &recordingAnalyzer{})
	paths := []string{"/c.log", "/a.log", "/b.log"}
	for _, p := range paths {
		writeFile(t, fs, p, "")
		_, err := m.Watch(p, polling())
		require.NoError(t, err)
	}

	snaps := m.Snapshot()
	require.Len(t, snaps, 3)
	assert.Equal(t, "/a.log", snaps[0].Path, "snapshots are sorted by path")
	assert.Equal(t, "/c.log", snaps[2].Path)

	require.NoError(t, m.StopAll())
	assert.Empty(t, m.Snapshot())
	assert.NoError(t, m.StopAll(), "stopping nothing is not an error")

	require.NoError(t, m.Close())
	_, err := m.Watch("/a.log", polling())
	assert.True(t, errors.Is(err, monitor.ErrClosed))
}

// -- Native Notifications --

func TestWatch_NativeNotifications(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	a := &recordingAnalyzer{}
	m := monitor.New(a, zaptest.NewLogger(t))
	t.Cleanup(func() { require.NoError(t, m.Close()) })

	// The interval only matters if native registration falls back to polling.
	_, err := m.Watch(path, monitor.Options{PollInterval: 50 * time.Millisecond, IgnoreInitial: true})
	require.NoError(t, err)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("ERROR connection refused\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool {
		snap, ok := m.File(path)
		return ok && len(snap.History) == 1
	}, 5*time.Second, tick)
	assert.Equal(t, []string{"ERROR connection refused\n"}, a.calls())
}
