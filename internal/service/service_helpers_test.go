package service

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/config"
	"github.com/xkilldash9x/logwarden/internal/history"
	"github.com/xkilldash9x/logwarden/internal/mocks"
	"github.com/xkilldash9x/logwarden/internal/monitor"
	"github.com/xkilldash9x/logwarden/internal/observability"
)

func TestMain(m *testing.M) {
	// Initialize logger
	cfg := config.NewDefaultConfig()
	observability.InitializeLogger(cfg.Logger())

	exitCode := m.Run()

	observability.Sync()
	os.Exit(exitCode)
}

// MockWatcher is a mock implementation of Watcher.
type MockWatcher struct {
	mock.Mock
}

func (m *MockWatcher) Watch(path string, opts monitor.Options) (schemas.WatchResult, error) {
	args := m.Called(path, opts)
	return args.Get(0).(schemas.WatchResult), args.Error(1)
}

func (m *MockWatcher) StopWatching(path string) error {
	return m.Called(path).Error(0)
}

func (m *MockWatcher) StopAll() error {
	return m.Called().Error(0)
}

// emptySource is a history source with nothing watched.
type emptySource struct{}

func (emptySource) Snapshot() []schemas.FileSnapshot { return nil }
func (emptySource) File(string) (schemas.FileSnapshot, bool) {
	return schemas.FileSnapshot{}, false
}

// newLiveFacade wires a facade over a real monitor reading an in-memory filesystem.
func newLiveFacade(t *testing.T, a *mocks.MockAnalyzer) (*Facade, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	logger := zaptest.NewLogger(t)
	m := monitor.New(a, logger, monitor.WithFs(fs))
	t.Cleanup(func() { require.NoError(t, m.Close()) })

	defaults := monitor.Options{PollInterval: monitor.DefaultPollInterval, UsePolling: true, IgnoreInitial: true}
	return NewFacade(logger, m, history.NewAggregator(m), a, defaults, config.MinPollInterval), fs
}

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }
