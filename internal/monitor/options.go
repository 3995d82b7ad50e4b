// internal/monitor/options.go
package monitor

import (
	"time"

	"github.com/spf13/afero"

	"github.com/xkilldash9x/logwarden/api/schemas"
)

const (
	// HistoryLimit is the maximum number of findings retained per file.
	HistoryLimit = 100
	// DefaultPollInterval is used when a watch does not specify one.
	DefaultPollInterval = time.Second
	// DefaultMaxChunkBytes bounds how much new content one pass reads.
	DefaultMaxChunkBytes int64 = 10 * 1000 * 1000
)

// Options controls a single watch.
type Options struct {
	PollInterval time.Duration
	// UsePolling selects the ticker. When false the loop is driven by native
	// filesystem notifications instead.
	UsePolling bool
	// IgnoreInitial skips content already present when the watch starts.
	IgnoreInitial bool
}

// DefaultOptions mirrors the defaults of a watch request with no overrides.
func DefaultOptions() Options {
	return Options{PollInterval: DefaultPollInterval, UsePolling: true}
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithFs sets the filesystem files are read through.
func WithFs(fs afero.Fs) Option {
	return func(m *Monitor) { m.fs = fs }
}

// WithClock overrides the time source used for lastUpdate.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithMaxChunkBytes bounds how many new bytes a single pass reads.
func WithMaxChunkBytes(n int64) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.maxChunk = n
		}
	}
}

// WithFindingHook registers a callback invoked after each finding is recorded.
// It runs on the watch goroutine and must not block.
func WithFindingHook(hook func(path string, f schemas.Finding)) Option {
	return func(m *Monitor) { m.onFinding = hook }
}

// WithParseOptions overrides the options handed to the analyzer.
func WithParseOptions(opts schemas.ParseOptions) Option {
	return func(m *Monitor) { m.parseOpts = opts }
}
