// internal/service/requests.go
package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/monitor"
)

// MaxRecentErrorsLimit caps the number of findings a single query returns.
const MaxRecentErrorsLimit = 1000

// ErrInvalidRequest marks a request rejected before it reached the monitor.
var ErrInvalidRequest = errors.New("invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// normalizePath expands a leading ~ and makes p absolute so one file always
// maps to one registry key.
func normalizePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", invalid("path is required")
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", invalid("cannot expand %q: %v", p, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", invalid("cannot resolve %q: %v", p, err)
	}
	return abs, nil
}

// WatchRequest starts monitoring a file. Nil fields take the configured defaults.
type WatchRequest struct {
	Path           string `json:"path"`
	PollIntervalMs *int   `json:"pollIntervalMs,omitempty"`
	IgnoreInitial  *bool  `json:"ignoreInitial,omitempty"`
	UsePolling     *bool  `json:"usePolling,omitempty"`
}

// Validate normalizes the path and checks the poll interval against min.
func (r *WatchRequest) Validate(min time.Duration) error {
	p, err := normalizePath(r.Path)
	if err != nil {
		return err
	}
	r.Path = p
	if r.PollIntervalMs != nil {
		d := time.Duration(*r.PollIntervalMs) * time.Millisecond
		if d < min {
			return invalid("pollIntervalMs must be at least %d", min.Milliseconds())
		}
	}
	return nil
}

// options resolves the request against defaults.
func (r WatchRequest) options(defaults monitor.Options) monitor.Options {
	opts := defaults
	if r.PollIntervalMs != nil {
		opts.PollInterval = time.Duration(*r.PollIntervalMs) * time.Millisecond
	}
	if r.IgnoreInitial != nil {
		opts.IgnoreInitial = *r.IgnoreInitial
	}
	if r.UsePolling != nil {
		opts.UsePolling = *r.UsePolling
	}
	return opts
}

// StopWatchingRequest ends monitoring of a file.
type StopWatchingRequest struct {
	Path string `json:"path"`
}

func (r *StopWatchingRequest) Validate() error {
	p, err := normalizePath(r.Path)
	if err != nil {
		return err
	}
	r.Path = p
	return nil
}

// RecentErrorsRequest queries stored findings. An empty Path spans all files;
// a zero Limit means the default.
type RecentErrorsRequest struct {
	Path  string `json:"path,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

func (r *RecentErrorsRequest) Validate() error {
	if r.Limit < 0 || r.Limit > MaxRecentErrorsLimit {
		return invalid("limit must be between 0 and %d", MaxRecentErrorsLimit)
	}
	if strings.TrimSpace(r.Path) == "" {
		r.Path = ""
		return nil
	}
	p, err := normalizePath(r.Path)
	if err != nil {
		return err
	}
	r.Path = p
	return nil
}

// AnalyzeRequest runs one analysis over a block of log text.
type AnalyzeRequest struct {
	LogText      string            `json:"logText"`
	LogFormat    schemas.LogFormat `json:"logFormat,omitempty"`
	ContextLines int               `json:"contextLines,omitempty"`
}

func (r *AnalyzeRequest) Validate() error {
	if strings.TrimSpace(r.LogText) == "" {
		return invalid("logText is required")
	}
	switch r.LogFormat {
	case "":
		r.LogFormat = schemas.LogFormatAuto
	case schemas.LogFormatAuto, schemas.LogFormatJSON, schemas.LogFormatPlain:
	default:
		return invalid("unsupported logFormat %q", r.LogFormat)
	}
	if r.ContextLines < 0 {
		return invalid("contextLines must not be negative")
	}
	if r.ContextLines == 0 {
		r.ContextLines = schemas.DefaultParseOptions().ContextLines
	}
	return nil
}

// QuickScanRequest runs the local scan over a block of log text.
type QuickScanRequest struct {
	LogText string `json:"logText"`
}

func (r *QuickScanRequest) Validate() error {
	if strings.TrimSpace(r.LogText) == "" {
		return invalid("logText is required")
	}
	return nil
}

// RapidDebugRequest asks for a remediation plan over a block of log text.
type RapidDebugRequest struct {
	LogText string `json:"logText"`
}

func (r *RapidDebugRequest) Validate() error {
	if strings.TrimSpace(r.LogText) == "" {
		return invalid("logText is required")
	}
	return nil
}
