package schemas

import (
	"errors"
	"time"
)

// -- Error Taxonomy --

var (
	// ErrPathUnreadable means the path is missing, is a directory, or cannot
	// be opened for reading at watch time.
	ErrPathUnreadable = errors.New("path unreadable")
	// ErrNotWatched means an operation referenced a path without an active watch.
	ErrNotWatched = errors.New("path not watched")
	// ErrAnalysisUnavailable means the analysis backend failed for a chunk.
	// The chunk is retried on the next growth tick.
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
)

// -- Watch State Schemas --

// FileSnapshot is a copy of one watched file's state taken at a single point
// in time. History is oldest first.
type FileSnapshot struct {
	Path         string        `json:"path"`
	Offset       int64         `json:"offset"`
	History      []Finding     `json:"history"`
	LastUpdate   time.Time     `json:"lastUpdate"`
	PollInterval time.Duration `json:"-"`
}

// WatchResult is returned when a watch starts.
type WatchResult struct {
	Path           string `json:"path"`
	PollIntervalMs int64  `json:"pollIntervalMs"`
}

// StopResult is returned when a watch is torn down.
type StopResult struct {
	Path string `json:"path"`
}

// FileSummary describes one watched file for listings.
type FileSummary struct {
	Path         string    `json:"path"`
	RecentErrors []Finding `json:"recentErrors"`
	TotalErrors  int       `json:"totalErrors"`
	LastUpdate   time.Time `json:"lastUpdate"`
}

// -- Façade Envelope --

// ResultCode classifies a failed façade call.
type ResultCode string

const (
	CodePathUnreadable ResultCode = "PATH_UNREADABLE"
	CodeNotWatched     ResultCode = "NOT_WATCHED"
	CodeInvalidRequest ResultCode = "INVALID_REQUEST"
	CodeInternal       ResultCode = "INTERNAL"
)

// Result is the tagged success/failure envelope every façade operation returns.
type Result struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
	Code    ResultCode `json:"code,omitempty"`
}
