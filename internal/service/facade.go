// internal/service/facade.go
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/analyzer"
	"github.com/xkilldash9x/logwarden/internal/history"
	"github.com/xkilldash9x/logwarden/internal/monitor"
	"github.com/xkilldash9x/logwarden/internal/patterns"
)

// Watcher is the part of the monitor the facade drives.
type Watcher interface {
	Watch(path string, opts monitor.Options) (schemas.WatchResult, error)
	StopWatching(path string) error
	StopAll() error
}

// Facade exposes the monitoring operations with validated requests and a
// uniform result envelope. It never panics on bad input.
type Facade struct {
	logger     *zap.Logger
	watcher    Watcher
	aggregator *history.Aggregator
	analyzer   analyzer.Analyzer
	debugger   *analyzer.RapidDebugger
	defaults   monitor.Options
	minPoll    time.Duration
}

// NewFacade wires a Facade. defaults supplies the options of fields a
// WatchRequest leaves unset.
func NewFacade(logger *zap.Logger, w Watcher, agg *history.Aggregator, a analyzer.Analyzer, defaults monitor.Options, minPoll time.Duration) *Facade {
	return &Facade{
		logger:     logger.Named("facade"),
		watcher:    w,
		aggregator: agg,
		analyzer:   a,
		debugger:   analyzer.NewRapidDebugger(a, logger),
		defaults:   defaults,
		minPoll:    minPoll,
	}
}

func succeed(data any) schemas.Result {
	return schemas.Result{Success: true, Data: data}
}

// fail maps err onto the envelope's error codes.
func (f *Facade) fail(op string, err error) schemas.Result {
	code := schemas.CodeInternal
	switch {
	case errors.Is(err, ErrInvalidRequest):
		code = schemas.CodeInvalidRequest
	case errors.Is(err, schemas.ErrPathUnreadable):
		code = schemas.CodePathUnreadable
	case errors.Is(err, schemas.ErrNotWatched):
		code = schemas.CodeNotWatched
	}
	if code == schemas.CodeInternal {
		f.logger.Error("Operation failed.", zap.String("op", op), zap.Error(err))
	} else {
		f.logger.Debug("Request rejected.", zap.String("op", op), zap.String("code", string(code)), zap.Error(err))
	}
	return schemas.Result{Success: false, Error: err.Error(), Code: code}
}

// Watch starts monitoring req.Path.
func (f *Facade) Watch(req WatchRequest) schemas.Result {
	if err := req.Validate(f.minPoll); err != nil {
		return f.fail("watch", err)
	}
	res, err := f.watcher.Watch(req.Path, req.options(f.defaults))
	if err != nil {
		return f.fail("watch", err)
	}
	return succeed(res)
}

// StopWatching ends monitoring of req.Path.
func (f *Facade) StopWatching(req StopWatchingRequest) schemas.Result {
	if err := req.Validate(); err != nil {
		return f.fail("stop_watching", err)
	}
	if err := f.watcher.StopWatching(req.Path); err != nil {
		return f.fail("stop_watching", err)
	}
	return succeed(schemas.StopResult{Path: req.Path})
}

// StopAll ends every watch.
func (f *Facade) StopAll() schemas.Result {
	if err := f.watcher.StopAll(); err != nil {
		return f.fail("stop_all", err)
	}
	return succeed(nil)
}

// ListWatchedFiles summarizes every watched file.
func (f *Facade) ListWatchedFiles() schemas.Result {
	return succeed(f.aggregator.ListWatchedFiles())
}

// GetRecentErrors returns stored findings for one file or all of them.
func (f *Facade) GetRecentErrors(req RecentErrorsRequest) schemas.Result {
	if err := req.Validate(); err != nil {
		return f.fail("get_recent_errors", err)
	}
	findings, err := f.aggregator.GetRecentErrors(req.Path, req.Limit)
	if err != nil {
		return f.fail("get_recent_errors", err)
	}
	return succeed(findings)
}

// AnalyzeLog analyzes a block of text outside of any watch.
func (f *Facade) AnalyzeLog(ctx context.Context, req AnalyzeRequest) schemas.Result {
	if err := req.Validate(); err != nil {
		return f.fail("analyze_log", err)
	}
	finding, err := f.analyzer.Analyze(ctx, req.LogText, schemas.ParseOptions{
		LogFormat:    req.LogFormat,
		ContextLines: req.ContextLines,
	})
	if err != nil {
		return f.fail("analyze_log", err)
	}
	if finding == nil {
		return f.fail("analyze_log", schemas.ErrAnalysisUnavailable)
	}
	return succeed(*finding)
}

// QuickScan classifies a block of text locally.
func (f *Facade) QuickScan(req QuickScanRequest) schemas.Result {
	if err := req.Validate(); err != nil {
		return f.fail("quick_scan", err)
	}
	return succeed(patterns.QuickScan(req.LogText))
}

// RapidDebug builds a remediation plan for a block of text.
func (f *Facade) RapidDebug(ctx context.Context, req RapidDebugRequest) schemas.Result {
	if err := req.Validate(); err != nil {
		return f.fail("rapid_debug", err)
	}
	res, err := f.debugger.Debug(ctx, req.LogText)
	if err != nil {
		return f.fail("rapid_debug", err)
	}
	return succeed(*res)
}
