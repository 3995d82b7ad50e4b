// internal/analyzer/llm.go
package analyzer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/patterns"
)

const (
	defaultRequestTimeout = 60 * time.Second
	defaultTemperature    = 0.2
)

// LLMAnalyzer sends error-bearing log excerpts to a language model and turns
// the structured reply into a Finding.
type LLMAnalyzer struct {
	logger      *zap.Logger
	llmClient   schemas.LLMClient
	limiter     *rate.Limiter
	timeout     time.Duration
	maxTokens   int
	temperature float64
	now         func() time.Time
}

// Option configures an LLMAnalyzer.
type Option func(*LLMAnalyzer)

// WithRateLimit bounds how often the backend is called across all files.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(a *LLMAnalyzer) {
		a.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithTimeout sets the per-request latency budget.
func WithTimeout(d time.Duration) Option {
	return func(a *LLMAnalyzer) { a.timeout = d }
}

// WithMaxContextTokens sets the prompt content budget.
func WithMaxContextTokens(n int) Option {
	return func(a *LLMAnalyzer) { a.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(a *LLMAnalyzer) { a.temperature = t }
}

// WithClock overrides the finding timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *LLMAnalyzer) { a.now = now }
}

// NewLLMAnalyzer initializes a new LLM-backed analyzer.
func NewLLMAnalyzer(logger *zap.Logger, llmClient schemas.LLMClient, opts ...Option) *LLMAnalyzer {
	a := &LLMAnalyzer{
		logger:      logger.Named("llm-analyzer"),
		llmClient:   llmClient,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		timeout:     defaultRequestTimeout,
		maxTokens:   patterns.DefaultMaxTokens,
		temperature: defaultTemperature,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze implements Analyzer.
func (a *LLMAnalyzer) Analyze(ctx context.Context, text string, opts schemas.ParseOptions) (*schemas.Finding, error) {
	format, content := a.preprocess(text, opts)

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", schemas.ErrAnalysisUnavailable, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req := schemas.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(format, content),
		Tier:         schemas.TierFast,
		Options: schemas.GenerationOptions{
			ForceJSONFormat: true,
			Temperature:     a.temperature,
		},
	}

	start := time.Now()
	response, err := a.llmClient.Generate(reqCtx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schemas.ErrAnalysisUnavailable, err)
	}

	finding, err := parseFinding(response, text, a.now())
	if err != nil {
		a.logger.Warn("Failed to parse LLM response, using fallback finding.",
			zap.Error(err), zap.Int("response_len", len(response)))
		fb := Fallback(text, a.now())
		return &fb, nil
	}

	a.logger.Debug("Analysis complete.",
		zap.String("format", string(format)),
		zap.Int("confidence", finding.Confidence),
		zap.String("severity", string(finding.Metadata.Severity)),
		zap.Duration("latency", time.Since(start)))
	return &finding, nil
}

// preprocess resolves the log format and reduces text to its error windows
// within the token budget.
func (a *LLMAnalyzer) preprocess(text string, opts schemas.ParseOptions) (schemas.LogFormat, string) {
	format := opts.LogFormat
	if format == "" || format == schemas.LogFormatAuto {
		format = patterns.DetectFormat(text)
	}

	content := text
	if matches := patterns.ExtractErrorPatterns(text); len(matches) > 0 {
		content = patterns.JoinMatches(matches)
	}
	return format, patterns.TruncateToBudget(content, a.maxTokens)
}
