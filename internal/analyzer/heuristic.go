// internal/analyzer/heuristic.go
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/patterns"
)

// categoryAdvice maps a QuickScan category to its summary and first remedy.
var categoryAdvice = map[patterns.Category]struct{ issue, fix string }{
	patterns.CategoryDatabase: {"Database connection/timeout issues", "Restart the database service and check the connection pool"},
	patterns.CategoryMemory:   {"Memory exhaustion", "Increase the heap or memory limit and restart the application"},
	patterns.CategoryNetwork:  {"Network connectivity issues", "Check the health of the upstream service and the network configuration"},
	patterns.CategoryAuth:     {"Authentication failures", "Verify credentials and token expiry for the failing client"},
	patterns.CategoryConfig:   {"Configuration problems", "Validate and reload the configuration"},
}

// HeuristicAnalyzer produces findings from local pattern matching alone. It
// never fails for lack of a backend.
type HeuristicAnalyzer struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewHeuristicAnalyzer returns an analyzer that needs no network access.
func NewHeuristicAnalyzer(logger *zap.Logger) *HeuristicAnalyzer {
	return &HeuristicAnalyzer{logger: logger.Named("heuristic-analyzer"), now: time.Now}
}

// Analyze implements Analyzer.
func (h *HeuristicAnalyzer) Analyze(ctx context.Context, text string, _ schemas.ParseOptions) (*schemas.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", schemas.ErrAnalysisUnavailable, err)
	}

	scan := patterns.QuickScan(text)
	f := schemas.Finding{
		FollowUpQuestions: defaultFollowUpQuestions,
		Metadata: schemas.FindingMetadata{
			ErrorType:  "unknown",
			Severity:   severityOf(scan),
			Timestamp:  h.now(),
			StackTrace: strings.Join(patterns.ExtractStackTraces(text), "\n"),
		},
	}

	var issues []string
	for _, c := range scan.Categories {
		advice := categoryAdvice[c]
		issues = append(issues, advice.issue)
		f.SuggestedFixes = append(f.SuggestedFixes, advice.fix)
	}
	if len(scan.Categories) > 0 {
		f.Metadata.ErrorType = string(scan.Categories[0])
	}

	for i, m := range scan.Matches {
		f.Metadata.LineNumbers = append(f.Metadata.LineNumbers, m.MatchLine+1)
		if i < relatedErrorLimit {
			f.RelatedErrors = append(f.RelatedErrors, strings.TrimSpace(matchedLine(m)))
		}
	}

	switch {
	case len(issues) > 0:
		f.RootCause = strings.Join(issues, "; ")
		f.Confidence = 60
	case len(f.RelatedErrors) > 0:
		f.RootCause = f.RelatedErrors[0]
		f.Confidence = 40
	default:
		f.RootCause = "No error-like content detected"
		f.Confidence = 90
	}

	if scan.HasStackTrace {
		f.SuggestedFixes = append(f.SuggestedFixes, "Examine stack traces for exact error locations")
	}
	if len(f.SuggestedFixes) == 0 && scan.Errors > 0 {
		f.SuggestedFixes = append(f.SuggestedFixes, "Review the error patterns identified")
	}

	h.logger.Debug("Heuristic analysis complete.",
		zap.Int("errors", scan.Errors),
		zap.Bool("critical", scan.Critical),
		zap.Int("categories", len(scan.Categories)))

	finding := schemas.NewFinding(f)
	return &finding, nil
}

func severityOf(scan patterns.ScanSummary) schemas.Severity {
	switch {
	case scan.Critical:
		return schemas.SeverityCritical
	case len(scan.Categories) > 0:
		return schemas.SeverityHigh
	case scan.Errors > 0:
		return schemas.SeverityMedium
	default:
		return schemas.SeverityLow
	}
}

func matchedLine(m patterns.ContextMatch) string {
	lines := strings.Split(m.Text, "\n")
	if idx := m.MatchLine - m.StartLine; idx >= 0 && idx < len(lines) {
		return lines[idx]
	}
	return m.Text
}
