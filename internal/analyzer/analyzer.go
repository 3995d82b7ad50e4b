// internal/analyzer/analyzer.go
package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/patterns"
)

// Analyzer turns a chunk of log text into a Finding. Implementations return an
// error wrapping schemas.ErrAnalysisUnavailable when the backend could not be
// reached, so the caller can retry the same content later.
type Analyzer interface {
	Analyze(ctx context.Context, text string, opts schemas.ParseOptions) (*schemas.Finding, error)
}

// relatedErrorLimit is how many error windows a fallback finding carries.
const relatedErrorLimit = 3

var defaultFollowUpQuestions = []string{
	"What actions were being performed when the error occurred?",
	"Has this error happened before?",
	"Were there any recent changes to the system?",
}

// Fallback builds the low confidence finding used when a backend answered but
// its output could not be used. now stamps the finding.
func Fallback(text string, now time.Time) schemas.Finding {
	matches := patterns.ExtractErrorPatterns(text)

	related := make([]string, 0, relatedErrorLimit)
	for i := 0; i < len(matches) && i < relatedErrorLimit; i++ {
		related = append(related, matches[i].Text)
	}

	severity := schemas.SeverityMedium
	if len(matches) > 5 {
		severity = schemas.SeverityHigh
	}

	return schemas.NewFinding(schemas.Finding{
		RootCause:  "AI analysis failed, but errors detected in logs",
		Confidence: 30,
		SuggestedFixes: []string{
			"Review the error patterns identified",
			"Check application configuration",
			"Examine stack traces for debugging",
		},
		RelatedErrors:     related,
		FollowUpQuestions: defaultFollowUpQuestions,
		Metadata: schemas.FindingMetadata{
			ErrorType:  "unknown",
			Severity:   severity,
			Timestamp:  now,
			StackTrace: strings.Join(patterns.ExtractStackTraces(text), "\n"),
		},
	})
}
