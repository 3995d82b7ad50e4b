// internal/analyzer/response.go
package analyzer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/llmutil"
	"github.com/xkilldash9x/logwarden/internal/patterns"
)

// llmFinding mirrors the JSON the model is asked to return. Its field types
// accept the loose shapes models tend to produce.
type llmFinding struct {
	RootCause         string       `json:"rootCause"`
	Confidence        looseInt     `json:"confidence"`
	SuggestedFixes    looseStrings `json:"suggestedFixes"`
	RelatedErrors     looseStrings `json:"relatedErrors"`
	FollowUpQuestions looseStrings `json:"followUpQuestions"`
	Metadata          *struct {
		ErrorType   string    `json:"errorType"`
		Severity    string    `json:"severity"`
		LineNumbers looseInts `json:"lineNumbers"`
		StackTrace  string    `json:"stackTrace"`
	} `json:"metadata"`
}

// parseFinding converts a raw model response into a Finding. original is the
// unprocessed log text and supplies the stack trace when the model gave none.
func parseFinding(response, original string, now time.Time) (schemas.Finding, error) {
	parsed, err := llmutil.ParseJSONObject[llmFinding](response)
	if err != nil {
		return schemas.Finding{}, err
	}

	f := schemas.Finding{
		RootCause:         strings.TrimSpace(parsed.RootCause),
		Confidence:        int(parsed.Confidence),
		SuggestedFixes:    parsed.SuggestedFixes,
		RelatedErrors:     parsed.RelatedErrors,
		FollowUpQuestions: parsed.FollowUpQuestions,
		Metadata:          schemas.FindingMetadata{Timestamp: now},
	}
	if f.RootCause == "" {
		f.RootCause = "Unable to determine root cause"
	}
	if md := parsed.Metadata; md != nil {
		f.Metadata.ErrorType = strings.TrimSpace(md.ErrorType)
		f.Metadata.Severity = schemas.Severity(md.Severity)
		f.Metadata.LineNumbers = md.LineNumbers
		f.Metadata.StackTrace = md.StackTrace
	}
	if f.Metadata.StackTrace == "" {
		f.Metadata.StackTrace = strings.Join(patterns.ExtractStackTraces(original), "\n")
	}
	return schemas.NewFinding(f), nil
}

// looseInt decodes a JSON number or numeric string, clamped to [0, 100].
// Anything else decodes as 0.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	*n = 0
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	*n = looseInt(schemas.ClampConfidence(int(math.Round(math.Max(-1, math.Min(101, f))))))
	return nil
}

// looseStrings decodes an array of arbitrary scalars as strings. Non-array
// values decode as an empty list.
type looseStrings []string

func (s *looseStrings) UnmarshalJSON(b []byte) error {
	*s = nil
	var items []interface{}
	if err := json.Unmarshal(b, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case nil:
		case string:
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	*s = out
	return nil
}

// looseInts decodes an array of numbers, skipping entries that are not numeric.
type looseInts []int

func (s *looseInts) UnmarshalJSON(b []byte) error {
	*s = nil
	var items []interface{}
	if err := json.Unmarshal(b, &items); err != nil {
		return nil
	}
	for _, item := range items {
		switch v := item.(type) {
		case float64:
			*s = append(*s, int(v))
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*s = append(*s, n)
			}
		}
	}
	return nil
}
