package schemas

import (
	"strings"
	"time"
)

// -- Finding Schemas --

// Severity represents how urgent a finding is. The values are lowercase to
// match the wire format.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ParseSeverity normalizes s to one of the known severities. Anything it does
// not recognize is treated as medium.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityHigh:
		return SeverityHigh
	case SeverityLow:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// FindingMetadata carries the classification details of a Finding.
type FindingMetadata struct {
	ErrorType   string    `json:"errorType"`
	Severity    Severity  `json:"severity"`
	Timestamp   time.Time `json:"timestamp"`
	LineNumbers []int     `json:"lineNumbers,omitempty"`
	StackTrace  string    `json:"stackTrace,omitempty"`
}

// Finding is the immutable result of one analysis pass over a chunk of log
// text. Build it with NewFinding so the confidence is clamped and the slices
// are never nil.
type Finding struct {
	RootCause         string          `json:"rootCause"`
	Confidence        int             `json:"confidence"` // 0 to 100.
	SuggestedFixes    []string        `json:"suggestedFixes"`
	RelatedErrors     []string        `json:"relatedErrors"`
	FollowUpQuestions []string        `json:"followUpQuestions"`
	Metadata          FindingMetadata `json:"metadata"`
}

// ClampConfidence restricts c to the closed range [0, 100].
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// NewFinding returns f with its invariants enforced.
func NewFinding(f Finding) Finding {
	f.Confidence = ClampConfidence(f.Confidence)
	f.SuggestedFixes = nonNil(f.SuggestedFixes)
	f.RelatedErrors = nonNil(f.RelatedErrors)
	f.FollowUpQuestions = nonNil(f.FollowUpQuestions)
	f.Metadata.Severity = ParseSeverity(string(f.Metadata.Severity))
	if f.Metadata.ErrorType == "" {
		f.Metadata.ErrorType = "unknown"
	}
	if f.Metadata.Timestamp.IsZero() {
		f.Metadata.Timestamp = time.Now()
	}
	return f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
