package schemas

// -- Rapid Debug Schemas --

// Priority orders quick fixes.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// QuickFix is one remediation step. Command is a shell command an operator
// can run, when one is known.
type QuickFix struct {
	Issue         string   `json:"issue"`
	Fix           string   `json:"fix"`
	Command       string   `json:"command,omitempty"`
	Priority      Priority `json:"priority"`
	EstimatedTime string   `json:"estimatedTime"`
}

// RapidDebugResult combines a local pattern pass with one analysis pass into
// an ordered remediation plan.
type RapidDebugResult struct {
	// TimeToAnalysisMs is the wall time of the whole pass in milliseconds.
	TimeToAnalysisMs int64      `json:"timeToAnalysis"`
	CriticalErrors   []string   `json:"criticalErrors"`
	QuickFixes       []QuickFix `json:"quickFixes"`
	DebugCommands    []string   `json:"debugCommands"`
	RootCause        string     `json:"rootCause"`
	Confidence       int        `json:"confidence"`
	NextSteps        []string   `json:"nextSteps"`
}
