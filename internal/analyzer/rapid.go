// internal/analyzer/rapid.go
package analyzer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/patterns"
)

// suggestedFixLimit caps how many analyzer fixes are folded into the plan.
const suggestedFixLimit = 3

// highConfidence is the confidence above which the analyzer's suggestions
// are trusted as the primary plan.
const highConfidence = 80

// rapidOrder is the order critical errors and fixes are reported in.
var rapidOrder = []patterns.Category{
	patterns.CategoryDatabase,
	patterns.CategoryMemory,
	patterns.CategoryNetwork,
	patterns.CategoryAuth,
	patterns.CategoryConfig,
}

// categoryFixes holds the canned remediation per category. Auth failures
// have no generic command.
var categoryFixes = map[patterns.Category]schemas.QuickFix{
	patterns.CategoryDatabase: {
		Issue:         "Database Connection Issues",
		Fix:           "Restart database service and check connection pool",
		Command:       "sudo systemctl restart mysql && docker ps | grep database",
		Priority:      schemas.PriorityHigh,
		EstimatedTime: "2-5 minutes",
	},
	patterns.CategoryMemory: {
		Issue:         "Memory Exhaustion",
		Fix:           "Increase heap size and restart application",
		Command:       `export JAVA_OPTS="-Xmx2g" && systemctl restart app`,
		Priority:      schemas.PriorityHigh,
		EstimatedTime: "1-3 minutes",
	},
	patterns.CategoryNetwork: {
		Issue:         "Network Connectivity",
		Fix:           "Check service health and network configuration",
		Command:       "curl -I http://api-service:8080/health",
		Priority:      schemas.PriorityMedium,
		EstimatedTime: "30 seconds",
	},
	patterns.CategoryConfig: {
		Issue:         "Configuration Problems",
		Fix:           "Validate and reload configuration",
		Command:       "nginx -t && systemctl reload nginx",
		Priority:      schemas.PriorityMedium,
		EstimatedTime: "1 minute",
	},
}

var baseDebugCommands = []string{
	"# Quick Health Check",
	"systemctl status --no-pager",
	"df -h | head -5",
	"free -m",
	"",
	"# Recent Logs",
	`journalctl -u myapp --since "5 minutes ago" --no-pager`,
	"tail -n 50 /var/log/app/error.log",
	"",
	"# Process Check",
	`ps aux | grep -E "(java|python|node)" | head -5`,
	"netstat -tulpn | grep :8080",
}

var categoryDebugCommands = map[patterns.Category][]string{
	patterns.CategoryDatabase: {"", "# Database Check", `mysql -e "SHOW PROCESSLIST;" 2>/dev/null || echo "Database unreachable"`},
	patterns.CategoryNetwork:  {"", "# Network Check", "ping -c 3 api-service", "curl -I http://localhost:8080/health"},
}

// RapidDebugger turns a block of log text into a remediation plan using one
// pattern pass and one analysis pass.
type RapidDebugger struct {
	analyzer Analyzer
	logger   *zap.Logger
	now      func() time.Time
}

// NewRapidDebugger creates a debugger that asks a for the root cause.
func NewRapidDebugger(a Analyzer, logger *zap.Logger) *RapidDebugger {
	return &RapidDebugger{analyzer: a, logger: logger.Named("rapid-debugger"), now: time.Now}
}

// Debug builds the plan for text. Analyzer failures are returned wrapped in
// schemas.ErrAnalysisUnavailable.
func (d *RapidDebugger) Debug(ctx context.Context, text string) (*schemas.RapidDebugResult, error) {
	start := d.now()

	scan := patterns.QuickScan(text)
	finding, err := d.analyzer.Analyze(ctx, text, schemas.DefaultParseOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schemas.ErrAnalysisUnavailable, err)
	}
	if finding == nil {
		return nil, fmt.Errorf("%w: analyzer returned no finding", schemas.ErrAnalysisUnavailable)
	}

	present := make(map[patterns.Category]bool, len(scan.Categories))
	for _, c := range scan.Categories {
		present[c] = true
	}

	res := &schemas.RapidDebugResult{
		CriticalErrors: []string{},
		QuickFixes:     []schemas.QuickFix{},
		DebugCommands:  append([]string(nil), baseDebugCommands...),
		RootCause:      finding.RootCause,
		Confidence:     finding.Confidence,
	}
	for _, c := range rapidOrder {
		if !present[c] {
			continue
		}
		res.CriticalErrors = append(res.CriticalErrors, categoryAdvice[c].issue)
		if fix, ok := categoryFixes[c]; ok {
			res.QuickFixes = append(res.QuickFixes, fix)
		}
		res.DebugCommands = append(res.DebugCommands, categoryDebugCommands[c]...)
	}
	for i, fix := range finding.SuggestedFixes {
		if i == suggestedFixLimit {
			break
		}
		res.QuickFixes = append(res.QuickFixes, schemas.QuickFix{
			Issue:         fmt.Sprintf("Suggested Fix %d", i+1),
			Fix:           fix,
			Priority:      schemas.PriorityMedium,
			EstimatedTime: "2-5 minutes",
		})
	}
	res.NextSteps = nextSteps(len(res.CriticalErrors) > 0, scan.HasStackTrace, finding.Confidence)
	res.TimeToAnalysisMs = d.now().Sub(start).Milliseconds()

	d.logger.Debug("Rapid debug complete.",
		zap.Int("critical_errors", len(res.CriticalErrors)),
		zap.Int("quick_fixes", len(res.QuickFixes)),
		zap.Int64("elapsed_ms", res.TimeToAnalysisMs))
	return res, nil
}

func nextSteps(critical, hasStackTrace bool, confidence int) []string {
	var steps []string
	if critical {
		steps = append(steps, "Address critical errors first (database, memory, network)")
	}
	if hasStackTrace {
		steps = append(steps, "Examine stack traces for exact error locations")
	}
	if confidence > highConfidence {
		steps = append(steps, "High confidence analysis: follow the suggested fixes")
	} else {
		steps = append(steps, "Low confidence: gather more context and logs")
	}
	return append(steps,
		"Monitor system metrics during fixes",
		"Test application functionality after each fix")
}
