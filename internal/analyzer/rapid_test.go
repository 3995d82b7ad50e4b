// internal/analyzer/rapid_test.go
package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/logwarden/api/schemas"
	"github.com/xkilldash9x/logwarden/internal/mocks"
)

// setupRapidDebugger returns a debugger whose analyzer always yields finding.
func setupRapidDebugger(t *testing.T, finding *schemas.Finding, err error) (*RapidDebugger, *mocks.MockAnalyzer) {
	t.Helper()
	a := new(mocks.MockAnalyzer)
	a.On("Analyze", mock.Anything, mock.Anything, schemas.DefaultParseOptions()).Return(finding, err)
	return NewRapidDebugger(a, zaptest.NewLogger(t)), a
}

func TestRapidDebugger_CategoryFixesAndCommands(t *testing.T) {
	tests := []struct {
		name         string
		log          string
		wantCritical []string
		wantIssues   []string
		wantCommand  string
	}{
		{
			name:         "database",
			log:          "ERROR database query error on orders\n",
			wantCritical: []string{"Database connection/timeout issues"},
			wantIssues:   []string{"Database Connection Issues"},
			wantCommand:  "# Database Check",
		},
		{
			name:         "memory",
			log:          "FATAL java.lang.OutOfMemoryError: Java heap space\n",
			wantCritical: []string{"Memory exhaustion"},
			wantIssues:   []string{"Memory Exhaustion"},
		},
		{
			name:         "network",
			log:          "ERROR dial tcp 10.0.0.1:443: connection refused\n",
			wantCritical: []string{"Network connectivity issues"},
			wantIssues:   []string{"Network Connectivity"},
			wantCommand:  "# Network Check",
		},
		{
			name:         "auth has no canned fix",
			log:          "ERROR 401 unauthorized for user bob\n",
			wantCritical: []string{"Authentication failures"},
			wantIssues:   []string{},
		},
		{
			name:         "config",
			log:          "ERROR config file missing key port\n",
			wantCritical: []string{"Configuration problems"},
			wantIssues:   []string{"Configuration Problems"},
		},
		{
			name: "several categories keep a fixed order",
			log:  "ERROR config parse failed\nERROR connection refused\nFATAL out of memory\n",
			wantCritical: []string{
				"Memory exhaustion",
				"Network connectivity issues",
				"Configuration problems",
			},
			wantIssues:  []string{"Memory Exhaustion", "Network Connectivity", "Configuration Problems"},
			wantCommand: "# Network Check",
		},
	}

	for _, tc := range tests {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			d, _ := setupRapidDebugger(t, &schemas.Finding{RootCause: "rc", Confidence: 50, SuggestedFixes: []string{}}, nil)

			res, err := d.Debug(context.Background(), tt.log)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCritical, res.CriticalErrors)
			issues := []string{}
			for _, fix := range res.QuickFixes {
				issues = append(issues, fix.Issue)
				assert.NotEmpty(t, fix.Command, "canned fixes carry a command")
			}
			assert.Equal(t, tt.wantIssues, issues)

			assert.Equal(t, "# Quick Health Check", res.DebugCommands[0])
			if tt.wantCommand != "" {
				assert.Contains(t, res.DebugCommands, tt.wantCommand)
			}
			assert.Equal(t, "rc", res.RootCause)
		})
	}
}

func TestRapidDebugger_DatabaseFixDetails(t *testing.T) {
	d, _ := setupRapidDebugger(t, &schemas.Finding{Confidence: 90}, nil)

	res, err := d.Debug(context.Background(), "ERROR database connection error\n")
	require.NoError(t, err)
	require.NotEmpty(t, res.QuickFixes)

	fix := res.QuickFixes[0]
	assert.Equal(t, schemas.PriorityHigh, fix.Priority)
	assert.Equal(t, "2-5 minutes", fix.EstimatedTime)
	assert.Contains(t, fix.Command, "systemctl restart mysql")
	assert.NotContains(t, res.DebugCommands, "# Network Check")
}

func TestRapidDebugger_SuggestedFixesAreCapped(t *testing.T) {
	finding := &schemas.Finding{
		RootCause:      "bad deploy",
		Confidence:     70,
		SuggestedFixes: []string{"roll back", "clear cache", "restart", "page oncall"},
	}
	d, _ := setupRapidDebugger(t, finding, nil)

	res, err := d.Debug(context.Background(), "INFO all quiet\n")
	require.NoError(t, err)

	require.Len(t, res.QuickFixes, suggestedFixLimit)
	assert.Equal(t, "Suggested Fix 1", res.QuickFixes[0].Issue)
	assert.Equal(t, "roll back", res.QuickFixes[0].Fix)
	assert.Equal(t, "restart", res.QuickFixes[2].Fix)
	for _, fix := range res.QuickFixes {
		assert.Equal(t, schemas.PriorityMedium, fix.Priority)
		assert.Empty(t, fix.Command)
	}
	assert.Empty(t, res.CriticalErrors)
	assert.NotNil(t, res.CriticalErrors)
}

func TestRapidDebugger_NextSteps(t *testing.T) {
	tests := []struct {
		name       string
		log        string
		confidence int
		want       []string
	}{
		{
			name:       "high confidence with critical errors and a trace",
			log:        "ERROR connection refused\n    at dial (net.js:10:5)\n",
			confidence: 81,
			want: []string{
				"Address critical errors first (database, memory, network)",
				"Examine stack traces for exact error locations",
				"High confidence analysis: follow the suggested fixes",
				"Monitor system metrics during fixes",
				"Test application functionality after each fix",
			},
		},
		{
			name:       "confidence at the threshold is low",
			log:        "INFO nothing to see\n",
			confidence: 80,
			want: []string{
				"Low confidence: gather more context and logs",
				"Monitor system metrics during fixes",
				"Test application functionality after each fix",
			},
		},
	}

	for _, tc := range tests {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			d, _ := setupRapidDebugger(t, &schemas.Finding{Confidence: tt.confidence}, nil)
			res, err := d.Debug(context.Background(), tt.log)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.NextSteps)
			assert.Equal(t, tt.confidence, res.Confidence)
		})
	}
}

func TestRapidDebugger_ElapsedTime(t *testing.T) {
	d, _ := setupRapidDebugger(t, &schemas.Finding{}, nil)
	tick := fixedTime
	d.now = func() time.Time {
		now := tick
		tick = tick.Add(250 * time.Millisecond)
		return now
	}

	res, err := d.Debug(context.Background(), "ERROR boom\n")
	require.NoError(t, err)
	assert.Equal(t, int64(250), res.TimeToAnalysisMs)
}

func TestRapidDebugger_AnalyzerFailures(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		boom := errors.New("backend down")
		d, _ := setupRapidDebugger(t, nil, boom)

		res, err := d.Debug(context.Background(), "ERROR boom\n")
		assert.Nil(t, res)
		assert.ErrorIs(t, err, schemas.ErrAnalysisUnavailable)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nil finding", func(t *testing.T) {
		d, _ := setupRapidDebugger(t, nil, nil)

		res, err := d.Debug(context.Background(), "ERROR boom\n")
		assert.Nil(t, res)
		assert.ErrorIs(t, err, schemas.ErrAnalysisUnavailable)
	})
}

func TestRapidDebugger_WithHeuristicAnalyzer(t *testing.T) {
	d := NewRapidDebugger(NewHeuristicAnalyzer(zaptest.NewLogger(t)), zaptest.NewLogger(t))

	res, err := d.Debug(context.Background(), "ERROR database timeout while saving\n")
	require.NoError(t, err)
	assert.Contains(t, res.CriticalErrors, "Database connection/timeout issues")
	assert.NotEmpty(t, res.RootCause)
}
