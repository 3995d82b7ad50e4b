package schemas_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/logwarden/api/schemas"
)

// -- Test Helpers --

// getTestTime provides a fixed, reproducible timestamp for consistent test results.
func getTestTime(t *testing.T) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, "2025-10-26T10:00:00.123456789Z")
	require.NoError(t, err, "Test setup failed: unable to parse fixed timestamp")
	return ts
}

// -- Finding Construction --

func TestClampConfidence(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, schemas.ClampConfidence(-5))
	assert.Equal(t, 0, schemas.ClampConfidence(0))
	assert.Equal(t, 55, schemas.ClampConfidence(55))
	assert.Equal(t, 100, schemas.ClampConfidence(100))
	assert.Equal(t, 100, schemas.ClampConfidence(240))
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()
	tests := map[string]schemas.Severity{
		"critical": schemas.SeverityCritical,
		" HIGH ":   schemas.SeverityHigh,
		"low":      schemas.SeverityLow,
		"medium":   schemas.SeverityMedium,
		"urgent":   schemas.SeverityMedium,
		"":         schemas.SeverityMedium,
	}
	for in, want := range tests {
		assert.Equal(t, want, schemas.ParseSeverity(in), "input %q", in)
	}
}

func TestNewFinding_EnforcesInvariants(t *testing.T) {
	t.Parallel()
	f := schemas.NewFinding(schemas.Finding{
		RootCause:  "disk full",
		Confidence: 150,
		Metadata:   schemas.FindingMetadata{Severity: "bogus"},
	})

	assert.Equal(t, 100, f.Confidence)
	assert.NotNil(t, f.SuggestedFixes)
	assert.NotNil(t, f.RelatedErrors)
	assert.NotNil(t, f.FollowUpQuestions)
	assert.Equal(t, schemas.SeverityMedium, f.Metadata.Severity)
	assert.Equal(t, "unknown", f.Metadata.ErrorType)
	assert.False(t, f.Metadata.Timestamp.IsZero(), "a zero timestamp is replaced with now")
}

func TestNewFinding_CopiesSlices(t *testing.T) {
	t.Parallel()
	fixes := []string{"restart"}
	f := schemas.NewFinding(schemas.Finding{SuggestedFixes: fixes})
	fixes[0] = "mutated"
	assert.Equal(t, "restart", f.SuggestedFixes[0])
}

// TestFinding_WireShape pins the JSON layout consumed by façade clients.
func TestFinding_WireShape(t *testing.T) {
	t.Parallel()
	ts := getTestTime(t)
	f := schemas.NewFinding(schemas.Finding{
		RootCause:      "connection refused",
		Confidence:     80,
		SuggestedFixes: []string{"check the database"},
		Metadata: schemas.FindingMetadata{
			ErrorType: "network",
			Severity:  schemas.SeverityHigh,
			Timestamp: ts,
		},
	})

	raw, err := json.Marshal(f)
	require.NoError(t, err)

	var actual map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &actual))

	expected := map[string]interface{}{
		"rootCause":         "connection refused",
		"confidence":        float64(80),
		"suggestedFixes":    []interface{}{"check the database"},
		"relatedErrors":     []interface{}{},
		"followUpQuestions": []interface{}{},
		"metadata": map[string]interface{}{
			"errorType": "network",
			"severity":  "high",
			"timestamp": "2025-10-26T10:00:00.123456789Z",
		},
	}
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}
