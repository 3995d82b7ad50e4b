// internal/patterns/format.go
package patterns

import (
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/logwarden/api/schemas"
)

// formatSampleLines is how many leading lines DetectFormat inspects.
const formatSampleLines = 10

// DetectFormat guesses whether text is line-delimited JSON or plain text.
// A sampled line counts as JSON only when it is a complete JSON value on its
// own. More than half of the sample must count for the result to be json.
func DetectFormat(text string) schemas.LogFormat {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return schemas.LogFormatPlain
	}

	lines := strings.SplitN(trimmed, "\n", formatSampleLines+1)
	if len(lines) > formatSampleLines {
		lines = lines[:formatSampleLines]
	}

	jsonLines := 0
	for _, line := range lines {
		if isJSONValue(strings.TrimSpace(line)) {
			jsonLines++
		}
	}

	if jsonLines*2 > len(lines) {
		return schemas.LogFormatJSON
	}
	return schemas.LogFormatPlain
}

// isJSONValue reports whether line decodes as exactly one JSON value with
// nothing trailing it.
func isJSONValue(line string) bool {
	if line == "" {
		return false
	}
	var v interface{}
	return json.UnmarshalFromString(line, &v) == nil
}
