// internal/llmutil/parser.go
package llmutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	json "github.com/json-iterator/go"
)

// ErrNoJSONObject is returned when a response holds nothing that looks like a JSON object.
var ErrNoJSONObject = errors.New("no JSON object found in response")

// fencedObjectRegex pulls an object out of a markdown fence. \x60 is a backtick.
var fencedObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")

// ExtractJSONObject returns the outermost {...} span of an LLM response. It
// handles markdown fences and conversational text wrapped around the object.
func ExtractJSONObject(response string) (string, error) {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```") {
		if m := fencedObjectRegex.FindStringSubmatch(response); len(m) > 1 {
			return m[1], nil
		}
	}

	first := strings.Index(response, "{")
	last := strings.LastIndex(response, "}")
	if first == -1 || last <= first {
		return "", ErrNoJSONObject
	}
	return response[first : last+1], nil
}

// ParseJSONObject decodes the JSON object embedded in response into a T.
func ParseJSONObject[T any](response string) (*T, error) {
	raw, err := ExtractJSONObject(response)
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.UnmarshalFromString(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LLM JSON response: %w. Extracted JSON (truncated): %s", err, truncateString(raw, 500))
	}
	return &result, nil
}

// truncateString truncates a string to a maximum length for error messages.
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
