// internal/patterns/extract.go
package patterns

import (
	"regexp"
	"strings"
)

// -- Regex Definitions --

// errorLineRegex matches a line that looks like it reports a problem.
var errorLineRegex = regexp.MustCompile(`(?i)(error|exception|fail(?:ed|ure)?|fatal|critical|panic|stack trace)`)

// stackFrameRegex matches classic "at frame (file:line:col)" or "at file:line:col" frames.
var stackFrameRegex = regexp.MustCompile(`at\s+.+\(.+:\d+:\d+\)|at\s+.+:\d+:\d+`)

// contextRadius is the number of lines kept on each side of a matching line.
const contextRadius = 2

// ContextMatch is a window of lines around a line that matched an error
// keyword. Line indices are 0-based, inclusive and clipped to the input.
type ContextMatch struct {
	StartLine int
	MatchLine int
	EndLine   int
	Text      string
}

// splitLines splits text into lines and drops any trailing carriage return.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// ExtractErrorPatterns returns one context window for every line containing an
// error keyword, in line order. Overlapping windows are not merged.
func ExtractErrorPatterns(text string) []ContextMatch {
	if text == "" {
		return nil
	}
	lines := splitLines(text)

	var matches []ContextMatch
	for i, line := range lines {
		if !errorLineRegex.MatchString(line) {
			continue
		}
		start := max(0, i-contextRadius)
		end := min(len(lines)-1, i+contextRadius)
		matches = append(matches, ContextMatch{
			StartLine: start,
			MatchLine: i,
			EndLine:   end,
			Text:      strings.Join(lines[start:end+1], "\n"),
		})
	}
	return matches
}

// ExtractStackTraces returns the distinct stack frames found in text in the
// order they first appear.
func ExtractStackTraces(text string) []string {
	found := stackFrameRegex.FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(found))
	frames := make([]string, 0, len(found))
	for _, f := range found {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		frames = append(frames, f)
	}
	return frames
}

// JoinMatches concatenates the window texts with the section separator.
func JoinMatches(matches []ContextMatch) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Text
	}
	return strings.Join(parts, SectionSeparator)
}
