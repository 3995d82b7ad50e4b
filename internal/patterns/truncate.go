// internal/patterns/truncate.go
package patterns

import "unicode/utf8"

const (
	// DefaultMaxTokens is the token budget used when the caller has no opinion.
	DefaultMaxTokens = 8000
	// CharsPerToken approximates how many characters one model token covers.
	CharsPerToken = 4
	// SectionSeparator joins error windows when content is reduced.
	SectionSeparator = "\n---\n"
	// TruncatedMarker is appended to text that was hard cut.
	TruncatedMarker = "\n\n... [truncated] ..."

	// headroom is reserved for the marker when hard cutting.
	headroom = 100
)

// TruncateToBudget fits text into roughly maxTokens tokens. Text that already
// fits is returned unchanged. Otherwise the error windows are tried on their
// own, and as a last resort the text is cut and marked as truncated.
func TruncateToBudget(text string, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	maxChars := maxTokens * CharsPerToken
	if len(text) <= maxChars {
		return text
	}

	if matches := ExtractErrorPatterns(text); len(matches) > 0 {
		if reduced := JoinMatches(matches); len(reduced) <= maxChars {
			return reduced
		}
	}

	// Budgets too small for the marker get a bare cut.
	if maxChars <= len(TruncatedMarker) {
		return text[:runeFloor(text, maxChars)]
	}
	reserve := headroom
	if maxChars < headroom {
		reserve = len(TruncatedMarker)
	}
	return text[:runeFloor(text, maxChars-reserve)] + TruncatedMarker
}

// runeFloor backs n off to the start of the rune containing text[n].
// n must be less than len(text).
func runeFloor(text string, n int) int {
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return n
}
