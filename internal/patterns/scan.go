// internal/patterns/scan.go
package patterns

import (
	"sort"
	"strings"
)

// Category names a broad class of failure recognised by QuickScan.
type Category string

const (
	CategoryDatabase Category = "database"
	CategoryMemory   Category = "memory"
	CategoryNetwork  Category = "network"
	CategoryAuth     Category = "auth"
	CategoryConfig   Category = "config"
)

// criticalErrorCount is the window count above which a scan is critical
// regardless of keywords.
const criticalErrorCount = 5

// ScanSummary is the result of a quick local look at some log text.
type ScanSummary struct {
	Errors        int            `json:"errors"`
	Critical      bool           `json:"critical"`
	HasStackTrace bool           `json:"hasStackTrace"`
	Categories    []Category     `json:"categories"`
	Matches       []ContextMatch `json:"-"`
}

// QuickScan classifies text without calling any backend.
func QuickScan(text string) ScanSummary {
	matches := ExtractErrorPatterns(text)
	lower := strings.ToLower(text)

	summary := ScanSummary{
		Errors:        len(matches),
		Critical:      strings.Contains(lower, "fatal") || strings.Contains(lower, "critical") || len(matches) > criticalErrorCount,
		HasStackTrace: len(ExtractStackTraces(text)) > 0,
		Categories:    []Category{},
		Matches:       matches,
	}

	found := make(map[Category]struct{})
	for _, line := range splitLines(lower) {
		for _, c := range categorize(line) {
			found[c] = struct{}{}
		}
	}
	for c := range found {
		summary.Categories = append(summary.Categories, c)
	}
	sort.Slice(summary.Categories, func(i, j int) bool { return summary.Categories[i] < summary.Categories[j] })
	return summary
}

// categorize expects an already lowercased line.
func categorize(line string) []Category {
	var out []Category
	hasError := strings.Contains(line, "error")
	if strings.Contains(line, "database") && (hasError || strings.Contains(line, "timeout")) {
		out = append(out, CategoryDatabase)
	}
	if strings.Contains(line, "outofmemory") || strings.Contains(line, "out of memory") || strings.Contains(line, "heap space") {
		out = append(out, CategoryMemory)
	}
	if strings.Contains(line, "connection refused") || strings.Contains(line, "timeout") {
		out = append(out, CategoryNetwork)
	}
	if strings.Contains(line, "unauthorized") || strings.Contains(line, "authentication failed") {
		out = append(out, CategoryAuth)
	}
	if strings.Contains(line, "config") && hasError {
		out = append(out, CategoryConfig)
	}
	return out
}
