// internal/history/aggregator.go
package history

import (
	"fmt"
	"sort"

	"github.com/xkilldash9x/logwarden/api/schemas"
)

const (
	// RecentPerFile is how many findings a file listing carries.
	RecentPerFile = 5
	// DefaultLimit applies when a query does not ask for a specific count.
	DefaultLimit = 10
)

// Source provides consistent per-file copies of watch state.
type Source interface {
	Snapshot() []schemas.FileSnapshot
	File(path string) (schemas.FileSnapshot, bool)
}

// Aggregator answers queries that span the history of watched files.
type Aggregator struct {
	source Source
}

// NewAggregator creates an Aggregator reading from source.
func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// ListWatchedFiles summarizes every watched file, sorted by path.
func (a *Aggregator) ListWatchedFiles() []schemas.FileSummary {
	snaps := a.source.Snapshot()
	out := make([]schemas.FileSummary, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, schemas.FileSummary{
			Path:         s.Path,
			RecentErrors: tail(s.History, RecentPerFile),
			TotalErrors:  len(s.History),
			LastUpdate:   s.LastUpdate,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// GetRecentErrors returns up to limit findings. With a path, the findings of
// that file are returned oldest first. Without one, the findings of all files
// are merged newest first.
func (a *Aggregator) GetRecentErrors(path string, limit int) ([]schemas.Finding, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if path != "" {
		snap, ok := a.source.File(path)
		if !ok {
			return nil, fmt.Errorf("%w: %s", schemas.ErrNotWatched, path)
		}
		return tail(snap.History, limit), nil
	}

	var all []schemas.Finding
	for _, s := range a.source.Snapshot() {
		all = append(all, s.History...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Metadata.Timestamp.After(all[j].Metadata.Timestamp)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	if all == nil {
		all = []schemas.Finding{}
	}
	return all, nil
}

// tail returns a copy of the last n entries of h.
func tail(h []schemas.Finding, n int) []schemas.Finding {
	if len(h) > n {
		h = h[len(h)-n:]
	}
	out := make([]schemas.Finding, len(h))
	copy(out, h)
	return out
}
