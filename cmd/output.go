// cmd/output.go
package cmd

import (
	"io"
	"sync"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/logwarden/api/schemas"
)

// jsonAPI keeps struct tags and map ordering identical to encoding/json.
var jsonAPI = json.ConfigCompatibleWithStandardLibrary

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	enc := jsonAPI.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// findingEvent is one line of `watch` output.
type findingEvent struct {
	Path    string          `json:"path"`
	Finding schemas.Finding `json:"finding"`
}

// lineWriter serializes concurrent JSON line writes.
type lineWriter struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{w: w}
}

// write encodes v as a single line. The first error is kept and later
// writes are dropped.
func (l *lineWriter) write(v any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return
	}
	l.err = jsonAPI.NewEncoder(l.w).Encode(v)
}

func (l *lineWriter) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
