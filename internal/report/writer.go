package report

import (
	"io"
	"time"

	"github.com/nao1215/wikirace/internal/model"
)

// Writer defines the interface for report output.
// Implementations render race results in various formats.
type Writer interface {
	// Write outputs a single race result.
	// Returns the number of bytes written and any error encountered.
	Write(result *model.RaceResult) (int, error)

	// WriteBatch outputs the results of a batch run as one document.
	WriteBatch(results []*model.RaceResult) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(result *model.RaceResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteBatch outputs the batch to all configured Writers.
func (m *MultiWriter) WriteBatch(results []*model.RaceResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteBatch(results)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// Summary aggregates a batch of race results.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	NotFound  int           `json:"not_found"`
	Failed    int           `json:"failed"`
	Fetches   int           `json:"fetches"`
	CacheHits int           `json:"cache_hits"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Summarize counts outcomes across results. Nil entries are ignored.
func Summarize(results []*model.RaceResult) Summary {
	var s Summary
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Total++
		switch {
		case r.Error != "":
			s.Failed++
		case r.Path.Found():
			s.Succeeded++
		default:
			s.NotFound++
		}
		s.Fetches += r.Fetches
		s.CacheHits += r.CacheHits
		s.Elapsed += r.Elapsed
	}
	return s
}

// statusText describes the outcome of one race.
func statusText(r *model.RaceResult) string {
	switch {
	case r.Error != "":
		return "ERROR - " + r.Error
	case r.Path.Found():
		return "Found"
	default:
		return "No path within depth"
	}
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
