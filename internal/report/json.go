package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/wikirace/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is embedded in batch documents when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in batch documents.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs a single race result as a JSON object.
func (w *JSONWriter) Write(result *model.RaceResult) (int, error) {
	return w.writeJSON(result)
}

// WriteBatch outputs a BatchReport document.
func (w *JSONWriter) WriteBatch(results []*model.RaceResult) (int, error) {
	return w.writeJSON(NewBatchReport(results, w.version))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Trailing newline for terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// BatchReport wraps batch results with a summary and version metadata.
type BatchReport struct {
	// Version is the wikirace version that generated this report.
	Version string `json:"version,omitempty"`

	// Summary aggregates the outcomes.
	Summary Summary `json:"summary"`

	// Results holds one entry per race in input order.
	Results []*model.RaceResult `json:"results"`
}

// NewBatchReport builds a BatchReport, dropping nil results.
func NewBatchReport(results []*model.RaceResult, version string) *BatchReport {
	kept := make([]*model.RaceResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return &BatchReport{
		Version: version,
		Summary: Summarize(kept),
		Results: kept,
	}
}
