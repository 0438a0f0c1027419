package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/wikirace/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose adds search statistics and skipped pages to the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs one race result in human-readable format.
func (w *SimpleWriter) Write(result *model.RaceResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb)
	w.writeRace(&sb, result)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteBatch outputs every result followed by a summary.
func (w *SimpleWriter) WriteBatch(results []*model.RaceResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb)
	for _, r := range results {
		if r == nil {
			continue
		}
		w.writeRace(&sb, r)
	}
	w.writeSummary(&sb, Summarize(results))
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          WIKIRACE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")
}

// writeRace writes the pair, status and path of one race.
func (w *SimpleWriter) writeRace(sb *strings.Builder, r *model.RaceResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s  =>  %s\n", r.Race.Start, r.Race.Finish))
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Status:         %s\n", statusText(r)))
	sb.WriteString(fmt.Sprintf("Search Depth:   %d\n", r.SearchDepth))
	if !r.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Started:        %s\n", r.StartedAt.Format("2006-01-02 15:04:05 MST")))
	}

	if r.Path.Found() {
		sb.WriteString(fmt.Sprintf("Hops:           %d\n\n", r.Path.Hops()))
		for i, title := range r.Path {
			sb.WriteString(fmt.Sprintf("  %2d. %s\n", i+1, title))
		}
	}
	sb.WriteString("\n")

	if w.verbose {
		sb.WriteString(fmt.Sprintf("Levels:         %d\n", r.Levels))
		sb.WriteString(fmt.Sprintf("Fetches:        %d\n", r.Fetches))
		sb.WriteString(fmt.Sprintf("Cache Hits:     %d\n", r.CacheHits))
		sb.WriteString(fmt.Sprintf("Elapsed:        %s\n\n", r.Elapsed))
		w.writeSkipped(sb, r)
		w.writeWarnings(sb, r)
	}
}

// writeSkipped lists the pages that failed during the search.
func (w *SimpleWriter) writeSkipped(sb *strings.Builder, r *model.RaceResult) {
	if len(r.Skipped) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString("Skipped:\n")
	if len(r.Skipped) == 0 {
		sb.WriteString("  None\n\n")
		return
	}
	for _, msg := range r.Skipped {
		sb.WriteString(fmt.Sprintf("  [!] %s\n", msg))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeWarnings(sb *strings.Builder, r *model.RaceResult) {
	if len(r.Warnings) == 0 {
		return
	}

	sb.WriteString("Warnings:\n")
	for _, msg := range r.Warnings {
		sb.WriteString(fmt.Sprintf("  [-] %s\n", msg))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, s Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  RACES:      %d\n", s.Total))
	sb.WriteString(fmt.Sprintf("  FOUND:      %d\n", s.Succeeded))
	sb.WriteString(fmt.Sprintf("  NOT FOUND:  %d\n", s.NotFound))
	sb.WriteString(fmt.Sprintf("  FAILED:     %d\n", s.Failed))
	if w.verbose {
		sb.WriteString(fmt.Sprintf("  FETCHES:    %d\n", s.Fetches))
		sb.WriteString(fmt.Sprintf("  CACHE HITS: %d\n", s.CacheHits))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by wikirace\n")
	sb.WriteString("https://github.com/nao1215/wikirace\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
