package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/wikirace/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and
// sharing. Rendering goes through nao1215/markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one race result in Markdown format.
func (w *MarkdownWriter) Write(result *model.RaceResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Wikirace Report")
	md.PlainText("")
	w.writeRace(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs a summary table, a pie chart of outcomes and one
// section per race.
func (w *MarkdownWriter) WriteBatch(results []*model.RaceResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Wikirace Batch Report")
	md.PlainText("")

	summary := Summarize(results)
	w.writeSummary(md, summary)
	w.writeOverview(md, results)

	for _, r := range results {
		if r == nil {
			continue
		}
		w.writeRace(md, r)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeRace writes the properties table and the path of one race.
func (w *MarkdownWriter) writeRace(md *markdown.Markdown, r *model.RaceResult) {
	md.H2(r.Race.Start + " → " + r.Race.Finish)
	md.PlainText("")

	rows := [][]string{
		{"Start", "`" + r.Race.Start + "`"},
		{"Finish", "`" + r.Race.Finish + "`"},
		{"Status", w.getStatusText(r)},
		{"Search Depth", strconv.Itoa(r.SearchDepth)},
		{"Hops", strconv.Itoa(r.Path.Hops())},
		{"Levels", strconv.Itoa(r.Levels)},
		{"Fetches", strconv.Itoa(r.Fetches)},
		{"Cache Hits", strconv.Itoa(r.CacheHits)},
		{"Elapsed", r.Elapsed.String()},
	}
	if !r.StartedAt.IsZero() {
		rows = append(rows, []string{"Started", r.StartedAt.Format("2006-01-02 15:04:05 MST")})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch {
	case r.Error != "":
		md.Cautionf("Race failed: %s", r.Error)
	case r.Path.Found():
		w.writePath(md, r.Path)
	default:
		md.Note("No path exists within the search depth.")
	}
	md.PlainText("")

	if len(r.Skipped) > 0 {
		md.Details("Skipped pages ("+strconv.Itoa(len(r.Skipped))+")", strings.Join(r.Skipped, "\n"))
		md.PlainText("")
	}
	if len(r.Warnings) > 0 {
		md.Details("Warnings ("+strconv.Itoa(len(r.Warnings))+")", strings.Join(r.Warnings, "\n"))
		md.PlainText("")
	}
}

// writePath writes the path as a numbered table.
func (w *MarkdownWriter) writePath(md *markdown.Markdown, path model.Path) {
	rows := make([][]string, len(path))
	for i, title := range path {
		rows[i] = []string{strconv.Itoa(i + 1), truncateString(title, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Step", "Article"},
		Rows:   rows,
	})
}

// getStatusText returns the status text based on result state.
func (w *MarkdownWriter) getStatusText(r *model.RaceResult) string {
	switch {
	case r.Error != "":
		return "❌ Error"
	case r.Path.Found():
		return "✅ Found"
	default:
		return "⚠️ No path"
	}
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Found", strconv.Itoa(s.Succeeded)},
			{"⚠️ No path", strconv.Itoa(s.NotFound)},
			{"❌ Failed", strconv.Itoa(s.Failed)},
			{"**Total**", "**" + strconv.Itoa(s.Total) + "**"},
		},
	})
	md.PlainText("")

	if s.Total > 0 {
		w.writePieChart(md, s)
	}

	switch {
	case s.Failed > 0:
		md.Warningf("%d race(s) failed before the search could complete.", s.Failed)
	case s.Total > 0 && s.Succeeded == s.Total:
		md.Tip("A path was found for every race.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of race outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Race Outcomes"),
		piechart.WithShowData(true),
	)

	if s.Succeeded > 0 {
		chart.LabelAndIntValue("Found", uint64(s.Succeeded))
	}
	if s.NotFound > 0 {
		chart.LabelAndIntValue("No path", uint64(s.NotFound))
	}
	if s.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(s.Failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeOverview writes one row per race.
func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, results []*model.RaceResult) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		rows = append(rows, []string{
			truncateString(r.Race.Start, 40),
			truncateString(r.Race.Finish, 40),
			w.getStatusText(r),
			strconv.Itoa(r.Path.Hops()),
		})
	}
	if len(rows) == 0 {
		return
	}

	md.H2("Races")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Start", "Finish", "Status", "Hops"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [wikirace](https://github.com/nao1215/wikirace)*")
}
