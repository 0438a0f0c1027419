// Package report renders race results.
//
// Writers for three formats implement the Writer interface:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown tables and a mermaid chart for sharing
//
// Each writer renders a single result with Write and a batch run with
// WriteBatch. MultiWriter fans one result out to several writers.
package report
