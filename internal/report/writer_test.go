package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wikirace/internal/model"
)

// createTestResult creates a successful race result with sample data.
func createTestResult() *model.RaceResult {
	return &model.RaceResult{
		Race:        model.Race{Start: "Київ", Finish: "Дніпро"},
		Path:        model.Path{"Київ", "Україна", "Дніпро"},
		SearchDepth: 3,
		Levels:      2,
		Fetches:     5,
		CacheHits:   1,
		Skipped:     []string{"failed to fetch Зламана: resource unavailable"},
		Warnings:    []string{"failed to read links of \"Львів\""},
		StartedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Elapsed:     1500 * time.Millisecond,
	}
}

func createBatch() []*model.RaceResult {
	return []*model.RaceResult{
		createTestResult(),
		{Race: model.Race{Start: "A", Finish: "Z"}, SearchDepth: 1},
		nil,
		{Race: model.Race{Start: "X", Finish: "Y"}, Error: "start article unavailable"},
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and path", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"WIKIRACE REPORT", "Київ  =>  Дніпро", "Status:         Found", "Hops:           2", " 2. Україна"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "Fetches:") {
			t.Error("expected statistics to be hidden without verbose")
		}
	})

	t.Run("verbose mode includes statistics and skipped pages", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		if _, err := w.Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"Fetches:        5", "Cache Hits:     1", "[!] failed to fetch Зламана", "Warnings:", "[-] failed to read links"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("show empty lists an empty skipped section", func(t *testing.T) {
		t.Parallel()

		result := createTestResult()
		result.Skipped = nil

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true), WithShowEmpty(true))
		if _, err := w.Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "  None") {
			t.Error("expected empty skipped section")
		}
	})

	t.Run("shows error in status", func(t *testing.T) {
		t.Parallel()

		result := &model.RaceResult{
			Race:  model.Race{Start: "A", Finish: "B"},
			Error: "start article unavailable",
		}

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "ERROR - start article unavailable") {
			t.Error("expected output to contain error status")
		}
	})

	t.Run("batch includes summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteBatch(createBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"SUMMARY", "RACES:      3", "FOUND:      1", "NOT FOUND:  1", "FAILED:     1", "No path within depth"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.RaceResult
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Path.String() != "Київ -> Україна -> Дніпро" {
			t.Errorf("got path %q", decoded.Path.String())
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := strings.TrimSuffix(buf.String(), "\n")
		if strings.Contains(output, "\n") {
			t.Error("expected compact JSON on a single line")
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "\n  \"race\"") {
			t.Error("expected indented JSON")
		}
	})

	t.Run("batch document includes version and summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithVersion("v1.2.3"))
		if _, err := w.WriteBatch(createBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded BatchReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Version != "v1.2.3" {
			t.Errorf("got version %q", decoded.Version)
		}
		if len(decoded.Results) != 3 {
			t.Errorf("got %d results, expected 3", len(decoded.Results))
		}
		want := Summary{Total: 3, Succeeded: 1, NotFound: 1, Failed: 1, Fetches: 5, CacheHits: 1, Elapsed: 1500 * time.Millisecond}
		if decoded.Summary != want {
			t.Errorf("got summary %+v, expected %+v", decoded.Summary, want)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes race table and path", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# Wikirace Report", "Київ → Дніпро", "✅ Found", "Україна", "Skipped pages (1)", "Warnings (1)"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("batch includes pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteBatch(createBatch()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"# Wikirace Batch Report", "```mermaid", "Race Outcomes", "❌ Error", "⚠️ No path"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.RaceResult) (int, error)        { return 0, errors.New("boom") }
func (failingWriter) WriteBatch([]*model.RaceResult) (int, error) { return 0, errors.New("boom") }

// TestMultiWriter tests writing to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var textBuf, jsonBuf bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&textBuf), NewJSONWriter(&jsonBuf))

		n, err := mw.Write(createTestResult())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != textBuf.Len()+jsonBuf.Len() {
			t.Errorf("got %d bytes, expected %d", n, textBuf.Len()+jsonBuf.Len())
		}
		if textBuf.Len() == 0 || jsonBuf.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&buf))

		if _, err := mw.WriteBatch(createBatch()); err == nil {
			t.Fatal("expected error")
		}
		if buf.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"Харків-Полтава", 9, "Харків..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
