package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"docsnip/internal/checker"
	"docsnip/internal/errors"
	"docsnip/internal/snippet"
)

func sampleExtract() *ExtractResponse {
	stats := &snippet.RunStats{
		Files:      2,
		Skipped:    1,
		Snippets:   2,
		Ignored:    1,
		ByLanguage: map[snippet.Language]int{snippet.LangGo: 1, snippet.LangPython: 1},
		Results: []*snippet.FileResult{
			{Path: "docs/v2/change_me/a.md", Skipped: true},
			{
				Path:    "docs/v2/session/intro.md",
				Topic:   "session",
				Ignored: 1,
				Artifacts: []snippet.Artifact{
					{Language: snippet.LangGo, Ordinal: 0, Path: "docs/v2/session/intromd0/main.go"},
					{Language: snippet.LangPython, Ordinal: 1, Path: "docs/v2/session/intro.md1/main.py"},
				},
			},
		},
	}
	return convertExtractResponse(stats, "3f2a9c1e-0000-4000-8000-000000000000", false)
}

func TestFormatResponse_JSON(t *testing.T) {
	result, err := FormatResponse(sampleExtract(), FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{`"snippets": 2`, `"byLanguage"`, `"path": "docs/v2/session/intromd0/main.go"`} {
		if !strings.Contains(result, want) {
			t.Errorf("JSON output missing %s:\n%s", want, result)
		}
	}
}

func TestFormatResponse_YAML(t *testing.T) {
	result, err := FormatResponse(sampleExtract(), FormatYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"runId: 3f2a9c1e", "snippets: 2", "byLanguage:", "  go: 1", "topic: session"} {
		if !strings.Contains(result, want) {
			t.Errorf("YAML output missing %q:\n%s", want, result)
		}
	}
}

func TestFormatResponse_TOML(t *testing.T) {
	result, err := FormatResponse(sampleExtract(), FormatTOML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{`runId = "3f2a9c1e`, "[stats]", "snippets = 2", "[[files]]", `topic = "session"`} {
		if !strings.Contains(result, want) {
			t.Errorf("TOML output missing %q:\n%s", want, result)
		}
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	_, err := FormatResponse(map[string]string{"key": "value"}, "xml")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestFormatHuman_Extract(t *testing.T) {
	result, err := FormatResponse(sampleExtract(), FormatHuman)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"skip  docs/v2/change_me/a.md",
		"docs/v2/session/intro.md1/main.py",
		"Extracted 2 snippet(s) from 2 file(s) (1 skipped, 1 ignored block(s))",
		"go: 1, python: 1",
		"Run: 3f2a9c1e",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("human output missing %q:\n%s", want, result)
		}
	}
}

func TestFormatHuman_CheckFailure(t *testing.T) {
	resp := convertCheckResponse([]*checker.Result{
		{Language: snippet.LangPython, Command: "pylint ./snippets", ExitCode: 2, Stderr: "E0602 undefined", Hint: "make venv"},
		{Language: snippet.LangGo, Command: "go build ./...", Passed: true, Duration: 1200 * time.Millisecond},
	}, "")

	if resp.Passed {
		t.Error("Passed should be false when any toolchain failed")
	}
	if resp.Results[0].Language != "go" {
		t.Errorf("results should be sorted by language, got %q first", resp.Results[0].Language)
	}

	result, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"PASS  go", "(1.2s)", "FAIL  python", "    E0602 undefined", "    make venv"} {
		if !strings.Contains(result, want) {
			t.Errorf("human output missing %q:\n%s", want, result)
		}
	}
}

func TestFormatHuman_UnknownFallsBackToJSON(t *testing.T) {
	result, err := formatHuman(map[string]int{"n": 1})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, `"n": 1`) {
		t.Errorf("expected JSON fallback, got %s", result)
	}
}

func TestPrintError(t *testing.T) {
	err := errors.Newf(errors.ClassificationError, "unrecognized language tag").WithPath("docs/v2/a.md")

	var human bytes.Buffer
	printError(&human, err, FormatHuman)
	out := human.String()
	if !strings.Contains(out, "Error [CLASSIFICATION_ERROR]: unrecognized language tag") {
		t.Errorf("human error = %q", out)
	}
	if !strings.Contains(out, "in docs/v2/a.md") {
		t.Errorf("human error should name the document: %q", out)
	}

	var machine bytes.Buffer
	printError(&machine, err, FormatJSON)
	var resp ErrorResponse
	if err := json.Unmarshal(machine.Bytes(), &resp); err != nil {
		t.Fatalf("JSON error output did not parse: %v\n%s", err, machine.String())
	}
	if resp.Code != "CLASSIFICATION_ERROR" || resp.Path != "docs/v2/a.md" {
		t.Errorf("ErrorResponse = %+v", resp)
	}
}

func TestConvertError_Plain(t *testing.T) {
	resp := convertError(bytes.ErrTooLarge)
	if resp.Code != string(errors.InternalError) {
		t.Errorf("Code = %q, want INTERNAL_ERROR", resp.Code)
	}
}

func TestIndent(t *testing.T) {
	got := indent("a\nb\n", "  ")
	if got != "  a\n  b" {
		t.Errorf("indent = %q", got)
	}
}
