package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"docsnip/internal/errors"
	"docsnip/internal/storage"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
	FormatTOML  OutputFormat = "toml"
)

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiCyan  = "\033[36m"
)

// colorEnabled reports whether human output may carry ANSI colors.
var colorEnabled = func() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorize(s, color string) string {
	if s == "" || !colorEnabled() {
		return s
	}
	return color + s + ansiReset
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatTOML:
		return formatTOML(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatYAML formats the response as YAML
func formatYAML(resp interface{}) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(resp); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// formatTOML formats the response as TOML. The response must be a struct or
// map at the top level.
func formatTOML(resp interface{}) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(resp); err != nil {
		return "", fmt.Errorf("failed to marshal TOML: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *ExtractResponse:
		return formatExtractHuman(v), nil
	case *CheckResponse:
		return formatCheckHuman(v), nil
	case *RunResponse:
		return formatRunHuman(v), nil
	case *DoctorResponse:
		return formatDoctorHuman(v), nil
	case *VarsResponse:
		return formatVarsHuman(v), nil
	case *HistoryResponse:
		return formatHistoryHuman(v), nil
	case *RunDetailResponse:
		return formatRunDetailHuman(v), nil
	case *PruneResponse:
		return fmt.Sprintf("Removed %d run(s), kept %d.", v.Removed, v.Kept), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatExtractHuman(resp *ExtractResponse) string {
	var b strings.Builder

	if resp.Cleaned {
		b.WriteString("Cleaned snippet workspaces.\n")
	}
	for _, f := range resp.Files {
		if f.Skipped {
			b.WriteString(fmt.Sprintf("  skip  %s\n", f.Path))
			continue
		}
		for _, a := range f.Artifacts {
			b.WriteString(fmt.Sprintf("  %-10s %s\n", a.Language, a.Path))
		}
	}

	s := resp.Stats
	b.WriteString(fmt.Sprintf("\nExtracted %d snippet(s) from %d file(s) (%d skipped, %d ignored block(s))",
		s.Snippets, s.Files, s.Skipped, s.Ignored))
	if len(s.ByLanguage) > 0 {
		var parts []string
		for _, lang := range sortedKeys(s.ByLanguage) {
			parts = append(parts, fmt.Sprintf("%s: %d", lang, s.ByLanguage[lang]))
		}
		b.WriteString("\n  " + strings.Join(parts, ", "))
	}
	if resp.RunID != "" {
		b.WriteString("\nRun: " + shortID(resp.RunID))
	}
	return b.String()
}

func formatCheckHuman(resp *CheckResponse) string {
	var b strings.Builder

	for i, r := range resp.Results {
		if i > 0 {
			b.WriteString("\n")
		}
		status := colorize("PASS", ansiGreen)
		if !r.Passed {
			status = colorize("FAIL", ansiRed)
		}
		b.WriteString(fmt.Sprintf("%s  %-10s %s (%s)\n", status, r.Language, r.Command,
			(time.Duration(r.DurationMs) * time.Millisecond).String()))
		if r.Passed {
			continue
		}
		for _, out := range []string{r.Stdout, r.Stderr} {
			if out != "" {
				b.WriteString(colorize(indent(out, "    "), ansiRed) + "\n")
			}
		}
		if r.Hint != "" {
			b.WriteString(colorize(indent(r.Hint, "    "), ansiCyan) + "\n")
		}
	}

	if len(resp.Results) == 0 {
		b.WriteString("No toolchains ran.\n")
	}
	if resp.RunID != "" {
		b.WriteString("Run: " + shortID(resp.RunID) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRunHuman(resp *RunResponse) string {
	var parts []string
	if resp.Extract != nil {
		e := *resp.Extract
		e.RunID = ""
		parts = append(parts, formatExtractHuman(&e))
	}
	if resp.Check != nil {
		c := *resp.Check
		c.RunID = ""
		parts = append(parts, formatCheckHuman(&c))
	}
	verdict := colorize("All snippets passed.", ansiGreen)
	if !resp.Passed {
		verdict = colorize("Snippet check failed.", ansiRed)
	}
	parts = append(parts, verdict)
	if resp.RunID != "" {
		parts = append(parts, "Run: "+shortID(resp.RunID))
	}
	return strings.Join(parts, "\n\n")
}

func formatDoctorHuman(resp *DoctorResponse) string {
	var b strings.Builder

	b.WriteString("docsnip doctor\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Config:   %s\n", resp.ConfigPath))
	if resp.Manifest != "" {
		b.WriteString(fmt.Sprintf("Manifest: %s\n", resp.Manifest))
	}
	b.WriteString("\n")

	for _, tc := range resp.Toolchains {
		mark := colorize("✓", ansiGreen)
		if !tc.Ready {
			mark = colorize("✗", ansiRed)
		}
		b.WriteString(fmt.Sprintf("%s %s: %s\n", mark, tc.Language, tc.Command))
		if tc.Found {
			b.WriteString(fmt.Sprintf("    binary: %s\n", tc.Binary))
		} else {
			b.WriteString("    binary: not found in PATH\n")
		}
		b.WriteString(fmt.Sprintf("    dir:    %s\n", tc.Dir))
		for _, p := range tc.Prerequisites {
			state := "ok"
			switch {
			case !p.Found && p.Required:
				state = "missing"
			case !p.Found:
				state = "missing (optional)"
			}
			b.WriteString(fmt.Sprintf("    %-18s %s\n", p.Name, state))
		}
		if !tc.Ready && tc.Hint != "" {
			b.WriteString(colorize(indent(tc.Hint, "    "), ansiCyan) + "\n")
		}
		b.WriteString("\n")
	}

	if resp.Healthy {
		b.WriteString("All toolchains ready.")
	} else {
		b.WriteString("Some toolchains are not ready.")
	}
	return b.String()
}

func formatVarsHuman(resp *VarsResponse) string {
	var b strings.Builder

	if resp.Path == "" {
		b.WriteString("No variables table configured (variables.path).")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Variables: %s\n", resp.Path))
	for _, topic := range sortedKeys(resp.Variables) {
		b.WriteString(fmt.Sprintf("\n[%s]\n", topic))
		vars := resp.Variables[topic]
		for _, key := range sortedKeys(vars) {
			b.WriteString(fmt.Sprintf("  ^{%s} = %q\n", key, vars[key]))
		}
	}
	if resp.Topic != "" && len(resp.Variables) == 0 {
		b.WriteString(fmt.Sprintf("\nNo variables for topic %q.\n", resp.Topic))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatHistoryHuman(resp *HistoryResponse) string {
	if len(resp.Runs) == 0 {
		return "No runs recorded."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-10s %-8s %-10s %-20s %8s %5s\n", "ID", "COMMAND", "STATUS", "STARTED", "SNIPPETS", "FILES"))
	for _, r := range resp.Runs {
		status := fmt.Sprintf("%-10s", r.Status)
		if r.Status == storage.RunFailed {
			status = colorize(status, ansiRed)
		}
		b.WriteString(fmt.Sprintf("%-10s %-8s %s %-20s %8d %5d\n",
			shortID(r.ID), r.Command, status, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Snippets, r.Files))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRunDetailHuman(resp *RunDetailResponse) string {
	var b strings.Builder
	r := resp.Run

	b.WriteString(fmt.Sprintf("Run %s (%s)\n", r.ID, r.Command))
	b.WriteString(fmt.Sprintf("  Status:   %s\n", r.Status))
	b.WriteString(fmt.Sprintf("  Started:  %s\n", r.StartedAt.Local().Format(time.RFC3339)))
	if r.FinishedAt != nil {
		b.WriteString(fmt.Sprintf("  Finished: %s (%s)\n", r.FinishedAt.Local().Format(time.RFC3339),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)))
	}
	b.WriteString(fmt.Sprintf("  Files: %d (%d skipped), snippets: %d, ignored: %d\n", r.Files, r.Skipped, r.Snippets, r.Ignored))
	if r.ErrorCode != "" {
		b.WriteString(colorize(fmt.Sprintf("  Error: [%s] %s", r.ErrorCode, r.ErrorMessage), ansiRed) + "\n")
	}

	if len(resp.Artifacts) > 0 {
		b.WriteString("\nArtifacts:\n")
		for _, a := range resp.Artifacts {
			b.WriteString(fmt.Sprintf("  %-10s %s  %s\n", a.Language, a.Digest[:12], a.Path))
		}
	}
	if len(resp.Checks) > 0 {
		b.WriteString("\nChecks:\n")
		for _, c := range resp.Checks {
			status := "passed"
			if !c.Passed {
				status = fmt.Sprintf("failed (exit %d)", c.ExitCode)
			}
			b.WriteString(fmt.Sprintf("  %-10s %s: %s\n", c.Language, c.Command, status))
			if !c.Passed && c.Output != "" {
				b.WriteString(indent(c.Output, "    ") + "\n")
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// printError reports err on w in the requested format.
func printError(w io.Writer, err error, format OutputFormat) {
	resp := convertError(err)
	if format != FormatHuman {
		if out, ferr := FormatResponse(resp, format); ferr == nil {
			fmt.Fprintln(w, out)
			return
		}
	}

	line := fmt.Sprintf("Error [%s]: %s", resp.Code, resp.Message)
	if resp.Path != "" {
		line += "\n  in " + resp.Path
	}
	fmt.Fprintln(w, colorize(line, ansiRed))
	for _, fix := range resp.SuggestedFixes {
		switch {
		case fix.Command != "":
			fmt.Fprintf(w, "  → %s: %s\n", fix.Description, fix.Command)
		case fix.Description != "":
			fmt.Fprintf(w, "  → %s\n", fix.Description)
		}
	}
}

func asError(err error, target **errors.Error) bool {
	return stderrors.As(err, target)
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
