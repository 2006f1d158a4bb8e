package main

import (
	"sort"

	"docsnip/internal/checker"
	"docsnip/internal/errors"
	"docsnip/internal/snippet"
	"docsnip/internal/storage"
)

// StatsCLI is the CLI view of snippet.RunStats
type StatsCLI struct {
	Files      int            `json:"files" yaml:"files" toml:"files"`
	Skipped    int            `json:"skipped" yaml:"skipped" toml:"skipped"`
	Snippets   int            `json:"snippets" yaml:"snippets" toml:"snippets"`
	Ignored    int            `json:"ignored" yaml:"ignored" toml:"ignored"`
	ByLanguage map[string]int `json:"byLanguage" yaml:"byLanguage" toml:"byLanguage"`
}

// ArtifactCLI is one written snippet file
type ArtifactCLI struct {
	Language string `json:"language" yaml:"language" toml:"language"`
	Ordinal  int    `json:"ordinal" yaml:"ordinal" toml:"ordinal"`
	Path     string `json:"path" yaml:"path" toml:"path"`
}

// FileCLI is one processed documentation file
type FileCLI struct {
	Path      string        `json:"path" yaml:"path" toml:"path"`
	Topic     string        `json:"topic,omitempty" yaml:"topic,omitempty" toml:"topic,omitempty"`
	Skipped   bool          `json:"skipped,omitempty" yaml:"skipped,omitempty" toml:"skipped,omitempty"`
	Ignored   int           `json:"ignored" yaml:"ignored" toml:"ignored"`
	Artifacts []ArtifactCLI `json:"artifacts,omitempty" yaml:"artifacts,omitempty" toml:"artifacts,omitempty"`
}

// ExtractResponse is the response for extract
type ExtractResponse struct {
	RunID   string    `json:"runId,omitempty" yaml:"runId,omitempty" toml:"runId,omitempty"`
	Cleaned bool      `json:"cleaned,omitempty" yaml:"cleaned,omitempty" toml:"cleaned,omitempty"`
	Stats   StatsCLI  `json:"stats" yaml:"stats" toml:"stats"`
	Files   []FileCLI `json:"files,omitempty" yaml:"files,omitempty" toml:"files,omitempty"`
}

// CheckResultCLI is one toolchain outcome
type CheckResultCLI struct {
	Language   string `json:"language" yaml:"language" toml:"language"`
	Command    string `json:"command" yaml:"command" toml:"command"`
	Dir        string `json:"dir" yaml:"dir" toml:"dir"`
	Passed     bool   `json:"passed" yaml:"passed" toml:"passed"`
	ExitCode   int    `json:"exitCode" yaml:"exitCode" toml:"exitCode"`
	DurationMs int64  `json:"durationMs" yaml:"durationMs" toml:"durationMs"`
	Stdout     string `json:"stdout,omitempty" yaml:"stdout,omitempty" toml:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty" yaml:"stderr,omitempty" toml:"stderr,omitempty"`
	Hint       string `json:"hint,omitempty" yaml:"hint,omitempty" toml:"hint,omitempty"`
}

// CheckResponse is the response for check
type CheckResponse struct {
	RunID   string           `json:"runId,omitempty" yaml:"runId,omitempty" toml:"runId,omitempty"`
	Passed  bool             `json:"passed" yaml:"passed" toml:"passed"`
	Results []CheckResultCLI `json:"results" yaml:"results" toml:"results"`
}

// RunResponse is the response for run
type RunResponse struct {
	RunID   string           `json:"runId,omitempty" yaml:"runId,omitempty" toml:"runId,omitempty"`
	Passed  bool             `json:"passed" yaml:"passed" toml:"passed"`
	Extract *ExtractResponse `json:"extract,omitempty" yaml:"extract,omitempty" toml:"extract,omitempty"`
	Check   *CheckResponse   `json:"check,omitempty" yaml:"check,omitempty" toml:"check,omitempty"`
}

// PrerequisiteCLI is one workspace file doctor looked for
type PrerequisiteCLI struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Found    bool   `json:"found" yaml:"found" toml:"found"`
	Required bool   `json:"required" yaml:"required" toml:"required"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
}

// DoctorToolchainCLI is doctor's report for one language
type DoctorToolchainCLI struct {
	Language      string            `json:"language" yaml:"language" toml:"language"`
	Command       string            `json:"command" yaml:"command" toml:"command"`
	Dir           string            `json:"dir" yaml:"dir" toml:"dir"`
	Binary        string            `json:"binary,omitempty" yaml:"binary,omitempty" toml:"binary,omitempty"`
	Found         bool              `json:"found" yaml:"found" toml:"found"`
	Ready         bool              `json:"ready" yaml:"ready" toml:"ready"`
	Prerequisites []PrerequisiteCLI `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty" toml:"prerequisites,omitempty"`
	Hint          string            `json:"hint,omitempty" yaml:"hint,omitempty" toml:"hint,omitempty"`
}

// DoctorResponse is the response for doctor
type DoctorResponse struct {
	Healthy    bool                 `json:"healthy" yaml:"healthy" toml:"healthy"`
	ConfigPath string               `json:"configPath" yaml:"configPath" toml:"configPath"`
	Manifest   string               `json:"manifest,omitempty" yaml:"manifest,omitempty" toml:"manifest,omitempty"`
	Toolchains []DoctorToolchainCLI `json:"toolchains" yaml:"toolchains" toml:"toolchains"`
}

// VarsResponse is the response for vars
type VarsResponse struct {
	Path      string                       `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Topic     string                       `json:"topic,omitempty" yaml:"topic,omitempty" toml:"topic,omitempty"`
	Topics    []string                     `json:"topics" yaml:"topics" toml:"topics"`
	Variables map[string]map[string]string `json:"variables" yaml:"variables" toml:"variables"`
}

// HistoryResponse is the response for history without a run ID
type HistoryResponse struct {
	Runs []*storage.Run `json:"runs" yaml:"runs" toml:"runs"`
}

// RunDetailResponse is the response for history <run-id>
type RunDetailResponse struct {
	Run       *storage.Run              `json:"run" yaml:"run" toml:"run"`
	Artifacts []*storage.ArtifactRecord `json:"artifacts" yaml:"artifacts" toml:"artifacts"`
	Checks    []*storage.CheckRecord    `json:"checks" yaml:"checks" toml:"checks"`
}

// PruneResponse is the response for history --prune
type PruneResponse struct {
	Kept    int   `json:"kept" yaml:"kept" toml:"kept"`
	Removed int64 `json:"removed" yaml:"removed" toml:"removed"`
}

// ErrorResponse is how a failed command reports in machine formats
type ErrorResponse struct {
	Code           string             `json:"code" yaml:"code" toml:"code"`
	Message        string             `json:"message" yaml:"message" toml:"message"`
	Path           string             `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	Details        interface{}        `json:"details,omitempty" yaml:"details,omitempty" toml:"details,omitempty"`
	SuggestedFixes []errors.FixAction `json:"suggestedFixes,omitempty" yaml:"suggestedFixes,omitempty" toml:"suggestedFixes,omitempty"`
}

func convertStats(stats *snippet.RunStats) StatsCLI {
	out := StatsCLI{ByLanguage: map[string]int{}}
	if stats == nil {
		return out
	}
	out.Files = stats.Files
	out.Skipped = stats.Skipped
	out.Snippets = stats.Snippets
	out.Ignored = stats.Ignored
	for lang, n := range stats.ByLanguage {
		out.ByLanguage[string(lang)] = n
	}
	return out
}

func convertExtractResponse(stats *snippet.RunStats, runID string, cleaned bool) *ExtractResponse {
	resp := &ExtractResponse{
		RunID:   runID,
		Cleaned: cleaned,
		Stats:   convertStats(stats),
	}
	if stats == nil {
		return resp
	}
	for _, r := range stats.Results {
		f := FileCLI{Path: r.Path, Topic: r.Topic, Skipped: r.Skipped, Ignored: r.Ignored}
		for _, a := range r.Artifacts {
			f.Artifacts = append(f.Artifacts, ArtifactCLI{
				Language: string(a.Language),
				Ordinal:  a.Ordinal,
				Path:     a.Path,
			})
		}
		resp.Files = append(resp.Files, f)
	}
	return resp
}

func convertCheckResponse(results []*checker.Result, runID string) *CheckResponse {
	resp := &CheckResponse{RunID: runID, Passed: true, Results: []CheckResultCLI{}}
	for _, r := range results {
		if r == nil {
			continue
		}
		if !r.Passed {
			resp.Passed = false
		}
		resp.Results = append(resp.Results, CheckResultCLI{
			Language:   string(r.Language),
			Command:    r.Command,
			Dir:        r.Dir,
			Passed:     r.Passed,
			ExitCode:   r.ExitCode,
			DurationMs: r.Duration.Milliseconds(),
			Stdout:     r.Stdout,
			Stderr:     r.Stderr,
			Hint:       r.Hint,
		})
	}
	sort.SliceStable(resp.Results, func(i, j int) bool {
		return resp.Results[i].Language < resp.Results[j].Language
	})
	return resp
}

func convertError(err error) *ErrorResponse {
	var e *errors.Error
	if !asError(err, &e) {
		return &ErrorResponse{Code: string(errors.InternalError), Message: err.Error()}
	}
	msg := e.Message
	if cause := e.Unwrap(); cause != nil {
		msg += ": " + cause.Error()
	}
	return &ErrorResponse{
		Code:           string(e.Code),
		Message:        msg,
		Path:           e.Path,
		Details:        e.Details,
		SuggestedFixes: e.SuggestedFixes,
	}
}
