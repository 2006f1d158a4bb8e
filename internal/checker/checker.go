// Package checker runs each language's toolchain over its snippet workspace.
package checker

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"docsnip/internal/errors"
	"docsnip/internal/slogutil"
	"docsnip/internal/snippet"
)

// Toolchain is the fixed command that checks one language's workspace.
type Toolchain struct {
	Language snippet.Language
	// Dir is the directory the command runs in.
	Dir     string
	Command string
	Args    []string
	// SetupHint tells the operator how to provision the toolchain.
	SetupHint string
}

// CommandLine returns the command as typed in a shell.
func (t Toolchain) CommandLine() string {
	return strings.TrimSpace(t.Command + " " + strings.Join(t.Args, " "))
}

// Result is the outcome of one toolchain run.
type Result struct {
	Language snippet.Language `json:"language"`
	Command  string           `json:"command"`
	Dir      string           `json:"dir"`
	Passed   bool             `json:"passed"`
	ExitCode int              `json:"exitCode"`
	Duration time.Duration    `json:"durationNs"`
	Stdout   string           `json:"stdout,omitempty"`
	Stderr   string           `json:"stderr,omitempty"`
	Hint     string           `json:"hint,omitempty"`
}

// Failure is attached as Details to a TOOLCHAIN_ERROR.
type Failure struct {
	Language snippet.Language `json:"language"`
	Command  string           `json:"command"`
	ExitCode int              `json:"exitCode"`
	Stdout   string           `json:"stdout"`
	Stderr   string           `json:"stderr"`
	Hint     string           `json:"hint"`
}

// Checker runs toolchains through a Runner.
type Checker struct {
	runner     Runner
	toolchains map[snippet.Language]Toolchain
	logger     *slog.Logger
}

// New creates a Checker. A nil logger discards output.
func New(runner Runner, toolchains []Toolchain, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	byLang := make(map[snippet.Language]Toolchain, len(toolchains))
	for _, tc := range toolchains {
		byLang[tc.Language] = tc
	}
	return &Checker{runner: runner, toolchains: byLang, logger: logger}
}

// Languages returns the languages with a configured toolchain, sorted.
func (c *Checker) Languages() []snippet.Language {
	langs := make([]snippet.Language, 0, len(c.toolchains))
	for lang := range c.toolchains {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// Toolchain returns the toolchain for lang.
func (c *Checker) Toolchain(lang snippet.Language) (Toolchain, bool) {
	tc, ok := c.toolchains[lang]
	return tc, ok
}

// Available reports where lang's command binary lives. A missing binary is a
// TOOLCHAIN_ERROR carrying the setup hint.
func (c *Checker) Available(lang snippet.Language) (string, error) {
	tc, ok := c.toolchains[lang]
	if !ok {
		return "", errors.Newf(errors.ContractError, "no toolchain configured for language %q", lang)
	}
	path, err := c.runner.LookPath(tc.Command)
	if err != nil {
		return "", errors.New(errors.ToolchainError, tc.Command+" not found in PATH", err).
			WithFixes(installFix(tc))
	}
	return path, nil
}

// Check runs lang's toolchain once. On a non-zero exit it returns the
// populated Result together with a TOOLCHAIN_ERROR whose details carry the
// captured output and the setup hint.
func (c *Checker) Check(ctx context.Context, lang snippet.Language) (*Result, error) {
	tc, ok := c.toolchains[lang]
	if !ok {
		return nil, errors.Newf(errors.ContractError, "no toolchain configured for language %q", lang)
	}

	c.logger.Info("running toolchain", "language", string(lang), "command", tc.CommandLine(), "dir", tc.Dir)

	start := time.Now()
	stdout, stderr, err := c.runner.Run(ctx, tc.Dir, tc.Command, tc.Args...)
	result := &Result{
		Language: lang,
		Command:  tc.CommandLine(),
		Dir:      tc.Dir,
		Passed:   err == nil,
		Duration: time.Since(start),
		Stdout:   stdout,
		Stderr:   stderr,
	}

	if err == nil {
		c.logger.Info("toolchain passed", "language", string(lang), "duration", result.Duration)
		return result, nil
	}

	result.ExitCode = exitCode(err)
	result.Hint = tc.SetupHint

	msg := tc.CommandLine() + " failed for " + string(lang) + " snippets"
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		msg = tc.CommandLine() + " timed out for " + string(lang) + " snippets"
	case stderrors.Is(err, context.Canceled):
		return result, err
	}

	c.logger.Warn("toolchain failed",
		"language", string(lang),
		"exitCode", result.ExitCode,
		"error", err.Error(),
	)

	fixes := append([]errors.FixAction{installFix(tc)}, errors.GetSuggestedFixes(errors.ToolchainError)...)
	return result, errors.New(errors.ToolchainError, msg, err).
		WithPath(tc.Dir).
		WithDetails(Failure{
			Language: lang,
			Command:  result.Command,
			ExitCode: result.ExitCode,
			Stdout:   stdout,
			Stderr:   stderr,
			Hint:     tc.SetupHint,
		}).
		WithFixes(fixes...)
}

// CheckAll checks langs in order. Sequential runs stop at the first failure;
// parallel runs let every toolchain finish. Either way the returned error is
// the first failure in langs order and results holds every completed run.
func (c *Checker) CheckAll(ctx context.Context, langs []snippet.Language, parallel bool) ([]*Result, error) {
	if !parallel {
		var results []*Result
		for _, lang := range langs {
			r, err := c.Check(ctx, lang)
			if r != nil {
				results = append(results, r)
			}
			if err != nil {
				return results, err
			}
		}
		return results, nil
	}

	results := make([]*Result, len(langs))
	errs := make([]error, len(langs))

	var g errgroup.Group
	for i, lang := range langs {
		g.Go(func() error {
			results[i], errs[i] = c.Check(ctx, lang)
			return nil
		})
	}
	_ = g.Wait()

	var done []*Result
	for _, r := range results {
		if r != nil {
			done = append(done, r)
		}
	}
	for _, err := range errs {
		if err != nil {
			return done, err
		}
	}
	return done, nil
}

func installFix(tc Toolchain) errors.FixAction {
	return errors.FixAction{
		Type:        errors.InstallTool,
		Tool:        tc.Command,
		Description: tc.SetupHint,
	}
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
