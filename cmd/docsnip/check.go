package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"docsnip/internal/snippet"
	"docsnip/internal/storage"
)

var checkParallel bool

var checkCmd = &cobra.Command{
	Use:   "check [languages...]",
	Short: "Run each language's toolchain over its snippet workspace",
	Long: `Run the configured toolchain for each language over the snippets extracted
into its workspace. Without arguments every configured language is checked.

Languages: go, python, typescript (aliases: golang, py, ts).

Examples:
  docsnip check                 # Every configured toolchain, one at a time
  docsnip check go typescript   # Only these two
  docsnip check --parallel      # All toolchains at once`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkParallel, "parallel", false, "Run toolchains concurrently (default: check.parallel)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	langs, err := a.parseLanguages(args)
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	rec, err := a.startRecorder("check")
	if err != nil {
		return err
	}

	resp, checkErr := a.check(ctx, cmd, langs, rec)
	a.finishRecorder(rec, nil, checkErr)

	if resp != nil {
		out, err := FormatResponse(resp, OutputFormat(formatFlag))
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	return checkErr
}

// check runs the toolchain stage shared by check and run. The response is
// non-nil whenever at least the toolchains could be set up, even on failure.
func (a *app) check(ctx context.Context, cmd *cobra.Command, langs []snippet.Language, rec *storage.Recorder) (*CheckResponse, error) {
	parallel := a.cfg.Check.Parallel
	if cmd.Flags().Changed("parallel") {
		parallel = checkParallel
	}

	chk, err := a.newChecker()
	if err != nil {
		return nil, err
	}

	results, checkErr := chk.CheckAll(ctx, langs, parallel)
	if rec != nil {
		for _, r := range results {
			if err := rec.CheckFinished(r); err != nil {
				a.logger.Warn("failed to record check", "language", string(r.Language), "error", err.Error())
			}
		}
	}

	return convertCheckResponse(results, recordedRunID(rec)), checkErr
}
