package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [paths...]",
	Short: "Extract snippets, then check every language that received any",
	Long: `Extract documentation snippets and run the toolchains of the languages that
received at least one snippet. Exits non-zero on the first failure of either
stage.

Examples:
  docsnip run
  docsnip run --clean docs/v2
  docsnip run --workers 8 --parallel`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&extractClean, "clean", false, "Remove every snippet workspace before extracting")
	runCmd.Flags().IntVar(&extractWorkers, "workers", 0, "Documents processed concurrently (default: extract.workers)")
	runCmd.Flags().BoolVar(&checkParallel, "parallel", false, "Run toolchains concurrently (default: check.parallel)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := newContext()
	defer cancel()

	rec, err := a.startRecorder("run")
	if err != nil {
		return err
	}

	extracted, err := a.extract(ctx, cmd, args, rec)
	if err != nil {
		a.finishRecorder(rec, nil, err)
		return err
	}

	resp := &RunResponse{
		RunID:   recordedRunID(rec),
		Passed:  true,
		Extract: extracted.ExtractResponse,
	}

	langs := extracted.stats.Languages()
	var checkErr error
	if len(langs) > 0 {
		resp.Check, checkErr = a.check(ctx, cmd, langs, rec)
		if checkErr != nil {
			resp.Passed = false
		}
	} else {
		a.logger.Info("no snippets extracted; skipping toolchains")
	}
	a.finishRecorder(rec, extracted.stats, checkErr)

	out, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return checkErr
}
