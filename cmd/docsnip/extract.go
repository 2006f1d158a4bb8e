package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"docsnip/internal/paths"
	"docsnip/internal/snippet"
	"docsnip/internal/storage"
)

var (
	extractClean   bool
	extractWorkers int
)

var extractCmd = &cobra.Command{
	Use:   "extract [paths...]",
	Short: "Extract documentation snippets into language workspaces",
	Long: `Process documentation files into the per-language scratch workspaces.

Each argument may be a file or a directory; directories are walked for
documentation files (docs.extensions). Without arguments docs.root is walked.

Examples:
  docsnip extract                       # Walk docs.root
  docsnip extract docs/v2/session       # One topic
  docsnip extract --clean --workers 4   # Fresh workspaces, 4 files at a time`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractClean, "clean", false, "Remove every snippet workspace before extracting")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 0, "Documents processed concurrently (default: extract.workers)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := newContext()
	defer cancel()

	rec, err := a.startRecorder("extract")
	if err != nil {
		return err
	}

	resp, err := a.extract(ctx, cmd, args, rec)
	var stats *snippet.RunStats
	if resp != nil {
		stats = resp.stats
	}
	a.finishRecorder(rec, stats, err)
	if err != nil {
		return err
	}

	out, err := FormatResponse(resp.ExtractResponse, OutputFormat(formatFlag))
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// extractResult carries the raw stats next to their CLI view.
type extractResult struct {
	*ExtractResponse
	stats *snippet.RunStats
}

// extract runs the extraction stage shared by extract and run.
func (a *app) extract(ctx context.Context, cmd *cobra.Command, args []string, rec *storage.Recorder) (*extractResult, error) {
	workers := a.cfg.Extract.Workers
	if cmd.Flags().Changed("workers") {
		workers = extractWorkers
	}
	clean := a.cfg.Extract.Clean
	if cmd.Flags().Changed("clean") {
		clean = extractClean
	}

	var obs snippet.Observer
	if rec != nil {
		obs = rec
	}
	p, err := a.newPipeline(workers, obs)
	if err != nil {
		return nil, err
	}

	if clean {
		if err := p.Clean(ctx); err != nil {
			return nil, err
		}
	}

	roots := a.docRoots(args)
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err == nil && !paths.IsWithin(abs, a.root) {
			a.logger.Warn("document root is outside the project; snippet folders are named from its confined path", "path", r)
		}
	}

	stats, err := p.ProcessPaths(ctx, roots)
	if err != nil {
		return nil, err
	}

	return &extractResult{
		ExtractResponse: convertExtractResponse(stats, recordedRunID(rec), clean),
		stats:           stats,
	}, nil
}
