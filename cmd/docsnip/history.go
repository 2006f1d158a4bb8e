package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docsnip/internal/errors"
	"docsnip/internal/storage"
)

var (
	historyLimit int
	historyPrune int
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded extract and check runs",
	Long: `List recent runs from the run manifest, or show one run's snippets and
toolchain results. A run ID may be abbreviated to any unique prefix.

Examples:
  docsnip history              # Last 20 runs
  docsnip history 3f2a9c1e     # One run in detail
  docsnip history --prune 50   # Keep only the 50 newest runs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 for all)")
	historyCmd.Flags().IntVar(&historyPrune, "prune", -1, "Delete all but the N newest runs")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	repo, err := a.openManifest()
	if err != nil {
		return err
	}
	if repo == nil {
		return errors.Newf(errors.ConfigError, "run manifest is disabled").
			WithFixes(errors.FixAction{
				Type:        errors.RunCommand,
				Command:     "DOCSNIP_MANIFEST_ENABLED=true docsnip history",
				Safe:        true,
				Description: "Enable manifest.enabled in .docsnip/config.json",
			})
	}

	var resp interface{}
	switch {
	case historyPrune >= 0:
		removed, err := repo.Prune(historyPrune)
		if err != nil {
			return errors.New(errors.InternalError, "failed to prune runs", err)
		}
		a.logger.Info("pruned runs", "removed", removed, "kept", historyPrune)
		resp = &PruneResponse{Kept: historyPrune, Removed: removed}
	case len(args) == 1:
		resp, err = runDetail(repo, args[0])
		if err != nil {
			return err
		}
	default:
		runs, err := repo.List(historyLimit)
		if err != nil {
			return errors.New(errors.InternalError, "failed to list runs", err)
		}
		if runs == nil {
			runs = []*storage.Run{}
		}
		resp = &HistoryResponse{Runs: runs}
	}

	out, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runDetail(repo *storage.RunRepository, prefix string) (*RunDetailResponse, error) {
	run, err := repo.Find(prefix)
	if err != nil {
		return nil, errors.New(errors.ContractError, "failed to look up run", err)
	}
	if run == nil {
		return nil, errors.Newf(errors.ContractError, "no run matches %q", prefix).
			WithFixes(errors.FixAction{
				Type:        errors.RunCommand,
				Command:     "docsnip history",
				Safe:        true,
				Description: "List recorded runs",
			})
	}

	artifacts, err := repo.Artifacts(run.ID)
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to load run artifacts", err)
	}
	checks, err := repo.Checks(run.ID)
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to load run checks", err)
	}
	if artifacts == nil {
		artifacts = []*storage.ArtifactRecord{}
	}
	if checks == nil {
		checks = []*storage.CheckRecord{}
	}
	return &RunDetailResponse{Run: run, Artifacts: artifacts, Checks: checks}, nil
}
