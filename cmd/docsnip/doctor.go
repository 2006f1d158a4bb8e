package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docsnip/internal/checker"
	"docsnip/internal/errors"
	"docsnip/internal/paths"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Report whether each language's toolchain is ready",
	Long: `Check that every configured toolchain binary is on PATH and that each
workspace has the files its toolchain needs (go.mod, package.json and
node_modules, a Python virtualenv). Missing pieces come with setup hints.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	chk, err := a.newChecker()
	if err != nil {
		return err
	}
	tcs, err := a.toolchains()
	if err != nil {
		return err
	}

	resp := &DoctorResponse{
		Healthy:    true,
		ConfigPath: paths.GetConfigPath(a.root),
		Toolchains: []DoctorToolchainCLI{},
	}
	if configFlag != "" {
		resp.ConfigPath = configFlag
	}
	if a.cfg.Manifest.Enabled {
		resp.Manifest = a.manifestPath()
	}

	var notReady []string
	for _, tc := range tcs {
		report := DoctorToolchainCLI{
			Language: string(tc.Language),
			Command:  tc.CommandLine(),
			Dir:      tc.Dir,
			Hint:     tc.SetupHint,
		}

		if bin, err := chk.Available(tc.Language); err == nil {
			report.Binary = bin
			report.Found = true
		} else {
			a.logger.Debug("toolchain binary missing", "language", string(tc.Language), "error", err.Error())
		}

		statuses := checker.CheckPrerequisites(tc.Dir, tc.Language)
		for _, s := range statuses {
			report.Prerequisites = append(report.Prerequisites, PrerequisiteCLI{
				Name:     s.Name,
				Found:    s.Found,
				Required: s.Required,
				Path:     s.Path,
			})
		}

		report.Ready = report.Found && len(checker.MissingRequired(statuses)) == 0
		if !report.Ready {
			resp.Healthy = false
			notReady = append(notReady, report.Language)
		}
		resp.Toolchains = append(resp.Toolchains, report)
	}

	out, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)

	if !resp.Healthy {
		return errors.Newf(errors.ToolchainError, "toolchains not ready: %v", notReady)
	}
	return nil
}
