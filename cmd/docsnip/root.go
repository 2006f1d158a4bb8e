package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docsnip/internal/version"
)

var (
	// verbosity counts -v flags
	verbosity  int
	quietFlag  bool
	configFlag string
	formatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "docsnip",
	Short: "docsnip - type-check code snippets in documentation",
	Long: `docsnip extracts fenced code blocks from markdown documentation into
per-language scratch workspaces and runs each language's toolchain over them,
so examples that stop compiling are caught before readers copy them.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadDotEnv()
	},
}

func init() {
	rootCmd.SetVersionTemplate("docsnip version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: .docsnip/config.json)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", string(FormatHuman), "Output format (json, human, yaml, toml)")
}

// loadDotEnv loads .env from the working directory so DOCSNIP_* overrides can
// live next to the docs. Variables already set in the environment win.
func loadDotEnv() error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	envPath := filepath.Join(wd, ".env")
	if _, err := os.Stat(envPath); err != nil {
		return nil
	}
	return godotenv.Load(envPath)
}
