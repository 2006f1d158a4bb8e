package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docsnip/internal/config"
	"docsnip/internal/errors"
	"docsnip/internal/paths"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .docsnip/config.json",
	Long:  "Creates a .docsnip/ directory with the default configuration in the current directory",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config.json")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := getProjectRoot()
	if err != nil {
		return errors.New(errors.InternalError, "failed to get current directory", err)
	}

	out := cmd.OutOrStdout()
	configPath := paths.GetConfigPath(root)
	if _, statErr := os.Stat(configPath); statErr == nil && !initForce {
		// Already initialized is success
		fmt.Fprintln(out, "docsnip already initialized.")
		fmt.Fprintf(out, "Configuration at: %s\n", configPath)
		fmt.Fprintln(out, "\nRun 'docsnip init --force' to overwrite it.")
		return nil
	}

	if err := config.DefaultConfig().Save(root); err != nil {
		return errors.New(errors.FilesystemError, "failed to write config file", err).WithPath(configPath)
	}

	fmt.Fprintf(out, "Wrote %s\n", configPath)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  docsnip doctor   # verify toolchains")
	fmt.Fprintln(out, "  docsnip run      # extract and check snippets")
	return nil
}
