package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docsnip/internal/config"
)

var varsCmd = &cobra.Command{
	Use:   "vars [topic]",
	Short: "Print the placeholder substitution table",
	Long: `Print the topic-scoped variables applied to snippets as ^{key}
placeholders. With a topic, only that topic's variables are shown.

Examples:
  docsnip vars
  docsnip vars session --format yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVars,
}

func init() {
	rootCmd.AddCommand(varsCmd)
}

func runVars(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	table, err := a.loadVariables()
	if err != nil {
		return err
	}

	resp := &VarsResponse{
		Path:      config.Resolve(a.root, a.cfg.Variables.Path),
		Topics:    table.Topics(),
		Variables: map[string]map[string]string{},
	}
	if len(args) == 1 {
		resp.Topic = args[0]
		if vars, ok := table.Lookup(args[0]); ok {
			resp.Variables[args[0]] = vars
		}
	} else {
		for topic, vars := range table {
			resp.Variables[topic] = vars
		}
	}

	out, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
