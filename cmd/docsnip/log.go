package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var logLines int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the docsnip log file",
	Long: `Show the last lines of the log file written when logging.file is set.

Examples:
  docsnip log          # Show last 50 lines
  docsnip log -n 200   # Show last 200 lines`,
	RunE: runLog,
}

func init() {
	logCmd.Flags().IntVarP(&logLines, "lines", "n", 50, "Number of lines to show")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	logPath := a.logPath()
	out := cmd.OutOrStdout()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No logs found.")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Log file location: %s\n", logPath)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Logs are written when logging.file is set, e.g.:")
		fmt.Fprintln(out, "  DOCSNIP_LOGGING_FILE=.docsnip/logs/docsnip.log docsnip run")
		return nil
	}

	return showLogLines(out, logPath, logLines)
}

func showLogLines(w io.Writer, path string, n int) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	// Read all lines and keep last N
	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}

	for _, line := range lines {
		fmt.Fprintln(w, line)
	}

	return scanner.Err()
}
