package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docsplice",
	Short: "Snippet expansion for markdown documentation",
	Long: `Docsplice keeps shared content in one place. Documents reference
snippet files with <Snippet file="..." /> markers; docsplice resolves
each reference against the snippets directory or over HTTP, expands
markdown snippets recursively, and embeds everything else as a fenced
code block.

Configuration is read from docsplice.yml (or --config), then from
DOCSPLICE_* environment variables; command-line flags win.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (docsplice.yml is picked up automatically)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger builds the JSON logger shared by all subcommands. Logs go
// to stderr so command output on stdout stays machine-readable.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
