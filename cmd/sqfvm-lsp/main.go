// Package main provides the sqfvm-lsp CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqfvm/language-server/pkg/version"
)

var (
	cfgFile string //nolint:gochecknoglobals // CLI flag variable
	debug   bool   //nolint:gochecknoglobals // CLI flag variable
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sqfvm-lsp",
		Short: "Language server for SQF scripts and Class/Config files",
		Long:  `sqfvm-lsp analyzes a workspace of .sqf scripts and config.cpp/description.ext files and serves diagnostics, references, hover, code actions, and inlay hints over LSP.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sqfvm-lsp.yaml or ./.vscode/sqfvm-lsp.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging and always-on tracing")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "sqfvm-lsp %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
