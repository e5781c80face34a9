// Package main provides the entry point for the AIMCR review workbench CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aimcr",
	Short: "AI Model Control Review workbench",
	Long:  "aimcr edits review drafts, checkpoints them into a git repository, converts submitted drafts into immutable JSON records, and renders records to PDF.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
