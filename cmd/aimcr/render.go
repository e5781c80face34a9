package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksl-hpc/aimcr/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <submission-json-path> <output-pdf-path>",
	Short: "Render a submission record to PDF",
	Long:  "Reads a submission record JSON file and writes a paginated PDF reproducing its structure. Works on any record from the submissions area, including ones written by newer schema versions.",
	Args:  cobra.ExactArgs(2),
	RunE:  runRender,
}

func init() {
	renderCmd.SilenceUsage = true
	rootCmd.AddCommand(renderCmd)
}

func runRender(_ *cobra.Command, args []string) error {
	input, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read submission record: %w", err)
	}

	if err := render.RenderToFile(input, args[1]); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "PDF created: %s\n", args[1])
	return nil
}
