package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksl-hpc/aimcr/internal/config"
)

var saveTimeout time.Duration

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Checkpoint the current draft",
	Long:  "Commits the current working copy of the draft and pushes the checkpoint to the configured remote repository.",
	RunE:  runSave,
}

func init() {
	saveCmd.Flags().DurationVar(&saveTimeout, "timeout", 30*time.Second, "Push timeout")
	rootCmd.AddCommand(saveCmd)
}

func runSave(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	sess, err := openSession(cfg)
	if err != nil {
		return err
	}

	_, draft, _ := sess.Snapshot()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	// Re-save the resumed draft so the working copy, the new checkpoint, and
	// the remote all hold the same snapshot.
	if err := sess.Update(draft); err != nil {
		return err
	}
	cp, err := sess.Save(ctx)
	if err != nil {
		if sess.RemoteDirty() {
			fmt.Fprintf(os.Stderr, "Warning: checkpoint recorded locally but not pushed\n")
		}
		return err
	}

	fmt.Fprintf(os.Stdout, "Checkpoint %s recorded and pushed\n", cp.Hash)
	return nil
}
