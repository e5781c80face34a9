package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksl-hpc/aimcr/internal/config"
	"github.com/ksl-hpc/aimcr/internal/submit"
)

var submitTimeout time.Duration

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Finalize the current draft into a submission record",
	Long:  "Validates the current working copy, writes it to the submissions area as an immutable JSON record, retires the draft, and pushes the result.",
	RunE:  runSubmit,
}

func init() {
	submitCmd.Flags().DurationVar(&submitTimeout, "timeout", 30*time.Second, "Push timeout")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	sess, err := openSession(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	record, err := sess.Submit(ctx)
	if record == nil && err != nil {
		var subErr *submit.SubmitError
		if errors.As(err, &subErr) && subErr.Kind == submit.KindValidationFailed && len(subErr.Fields) > 0 {
			return fmt.Errorf("draft is incomplete; fix these fields and retry:\n  %s", strings.Join(subErr.Fields, "\n  "))
		}
		return err
	}

	fmt.Fprintf(os.Stdout, "Submission %s recorded\n", record.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return nil
}
