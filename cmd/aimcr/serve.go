package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksl-hpc/aimcr/internal/config"
	"github.com/ksl-hpc/aimcr/internal/server"
	"github.com/ksl-hpc/aimcr/internal/session"
	"github.com/ksl-hpc/aimcr/internal/store"
	"github.com/ksl-hpc/aimcr/internal/submit"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review form HTTP API",
	Long:  "Start an HTTP server exposing the review draft lifecycle: edit, save (checkpoint), submit, and render.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides AIMCR_HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

// startupTimeout bounds the initial clone of the remote repository. An
// unreachable remote at startup is fatal, not a runtime error.
const startupTimeout = 60 * time.Second

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTPAddr = serveAddr
	}

	sess, err := openSession(cfg)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Addr:           cfg.HTTPAddr,
		Session:        sess,
		SubmissionsDir: cfg.SubmissionsDir(),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// openSession prepares the working tree and the controller shared by the
// serve, save, and submit commands.
func openSession(cfg *config.Config) (*session.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	st, err := store.Open(ctx, cfg.WorkDir, store.Options{
		RepoURL:     cfg.RepoURL,
		Token:       cfg.Token,
		AuthorName:  cfg.AuthorName,
		AuthorEmail: cfg.AuthorEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare working tree: %w", err)
	}

	conv := submit.NewConverter(st.DraftPath(), st.SubmissionsDir())
	sess, err := session.New(st, conv)
	if err != nil {
		return nil, err
	}
	return sess, nil
}
