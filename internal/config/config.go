// Package config loads workbench configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the settings the workbench needs at startup. The remote
// repository location and credential are always supplied via environment,
// never hard-coded; their absence is a startup-time fatal error.
type Config struct {
	// RepoURL is the remote repository that receives draft checkpoints and
	// submissions. Required.
	RepoURL string
	// Token is the personal access token used to authenticate pushes.
	// Required.
	Token string
	// WorkDir is the local working tree. Defaults to aimcr-workspace under
	// the OS temp directory.
	WorkDir string
	// AuthorName and AuthorEmail identify checkpoint commits.
	AuthorName  string
	AuthorEmail string
	// HTTPAddr is the listen address for the serve command.
	HTTPAddr string
}

// Load reads configuration from the environment and reports every missing
// required variable at once.
func Load() (*Config, error) {
	cfg := &Config{
		RepoURL:     os.Getenv("AIMCR_REPO_URL"),
		Token:       os.Getenv("AIMCR_GIT_TOKEN"),
		WorkDir:     getEnv("AIMCR_WORKDIR", filepath.Join(os.TempDir(), "aimcr-workspace")),
		AuthorName:  getEnv("AIMCR_AUTHOR_NAME", "AIMCR Workbench"),
		AuthorEmail: getEnv("AIMCR_AUTHOR_EMAIL", "aimcr@localhost"),
		HTTPAddr:    getEnv("AIMCR_HTTP_ADDR", ":8080"),
	}

	var missing []string
	if cfg.RepoURL == "" {
		missing = append(missing, "AIMCR_REPO_URL")
	}
	if cfg.Token == "" {
		missing = append(missing, "AIMCR_GIT_TOKEN")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// DraftPath returns the working copy location of the live draft.
func (c *Config) DraftPath() string {
	return filepath.Join(c.WorkDir, "drafts", "review.json")
}

// SubmissionsDir returns the directory holding one JSON file per submission
// record.
func (c *Config) SubmissionsDir() string {
	return filepath.Join(c.WorkDir, "submissions")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
