// Package store persists review drafts to a git-backed working tree: every
// save overwrites the working copy, records a commit, and pushes it to the
// configured remote.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/ksl-hpc/aimcr/internal/types"
)

const remoteName = "origin"

// Checkpoint identifies one saved draft version recorded in history.
type Checkpoint struct {
	Hash    string
	Message string
	When    time.Time
}

// Options configures access to the remote repository.
type Options struct {
	// RepoURL is the remote the store pushes to. May be a local path in
	// tests.
	RepoURL string
	// Token authenticates HTTP(S) pushes. Ignored for non-HTTP remotes.
	Token       string
	AuthorName  string
	AuthorEmail string
}

// DraftStore owns the git working tree holding the draft working copy and the
// submissions area. It must not be used concurrently for the same draft
// target; the session layer enforces single-writer discipline.
type DraftStore struct {
	workDir string
	opts    Options
	repo    *git.Repository
}

// Open prepares the working tree at workDir: an existing repository is
// reused, otherwise the remote is cloned, and an empty remote gets a fresh
// local repository wired to it. Any other failure here is a startup error
// and should be treated as fatal by the caller.
func Open(ctx context.Context, workDir string, opts Options) (*DraftStore, error) {
	s := &DraftStore{workDir: workDir, opts: opts}

	repo, err := git.PlainOpen(workDir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = s.cloneOrInit(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open working tree %s: %w", workDir, err)
	}
	s.repo = repo

	for _, dir := range []string{filepath.Dir(s.DraftPath()), s.SubmissionsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return s, nil
}

func (s *DraftStore) cloneOrInit(ctx context.Context) (*git.Repository, error) {
	repo, err := git.PlainCloneContext(ctx, s.workDir, false, &git.CloneOptions{
		URL:  s.opts.RepoURL,
		Auth: s.auth(),
	})
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return nil, fmt.Errorf("failed to clone %s: %w", s.opts.RepoURL, err)
	}

	// Remote exists but has no history yet: start a local repository and
	// point it at the remote so the first checkpoint establishes history.
	repo, err = git.PlainInit(s.workDir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to init repository: %w", err)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: remoteName,
		URLs: []string{s.opts.RepoURL},
	}); err != nil {
		return nil, fmt.Errorf("failed to configure remote: %w", err)
	}
	return repo, nil
}

// DraftPath returns the working copy location of the live draft.
func (s *DraftStore) DraftPath() string {
	return filepath.Join(s.workDir, "drafts", "review.json")
}

// SubmissionsDir returns the directory holding submission records.
func (s *DraftStore) SubmissionsDir() string {
	return filepath.Join(s.workDir, "submissions")
}

// LoadDraft reads the current working copy. Returns (nil, nil) when no draft
// has been saved yet.
func (s *DraftStore) LoadDraft() (*types.ReviewDraft, error) {
	data, err := os.ReadFile(s.DraftPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read working copy: %w", err)
	}

	var draft types.ReviewDraft
	if err := draft.UnmarshalCanonical(data); err != nil {
		return nil, fmt.Errorf("failed to parse working copy: %w", err)
	}
	return &draft, nil
}

// SaveDraft writes the draft snapshot to the working copy, commits it, and
// pushes the commit. On success the working copy and the newest checkpoint
// are byte-identical. A push failure is returned as a PushFailed (or
// AuthFailed) StoreError; the local write and commit remain in place.
func (s *DraftStore) SaveDraft(ctx context.Context, draft *types.ReviewDraft) (*Checkpoint, error) {
	data, err := draft.MarshalCanonical()
	if err != nil {
		return nil, writeFailed("failed to serialize draft", err)
	}
	if err := os.WriteFile(s.DraftPath(), data, 0644); err != nil {
		return nil, writeFailed("failed to write working copy", err)
	}

	message := fmt.Sprintf("Draft checkpoint: %s (%s)", draft.Metadata.ProjectID, time.Now().UTC().Format(time.RFC3339))
	if draft.Metadata.ProjectID == "" {
		message = fmt.Sprintf("Draft checkpoint (%s)", time.Now().UTC().Format(time.RFC3339))
	}
	return s.CommitAndPush(ctx, message)
}

// CommitAndPush stages everything in the working tree, records a commit with
// the given non-empty message (skipped when the tree is clean), and pushes to
// the remote. The submit path reuses it to publish new submission records.
func (s *DraftStore) CommitAndPush(ctx context.Context, message string) (*Checkpoint, error) {
	if message == "" {
		message = "Checkpoint"
	}

	wt, err := s.repo.Worktree()
	if err != nil {
		return nil, writeFailed("failed to open worktree", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, writeFailed("failed to stage changes", err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, writeFailed("failed to read worktree status", err)
	}

	cp := &Checkpoint{Message: message, When: time.Now().UTC()}
	if status.IsClean() {
		// Nothing new to record; reuse the current head so the caller still
		// gets a checkpoint identity.
		if head, err := s.repo.Head(); err == nil {
			cp.Hash = head.Hash().String()
		}
	} else {
		hash, err := wt.Commit(message, &git.CommitOptions{
			Author: &object.Signature{
				Name:  s.opts.AuthorName,
				Email: s.opts.AuthorEmail,
				When:  cp.When,
			},
		})
		if err != nil {
			return nil, writeFailed("failed to commit checkpoint", err)
		}
		cp.Hash = hash.String()
	}

	if err := s.push(ctx); err != nil {
		return nil, err
	}
	return cp, nil
}

func (s *DraftStore) push(ctx context.Context) error {
	err := s.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{"refs/heads/*:refs/heads/*"},
		Auth:       s.auth(),
	})
	if err == nil || errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) {
		return authFailed("remote rejected credentials", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return pushFailed("push timed out", err)
	}
	return pushFailed("failed to push to remote", err)
}

func (s *DraftStore) auth() transport.AuthMethod {
	if s.opts.Token == "" || !strings.HasPrefix(s.opts.RepoURL, "http") {
		return nil
	}
	// GitHub-style token auth: any non-empty username, token as password.
	return &githttp.BasicAuth{Username: "token", Password: s.opts.Token}
}
