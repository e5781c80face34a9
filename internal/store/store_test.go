package store

import (
	"context"
	"errors"
	"os"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksl-hpc/aimcr/internal/types"
)

func testDraft() *types.ReviewDraft {
	d := types.NewDraft()
	d.Metadata = types.Metadata{
		ReviewerName:  "Reviewer",
		ReviewerEmail: "reviewer@example.edu",
		ProjectName:   "Project",
		ProjectID:     "k1234",
		ReviewDate:    "2026-08-23",
	}
	check := []types.CheckItem{{Description: "check", Score: 2}}
	d.ThirdPartySoftware.Checks = check
	d.SourceCode.Checks = check
	d.Datasets.Checks = check
	d.Models.Checks = check
	d.FinalDecision = types.DecisionApproved
	return d
}

// newTestStore wires a store to a local bare repository acting as the remote.
func newTestStore(t *testing.T) (*DraftStore, string) {
	t.Helper()

	bare := t.TempDir()
	_, err := git.PlainInit(bare, true)
	require.NoError(t, err)

	s, err := Open(context.Background(), t.TempDir(), Options{
		RepoURL:     bare,
		AuthorName:  "Test",
		AuthorEmail: "test@example.edu",
	})
	require.NoError(t, err)
	return s, bare
}

func TestOpen_CreatesLayout(t *testing.T) {
	s, _ := newTestStore(t)

	assert.DirExists(t, s.SubmissionsDir())
	assert.NoFileExists(t, s.DraftPath())
}

func TestOpen_UnreachableRemote(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir(), Options{
		RepoURL: "/nonexistent/remote/repo",
	})
	require.Error(t, err)
}

func TestLoadDraft_Empty(t *testing.T) {
	s, _ := newTestStore(t)

	draft, err := s.LoadDraft()
	require.NoError(t, err)
	assert.Nil(t, draft)
}

func TestSaveDraft_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	draft := testDraft()

	cp, err := s.SaveDraft(context.Background(), draft)
	require.NoError(t, err)
	assert.NotEmpty(t, cp.Hash)
	assert.NotEmpty(t, cp.Message)

	loaded, err := s.LoadDraft()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, *draft, *loaded)
}

func TestSaveDraft_PushesToRemote(t *testing.T) {
	s, bare := newTestStore(t)

	cp, err := s.SaveDraft(context.Background(), testDraft())
	require.NoError(t, err)

	remote, err := git.PlainOpen(bare)
	require.NoError(t, err)
	ref, err := remote.Reference(plumbing.NewBranchReferenceName("master"), true)
	require.NoError(t, err)
	assert.Equal(t, cp.Hash, ref.Hash().String())
}

func TestSaveDraft_WorkingCopyMatchesCheckpoint(t *testing.T) {
	s, _ := newTestStore(t)
	draft := testDraft()

	_, err := s.SaveDraft(context.Background(), draft)
	require.NoError(t, err)

	onDisk, err := os.ReadFile(s.DraftPath())
	require.NoError(t, err)
	canonical, err := draft.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, canonical, onDisk)
}

func TestSaveDraft_CleanTreeReusesHead(t *testing.T) {
	s, _ := newTestStore(t)
	draft := testDraft()

	first, err := s.SaveDraft(context.Background(), draft)
	require.NoError(t, err)

	second, err := s.SaveDraft(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, first.Hash, second.Hash)
}

func TestSaveDraft_PushFailed(t *testing.T) {
	s, bare := newTestStore(t)

	// Simulate an unreachable remote after setup.
	require.NoError(t, os.RemoveAll(bare))

	draft := testDraft()
	_, err := s.SaveDraft(context.Background(), draft)
	require.Error(t, err)

	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindPushFailed, serr.Kind)

	// Partial success: the working copy still reflects the snapshot.
	loaded, err := s.LoadDraft()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, *draft, *loaded)
}

func TestSaveDraft_ContextCancelled(t *testing.T) {
	s, _ := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SaveDraft(ctx, testDraft())
	if err != nil {
		var serr *StoreError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, KindPushFailed, serr.Kind)
	}
}

func TestCommitAndPush_EmptyMessageReplaced(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, os.WriteFile(s.DraftPath(), []byte("{}"), 0644))
	cp, err := s.CommitAndPush(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, cp.Message)
}

func TestStoreError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := pushFailed("failed to push", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "push failed")
}
