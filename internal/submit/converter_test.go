package submit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

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
	d.ThirdPartySoftware.Checks = []types.CheckItem{{Description: "License scan", Score: 2}}
	d.SourceCode.Checks = []types.CheckItem{{Description: "Repository audit", Score: 1}}
	d.Datasets.Checks = []types.CheckItem{{Description: "Sample inspection", Score: 3}}
	d.Models.Checks = []types.CheckItem{{Description: "FLOPs estimate", Score: 2}}
	d.FinalDecision = types.DecisionApproved
	return d
}

func newTestConverter(t *testing.T) *Converter {
	t.Helper()

	dir := t.TempDir()
	draftPath := filepath.Join(dir, "drafts", "review.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(draftPath), 0755))

	c := NewConverter(draftPath, filepath.Join(dir, "submissions"))
	c.now = func() time.Time { return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC) }
	return c
}

func writeWorkingCopy(t *testing.T, c *Converter, draft *types.ReviewDraft) {
	t.Helper()
	data, err := draft.MarshalCanonical()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(c.draftPath, data, 0644))
}

func TestConvert_WritesRecordAndRetiresDraft(t *testing.T) {
	c := newTestConverter(t)
	draft := testDraft()
	writeWorkingCopy(t, c, draft)

	record, err := c.Convert(draft)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "AIMCR-k1234-2026-08-23", record.ID)
	assert.Equal(t, types.SchemaVersion, record.SchemaVersion)
	assert.FileExists(t, c.RecordPath(record.ID))
	assert.NoFileExists(t, c.draftPath, "working copy must be retired after the record is written")
}

func TestConvert_RecomputesCumulativeScores(t *testing.T) {
	c := newTestConverter(t)
	draft := testDraft()
	draft.ThirdPartySoftware.Checks = []types.CheckItem{
		{Description: "a", Score: 4},
		{Description: "b", Score: 5},
	}
	draft.ThirdPartySoftware.CumulativeScore = 1 // stale client value

	record, err := c.Convert(draft)
	require.NoError(t, err)
	assert.Equal(t, 9, record.Review.ThirdPartySoftware.CumulativeScore)
}

func TestConvert_DuplicateSubmission(t *testing.T) {
	c := newTestConverter(t)
	draft := testDraft()
	writeWorkingCopy(t, c, draft)

	first, err := c.Convert(draft)
	require.NoError(t, err)
	firstBytes, err := os.ReadFile(c.RecordPath(first.ID))
	require.NoError(t, err)

	// Same project and review date derive the same identifier.
	_, err = c.Convert(testDraft())
	require.Error(t, err)

	var subErr *SubmitError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, KindDuplicateSubmission, subErr.Kind)

	afterBytes, err := os.ReadFile(c.RecordPath(first.ID))
	require.NoError(t, err)
	assert.Equal(t, firstBytes, afterBytes, "first record must be unchanged")
}

func TestConvert_ValidationFailed(t *testing.T) {
	c := newTestConverter(t)

	record, err := c.Convert(types.NewDraft())
	require.Error(t, err)
	assert.Nil(t, record)

	var subErr *SubmitError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, KindValidationFailed, subErr.Kind)
	assert.NotEmpty(t, subErr.Fields)

	entries, globErr := filepath.Glob(filepath.Join(c.submissionsDir, "*.json"))
	require.NoError(t, globErr)
	assert.Empty(t, entries, "no record may be written for an invalid draft")
}

func TestConvert_MissingWorkingCopyIsFine(t *testing.T) {
	// Retiring an already-absent draft is not an error.
	c := newTestConverter(t)

	record, err := c.Convert(testDraft())
	require.NoError(t, err)
	require.NotNil(t, record)
}

func TestList(t *testing.T) {
	c := newTestConverter(t)

	early := testDraft()
	c.now = func() time.Time { return time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC) }
	early.Metadata.ReviewDate = "2026-08-20"
	_, err := c.Convert(early)
	require.NoError(t, err)

	late := testDraft()
	c.now = func() time.Time { return time.Date(2026, 8, 23, 8, 0, 0, 0, time.UTC) }
	_, err = c.Convert(late)
	require.NoError(t, err)

	// Malformed files are skipped, not fatal.
	require.NoError(t, os.WriteFile(filepath.Join(c.submissionsDir, "broken.json"), []byte("{ nope"), 0644))

	infos, err := List(c.submissionsDir)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "AIMCR-k1234-2026-08-23", infos[0].ID)
	assert.Equal(t, "AIMCR-k1234-2026-08-20", infos[1].ID)
	assert.Equal(t, "k1234", infos[0].ProjectID)
}

func TestList_EmptyDir(t *testing.T) {
	infos, err := List(filepath.Join(t.TempDir(), "submissions"))
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestSubmitError_Message(t *testing.T) {
	err := validationFailed([]string{"Metadata.ProjectID"}, nil)
	assert.Contains(t, err.Error(), "Metadata.ProjectID")
	assert.Contains(t, err.Error(), "validation failed")
}
