package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDraft() *ReviewDraft {
	d := NewDraft()
	d.Metadata = Metadata{
		ReviewerName:  "Mohsin Shaikh",
		ReviewerEmail: "mohsin.shaikh@example.edu",
		ProjectName:   "Protein Folding at Scale",
		ProjectID:     "k1234",
		ReviewDate:    "2026-08-23",
	}
	d.ThirdPartySoftware.Checks = []CheckItem{{Description: "License scan", Score: 2, Notes: "MIT/Apache only"}}
	d.SourceCode.Checks = []CheckItem{{Description: "Repository audit", Score: 1}}
	d.SourceCode.RepositoryURL = "https://example.com/repo"
	d.Datasets.Checks = []CheckItem{{Description: "Sample inspection", Score: 3}}
	d.Models.Checks = []CheckItem{{Description: "FLOPs estimate", Score: 2}}
	d.Models.ModelName = "llama-like-7b"
	d.FinalDecision = DecisionApproved
	return d
}

func TestNewDraft_Template(t *testing.T) {
	d := NewDraft()

	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, d.Metadata.ReviewDate)

	for _, checks := range [][]CheckItem{
		d.ThirdPartySoftware.Checks,
		d.SourceCode.Checks,
		d.Datasets.Checks,
		d.Models.Checks,
	} {
		assert.Len(t, checks, 5)
		for _, c := range checks {
			assert.Equal(t, 1, c.Score)
		}
	}
}

func TestValidate_CompleteDraft(t *testing.T) {
	assert.NoError(t, testDraft().Validate())
}

func TestValidate_TemplateDraftFails(t *testing.T) {
	err := NewDraft().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ReviewerName")
	assert.Contains(t, err.Error(), "FinalDecision")
}

func TestValidate_BadDecision(t *testing.T) {
	d := testDraft()
	d.FinalDecision = "Maybe"
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FinalDecision")
}

func TestValidate_DecisionWithSpaces(t *testing.T) {
	d := testDraft()
	d.FinalDecision = DecisionWithMonitoring
	assert.NoError(t, d.Validate())
}

func TestValidate_ScoreOutOfRange(t *testing.T) {
	d := testDraft()
	d.Models.Checks[0].Score = 6
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Score")
}

func TestValidate_BadReviewDate(t *testing.T) {
	d := testDraft()
	d.Metadata.ReviewDate = "23-08-2026"
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ReviewDate")
}

func TestRecompute(t *testing.T) {
	d := testDraft()
	d.ThirdPartySoftware.Checks = []CheckItem{
		{Description: "a", Score: 2},
		{Description: "b", Score: 5},
	}
	// Client-sent cumulative scores must be replaced, not trusted.
	d.ThirdPartySoftware.CumulativeScore = 99

	d.Recompute()

	assert.Equal(t, 7, d.ThirdPartySoftware.CumulativeScore)
	assert.Equal(t, 1, d.SourceCode.CumulativeScore)
	assert.Equal(t, 3, d.Datasets.CumulativeScore)
	assert.Equal(t, 2, d.Models.CumulativeScore)
}

func TestClone_Independent(t *testing.T) {
	d := testDraft()
	clone := d.Clone()

	clone.Metadata.ProjectID = "other"
	clone.Datasets.Checks[0].Score = 5

	assert.Equal(t, "k1234", d.Metadata.ProjectID)
	assert.Equal(t, 3, d.Datasets.Checks[0].Score)
}

func TestCanonicalRoundTrip(t *testing.T) {
	d := testDraft()

	data, err := d.MarshalCanonical()
	require.NoError(t, err)

	var back ReviewDraft
	require.NoError(t, back.UnmarshalCanonical(data))
	assert.Equal(t, *d, back)

	// Canonical form is stable across round trips.
	again, err := back.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestSubmissionID(t *testing.T) {
	tests := []struct {
		name      string
		projectID string
		date      string
		want      string
	}{
		{"plain", "k1234", "2026-08-23", "AIMCR-k1234-2026-08-23"},
		{"slash", "hpc/k1234", "2026-08-23", "AIMCR-hpc-k1234-2026-08-23"},
		{"spaces", "k 1234", "2026-08-23", "AIMCR-k_1234-2026-08-23"},
		{"backslash", `hpc\k1234`, "2026-08-23", "AIMCR-hpc-k1234-2026-08-23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubmissionID(tt.projectID, tt.date))
		})
	}
}

func TestNewSubmissionRecord(t *testing.T) {
	d := testDraft()
	at := time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)

	record := NewSubmissionRecord(d, at)

	assert.Equal(t, SchemaVersion, record.SchemaVersion)
	assert.Equal(t, "AIMCR-k1234-2026-08-23", record.ID)
	assert.Equal(t, at, record.SubmittedAt)
	assert.Equal(t, *d, record.Review)

	// The record holds a snapshot, not an alias of the live draft.
	d.Metadata.ProjectName = "changed"
	assert.Equal(t, "Protein Folding at Scale", record.Review.Metadata.ProjectName)
}
