// Package types provides type definitions for review drafts and submission
// records used throughout the workbench.
package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Final decision values accepted on a completed review.
const (
	DecisionApproved       = "Approved"
	DecisionWithMonitoring = "Approved with Monitoring"
	DecisionEscalated      = "Escalated"
	DecisionRejected       = "Rejected"
)

// templateChecks is the number of empty check rows seeded into a fresh draft.
const templateChecks = 5

// CheckItem is a single screening check with a risk score from 1 (benign)
// to 5 (severe).
type CheckItem struct {
	Description string `json:"description" validate:"required"`
	Score       int    `json:"score" validate:"min=1,max=5"`
	Notes       string `json:"notes"`
}

// CheckSection groups the checks for one screening category. CumulativeScore
// is derived from the checks and recomputed at submission time; values sent
// by a client are never trusted.
type CheckSection struct {
	Checks          []CheckItem `json:"checks" validate:"required,min=1,dive"`
	CumulativeScore int         `json:"cumulative_score"`
}

// Sum returns the cumulative risk score across all checks in the section.
func (s *CheckSection) Sum() int {
	total := 0
	for _, c := range s.Checks {
		total += c.Score
	}
	return total
}

// ThirdPartySoftware is the third-party software screening section.
type ThirdPartySoftware struct {
	CheckSection
}

// SourceCode is the source code screening section.
type SourceCode struct {
	CheckSection
	RepositoryURL string `json:"repository_url,omitempty"`
}

// Datasets is the datasets and user files screening section.
type Datasets struct {
	CheckSection
	SampleGuideline string `json:"sample_guideline,omitempty"`
}

// Models is the AI models screening section.
type Models struct {
	CheckSection
	ModelName             string `json:"model_name,omitempty"`
	TrainingFLOPs         string `json:"training_flops,omitempty"`
	EstimatedClusterFLOPs string `json:"estimated_cluster_flops,omitempty"`
	ExceedsFLOPsCap       bool   `json:"exceeds_flops_cap"`
}

// Metadata identifies the reviewer and the project under review.
type Metadata struct {
	ReviewerName  string `json:"reviewer_name" validate:"required"`
	ReviewerEmail string `json:"reviewer_email" validate:"required,email"`
	ProjectName   string `json:"project_name" validate:"required"`
	ProjectID     string `json:"project_id" validate:"required"`
	ReviewDate    string `json:"review_date" validate:"required,datetime=2006-01-02"`
}

// ReviewDraft is the live, editable review document. Exactly one draft is
// active per session; its ID is assigned at creation and serves as the
// idempotency key for submission.
type ReviewDraft struct {
	ID                 uuid.UUID          `json:"draft_id"`
	Metadata           Metadata           `json:"metadata"`
	ThirdPartySoftware ThirdPartySoftware `json:"third_party_software"`
	SourceCode         SourceCode         `json:"source_code"`
	Datasets           Datasets           `json:"datasets"`
	Models             Models             `json:"models"`
	FinalDecision      string             `json:"final_decision" validate:"required,oneof='Approved' 'Approved with Monitoring' 'Escalated' 'Rejected'"`
	FinalNotes         string             `json:"final_notes"`
}

// NewDraft creates a fresh template draft with empty check rows and today's
// date, ready for editing.
func NewDraft() *ReviewDraft {
	d := &ReviewDraft{ID: uuid.New()}
	d.Metadata.ReviewDate = time.Now().UTC().Format("2006-01-02")
	d.ThirdPartySoftware.Checks = emptyChecks()
	d.SourceCode.Checks = emptyChecks()
	d.Datasets.Checks = emptyChecks()
	d.Models.Checks = emptyChecks()
	return d
}

func emptyChecks() []CheckItem {
	checks := make([]CheckItem, templateChecks)
	for i := range checks {
		checks[i].Score = 1
	}
	return checks
}

// Validate checks the draft against the submission schema requirements using
// the validator. Returns validator.ValidationErrors describing the offending
// fields when the draft is incomplete.
func (d *ReviewDraft) Validate() error {
	validate := validator.New()
	return validate.Struct(d)
}

// Recompute refreshes all derived cumulative scores from the check lists.
func (d *ReviewDraft) Recompute() {
	d.ThirdPartySoftware.CumulativeScore = d.ThirdPartySoftware.Sum()
	d.SourceCode.CumulativeScore = d.SourceCode.Sum()
	d.Datasets.CumulativeScore = d.Datasets.Sum()
	d.Models.CumulativeScore = d.Models.Sum()
}

// Clone returns a deep copy of the draft so callers can hand snapshots across
// goroutine or state-machine boundaries without aliasing the check slices.
func (d *ReviewDraft) Clone() *ReviewDraft {
	out := *d
	out.ThirdPartySoftware.Checks = append([]CheckItem(nil), d.ThirdPartySoftware.Checks...)
	out.SourceCode.Checks = append([]CheckItem(nil), d.SourceCode.Checks...)
	out.Datasets.Checks = append([]CheckItem(nil), d.Datasets.Checks...)
	out.Models.Checks = append([]CheckItem(nil), d.Models.Checks...)
	return &out
}

// MarshalCanonical serializes the draft in its canonical form: two-space
// indented JSON with the field order fixed by the struct declaration. The
// working copy and every checkpoint use exactly these bytes.
func (d *ReviewDraft) MarshalCanonical() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// UnmarshalCanonical parses a serialized draft written by MarshalCanonical.
func (d *ReviewDraft) UnmarshalCanonical(data []byte) error {
	return json.Unmarshal(data, d)
}

// SubmissionID derives the deterministic record identifier for a draft,
// following the AIMCR-<project>-<date> folder naming of the submissions
// archive. Path separators and whitespace in the project ID are flattened.
func SubmissionID(projectID, reviewDate string) string {
	sanitized := strings.NewReplacer("/", "-", "\\", "-", " ", "_").Replace(projectID)
	return "AIMCR-" + sanitized + "-" + reviewDate
}
