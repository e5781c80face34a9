package types

import (
	"encoding/json"
	"time"
)

// SchemaVersion tags every submission record written by this version of the
// workbench. The renderer treats any other value as an unknown layout and
// falls back to a generic dump rather than failing.
const SchemaVersion = "1"

// SubmissionRecord is the immutable JSON artifact produced when a draft is
// finalized. Once written it is never mutated; rendered PDFs are derived from
// it on demand.
type SubmissionRecord struct {
	SchemaVersion string      `json:"schema_version"`
	ID            string      `json:"id"`
	SubmittedAt   time.Time   `json:"submitted_at"`
	Review        ReviewDraft `json:"review"`
}

// NewSubmissionRecord wraps a draft snapshot in the record envelope. The
// identifier is derived from the draft's project and review date so that
// re-submitting the same review collides instead of silently duplicating.
func NewSubmissionRecord(d *ReviewDraft, submittedAt time.Time) *SubmissionRecord {
	return &SubmissionRecord{
		SchemaVersion: SchemaVersion,
		ID:            SubmissionID(d.Metadata.ProjectID, d.Metadata.ReviewDate),
		SubmittedAt:   submittedAt,
		Review:        *d.Clone(),
	}
}

// MarshalCanonical serializes the record in its canonical on-disk form.
func (r *SubmissionRecord) MarshalCanonical() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// UnmarshalCanonical parses a serialized record written by MarshalCanonical.
func (r *SubmissionRecord) UnmarshalCanonical(data []byte) error {
	return json.Unmarshal(data, r)
}
