// Package submit converts finalized review drafts into immutable submission
// records in the submissions area.
package submit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ksl-hpc/aimcr/internal/schemas"
	"github.com/ksl-hpc/aimcr/internal/types"
)

// Converter turns a draft into a submission record and retires the working
// copy. The record is written before the draft is cleared, so a crash between
// the two steps leaves a durable record and a stale working copy, never a
// lost submission.
type Converter struct {
	draftPath      string
	submissionsDir string
	now            func() time.Time
}

// NewConverter creates a converter over the given working copy and
// submissions area.
func NewConverter(draftPath, submissionsDir string) *Converter {
	return &Converter{
		draftPath:      draftPath,
		submissionsDir: submissionsDir,
		now:            time.Now,
	}
}

// Convert validates the draft, writes its submission record, and removes the
// working copy. A record that already exists under the derived identifier is
// never overwritten; the call fails with DuplicateSubmission instead.
//
// On a RetireFailed error the returned record is non-nil and the submission
// has succeeded; everything else returns a nil record.
func (c *Converter) Convert(draft *types.ReviewDraft) (*types.SubmissionRecord, error) {
	if err := draft.Validate(); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace())
			}
			return nil, validationFailed(fields, nil)
		}
		return nil, validationFailed(nil, err)
	}

	// Cumulative scores are derived; never trust client-sent values.
	draft.Recompute()

	record := types.NewSubmissionRecord(draft, c.now().UTC())
	data, err := record.MarshalCanonical()
	if err != nil {
		return nil, writeFailed("failed to serialize record", err)
	}
	if err := schemas.ValidateRecord(data); err != nil {
		return nil, validationFailed(nil, err)
	}

	if err := os.MkdirAll(c.submissionsDir, 0755); err != nil {
		return nil, writeFailed("failed to create submissions area", err)
	}

	path := c.RecordPath(record.ID)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil, duplicateSubmission(record.ID)
	}
	if err != nil {
		return nil, writeFailed("failed to create record file", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, writeFailed("failed to write record file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, writeFailed("failed to flush record file", err)
	}

	// The record is durable; retiring the draft is best-effort from here.
	if err := os.Remove(c.draftPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return record, retireFailed(err)
	}
	return record, nil
}

// RecordPath returns the deterministic on-disk location for a record ID.
func (c *Converter) RecordPath(id string) string {
	return RecordPath(c.submissionsDir, id)
}

// RecordPath returns the record file location for an ID within a submissions
// area.
func RecordPath(dir, id string) string {
	return filepath.Join(dir, id+".json")
}

// RecordInfo summarizes one stored submission record.
type RecordInfo struct {
	ID          string    `json:"id"`
	Path        string    `json:"-"`
	SubmittedAt time.Time `json:"submitted_at"`
	ProjectID   string    `json:"project_id"`
}

// List scans the submissions area, newest first. Files that cannot be parsed
// are skipped rather than failing the whole listing.
func List(dir string) ([]RecordInfo, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan submissions area: %w", err)
	}

	infos := make([]RecordInfo, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var record types.SubmissionRecord
		if err := record.UnmarshalCanonical(data); err != nil {
			continue
		}
		infos = append(infos, RecordInfo{
			ID:          record.ID,
			Path:        path,
			SubmittedAt: record.SubmittedAt,
			ProjectID:   record.Review.Metadata.ProjectID,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].SubmittedAt.After(infos[j].SubmittedAt)
	})
	return infos, nil
}
