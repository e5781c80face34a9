package submit

import (
	"fmt"
	"strings"
)

// Kind discriminates submission failures.
type Kind int

const (
	KindValidationFailed Kind = iota
	KindDuplicateSubmission
	KindWriteFailed
	// KindRetireFailed means the record was written durably but the working
	// copy could not be cleared. The submission stands; the caller should
	// surface the warning rather than retry.
	KindRetireFailed
)

func (k Kind) String() string {
	switch k {
	case KindValidationFailed:
		return "validation failed"
	case KindDuplicateSubmission:
		return "duplicate submission"
	case KindWriteFailed:
		return "write failed"
	case KindRetireFailed:
		return "retire failed"
	}
	return "unknown"
}

// SubmitError represents a submission conversion failure. Fields is populated
// for validation failures so the user knows what to fix.
type SubmitError struct {
	Kind    Kind
	Message string
	Fields  []string
	Cause   error
}

func (e *SubmitError) Error() string {
	msg := fmt.Sprintf("submit error (%s): %s", e.Kind, e.Message)
	if len(e.Fields) > 0 {
		msg += ": " + strings.Join(e.Fields, ", ")
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *SubmitError) Unwrap() error {
	return e.Cause
}

func validationFailed(fields []string, cause error) *SubmitError {
	return &SubmitError{Kind: KindValidationFailed, Message: "draft is incomplete or malformed", Fields: fields, Cause: cause}
}

func duplicateSubmission(id string) *SubmitError {
	return &SubmitError{Kind: KindDuplicateSubmission, Message: fmt.Sprintf("record %s already exists", id)}
}

func writeFailed(message string, cause error) *SubmitError {
	return &SubmitError{Kind: KindWriteFailed, Message: message, Cause: cause}
}

func retireFailed(cause error) *SubmitError {
	return &SubmitError{Kind: KindRetireFailed, Message: "record written but working copy could not be cleared", Cause: cause}
}
