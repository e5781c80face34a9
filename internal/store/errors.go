package store

import "fmt"

// Kind discriminates store failures so callers know whether local state is
// safe. WriteFailed means the working copy may not hold the snapshot;
// AuthFailed and PushFailed both mean the local write and commit succeeded
// but the remote does not yet have them.
type Kind int

const (
	KindWriteFailed Kind = iota
	KindAuthFailed
	KindPushFailed
)

func (k Kind) String() string {
	switch k {
	case KindWriteFailed:
		return "write failed"
	case KindAuthFailed:
		return "auth failed"
	case KindPushFailed:
		return "push failed"
	}
	return "unknown"
}

// StoreError represents a draft store failure.
type StoreError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("store error (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("store error (%s): %s", e.Kind, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

func writeFailed(message string, cause error) *StoreError {
	return &StoreError{Kind: KindWriteFailed, Message: message, Cause: cause}
}

func authFailed(message string, cause error) *StoreError {
	return &StoreError{Kind: KindAuthFailed, Message: message, Cause: cause}
}

func pushFailed(message string, cause error) *StoreError {
	return &StoreError{Kind: KindPushFailed, Message: message, Cause: cause}
}
