package render

import "fmt"

// Kind discriminates rendering failures.
type Kind int

const (
	KindMalformedInput Kind = iota
	KindWriteFailed
)

func (k Kind) String() string {
	switch k {
	case KindMalformedInput:
		return "malformed input"
	case KindWriteFailed:
		return "write failed"
	}
	return "unknown"
}

// RenderError represents a document rendering failure.
type RenderError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("render error (%s): %s", e.Kind, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

func malformedInput(message string, cause error) *RenderError {
	return &RenderError{Kind: KindMalformedInput, Message: message, Cause: cause}
}

func renderWriteFailed(message string, cause error) *RenderError {
	return &RenderError{Kind: KindWriteFailed, Message: message, Cause: cause}
}
