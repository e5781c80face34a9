// Package session implements the review form controller: an explicit state
// machine over the single live draft. Save and submit run to completion
// before the next operation is accepted; overlapping calls are rejected
// rather than queued.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ksl-hpc/aimcr/internal/store"
	"github.com/ksl-hpc/aimcr/internal/submit"
	"github.com/ksl-hpc/aimcr/internal/types"
)

// State is the controller state over the live draft.
type State string

const (
	StateEditing    State = "editing"
	StateSaving     State = "saving"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
)

var (
	// ErrBusy is returned when a save or submit is already in flight.
	ErrBusy = errors.New("another operation is in flight")
	// ErrSubmitted is returned for edits after the draft reached its
	// terminal state. A new draft must be started for further work.
	ErrSubmitted = errors.New("draft already submitted; start a new draft")
)

// Session owns one live draft and its lifecycle. All methods are safe for
// concurrent use; only one save or submit runs at a time.
type Session struct {
	mu          sync.Mutex
	state       State
	draft       *types.ReviewDraft
	remoteDirty bool
	lastRecord  *types.SubmissionRecord

	store *store.DraftStore
	conv  *submit.Converter
}

// New creates a session over the store's working copy: an existing draft is
// resumed, otherwise a fresh template draft is created.
func New(st *store.DraftStore, conv *submit.Converter) (*Session, error) {
	draft, err := st.LoadDraft()
	if err != nil {
		return nil, fmt.Errorf("failed to load working copy: %w", err)
	}
	if draft == nil {
		draft = types.NewDraft()
	}
	return &Session{state: StateEditing, draft: draft, store: st, conv: conv}, nil
}

// Snapshot returns the current state, a copy of the draft, and whether local
// checkpoints exist that the remote has not accepted yet.
func (s *Session) Snapshot() (State, *types.ReviewDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.draft.Clone(), s.remoteDirty
}

// State returns the current controller state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RemoteDirty reports whether the latest local checkpoint has not been
// pushed.
func (s *Session) RemoteDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteDirty
}

// LastRecord returns the record produced by the most recent successful
// submission, or nil.
func (s *Session) LastRecord() *types.SubmissionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRecord
}

// Update replaces the draft's editable fields. The draft identity is owned by
// the session and survives the update regardless of what the client sent.
func (s *Session) Update(d *types.ReviewDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateSubmitted:
		return ErrSubmitted
	case StateEditing:
	default:
		return ErrBusy
	}
	next := d.Clone()
	next.ID = s.draft.ID
	s.draft = next
	return nil
}

// Save checkpoints the draft: working copy write, commit, push. On a push or
// auth failure the draft stays in editing state with its content intact and
// the remote-dirty flag raised; the error tells the user whether local state
// is safe.
func (s *Session) Save(ctx context.Context) (*store.Checkpoint, error) {
	draft, err := s.begin(StateSaving)
	if err != nil {
		return nil, err
	}

	cp, saveErr := s.store.SaveDraft(ctx, draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateEditing
	if saveErr == nil {
		s.remoteDirty = false
		return cp, nil
	}
	var serr *store.StoreError
	if errors.As(saveErr, &serr) && serr.Kind != store.KindWriteFailed {
		// Local write and commit landed; only the remote is behind.
		s.remoteDirty = true
	}
	return nil, saveErr
}

// Submit finalizes the draft: validation, record write, draft retirement,
// and a checkpoint of the new record. Conversion failures return the session
// to editing with the draft content intact. Once the record is durable the
// transition to submitted is terminal even if the follow-up push fails; the
// push error is surfaced alongside the record.
func (s *Session) Submit(ctx context.Context) (*types.SubmissionRecord, error) {
	draft, err := s.begin(StateSubmitting)
	if err != nil {
		return nil, err
	}

	record, convErr := s.conv.Convert(draft)

	if record == nil {
		// Nothing was written; back to editing with the error surfaced.
		s.mu.Lock()
		s.state = StateEditing
		s.mu.Unlock()
		return nil, convErr
	}

	_, pushErr := s.store.CommitAndPush(ctx, "Submission: "+record.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateSubmitted
	s.lastRecord = record
	if pushErr != nil {
		s.remoteDirty = true
		return record, pushErr
	}
	s.remoteDirty = false
	if convErr != nil {
		// Retire warning: the record stands, the stale working copy will be
		// overwritten by the next draft.
		return record, convErr
	}
	return record, nil
}

// NewDraft discards the current draft and starts a fresh one. Refused while a
// save or submit is in flight.
func (s *Session) NewDraft() (*types.ReviewDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing && s.state != StateSubmitted {
		return nil, ErrBusy
	}
	s.draft = types.NewDraft()
	s.state = StateEditing
	return s.draft.Clone(), nil
}

// begin moves editing into the given in-flight state and hands back a draft
// snapshot for the operation to work on.
func (s *Session) begin(next State) (*types.ReviewDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateSubmitted:
		return nil, ErrSubmitted
	case StateEditing:
		s.state = next
		return s.draft.Clone(), nil
	default:
		return nil, ErrBusy
	}
}
