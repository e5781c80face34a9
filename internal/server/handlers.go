package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ksl-hpc/aimcr/internal/render"
	"github.com/ksl-hpc/aimcr/internal/session"
	"github.com/ksl-hpc/aimcr/internal/store"
	"github.com/ksl-hpc/aimcr/internal/submit"
	"github.com/ksl-hpc/aimcr/internal/types"
)

// DraftResponse is the response for GET /draft.
type DraftResponse struct {
	State       session.State      `json:"state"`
	RemoteDirty bool               `json:"remote_dirty"`
	Draft       *types.ReviewDraft `json:"draft"`
}

// SaveResponse is the response for POST /draft/save.
type SaveResponse struct {
	Commit      string `json:"commit"`
	Message     string `json:"message"`
	RemoteDirty bool   `json:"remote_dirty"`
}

// SubmitResponse is the response for POST /draft/submit.
type SubmitResponse struct {
	ID          string `json:"id"`
	SubmittedAt string `json:"submitted_at"`
	Warning     string `json:"warning,omitempty"`
}

// handleGetDraft returns the live draft and controller state.
func (s *Server) handleGetDraft(w http.ResponseWriter, _ *http.Request) {
	state, draft, dirty := s.session.Snapshot()
	s.jsonResponse(w, http.StatusOK, DraftResponse{State: state, RemoteDirty: dirty, Draft: draft})
}

// handlePutDraft replaces the draft's editable fields.
func (s *Server) handlePutDraft(w http.ResponseWriter, r *http.Request) {
	var draft types.ReviewDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.session.Update(&draft); err != nil {
		s.lifecycleError(w, err)
		return
	}
	state, updated, dirty := s.session.Snapshot()
	s.jsonResponse(w, http.StatusOK, DraftResponse{State: state, RemoteDirty: dirty, Draft: updated})
}

// handleSave checkpoints the draft to the repository.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opTimeout)
	defer cancel()

	cp, err := s.session.Save(ctx)
	if err != nil {
		var serr *store.StoreError
		if errors.As(err, &serr) {
			status := http.StatusBadGateway
			if serr.Kind == store.KindWriteFailed {
				status = http.StatusInternalServerError
			}
			s.jsonResponse(w, status, map[string]any{
				"error":        serr.Message,
				"kind":         serr.Kind.String(),
				"remote_dirty": s.session.RemoteDirty(),
			})
			return
		}
		s.lifecycleError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, SaveResponse{
		Commit:      cp.Hash,
		Message:     cp.Message,
		RemoteDirty: s.session.RemoteDirty(),
	})
}

// handleSubmit finalizes the draft into a submission record.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opTimeout)
	defer cancel()

	record, err := s.session.Submit(ctx)
	if record == nil && err != nil {
		var subErr *submit.SubmitError
		if errors.As(err, &subErr) {
			switch subErr.Kind {
			case submit.KindValidationFailed:
				s.jsonResponse(w, http.StatusUnprocessableEntity, map[string]any{
					"error":  subErr.Message,
					"fields": subErr.Fields,
				})
			case submit.KindDuplicateSubmission:
				s.errorResponse(w, http.StatusConflict, subErr.Message)
			default:
				s.errorResponse(w, http.StatusInternalServerError, subErr.Message)
			}
			return
		}
		s.lifecycleError(w, err)
		return
	}

	resp := SubmitResponse{ID: record.ID, SubmittedAt: record.SubmittedAt.Format("2006-01-02T15:04:05Z07:00")}
	if err != nil {
		// The record is durable; only the follow-up (retire or push) failed.
		resp.Warning = err.Error()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleNewDraft starts the next review cycle after a submission.
func (s *Server) handleNewDraft(w http.ResponseWriter, _ *http.Request) {
	draft, err := s.session.NewDraft()
	if err != nil {
		s.lifecycleError(w, err)
		return
	}
	state, _, dirty := s.session.Snapshot()
	s.jsonResponse(w, http.StatusOK, DraftResponse{State: state, RemoteDirty: dirty, Draft: draft})
}

// handleListSubmissions lists stored submission records, newest first.
func (s *Server) handleListSubmissions(w http.ResponseWriter, _ *http.Request) {
	infos, err := submit.List(s.submissionsDir)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"submissions": infos})
}

// handleGetSubmission returns one record's canonical JSON.
func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readRecord(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleRenderSubmission renders one record to PDF on demand. The PDF is a
// derived artifact; failures here never touch the record.
func (s *Server) handleRenderSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, ok := s.readRecord(w, id)
	if !ok {
		return
	}

	pdf, err := render.Render(data)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to render record: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *Server) readRecord(w http.ResponseWriter, id string) ([]byte, bool) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		s.errorResponse(w, http.StatusBadRequest, "Invalid submission ID")
		return nil, false
	}
	data, err := os.ReadFile(submit.RecordPath(s.submissionsDir, id))
	if errors.Is(err, fs.ErrNotExist) {
		s.errorResponse(w, http.StatusNotFound, "Submission not found: "+id)
		return nil, false
	}
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return data, true
}

// lifecycleError maps controller state errors onto HTTP statuses.
func (s *Server) lifecycleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrBusy):
		s.errorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrSubmitted):
		s.errorResponse(w, http.StatusConflict, err.Error())
	default:
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
	}
}
