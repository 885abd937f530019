package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
)

// maxJournalBody bounds JSON bodies on the journal endpoints. Analyses are
// capped by the provider's token limit, so this is generous.
const maxJournalBody = 256 << 10

// decodeBody decodes a bounded JSON body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJournalBody)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// ListSessions returns the caller's journal, newest first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.journal.ListSessions(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, "list sessions", err)
		return
	}

	resp := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, toSessionResponse(s))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateSession stores a new journal session for an analysis.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, err := h.journal.CreateSession(r.Context(), userIDFrom(r.Context()), req.Analysis, req.ImageType)
	if err != nil {
		h.writeServiceError(w, "create session", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(s))
}

// GetSession returns one session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.journal.GetSession(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "get session", err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// DeleteSession removes one session.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.journal.DeleteSession(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		h.writeServiceError(w, "delete session", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllSessions clears the caller's journal.
func (h *Handler) DeleteAllSessions(w http.ResponseWriter, r *http.Request) {
	n, err := h.journal.DeleteAllSessions(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, "delete all sessions", err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteAllResponse{Deleted: n})
}

// RecordDecision stores take/skip and reports any notification caveat.
func (h *Handler) RecordDecision(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TradeTaken == nil {
		writeError(w, http.StatusBadRequest, "tradeTaken is required")
		return
	}

	res, err := h.journal.RecordDecision(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), *req.TradeTaken, req.Reason)
	if err != nil {
		h.writeServiceError(w, "record decision", err)
		return
	}

	writeJSON(w, http.StatusOK, DecisionResponse{
		Session: toSessionResponse(res.Session),
		Warning: res.Warning,
	})
}

// RecordOutcome stores win or loss for a taken trade.
func (h *Handler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	var req OutcomeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, err := h.journal.RecordOutcome(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), model.TradeOutcome(req.Outcome))
	if err != nil {
		h.writeServiceError(w, "record outcome", err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// UpdateNotes replaces a session's notes.
func (h *Handler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req NotesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s, err := h.journal.UpdateNotes(r.Context(), userIDFrom(r.Context()), r.PathValue("id"), req.Notes)
	if err != nil {
		h.writeServiceError(w, "update notes", err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// GetEmailPreference returns the caller's notification address.
func (h *Handler) GetEmailPreference(w http.ResponseWriter, r *http.Request) {
	email, err := h.journal.NotificationEmail(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, "get email preference", err)
		return
	}

	writeJSON(w, http.StatusOK, EmailPreference{Email: email})
}

// SetEmailPreference stores or clears the caller's notification address.
func (h *Handler) SetEmailPreference(w http.ResponseWriter, r *http.Request) {
	var req EmailPreference
	if !decodeBody(w, r, &req) {
		return
	}

	email, err := h.journal.SetNotificationEmail(r.Context(), userIDFrom(r.Context()), req.Email)
	if err != nil {
		h.writeServiceError(w, "set email preference", err)
		return
	}

	writeJSON(w, http.StatusOK, EmailPreference{Email: email})
}
