package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/tradescope/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges a credential mutation.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SaveKeyRequest is the JSON body for the save-key endpoint.
type SaveKeyRequest struct {
	APIKey string `json:"apiKey"`
}

// KeyStatusResponse reports whether a key is on file. It never includes the key.
type KeyStatusResponse struct {
	HasKey    bool    `json:"hasKey"`
	UpdatedAt *string `json:"updatedAt"`
}

// AnalyzeRequest is the JSON body for the analyze endpoint.
type AnalyzeRequest struct {
	ImageData string `json:"imageData"`
	ImageType string `json:"imageType"`
}

// AnalyzeResponse carries the analysis text.
type AnalyzeResponse struct {
	Analysis string `json:"analysis"`
}

// CreateSessionRequest is the JSON body for creating a journal session.
type CreateSessionRequest struct {
	Analysis  string `json:"analysis"`
	ImageType string `json:"imageType"`
}

// DecisionRequest is the JSON body for recording a take/skip decision.
type DecisionRequest struct {
	TradeTaken *bool  `json:"tradeTaken"`
	Reason     string `json:"reason"`
}

// OutcomeRequest is the JSON body for recording a trade outcome.
type OutcomeRequest struct {
	Outcome string `json:"outcome"`
}

// NotesRequest is the JSON body for replacing session notes.
type NotesRequest struct {
	Notes string `json:"notes"`
}

// SessionResponse is the JSON representation of a journal session.
type SessionResponse struct {
	ID           string  `json:"id"`
	CreatedAt    string  `json:"createdAt"`
	ImageType    string  `json:"imageType"`
	Analysis     string  `json:"analysis"`
	Bias         string  `json:"bias"`
	TradeTaken   *bool   `json:"tradeTaken"`
	TradeReason  string  `json:"tradeReason"`
	TradeOutcome *string `json:"tradeOutcome"`
	DecisionAt   *string `json:"decisionAt"`
	OutcomeAt    *string `json:"outcomeAt"`
	Notes        string  `json:"notes"`
}

// DecisionResponse is the updated session plus any notification caveat.
type DecisionResponse struct {
	Session SessionResponse `json:"session"`
	Warning string          `json:"warning,omitempty"`
}

// DeleteAllResponse reports how many sessions were removed.
type DeleteAllResponse struct {
	Deleted int64 `json:"deleted"`
}

// EmailPreference is both the request and response body for the
// notification email endpoints.
type EmailPreference struct {
	Email string `json:"email"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toSessionResponse converts a domain TradeSession to its JSON representation.
func toSessionResponse(s model.TradeSession) SessionResponse {
	resp := SessionResponse{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339Nano),
		ImageType:   s.ImageType,
		Analysis:    s.Analysis,
		Bias:        string(s.Bias),
		TradeTaken:  s.TradeTaken,
		TradeReason: s.TradeReason,
		DecisionAt:  formatOptionalTime(s.DecisionAt),
		OutcomeAt:   formatOptionalTime(s.OutcomeAt),
		Notes:       s.Notes,
	}
	if s.TradeOutcome != model.TradeOutcomeNone {
		outcome := string(s.TradeOutcome)
		resp.TradeOutcome = &outcome
	}
	return resp
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}
