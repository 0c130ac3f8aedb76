package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloo-solutions/notesqa/internal/api"
	"github.com/cloo-solutions/notesqa/internal/service"
)

type QAService interface {
	Ask(ctx context.Context, question string) (*service.QAResult, error)
	AskDocument(ctx context.Context, question, documentID string) (*service.QAResult, error)
}

type AskHandler struct {
	svc QAService
}

func NewAskHandler(svc QAService) *AskHandler {
	return &AskHandler{svc: svc}
}

type AskRequest struct {
	Question   string `json:"question"`
	DocumentID string `json:"document_id,omitempty"`
}

// AskResponse always carries answer text. Outcome is "success" for model
// output and "timed_out" or "errored" for the excerpt fallback.
type AskResponse struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Answer     string `json:"answer"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	var (
		result *service.QAResult
		err    error
	)
	if req.DocumentID != "" {
		result, err = h.svc.AskDocument(r.Context(), req.Question, req.DocumentID)
	} else {
		result, err = h.svc.Ask(r.Context(), req.Question)
	}
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := AskResponse{
		DocumentID: result.DocumentID,
		Title:      result.Title,
		Answer:     result.Answer.Text,
		Outcome:    string(result.Answer.Outcome),
	}
	if result.Answer.Err != nil {
		resp.Error = result.Answer.Err.Error()
	}

	w.Header().Set(api.HeaderAnswerOutcome, resp.Outcome)
	api.Success(w, http.StatusOK, resp)
}
