package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/notesqa/internal/api"
	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/cloo-solutions/notesqa/internal/service"
	"github.com/go-chi/chi/v5"
)

type DocumentService interface {
	Create(ctx context.Context, input service.CreateDocumentInput) (*domain.Document, error)
	Update(ctx context.Context, input service.UpdateDocumentInput) (*domain.Document, error)
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error)
	Delete(ctx context.Context, id string) error
	QueueIndex(ctx context.Context, id string) (*domain.IndexJob, error)
}

type DocumentIndexer interface {
	IndexDocument(ctx context.Context, documentID string) (int, error)
}

type ChunkLister interface {
	ListByDocument(ctx context.Context, documentID string) ([]*domain.DocumentChunk, error)
}

type DocumentHandler struct {
	svc     DocumentService
	indexer DocumentIndexer
	chunks  ChunkLister
}

func NewDocumentHandler(svc DocumentService, indexer DocumentIndexer, chunks ChunkLister) *DocumentHandler {
	return &DocumentHandler{svc: svc, indexer: indexer, chunks: chunks}
}

// PutDocumentRequest creates a document when ID is empty and replaces it otherwise
type PutDocumentRequest struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type DocumentResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type DocumentListResponse struct {
	Items      []*DocumentResponse `json:"items"`
	Total      int                 `json:"total"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

type IndexResponse struct {
	DocumentID string `json:"document_id"`
	Chunks     int    `json:"chunks,omitempty"`
	JobID      string `json:"job_id,omitempty"`
	Status     string `json:"status"`
}

type ChunkResponse struct {
	Index     int    `json:"index"`
	Content   string `json:"content"`
	UpdatedAt string `json:"updated_at"`
}

func documentToResponse(d *domain.Document, withBody bool) *DocumentResponse {
	resp := &DocumentResponse{
		ID:        d.ID,
		Title:     d.Title,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
	}
	if withBody {
		resp.Body = d.Body
	}
	return resp
}

func (h *DocumentHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req PutDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Body == "" {
		api.Error(w, http.StatusBadRequest, "body is required")
		return
	}

	if req.ID == "" {
		doc, err := h.svc.Create(r.Context(), service.CreateDocumentInput{Title: req.Title, Body: req.Body})
		if err != nil {
			api.HandleError(w, err)
			return
		}
		api.Success(w, http.StatusCreated, documentToResponse(doc, true))
		return
	}

	doc, err := h.svc.Update(r.Context(), service.UpdateDocumentInput{
		DocumentID: req.ID,
		Title:      req.Title,
		Body:       req.Body,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, documentToResponse(doc, true))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	doc, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc, true))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := queryInt(query.Get("limit"), 0)
	offset := queryInt(query.Get("offset"), 0)

	output, err := h.svc.List(r.Context(), service.ListDocumentsInput{
		Search: query.Get("q"),
		Limit:  limit,
		Offset: offset,
		Cursor: query.Get("cursor"),
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*DocumentResponse, len(output.Items))
	for i, d := range output.Items {
		items[i] = documentToResponse(d, false)
	}

	api.Success(w, http.StatusOK, DocumentListResponse{
		Items:      items,
		Total:      output.Total,
		Limit:      limit,
		Offset:     offset,
		NextCursor: output.NextCursor,
	})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Index re-chunks and embeds a document. With ?async=true it only queues a
// job for the background worker.
func (h *DocumentHandler) Index(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		job, err := h.svc.QueueIndex(r.Context(), id)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		api.Success(w, http.StatusAccepted, IndexResponse{
			DocumentID: id,
			JobID:      job.ID,
			Status:     string(job.Status),
		})
		return
	}

	count, err := h.indexer.IndexDocument(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, IndexResponse{
		DocumentID: id,
		Chunks:     count,
		Status:     string(domain.IndexJobStatusCompleted),
	})
}

func (h *DocumentHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if _, err := h.svc.GetByID(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	chunks, err := h.chunks.ListByDocument(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]ChunkResponse, len(chunks))
	for i, c := range chunks {
		items[i] = ChunkResponse{
			Index:     c.ChunkIndex,
			Content:   c.Content,
			UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
		}
	}

	api.Success(w, http.StatusOK, map[string]interface{}{
		"document_id": id,
		"chunks":      items,
	})
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
