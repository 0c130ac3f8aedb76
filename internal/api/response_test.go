package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		body   string
	}{
		{
			name:   "success wraps data",
			write:  func(w http.ResponseWriter) { Success(w, http.StatusCreated, map[string]string{"id": "123"}) },
			status: http.StatusCreated,
			body:   `{"data":{"id":"123"}}`,
		},
		{
			name:   "error wraps message",
			write:  func(w http.ResponseWriter) { Error(w, http.StatusBadRequest, "invalid input") },
			status: http.StatusBadRequest,
			body:   `{"error":"invalid input"}`,
		},
		{
			name:   "raw json",
			write:  func(w http.ResponseWriter) { JSON(w, http.StatusOK, map[string]string{"key": "value"}) },
			status: http.StatusOK,
			body:   `{"key":"value"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestJSON_NilDataLeavesBodyEmpty(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDomainErrorToHTTP(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation error", domain.NewDomainError(domain.ErrCodeValidation, "invalid"), http.StatusBadRequest},
		{"not found error", domain.ErrDocumentNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("failed to load: %w", domain.ErrDocumentNotFound), http.StatusNotFound},
		{"retrieval empty", domain.ErrRetrievalEmpty, http.StatusNotFound},
		{"embedding failure", domain.WrapEmbeddingError(errors.New("connection refused")), http.StatusBadGateway},
		{"already exists error", domain.NewDomainError(domain.ErrCodeAlreadyExists, "exists"), http.StatusConflict},
		{"invalid operation", domain.NewDomainError(domain.ErrCodeInvalidOperation, "nope"), http.StatusBadRequest},
		{"internal error", domain.NewDomainError(domain.ErrCodeInternalError, "internal"), http.StatusInternalServerError},
		{"unknown domain error", domain.NewDomainError("UNKNOWN", "unknown"), http.StatusInternalServerError},
		{"non-domain error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DomainErrorToHTTP(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestHandleError(t *testing.T) {
	t.Run("retrieval empty", func(t *testing.T) {
		w := httptest.NewRecorder()

		HandleError(w, domain.ErrRetrievalEmpty)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var result ErrorResponse
		err := json.Unmarshal(w.Body.Bytes(), &result)
		require.NoError(t, err)
		assert.Equal(t, "no similar document found", result.Error)
	})

	t.Run("plain error", func(t *testing.T) {
		w := httptest.NewRecorder()

		HandleError(w, errors.New("pool closed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pool closed")
		assert.Contains(t, w.Body.String(), "Internal Server Error")
	})

	t.Run("domain error with cause", func(t *testing.T) {
		w := httptest.NewRecorder()

		HandleError(w, fmt.Errorf("saving: %w", domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "document title is required", domain.ErrMissingRequiredField)))

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var result ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "document title is required: [VALIDATION_ERROR] missing required field", result.Error)
	})
}
