// Package api holds the JSON envelope shared by every handler: successes are
// {"data": ...} and failures {"error": "..."}.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/cloo-solutions/notesqa/internal/domain"
)

// HeaderAnswerOutcome reports how an answer was produced so access logs can
// count fallbacks without reading the body.
const HeaderAnswerOutcome = "X-Answer-Outcome"

type SuccessResponse struct {
	Data interface{} `json:"data"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes data with the given status. Nil data leaves the body empty.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("api: failed to encode response: %v", err)
	}
}

func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

var statusByCode = map[string]int{
	domain.ErrCodeValidation:       http.StatusBadRequest,
	domain.ErrCodeInvalidOperation: http.StatusBadRequest,
	domain.ErrCodeNotFound:         http.StatusNotFound,
	domain.ErrCodeRetrievalEmpty:   http.StatusNotFound,
	domain.ErrCodeAlreadyExists:    http.StatusConflict,
	domain.ErrCodeEmbedding:        http.StatusBadGateway,
}

// DomainErrorToHTTP maps err to a status by its domain code. Errors without
// a known code are 500s.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if de, ok := domain.AsDomainError(err); ok {
		if status, known := statusByCode[de.Code]; known {
			return status
		}
	}
	return http.StatusInternalServerError
}

// HandleError writes err as an error envelope. Domain errors expose their
// message and cause; anything else is logged and reported generically.
func HandleError(w http.ResponseWriter, err error) {
	status := DomainErrorToHTTP(err)

	de, ok := domain.AsDomainError(err)
	if !ok {
		log.Printf("api: unhandled error: %v", err)
		Error(w, status, http.StatusText(status))
		return
	}

	message := de.Message
	if de.Err != nil {
		message += ": " + de.Err.Error()
	}
	Error(w, status, message)
}
