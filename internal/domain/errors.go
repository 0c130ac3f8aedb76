package domain

import (
	"errors"
	"fmt"
)

// DomainError is an error with a stable Code that callers such as the HTTP
// layer switch on. Err, when set, is the underlying cause.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	msg := "[" + e.Code + "] " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// AsDomainError finds the outermost DomainError in err's chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodeEmbedding        = "EMBEDDING_ERROR"
	ErrCodeRetrievalEmpty   = "RETRIEVAL_EMPTY"
)

// Validation errors
var (
	ErrInvalidIndexJobStatus = NewDomainError(ErrCodeValidation, "invalid index job status")
	ErrMissingRequiredField  = NewDomainError(ErrCodeValidation, "missing required field")
	ErrDimensionMismatch     = NewDomainError(ErrCodeValidation, "embedding dimension mismatch")
	ErrChunkCountMismatch    = NewDomainError(ErrCodeValidation, "chunk and embedding counts differ")
	ErrEmptyChunk            = NewDomainError(ErrCodeValidation, "chunk content cannot be empty")
	ErrInvalidCursor         = NewDomainError(ErrCodeValidation, "invalid pagination cursor")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrIndexJobNotFound = NewDomainError(ErrCodeNotFound, "index job not found")
)

// Retrieval pipeline errors
var (
	ErrEmbedding      = NewDomainError(ErrCodeEmbedding, "embedding generation failed")
	ErrRetrievalEmpty = NewDomainError(ErrCodeRetrievalEmpty, "no similar document found")
)

// WrapEmbeddingError marks err as an embedding failure while keeping it unwrappable.
func WrapEmbeddingError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrEmbedding, err)
}
