package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	assert.Equal(t, "[NOT_FOUND] document not found", ErrDocumentNotFound.Error())

	withCause := NewDomainErrorWithCause(ErrCodeInternalError, "write failed", errors.New("conn reset"))
	assert.Equal(t, "[INTERNAL_ERROR] write failed: conn reset", withCause.Error())
	assert.EqualError(t, errors.Unwrap(withCause), "conn reset")
}

func TestWrapEmbeddingError(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapEmbeddingError(cause)

	assert.ErrorIs(t, err, ErrEmbedding)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, WrapEmbeddingError(nil))
}

func TestAnswer_Degraded(t *testing.T) {
	assert.False(t, Answer{Outcome: AnswerOutcomeSuccess}.Degraded())
	assert.True(t, Answer{Outcome: AnswerOutcomeTimedOut}.Degraded())
	assert.True(t, Answer{Outcome: AnswerOutcomeErrored}.Degraded())
}

func TestAsDomainError(t *testing.T) {
	de, ok := AsDomainError(fmt.Errorf("loading: %w", ErrDocumentNotFound))
	assert.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, de.Code)

	de, ok = AsDomainError(WrapEmbeddingError(errors.New("timeout")))
	assert.True(t, ok)
	assert.Equal(t, ErrCodeEmbedding, de.Code)

	_, ok = AsDomainError(errors.New("plain"))
	assert.False(t, ok)
	_, ok = AsDomainError(nil)
	assert.False(t, ok)
}
