package domain

import (
	"fmt"
	"strings"
	"time"
)

// EmbeddingDimensions is the vector length produced by the embedding model
// and enforced by the chunk store.
const EmbeddingDimensions = 384

// DocumentChunk is an indexed, embedded slice of a document body.
type DocumentChunk struct {
	ID         string
	DocumentID string
	ChunkIndex int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DocumentMatch aggregates the chunks of one document that fell within a
// distance threshold of a query vector.
type DocumentMatch struct {
	DocumentID   string
	ChunkCount   int
	MeanDistance float64
}

// ValidateChunkBatch checks a batch of chunk contents and their embeddings
// before they are written.
func ValidateChunkBatch(chunks []string, embeddings [][]float32, dimensions int) error {
	if len(chunks) != len(embeddings) {
		return NewDomainErrorWithCause(ErrCodeValidation,
			fmt.Sprintf("got %d chunks and %d embeddings", len(chunks), len(embeddings)),
			ErrChunkCountMismatch)
	}

	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			return NewDomainErrorWithCause(ErrCodeValidation, fmt.Sprintf("chunk %d is empty", i), ErrEmptyChunk)
		}
		if len(embeddings[i]) != dimensions {
			return NewDomainErrorWithCause(ErrCodeValidation,
				fmt.Sprintf("chunk %d embedding has %d dimensions, expected %d", i, len(embeddings[i]), dimensions),
				ErrDimensionMismatch)
		}
	}

	return nil
}
