package service

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/cloo-solutions/notesqa/internal/telemetry"
)

// IndexDocumentReader loads the document being indexed
type IndexDocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// ChunkWriter persists a document's chunks and their embeddings
type ChunkWriter interface {
	Upsert(ctx context.Context, documentID string, chunks []string, embeddings [][]float32) error
}

// IndexingService splits, embeds and stores document bodies
type IndexingService struct {
	docs     IndexDocumentReader
	embedder EmbeddingClient
	chunks   ChunkWriter
	splitter *Splitter
}

// NewIndexingService creates a new IndexingService. A nil splitter uses DefaultSplitter.
func NewIndexingService(docs IndexDocumentReader, embedder EmbeddingClient, chunks ChunkWriter, splitter *Splitter) *IndexingService {
	if splitter == nil {
		splitter = DefaultSplitter()
	}
	return &IndexingService{
		docs:     docs,
		embedder: embedder,
		chunks:   chunks,
		splitter: splitter,
	}
}

// IndexDocument rebuilds the chunk rows for a document and returns how many
// chunks it now has. A blank body clears existing chunks.
func (s *IndexingService) IndexDocument(ctx context.Context, documentID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexingService.IndexDocument", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "index",
	})
	defer span.End()

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return 0, err
	}

	chunks := s.splitter.Split(doc.Body)

	embeddings, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		span.SetError(err)
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}

	if err := s.chunks.Upsert(ctx, documentID, chunks, embeddings); err != nil {
		span.SetError(err)
		return 0, fmt.Errorf("failed to upsert chunks: %w", err)
	}

	return len(chunks), nil
}
