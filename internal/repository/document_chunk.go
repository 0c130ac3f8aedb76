package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DocumentChunkRepository stores embedded chunks and answers nearest-document
// queries with pgvector cosine distance.
type DocumentChunkRepository struct {
	db         dbtx
	dimensions int
}

func NewDocumentChunkRepository(pool *pgxpool.Pool) *DocumentChunkRepository {
	return &DocumentChunkRepository{db: pool, dimensions: domain.EmbeddingDimensions}
}

func NewDocumentChunkRepositoryWithTx(tx pgx.Tx) *DocumentChunkRepository {
	return &DocumentChunkRepository{db: tx, dimensions: domain.EmbeddingDimensions}
}

// Upsert writes chunks[i] with embeddings[i] at chunk_index i, keeping the row
// id of an existing (document_id, chunk_index) pair. Rows past the new chunk
// count are removed. The batch is validated before any SQL runs and applied in
// a single transaction.
func (r *DocumentChunkRepository) Upsert(ctx context.Context, documentID string, chunks []string, embeddings [][]float32) error {
	if err := domain.ValidateChunkBatch(chunks, embeddings, r.dimensions); err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	for i, content := range chunks {
		vec := pgvector.NewVector(embeddings[i])

		var id string
		err := tx.QueryRow(ctx,
			`SELECT id FROM document_chunks
			 WHERE document_id = $1 AND chunk_index = $2
			 FOR UPDATE`,
			documentID, i,
		).Scan(&id)

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			_, err = tx.Exec(ctx,
				`INSERT INTO document_chunks (id, document_id, chunk_index, content, embedding, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
				uuid.NewString(), documentID, i, content, vec, now,
			)
		case err == nil:
			_, err = tx.Exec(ctx,
				`UPDATE document_chunks SET content = $1, embedding = $2, updated_at = $3 WHERE id = $4`,
				content, vec, now, id,
			)
		}
		if err != nil {
			if code := pgErrorCode(err); code == pgForeignKeyViolation || code == pgInvalidTextRepresentation {
				return domain.ErrDocumentNotFound
			}
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM document_chunks WHERE document_id = $1 AND chunk_index >= $2`,
		documentID, len(chunks),
	); err != nil {
		if pgErrorCode(err) == pgInvalidTextRepresentation {
			return domain.ErrDocumentNotFound
		}
		return err
	}

	return tx.Commit(ctx)
}

// NearestDocuments groups chunks closer than threshold to query by document
// and returns documents ordered by mean distance, then by how many chunks
// matched.
func (r *DocumentChunkRepository) NearestDocuments(ctx context.Context, query []float32, threshold float64, limit int) ([]domain.DocumentMatch, error) {
	if len(query) != r.dimensions {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation,
			fmt.Sprintf("query embedding has %d dimensions, expected %d", len(query), r.dimensions),
			domain.ErrDimensionMismatch)
	}
	if limit <= 0 {
		limit = 15
	}

	rows, err := r.db.Query(ctx,
		`SELECT document_id, COUNT(*) AS chunk_count, AVG(distance) AS mean_distance
		 FROM (
			 SELECT document_id, embedding <=> $1 AS distance
			 FROM document_chunks
		 ) AS scored
		 WHERE distance < $2
		 GROUP BY document_id
		 ORDER BY mean_distance ASC, chunk_count DESC, document_id ASC
		 LIMIT $3`,
		pgvector.NewVector(query), threshold, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]domain.DocumentMatch, 0)
	for rows.Next() {
		var m domain.DocumentMatch
		if err := rows.Scan(&m.DocumentID, &m.ChunkCount, &m.MeanDistance); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *DocumentChunkRepository) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`,
		documentID,
	).Scan(&count)
	if pgErrorCode(err) == pgInvalidTextRepresentation {
		return 0, domain.ErrDocumentNotFound
	}
	return count, err
}

// ListByDocument returns a document's chunks in chunk_index order.
func (r *DocumentChunkRepository) ListByDocument(ctx context.Context, documentID string) ([]*domain.DocumentChunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, chunk_index, content, embedding, created_at, updated_at
		 FROM document_chunks
		 WHERE document_id = $1
		 ORDER BY chunk_index ASC`,
		documentID,
	)
	if err != nil {
		if pgErrorCode(err) == pgInvalidTextRepresentation {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	defer rows.Close()

	chunks := make([]*domain.DocumentChunk, 0)
	for rows.Next() {
		var c domain.DocumentChunk
		var vec pgvector.Vector
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &vec, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Embedding = vec.Slice()
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}
