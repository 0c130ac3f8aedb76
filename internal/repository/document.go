package repository

import (
	"context"

	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/cloo-solutions/notesqa/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, title, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.Title, d.Body, d.CreatedAt, d.UpdatedAt,
	)
	if pgErrorCode(err) == pgUniqueViolation {
		return domain.NewDomainErrorWithCause(domain.ErrCodeAlreadyExists, "document already exists", err)
	}
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	err := r.db.QueryRow(ctx,
		`SELECT id, title, body, created_at, updated_at
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Title, &d.Body, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DocumentRepository) Update(ctx context.Context, d *domain.Document) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents SET title = $1, body = $2, updated_at = $3 WHERE id = $4`,
		d.Title, d.Body, d.UpdatedAt, d.ID,
	)
	if isNotFound(err) {
		return domain.ErrDocumentNotFound
	}
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// Delete removes a document. Chunks and index jobs cascade.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if isNotFound(err) {
		return domain.ErrDocumentNotFound
	}
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// List returns documents ordered by most recently updated. A non-empty search
// filters on a case-insensitive title match.
func (r *DocumentRepository) List(ctx context.Context, search string, limit, offset int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, title, body, created_at, updated_at
		 FROM documents
		 WHERE $1::text = '' OR title ILIKE '%' || $1::text || '%'
		 ORDER BY updated_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		search, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return scanDocuments(rows)
}

// ListAfter is List keyed on the (updated_at, id) of the last row seen, so
// pages stay stable while documents are written.
func (r *DocumentRepository) ListAfter(ctx context.Context, search string, after *pagination.Cursor, limit int) ([]*domain.Document, error) {
	if after == nil {
		return r.List(ctx, search, limit, 0)
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, title, body, created_at, updated_at
		 FROM documents
		 WHERE ($1::text = '' OR title ILIKE '%' || $1::text || '%')
		   AND (updated_at, id) < ($2::timestamptz, $3::uuid)
		 ORDER BY updated_at DESC, id DESC
		 LIMIT $4`,
		search, after.Timestamp, after.LastID, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanDocuments(rows)
}

func scanDocuments(rows pgx.Rows) ([]*domain.Document, error) {
	defer rows.Close()

	docs := make([]*domain.Document, 0)
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Body, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) Count(ctx context.Context, search string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE $1::text = '' OR title ILIKE '%' || $1::text || '%'`,
		search,
	).Scan(&count)
	return count, err
}

// ListIDs returns every document id, oldest first.
func (r *DocumentRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM documents ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
