package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/cloo-solutions/notesqa/internal/pagination"
	"github.com/cloo-solutions/notesqa/internal/telemetry"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// DocumentRepositoryInterface defines the repository interface for document persistence
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	Update(ctx context.Context, d *domain.Document) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, search string, limit, offset int) ([]*domain.Document, error)
	ListAfter(ctx context.Context, search string, after *pagination.Cursor, limit int) ([]*domain.Document, error)
	Count(ctx context.Context, search string) (int, error)
}

// IndexJobRepositoryInterface defines the repository interface for index job persistence
type IndexJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IndexJob) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// DocumentService handles business logic for stored notes. Every write queues
// an index job so chunks follow the body.
type DocumentService struct {
	docRepo  DocumentRepositoryInterface
	jobRepo  IndexJobRepositoryInterface
	txRunner TxRunner
	uuidGen  UUIDGenerator
}

// NewDocumentService creates a DocumentService that writes without a transaction
func NewDocumentService(docRepo DocumentRepositoryInterface, jobRepo IndexJobRepositoryInterface) *DocumentService {
	return &DocumentService{
		docRepo: docRepo,
		jobRepo: jobRepo,
		uuidGen: &DefaultUUIDGenerator{},
	}
}

// NewDocumentServiceWithTx creates a DocumentService that writes a document and
// its index job atomically
func NewDocumentServiceWithTx(docRepo DocumentRepositoryInterface, jobRepo IndexJobRepositoryInterface, txRunner TxRunner) *DocumentService {
	svc := NewDocumentService(docRepo, jobRepo)
	svc.txRunner = txRunner
	return svc
}

// NewDocumentServiceWithUUIDGen creates a DocumentService with custom UUID generator (for testing)
func NewDocumentServiceWithUUIDGen(docRepo DocumentRepositoryInterface, jobRepo IndexJobRepositoryInterface, uuidGen UUIDGenerator) *DocumentService {
	svc := NewDocumentService(docRepo, jobRepo)
	svc.uuidGen = uuidGen
	return svc
}

// CreateDocumentInput represents the input for creating a document
type CreateDocumentInput struct {
	Title string
	Body  string
}

// UpdateDocumentInput represents the input for replacing a document's content
type UpdateDocumentInput struct {
	DocumentID string
	Title      string
	Body       string
}

// ListDocumentsInput selects a page by Offset, or by Cursor when one is given.
type ListDocumentsInput struct {
	Search string
	Limit  int
	Offset int
	Cursor string
}

type ListDocumentsOutput struct {
	Items []*domain.Document
	Total int
	// NextCursor is empty once a page comes back short.
	NextCursor string
}

// Create stores a new document and queues its indexing
func (s *DocumentService) Create(ctx context.Context, input CreateDocumentInput) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Create", telemetry.SpanAttributes{
		Operation: "create",
	})
	defer span.End()

	now := time.Now().UTC()
	doc := domain.NewDocument(s.uuidGen.NewString(), input.Title, input.Body, now, now)
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	err := s.write(ctx, func(docs DocumentRepositoryInterface, jobs IndexJobRepositoryInterface) error {
		if err := docs.Create(ctx, doc); err != nil {
			return err
		}
		return jobs.Create(ctx, s.newJob(doc.ID, now))
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return doc, nil
}

// Update replaces a document's title and body and queues re-indexing
func (s *DocumentService) Update(ctx context.Context, input UpdateDocumentInput) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Update", telemetry.SpanAttributes{
		DocumentID: input.DocumentID,
		Operation:  "update",
	})
	defer span.End()

	doc, err := s.docRepo.GetByID(ctx, input.DocumentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc.Title = input.Title
	doc.Body = input.Body
	doc.UpdatedAt = now
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	err = s.write(ctx, func(docs DocumentRepositoryInterface, jobs IndexJobRepositoryInterface) error {
		if err := docs.Update(ctx, doc); err != nil {
			return err
		}
		return jobs.Create(ctx, s.newJob(doc.ID, now))
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return doc, nil
}

// GetByID retrieves a document by ID
func (s *DocumentService) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.GetByID", telemetry.SpanAttributes{
		DocumentID: id,
		Operation:  "get",
	})
	defer span.End()

	return s.docRepo.GetByID(ctx, id)
}

// List returns a page of documents, newest first, optionally filtered by a
// title substring.
func (s *DocumentService) List(ctx context.Context, input ListDocumentsInput) (*ListDocumentsOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		items []*domain.Document
		err   error
	)
	if input.Cursor != "" {
		cursor, decodeErr := pagination.DecodeCursor(input.Cursor)
		if decodeErr != nil {
			return nil, domain.ErrInvalidCursor
		}
		items, err = s.docRepo.ListAfter(ctx, input.Search, cursor, limit)
	} else {
		items, err = s.docRepo.List(ctx, input.Search, limit, offset)
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	total, err := s.docRepo.Count(ctx, input.Search)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	next := pagination.CreateNextCursor(items, limit,
		func(d *domain.Document) string { return d.ID },
		func(d *domain.Document) time.Time { return d.UpdatedAt },
	)
	return &ListDocumentsOutput{Items: items, Total: total, NextCursor: next}, nil
}

// Delete removes a document; its chunks and jobs go with it.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Delete", telemetry.SpanAttributes{
		DocumentID: id,
		Operation:  "delete",
	})
	defer span.End()

	return s.docRepo.Delete(ctx, id)
}

// QueueIndex queues a fresh index job for an existing document
func (s *DocumentService) QueueIndex(ctx context.Context, id string) (*domain.IndexJob, error) {
	if _, err := s.docRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	job := s.newJob(id, time.Now().UTC())
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create index job: %w", err)
	}
	return job, nil
}

func (s *DocumentService) newJob(documentID string, now time.Time) *domain.IndexJob {
	return domain.NewIndexJob(s.uuidGen.NewString(), documentID, domain.IndexJobStatusPending, 0, "", now, nil)
}

func (s *DocumentService) write(ctx context.Context, fn func(docs DocumentRepositoryInterface, jobs IndexJobRepositoryInterface) error) error {
	if s.txRunner != nil {
		return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
			return fn(repos.Documents(), repos.IndexJobs())
		})
	}
	return fn(s.docRepo, s.jobRepo)
}
