package service

import (
	"context"
	"strings"

	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/cloo-solutions/notesqa/internal/telemetry"
)

// DocumentFinder locates the document best suited to answer a question
type DocumentFinder interface {
	FindBestDocument(ctx context.Context, question string, limit int) (string, error)
}

// Synthesizer produces an answer from document content
type Synthesizer interface {
	Answer(ctx context.Context, question, content string) domain.Answer
}

// QAResult is an answer together with the document it came from
type QAResult struct {
	DocumentID string
	Title      string
	Answer     domain.Answer
}

// QAService answers questions against stored documents
type QAService struct {
	finder      DocumentFinder
	docs        IndexDocumentReader
	synthesizer Synthesizer
}

// NewQAService creates a new QAService instance
func NewQAService(finder DocumentFinder, docs IndexDocumentReader, synthesizer Synthesizer) *QAService {
	return &QAService{
		finder:      finder,
		docs:        docs,
		synthesizer: synthesizer,
	}
}

// Ask retrieves the most relevant document and answers from it. Errors come
// only from embedding, retrieval or loading the document; a slow or failing
// model still yields an answer.
func (s *QAService) Ask(ctx context.Context, question string) (*QAResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "QAService.Ask", telemetry.SpanAttributes{
		Operation: "ask",
	})
	defer span.End()

	if strings.TrimSpace(question) == "" {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "question is required", domain.ErrMissingRequiredField)
	}

	documentID, err := s.finder.FindBestDocument(ctx, question, 0)
	if err != nil {
		return nil, err
	}

	return s.answerFrom(ctx, question, documentID)
}

// AskDocument answers from a named document without retrieval
func (s *QAService) AskDocument(ctx context.Context, question, documentID string) (*QAResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "QAService.AskDocument", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "ask",
	})
	defer span.End()

	if strings.TrimSpace(question) == "" {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "question is required", domain.ErrMissingRequiredField)
	}

	return s.answerFrom(ctx, question, documentID)
}

func (s *QAService) answerFrom(ctx context.Context, question, documentID string) (*QAResult, error) {
	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	return &QAResult{
		DocumentID: doc.ID,
		Title:      doc.Title,
		Answer:     s.synthesizer.Answer(ctx, question, doc.Body),
	}, nil
}
