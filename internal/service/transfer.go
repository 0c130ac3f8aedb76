package service

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/cloo-solutions/notesqa/internal/domain"
	"github.com/cloo-solutions/notesqa/internal/telemetry"
)

const exportPageSize = 100

var importExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// NoteSource lists and reads note objects
type NoteSource interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	GetText(ctx context.Context, key string) (string, error)
}

// NoteSink writes note objects
type NoteSink interface {
	PutText(ctx context.Context, key, text string) error
}

// DocumentStore is the part of DocumentService transfers need
type DocumentStore interface {
	Create(ctx context.Context, input CreateDocumentInput) (*domain.Document, error)
	List(ctx context.Context, input ListDocumentsInput) (*ListDocumentsOutput, error)
}

// ImportFailure records a note that could not be imported
type ImportFailure struct {
	Key string
	Err error
}

// ImportReport summarizes a bulk import
type ImportReport struct {
	Imported []string
	Skipped  []string
	Failed   []ImportFailure
}

// TransferService moves notes between object storage and the document store
type TransferService struct {
	docs DocumentStore
}

func NewTransferService(docs DocumentStore) *TransferService {
	return &TransferService{docs: docs}
}

// Import creates a document for every markdown or text object under prefix.
// A bad object is recorded in the report and the import continues; only a
// listing failure aborts.
func (s *TransferService) Import(ctx context.Context, src NoteSource, prefix string) (*ImportReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "TransferService.Import", telemetry.SpanAttributes{
		Operation: "import",
	})
	defer span.End()

	keys, err := src.ListKeys(ctx, prefix)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	report := &ImportReport{}
	for _, key := range keys {
		if !importExtensions[strings.ToLower(path.Ext(key))] {
			report.Skipped = append(report.Skipped, key)
			continue
		}

		text, err := src.GetText(ctx, key)
		if err != nil {
			report.Failed = append(report.Failed, ImportFailure{Key: key, Err: err})
			continue
		}
		if strings.TrimSpace(text) == "" {
			report.Skipped = append(report.Skipped, key)
			continue
		}

		title, body := ParseNote(key, text)
		doc, err := s.docs.Create(ctx, CreateDocumentInput{Title: title, Body: body})
		if err != nil {
			log.Printf("import %s: %v", key, err)
			report.Failed = append(report.Failed, ImportFailure{Key: key, Err: err})
			continue
		}
		report.Imported = append(report.Imported, doc.ID)
	}

	return report, nil
}

// Export writes every stored document to <prefix><id>.md and returns how many
// were written.
func (s *TransferService) Export(ctx context.Context, dst NoteSink, prefix string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "TransferService.Export", telemetry.SpanAttributes{
		Operation: "export",
	})
	defer span.End()

	written := 0
	cursor := ""
	for {
		page, err := s.docs.List(ctx, ListDocumentsInput{Limit: exportPageSize, Cursor: cursor})
		if err != nil {
			span.SetError(err)
			return written, err
		}

		for _, doc := range page.Items {
			if err := dst.PutText(ctx, prefix+doc.ID+".md", FormatNote(doc)); err != nil {
				span.SetError(err)
				return written, fmt.Errorf("failed to export document %s: %w", doc.ID, err)
			}
			written++
		}

		if page.NextCursor == "" {
			return written, nil
		}
		cursor = page.NextCursor
	}
}

// ParseNote derives a title and body from a note object. A leading "# "
// heading becomes the title and is removed from the body; otherwise the file
// name without its extension is used.
func ParseNote(key, text string) (string, string) {
	text = strings.TrimPrefix(text, "\ufeff")
	trimmed := strings.TrimLeft(text, " \t\r\n")

	var title, body string
	if strings.HasPrefix(trimmed, "# ") {
		firstLine, rest, _ := strings.Cut(trimmed, "\n")
		title = strings.TrimSpace(strings.TrimPrefix(firstLine, "# "))
		body = strings.TrimSpace(rest)
	}
	if title == "" || body == "" {
		base := path.Base(key)
		title = strings.TrimSuffix(base, path.Ext(base))
		body = strings.TrimSpace(text)
	}

	return truncateRunes(title, domain.MaxTitleLength), body
}

// FormatNote renders a document in the form ParseNote reads back
func FormatNote(doc *domain.Document) string {
	return "# " + doc.Title + "\n\n" + doc.Body + "\n"
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
