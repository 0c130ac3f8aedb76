package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the maximum number of characters in a document title.
const MaxTitleLength = 255

// Document is a stored note that questions are answered from.
type Document struct {
	ID        string
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDocument creates a new Document instance
func NewDocument(id, title, body string, createdAt, updatedAt time.Time) *Document {
	return &Document{
		ID:        id,
		Title:     title,
		Body:      body,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return NewDomainErrorWithCause(ErrCodeValidation, "document ID is required", ErrMissingRequiredField)
	}

	if strings.TrimSpace(d.Title) == "" {
		return NewDomainErrorWithCause(ErrCodeValidation, "document title is required", ErrMissingRequiredField)
	}

	if utf8.RuneCountInString(d.Title) > MaxTitleLength {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("document title exceeds %d characters", MaxTitleLength))
	}

	if strings.TrimSpace(d.Body) == "" {
		return NewDomainErrorWithCause(ErrCodeValidation, "document body is required", ErrMissingRequiredField)
	}

	return nil
}
