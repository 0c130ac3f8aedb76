// Package pagination encodes keyset cursors over (updated_at, id) ordered rows.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

const separator = "|"

// Cursor is the position after which the next page starts
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

var ErrInvalidCursor = errors.New("invalid cursor format")

// EncodeCursor returns an opaque, query-string safe token for the row with
// the given id and timestamp. An empty id yields an empty cursor.
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	raw := lastID + separator + timestamp.UTC().Format(time.RFC3339Nano)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor reverses EncodeCursor. An empty string decodes to a nil cursor
// meaning "first page".
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	id, ts, ok := strings.Cut(string(decoded), separator)
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastID: id, Timestamp: timestamp}, nil
}

// CreateNextCursor points after the last item of a full page. A short page is
// the last one and gets no cursor.
func CreateNextCursor[T any](items []T, limit int, getID func(T) string, getTimestamp func(T) time.Time) string {
	if len(items) == 0 || len(items) < limit {
		return ""
	}
	last := items[len(items)-1]
	return EncodeCursor(getID(last), getTimestamp(last))
}
