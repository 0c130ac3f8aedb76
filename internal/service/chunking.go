package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/notesqa/internal/domain"
)

// DefaultSeparators are tried in order: paragraph, line, word, then a hard
// character split.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter breaks text into overlapping chunks. Sizes are in runes.
type Splitter struct {
	ChunkSize  int
	Overlap    int
	Separators []string
}

// DefaultSplitter returns a splitter with 1000-character chunks overlapping by 200.
func DefaultSplitter() *Splitter {
	return &Splitter{
		ChunkSize:  1000,
		Overlap:    200,
		Separators: DefaultSeparators,
	}
}

// NewSplitter validates the configuration. Nil separators fall back to DefaultSeparators.
func NewSplitter(chunkSize, overlap int, separators []string) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "chunk size must be positive")
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, domain.NewDomainError(domain.ErrCodeValidation,
			fmt.Sprintf("chunk overlap %d must be in [0, %d)", overlap, chunkSize))
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap, Separators: separators}, nil
}

// Split recursively splits text on the highest-priority separator that occurs
// in it, re-splitting oversized pieces with the remaining separators, then
// greedily merges pieces into chunks of at most ChunkSize that overlap by up to
// Overlap characters. A separator stays on the front of the piece after it, so
// every chunk is a trimmed, contiguous substring of text. Output is
// deterministic and never contains empty chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	separators := s.Separators
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	return s.splitRecursive(text, separators)
}

func (s *Splitter) splitRecursive(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var remaining []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	var chunks []string
	var pending []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if runeLen(piece) < s.ChunkSize {
			pending = append(pending, piece)
			continue
		}

		if len(pending) > 0 {
			chunks = append(chunks, s.mergePieces(pending)...)
			pending = nil
		}
		if len(remaining) == 0 {
			if trimmed := strings.TrimSpace(piece); trimmed != "" {
				chunks = append(chunks, trimmed)
			}
			continue
		}
		chunks = append(chunks, s.splitRecursive(piece, remaining)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.mergePieces(pending)...)
	}

	return chunks
}

// mergePieces concatenates adjacent pieces into windows no longer than
// ChunkSize. When a window is emitted it is shrunk from the front until it is
// within Overlap, so its tail opens the next chunk.
func (s *Splitter) mergePieces(pieces []string) []string {
	var chunks []string
	var window []string
	total := 0

	emit := func() {
		if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		n := runeLen(piece)

		if total+n > s.ChunkSize && len(window) > 0 {
			emit()
			for len(window) > 0 && (total > s.Overlap || total+n > s.ChunkSize) {
				total -= runeLen(window[0])
				window = window[1:]
			}
		}

		window = append(window, piece)
		total += n
	}
	emit()

	return chunks
}

// splitKeepingSeparator cuts text before every occurrence of separator, so the
// pieces concatenate back to text. An empty separator yields single runes.
func splitKeepingSeparator(text, separator string) []string {
	if separator == "" {
		pieces := make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, separator)
	pieces := make([]string, 0, len(parts))
	if parts[0] != "" {
		pieces = append(pieces, parts[0])
	}
	for _, part := range parts[1:] {
		pieces = append(pieces, separator+part)
	}
	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
