// Package ingest turns raw text from files and web search results into
// evidence chunks ready for the store: splitting long documents into
// overlapping windows and attaching provenance metadata.
package ingest

import (
	"strings"

	"github.com/ppiankov/veracity/internal/model"
)

// Splitter cuts text into overlapping chunks of roughly chunkSize runes.
// Cut points prefer paragraph breaks, then sentence ends, then word
// boundaries, so chunks stay readable for the evaluation prompt.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a splitter. Non-positive sizes fall back to the
// defaults, and the overlap is clamped below the chunk size.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = model.DefaultConfig().Ingest.ChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split returns the overlapping windows of text. Whitespace-only input
// yields no chunks.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = s.cutPoint(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}

		next := end - s.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// cutPoint searches backwards from limit for the best break position,
// never retreating past the midpoint of the window.
func (s *Splitter) cutPoint(runes []rune, start, limit int) int {
	floor := start + s.chunkSize/2

	// Paragraph break.
	for i := limit; i > floor; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}

	// Sentence end followed by a space.
	for i := limit; i > floor; i-- {
		c := runes[i-1]
		if (c == '.' || c == '!' || c == '?') && i < len(runes) && isSpace(runes[i]) {
			return i
		}
	}

	// Word boundary.
	for i := limit; i > floor; i-- {
		if isSpace(runes[i-1]) {
			return i
		}
	}

	return limit
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
