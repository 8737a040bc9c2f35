package utils

import (
	"strings"
	"unicode"
)

// Chunking defaults for knowledge base ingestion. 1200 characters keeps
// article-sized fragments intact; the overlap preserves clause context
// across boundaries.
const (
	DefaultChunkSize    = 1200
	DefaultChunkOverlap = 180
)

// boundaryWindow is how far back a cut may move to land on a newline or
// space instead of splitting a word mid-way.
const boundaryWindow = 120

// SplitText cuts text into chunks of at most chunkSize runes, repeating
// overlap runes across boundaries. Cuts prefer the last newline, then
// the last space, within the final boundaryWindow of a chunk, so
// numbered articles survive chunking whole when they fit.
func SplitText(text string, chunkSize int, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}
	if overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	start := 0
	for {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}

		cut := cutPoint(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - overlap
		if next <= start {
			// Degenerate overlap; forward progress wins.
			next = cut
		}
		start = next
	}
}

func cutPoint(runes []rune, start, limit int) int {
	floor := limit - boundaryWindow
	if floor <= start {
		floor = start + 1
	}
	for i := limit; i > floor; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	for i := limit; i > floor; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return limit
}
