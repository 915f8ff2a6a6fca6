package document

import (
	"fmt"
	"strings"
)

// DefaultChunkSize and DefaultOverlap are the default sliding-window
// parameters, in characters.
const (
	DefaultChunkSize = 900
	DefaultOverlap   = 200
)

// Split slices canonical text into an ordered list of overlapping chunks.
// Each chunk is at most size characters long and consecutive chunks share
// overlap characters of source text. Lengths are counted in runes so that
// multi-byte text is never split inside a character. Whitespace-only slices
// are dropped. Empty input yields an empty list.
//
// The next window always starts at max(end-overlap, start+1), so progress is
// strictly positive and the loop terminates even when overlap = size-1.
func Split(text string, size, overlap int) ([]string, error) {
	if size < 1 {
		return nil, fmt.Errorf("chunk size must be >= 1, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap must satisfy 0 <= overlap < size, got %d", overlap)
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := min(len(runes), start+size)
		piece := string(runes[start:end])
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, piece)
		}
		if end >= len(runes) {
			break
		}
		start = max(end-overlap, start+1)
	}
	return chunks, nil
}
