package chunker

import (
	"strings"
	"unicode"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200

	// How far past the window end we look for a sentence boundary.
	boundaryLookahead = 100
)

// Chunk segments text into overlapping passages. Window ends snap to the
// first sentence-terminal punctuation followed by whitespace within
// boundaryLookahead runes past the nominal end, so passages rarely cut a
// sentence in half. Consecutive passages overlap by up to overlap runes.
// Empty input yields an empty slice, never an error.
func Chunk(text string, chunkSize, overlap int) (out []string) {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	// Segmentation must never take a request down. Anything unexpected
	// degrades to plain fixed-size slicing.
	defer func() {
		if r := recover(); r != nil {
			out = chunkFixed(text, chunkSize)
		}
	}()

	runes := []rune(text)
	n := len(runes)
	maxIters := n/(chunkSize-overlap) + 11

	out = make([]string, 0, n/chunkSize+1)
	start := 0
	for iter := 0; start < n; iter++ {
		if iter > maxIters {
			// Natural-break logic failed to make progress; slice the rest.
			return append(out, chunkFixed(string(runes[start:]), chunkSize)...)
		}
		end := start + chunkSize
		if end > n {
			end = n
		}
		if end < n {
			limit := end + boundaryLookahead
			if limit > n-1 {
				limit = n - 1
			}
			for i := end; i < limit; i++ {
				if isSentenceEnd(runes[i]) && unicode.IsSpace(runes[i+1]) {
					end = i + 2
					break
				}
			}
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			out = append(out, part)
		}
		if end >= n {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

// chunkFixed is the degraded path: fixed-size, non-overlapping slices.
func chunkFixed(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	runes := []rune(text)
	out := make([]string, 0, len(runes)/chunkSize+1)
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if part := strings.TrimSpace(string(runes[i:end])); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
