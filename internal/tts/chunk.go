package tts

import (
	"iter"
	"strings"
)

// DefaultChunkSize is the request-size ceiling of the built-in backend.
const DefaultChunkSize = 2000

// Chunks slices text into fixed-width pieces of at most max characters,
// trimmed of surrounding whitespace, in original order. Whitespace-only
// pieces are dropped. Boundaries fall wherever the width lands; no word or
// sentence alignment is attempted, since the only requirement is that each
// request fits the backend's ceiling. The sequence is restartable.
func Chunks(text string, max int) iter.Seq[string] {
	if max <= 0 {
		max = DefaultChunkSize
	}
	runes := []rune(text)
	return func(yield func(string) bool) {
		for i := 0; i < len(runes); i += max {
			end := i + max
			if end > len(runes) {
				end = len(runes)
			}
			chunk := strings.TrimSpace(string(runes[i:end]))
			if chunk == "" {
				continue
			}
			if !yield(chunk) {
				return
			}
		}
	}
}

// SplitChunks collects Chunks into a slice.
func SplitChunks(text string, max int) []string {
	var out []string
	for chunk := range Chunks(text, max) {
		out = append(out, chunk)
	}
	return out
}
