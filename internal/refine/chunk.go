package refine

import (
	"strings"
	"unicode/utf8"
)

// Chunk merge limits, in characters.
const (
	minChunkLength = 80
	maxChunkLength = 200
)

// Fragments splits text on periods, trims each piece and drops empties.
func Fragments(text string) []string {
	parts := strings.Split(text, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Chunk merges period-delimited fragments into sentence-like chunks.
//
// Fragments are appended to the open chunk, joined by ". ", while the chunk
// is shorter than 80 characters and the merge stays under 200. This keeps
// abbreviations and list markers from standing alone.
func Chunk(text string) []string {
	fragments := Fragments(text)
	chunks := make([]string, 0, len(fragments))

	for i := 0; i < len(fragments); i++ {
		current := fragments[i]
		for i+1 < len(fragments) &&
			utf8.RuneCountInString(current) < minChunkLength &&
			utf8.RuneCountInString(current)+2+utf8.RuneCountInString(fragments[i+1]) < maxChunkLength {
			i++
			current += ". " + fragments[i]
		}
		chunks = append(chunks, current)
	}
	return chunks
}
