package refine

import "strings"

// DefaultMaxWords bounds a refined summary.
const DefaultMaxWords = 400

// LimitWords keeps text within maxWords. Whole sentences are kept greedily
// until the next would overflow; if even the first sentence is too long,
// the text is cut to its first maxWords words.
func LimitWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}

	var (
		kept  []string
		count int
	)
	for _, s := range strings.Split(text, ".") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n := len(strings.Fields(s))
		if count+n > maxWords {
			break
		}
		kept = append(kept, s)
		count += n
	}

	if len(kept) == 0 {
		return strings.Join(words[:maxWords], " ") + "."
	}
	return terminate(strings.Join(kept, ". "))
}
