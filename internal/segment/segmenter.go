package segment

import (
	"regexp"
	"strings"
)

const (
	// DefaultTitle names text that precedes the first heading.
	DefaultTitle = "Introduction"

	// UntitledTitle replaces a heading whose text is empty.
	UntitledTitle = "Untitled Section"

	maxLevel = 6
)

var headingPattern = regexp.MustCompile(`^(#+)\s+(.*)`)

// Options tunes segmentation.
type Options struct {
	// ClampPages caps page estimates at the document's page count.
	// Off by default: estimates are approximate and may overshoot.
	ClampPages bool
}

// Segmenter turns converted document text into Sections.
//
// Indexes are assigned from a counter shared across every document the
// Segmenter sees, so one Segmenter should serve exactly one run.
type Segmenter struct {
	opts Options
	next int
}

// NewSegmenter creates a Segmenter.
func NewSegmenter(opts Options) *Segmenter {
	return &Segmenter{opts: opts}
}

type accumulator struct {
	title     string
	level     int
	startLine int
	content   strings.Builder
}

// Segment walks text line by line and returns its sections in order.
//
// Content that precedes the first heading is titled DefaultTitle. Sections
// whose trimmed content is empty are dropped, so a heading immediately
// followed by another heading yields nothing.
func (s *Segmenter) Segment(documentID, text string, totalPages int) []*Section {
	lines := strings.Split(text, "\n")

	if totalPages < 1 {
		totalPages = 1
	}
	linesPerPage := max(1, len(lines)/totalPages)

	var sections []*Section
	acc := &accumulator{title: DefaultTitle, level: 1}

	flush := func() {
		content := strings.TrimSpace(acc.content.String())
		if content == "" {
			return
		}
		page := acc.startLine/linesPerPage + 1
		if s.opts.ClampPages && page > totalPages {
			page = totalPages
		}
		sections = append(sections, &Section{
			Index:        s.next,
			DocumentID:   documentID,
			PageEstimate: page,
			Title:        acc.title,
			Level:        acc.level,
			Content:      content,
		})
		s.next++
	}

	for i, line := range lines {
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			acc.content.WriteString(line)
			acc.content.WriteByte('\n')
			continue
		}

		flush()

		title := strings.TrimSpace(m[2])
		if title == "" {
			title = UntitledTitle
		}
		acc = &accumulator{
			title:     title,
			level:     min(len(m[1]), maxLevel),
			startLine: i,
		}
	}
	flush()

	return sections
}

// Count returns how many sections this Segmenter has produced.
func (s *Segmenter) Count() int {
	return s.next
}
