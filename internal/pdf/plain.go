package pdf

import (
	"context"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PlainConverter extracts page text without layout analysis. It finds no
// headings, so every document segments into a single section.
type PlainConverter struct{}

// Convert implements Converter.
func (c *PlainConverter) Convert(ctx context.Context, path string) (*Document, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, unreadable(path, err)
	}
	defer f.Close()

	var (
		buf      strings.Builder
		warnings int
	)
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			warnings++
			continue
		}
		buf.WriteString(text)
		buf.WriteByte('\n')
	}

	return &Document{
		Path:     path,
		Markdown: buf.String(),
		Pages:    max(numPages, 1),
		Warnings: warnings,
	}, nil
}

var _ Converter = (*PlainConverter)(nil)
