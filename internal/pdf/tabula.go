package pdf

import (
	"context"

	"github.com/tsawler/tabula"
)

// TabulaConverter extracts layout-aware markdown, with detected headings
// rendered as '#' lines.
type TabulaConverter struct {
	ExcludeHeadersAndFooters bool
}

// Convert implements Converter.
func (c *TabulaConverter) Convert(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := tabula.Open(path)
	if c.ExcludeHeadersAndFooters {
		ext = ext.ExcludeHeadersAndFooters()
	}
	defer ext.Close()

	pages, err := ext.PageCount()
	if err != nil {
		return nil, unreadable(path, err)
	}

	markdown, warnings, err := ext.ToMarkdown()
	if err != nil {
		return nil, unreadable(path, err)
	}

	return &Document{
		Path:     path,
		Markdown: markdown,
		Pages:    max(pages, 1),
		Warnings: len(warnings),
	}, nil
}

var _ Converter = (*TabulaConverter)(nil)
