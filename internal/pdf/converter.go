// Package pdf converts PDF files into heading-annotated text.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrDocumentUnreadable is returned when a file cannot be opened or parsed.
var ErrDocumentUnreadable = errors.New("document unreadable")

// Document is a converted PDF.
type Document struct {
	// Path is the file the document was read from.
	Path string
	// Markdown is the text with headings marked by leading '#'.
	Markdown string
	// Pages is the page count, at least 1 for a readable file.
	Pages int
	// Warnings counts non-fatal extraction problems.
	Warnings int
}

// Converter turns a PDF on disk into a Document.
type Converter interface {
	Convert(ctx context.Context, path string) (*Document, error)
}

// Options selects and tunes the converter.
type Options struct {
	// PlainFallback retries unreadable files with plain text extraction.
	PlainFallback bool
	// ExcludeHeadersAndFooters drops repeated page furniture.
	ExcludeHeadersAndFooters bool
}

// NewConverter returns the converter for opts.
func NewConverter(opts Options, logger *zap.Logger) Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	primary := &TabulaConverter{ExcludeHeadersAndFooters: opts.ExcludeHeadersAndFooters}
	if !opts.PlainFallback {
		return primary
	}
	return &FallbackConverter{
		Primary:   primary,
		Secondary: &PlainConverter{},
		logger:    logger,
	}
}

// FallbackConverter tries Primary and, on failure, Secondary.
type FallbackConverter struct {
	Primary   Converter
	Secondary Converter
	logger    *zap.Logger
}

// Convert implements Converter.
func (c *FallbackConverter) Convert(ctx context.Context, path string) (*Document, error) {
	doc, err := c.Primary.Convert(ctx, path)
	if err == nil {
		return doc, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	c.logger.Warn("markdown conversion failed, falling back to plain text",
		zap.String("path", path),
		zap.Error(err),
	)
	doc, fallbackErr := c.Secondary.Convert(ctx, path)
	if fallbackErr != nil {
		return nil, errors.Join(err, fallbackErr)
	}
	return doc, nil
}

// Discover lists the PDF files directly inside dir, matched by a
// case-insensitive ".pdf" extension and sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func unreadable(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDocumentUnreadable, filepath.Base(path), err)
}
