package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/personarank/internal/pdf"
)

type conversion struct {
	doc *pdf.Document
	err error
}

// convertAll converts paths with at most Workers conversions in flight.
// Results keep path order. Per-document failures are returned in the
// result; only cancellation fails the whole call.
func (p *Pipeline) convertAll(ctx context.Context, paths []string) ([]conversion, error) {
	results := make([]conversion, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := p.converter.Convert(gctx, path)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = conversion{doc: doc, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
