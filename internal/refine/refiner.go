package refine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/personarank/internal/embeddings"
	"github.com/fyrsmithlabs/personarank/internal/segment"
	"github.com/fyrsmithlabs/personarank/internal/similarity"
)

const instrumentationName = "github.com/fyrsmithlabs/personarank/internal/refine"

// NoContent is returned when a section yields nothing worth summarising.
const NoContent = "No content available for refinement."

// DefaultTopK is how many chunks a summary draws on.
const DefaultTopK = 5

// Options tunes refinement.
type Options struct {
	// TopK is the maximum number of chunks kept.
	TopK int
	// MaxWords bounds the cleaned summary.
	MaxWords int
}

// DefaultOptions returns the standard refinement configuration.
func DefaultOptions() Options {
	return Options{TopK: DefaultTopK, MaxWords: DefaultMaxWords}
}

// Validate checks options for errors.
func (o Options) Validate() error {
	if o.TopK < 1 {
		return fmt.Errorf("top k must be >= 1, got %d", o.TopK)
	}
	if o.MaxWords < 1 {
		return fmt.Errorf("max words must be >= 1, got %d", o.MaxWords)
	}
	return nil
}

// SentenceRefiner builds query-focused extractive summaries.
type SentenceRefiner struct {
	embedder embeddings.Embedder
	opts     Options
	logger   *zap.Logger
	tracer   trace.Tracer

	fallbacks metric.Int64Counter
}

// NewSentenceRefiner creates a SentenceRefiner.
func NewSentenceRefiner(embedder embeddings.Embedder, opts Options, logger *zap.Logger) (*SentenceRefiner, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid refine options: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &SentenceRefiner{
		embedder: embedder,
		opts:     opts,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
	}

	var err error
	r.fallbacks, err = otel.Meter(instrumentationName).Int64Counter(
		"personarank.refine.fallbacks_total",
		metric.WithDescription("Sections refined to the no-content sentinel"),
		metric.WithUnit("{section}"),
	)
	if err != nil {
		logger.Warn("failed to create fallback counter", zap.Error(err))
	}
	return r, nil
}

// Refine summarises section against queryEmbedding.
//
// It never fails: empty content, content that cleans to nothing, and
// embedding errors all yield NoContent. Chunks are embedded in one batch.
func (r *SentenceRefiner) Refine(ctx context.Context, section *segment.Section, queryEmbedding []float32) string {
	ctx, span := r.tracer.Start(ctx, "refine.Refine")
	defer span.End()
	span.SetAttributes(
		attribute.String("document", section.DocumentID),
		attribute.Int("section_index", section.Index),
	)

	if strings.TrimSpace(section.Content) == "" {
		return r.fallback(ctx, section, "empty content")
	}

	chunks := Chunk(section.Content)
	if len(chunks) == 0 {
		// Content made only of periods and whitespace is returned raw, but
		// still within the word budget.
		return LimitWords(section.Content, r.opts.MaxWords)
	}
	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	vectors, err := r.embedder.EmbedDocuments(ctx, chunks)
	if err == nil && len(vectors) != len(chunks) {
		err = fmt.Errorf("%w: got %d vectors for %d chunks", embeddings.ErrModelUnavailable, len(vectors), len(chunks))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("chunk embedding failed",
			zap.String("document", section.DocumentID),
			zap.String("section", section.Title),
			zap.Error(err),
		)
		return r.fallback(ctx, section, "embedding failed")
	}

	selected := r.selectChunks(chunks, similarity.Scores(queryEmbedding, vectors))
	summary := strings.Join(selected, ". ") + "."

	cleaned := Clean(summary)
	if strings.TrimSpace(cleaned) == "" {
		return r.fallback(ctx, section, "nothing left after cleaning")
	}
	return terminate(LimitWords(cleaned, r.opts.MaxWords))
}

// selectChunks keeps the TopK chunks by descending score, ties by position.
func (r *SentenceRefiner) selectChunks(chunks []string, scores []float64) []string {
	order := make([]int, len(chunks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	k := min(r.opts.TopK, len(order))
	out := make([]string, k)
	for i, pos := range order[:k] {
		out[i] = chunks[pos]
	}
	return out
}

func (r *SentenceRefiner) fallback(ctx context.Context, section *segment.Section, reason string) string {
	if r.fallbacks != nil {
		r.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
	r.logger.Debug("section refined to sentinel",
		zap.String("document", section.DocumentID),
		zap.String("section", section.Title),
		zap.String("reason", reason),
	)
	return NoContent
}
