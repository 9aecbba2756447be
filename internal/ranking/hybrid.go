package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/personarank/internal/embeddings"
	"github.com/fyrsmithlabs/personarank/internal/graph"
	"github.com/fyrsmithlabs/personarank/internal/segment"
	"github.com/fyrsmithlabs/personarank/internal/similarity"
)

const instrumentationName = "github.com/fyrsmithlabs/personarank/internal/ranking"

// HybridRanker ranks in two stages. Stage one scores every section by cosine
// similarity to the query. Stage two builds a similarity graph over the top
// candidates and blends their normalised PageRank into the score, so
// sections corroborated by other relevant sections rise.
type HybridRanker struct {
	embedder embeddings.Embedder
	opts     Options
	logger   *zap.Logger
	tracer   trace.Tracer

	duration   metric.Float64Histogram
	candidates metric.Int64Histogram
	fallbacks  metric.Int64Counter
}

// NewHybridRanker creates a HybridRanker.
func NewHybridRanker(embedder embeddings.Embedder, opts Options, logger *zap.Logger) (*HybridRanker, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking options: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &HybridRanker{
		embedder: embedder,
		opts:     opts,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
	}
	r.initMetrics(otel.Meter(instrumentationName))
	return r, nil
}

func (r *HybridRanker) initMetrics(meter metric.Meter) {
	var err error

	r.duration, err = meter.Float64Histogram(
		"personarank.ranking.duration_seconds",
		metric.WithDescription("Duration of a full ranking pass including embedding"),
		metric.WithUnit("s"),
	)
	if err != nil {
		r.logger.Warn("failed to create duration histogram", zap.Error(err))
	}

	r.candidates, err = meter.Int64Histogram(
		"personarank.ranking.candidates",
		metric.WithDescription("Sections entering graph re-ranking"),
		metric.WithUnit("{section}"),
	)
	if err != nil {
		r.logger.Warn("failed to create candidates histogram", zap.Error(err))
	}

	r.fallbacks, err = meter.Int64Counter(
		"personarank.ranking.pagerank_fallbacks_total",
		metric.WithDescription("PageRank runs that did not converge and used uniform scores"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		r.logger.Warn("failed to create fallback counter", zap.Error(err))
	}
}

// Rank implements Ranker.
//
// The query and all sections are encoded once each, the sections as a
// single batch. Any embedding failure aborts the pass.
func (r *HybridRanker) Rank(ctx context.Context, sections []*segment.Section, query string) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "ranking.Rank")
	defer span.End()
	span.SetAttributes(attribute.Int("sections", len(sections)))

	start := time.Now()
	defer func() {
		if r.duration != nil {
			r.duration.Record(ctx, time.Since(start).Seconds())
		}
	}()

	if len(sections) == 0 {
		return &Result{Sections: []*segment.Section{}, Converged: true}, nil
	}

	queryVec, vectors, err := r.embed(ctx, sections, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Stage 1: semantic retrieval. order holds input positions.
	scores := similarity.Scores(queryVec, vectors)
	for i, s := range sections {
		s.SemanticScore = segment.Float(scores[i])
		s.PageRankScore = nil
		s.FinalScore = nil
	}

	order := make([]int, len(sections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	result := &Result{QueryEmbedding: queryVec, Converged: true}

	if len(sections) < 2 {
		for _, pos := range order {
			sections[pos].FinalScore = segment.Float(scores[pos])
		}
		result.GraphSkipped = true
		result.Sections = assignRanks(sections, order)
		r.logger.Debug("graph re-ranking skipped", zap.Int("sections", len(sections)))
		return result, nil
	}

	// Stage 2: graph re-ranking over the candidate set only.
	candidates := order[:min(r.opts.CandidateCap, len(order))]
	candidateVecs := make([][]float32, len(candidates))
	for i, pos := range candidates {
		candidateVecs[i] = vectors[pos]
	}

	g := graph.Build(candidateVecs, r.opts.SimilarityThreshold)
	pr, converged := graph.PageRank(g, r.opts.PageRank)
	normalized := graph.NormalizeByMax(pr)

	result.Candidates = len(candidates)
	result.Edges = g.EdgeCount()
	result.Converged = converged

	if r.candidates != nil {
		r.candidates.Record(ctx, int64(len(candidates)))
	}
	if !converged {
		if r.fallbacks != nil {
			r.fallbacks.Add(ctx, 1)
		}
		r.logger.Warn("pagerank did not converge, using uniform scores",
			zap.Int("candidates", len(candidates)),
			zap.Int("max_iterations", r.opts.PageRank.MaxIterations),
		)
	}

	alpha := r.opts.Alpha
	for i, pos := range candidates {
		s := sections[pos]
		s.PageRankScore = segment.Float(normalized[i])
		s.FinalScore = segment.Float(alpha*scores[pos] + (1-alpha)*normalized[i])
	}
	for _, pos := range order[len(candidates):] {
		sections[pos].FinalScore = segment.Float(scores[pos])
	}

	// Final order: descending final score, ties by input position.
	final := make([]int, len(sections))
	for i := range final {
		final[i] = i
	}
	sort.SliceStable(final, func(a, b int) bool {
		fa, fb := sections[final[a]].Final(), sections[final[b]].Final()
		if fa != fb {
			return fa > fb
		}
		return final[a] < final[b]
	})
	result.Sections = assignRanks(sections, final)

	span.SetAttributes(
		attribute.Int("candidates", result.Candidates),
		attribute.Int("edges", result.Edges),
		attribute.Bool("converged", converged),
	)
	r.logger.Debug("sections ranked",
		zap.Int("sections", len(sections)),
		zap.Int("candidates", result.Candidates),
		zap.Int("edges", result.Edges),
	)
	return result, nil
}

func (r *HybridRanker) embed(ctx context.Context, sections []*segment.Section, query string) ([]float32, [][]float32, error) {
	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding query: %w", err)
	}

	texts := make([]string, len(sections))
	for i, s := range sections {
		texts[i] = s.Text()
	}
	vectors, err := r.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("embedding %d sections: %w", len(sections), err)
	}
	if len(vectors) != len(sections) {
		return nil, nil, fmt.Errorf("%w: got %d vectors for %d sections", embeddings.ErrModelUnavailable, len(vectors), len(sections))
	}
	return queryVec, vectors, nil
}

// assignRanks numbers sections 1..N following order and returns them in
// that order.
func assignRanks(sections []*segment.Section, order []int) []*segment.Section {
	out := make([]*segment.Section, len(order))
	for rank, pos := range order {
		sections[pos].ImportanceRank = rank + 1
		out[rank] = sections[pos]
	}
	return out
}

var _ Ranker = (*HybridRanker)(nil)
