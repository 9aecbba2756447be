// Package ranking orders document sections by relevance to a query.
package ranking

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/personarank/internal/graph"
	"github.com/fyrsmithlabs/personarank/internal/segment"
)

// Defaults for Options.
const (
	DefaultCandidateCap = 50
	DefaultAlpha        = 0.6
)

// Options tunes hybrid ranking.
type Options struct {
	// CandidateCap is how many top semantic matches enter graph re-ranking.
	CandidateCap int
	// Alpha weights semantic similarity against normalised PageRank.
	Alpha float64
	// SimilarityThreshold is the similarity a graph edge must exceed.
	SimilarityThreshold float64
	// PageRank configures the centrality power iteration.
	PageRank graph.PageRankOptions
}

// DefaultOptions returns the standard ranking configuration.
func DefaultOptions() Options {
	return Options{
		CandidateCap:        DefaultCandidateCap,
		Alpha:               DefaultAlpha,
		SimilarityThreshold: graph.DefaultThreshold,
		PageRank:            graph.DefaultPageRankOptions(),
	}
}

// Validate checks options for errors.
func (o Options) Validate() error {
	if o.CandidateCap < 1 {
		return fmt.Errorf("candidate cap must be >= 1, got %d", o.CandidateCap)
	}
	if o.Alpha < 0 || o.Alpha > 1 {
		return fmt.Errorf("alpha must be between 0 and 1, got %f", o.Alpha)
	}
	if o.SimilarityThreshold < 0 || o.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be between 0 and 1, got %f", o.SimilarityThreshold)
	}
	if o.PageRank.Damping <= 0 || o.PageRank.Damping >= 1 {
		return fmt.Errorf("damping must be between 0 and 1 exclusive, got %f", o.PageRank.Damping)
	}
	if o.PageRank.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", o.PageRank.Tolerance)
	}
	if o.PageRank.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be >= 1, got %d", o.PageRank.MaxIterations)
	}
	return nil
}

// Result is the outcome of one ranking pass.
type Result struct {
	// Sections holds every input section, ordered by importance rank.
	Sections []*segment.Section
	// QueryEmbedding is the query-role vector, reused for refinement.
	QueryEmbedding []float32
	// Candidates is the size of the graph re-ranking set.
	Candidates int
	// Edges is the number of edges in the similarity graph.
	Edges int
	// GraphSkipped is set when fewer than two sections made re-ranking moot.
	GraphSkipped bool
	// Converged is false when PageRank fell back to uniform scores.
	Converged bool
}

// Ranker scores and orders sections against a query.
type Ranker interface {
	// Rank scores every section in place and returns them ordered by
	// importance. Ranks are 1..N with no ties.
	Rank(ctx context.Context, sections []*segment.Section, query string) (*Result, error)
}
