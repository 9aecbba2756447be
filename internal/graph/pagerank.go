package graph

import "math"

// PageRank defaults.
const (
	DefaultDamping       = 0.85
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 100
)

// PageRankOptions configures the power iteration.
type PageRankOptions struct {
	Damping       float64
	Tolerance     float64
	MaxIterations int
}

// DefaultPageRankOptions returns the standard damping, tolerance and cap.
func DefaultPageRankOptions() PageRankOptions {
	return PageRankOptions{
		Damping:       DefaultDamping,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
	}
}

// PageRank scores each node by weighted PageRank using power iteration.
//
// Each node passes its score to neighbours in proportion to edge weight.
// Nodes without edges spread theirs uniformly. Iteration stops once the L1
// change drops below n*Tolerance. If that never happens within
// MaxIterations, every node gets 1/n and converged is false.
func PageRank(g *SimilarityGraph, opts PageRankOptions) (scores []float64, converged bool) {
	n := g.Len()
	if n == 0 {
		return nil, true
	}
	if g.EdgeCount() == 0 {
		// Every node is dangling: the stationary distribution is uniform.
		return Uniform(n), true
	}

	outWeight := make([]float64, n)
	for i := 0; i < n; i++ {
		for _, e := range g.adj[i] {
			outWeight[i] += e.Weight
		}
	}

	d := opts.Damping
	uniform := 1 / float64(n)
	x := Uniform(n)
	next := make([]float64, n)

	for iter := 0; iter < opts.MaxIterations; iter++ {
		var danglingSum float64
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				danglingSum += x[i]
			}
		}

		base := d*danglingSum*uniform + (1-d)*uniform
		for i := range next {
			next[i] = base
		}
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				continue
			}
			share := d * x[i] / outWeight[i]
			for _, e := range g.adj[i] {
				next[e.To] += share * e.Weight
			}
		}

		var delta float64
		for i := range x {
			delta += math.Abs(next[i] - x[i])
		}
		x, next = next, x
		if delta < float64(n)*opts.Tolerance {
			return x, true
		}
	}

	return Uniform(n), false
}

// Uniform returns n scores of 1/n.
func Uniform(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 / float64(n)
	}
	return out
}

// NormalizeByMax divides every score by the largest. If the largest is not
// positive, every score becomes 0.
func NormalizeByMax(scores []float64) []float64 {
	out := make([]float64, len(scores))
	var maxScore float64
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore <= 0 {
		return out
	}
	for i, s := range scores {
		out[i] = s / maxScore
	}
	return out
}
