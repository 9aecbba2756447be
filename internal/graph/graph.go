// Package graph builds similarity graphs over embeddings and scores their
// nodes by PageRank centrality.
package graph

import "github.com/fyrsmithlabs/personarank/internal/similarity"

// DefaultThreshold is the similarity an edge must exceed.
const DefaultThreshold = 0.75

// Edge is a weighted link to another node.
type Edge struct {
	To     int
	Weight float64
}

// SimilarityGraph is an undirected weighted graph. Nodes are positions in
// the vector slice it was built from.
type SimilarityGraph struct {
	adj   [][]Edge
	edges int
}

// Build links every pair of distinct vectors whose cosine similarity
// exceeds threshold, weighting the edge by that similarity. Pairs with a
// non-positive similarity never get an edge, whatever the threshold, so
// transition weights stay positive.
func Build(vectors [][]float32, threshold float64) *SimilarityGraph {
	g := &SimilarityGraph{adj: make([][]Edge, len(vectors))}
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sim := similarity.Cosine(vectors[i], vectors[j])
			if sim > threshold && sim > 0 {
				g.adj[i] = append(g.adj[i], Edge{To: j, Weight: sim})
				g.adj[j] = append(g.adj[j], Edge{To: i, Weight: sim})
				g.edges++
			}
		}
	}
	return g
}

// Len returns the number of nodes.
func (g *SimilarityGraph) Len() int {
	return len(g.adj)
}

// EdgeCount returns the number of undirected edges.
func (g *SimilarityGraph) EdgeCount() int {
	return g.edges
}

// Neighbors returns the edges of node i.
func (g *SimilarityGraph) Neighbors(i int) []Edge {
	return g.adj[i]
}
