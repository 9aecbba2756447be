package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	vectors := [][]float32{
		{1, 0},
		{1, 0.1},
		{0, 1},
		{1, 0},
	}
	g := Build(vectors, DefaultThreshold)

	require.Equal(t, 4, g.Len())
	// 0-1, 0-3, 1-3 are near-parallel; 2 is orthogonal to all.
	assert.Equal(t, 3, g.EdgeCount())
	assert.Empty(t, g.Neighbors(2))

	for i := 0; i < g.Len(); i++ {
		for _, e := range g.Neighbors(i) {
			assert.NotEqual(t, i, e.To, "self loop on %d", i)
			assert.Greater(t, e.Weight, DefaultThreshold)

			var back bool
			for _, r := range g.Neighbors(e.To) {
				if r.To == i && r.Weight == e.Weight {
					back = true
				}
			}
			assert.True(t, back, "edge %d-%d is not symmetric", i, e.To)
		}
	}
}

func TestBuild_ThresholdIsStrict(t *testing.T) {
	// Identical vectors have similarity 1, which does not exceed 1.
	g := Build([][]float32{{1, 1}, {1, 1}}, 1.0)
	assert.Equal(t, 0, g.EdgeCount())

	g = Build([][]float32{{1, 1}, {1, 1}}, 0.99)
	assert.Equal(t, 1, g.EdgeCount())
}

func TestBuild_Trivial(t *testing.T) {
	empty := Build(nil, DefaultThreshold)
	assert.Equal(t, 0, empty.Len())

	single := Build([][]float32{{1, 2, 3}}, DefaultThreshold)
	assert.Equal(t, 1, single.Len())
	assert.Equal(t, 0, single.EdgeCount())
}

func TestBuild_NegativeThresholdKeepsWeightsPositive(t *testing.T) {
	vectors := [][]float32{{1, 0}, {-0.3, 1}, {0, 1}}
	g := Build(vectors, -0.5)

	// 0-1 is negatively similar and 0-2 orthogonal; only 1-2 links.
	assert.Equal(t, 1, g.EdgeCount())
	for i := 0; i < g.Len(); i++ {
		for _, e := range g.Neighbors(i) {
			assert.Positive(t, e.Weight)
		}
	}

	scores, converged := PageRank(g, DefaultPageRankOptions())
	require.True(t, converged)
	assert.InDelta(t, 1.0, sum(scores), 1e-6)
	for i, s := range NormalizeByMax(scores) {
		assert.GreaterOrEqual(t, s, 0.0, "node %d", i)
		assert.LessOrEqual(t, s, 1.0, "node %d", i)
	}
}
