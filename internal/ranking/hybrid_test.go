package ranking

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/personarank/internal/embeddings"
	"github.com/fyrsmithlabs/personarank/internal/embeddings/embeddingstest"
	"github.com/fyrsmithlabs/personarank/internal/segment"
)

const query = "Persona: X. Job to be done: Y"

func newSections(titles ...string) []*segment.Section {
	out := make([]*segment.Section, len(titles))
	for i, title := range titles {
		out[i] = &segment.Section{
			Index:        i,
			DocumentID:   "doc.pdf",
			PageEstimate: 1,
			Title:        title,
			Level:        1,
			Content:      "x",
		}
	}
	return out
}

func newRanker(t *testing.T, p embeddings.Embedder, opts Options) *HybridRanker {
	t.Helper()
	r, err := NewHybridRanker(p, opts, zap.NewNop())
	require.NoError(t, err)
	return r
}

func ranks(sections []*segment.Section) []int {
	out := make([]int, len(sections))
	for i, s := range sections {
		out[i] = s.ImportanceRank
	}
	return out
}

func assertPermutation(t *testing.T, sections []*segment.Section) {
	t.Helper()
	seen := make(map[int]bool)
	for _, s := range sections {
		require.True(t, s.Ranked())
		assert.False(t, seen[s.ImportanceRank], "duplicate rank %d", s.ImportanceRank)
		seen[s.ImportanceRank] = true
	}
	for r := 1; r <= len(sections); r++ {
		assert.True(t, seen[r], "missing rank %d", r)
	}
}

func TestNewHybridRanker(t *testing.T) {
	_, err := NewHybridRanker(nil, DefaultOptions(), nil)
	assert.Error(t, err)

	opts := DefaultOptions()
	opts.Alpha = 1.5
	_, err = NewHybridRanker(embeddingstest.New(nil), opts, nil)
	assert.Error(t, err)

	r, err := NewHybridRanker(embeddingstest.New(nil), DefaultOptions(), nil)
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero cap", func(o *Options) { o.CandidateCap = 0 }},
		{"negative alpha", func(o *Options) { o.Alpha = -0.1 }},
		{"threshold above one", func(o *Options) { o.SimilarityThreshold = 1.1 }},
		{"negative threshold", func(o *Options) { o.SimilarityThreshold = -0.5 }},
		{"damping one", func(o *Options) { o.PageRank.Damping = 1 }},
		{"zero tolerance", func(o *Options) { o.PageRank.Tolerance = 0 }},
		{"zero iterations", func(o *Options) { o.PageRank.MaxIterations = 0 }},
	}
	assert.NoError(t, DefaultOptions().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			assert.Error(t, o.Validate())
		})
	}
}

func TestHybridRanker_Empty(t *testing.T) {
	p := embeddingstest.New(nil)
	res, err := newRanker(t, p, DefaultOptions()).Rank(context.Background(), nil, query)
	require.NoError(t, err)
	assert.Empty(t, res.Sections)
	assert.Zero(t, p.QueryCalls)
	assert.Zero(t, p.DocumentCalls)
}

func TestHybridRanker_SingleSectionSkipsGraph(t *testing.T) {
	sections := newSections("Only")
	p := embeddingstest.New(map[string][]float32{
		query:     {1, 0},
		"Only. x": {1, 1},
	})

	res, err := newRanker(t, p, DefaultOptions()).Rank(context.Background(), sections, query)
	require.NoError(t, err)

	require.Len(t, res.Sections, 1)
	s := res.Sections[0]
	assert.True(t, res.GraphSkipped)
	assert.Equal(t, 1, s.ImportanceRank)
	assert.Nil(t, s.PageRankScore)
	require.NotNil(t, s.SemanticScore)
	assert.Equal(t, *s.SemanticScore, *s.FinalScore)
	assert.InDelta(t, 0.7071, s.Semantic(), 1e-4)
}

func TestHybridRanker_SelfSimilarityIsOne(t *testing.T) {
	sections := newSections("Same", "Other")
	p := embeddingstest.New(map[string][]float32{
		query:      {0.3, 0.4, 0.5},
		"Same. x":  {0.3, 0.4, 0.5},
		"Other. x": {0, 0, 1},
	})

	res, err := newRanker(t, p, DefaultOptions()).Rank(context.Background(), sections, query)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sections[0].Semantic(), 1e-6)
	assert.Equal(t, sections[0], res.Sections[0])
}

func TestHybridRanker_SingleBatch(t *testing.T) {
	sections := newSections("a", "b", "c", "d", "e")
	p := embeddingstest.New(nil)

	_, err := newRanker(t, p, DefaultOptions()).Rank(context.Background(), sections, query)
	require.NoError(t, err)
	assert.Equal(t, 1, p.QueryCalls)
	assert.Equal(t, 1, p.DocumentCalls)
	require.Len(t, p.Batches, 1)
	assert.Equal(t, []string{"a. x", "b. x", "c. x", "d. x", "e. x"}, p.Batches[0])
}

func TestHybridRanker_RanksArePermutation(t *testing.T) {
	for _, n := range []int{2, 3, 10, 60} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			titles := make([]string, n)
			for i := range titles {
				titles[i] = fmt.Sprintf("section %d about topic %d", i, i%4)
			}
			sections := newSections(titles...)

			res, err := newRanker(t, embeddingstest.New(nil), DefaultOptions()).Rank(context.Background(), sections, "topic 1 section")
			require.NoError(t, err)
			require.Len(t, res.Sections, n)
			assertPermutation(t, sections)
			for i, s := range res.Sections {
				assert.Equal(t, i+1, s.ImportanceRank)
			}
			assert.Equal(t, min(n, DefaultCandidateCap), res.Candidates)
		})
	}
}

func TestHybridRanker_EdgelessGraphUsesUniformScores(t *testing.T) {
	// Near-identity similarity: no pair exceeds the threshold.
	sections := newSections("a", "b", "c", "d")
	p := embeddingstest.New(map[string][]float32{
		query:  {0.4, 0.3, 0.2, 0.1},
		"a. x": {1, 0, 0, 0},
		"b. x": {0, 1, 0, 0},
		"c. x": {0, 0, 1, 0},
		"d. x": {0, 0, 0, 1},
	})

	res, err := newRanker(t, p, DefaultOptions()).Rank(context.Background(), sections, query)
	require.NoError(t, err)

	assert.False(t, res.GraphSkipped)
	assert.True(t, res.Converged)
	assert.Equal(t, 4, res.Candidates)
	assert.Zero(t, res.Edges)
	assert.Equal(t, []int{1, 2, 3, 4}, ranks(sections))
	for _, s := range sections {
		require.NotNil(t, s.PageRankScore)
		assert.Equal(t, 1.0, *s.PageRankScore)
		assert.InDelta(t, DefaultAlpha*s.Semantic()+(1-DefaultAlpha), s.Final(), 1e-12)
	}
}

func TestHybridRanker_NonCandidatesKeepSemanticScore(t *testing.T) {
	sections := newSections("a", "b", "c", "d")
	p := embeddingstest.New(map[string][]float32{
		query:  {1, 0},
		"a. x": {1, 0.1},
		"b. x": {1, 0.2},
		"c. x": {1, 2},
		"d. x": {1, 3},
	})
	opts := DefaultOptions()
	opts.CandidateCap = 2

	res, err := newRanker(t, p, opts).Rank(context.Background(), sections, query)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Candidates)

	for _, s := range sections[2:] {
		assert.Nil(t, s.PageRankScore, s.Title)
		assert.Equal(t, s.Semantic(), s.Final(), s.Title)
	}
	for _, s := range sections[:2] {
		assert.NotNil(t, s.PageRankScore, s.Title)
	}
	assertPermutation(t, sections)
}

func TestHybridRanker_GraphPromotesCorroboratedSections(t *testing.T) {
	// a, b, c agree with each other; d matches the query slightly better
	// but nothing corroborates it.
	sections := newSections("d", "a", "b", "c")
	p := embeddingstest.New(map[string][]float32{
		query:  {1, 0, 0},
		"a. x": {0.8, 0.6, 0},
		"b. x": {0.8, 0.6, 0},
		"c. x": {0.8, 0.6, 0},
		"d. x": {0.85, 0, 0.526783},
	})

	res, err := newRanker(t, p, DefaultOptions()).Rank(context.Background(), sections, query)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Edges)
	assert.Greater(t, sections[0].Semantic(), sections[1].Semantic())
	assert.Equal(t, []string{"a", "b", "c", "d"}, []string{
		res.Sections[0].Title, res.Sections[1].Title, res.Sections[2].Title, res.Sections[3].Title,
	})
	assert.InDelta(t, 0.88, sections[1].Final(), 1e-4)
	assert.InDelta(t, 0.6*0.85+0.4*0.15, sections[0].Final(), 1e-3)
}

func TestHybridRanker_TiesFollowInsertionOrder(t *testing.T) {
	// Identical content must not collapse onto one section.
	sections := newSections("same", "same", "same")
	p := embeddingstest.New(map[string][]float32{
		query:     {1, 0},
		"same. x": {1, 1},
	})

	res, err := newRanker(t, p, DefaultOptions()).Rank(context.Background(), sections, query)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ranks(sections))
	for i, s := range res.Sections {
		assert.Equal(t, i, s.Index)
	}
}

func TestHybridRanker_Deterministic(t *testing.T) {
	titles := []string{"beaches in nice", "nice old town", "marseille port", "food in nice", "museum guide", "port food"}
	run := func() ([]float64, []int) {
		sections := newSections(titles...)
		_, err := newRanker(t, embeddingstest.New(nil), DefaultOptions()).Rank(context.Background(), sections, "nice food and beaches")
		require.NoError(t, err)
		finals := make([]float64, len(sections))
		for i, s := range sections {
			finals[i] = s.Final()
		}
		return finals, ranks(sections)
	}

	f1, r1 := run()
	f2, r2 := run()
	assert.Equal(t, f1, f2)
	assert.Equal(t, r1, r2)
}

func TestHybridRanker_NonConvergenceFallsBack(t *testing.T) {
	sections := newSections("a", "b", "c")
	p := embeddingstest.New(map[string][]float32{
		query:  {1, 0},
		"a. x": {1, 0.1},
		"b. x": {1, 0.2},
		"c. x": {1, 0.9},
	})
	opts := DefaultOptions()
	opts.PageRank.MaxIterations = 1

	res, err := newRanker(t, p, opts).Rank(context.Background(), sections, query)
	require.NoError(t, err)
	assert.False(t, res.Converged)
	for _, s := range sections {
		assert.Equal(t, 1.0, *s.PageRankScore)
	}
	assertPermutation(t, sections)
}

func TestHybridRanker_EmbeddingFailureIsFatal(t *testing.T) {
	sections := newSections("a", "b")
	_, err := newRanker(t, embeddingstest.Failing(), DefaultOptions()).Rank(context.Background(), sections, query)
	require.Error(t, err)
	assert.ErrorIs(t, err, embeddings.ErrModelUnavailable)
	for _, s := range sections {
		assert.Zero(t, s.ImportanceRank)
	}
}
