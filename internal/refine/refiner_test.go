package refine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fyrsmithlabs/personarank/internal/embeddings/embeddingstest"
	"github.com/fyrsmithlabs/personarank/internal/segment"
)

const (
	harbour = "The old harbour district has narrow lanes lined with cafes, bakeries and small galleries"
	trails  = "Coastal hiking trails offer sweeping views of the turquoise sea and hidden rocky coves"
	markets = "Evening markets in the main square sell regional cheese, local wine and fresh seafood"
)

var query = []float32{1, 0}

func newRefiner(t *testing.T, p *embeddingstest.Provider, opts Options) *SentenceRefiner {
	t.Helper()
	r, err := NewSentenceRefiner(p, opts, zaptest.NewLogger(t))
	require.NoError(t, err)
	return r
}

func section(content string) *segment.Section {
	return &segment.Section{DocumentID: "nice.pdf", Title: "Things to do", Content: content}
}

func threeChunkProvider() *embeddingstest.Provider {
	return embeddingstest.New(map[string][]float32{
		harbour: {0, 1},
		trails:  {1, 0},
		markets: {0.7, 0.7},
	})
}

func TestSentenceRefiner_OrdersByDescendingSimilarity(t *testing.T) {
	p := threeChunkProvider()
	r := newRefiner(t, p, DefaultOptions())

	got := r.Refine(context.Background(), section(harbour+". "+trails+". "+markets+"."), query)

	assert.Equal(t, trails+". "+markets+". "+harbour+".", got)
}

func TestSentenceRefiner_EmbedsChunksInOneBatch(t *testing.T) {
	p := threeChunkProvider()
	r := newRefiner(t, p, DefaultOptions())

	r.Refine(context.Background(), section(harbour+". "+trails+". "+markets), query)

	assert.Equal(t, 1, p.DocumentCalls)
	assert.Zero(t, p.QueryCalls)
	require.Len(t, p.Batches, 1)
	assert.Equal(t, []string{harbour, trails, markets}, p.Batches[0])
}

func TestSentenceRefiner_TopK(t *testing.T) {
	r := newRefiner(t, threeChunkProvider(), Options{TopK: 2, MaxWords: DefaultMaxWords})

	got := r.Refine(context.Background(), section(harbour+". "+trails+". "+markets), query)

	assert.Equal(t, trails+". "+markets+".", got)
}

func TestSentenceRefiner_WordBudget(t *testing.T) {
	r := newRefiner(t, threeChunkProvider(), Options{TopK: 5, MaxWords: 20})

	got := r.Refine(context.Background(), section(harbour+". "+trails+". "+markets), query)

	// Each chunk is 14 words, so only the best one fits.
	assert.Equal(t, trails+".", got)
	assert.LessOrEqual(t, len(strings.Fields(got)), 20)
}

func TestSentenceRefiner_WordBudgetTruncatesLongSentence(t *testing.T) {
	r := newRefiner(t, threeChunkProvider(), Options{TopK: 1, MaxWords: 3})

	got := r.Refine(context.Background(), section(trails), query)

	assert.Equal(t, "Coastal hiking trails.", got)
}

func TestSentenceRefiner_Sentinel(t *testing.T) {
	tests := []struct {
		name     string
		provider *embeddingstest.Provider
		content  string
	}{
		{name: "empty content", provider: embeddingstest.New(nil), content: ""},
		{name: "whitespace content", provider: embeddingstest.New(nil), content: "  \n "},
		{name: "provider failure", provider: embeddingstest.Failing(), content: harbour},
		{name: "nothing left after cleaning", provider: embeddingstest.New(nil), content: "https://example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRefiner(t, tt.provider, DefaultOptions())
			assert.Equal(t, NoContent, r.Refine(context.Background(), section(tt.content), query))
		})
	}
}

func TestSentenceRefiner_PeriodsOnlyReturnsContent(t *testing.T) {
	p := embeddingstest.New(nil)
	r := newRefiner(t, p, DefaultOptions())

	assert.Equal(t, ". . .", r.Refine(context.Background(), section(". . ."), query))
	assert.Zero(t, p.DocumentCalls)
}

func TestSentenceRefiner_PeriodsOnlyWithinWordBudget(t *testing.T) {
	p := embeddingstest.New(nil)
	r := newRefiner(t, p, DefaultOptions())

	content := strings.Repeat(". ", 500)
	got := r.Refine(context.Background(), section(content), query)
	assert.LessOrEqual(t, len(strings.Fields(got)), DefaultMaxWords)
	assert.NotEmpty(t, got)
	assert.Zero(t, p.DocumentCalls)

	r = newRefiner(t, p, Options{TopK: DefaultTopK, MaxWords: 3})
	assert.Len(t, strings.Fields(r.Refine(context.Background(), section(". . . . . ."), query)), 3)
}

func TestSentenceRefiner_CleansMarkdown(t *testing.T) {
	p := embeddingstest.New(nil)
	r := newRefiner(t, p, DefaultOptions())

	got := r.Refine(context.Background(), section("Try the **socca** at [the market](https://example.com/socca) near the port"), query)

	assert.Equal(t, "Try the socca at [the market] near the port.", got)
}

func TestSentenceRefiner_ResultEndsWithPeriod(t *testing.T) {
	// Every sentence is too short for the filter, so cleaning leaves the
	// text as is; the summary still ends with a period.
	r := newRefiner(t, embeddingstest.New(nil), DefaultOptions())

	got := r.Refine(context.Background(), section("Go now"), query)

	assert.Equal(t, "Go now.", got)
}

func TestNewSentenceRefiner_Validation(t *testing.T) {
	_, err := NewSentenceRefiner(nil, DefaultOptions(), nil)
	assert.Error(t, err)

	_, err = NewSentenceRefiner(embeddingstest.New(nil), Options{TopK: 0, MaxWords: 10}, nil)
	assert.Error(t, err)

	_, err = NewSentenceRefiner(embeddingstest.New(nil), Options{TopK: 1, MaxWords: 0}, nil)
	assert.Error(t, err)

	r, err := NewSentenceRefiner(embeddingstest.New(nil), DefaultOptions(), nil)
	require.NoError(t, err)
	assert.NotNil(t, r.logger)
}
