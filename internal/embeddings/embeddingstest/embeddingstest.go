// Package embeddingstest provides deterministic embedding providers for tests.
package embeddingstest

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/fyrsmithlabs/personarank/internal/embeddings"
)

// Provider returns fixed vectors for known texts and a bag-of-words hash
// vector for anything else. It records every call.
type Provider struct {
	mu sync.Mutex

	// Vectors maps raw text (without role prefix) to its vector.
	Vectors map[string][]float32
	// Queries overrides Vectors for query-role lookups.
	Queries map[string][]float32
	// Dim is the size of hashed fallback vectors. Defaults to 64.
	Dim int
	// Err, when set, fails every call with it.
	Err error

	QueryCalls    int
	DocumentCalls int
	Batches       [][]string
}

// New creates a Provider with the given known vectors.
func New(vectors map[string][]float32) *Provider {
	return &Provider{Vectors: vectors}
}

// Failing creates a Provider whose every call fails as an unavailable model.
func Failing() *Provider {
	return &Provider{Err: fmt.Errorf("%w: test model offline", embeddings.ErrModelUnavailable)}
}

// EmbedDocuments implements embeddings.Embedder.
func (p *Provider) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.DocumentCalls++
	p.Batches = append(p.Batches, append([]string(nil), texts...))
	if p.Err != nil {
		return nil, p.Err
	}
	if len(texts) == 0 {
		return nil, embeddings.ErrEmptyInput
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = p.lookup(nil, text)
	}
	return out, nil
}

// EmbedQuery implements embeddings.Embedder.
func (p *Provider) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.QueryCalls++
	if p.Err != nil {
		return nil, p.Err
	}
	if text == "" {
		return nil, embeddings.ErrEmptyInput
	}
	return p.lookup(p.Queries, text), nil
}

// Dimension implements embeddings.Provider.
func (p *Provider) Dimension() int {
	return p.dim()
}

// Close implements embeddings.Provider.
func (p *Provider) Close() error {
	return nil
}

func (p *Provider) dim() int {
	if p.Dim > 0 {
		return p.Dim
	}
	return 64
}

func (p *Provider) lookup(override map[string][]float32, text string) []float32 {
	if v, ok := override[text]; ok {
		return append([]float32(nil), v...)
	}
	if v, ok := p.Vectors[text]; ok {
		return append([]float32(nil), v...)
	}
	return Hash(text, p.dim())
}

// Hash embeds text as a bag of lowercased words hashed into dim buckets.
// Texts sharing words get positive cosine similarity.
func Hash(text string, dim int) []float32 {
	v := make([]float32, dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%uint32(dim)]++
	}
	if len(words) == 0 {
		v[0] = 1
	}
	return v
}

var _ embeddings.Provider = (*Provider)(nil)
