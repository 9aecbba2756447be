package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrEmptyInput indicates empty or nil input texts
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrModelUnavailable indicates the model failed to load or encode.
	// There is no fallback: ranking without embeddings is meaningless.
	ErrModelUnavailable = errors.New("embedding model unavailable")
)

// Default role prefixes, following the nomic-embed-text convention.
const (
	DefaultQueryPrefix    = "search_query: "
	DefaultDocumentPrefix = "search_document: "
)

// Embedder encodes text in the query or document role.
// EmbedDocuments returns one vector per input, in input order.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Provider is the interface for embedding providers.
type Provider interface {
	Embedder
	// Dimension returns the embedding dimension for the current model.
	Dimension() int
	// Close releases resources held by the provider.
	Close() error
}

// ProviderConfig holds configuration for creating an embedding provider.
type ProviderConfig struct {
	// Provider is the provider type: "fastembed" or "tei"
	Provider string
	// Model is the embedding model name
	Model string
	// ModelDir holds local model files (FastEmbed only)
	ModelDir string
	// MaxLength is the maximum input sequence length (FastEmbed only)
	MaxLength int
	// BatchSize bounds texts per model invocation (FastEmbed only)
	BatchSize int
	// BaseURL is the TEI URL (TEI only)
	BaseURL string
	// APIKey is sent as a bearer token when set (TEI only)
	APIKey string
	// Timeout bounds each TEI request (TEI only)
	Timeout time.Duration
	// QueryPrefix and DocumentPrefix tag text with its role (TEI only;
	// FastEmbed models apply their own query/passage prefixes)
	QueryPrefix    string
	DocumentPrefix string
}

// NewProvider creates an embedding provider based on the configuration.
// The returned provider records metrics through the global meter.
func NewProvider(cfg ProviderConfig, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case "fastembed", "":
		p, err = NewFastEmbedProvider(FastEmbedConfig{
			Model:     cfg.Model,
			CacheDir:  cfg.ModelDir,
			MaxLength: cfg.MaxLength,
			BatchSize: cfg.BatchSize,
		})
	case "tei":
		p, err = NewTEIProvider(TEIConfig{
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			APIKey:         cfg.APIKey,
			Timeout:        cfg.Timeout,
			QueryPrefix:    cfg.QueryPrefix,
			DocumentPrefix: cfg.DocumentPrefix,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: loading %s model %q: %v", ErrModelUnavailable, cfg.Provider, cfg.Model, err)
	}

	logger.Info("embedding model loaded",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Int("dimension", p.Dimension()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return Instrument(p, cfg.Model, NewMetrics(logger)), nil
}

// detectDimensionFromModel returns the embedding dimension for a model name.
// Falls back to 384 if model is unknown.
func detectDimensionFromModel(model string) int {
	if dim, ok := fastEmbedModelDimension(model); ok {
		return dim
	}
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "nomic"), strings.Contains(lower, "base"):
		return 768
	case strings.Contains(lower, "large"):
		return 1024
	default:
		return 384
	}
}

// checkBatch verifies a provider honoured the one-vector-per-text contract.
func checkBatch(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: got %d vectors for %d texts", ErrModelUnavailable, len(vectors), len(texts))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector at position %d", ErrModelUnavailable, i)
		}
	}
	return nil
}
