package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TEIConfig holds configuration for a text-embeddings-inference server.
type TEIConfig struct {
	// BaseURL is the base URL for the embedding API
	BaseURL string

	// Model is the embedding model served, used for dimension detection and metrics
	Model string

	// APIKey is the API key (optional for TEI)
	APIKey string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration

	// QueryPrefix and DocumentPrefix tag each text with its role.
	// Empty values fall back to the nomic-embed-text convention.
	QueryPrefix    string
	DocumentPrefix string
}

// Validate validates the configuration.
func (c TEIConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	return nil
}

// TEIProvider encodes text through a TEI /embed endpoint.
type TEIProvider struct {
	config    TEIConfig
	client    *http.Client
	dimension int
}

// NewTEIProvider creates a TEI provider. No request is made until the
// first encode.
func NewTEIProvider(config TEIConfig) (*TEIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if config.QueryPrefix == "" {
		config.QueryPrefix = DefaultQueryPrefix
	}
	if config.DocumentPrefix == "" {
		config.DocumentPrefix = DefaultDocumentPrefix
	}

	return &TEIProvider{
		config:    config,
		client:    &http.Client{Timeout: config.Timeout},
		dimension: detectDimensionFromModel(config.Model),
	}, nil
}

// teiRequest is the request body for TEI embed endpoint.
type teiRequest struct {
	Inputs   []string `json:"inputs"`
	Truncate bool     `json:"truncate"`
}

// EmbedDocuments encodes texts in the document role as one request.
func (p *TEIProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = p.config.DocumentPrefix + t
	}

	vectors, err := p.embed(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if err := checkBatch(texts, vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

// EmbedQuery encodes text in the query role.
func (p *TEIProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}

	vectors, err := p.embed(ctx, []string{p.config.QueryPrefix + text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrModelUnavailable)
	}
	return vectors[0], nil
}

func (p *TEIProvider) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	body, err := json.Marshal(teiRequest{Inputs: inputs, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrModelUnavailable, resp.StatusCode, string(respBody))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrModelUnavailable, err)
	}
	return vectors, nil
}

// Dimension returns the embedding dimension based on the configured model.
func (p *TEIProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op for TEI since it uses HTTP.
func (p *TEIProvider) Close() error {
	return nil
}
