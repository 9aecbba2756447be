// Package config loads personarank run configuration.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fyrsmithlabs/personarank/internal/embeddings"
	"github.com/fyrsmithlabs/personarank/internal/graph"
	"github.com/fyrsmithlabs/personarank/internal/logging"
	"github.com/fyrsmithlabs/personarank/internal/pdf"
	"github.com/fyrsmithlabs/personarank/internal/ranking"
	"github.com/fyrsmithlabs/personarank/internal/refine"
	"github.com/fyrsmithlabs/personarank/internal/segment"
	"github.com/fyrsmithlabs/personarank/internal/telemetry"
)

// Config holds the complete run configuration.
type Config struct {
	Input      InputConfig      `koanf:"input"`
	Output     OutputConfig     `koanf:"output"`
	Segment    SegmentConfig    `koanf:"segment"`
	Ranking    RankingConfig    `koanf:"ranking"`
	Refine     RefineConfig     `koanf:"refine"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	PDF        PDFConfig        `koanf:"pdf"`
	Logging    logging.Config   `koanf:"logging"`
	Telemetry  telemetry.Config `koanf:"telemetry"`
}

// InputConfig locates the documents and the persona/job description.
type InputConfig struct {
	Dir         string `koanf:"dir"`
	PersonaFile string `koanf:"persona_file"`
	JobFile     string `koanf:"job_file"`
}

// PersonaPath returns the persona file, relative paths resolved against Dir.
func (c InputConfig) PersonaPath() string { return c.resolve(c.PersonaFile) }

// JobPath returns the job file, relative paths resolved against Dir.
func (c InputConfig) JobPath() string { return c.resolve(c.JobFile) }

func (c InputConfig) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// OutputConfig controls the result document.
type OutputConfig struct {
	Dir         string `koanf:"dir"`
	File        string `koanf:"file"`
	MaxSections int    `koanf:"max_sections"`
	// RedactSecrets masks credentials found in section titles and summaries.
	RedactSecrets bool `koanf:"redact_secrets"`
}

// Path returns the full path of the result document.
func (c OutputConfig) Path() string {
	return filepath.Join(c.Dir, c.File)
}

// SegmentConfig tunes document segmentation.
type SegmentConfig struct {
	ClampPages bool `koanf:"clamp_pages"`
}

// RankingConfig tunes hybrid ranking.
type RankingConfig struct {
	CandidateCap        int     `koanf:"candidate_cap"`
	Alpha               float64 `koanf:"alpha"`
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
	Damping             float64 `koanf:"damping"`
	Tolerance           float64 `koanf:"tolerance"`
	MaxIterations       int     `koanf:"max_iterations"`
}

// RefineConfig tunes summary refinement.
type RefineConfig struct {
	TopK     int `koanf:"top_k"`
	MaxWords int `koanf:"max_words"`
}

// EmbeddingsConfig selects and configures the embedding model.
type EmbeddingsConfig struct {
	Provider       string   `koanf:"provider"`
	Model          string   `koanf:"model"`
	ModelDir       string   `koanf:"model_dir"`
	MaxLength      int      `koanf:"max_length"`
	BatchSize      int      `koanf:"batch_size"`
	BaseURL        string   `koanf:"base_url"`
	APIKey         Secret   `koanf:"api_key"`
	Timeout        Duration `koanf:"timeout"`
	QueryPrefix    string   `koanf:"query_prefix"`
	DocumentPrefix string   `koanf:"document_prefix"`
}

// PDFConfig tunes document conversion.
type PDFConfig struct {
	Workers                  int  `koanf:"workers"`
	PlainFallback            bool `koanf:"plain_fallback"`
	ExcludeHeadersAndFooters bool `koanf:"exclude_headers_footers"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	rank := ranking.DefaultOptions()
	ref := refine.DefaultOptions()

	return &Config{
		Input: InputConfig{
			Dir:         "input",
			PersonaFile: "persona.txt",
			JobFile:     "job.txt",
		},
		Output: OutputConfig{
			Dir:         "output",
			File:        "output.json",
			MaxSections: 20,
		},
		Ranking: RankingConfig{
			CandidateCap:        rank.CandidateCap,
			Alpha:               rank.Alpha,
			SimilarityThreshold: rank.SimilarityThreshold,
			Damping:             rank.PageRank.Damping,
			Tolerance:           rank.PageRank.Tolerance,
			MaxIterations:       rank.PageRank.MaxIterations,
		},
		Refine: RefineConfig{
			TopK:     ref.TopK,
			MaxWords: ref.MaxWords,
		},
		Embeddings: EmbeddingsConfig{
			Provider:       "fastembed",
			Model:          embeddings.DefaultFastEmbedModel,
			ModelDir:       embeddings.DefaultModelDir,
			MaxLength:      512,
			BatchSize:      256,
			BaseURL:        "http://localhost:8080",
			Timeout:        Duration(30 * time.Second),
			QueryPrefix:    embeddings.DefaultQueryPrefix,
			DocumentPrefix: embeddings.DefaultDocumentPrefix,
		},
		PDF: PDFConfig{
			Workers: 1,
		},
		Logging:   *logging.NewDefaultConfig(),
		Telemetry: *telemetry.NewDefaultConfig(),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Input.Dir == "" {
		errs = append(errs, errors.New("input.dir is required"))
	}
	if c.Input.PersonaFile == "" || c.Input.JobFile == "" {
		errs = append(errs, errors.New("input.persona_file and input.job_file are required"))
	}
	if c.Output.Dir == "" || c.Output.File == "" {
		errs = append(errs, errors.New("output.dir and output.file are required"))
	}
	if c.Output.MaxSections < 1 {
		errs = append(errs, fmt.Errorf("output.max_sections must be >= 1, got %d", c.Output.MaxSections))
	}
	if err := c.RankingOptions().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ranking: %w", err))
	}
	if err := c.RefineOptions().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("refine: %w", err))
	}
	switch c.Embeddings.Provider {
	case "fastembed":
	case "tei":
		if c.Embeddings.BaseURL == "" {
			errs = append(errs, errors.New("embeddings.base_url is required for the tei provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("embeddings.provider must be 'fastembed' or 'tei', got %q", c.Embeddings.Provider))
	}
	if c.Embeddings.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("embeddings.batch_size must be >= 0, got %d", c.Embeddings.BatchSize))
	}
	if c.PDF.Workers < 1 {
		errs = append(errs, fmt.Errorf("pdf.workers must be >= 1, got %d", c.PDF.Workers))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

// SegmentOptions returns the segmenter options.
func (c *Config) SegmentOptions() segment.Options {
	return segment.Options{ClampPages: c.Segment.ClampPages}
}

// RankingOptions returns the ranker options.
func (c *Config) RankingOptions() ranking.Options {
	return ranking.Options{
		CandidateCap:        c.Ranking.CandidateCap,
		Alpha:               c.Ranking.Alpha,
		SimilarityThreshold: c.Ranking.SimilarityThreshold,
		PageRank: graph.PageRankOptions{
			Damping:       c.Ranking.Damping,
			Tolerance:     c.Ranking.Tolerance,
			MaxIterations: c.Ranking.MaxIterations,
		},
	}
}

// RefineOptions returns the refiner options.
func (c *Config) RefineOptions() refine.Options {
	return refine.Options{TopK: c.Refine.TopK, MaxWords: c.Refine.MaxWords}
}

// ProviderConfig returns the embedding provider configuration.
func (c *Config) ProviderConfig() embeddings.ProviderConfig {
	e := c.Embeddings
	return embeddings.ProviderConfig{
		Provider:       e.Provider,
		Model:          e.Model,
		ModelDir:       e.ModelDir,
		MaxLength:      e.MaxLength,
		BatchSize:      e.BatchSize,
		BaseURL:        e.BaseURL,
		APIKey:         e.APIKey.Value(),
		Timeout:        e.Timeout.Duration(),
		QueryPrefix:    e.QueryPrefix,
		DocumentPrefix: e.DocumentPrefix,
	}
}

// PDFOptions returns the converter options.
func (c *Config) PDFOptions() pdf.Options {
	return pdf.Options{
		PlainFallback:            c.PDF.PlainFallback,
		ExcludeHeadersAndFooters: c.PDF.ExcludeHeadersAndFooters,
	}
}
