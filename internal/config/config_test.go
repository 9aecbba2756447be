package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "input", cfg.Input.Dir)
	assert.Equal(t, filepath.Join("input", "persona.txt"), cfg.Input.PersonaPath())
	assert.Equal(t, filepath.Join("input", "job.txt"), cfg.Input.JobPath())
	assert.Equal(t, filepath.Join("output", "output.json"), cfg.Output.Path())
	assert.Equal(t, 20, cfg.Output.MaxSections)
	assert.Equal(t, 50, cfg.Ranking.CandidateCap)
	assert.Equal(t, 0.6, cfg.Ranking.Alpha)
	assert.Equal(t, 0.75, cfg.Ranking.SimilarityThreshold)
	assert.Equal(t, 0.85, cfg.Ranking.Damping)
	assert.Equal(t, 1e-6, cfg.Ranking.Tolerance)
	assert.Equal(t, 100, cfg.Ranking.MaxIterations)
	assert.Equal(t, 5, cfg.Refine.TopK)
	assert.Equal(t, 400, cfg.Refine.MaxWords)
	assert.Equal(t, "fastembed", cfg.Embeddings.Provider)
	assert.Equal(t, "search_query: ", cfg.Embeddings.QueryPrefix)
	assert.Equal(t, "search_document: ", cfg.Embeddings.DocumentPrefix)
	assert.Equal(t, 1, cfg.PDF.Workers)
	assert.False(t, cfg.PDF.PlainFallback)
	assert.False(t, cfg.Segment.ClampPages)
	assert.False(t, cfg.Telemetry.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestInputConfig_AbsolutePathsKept(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "persona.txt")
	in := InputConfig{Dir: "input", PersonaFile: abs, JobFile: "job.txt"}

	assert.Equal(t, abs, in.PersonaPath())
	assert.Equal(t, filepath.Join("input", "job.txt"), in.JobPath())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "alpha zero is valid", mutate: func(c *Config) { c.Ranking.Alpha = 0 }},
		{name: "alpha one is valid", mutate: func(c *Config) { c.Ranking.Alpha = 1 }},
		{name: "tei with url", mutate: func(c *Config) { c.Embeddings.Provider = "tei" }},
		{name: "missing input dir", mutate: func(c *Config) { c.Input.Dir = "" }, wantErr: "input.dir"},
		{name: "missing job file", mutate: func(c *Config) { c.Input.JobFile = "" }, wantErr: "input.job_file"},
		{name: "missing output file", mutate: func(c *Config) { c.Output.File = "" }, wantErr: "output.file"},
		{name: "zero max sections", mutate: func(c *Config) { c.Output.MaxSections = 0 }, wantErr: "output.max_sections"},
		{name: "alpha out of range", mutate: func(c *Config) { c.Ranking.Alpha = 1.5 }, wantErr: "alpha"},
		{name: "threshold out of range", mutate: func(c *Config) { c.Ranking.SimilarityThreshold = 2 }, wantErr: "similarity threshold"},
		{name: "negative threshold", mutate: func(c *Config) { c.Ranking.SimilarityThreshold = -0.5 }, wantErr: "similarity threshold"},
		{name: "damping of one", mutate: func(c *Config) { c.Ranking.Damping = 1 }, wantErr: "damping"},
		{name: "zero tolerance", mutate: func(c *Config) { c.Ranking.Tolerance = 0 }, wantErr: "tolerance"},
		{name: "zero iterations", mutate: func(c *Config) { c.Ranking.MaxIterations = 0 }, wantErr: "max iterations"},
		{name: "zero candidate cap", mutate: func(c *Config) { c.Ranking.CandidateCap = 0 }, wantErr: "candidate cap"},
		{name: "zero top k", mutate: func(c *Config) { c.Refine.TopK = 0 }, wantErr: "top k"},
		{name: "zero max words", mutate: func(c *Config) { c.Refine.MaxWords = 0 }, wantErr: "max words"},
		{name: "unknown provider", mutate: func(c *Config) { c.Embeddings.Provider = "openai" }, wantErr: "embeddings.provider"},
		{name: "tei without url", mutate: func(c *Config) { c.Embeddings.Provider = "tei"; c.Embeddings.BaseURL = "" }, wantErr: "base_url"},
		{name: "zero workers", mutate: func(c *Config) { c.PDF.Workers = 0 }, wantErr: "pdf.workers"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging"},
		{name: "bad telemetry", mutate: func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.Endpoint = "" }, wantErr: "telemetry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Conversions(t *testing.T) {
	cfg := Default()
	cfg.Segment.ClampPages = true
	cfg.PDF.PlainFallback = true
	cfg.Embeddings.APIKey = "s3cret"
	cfg.Embeddings.Timeout = Duration(5 * time.Second)

	assert.True(t, cfg.SegmentOptions().ClampPages)
	assert.True(t, cfg.PDFOptions().PlainFallback)

	rank := cfg.RankingOptions()
	assert.Equal(t, 50, rank.CandidateCap)
	assert.Equal(t, 0.85, rank.PageRank.Damping)
	assert.Equal(t, 100, rank.PageRank.MaxIterations)

	ref := cfg.RefineOptions()
	assert.Equal(t, 5, ref.TopK)
	assert.Equal(t, 400, ref.MaxWords)

	pc := cfg.ProviderConfig()
	assert.Equal(t, "s3cret", pc.APIKey)
	assert.Equal(t, 5*time.Second, pc.Timeout)
	assert.Equal(t, "fastembed", pc.Provider)
}
