// Package pipeline runs persona-driven section ranking over a directory of
// PDFs and writes the result document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/personarank/internal/embeddings"
	"github.com/fyrsmithlabs/personarank/internal/logging"
	"github.com/fyrsmithlabs/personarank/internal/pdf"
	"github.com/fyrsmithlabs/personarank/internal/ranking"
	"github.com/fyrsmithlabs/personarank/internal/refine"
	"github.com/fyrsmithlabs/personarank/internal/secrets"
	"github.com/fyrsmithlabs/personarank/internal/segment"
)

const instrumentationName = "github.com/fyrsmithlabs/personarank/internal/pipeline"

var (
	// ErrMissingInput indicates the persona, job or input directory could
	// not be read.
	ErrMissingInput = errors.New("missing input")

	// ErrNoSectionsExtracted indicates no document produced a section. Run
	// handles it by writing the message output.
	ErrNoSectionsExtracted = errors.New("no sections extracted")
)

// ProviderLoader opens the embedding model. It is called only when there
// is something to rank.
type ProviderLoader func(ctx context.Context) (embeddings.Provider, error)

// Options configures a Pipeline.
type Options struct {
	InputDir    string
	PersonaPath string
	JobPath     string
	OutputPath  string
	MaxSections int
	Workers     int

	Segment segment.Options
	Ranking ranking.Options
	Refine  refine.Options

	// Redactor, when set, masks secrets in ranked sections before they are refined.
	Redactor *secrets.Redactor
}

// Report summarises a finished run.
type Report struct {
	RunID      string
	Query      string
	Documents  []string
	Skipped    []string
	Sections   int
	Written    int
	Redactions int
	Degenerate bool
	Converged  bool
	OutputPath string
	Elapsed    time.Duration
}

// Pipeline wires conversion, segmentation, ranking and refinement.
type Pipeline struct {
	opts      Options
	converter pdf.Converter
	load      ProviderLoader
	logger    *logging.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithClock replaces time.Now for timestamps and elapsed time.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline.
func New(opts Options, converter pdf.Converter, load ProviderLoader, logger *logging.Logger, options ...Option) (*Pipeline, error) {
	if converter == nil {
		return nil, fmt.Errorf("converter is required")
	}
	if load == nil {
		return nil, fmt.Errorf("provider loader is required")
	}
	if opts.MaxSections < 1 {
		return nil, fmt.Errorf("max sections must be >= 1, got %d", opts.MaxSections)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if err := opts.Ranking.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking options: %w", err)
	}
	if err := opts.Refine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid refine options: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	p := &Pipeline{
		opts:      opts,
		converter: converter,
		load:      load,
		logger:    logger.Named("pipeline"),
		tracer:    otel.Tracer(instrumentationName),
		now:       time.Now,
	}
	for _, o := range options {
		o(p)
	}
	return p, nil
}

// Run processes every PDF in the input directory and writes the result.
//
// Unreadable documents are skipped. A run with no sections writes the
// message output and succeeds. Missing inputs, model failures and write
// failures abort the run.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := p.now()
	report := &Report{RunID: uuid.NewString(), OutputPath: p.opts.OutputPath, Converged: true}

	ctx = logging.WithRunID(ctx, report.RunID)
	ctx, span := p.tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(attribute.String("run.id", report.RunID)))
	defer span.End()

	err := p.run(ctx, report)
	report.Elapsed = p.now().Sub(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error(ctx, "run failed", zap.Error(err))
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("documents", len(report.Documents)),
		attribute.Int("skipped", len(report.Skipped)),
		attribute.Int("sections", report.Sections),
		attribute.Bool("degenerate", report.Degenerate),
	)
	p.logger.Info(ctx, "run complete",
		zap.Int("documents", len(report.Documents)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("sections", report.Sections),
		zap.Int("written", report.Written),
		zap.Int("redactions", report.Redactions),
		zap.Bool("degenerate", report.Degenerate),
		zap.String("output", report.OutputPath),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, report *Report) error {
	persona, job, err := p.readInputs()
	if err != nil {
		return err
	}
	report.Query = Query(persona, job)

	paths, err := pdf.Discover(p.opts.InputDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingInput, err)
	}
	report.Documents = make([]string, len(paths))
	for i, path := range paths {
		report.Documents[i] = CleanDocumentPath(filepath.Base(path))
	}
	p.logger.Info(ctx, "documents found", zap.Int("count", len(paths)))

	sections, skipped, err := p.extract(ctx, paths)
	if err != nil {
		return err
	}
	report.Skipped = skipped
	report.Sections = len(sections)

	if len(sections) == 0 {
		p.logger.Warn(ctx, "no sections extracted, writing message output", zap.Error(ErrNoSectionsExtracted))
		report.Degenerate = true
		return WriteJSON(p.opts.OutputPath, MessageOutput{Message: NoSectionsMessage})
	}

	out := &Output{
		Metadata: Metadata{
			InputDocuments:      report.Documents,
			Persona:             persona,
			JobToBeDone:         job,
			ProcessingTimestamp: FormatTimestamp(p.now()),
		},
		ExtractedSections:  []ExtractedSection{},
		SubsectionAnalysis: []SubsectionAnalysis{},
	}

	if err := p.rankAndRefine(ctx, sections, report, out); err != nil {
		return err
	}
	report.Written = len(out.ExtractedSections)

	return WriteJSON(p.opts.OutputPath, out)
}

// Query is the text the sections are ranked against.
func Query(persona, job string) string {
	return "Persona: " + persona + ". Job to be done: " + job
}

func (p *Pipeline) readInputs() (string, string, error) {
	persona, err := os.ReadFile(p.opts.PersonaPath)
	if err != nil {
		return "", "", fmt.Errorf("%w: persona: %v", ErrMissingInput, err)
	}
	job, err := os.ReadFile(p.opts.JobPath)
	if err != nil {
		return "", "", fmt.Errorf("%w: job: %v", ErrMissingInput, err)
	}
	return strings.TrimSpace(string(persona)), strings.TrimSpace(string(job)), nil
}

// extract converts and segments every document, in path order. Documents
// that fail to convert are logged and returned as skipped.
func (p *Pipeline) extract(ctx context.Context, paths []string) ([]*segment.Section, []string, error) {
	results, err := p.convertAll(ctx, paths)
	if err != nil {
		return nil, nil, err
	}

	segmenter := segment.NewSegmenter(p.opts.Segment)
	var (
		sections []*segment.Section
		skipped  []string
	)
	for i, res := range results {
		name := CleanDocumentPath(filepath.Base(paths[i]))
		docCtx := logging.WithDocument(ctx, name)

		if res.err != nil {
			p.logger.Warn(docCtx, "document skipped", zap.Error(res.err))
			skipped = append(skipped, name)
			continue
		}

		found := segmenter.Segment(name, res.doc.Markdown, res.doc.Pages)
		p.logger.Debug(docCtx, "document segmented",
			zap.Int("pages", res.doc.Pages),
			zap.Int("sections", len(found)),
			zap.Int("warnings", res.doc.Warnings),
		)
		sections = append(sections, found...)
	}
	return sections, skipped, nil
}

func (p *Pipeline) rankAndRefine(ctx context.Context, sections []*segment.Section, report *Report, out *Output) error {
	provider, err := p.load(ctx)
	if err != nil {
		return fmt.Errorf("loading embedding model: %w", err)
	}
	defer func() {
		if err := provider.Close(); err != nil {
			p.logger.Warn(ctx, "closing embedding model", zap.Error(err))
		}
	}()

	zl := p.logger.Underlying()
	ranker, err := ranking.NewHybridRanker(provider, p.opts.Ranking, zl.Named("ranking"))
	if err != nil {
		return err
	}
	refiner, err := refine.NewSentenceRefiner(provider, p.opts.Refine, zl.Named("refine"))
	if err != nil {
		return err
	}

	result, err := ranker.Rank(ctx, sections, report.Query)
	if err != nil {
		return fmt.Errorf("ranking sections: %w", err)
	}

	report.Converged = result.Converged

	top := result.Sections[:min(p.opts.MaxSections, len(result.Sections))]
	for _, s := range top {
		if err := ctx.Err(); err != nil {
			return err
		}
		s = p.redact(ctx, s, report)
		summary := refiner.Refine(ctx, s, result.QueryEmbedding)
		docCtx := logging.WithDocument(ctx, s.DocumentID)
		if summary == refine.NoContent {
			p.logger.Warn(docCtx, "section refined to no content",
				zap.String("section", s.Title),
				zap.Int("rank", s.ImportanceRank),
			)
		}
		p.logger.Trace(docCtx, "section refined",
			zap.String("section", s.Title),
			zap.Int("rank", s.ImportanceRank),
			zap.Int("words", len(strings.Fields(summary))),
		)

		out.ExtractedSections = append(out.ExtractedSections, ExtractedSection{
			Document:       CleanDocumentPath(s.DocumentID),
			SectionTitle:   s.Title,
			ImportanceRank: s.ImportanceRank,
			PageNumber:     s.PageEstimate,
		})
		out.SubsectionAnalysis = append(out.SubsectionAnalysis, SubsectionAnalysis{
			Document:    CleanDocumentPath(s.DocumentID),
			RefinedText: summary,
		})
	}
	return nil
}

// redact masks secrets in a ranked section's title and content before it
// is refined, so credentials are caught while still intact. The ranked
// section is left untouched; a redacted copy is returned.
func (p *Pipeline) redact(ctx context.Context, s *segment.Section, report *Report) *segment.Section {
	if p.opts.Redactor == nil {
		return s
	}

	cp := *s
	docCtx := logging.WithDocument(ctx, s.DocumentID)
	apply := func(field string, text *string) {
		redacted, rules := p.opts.Redactor.Redact(*text)
		if len(rules) == 0 {
			return
		}
		*text = redacted
		report.Redactions++
		p.logger.Warn(docCtx, "secrets redacted",
			zap.String("field", field),
			zap.Int("rank", s.ImportanceRank),
			zap.Strings("rules", rules),
		)
	}
	apply("section_title", &cp.Title)
	apply("content", &cp.Content)
	return &cp
}
