// Package main implements the personarank CLI, which ranks the sections of
// a PDF collection against a persona and a job to be done.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/personarank/internal/config"
	"github.com/fyrsmithlabs/personarank/internal/embeddings"
	"github.com/fyrsmithlabs/personarank/internal/logging"
	"github.com/fyrsmithlabs/personarank/internal/pdf"
	"github.com/fyrsmithlabs/personarank/internal/pipeline"
	"github.com/fyrsmithlabs/personarank/internal/secrets"
	"github.com/fyrsmithlabs/personarank/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, stopping", sig)
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// overrides are command-line values applied on top of loaded config.
type overrides struct {
	configPath  string
	envFile     string
	inputDir    string
	outputDir   string
	maxSections int
	workers     int
}

func (o *overrides) apply(cfg *config.Config) error {
	if o.inputDir != "" {
		cfg.Input.Dir = o.inputDir
	}
	if o.outputDir != "" {
		cfg.Output.Dir = o.outputDir
	}
	if o.maxSections > 0 {
		cfg.Output.MaxSections = o.maxSections
	}
	if o.workers > 0 {
		cfg.PDF.Workers = o.workers
	}
	return cfg.Validate()
}

func newRootCmd() *cobra.Command {
	var o overrides

	root := &cobra.Command{
		Use:   "personarank",
		Short: "Rank PDF sections for a persona and a job to be done",
		Long: `personarank reads every PDF in the input directory together with
persona.txt and job.txt, ranks the document sections by relevance to the
persona's task and writes the top sections with refined summaries to
output.json.

Configuration comes from an optional YAML file and environment variables
such as INPUT_DIR, OUTPUT_DIR or EMBEDDINGS_PROVIDER.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runE(cmd, &o)
		},
	}
	root.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&o.envFile, "env-file", "", "dotenv file to load before reading the environment (default .env when present)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Process the input directory and write output.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runE(cmd, &o)
		},
	}
	for _, c := range []*cobra.Command{root, runCmd} {
		c.Flags().StringVar(&o.inputDir, "input-dir", "", "directory holding the PDFs, persona.txt and job.txt")
		c.Flags().StringVar(&o.outputDir, "output-dir", "", "directory output.json is written to")
		c.Flags().IntVar(&o.maxSections, "max-sections", 0, "number of top sections to write")
		c.Flags().IntVar(&o.workers, "workers", 0, "documents converted concurrently")
	}

	root.AddCommand(runCmd, newShowCmd(), newVersionCmd())
	return root
}

func runE(cmd *cobra.Command, o *overrides) error {
	if err := loadEnvFile(o.envFile); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	if err := o.apply(cfg); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: invalid flags: %v\n", err)
		return err
	}

	report, err := run(cmd.Context(), cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

// loadEnvFile loads a dotenv file into the process environment. Variables
// already set win. Without an explicit path a missing .env is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// run wires logging, telemetry, conversion and the embedding model into a
// pipeline and executes it once.
func run(ctx context.Context, cfg *config.Config) (*pipeline.Report, error) {
	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zl := logger.Underlying()

	tel, err := telemetry.New(ctx, &cfg.Telemetry, zl.Named("telemetry"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.Shutdown.Timeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			zl.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	logger.Info(ctx, "starting personarank",
		zap.String("version", version),
		zap.String("input", cfg.Input.Dir),
		zap.String("output", cfg.Output.Path()),
		zap.String("embeddings", cfg.Embeddings.Provider),
		zap.Bool("telemetry", tel.IsEnabled()),
		zap.Bool("telemetry_degraded", tel.Degraded()),
	)

	providerCfg := cfg.ProviderConfig()
	load := func(context.Context) (embeddings.Provider, error) {
		return embeddings.NewProvider(providerCfg, zl.Named("embeddings"))
	}

	var redactor *secrets.Redactor
	if cfg.Output.RedactSecrets {
		if redactor, err = secrets.New(nil, ""); err != nil {
			return nil, fmt.Errorf("failed to initialize secret redaction: %w", err)
		}
	}

	p, err := pipeline.New(pipeline.Options{
		InputDir:    cfg.Input.Dir,
		PersonaPath: cfg.Input.PersonaPath(),
		JobPath:     cfg.Input.JobPath(),
		OutputPath:  cfg.Output.Path(),
		MaxSections: cfg.Output.MaxSections,
		Workers:     cfg.PDF.Workers,
		Segment:     cfg.SegmentOptions(),
		Ranking:     cfg.RankingOptions(),
		Refine:      cfg.RefineOptions(),
		Redactor:    redactor,
	}, pdf.NewConverter(cfg.PDFOptions(), zl.Named("pdf")), load, logger)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

func printReport(w io.Writer, r *pipeline.Report) {
	if r.Degenerate {
		fmt.Fprintf(w, "No sections found in %d document(s); wrote %s\n", len(r.Documents), r.OutputPath)
		return
	}
	fmt.Fprintf(w, "Ranked %d section(s) from %d document(s); wrote top %d to %s in %s\n",
		r.Sections, len(r.Documents), r.Written, r.OutputPath, r.Elapsed.Round(time.Millisecond))
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped %d unreadable document(s): %v\n", len(r.Skipped), r.Skipped)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "personarank by Fyrsmith Labs\n")
			fmt.Fprintf(w, "Version:    %s\n", version)
			fmt.Fprintf(w, "Commit:     %s\n", gitCommit)
			fmt.Fprintf(w, "Build Date: %s\n", buildDate)
		},
	}
}
