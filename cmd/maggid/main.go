package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ternarybob/arbor"

	"github.com/pinta-partners/maggid/internal/app"
	"github.com/pinta-partners/maggid/internal/common"
	"github.com/pinta-partners/maggid/internal/models"
	"github.com/pinta-partners/maggid/internal/server"
	"github.com/pinta-partners/maggid/internal/services/corpus"
	"github.com/pinta-partners/maggid/internal/services/llm"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles configPaths // Multiple -config flags supported
	serverPort  = flag.Int("port", 0, "Server port (overrides config)")
	serverHost  = flag.String("host", "", "Server host (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information")

	// Enrichment batch mode
	enrichInput = flag.String("enrich", "", "Run enrichment on a raw passages CSV and exit")
	enrichOut   = flag.String("out", "", "Output path for the enriched CSV (enrich mode)")
	concurrency = flag.Int("concurrency", 0, "Max passages enriched in parallel (overrides config)")

	// One-shot query mode
	askQuestion = flag.String("ask", "", "Answer a single question and exit")
	askK        = flag.Int("k", 0, "Evidence cap for -ask (overrides config)")
	askBook     = flag.String("book", "", "Restrict -ask to a book")
	askParsha   = flag.String("parsha", "", "Restrict -ask to a parsha")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	// Load .env before flag handling so API keys reach the env overrides
	_ = godotenv.Load()

	flag.Parse()

	if *showVersion {
		fmt.Printf("Maggid version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("maggid.toml"); err == nil {
			configFiles = append(configFiles, "maggid.toml")
		} else if _, err := os.Stat("deployments/local/maggid.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/maggid.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	if *serverPort != 0 {
		config.Server.Port = *serverPort
	}
	if *serverHost != "" {
		config.Server.Host = *serverHost
	}
	if *concurrency > 0 {
		config.Enrichment.Concurrency = *concurrency
	}

	logger := common.InitLogger(config)

	switch {
	case *enrichInput != "":
		os.Exit(runEnrich(config, logger))
	case *askQuestion != "":
		os.Exit(runAsk(config, logger))
	default:
		runServe(config, logger)
	}
}

// runEnrich executes the enrichment batch mode: read raw passages, enrich
// them, write the enriched CSV. Exits non-zero when the failed fraction
// exceeds the configured threshold.
func runEnrich(config *common.Config, logger arbor.ILogger) int {
	if *enrichOut == "" {
		logger.Error().Msg("-enrich requires -out <enriched.csv>")
		return 2
	}

	records, err := corpus.ReadPassagesCSV(*enrichInput)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read input CSV")
		return 1
	}

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := application.EnrichmentService.Enrich(ctx, records, config.Enrichment.Concurrency)

	enriched := make([]models.EnrichedPassage, 0, len(results))
	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
			continue
		}
		enriched = append(enriched, result.Passage)
	}

	if err := corpus.WriteEnrichedCSV(*enrichOut, enriched); err != nil {
		logger.Error().Err(err).Msg("Failed to write enriched CSV")
		return 1
	}

	logger.Info().
		Int("total", len(records)).
		Int("enriched", len(enriched)).
		Int("failed", failed).
		Str("output", *enrichOut).
		Msg("Enrichment batch finished")

	if len(records) > 0 {
		failureRate := float64(failed) / float64(len(records))
		if failureRate > config.Enrichment.FailureThreshold {
			logger.Error().
				Float64("failure_rate", failureRate).
				Float64("threshold", config.Enrichment.FailureThreshold).
				Msg("Enrichment failure rate exceeded threshold")
			return 1
		}
	}
	return 0
}

// runAsk answers a single question from the command line and prints the
// grounded answer with its citations.
func runAsk(config *common.Config, logger arbor.ILogger) int {
	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return 1
	}
	defer application.Close()

	if err := application.LoadCorpus(); err != nil {
		logger.Error().Err(err).Msg("Failed to load corpus")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	query := models.Query{
		Text: *askQuestion,
		Filters: models.QueryFilters{
			BookName:   *askBook,
			ParshaName: *askParsha,
		},
	}
	run, err := application.Ask(ctx, query, *askK)
	if err != nil {
		logger.Error().Err(err).Msg("Query failed")
		return 1
	}

	fmt.Println(run.Answer.Text)
	if len(run.Answer.Citations) > 0 {
		fmt.Println()
		fmt.Println("Citations:")
		for _, citation := range run.Answer.Citations {
			if passage, ok := application.Corpus().ByID(citation); ok {
				fmt.Printf("  [%s] %s\n", citation, passage.Reference())
			} else {
				fmt.Printf("  [%s]\n", citation)
			}
		}
	}
	for _, warning := range run.Answer.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
	fmt.Printf("\nRun ID: %s\n", run.RunID)
	return 0
}

// runServe starts the HTTP server and blocks until shutdown.
func runServe(config *common.Config, logger arbor.ILogger) {
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Int("port", config.Server.Port).
		Str("host", config.Server.Host).
		Msg("Application configuration loaded")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	if err := application.LoadCorpus(); err != nil {
		// A server with no corpus can still report health and serve runs
		logger.Warn().Err(err).Msg("Corpus not loaded; /api/ask will return no evidence")
	}

	// Probe the synthesis provider so misconfigured keys surface at startup
	if service, err := application.LLMFactory.ServiceForStage(llm.StageSynthesis); err == nil {
		probeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := service.HealthCheck(probeCtx); err != nil {
			logger.Warn().Err(err).Msg("LLM health check failed")
		}
		cancel()
	}

	srv := server.New(application)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.Info().
		Str("url", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)).
		Msg("Server ready - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Interrupt signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	logger.Info().Msg("Server stopped")
}
