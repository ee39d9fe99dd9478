// Package app wires the configuration, storage, LLM providers, and pipeline
// services into one application instance.
package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/pinta-partners/maggid/internal/common"
	"github.com/pinta-partners/maggid/internal/interfaces"
	"github.com/pinta-partners/maggid/internal/models"
	"github.com/pinta-partners/maggid/internal/services/corpus"
	"github.com/pinta-partners/maggid/internal/services/enrichment"
	"github.com/pinta-partners/maggid/internal/services/llm"
	"github.com/pinta-partners/maggid/internal/services/retrieval"
	"github.com/pinta-partners/maggid/internal/services/synthesis"
	"github.com/pinta-partners/maggid/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// LLM provider factory, one shared rate limit across stages
	LLMFactory *llm.Factory

	// Pipeline services
	EnrichmentService *enrichment.Service
	CorpusLoader      *corpus.Loader
	RetrievalEngine   *retrieval.Engine
	SynthesisService  *synthesis.Service

	// Current corpus snapshot; swapped atomically on reload so queries in
	// flight keep the snapshot they started with
	corpus atomic.Pointer[models.Corpus]

	scheduler *cron.Cron
}

// New creates and wires an application instance. The corpus is not loaded
// yet; call LoadCorpus before serving queries.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	factory := llm.NewFactory(config, logger)

	enrichmentLLM, err := factory.ServiceForStage(llm.StageEnrichment)
	if err != nil {
		storageManager.Close()
		return nil, err
	}
	synthesisLLM, err := factory.ServiceForStage(llm.StageSynthesis)
	if err != nil {
		storageManager.Close()
		return nil, err
	}

	// The lexical scorer needs no provider; only build one for llm mode
	var retrievalLLM interfaces.LLMService
	if config.Retrieval.Mode == "llm" {
		retrievalLLM, err = factory.ServiceForStage(llm.StageRetrieval)
		if err != nil {
			storageManager.Close()
			return nil, err
		}
	}

	engine, err := retrieval.NewEngineFromConfig(&config.Retrieval, retrievalLLM, logger)
	if err != nil {
		storageManager.Close()
		return nil, err
	}

	app := &App{
		Config:            config,
		Logger:            logger,
		StorageManager:    storageManager,
		LLMFactory:        factory,
		EnrichmentService: enrichment.NewService(enrichmentLLM, logger),
		CorpusLoader:      corpus.NewLoader(logger),
		RetrievalEngine:   engine,
		SynthesisService:  synthesis.NewService(synthesisLLM, logger),
	}
	app.corpus.Store(models.NewCorpus(nil))

	if config.Corpus.ReloadEnabled {
		if err := app.startReloadScheduler(); err != nil {
			storageManager.Close()
			return nil, err
		}
	}

	return app, nil
}

// Corpus returns the current corpus snapshot.
func (a *App) Corpus() *models.Corpus {
	return a.corpus.Load()
}

// SetCorpus replaces the corpus snapshot. Used by tests and by callers that
// assemble a corpus themselves.
func (a *App) SetCorpus(c *models.Corpus) {
	a.corpus.Store(c)
}

// LoadCorpus rebuilds the corpus from the configured enriched CSV directory
// and swaps it in atomically. When a guider file is configured the serialized
// guider text is rewritten as well.
func (a *App) LoadCorpus() error {
	c, warnings, err := a.CorpusLoader.LoadDir(a.Config.Corpus.EnrichedDir)
	if err != nil {
		return fmt.Errorf("corpus load failed: %w", err)
	}

	if a.Config.Corpus.GuiderFile != "" {
		if err := corpus.WriteGuiderFile(a.Config.Corpus.GuiderFile, c); err != nil {
			return err
		}
	}

	a.corpus.Store(c)
	a.Logger.Info().
		Int("passages", c.Len()).
		Int("warnings", len(warnings)).
		Msg("Corpus loaded")
	return nil
}

// Ask runs the full query pipeline: retrieve evidence, synthesize a grounded
// answer, and record the run. Every terminal outcome, including failures and
// cancellation, is persisted as a run with the matching status.
func (a *App) Ask(ctx context.Context, query models.Query, k int) (*models.Run, error) {
	if k < 1 {
		k = a.Config.Retrieval.K
	}

	run := &models.Run{
		RunID:     common.NewRunID(time.Now()),
		Query:     query,
		CreatedAt: time.Now().UTC(),
	}
	snapshot := a.Corpus()

	evidence, err := a.RetrievalEngine.Retrieve(ctx, snapshot, query, k)
	if err != nil {
		return a.recordFailure(ctx, run, fmt.Errorf("retrieval: %w", err))
	}
	run.Evidence = evidence

	answer, err := a.SynthesisService.Synthesize(ctx, snapshot, query, evidence)
	if err != nil {
		return a.recordFailure(ctx, run, fmt.Errorf("synthesis: %w", err))
	}
	run.Answer = answer
	run.Status = models.RunStatusCompleted

	if err := a.StorageManager.RunStorage().SaveRun(run); err != nil {
		return nil, fmt.Errorf("failed to record run %s: %w", run.RunID, err)
	}
	return run, nil
}

// recordFailure persists a failed or cancelled run and returns the original
// pipeline error.
func (a *App) recordFailure(ctx context.Context, run *models.Run, pipelineErr error) (*models.Run, error) {
	run.Status = models.RunStatusFailed
	if ctx.Err() != nil {
		run.Status = models.RunStatusCancelled
	}
	run.Error = pipelineErr.Error()

	if saveErr := a.StorageManager.RunStorage().SaveRun(run); saveErr != nil {
		a.Logger.Error().
			Err(saveErr).
			Str("run_id", run.RunID).
			Msg("Failed to record failed run")
	}
	return run, pipelineErr
}

// startReloadScheduler registers the cron job that rebuilds the corpus on the
// configured schedule.
func (a *App) startReloadScheduler() error {
	schedule := a.Config.Corpus.ReloadSchedule
	if schedule == "" {
		return fmt.Errorf("corpus.reload_enabled requires corpus.reload_schedule")
	}

	a.scheduler = cron.New()
	_, err := a.scheduler.AddFunc(schedule, func() {
		if err := a.LoadCorpus(); err != nil {
			a.Logger.Error().Err(err).Msg("Scheduled corpus reload failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid corpus reload schedule %q: %w", schedule, err)
	}

	a.scheduler.Start()
	a.Logger.Info().Str("schedule", schedule).Msg("Corpus reload scheduler started")
	return nil
}

// Close shuts down the application components in reverse dependency order.
func (a *App) Close() error {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	var firstErr error
	if err := a.LLMFactory.Close(); err != nil {
		firstErr = err
	}
	if err := a.StorageManager.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
