// Package enrichment implements the passage enrichment batch stage: for each
// raw Hebrew passage it produces an English translation, a summary, and a
// keyword list via LLM calls, under bounded concurrency.
package enrichment

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/pinta-partners/maggid/internal/interfaces"
	"github.com/pinta-partners/maggid/internal/models"
)

// Result pairs one input record with its enrichment outcome. Err is non-nil
// when any enrichment sub-task failed; in that case the passage carries the
// original record with no partially-filled enrichment fields.
type Result struct {
	Passage models.EnrichedPassage
	Err     error
}

// Failed reports whether this record's enrichment failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Service runs enrichment batches against a configured LLM provider.
type Service struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewService creates an enrichment service.
func NewService(llm interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{
		llm:    llm,
		logger: logger,
	}
}

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// Enrich processes records with at most concurrency passages in flight at
// once. The result slice always has exactly len(records) entries in input
// order; per-record failures are reported positionally and never abort the
// batch. Cancelling ctx stops scheduling new work and marks unprocessed
// records as failed.
func (s *Service) Enrich(ctx context.Context, records []models.PassageRecord, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(records))
	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	startTime := time.Now()
	s.logger.Info().
		Int("record_count", len(records)).
		Int("concurrency", concurrency).
		Msg("Starting enrichment batch")

	for i, record := range records {
		if ctx.Err() != nil {
			results[i] = Result{
				Passage: models.EnrichedPassage{PassageRecord: record},
				Err: &models.EnrichmentError{
					Key: record.Key(),
					Err: ctx.Err(),
				},
			}
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(idx int, rec models.PassageRecord) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[idx] = s.enrichOne(ctx, rec)
		}(i, record)
	}

	wg.Wait()

	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
		}
	}

	s.logger.Info().
		Int("record_count", len(records)).
		Int("failed", failed).
		Dur("duration", time.Since(startTime)).
		Msg("Enrichment batch completed")

	return results
}

// enrichOne runs the three enrichment sub-tasks for a single passage
// concurrently. All three must succeed for the record to count as enriched.
func (s *Service) enrichOne(ctx context.Context, record models.PassageRecord) Result {
	// Passage content sometimes carries markup from the extraction step
	record.PassageContent = htmlTagRegex.ReplaceAllString(record.PassageContent, "")

	s.logger.Debug().
		Str("book", record.BookName).
		Str("parsha", record.ParshaName).
		Str("dvar_torah_id", record.DvarTorahID).
		Str("passage_id", record.PassageID).
		Msg("Enriching passage")

	var (
		wg                     sync.WaitGroup
		translation, summary   string
		keywords               []string
		translationErr, sumErr error
		keywordsErr            error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		translation, translationErr = s.chat(ctx, translationPrompt(record.BookName, record.PassageContent))
	}()
	go func() {
		defer wg.Done()
		summary, sumErr = s.chat(ctx, summaryPrompt(record.BookName, record.PassageContent))
	}()
	go func() {
		defer wg.Done()
		var raw string
		raw, keywordsErr = s.chat(ctx, keywordsPrompt(record.PassageContent))
		if keywordsErr == nil {
			keywords = parseKeywords(raw)
			if len(keywords) == 0 {
				keywordsErr = fmt.Errorf("model returned no keywords")
			}
		}
	}()
	wg.Wait()

	if err := firstStageError(record.Key(), translationErr, sumErr, keywordsErr); err != nil {
		s.logger.Warn().
			Err(err).
			Str("passage_id", record.PassageID).
			Msg("Passage enrichment failed")
		return Result{
			Passage: models.EnrichedPassage{PassageRecord: record},
			Err:     err,
		}
	}

	return Result{
		Passage: models.EnrichedPassage{
			PassageRecord: record,
			Translation:   translation,
			Summary:       summary,
			Keywords:      keywords,
		},
	}
}

func (s *Service) chat(ctx context.Context, prompt string) (string, error) {
	return s.llm.Chat(ctx, []interfaces.Message{
		{Role: "user", Content: prompt},
	})
}

// firstStageError reports the first failed sub-task in a fixed order so
// repeated runs attribute the same failure consistently.
func firstStageError(key models.PassageKey, translationErr, summaryErr, keywordsErr error) error {
	switch {
	case translationErr != nil:
		return &models.EnrichmentError{Key: key, Stage: models.StageTranslation, Err: translationErr}
	case summaryErr != nil:
		return &models.EnrichmentError{Key: key, Stage: models.StageSummary, Err: summaryErr}
	case keywordsErr != nil:
		return &models.EnrichmentError{Key: key, Stage: models.StageKeywords, Err: keywordsErr}
	}
	return nil
}
