// Package synthesis implements grounded answer generation: composing an LLM
// answer from retrieved evidence and verifying every citation against it.
package synthesis

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/pinta-partners/maggid/internal/interfaces"
	"github.com/pinta-partners/maggid/internal/models"
)

// Service synthesizes grounded answers from evidence.
type Service struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewService creates an answer synthesis service.
func NewService(llm interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{
		llm:    llm,
		logger: logger,
	}
}

var citationRegex = regexp.MustCompile(`\[([^\[\]\s]+)\]`)

// Synthesize produces a grounded answer for the query from the given
// evidence. With no evidence it short-circuits to the insufficient-evidence
// answer without any LLM call. Citations the model invents (ids outside the
// evidence set) are dropped from the citation list and reported as warnings;
// the answer text is returned as generated.
func (s *Service) Synthesize(ctx context.Context, corpus *models.Corpus, query models.Query, evidence []models.EvidenceItem) (models.Answer, error) {
	if len(evidence) == 0 {
		s.logger.Info().
			Str("query", query.Text).
			Msg("No evidence retrieved, returning insufficient-evidence answer")
		return models.Answer{Text: models.InsufficientEvidenceAnswer}, nil
	}

	evidenceBlock := buildEvidenceBlock(corpus, evidence)
	if evidenceBlock == "" {
		return models.Answer{}, fmt.Errorf("no evidence passage resolved in the corpus")
	}

	startTime := time.Now()
	response, err := s.llm.Chat(ctx, []interfaces.Message{
		{Role: "system", Content: synthesisSystemPrompt},
		{Role: "user", Content: synthesisUserPrompt(query.Text, evidenceBlock)},
	})
	if err != nil {
		return models.Answer{}, fmt.Errorf("answer generation failed: %w", err)
	}

	answer := s.validateCitations(response, evidence)

	s.logger.Debug().
		Str("query", query.Text).
		Int("citation_count", len(answer.Citations)).
		Int("warning_count", len(answer.Warnings)).
		Dur("duration", time.Since(startTime)).
		Msg("Answer synthesized")

	return answer, nil
}

// validateCitations extracts cited ids from the answer text and keeps only
// those present in the evidence set, in first-mention order without
// duplicates.
func (s *Service) validateCitations(text string, evidence []models.EvidenceItem) models.Answer {
	allowed := make(map[string]struct{}, len(evidence))
	for _, item := range evidence {
		allowed[item.PassageID] = struct{}{}
	}

	answer := models.Answer{Text: text}
	seen := make(map[string]struct{})
	for _, match := range citationRegex.FindAllStringSubmatch(text, -1) {
		id := match[1]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if _, ok := allowed[id]; ok {
			answer.Citations = append(answer.Citations, id)
		} else {
			answer.Warnings = append(answer.Warnings,
				fmt.Sprintf("citation [%s] does not match any retrieved passage and was dropped", id))
			s.logger.Warn().
				Str("citation", id).
				Msg("Model cited a passage outside the evidence set")
		}
	}
	return answer
}
