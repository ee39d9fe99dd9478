// Package retrieval implements the evidence selection stage: scoring corpus
// passages against a query and returning a ranked, capped evidence list.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/pinta-partners/maggid/internal/models"
)

// Scorer assigns relevance scores to corpus passages for a query. Scores are
// keyed by passage_id; passages absent from the result are treated as
// irrelevant. Implementations need not honor query filters; the engine
// applies them afterward.
type Scorer interface {
	Score(ctx context.Context, corpus *models.Corpus, query models.Query) (map[string]float64, error)
}

// Engine selects evidence for queries against an immutable corpus snapshot.
type Engine struct {
	scorer   Scorer
	minScore float64
	logger   arbor.ILogger
}

// NewEngine creates a retrieval engine around a scorer. Passages scoring
// below minScore are never returned.
func NewEngine(scorer Scorer, minScore float64, logger arbor.ILogger) *Engine {
	return &Engine{
		scorer:   scorer,
		minScore: minScore,
		logger:   logger,
	}
}

// Retrieve returns at most k evidence items for the query, ranked by
// descending score. Ties are broken by corpus position so results are stable
// across runs. An empty result is a valid outcome, not an error. Scores from
// the scorer whose ids do not resolve in the corpus are discarded.
func (e *Engine) Retrieve(ctx context.Context, corpus *models.Corpus, query models.Query, k int) ([]models.EvidenceItem, error) {
	if k < 1 {
		return nil, fmt.Errorf("evidence cap k must be >= 1, got %d", k)
	}
	if corpus.Len() == 0 {
		return nil, nil
	}

	startTime := time.Now()

	scores, err := e.scorer.Score(ctx, corpus, query)
	if err != nil {
		return nil, fmt.Errorf("scoring failed: %w", err)
	}

	type candidate struct {
		passageID string
		score     float64
		position  int
	}

	candidates := make([]candidate, 0, len(scores))
	for passageID, score := range scores {
		position := corpus.Position(passageID)
		if position < 0 {
			e.logger.Warn().
				Str("passage_id", passageID).
				Msg("Scorer returned unknown passage id, discarding")
			continue
		}
		if score < e.minScore {
			continue
		}
		passage := corpus.At(position)
		if !matchesFilters(passage, query.Filters) {
			continue
		}
		candidates = append(candidates, candidate{
			passageID: passageID,
			score:     score,
			position:  position,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].position < candidates[j].position
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	evidence := make([]models.EvidenceItem, 0, len(candidates))
	for rank, c := range candidates {
		evidence = append(evidence, models.EvidenceItem{
			PassageID: c.passageID,
			Score:     c.score,
			Rank:      rank + 1,
		})
	}

	e.logger.Debug().
		Str("query", query.Text).
		Int("k", k).
		Int("evidence_count", len(evidence)).
		Dur("duration", time.Since(startTime)).
		Msg("Retrieval completed")

	if len(evidence) == 0 {
		return nil, nil
	}
	return evidence, nil
}

// matchesFilters reports whether a passage satisfies the query's metadata
// filters. Empty filter fields match everything.
func matchesFilters(passage *models.EnrichedPassage, filters models.QueryFilters) bool {
	if filters.BookName != "" && filters.BookName != passage.BookName {
		return false
	}
	if filters.ParshaName != "" && filters.ParshaName != passage.ParshaName {
		return false
	}
	return true
}
