// Package corpus implements the corpus assembly stage: merging enriched
// passage batches into one ordered, deduplicated corpus and serializing it
// into grounding text for LLM consumption.
package corpus

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/pinta-partners/maggid/internal/models"
)

// Assembler merges enriched passage batches into an immutable corpus.
type Assembler struct {
	logger arbor.ILogger
}

// NewAssembler creates a corpus assembler.
func NewAssembler(logger arbor.ILogger) *Assembler {
	return &Assembler{logger: logger}
}

// Assemble merges batches in the order given. Within the merged sequence the
// first occurrence of a passage identity wins; later occurrences are dropped
// and reported as warnings, never as errors. Records with incomplete
// enrichment are excluded from the corpus the same way. Passage ids are
// globally unique in the result even across differing metadata.
func (a *Assembler) Assemble(batches ...[]models.EnrichedPassage) (*models.Corpus, []models.DuplicateWarning) {
	seenKeys := make(map[models.PassageKey]struct{})
	seenIDs := make(map[string]struct{})

	var kept []models.EnrichedPassage
	var warnings []models.DuplicateWarning

	for _, batch := range batches {
		for i := range batch {
			passage := batch[i]

			if !passage.IsComplete() {
				warnings = append(warnings, models.DuplicateWarning{
					PassageID: passage.PassageID,
					Reference: passage.Reference(),
					Reason:    "incomplete enrichment",
				})
				continue
			}

			key := passage.Key()
			if _, dup := seenKeys[key]; dup {
				warnings = append(warnings, models.DuplicateWarning{
					PassageID: passage.PassageID,
					Reference: passage.Reference(),
					Reason:    "duplicate passage identity",
				})
				continue
			}
			if _, dup := seenIDs[passage.PassageID]; dup {
				warnings = append(warnings, models.DuplicateWarning{
					PassageID: passage.PassageID,
					Reference: passage.Reference(),
					Reason:    fmt.Sprintf("passage_id %s already used by another passage", passage.PassageID),
				})
				continue
			}

			seenKeys[key] = struct{}{}
			seenIDs[passage.PassageID] = struct{}{}
			kept = append(kept, passage)
		}
	}

	for _, warning := range warnings {
		a.logger.Warn().
			Str("passage_id", warning.PassageID).
			Str("reference", warning.Reference).
			Str("reason", warning.Reason).
			Msg("Passage dropped during corpus assembly")
	}

	a.logger.Info().
		Int("passage_count", len(kept)).
		Int("dropped", len(warnings)).
		Msg("Corpus assembled")

	return models.NewCorpus(kept), warnings
}
