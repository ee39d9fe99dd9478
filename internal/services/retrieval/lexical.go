package retrieval

import (
	"context"
	"strings"
	"unicode"

	"github.com/pinta-partners/maggid/internal/models"
)

// Term-overlap weights. Keyword hits are the strongest relevance signal; the
// summary is a denser statement of the passage than the full translation.
const (
	keywordWeight     = 3.0
	summaryWeight     = 2.0
	translationWeight = 1.0
)

// LexicalScorer scores passages by weighted term overlap between the query
// and the passage's enrichment fields. Fully deterministic and requires no
// LLM calls, so it is the default strategy.
type LexicalScorer struct{}

// NewLexicalScorer creates a lexical term-overlap scorer.
func NewLexicalScorer() *LexicalScorer {
	return &LexicalScorer{}
}

// Score computes term-overlap scores for every passage in the corpus.
// Passages with no overlapping terms are omitted from the result.
func (s *LexicalScorer) Score(ctx context.Context, corpus *models.Corpus, query models.Query) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTerms := tokenize(query.Text)
	if len(queryTerms) == 0 {
		return map[string]float64{}, nil
	}

	scores := make(map[string]float64)
	for i := 0; i < corpus.Len(); i++ {
		passage := corpus.At(i)

		score := keywordWeight * overlapKeywords(queryTerms, passage.Keywords)
		score += summaryWeight * overlapText(queryTerms, passage.Summary)
		score += translationWeight * overlapText(queryTerms, passage.Translation)

		if score > 0 {
			scores[passage.PassageID] = score
		}
	}
	return scores, nil
}

// tokenize lowercases text and splits it into a term set on non-letter,
// non-digit boundaries.
func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		terms[f] = struct{}{}
	}
	return terms
}

// overlapKeywords counts query terms appearing in the keyword set. Multi-word
// keywords match if any of their words is a query term.
func overlapKeywords(queryTerms map[string]struct{}, keywords []string) float64 {
	hits := 0.0
	for _, keyword := range keywords {
		for word := range tokenize(models.NormalizeKeyword(keyword)) {
			if _, ok := queryTerms[word]; ok {
				hits++
				break
			}
		}
	}
	return hits
}

// overlapText counts the distinct query terms appearing in the text.
func overlapText(queryTerms map[string]struct{}, text string) float64 {
	textTerms := tokenize(text)
	hits := 0.0
	for term := range queryTerms {
		if _, ok := textTerms[term]; ok {
			hits++
		}
	}
	return hits
}
