package models

import (
	"fmt"
	"strings"
)

// PassageRecord is one indexed unit of source text plus its structural
// metadata. Records are created during ingestion and never mutated.
type PassageRecord struct {
	BookName       string `json:"book_name"`
	ParshaName     string `json:"parsha_name"`
	DvarTorahID    string `json:"dvar_torah_id"`
	PassageID      string `json:"passage_id"`
	PassageContent string `json:"passage_content"` // Original-language text, immutable
}

// PassageKey is the identity of a passage across the corpus.
type PassageKey struct {
	BookName    string
	ParshaName  string
	DvarTorahID string
	PassageID   string
}

// Key returns the comparable identity of the record.
func (p *PassageRecord) Key() PassageKey {
	return PassageKey{
		BookName:    p.BookName,
		ParshaName:  p.ParshaName,
		DvarTorahID: p.DvarTorahID,
		PassageID:   p.PassageID,
	}
}

// Reference returns the human-readable citation form used in guider text and
// LLM prompts, e.g. "Divrey Yoel, Bereshit, Torah #3, Passage #2".
func (p *PassageRecord) Reference() string {
	return fmt.Sprintf("%s, %s, Torah #%s, Passage #%s",
		p.BookName, p.ParshaName, p.DvarTorahID, p.PassageID)
}

// EnrichedPassage extends a PassageRecord with LLM-derived enrichments.
// After successful enrichment every field is non-empty; records that fail
// enrichment are excluded from the corpus rather than stored half-empty.
type EnrichedPassage struct {
	PassageRecord

	Translation string   `json:"translation"`
	Keywords    []string `json:"keywords"`
	Summary     string   `json:"summary"`
}

// IsComplete reports whether all enrichment fields are populated.
func (e *EnrichedPassage) IsComplete() bool {
	return strings.TrimSpace(e.Translation) != "" &&
		strings.TrimSpace(e.Summary) != "" &&
		len(e.Keywords) > 0
}

// KeywordSeparator joins keywords in the enriched CSV schema. Literal
// occurrences inside a keyword are backslash-escaped so the separator never
// collides with content.
const KeywordSeparator = "|"

// JoinKeywords serializes a keyword set for CSV storage.
func JoinKeywords(keywords []string) string {
	escaped := make([]string, len(keywords))
	for i, kw := range keywords {
		kw = strings.ReplaceAll(kw, `\`, `\\`)
		kw = strings.ReplaceAll(kw, KeywordSeparator, `\`+KeywordSeparator)
		escaped[i] = kw
	}
	return strings.Join(escaped, KeywordSeparator)
}

// SplitKeywords reverses JoinKeywords.
func SplitKeywords(s string) []string {
	if s == "" {
		return nil
	}

	var keywords []string
	var current strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case string(r) == KeywordSeparator:
			keywords = append(keywords, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	keywords = append(keywords, current.String())
	return keywords
}

// NormalizeKeyword lowercases and trims a keyword for order-insensitive
// comparison and lexical scoring.
func NormalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}
