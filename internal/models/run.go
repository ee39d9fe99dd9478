package models

import "time"

// Query is a single free-text question plus optional filters. Queries are
// ephemeral; they are persisted only as part of a Run.
type Query struct {
	Text    string       `json:"text"`
	Filters QueryFilters `json:"filters"`
}

// QueryFilters restricts retrieval to a subset of the corpus. Empty fields
// match everything.
type QueryFilters struct {
	BookName   string `json:"book_name,omitempty"`
	ParshaName string `json:"parsha_name,omitempty"`
}

// EvidenceItem references one corpus passage selected as relevant to a query.
// It carries identity only, never passage content; the corpus resolves the id.
type EvidenceItem struct {
	PassageID string  `json:"passage_id"`
	Score     float64 `json:"score"` // Higher = more relevant
	Rank      int     `json:"rank"`  // 1-based rank assigned by the retrieval engine
}

// InsufficientEvidenceAnswer is returned without any LLM call when retrieval
// produced no evidence.
const InsufficientEvidenceAnswer = "No passages relevant to this question were found in the corpus, so no grounded answer can be given."

// Answer is a synthesized response with its verified citations.
type Answer struct {
	Text      string   `json:"text"`
	Citations []string `json:"citations"`          // passage_ids, verified against the evidence set
	Warnings  []string `json:"warnings,omitempty"` // e.g. citations the model invented and we dropped
}

// RunStatus describes the terminal state of a Run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is one persisted retrieval+answer transaction. Runs are append-only:
// immutable once recorded.
type Run struct {
	RunID     string         `json:"run_id"`
	Query     Query          `json:"query"`
	Evidence  []EvidenceItem `json:"evidence"`
	Answer    Answer         `json:"answer"`
	Status    RunStatus      `json:"status"`
	Error     string         `json:"error,omitempty"` // Failure reason for failed/cancelled runs
	CreatedAt time.Time      `json:"created_at"`
}
