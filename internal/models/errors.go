package models

import "fmt"

// EnrichmentStage identifies which enrichment sub-task failed.
type EnrichmentStage string

const (
	StageTranslation EnrichmentStage = "translation"
	StageKeywords    EnrichmentStage = "keywords"
	StageSummary     EnrichmentStage = "summary"
)

// EnrichmentError is a per-record enrichment failure. It never aborts the
// batch; callers receive it positionally and may re-run just the failures.
type EnrichmentError struct {
	Key   PassageKey
	Stage EnrichmentStage // Sub-task that exhausted its retries
	Err   error           // Last underlying cause
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment failed for passage %s (%s stage): %v", e.Key.PassageID, e.Stage, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}
