package interfaces

import (
	"errors"

	"github.com/pinta-partners/maggid/internal/models"
)

// ErrRunNotFound is returned by RunStorage.GetRun for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// ErrRunExists is returned by RunStorage.SaveRun when the run ID has already
// been recorded. Runs are append-only; a second write is always a bug.
var ErrRunExists = errors.New("run already recorded")

// RunStorage persists retrieval/answer runs. Write-once, read-many.
type RunStorage interface {
	// SaveRun records a run. Returns ErrRunExists if the run ID is taken.
	SaveRun(run *models.Run) error

	// GetRun fetches a run by ID. Returns ErrRunNotFound on a miss.
	GetRun(runID string) (*models.Run, error)

	// ListRuns returns all runs in creation-time ascending order.
	ListRuns() ([]*models.Run, error)
}

// StorageManager aggregates storage backends behind one lifecycle.
type StorageManager interface {
	RunStorage() RunStorage
	Close() error
}
