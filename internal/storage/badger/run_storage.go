package badger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/pinta-partners/maggid/internal/interfaces"
	"github.com/pinta-partners/maggid/internal/models"
)

// RunStorage implements the RunStorage interface for Badger. Runs are
// append-only: Insert is used rather than Upsert so a repeated run id is
// rejected instead of silently overwritten.
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RunStorage) SaveRun(run *models.Run) error {
	if run.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	if err := s.db.Store().Insert(run.RunID, run); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("run %s: %w", run.RunID, interfaces.ErrRunExists)
		}
		return fmt.Errorf("failed to save run: %w", err)
	}

	s.logger.Debug().
		Str("run_id", run.RunID).
		Str("status", string(run.Status)).
		Msg("Run recorded")
	return nil
}

func (s *RunStorage) GetRun(runID string) (*models.Run, error) {
	var run models.Run
	if err := s.db.Store().Get(runID, &run); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("run %s: %w", runID, interfaces.ErrRunNotFound)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

func (s *RunStorage) ListRuns() ([]*models.Run, error) {
	var runs []models.Run
	if err := s.db.Store().Find(&runs, nil); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	// Run ids embed a UTC timestamp, so lexicographic order is creation order
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].RunID < runs[j].RunID
	})

	result := make([]*models.Run, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}
