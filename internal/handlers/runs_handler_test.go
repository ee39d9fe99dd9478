package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinta-partners/maggid/internal/common"
	"github.com/pinta-partners/maggid/internal/interfaces"
	"github.com/pinta-partners/maggid/internal/models"
)

// memoryRunStorage is an in-memory RunStorage for handler tests.
type memoryRunStorage struct {
	runs map[string]*models.Run
	list []*models.Run
}

func newMemoryRunStorage(runs ...*models.Run) *memoryRunStorage {
	s := &memoryRunStorage{runs: make(map[string]*models.Run)}
	for _, run := range runs {
		s.runs[run.RunID] = run
		s.list = append(s.list, run)
	}
	return s
}

func (s *memoryRunStorage) SaveRun(run *models.Run) error {
	if _, exists := s.runs[run.RunID]; exists {
		return interfaces.ErrRunExists
	}
	s.runs[run.RunID] = run
	s.list = append(s.list, run)
	return nil
}

func (s *memoryRunStorage) GetRun(runID string) (*models.Run, error) {
	run, ok := s.runs[runID]
	if !ok {
		return nil, interfaces.ErrRunNotFound
	}
	return run, nil
}

func (s *memoryRunStorage) ListRuns() ([]*models.Run, error) {
	return s.list, nil
}

func TestHandleList(t *testing.T) {
	storage := newMemoryRunStorage(
		&models.Run{RunID: "run_a", Status: models.RunStatusCompleted},
		&models.Run{RunID: "run_b", Status: models.RunStatusFailed},
	)
	handler := NewRunsHandler(storage, common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()

	handler.HandleList(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int          `json:"count"`
		Runs  []models.Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Runs, 2)
	assert.Equal(t, "run_a", body.Runs[0].RunID)
}

func TestHandleGet(t *testing.T) {
	storage := newMemoryRunStorage(&models.Run{
		RunID:  "run_a",
		Answer: models.Answer{Text: "answer"},
	})
	handler := NewRunsHandler(storage, common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run_a", nil)
	rec := httptest.NewRecorder()

	handler.HandleGet(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var run models.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "answer", run.Answer.Text)
}

func TestHandleGet_NotFound(t *testing.T) {
	handler := NewRunsHandler(newMemoryRunStorage(), common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run_missing", nil)
	rec := httptest.NewRecorder()

	handler.HandleGet(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGet_InvalidID(t *testing.T) {
	handler := NewRunsHandler(newMemoryRunStorage(), common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/runs/a/b", nil)
	rec := httptest.NewRecorder()

	handler.HandleGet(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
