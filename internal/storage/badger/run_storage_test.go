package badger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinta-partners/maggid/internal/common"
	"github.com/pinta-partners/maggid/internal/interfaces"
	"github.com/pinta-partners/maggid/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()
	manager, err := NewManager(common.GetLogger(), &common.BadgerConfig{
		Path: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	return manager
}

func sampleRun(runID string) *models.Run {
	return &models.Run{
		RunID: runID,
		Query: models.Query{Text: "what is emunah"},
		Evidence: []models.EvidenceItem{
			{PassageID: "p1", Score: 9.2, Rank: 1},
		},
		Answer: models.Answer{
			Text:      "Faith is foundational [p1].",
			Citations: []string{"p1"},
		},
		Status: models.RunStatusCompleted,
	}
}

func TestRunStorage_SaveAndGet(t *testing.T) {
	store := newTestManager(t).RunStorage()

	run := sampleRun(common.NewRunID(time.Now()))
	require.NoError(t, store.SaveRun(run))

	loaded, err := store.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.Query, loaded.Query)
	assert.Equal(t, run.Evidence, loaded.Evidence)
	assert.Equal(t, run.Answer, loaded.Answer)
	assert.Equal(t, models.RunStatusCompleted, loaded.Status)
	assert.False(t, loaded.CreatedAt.IsZero())
}

func TestRunStorage_AppendOnly(t *testing.T) {
	store := newTestManager(t).RunStorage()

	run := sampleRun(common.NewRunID(time.Now()))
	require.NoError(t, store.SaveRun(run))

	rewrite := sampleRun(run.RunID)
	rewrite.Answer.Text = "overwritten"
	err := store.SaveRun(rewrite)

	require.ErrorIs(t, err, interfaces.ErrRunExists)

	// Original stays untouched
	loaded, err := store.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "Faith is foundational [p1].", loaded.Answer.Text)
}

func TestRunStorage_GetUnknownRun(t *testing.T) {
	store := newTestManager(t).RunStorage()

	_, err := store.GetRun("run_missing")

	require.ErrorIs(t, err, interfaces.ErrRunNotFound)
}

func TestRunStorage_ListRunsInCreationOrder(t *testing.T) {
	store := newTestManager(t).RunStorage()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ids := []string{
		common.NewRunID(base.Add(2 * time.Second)),
		common.NewRunID(base),
		common.NewRunID(base.Add(time.Second)),
	}
	for _, id := range ids {
		require.NoError(t, store.SaveRun(sampleRun(id)))
	}

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[1], runs[0].RunID)
	assert.Equal(t, ids[2], runs[1].RunID)
	assert.Equal(t, ids[0], runs[2].RunID)
}

func TestRunStorage_RequiresRunID(t *testing.T) {
	store := newTestManager(t).RunStorage()

	err := store.SaveRun(&models.Run{})

	require.Error(t, err)
}
