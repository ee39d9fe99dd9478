package app

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinta-partners/maggid/internal/common"
	"github.com/pinta-partners/maggid/internal/interfaces"
	"github.com/pinta-partners/maggid/internal/models"
	"github.com/pinta-partners/maggid/internal/services/retrieval"
	"github.com/pinta-partners/maggid/internal/services/synthesis"
	"github.com/pinta-partners/maggid/internal/storage/badger"
)

// echoLLM answers every synthesis prompt with a fixed grounded answer.
type echoLLM struct {
	response string
}

func (e *echoLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.response, nil
}

func (e *echoLLM) HealthCheck(ctx context.Context) error { return nil }
func (e *echoLLM) Close() error                          { return nil }

func newTestApp(t *testing.T, answerText string) *App {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Storage.Badger.Path = t.TempDir()
	logger := common.GetLogger()

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storageManager.Close() })

	engine, err := retrieval.NewEngineFromConfig(&config.Retrieval, nil, logger)
	require.NoError(t, err)

	a := &App{
		Config:           config,
		Logger:           logger,
		StorageManager:   storageManager,
		RetrievalEngine:  engine,
		SynthesisService: synthesis.NewService(&echoLLM{response: answerText}, logger),
	}
	a.SetCorpus(testCorpus())
	return a
}

func testCorpus() *models.Corpus {
	return models.NewCorpus([]models.EnrichedPassage{
		{
			PassageRecord: models.PassageRecord{
				BookName:       "Likutei",
				ParshaName:     "Bereshit",
				DvarTorahID:    "1",
				PassageID:      "p1",
				PassageContent: "hebrew text",
			},
			Translation: "a teaching about faith and trust",
			Summary:     "faith as the root of divine service",
			Keywords:    []string{"emunah", "faith"},
		},
		{
			PassageRecord: models.PassageRecord{
				BookName:       "Likutei",
				ParshaName:     "Noach",
				DvarTorahID:    "2",
				PassageID:      "p2",
				PassageContent: "hebrew text",
			},
			Translation: "a teaching about rain",
			Summary:     "the flood as purification",
			Keywords:    []string{"mabul"},
		},
	})
}

func TestAsk_EndToEnd(t *testing.T) {
	a := newTestApp(t, "Faith is the root of divine service [p1].")

	query := models.Query{
		Text:    "what is the role of faith",
		Filters: models.QueryFilters{BookName: "Likutei", ParshaName: "Bereshit"},
	}
	run, err := a.Ask(context.Background(), query, 1)

	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	require.Len(t, run.Evidence, 1)
	assert.Equal(t, "p1", run.Evidence[0].PassageID)
	assert.Equal(t, []string{"p1"}, run.Answer.Citations)

	// The run is discoverable through storage
	stored, err := a.StorageManager.RunStorage().GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.Answer, stored.Answer)
}

func TestAsk_NoEvidenceRecordsCompletedRunWithoutCitations(t *testing.T) {
	a := newTestApp(t, "never called")

	run, err := a.Ask(context.Background(), models.Query{Text: "zzzz qqqq"}, 5)

	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Empty(t, run.Evidence)
	assert.Equal(t, models.InsufficientEvidenceAnswer, run.Answer.Text)
	assert.Empty(t, run.Answer.Citations)
}

func TestAsk_DefaultsKFromConfig(t *testing.T) {
	a := newTestApp(t, "About faith [p1].")

	run, err := a.Ask(context.Background(), models.Query{Text: "faith"}, 0)

	require.NoError(t, err)
	assert.LessOrEqual(t, len(run.Evidence), a.Config.Retrieval.K)
	assert.NotEmpty(t, run.Evidence)
}

func TestAsk_ConcurrentQueries(t *testing.T) {
	a := newTestApp(t, "Faith matters [p1].")

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			query := models.Query{Text: fmt.Sprintf("faith question %d", n)}
			run, err := a.Ask(context.Background(), query, 2)
			if err != nil {
				errs <- err
				return
			}
			if run.Status != models.RunStatusCompleted {
				errs <- fmt.Errorf("unexpected status %s", run.Status)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent ask failed: %v", err)
	}

	runs, err := a.StorageManager.RunStorage().ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, workers)
}

func TestAsk_CancelledContextRecordsCancelledRun(t *testing.T) {
	a := newTestApp(t, "unused")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := a.Ask(ctx, models.Query{Text: "faith"}, 1)

	require.Error(t, err)
	assert.Equal(t, models.RunStatusCancelled, run.Status)
	assert.NotEmpty(t, run.Error)

	stored, err := a.StorageManager.RunStorage().GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCancelled, stored.Status)
}

func TestLoadCorpus_SwapsSnapshotAtomically(t *testing.T) {
	a := newTestApp(t, "answer [p1].")
	before := a.Corpus()

	replacement := models.NewCorpus([]models.EnrichedPassage{
		{
			PassageRecord: models.PassageRecord{BookName: "Likutei", ParshaName: "Shemot", DvarTorahID: "1", PassageID: "p9", PassageContent: "x"},
			Translation:   "t", Summary: "s", Keywords: []string{"k"},
		},
	})
	a.SetCorpus(replacement)

	assert.Equal(t, 2, before.Len())
	assert.Equal(t, 1, a.Corpus().Len())
}
