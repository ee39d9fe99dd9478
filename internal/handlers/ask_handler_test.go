package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinta-partners/maggid/internal/common"
	"github.com/pinta-partners/maggid/internal/models"
)

// fakeAsker records the last query and returns a canned run.
type fakeAsker struct {
	run       *models.Run
	err       error
	lastQuery models.Query
	lastK     int
}

func (f *fakeAsker) Ask(ctx context.Context, query models.Query, k int) (*models.Run, error) {
	f.lastQuery = query
	f.lastK = k
	return f.run, f.err
}

func TestHandleAsk_Success(t *testing.T) {
	asker := &fakeAsker{run: &models.Run{
		RunID:  "run_test",
		Status: models.RunStatusCompleted,
		Answer: models.Answer{Text: "answer [p1]", Citations: []string{"p1"}},
	}}
	handler := NewAskHandler(asker, common.GetLogger())

	body := `{"question": "what is faith", "filters": {"book_name": "Likutei"}, "k": 3}`
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandleAsk(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "what is faith", asker.lastQuery.Text)
	assert.Equal(t, "Likutei", asker.lastQuery.Filters.BookName)
	assert.Equal(t, 3, asker.lastK)

	var run models.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "run_test", run.RunID)
	assert.Equal(t, []string{"p1"}, run.Answer.Citations)
}

func TestHandleAsk_RequiresQuestion(t *testing.T) {
	handler := NewAskHandler(&fakeAsker{}, common.GetLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question": "  "}`))
	rec := httptest.NewRecorder()

	handler.HandleAsk(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAsk_RejectsGet(t *testing.T) {
	handler := NewAskHandler(&fakeAsker{}, common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/ask", nil)
	rec := httptest.NewRecorder()

	handler.HandleAsk(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleAsk_PipelineError(t *testing.T) {
	handler := NewAskHandler(&fakeAsker{err: errors.New("provider down")}, common.GetLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question": "q"}`))
	rec := httptest.NewRecorder()

	handler.HandleAsk(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "query failed")
}

func TestHandleAsk_InvalidBody(t *testing.T) {
	handler := NewAskHandler(&fakeAsker{}, common.GetLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.HandleAsk(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
