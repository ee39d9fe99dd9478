package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/pinta-partners/maggid/internal/models"
)

// Asker is the query pipeline surface the handler depends on.
type Asker interface {
	Ask(ctx context.Context, query models.Query, k int) (*models.Run, error)
}

// AskHandler serves the question-answering endpoint.
type AskHandler struct {
	asker  Asker
	logger arbor.ILogger
}

// NewAskHandler creates an ask handler.
func NewAskHandler(asker Asker, logger arbor.ILogger) *AskHandler {
	return &AskHandler{
		asker:  asker,
		logger: logger,
	}
}

// askRequest is the POST /api/ask request body.
type askRequest struct {
	Question string              `json:"question"`
	Filters  models.QueryFilters `json:"filters"`
	K        int                 `json:"k"`
}

// HandleAsk handles POST /api/ask: runs the retrieval and synthesis pipeline
// for a question and returns the recorded run.
func (h *AskHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	query := models.Query{Text: req.Question, Filters: req.Filters}
	run, err := h.asker.Ask(r.Context(), query, req.K)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client went away; nothing useful to write
			return
		}
		h.logger.Error().Err(err).Str("question", req.Question).Msg("Ask pipeline failed")
		writeError(w, http.StatusInternalServerError, "query failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, run)
}
