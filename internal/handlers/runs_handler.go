package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/pinta-partners/maggid/internal/interfaces"
)

// RunsHandler serves the recorded-run endpoints.
type RunsHandler struct {
	storage interfaces.RunStorage
	logger  arbor.ILogger
}

// NewRunsHandler creates a runs handler.
func NewRunsHandler(storage interfaces.RunStorage, logger arbor.ILogger) *RunsHandler {
	return &RunsHandler{
		storage: storage,
		logger:  logger,
	}
}

// HandleList handles GET /api/runs: all recorded runs in creation order.
func (h *RunsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	runs, err := h.storage.ListRuns()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"runs":  runs,
	})
}

// HandleGet handles GET /api/runs/{id}: one recorded run by id.
func (h *RunsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.storage.GetRun(runID)
	if err != nil {
		if errors.Is(err, interfaces.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found: "+runID)
			return
		}
		h.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to get run")
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}
