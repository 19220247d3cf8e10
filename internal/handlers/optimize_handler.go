package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/jobs"
	"github.com/ternarybob/scribo/internal/models"
	"github.com/ternarybob/scribo/internal/services/report"
)

// OptimizeHandler exposes the optimization operations over HTTP
type OptimizeHandler struct {
	jobs    *jobs.Service
	reports *report.Service
	logger  arbor.ILogger

	mu          sync.RWMutex
	lastSummary *models.BatchSummary
}

// NewOptimizeHandler creates the optimize handler
func NewOptimizeHandler(jobService *jobs.Service, reportService *report.Service, logger arbor.ILogger) *OptimizeHandler {
	return &OptimizeHandler{
		jobs:    jobService,
		reports: reportService,
		logger:  logger,
	}
}

type optimizeRequest struct {
	TargetURL string `json:"target_url"`
	Keyword   string `json:"keyword"`
}

type bulkRequest struct {
	URLs        []string `json:"urls"`
	Concurrency int      `json:"concurrency"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// HandleOptimize starts a single optimization job and streams its result.
// The call blocks until the job reaches a terminal state; live progress goes
// out over the websocket.
func (h *OptimizeHandler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	result := h.jobs.RunSingleJob(r.Context(), req.TargetURL, req.Keyword, false)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// HandleBulkOptimize runs a bulk batch and returns its summary
func (h *OptimizeHandler) HandleBulkOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "urls is required")
		return
	}

	summary := h.jobs.RunBulkBatch(r.Context(), req.URLs, req.Concurrency)

	h.mu.Lock()
	h.lastSummary = summary
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, summary)
}

// HandleCancel cancels the active single job
func (h *OptimizeHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req cancelRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Reason == "" {
		req.Reason = "cancelled via API"
	}

	if !h.jobs.RequestCancellation(req.Reason) {
		writeError(w, http.StatusConflict, "no active job to cancel")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

// HandleAbortBatch stops the running bulk batch before its next wave
func (h *OptimizeHandler) HandleAbortBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.jobs.AbortBatch()
	writeJSON(w, http.StatusOK, map[string]string{"status": "aborting"})
}

// HandleBatchReport renders the last batch summary as a PDF
func (h *OptimizeHandler) HandleBatchReport(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	summary := h.lastSummary
	h.mu.RUnlock()

	if summary == nil {
		writeError(w, http.StatusNotFound, "no batch has run yet")
		return
	}

	data, err := h.reports.BatchReport(summary)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to render batch report")
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", summary.BatchID))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
