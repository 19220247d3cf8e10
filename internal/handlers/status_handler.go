package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/jobs"
	"github.com/ternarybob/scribo/internal/models"
)

// StatusHandler exposes read-only job, progress and catalogue state
type StatusHandler struct {
	jobs    *jobs.Service
	catalog interfaces.CatalogStorage
	history interfaces.HistoryStorage
	logger  arbor.ILogger
}

// NewStatusHandler creates the status handler
func NewStatusHandler(jobService *jobs.Service, catalog interfaces.CatalogStorage, history interfaces.HistoryStorage, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		jobs:    jobService,
		catalog: catalog,
		history: history,
		logger:  logger,
	}
}

// HandleStatus reports service health and the active job snapshot
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
	}

	if snapshot, active := h.jobs.Progress(); active {
		response["active_job"] = map[string]interface{}{
			"phase":   string(snapshot.Phase),
			"step":    snapshot.Step,
			"percent": snapshot.Percent(),
			"eta":     snapshot.ETA(time.Now()),
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleJobs lists all known job records
func (h *StatusHandler) HandleJobs(w http.ResponseWriter, r *http.Request) {
	jobList := h.jobs.Jobs()
	if jobList == nil {
		jobList = []*models.Job{}
	}
	writeJSON(w, http.StatusOK, jobList)
}

// HandleJob returns one job record by target URL
func (h *StatusHandler) HandleJob(w http.ResponseWriter, r *http.Request) {
	targetURL := r.URL.Query().Get("url")
	if targetURL == "" {
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	job, ok := h.jobs.JobStatus(targetURL)
	if !ok {
		writeError(w, http.StatusNotFound, "no job for target")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// HandlePages lists the page catalogue
func (h *StatusHandler) HandlePages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.catalog.ListPages(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list pages")
		writeError(w, http.StatusInternalServerError, "failed to list pages")
		return
	}
	if pages == nil {
		pages = []*models.PageEntry{}
	}
	writeJSON(w, http.StatusOK, pages)
}

// HandleHistory lists optimization records, optionally filtered by page
func (h *StatusHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.history.ListRecords(r.Context(), r.URL.Query().Get("url"), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list history")
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if records == nil {
		records = []*models.OptimizationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
