package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Optimization
	mux.HandleFunc("/api/optimize", s.app.OptimizeHandler.HandleOptimize)          // POST - single page
	mux.HandleFunc("/api/optimize/bulk", s.app.OptimizeHandler.HandleBulkOptimize) // POST - bulk batch
	mux.HandleFunc("/api/cancel", s.app.OptimizeHandler.HandleCancel)              // POST - cancel active job
	mux.HandleFunc("/api/batch/abort", s.app.OptimizeHandler.HandleAbortBatch)     // POST - abort running batch
	mux.HandleFunc("/api/batch/report", s.app.OptimizeHandler.HandleBatchReport)   // GET - PDF report for last batch

	// API routes - Status and inspection
	mux.HandleFunc("/api/status", s.app.StatusHandler.HandleStatus)   // GET - application status
	mux.HandleFunc("/api/jobs", s.app.StatusHandler.HandleJobs)       // GET - all known jobs
	mux.HandleFunc("/api/job", s.app.StatusHandler.HandleJob)         // GET - single job by ?url=
	mux.HandleFunc("/api/pages", s.app.StatusHandler.HandlePages)     // GET - page catalog
	mux.HandleFunc("/api/history", s.app.StatusHandler.HandleHistory) // GET - optimization history

	return mux
}
