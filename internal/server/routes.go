package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Jobs
	mux.HandleFunc("/jobs/", s.handleJobRoutes) // GET (list), POST (upload), GET /{id}

	// Artifacts
	mux.HandleFunc("/preview/", s.app.ArtifactHandler.PreviewHandler)   // GET /{id}
	mux.HandleFunc("/download/", s.app.ArtifactHandler.DownloadHandler) // GET /{id}

	// Approval
	mux.HandleFunc("/approval/", s.app.ApprovalHandler.ApproveHandler) // POST /{id}

	// Master data
	mux.HandleFunc("/master-data/", s.app.MasterDataHandler.CollectionHandler) // GET (list), POST (upsert)

	// Model registry
	mux.HandleFunc("/models/history", s.app.RegistryHandler.HistoryHandler) // GET

	// System
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/version", s.app.APIHandler.VersionHandler)

	// 404 handler for unmatched routes
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleJobRoutes dispatches /jobs/ between the collection and the
// per-job detail endpoint.
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/jobs/" || r.URL.Path == "/jobs" {
		s.app.JobHandler.CollectionHandler(w, r)
		return
	}
	s.app.JobHandler.DetailHandler(w, r)
}
