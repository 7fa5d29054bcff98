package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/zepa1/nfekey/internal/metrics"
)

// NewRouter registers the UI and API routes.
func NewRouter(s *Server) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/scan", s.handleScan).Methods("POST")
	r.HandleFunc("/api/records", s.handleRecords).Methods("GET")
	r.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	r.HandleFunc("/api/journal", s.handleJournal).Methods("GET")
	r.HandleFunc("/api/clear", s.handleClear).Methods("POST")
	r.HandleFunc("/export/access_keys.csv", s.handleExport).Methods("GET")
	if s.Metrics {
		r.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.PathPrefix("/static/").Handler(http.FileServer(http.FS(staticFS)))
	return r
}
