// Package web serves the browser UI and the JSON API behind it.
package web

import (
	"embed"
	"encoding/json"
	"net/http"

	"github.com/zepa1/nfekey/internal/journal"
	"github.com/zepa1/nfekey/internal/logging"
	"github.com/zepa1/nfekey/internal/scanner"
	"github.com/zepa1/nfekey/internal/store"
)

//go:embed static
var staticFS embed.FS

// Server holds the handler dependencies.
type Server struct {
	Scanner *scanner.Scanner
	Store   *store.Store
	Journal *journal.Journal
	Log     *logging.Logger
	Metrics bool
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}
