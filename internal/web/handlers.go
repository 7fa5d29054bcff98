package web

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/zepa1/nfekey/internal/capture"
	"github.com/zepa1/nfekey/internal/journal"
	"github.com/zepa1/nfekey/internal/scanner"
	"github.com/zepa1/nfekey/internal/store"
)

// 10 MB is plenty for a camera frame or a receipt photo.
const maxUploadBytes = 10 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "page not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "OK")
}

type scanResponse struct {
	Results []scanner.Result `json:"results"`
	Message string           `json:"message"`
}

// handleScan accepts one frame, either as a multipart form with an "image"
// field (the upload tab) or as a raw encoded image body (the webcam capture
// loop), and runs a scan cycle over it.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}

	body, err := frameReader(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	img, err := capture.Image(io.LimitReader(body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read image: "+err.Error())
		return
	}

	results, err := s.Scanner.ProcessImage(source, img)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, scanResponse{
		Results: results,
		Message: scanMessage(results),
	})
}

func frameReader(r *http.Request) (io.ReadCloser, error) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("parse upload: %v", err)
	}
	f, _, err := r.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("missing image field: %v", err)
	}
	return f, nil
}

func scanMessage(results []scanner.Result) string {
	if len(results) == 0 {
		return "no valid QR detected"
	}
	var parts []string
	for _, res := range results {
		switch res.Status {
		case scanner.StatusSaved:
			parts = append(parts, "new access key saved: "+res.AccessKey)
		case scanner.StatusDuplicate:
			parts = append(parts, "duplicate, already recorded: "+res.AccessKey)
		case scanner.StatusNoKey:
			parts = append(parts, "QR payload contains no access key")
		}
	}
	return strings.Join(parts, "; ")
}

// handleRecords returns every stored record, newest first.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	recs := s.Store.All()
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.After(recs[j].Timestamp)
	})
	out := make([]map[string]string, 0, len(recs))
	for _, rec := range recs {
		out = append(out, map[string]string{
			"access_key": rec.AccessKey,
			"timestamp":  rec.Timestamp.Format(store.TimeLayout),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type statsResponse struct {
	TotalRecords int      `json:"total_records"`
	UniqueKeys   int      `json:"unique_keys"`
	Recent       []string `json:"recent"`
}

// handleStats mirrors the sidebar of the original collection tool: totals
// plus the five most recent keys.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	recs := s.Store.All()
	recent := make([]string, 0, 5)
	for i := len(recs) - 1; i >= 0 && len(recent) < 5; i-- {
		recent = append(recent, recs[i].AccessKey)
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalRecords: len(recs),
		UniqueKeys:   len(recs), // store deduplicates on append
		Recent:       recent,
	})
}

type journalResponse struct {
	Entries  []journal.Entry `json:"entries"`
	Verified bool            `json:"verified"`
}

// handleJournal returns the scan event log along with the result of a hash
// chain verification pass.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Journal.Entries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	verified := s.Journal.Verify() == nil
	if !verified {
		s.Log.Warn("journal hash chain failed verification")
	}
	writeJSON(w, http.StatusOK, journalResponse{Entries: entries, Verified: verified})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="access_keys.csv"`)
	if err := s.Store.Export(w); err != nil {
		s.Log.Errorf("export: %v", err)
	}
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	removed := s.Store.Count()
	if err := s.Store.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.Log.Infof("store cleared, %d records removed", removed)
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
