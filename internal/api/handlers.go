package api

import (
	"encoding/json"
	"net/http"

	"github.com/arigen-tech/docstream/internal/index"
)

// SelectedSearchRequest is the body of POST /search/selected.
type SelectedSearchRequest struct {
	Query       string  `json:"query"`
	SelectedIDs []int64 `json:"selected_ids"`
}

// SearchResponse wraps search hits for both search endpoints.
type SearchResponse struct {
	Matches []index.Match `json:"matches"`
}

// FilesResponse lists every indexed document.
type FilesResponse struct {
	Files []index.Match `json:"files"`
}

// CleanResponse acknowledges an index reset.
type CleanResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.index.Files(r.Context())
	if err != nil {
		s.fail(w, "list files", err)
		return
	}
	if files == nil {
		files = []index.Match{}
	}
	writeJSON(w, http.StatusOK, FilesResponse{Files: files})
}

func (s *Server) handleSearchAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		http.Error(w, "query parameter is required", http.StatusBadRequest)
		return
	}
	s.search(w, r, query, nil)
}

func (s *Server) handleSearchSelected(w http.ResponseWriter, r *http.Request) {
	var req SelectedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	s.search(w, r, req.Query, req.SelectedIDs)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, query string, idFilter []int64) {
	matches, err := s.index.Search(r.Context(), query, idFilter)
	if err != nil {
		s.fail(w, "search", err)
		return
	}
	if matches == nil {
		matches = []index.Match{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Matches: matches})
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	if err := s.index.DeleteAll(r.Context()); err != nil {
		s.fail(w, "clean index", err)
		return
	}
	s.logger.Info("search index reset")
	writeJSON(w, http.StatusOK, CleanResponse{Status: "cleaned"})
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
