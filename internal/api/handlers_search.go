package api

import (
	"net/http"
	"strconv"

	"github.com/dgallion1/qaindex/internal/corpus"
	"github.com/dgallion1/qaindex/internal/index"
)

type searchResponse struct {
	Query   string          `json:"query"`
	Mode    index.Mode      `json:"mode"`
	Count   int             `json:"count"`
	Results []corpus.Result `json:"results"`
}

// handleSearch answers a free-text query against the live corpus.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	mode := s.cfg.DefaultQueryMode
	if raw := q.Get("mode"); raw != "" {
		m, err := index.ParseMode(raw)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		mode = m
	}
	if mode == "" {
		mode = index.ModeAny
	}

	limit := s.cfg.MaxResults
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		if limit <= 0 || n < limit {
			limit = n
		}
	}

	text := q.Get("q")
	results := s.corpus.Query(text, mode, limit)
	writeJSON(w, http.StatusOK, searchResponse{
		Query:   text,
		Mode:    mode,
		Count:   len(results),
		Results: results,
	})
}
