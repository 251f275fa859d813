package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/qaindex/internal/corpus"
)

// handleReload rebuilds the corpus from its directory and swaps it in.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	dir := s.corpus.Dir()
	if dir == "" {
		dir = s.cfg.CorpusDir
	}

	report, err := s.corpus.Reload(r.Context(), dir)
	switch {
	case errors.Is(err, corpus.ErrNotLoaded):
		jsonError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		jsonError(w, "reload failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"report": report,
	})
}
