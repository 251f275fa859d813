package api

import (
	"net/http"
)

func (s *Server) handleQueryStats(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil || s.metrics.QueryStats == nil {
		jsonError(w, "query stats unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := map[string]any{
		"corpus":  s.corpus.State(),
		"queries": s.metrics.QueryStats.Snapshot(),
	}
	if snap := s.corpus.Snapshot(); snap != nil {
		resp["dir"] = snap.Dir
		resp["loaded_at"] = snap.LoadedAt
		resp["report"] = snap.Report
	}
	writeJSON(w, http.StatusOK, resp)
}
