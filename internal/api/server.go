package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/qaindex/internal/config"
	"github.com/dgallion1/qaindex/internal/corpus"
	"github.com/dgallion1/qaindex/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for qaindex.
type Server struct {
	router  chi.Router
	corpus  *corpus.Corpus
	metrics *metrics.Collector
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server. m may be nil, in which
// case /metrics and the query stats endpoint are not served.
func NewServer(c *corpus.Corpus, m *metrics.Collector, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		corpus:  c,
		metrics: m,
		log:     log,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(RequestMetrics(s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/api/search", s.handleSearch)
	r.Get("/api/sections/{id}", s.handleGetSection)
	r.Get("/api/documents", s.handleListDocuments)
	r.Get("/api/stats/query", s.handleQueryStats)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		r.Post("/api/reload", s.handleReload)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"corpus": s.corpus.State(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
