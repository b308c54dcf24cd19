package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/regchunk/internal/config"
	"github.com/dgallion1/regchunk/internal/embed"
	"github.com/dgallion1/regchunk/internal/index"
	"github.com/dgallion1/regchunk/internal/pipeline"
	"github.com/dgallion1/regchunk/internal/storage"
)

// DocumentIndex is the part of the vector index the API serves from.
type DocumentIndex interface {
	Search(ctx context.Context, query string, k int, docID string) ([]index.Hit, error)
	Delete(ctx context.Context, docID string) error
}

// Server is the HTTP API server for regchunk.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	index        DocumentIndex
	catalog      *storage.Catalog
	stats        *embed.LatencyStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(orch *pipeline.Orchestrator, idx DocumentIndex, catalog *storage.Catalog, stats *embed.LatencyStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		index:        idx,
		catalog:      catalog,
		stats:        stats,
		log:          log,
		cfg:          cfg,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/chunk", s.handleChunk)
		r.Get("/api/search", s.handleSearch)
		r.Get("/api/stats/embeddings", s.handleEmbeddingStats)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Get("/api/documents/{docID}/chunks/{chunkID}", s.handleGetChunk)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
