package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/regchunk/internal/contextutil"
	"github.com/dgallion1/regchunk/internal/regdoc"
	"github.com/dgallion1/regchunk/internal/storage"
)

// handleListDocuments lists every published document.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.catalog.ListDocuments(r.Context())
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []storage.DocumentRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// handleGetDocument returns a document with its chunk metadata in order.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	doc, err := s.catalog.GetDocument(r.Context(), docID)
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	chunks, err := s.catalog.ListChunks(r.Context(), docID)
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	metas := make([]regdoc.Metadata, 0, len(chunks))
	for _, c := range chunks {
		metas = append(metas, c.Metadata)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document": doc,
		"chunks":   metas,
	})
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	rec, err := s.catalog.GetChunk(r.Context(), chi.URLParam(r, "docID"), chi.URLParam(r, "chunkID"))
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec.Chunk())
}

// handleDeleteDocument unpublishes a document and drops its vectors.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.index.Delete(r.Context(), docID); err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "deleted": true})
}

// handleSearch returns the chunks nearest to q, optionally within one
// document.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	k := s.cfg.SearchK
	if v := q.Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "k must be a positive integer", http.StatusBadRequest)
			return
		}
		k = n
	}

	hits, err := s.index.Search(r.Context(), query, k, q.Get("doc_id"))
	if err != nil {
		s.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"k":       k,
		"results": hits,
	})
}

// storageError maps catalog misses to 404 and everything else to 500.
func (s *Server) storageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	contextutil.LoggerFromContext(r.Context(), s.log).Error("request failed", "path", r.URL.Path, "error", err)
	jsonError(w, err.Error(), http.StatusInternalServerError)
}
