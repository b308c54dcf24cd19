package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/regchunk/internal/chunker"
	"github.com/dgallion1/regchunk/internal/contextutil"
	"github.com/dgallion1/regchunk/internal/index"
	"github.com/dgallion1/regchunk/internal/ingest"
	"github.com/dgallion1/regchunk/internal/parser"
	"github.com/dgallion1/regchunk/internal/pipeline"
	"github.com/dgallion1/regchunk/internal/regdoc"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	docID := r.FormValue("doc_id")
	if docID == "" {
		docID = index.DocIDFromFilename(up.filename)
	}
	if err := index.ValidateDocID(docID); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	chunking, err := chunkOverrides(r, s.cfg.Chunking())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(docID, up.filename, r.FormValue("title"), up.data)
	job.Force = r.FormValue("force") == "true"
	job.Chunking = chunking

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	contextutil.LoggerFromContext(r.Context(), s.log).Info("ingest queued",
		"job_id", job.ID, "doc_id", docID, "filename", up.filename, "bytes", len(up.data))

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleChunk runs a pass without publishing and returns the chunks.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, parseOpts := s.orchestrator.Options()
	chunking, err := chunkOverrides(r, opts.Chunking)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts.Chunking = chunking

	log := contextutil.LoggerFromContext(r.Context(), s.log)
	in, err := ingest.New(opts, nil, log)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	reader, err := parser.ForFile(up.filename, parseOpts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	pages, err := reader.ReadPages(bytes.NewReader(up.data), up.filename)
	if err != nil {
		jsonError(w, "read pages: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	doc := regdoc.Document{
		ID:          index.DocIDFromFilename(up.filename),
		Filename:    up.filename,
		Title:       r.FormValue("title"),
		ContentHash: pipeline.PagesHashHex(pages),
	}
	batch := in.Structure(doc, pages)
	if err := in.Split(batch); err != nil {
		if errors.Is(err, ingest.ErrNoContent) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"document":    batch.Doc,
		"pages":       batch.Pages,
		"lines":       batch.Lines,
		"block_count": len(batch.Blocks),
		"chunk_count": len(batch.Chunks),
		"chunks":      batch.Chunks,
	}
	if r.FormValue("blocks") == "true" {
		resp["blocks"] = batch.Blocks
	}
	writeJSON(w, http.StatusOK, resp)
}

type upload struct {
	filename string
	data     []byte
}

// readUpload parses the multipart form and reads its "file" part. On
// failure it writes the error response and returns false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer file.Close()

	up, status, err := s.readFile(file, header)
	if err != nil {
		r.MultipartForm.RemoveAll()
		jsonError(w, err.Error(), status)
		return upload{}, false
	}
	return up, true
}

func (s *Server) readFile(file multipart.File, header *multipart.FileHeader) (upload, int, error) {
	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		return upload{}, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return upload{}, http.StatusInternalServerError, errors.New("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return upload{}, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	return upload{filename: filename, data: data}, http.StatusOK, nil
}

// chunkOverrides applies the chunk_size and overlap form values to base.
func chunkOverrides(r *http.Request, base chunker.Config) (chunker.Config, error) {
	cfg := base
	if v := r.FormValue("chunk_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid chunk_size %q", v)
		}
		cfg.ChunkSize = n
	}
	if v := r.FormValue("overlap"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid overlap %q", v)
		}
		cfg.ChunkOverlap = n
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
