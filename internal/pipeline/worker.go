package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/regchunk/internal/ingest"
	"github.com/dgallion1/regchunk/internal/parser"
	"github.com/dgallion1/regchunk/internal/regdoc"
	"github.com/dgallion1/regchunk/internal/storage"
)

// Publisher stores the chunks of a document and reports whether a
// document already has a usable index.
type Publisher interface {
	ingest.Sink
	Loaded(ctx context.Context, docID string) (bool, error)
}

// HashLookup finds a published document by content hash.
type HashLookup interface {
	FindByHash(ctx context.Context, hash string) (*storage.DocumentRecord, error)
}

// Worker processes a single document job.
type Worker struct {
	publisher Publisher
	lookup    HashLookup
	log       *slog.Logger
	opts      ingest.Options
	parseOpts parser.Options
}

func NewWorker(publisher Publisher, lookup HashLookup, log *slog.Logger, opts ingest.Options, parseOpts parser.Options) *Worker {
	return &Worker{
		publisher: publisher,
		lookup:    lookup,
		log:       log,
		opts:      opts,
		parseOpts: parseOpts,
	}
}

// Process runs the full ingest pipeline for a job. The returned error is
// also recorded on the job.
func (w *Worker) Process(ctx context.Context, job *Job) error {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Read pages
	job.SetStatus(StatusReading, "reading")
	r, err := parser.ForFile(job.Filename, w.parseOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.Fail("reading", err)
		return err
	}
	pages, err := r.ReadPages(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("read failed", "error", err)
		err = fmt.Errorf("read pages: %w", err)
		job.Fail("reading", err)
		return err
	}
	job.releaseFileData()

	hash := PagesHashHex(pages)
	job.setContentHash(hash)

	// Phase 1.5: Dedup check
	if !job.Force {
		existing, err := w.checkDuplicate(ctx, hash)
		if err != nil {
			log.Warn("dedup check failed, proceeding", "error", err)
		} else if existing != "" {
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.MarkDuplicate(existing)
			return nil
		}
	}

	opts := w.opts
	if job.Chunking.ChunkSize > 0 {
		opts.Chunking.ChunkSize = job.Chunking.ChunkSize
		opts.Chunking.ChunkOverlap = job.Chunking.ChunkOverlap
		if len(job.Chunking.Separators) > 0 {
			opts.Chunking.Separators = job.Chunking.Separators
		}
	}
	in, err := ingest.New(opts, w.publisher, log)
	if err != nil {
		job.Fail("chunking", err)
		return err
	}

	doc := regdoc.Document{
		ID:          job.DocID,
		Filename:    job.Filename,
		Title:       job.Title,
		ContentHash: hash,
		PageCount:   len(pages),
	}

	// Phase 2: Annotate and assemble blocks
	job.SetStatus(StatusAnnotating, "annotating")
	batch := in.Structure(doc, pages)
	job.SetCounts(batch.Pages, batch.Lines, len(batch.Blocks), 0)

	// Phase 3: Chunk
	job.SetStatus(StatusChunking, "chunking")
	if err := in.Split(batch); err != nil {
		log.Warn("no chunks produced")
		job.Fail("chunking", err)
		return err
	}
	job.SetCounts(batch.Pages, batch.Lines, len(batch.Blocks), len(batch.Chunks))

	// Phase 4: Embed and publish
	job.SetStatus(StatusIndexing, "indexing")
	if err := in.Emit(ctx, batch); err != nil {
		job.Fail("indexing", err)
		return err
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("document ingested", "chunks", len(batch.Chunks))
	return nil
}

// checkDuplicate returns the id of a published document with the same
// content, or "" when there is none.
func (w *Worker) checkDuplicate(ctx context.Context, hash string) (string, error) {
	if w.lookup == nil {
		return "", nil
	}
	rec, err := w.lookup.FindByHash(ctx, hash)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// PagesHashHex is the content hash of a parsed document: SHA-256 over the
// page texts joined by form feeds. Every entry point that reports a
// content_hash uses it, so the same file hashes the same way everywhere.
func PagesHashHex(pages []regdoc.Page) string {
	return ContentHashHex([]byte(joinPages(pages)))
}

// joinPages flattens page text for hashing. Page breaks count so that two
// documents differing only in pagination hash differently.
func joinPages(pages []regdoc.Page) string {
	var sb strings.Builder
	for i, p := range pages {
		if i > 0 {
			sb.WriteByte('\f')
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}
