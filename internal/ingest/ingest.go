// Package ingest runs one document pass: pages are annotated, grouped into
// section blocks, split into chunks and handed to a Sink as a single batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/dgallion1/regchunk/internal/chunker"
	"github.com/dgallion1/regchunk/internal/regdoc"
	"github.com/dgallion1/regchunk/internal/structure"
)

var (
	// ErrNoContent means the pages produced no chunks at all.
	ErrNoContent = errors.New("no content produced")
	// ErrIndexing wraps any failure returned by the Sink.
	ErrIndexing = errors.New("indexing failed")
)

// Sink receives the finished chunk list of one document. An error leaves
// nothing published for the pass.
type Sink interface {
	Publish(ctx context.Context, doc regdoc.Document, chunks []regdoc.Chunk) error
}

// Options configures a pass.
type Options struct {
	Chunking        chunker.Config
	BodyStartMarker string
	StartInTOC      bool
}

// Batch accumulates the output of a pass.
type Batch struct {
	Doc    regdoc.Document
	Pages  int
	Lines  int
	Blocks []regdoc.Block
	Chunks []regdoc.Chunk
}

// Ingester holds no per-document state, so one value may run passes for
// different documents concurrently.
type Ingester struct {
	annotator structure.Annotator
	chunker   *chunker.Chunker
	sink      Sink
	log       *slog.Logger
}

// New validates opts. sink may be nil for dry runs that never call Emit.
func New(opts Options, sink Sink, log *slog.Logger) (*Ingester, error) {
	if opts.StartInTOC && opts.BodyStartMarker == "" {
		return nil, fmt.Errorf("body start marker required when starting inside the table of contents")
	}
	c, err := chunker.New(opts.Chunking)
	if err != nil {
		return nil, fmt.Errorf("chunker config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ingester{
		annotator: structure.Annotator{
			BodyStartMarker: opts.BodyStartMarker,
			StartInTOC:      opts.StartInTOC,
		},
		chunker: c,
		sink:    sink,
		log:     log,
	}, nil
}

// Structure annotates pages and assembles section blocks.
func (in *Ingester) Structure(doc regdoc.Document, pages []regdoc.Page) *Batch {
	b := &Batch{Doc: doc, Pages: len(pages)}
	if b.Doc.PageCount == 0 {
		b.Doc.PageCount = len(pages)
	}
	b.Blocks = structure.Assemble(counted(in.annotator.Annotate(pages), &b.Lines))
	return b
}

// Split chunks the batch's blocks. A batch that yields no chunks fails with
// ErrNoContent.
func (in *Ingester) Split(b *Batch) error {
	b.Chunks = in.chunker.ChunkBlocks(b.Blocks)
	in.log.Info("chunked document",
		"doc_id", b.Doc.ID,
		"pages", b.Pages,
		"lines", b.Lines,
		"blocks", len(b.Blocks),
		"chunks", len(b.Chunks),
	)
	if len(b.Chunks) == 0 {
		return fmt.Errorf("document %q: %w", b.Doc.ID, ErrNoContent)
	}
	return nil
}

// Emit hands every chunk of the batch to the sink in one call. There is no
// retry here; the caller decides whether to re-run the whole pass.
func (in *Ingester) Emit(ctx context.Context, b *Batch) error {
	if len(b.Chunks) == 0 {
		return fmt.Errorf("document %q: %w", b.Doc.ID, ErrNoContent)
	}
	if in.sink == nil {
		return fmt.Errorf("%w: no sink configured", ErrIndexing)
	}
	if err := in.sink.Publish(ctx, b.Doc, b.Chunks); err != nil {
		in.log.Error("emit failed", "doc_id", b.Doc.ID, "chunks", len(b.Chunks), "error", err)
		return fmt.Errorf("%w: %w", ErrIndexing, err)
	}
	in.log.Info("emitted chunks", "doc_id", b.Doc.ID, "chunks", len(b.Chunks))
	return nil
}

// Run performs a whole pass. On error nothing from the pass is published.
func (in *Ingester) Run(ctx context.Context, doc regdoc.Document, pages []regdoc.Page) (*Batch, error) {
	b := in.Structure(doc, pages)
	if err := in.Split(b); err != nil {
		return b, err
	}
	if err := in.Emit(ctx, b); err != nil {
		return b, err
	}
	return b, nil
}

func counted(seq iter.Seq[regdoc.AnnotatedLine], n *int) iter.Seq[regdoc.AnnotatedLine] {
	return func(yield func(regdoc.AnnotatedLine) bool) {
		for l := range seq {
			*n++
			if !yield(l) {
				return
			}
		}
	}
}
