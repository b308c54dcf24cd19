// Package index publishes chunk batches to the vector store and the catalog
// as one unit, and serves similarity search over published documents.
package index

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_embedder.go -package=mocks github.com/dgallion1/regchunk/internal/index Embedder

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dgallion1/regchunk/internal/regdoc"
	"github.com/dgallion1/regchunk/internal/storage"
	"github.com/dgallion1/regchunk/internal/vectorstore"
)

// Embedder turns texts into vectors of a fixed size.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Options configures an Index.
type Options struct {
	// Collection prefixes every document alias and staging collection.
	Collection string
	// BatchSize bounds texts per embedding request.
	BatchSize int
}

// Index is the indexing collaborator for ingestion passes.
type Index struct {
	store    vectorstore.VectorStore
	catalog  *storage.Catalog
	embedder Embedder
	opts     Options
	log      *slog.Logger
}

func New(store vectorstore.VectorStore, catalog *storage.Catalog, embedder Embedder, opts Options, log *slog.Logger) *Index {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if log == nil {
		log = slog.Default()
	}
	return &Index{
		store:    store,
		catalog:  catalog,
		embedder: embedder,
		opts:     opts,
		log:      log,
	}
}

var docIDRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidateDocID checks that id can be used in collection and alias names.
func ValidateDocID(id string) error {
	if !docIDRe.MatchString(id) {
		return fmt.Errorf("invalid doc_id %q: use up to 64 letters, digits, '_' or '-'", id)
	}
	return nil
}

var docIDUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// DocIDFromFilename derives a document id from a file name, falling back to
// a random one when nothing usable is left.
func DocIDFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	id := strings.Trim(docIDUnsafe.ReplaceAllString(base, "-"), "-_")
	if len(id) > 64 {
		id = strings.TrimRight(id[:64], "-_")
	}
	if ValidateDocID(id) != nil {
		return uuid.NewString()[:8]
	}
	return id
}

// Alias is the stable name readers use for a document's live collection.
func (ix *Index) Alias(docID string) string {
	return ix.opts.Collection + "_" + docID
}

// PointID derives a stable vector point id from a chunk's identity.
func PointID(docID, chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(docID+"/"+chunkID)).String()
}

// Publish makes chunks the live version of doc. The batch is written to a
// fresh collection which replaces the previous version only after every
// point is stored and the catalog rows are written. On any failure the
// previous version stays live and the fresh collection is dropped.
func (ix *Index) Publish(ctx context.Context, doc regdoc.Document, chunks []regdoc.Chunk) (err error) {
	if err := ValidateDocID(doc.ID); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("publish %s: no chunks", doc.ID)
	}

	log := ix.log.With("doc_id", doc.ID)
	alias := ix.Alias(doc.ID)
	staging := alias + "_" + uuid.NewString()[:8]

	if err := ix.store.EnsureCollection(ctx, staging, ix.embedder.Dimensions()); err != nil {
		return fmt.Errorf("create staging collection: %w", err)
	}
	defer func() {
		if err != nil {
			if derr := ix.store.DropCollection(context.WithoutCancel(ctx), staging); derr != nil {
				log.Warn("drop staging collection failed", "collection", staging, "error", derr)
			}
		}
	}()

	records := make([]storage.ChunkRecord, len(chunks))
	for start := 0; start < len(chunks); start += ix.opts.BatchSize {
		batch := chunks[start:min(start+ix.opts.BatchSize, len(chunks))]

		texts := make([]string, len(batch))
		for i, ch := range batch {
			texts[i] = ch.PageContent
		}
		vecs, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks %d-%d: %w", start, start+len(batch)-1, err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("embed chunks %d-%d: expected %d vectors, got %d", start, start+len(batch)-1, len(batch), len(vecs))
		}

		points := make([]vectorstore.Point, len(batch))
		for i, ch := range batch {
			pid := PointID(doc.ID, ch.Metadata.ChunkID)
			points[i] = vectorstore.Point{ID: pid, Vec: vecs[i], Meta: payload(doc.ID, ch)}
			records[start+i] = storage.ChunkRecord{
				DocID:    doc.ID,
				Seq:      start + i,
				PointID:  pid,
				Metadata: ch.Metadata,
				Text:     ch.PageContent,
			}
		}
		if err := ix.store.Upsert(ctx, staging, points); err != nil {
			return fmt.Errorf("upsert chunks %d-%d: %w", start, start+len(batch)-1, err)
		}
	}

	rec := &storage.DocumentRecord{
		ID:          doc.ID,
		Filename:    doc.Filename,
		Title:       doc.Title,
		ContentHash: doc.ContentHash,
		Collection:  staging,
		PageCount:   doc.PageCount,
	}

	var (
		previous string
		swapped  bool
	)
	err = ix.catalog.ReplaceDocument(ctx, rec, records, func(ctx context.Context) error {
		prev, err := ix.store.SwapAlias(ctx, alias, staging)
		if err != nil {
			return fmt.Errorf("swap alias: %w", err)
		}
		previous, swapped = prev, true
		return nil
	})
	if err != nil {
		if swapped {
			ix.restoreAlias(context.WithoutCancel(ctx), log, alias, previous)
		}
		return fmt.Errorf("publish %s: %w", doc.ID, err)
	}

	if previous != "" && previous != staging {
		if derr := ix.store.DropCollection(ctx, previous); derr != nil {
			log.Warn("drop previous collection failed", "collection", previous, "error", derr)
		}
	}
	log.Info("index published", "collection", staging, "chunks", len(chunks), "previous", previous)
	return nil
}

// restoreAlias points alias back at previous after a failed commit.
func (ix *Index) restoreAlias(ctx context.Context, log *slog.Logger, alias, previous string) {
	var err error
	if previous == "" {
		err = ix.store.DeleteAlias(ctx, alias)
	} else {
		_, err = ix.store.SwapAlias(ctx, alias, previous)
	}
	if err != nil {
		log.Error("restore alias failed", "alias", alias, "previous", previous, "error", err)
	}
}

func payload(docID string, ch regdoc.Chunk) map[string]any {
	md := ch.Metadata
	return map[string]any{
		"doc_id":       docID,
		"page_content": ch.PageContent,
		"metadata": map[string]any{
			"part":       md.Part,
			"subpart":    md.Subpart,
			"section":    md.Section,
			"title":      md.Title,
			"page_start": md.PageStart,
			"page_end":   md.PageEnd,
			"citation":   md.Citation,
			"chunk_id":   md.ChunkID,
		},
	}
}

// Hit is one search result.
type Hit struct {
	DocID string       `json:"doc_id" yaml:"doc_id"`
	Score float32      `json:"score" yaml:"score"`
	Chunk regdoc.Chunk `json:"chunk" yaml:"chunk"`
}

// Search returns the k chunks closest to query. An empty docID searches
// every cataloged document and merges the results by score.
func (ix *Index) Search(ctx context.Context, query string, k int, docID string) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	var docIDs []string
	if docID != "" {
		if _, err := ix.catalog.GetDocument(ctx, docID); err != nil {
			return nil, err
		}
		docIDs = []string{docID}
	} else {
		docs, err := ix.catalog.ListDocuments(ctx)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			docIDs = append(docIDs, d.ID)
		}
	}
	if len(docIDs) == 0 {
		return nil, nil
	}

	vecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vecs))
	}

	var hits []Hit
	for _, id := range docIDs {
		results, err := ix.store.Search(ctx, ix.Alias(id), vecs[0], k)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", id, err)
		}
		for _, r := range results {
			hits = append(hits, Hit{DocID: id, Score: r.Score, Chunk: chunkFromPayload(r.Meta)})
		}
	}

	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func chunkFromPayload(meta map[string]any) regdoc.Chunk {
	ch := regdoc.Chunk{PageContent: str(meta["page_content"])}
	md, _ := meta["metadata"].(map[string]any)
	ch.Metadata = regdoc.Metadata{
		Part:      str(md["part"]),
		Subpart:   str(md["subpart"]),
		Section:   str(md["section"]),
		Title:     str(md["title"]),
		PageStart: integer(md["page_start"]),
		PageEnd:   integer(md["page_end"]),
		Citation:  str(md["citation"]),
		ChunkID:   str(md["chunk_id"]),
	}
	return ch
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func integer(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

// Loaded reports whether docID has a published, non-empty index.
func (ix *Index) Loaded(ctx context.Context, docID string) (bool, error) {
	if _, err := ix.catalog.GetDocument(ctx, docID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	collection, err := ix.store.ResolveAlias(ctx, ix.Alias(docID))
	if err != nil {
		return false, err
	}
	if collection == "" {
		return false, nil
	}
	info, err := ix.store.CollectionInfo(ctx, collection)
	if err != nil {
		return false, err
	}
	return info.PointsCount > 0, nil
}

// Delete unpublishes docID and drops its collection.
func (ix *Index) Delete(ctx context.Context, docID string) error {
	alias := ix.Alias(docID)
	var collection string
	err := ix.catalog.DeleteDocument(ctx, docID, func(ctx context.Context) error {
		c, err := ix.store.ResolveAlias(ctx, alias)
		if err != nil {
			return err
		}
		collection = c
		return ix.store.DeleteAlias(ctx, alias)
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", docID, err)
	}
	if collection != "" {
		if err := ix.store.DropCollection(ctx, collection); err != nil {
			ix.log.Warn("drop collection failed", "doc_id", docID, "collection", collection, "error", err)
		}
	}
	ix.log.Info("document deleted", "doc_id", docID, "collection", collection)
	return nil
}

// Catalog exposes the catalog for read-only document listings.
func (ix *Index) Catalog() *storage.Catalog {
	return ix.catalog
}
