package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a document or chunk is not cataloged.
var ErrNotFound = errors.New("record not found")

// Catalog reads and writes documents and chunks.
type Catalog struct {
	db *sql.DB
}

// NewCatalog creates a new Catalog.
func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

// ReplaceDocument swaps in doc and its chunks for any earlier version in
// one transaction. beforeCommit, when non-nil, runs after the rows are
// written and before the commit; if it fails the transaction rolls back,
// so catalog and vector index change together or not at all.
func (c *Catalog) ReplaceDocument(ctx context.Context, doc *DocumentRecord, chunks []ChunkRecord, beforeCommit func(context.Context) error) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM chunks WHERE doc_id = ?", doc.ID); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", doc.ID); err != nil {
		return fmt.Errorf("delete old document: %w", err)
	}

	doc.ChunkCount = len(chunks)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, filename, title, content_hash, collection, page_count, chunk_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.Title, doc.ContentHash, doc.Collection, doc.PageCount, doc.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (doc_id, chunk_id, seq, point_id, part, subpart, section, title, citation, page_start, page_end, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, ch := range chunks {
		md := ch.Metadata
		_, err = stmt.ExecContext(ctx,
			doc.ID, md.ChunkID, ch.Seq, ch.PointID, md.Part, md.Subpart, md.Section, md.Title,
			md.Citation, md.PageStart, md.PageEnd, ch.Text,
		)
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", md.ChunkID, err)
		}
	}

	if beforeCommit != nil {
		if err = beforeCommit(ctx); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const documentColumns = "id, filename, title, content_hash, collection, page_count, chunk_count, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*DocumentRecord, error) {
	var d DocumentRecord
	err := row.Scan(&d.ID, &d.Filename, &d.Title, &d.ContentHash, &d.Collection, &d.PageCount, &d.ChunkCount, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDocument returns the catalog entry for id, or ErrNotFound.
func (c *Catalog) GetDocument(ctx context.Context, id string) (*DocumentRecord, error) {
	row := c.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return d, nil
}

// FindByHash returns a document whose content hash matches, or ErrNotFound.
func (c *Catalog) FindByHash(ctx context.Context, hash string) (*DocumentRecord, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE content_hash = ? ORDER BY created_at LIMIT 1", hash)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document by hash: %w", err)
	}
	return d, nil
}

// ListDocuments returns every cataloged document ordered by id.
func (c *Catalog) ListDocuments(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []DocumentRecord
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

const chunkColumns = "doc_id, chunk_id, seq, point_id, part, subpart, section, title, citation, page_start, page_end, text"

func scanChunk(row scanner) (*ChunkRecord, error) {
	var (
		ch ChunkRecord
		md = &ch.Metadata
	)
	err := row.Scan(&ch.DocID, &md.ChunkID, &ch.Seq, &ch.PointID, &md.Part, &md.Subpart, &md.Section,
		&md.Title, &md.Citation, &md.PageStart, &md.PageEnd, &ch.Text)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetChunk returns one chunk of a document, or ErrNotFound.
func (c *Catalog) GetChunk(ctx context.Context, docID, chunkID string) (*ChunkRecord, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE doc_id = ? AND chunk_id = ?", docID, chunkID)
	ch, err := scanChunk(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}
	return ch, nil
}

// ListChunks returns a document's chunks in document order.
func (c *Catalog) ListChunks(ctx context.Context, docID string) ([]ChunkRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE doc_id = ? ORDER BY seq", docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chunks []ChunkRecord
	for rows.Next() {
		ch, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, *ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return chunks, nil
}

// DeleteDocument removes a document and its chunks. beforeCommit runs
// inside the transaction as in ReplaceDocument.
func (c *Catalog) DeleteDocument(ctx context.Context, id string, beforeCommit func(context.Context) error) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		err = ErrNotFound
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM chunks WHERE doc_id = ?", id); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	if beforeCommit != nil {
		if err = beforeCommit(ctx); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
