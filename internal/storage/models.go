package storage

import (
	"time"

	"github.com/dgallion1/regchunk/internal/regdoc"
)

// DocumentRecord is one published document version.
type DocumentRecord struct {
	ID          string    `json:"doc_id"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash"`
	Collection  string    `json:"collection"` // vector collection holding this version
	PageCount   int       `json:"page_count"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChunkRecord is one chunk of a published document.
type ChunkRecord struct {
	DocID    string
	Seq      int    // position within the document, from 0
	PointID  string // vector point id
	Metadata regdoc.Metadata
	Text     string
}

// Chunk converts the record back to the indexed unit.
func (r ChunkRecord) Chunk() regdoc.Chunk {
	return regdoc.Chunk{PageContent: r.Text, Metadata: r.Metadata}
}
