// Package chunker re-splits structural blocks into bounded, overlapping
// chunks and stamps each one with its provenance and chunk id.
package chunker

import (
	"github.com/dgallion1/regchunk/internal/regdoc"
)

// Chunker turns blocks into chunks for one document at a time.
type Chunker struct {
	splitter *Splitter
}

// New validates cfg and returns a Chunker.
func New(cfg Config) (*Chunker, error) {
	sp, err := NewSplitter(cfg)
	if err != nil {
		return nil, err
	}
	return &Chunker{splitter: sp}, nil
}

// ChunkBlocks splits every block of a document, in order. Sequence numbers
// start at 01 for each block. A block whose "<part>-<suffix>" prefix was
// already used earlier in the document continues after the highest
// sequence issued for that prefix instead of restarting, so chunk ids stay
// unique within the document.
func (c *Chunker) ChunkBlocks(blocks []regdoc.Block) []regdoc.Chunk {
	ids := regdoc.NewIDAllocator()
	var chunks []regdoc.Chunk
	for _, b := range blocks {
		chunks = append(chunks, c.SplitBlock(b, ids)...)
	}
	return chunks
}

// SplitBlock splits one block. Metadata is copied from the block with the
// chunk id replaced by "<part>-<suffix>-<NN>".
func (c *Chunker) SplitBlock(b regdoc.Block, ids *regdoc.IDAllocator) []regdoc.Chunk {
	if ids == nil {
		ids = regdoc.NewIDAllocator()
	}
	prefix := regdoc.PrefixOf(b.ChunkID)

	pieces := c.splitter.Split(b.Text)
	chunks := make([]regdoc.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		id, seq := ids.Next(prefix)
		md := b.Metadata
		md.ChunkID = id
		chunks = append(chunks, regdoc.Chunk{
			PageContent: piece,
			Metadata:    md,
			Sequence:    seq,
		})
	}
	return chunks
}
