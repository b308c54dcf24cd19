package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/regchunk/internal/config"
	"github.com/dgallion1/regchunk/internal/index"
	"github.com/dgallion1/regchunk/internal/ingest"
	"github.com/dgallion1/regchunk/internal/parser"
	"github.com/dgallion1/regchunk/internal/pipeline"
	"github.com/dgallion1/regchunk/internal/regdoc"
)

var chunkFlags struct {
	chunkSize  int
	overlap    int
	tocMarker  string
	startInTOC bool
	blocks     bool
}

var chunkCmd = &cobra.Command{
	Use:   "chunk FILE",
	Short: "Chunk a document offline and print the result",
	Long: `Chunk reads FILE, groups its lines into section blocks and splits them
into chunks without touching the vector index or the catalog.

Examples:
  regchunk chunk hipaa.pdf --start-in-toc
  regchunk chunk part164.txt --chunk-size 800 --overlap 100 -o json
  regchunk chunk part164.txt --blocks`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := chunkOptions(cmd, cfg)
		res, err := chunkFile(args[0], opts, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}, logger)
		if err != nil {
			return err
		}
		if chunkFlags.blocks {
			return output(cmd, res.Blocks)
		}
		return output(cmd, res.Chunks)
	},
}

func init() {
	addChunkFlags(chunkCmd)
	chunkCmd.Flags().BoolVar(&chunkFlags.blocks, "blocks", false, "print section blocks instead of chunks")
}

// addChunkFlags registers the chunking overrides on cmd.
func addChunkFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&chunkFlags.chunkSize, "chunk-size", 0, "maximum characters per chunk (default from CHUNK_SIZE)")
	f.IntVar(&chunkFlags.overlap, "overlap", 0, "characters shared by consecutive chunks (default from CHUNK_OVERLAP)")
	f.StringVar(&chunkFlags.tocMarker, "toc-marker", "", "line text that ends the table of contents (default from TOC_BODY_MARKER)")
	f.BoolVar(&chunkFlags.startInTOC, "start-in-toc", false, "skip pages until the toc marker is seen")
}

// chunkOptions merges explicitly set flags over the loaded configuration.
func chunkOptions(cmd *cobra.Command, c config.Config) ingest.Options {
	opts := ingest.Options{
		Chunking:        c.Chunking(),
		BodyStartMarker: c.TOCBodyMarker,
		StartInTOC:      c.TOCStartInTOC,
	}
	f := cmd.Flags()
	if f.Changed("chunk-size") {
		opts.Chunking.ChunkSize = chunkFlags.chunkSize
	}
	if f.Changed("overlap") {
		opts.Chunking.ChunkOverlap = chunkFlags.overlap
	}
	if f.Changed("toc-marker") {
		opts.BodyStartMarker = chunkFlags.tocMarker
	}
	if f.Changed("start-in-toc") {
		opts.StartInTOC = chunkFlags.startInTOC
	}
	return opts
}

// chunkFile runs an unpublished pass over the file at path.
func chunkFile(path string, opts ingest.Options, parseOpts parser.Options, log *slog.Logger) (*ingest.Batch, error) {
	in, err := ingest.New(opts, nil, log)
	if err != nil {
		return nil, err
	}
	reader, err := parser.ForFile(path, parseOpts)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	pages, err := readPages(reader, path, data)
	if err != nil {
		return nil, err
	}

	doc := regdoc.Document{
		ID:          index.DocIDFromFilename(path),
		Filename:    filepath.Base(path),
		ContentHash: pipeline.PagesHashHex(pages),
	}
	b := in.Structure(doc, pages)
	if err := in.Split(b); err != nil {
		return b, err
	}
	return b, nil
}

// readPages reads PDFs straight from disk; other formats from data.
func readPages(r parser.PageReader, path string, data []byte) ([]regdoc.Page, error) {
	if pdf, ok := r.(*parser.PDFReader); ok {
		return pdf.ReadFile(path)
	}
	return r.ReadPages(bytes.NewReader(data), filepath.Base(path))
}
