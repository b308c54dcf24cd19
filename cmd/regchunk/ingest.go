package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/regchunk/internal/app"
	"github.com/dgallion1/regchunk/internal/index"
	"github.com/dgallion1/regchunk/internal/pipeline"
)

var ingestFlags struct {
	docID string
	title string
	force bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest FILE",
	Short: "Chunk, embed and publish a document",
	Long: `Ingest runs a full pass over FILE and publishes the chunks to the vector
index and the catalog. The previous version of the document stays live
until the new one is fully stored.

Chunking flags of the chunk command apply here too.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if err := cfg.Validate(); err != nil {
			return err
		}
		docID := ingestFlags.docID
		if docID == "" {
			docID = index.DocIDFromFilename(path)
		}
		if err := index.ValidateDocID(docID); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		a, err := app.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := chunkOptions(cmd, cfg)
		c := cfg
		c.ChunkSize = opts.Chunking.ChunkSize
		c.ChunkOverlap = opts.Chunking.ChunkOverlap
		c.TOCBodyMarker = opts.BodyStartMarker
		c.TOCStartInTOC = opts.StartInTOC

		orch := pipeline.NewOrchestrator(c, a.Index, a.Catalog, logger)
		job := pipeline.NewJob(docID, filepath.Base(path), ingestFlags.title, data)
		job.Force = ingestFlags.force

		runErr := orch.Run(cmd.Context(), job)
		if err := output(cmd, job.Snapshot()); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&ingestFlags.docID, "doc-id", "", "document id (default derived from the file name)")
	f.StringVar(&ingestFlags.title, "title", "", "document title")
	f.BoolVar(&ingestFlags.force, "force", false, "publish even if identical content is already indexed")
	addChunkFlags(ingestCmd)
}
