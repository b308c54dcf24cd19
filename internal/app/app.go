// Package app wires the catalog, vector store, embedding client and index
// shared by the server and the command line tool.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/regchunk/internal/config"
	"github.com/dgallion1/regchunk/internal/embed"
	"github.com/dgallion1/regchunk/internal/index"
	"github.com/dgallion1/regchunk/internal/storage"
	"github.com/dgallion1/regchunk/internal/vectorstore"
)

// App holds the long-lived clients.
type App struct {
	DB       *sql.DB
	Catalog  *storage.Catalog
	Store    *vectorstore.QdrantStore
	Embedder *embed.Client
	Stats    *embed.LatencyStats
	Index    *index.Index
}

// Open connects every backend named in cfg. On error anything already
// opened is closed again.
func Open(cfg config.Config, log *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}
	log.Info("catalog ready", "path", cfg.DBPath)

	store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	stats := embed.NewLatencyStats(time.Hour)
	embedder := embed.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingModel, cfg.QdrantVectorSize, stats)
	catalog := storage.NewCatalog(db)

	ix := index.New(store, catalog, embedder, index.Options{
		Collection: cfg.QdrantCollection,
		BatchSize:  cfg.EmbeddingBatchSize,
	}, log)

	return &App{
		DB:       db,
		Catalog:  catalog,
		Store:    store,
		Embedder: embedder,
		Stats:    stats,
		Index:    ix,
	}, nil
}

// Close releases every client.
func (a *App) Close() {
	a.Embedder.Close()
	_ = a.Store.Close()
	_ = a.DB.Close()
}
