package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/regchunk/internal/api"
	"github.com/dgallion1/regchunk/internal/app"
	"github.com/dgallion1/regchunk/internal/config"
	"github.com/dgallion1/regchunk/internal/index"
	"github.com/dgallion1/regchunk/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	a, err := app.Open(cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, a.Index, a.Catalog, log)

	// The configured source document must be queryable before serving.
	if cfg.DocumentPath != "" {
		docID := cfg.DocumentID
		if docID == "" {
			docID = index.DocIDFromFilename(cfg.DocumentPath)
		}
		if err := index.ValidateDocID(docID); err != nil {
			log.Error("invalid configuration", "error", err)
			os.Exit(1)
		}
		if err := orch.Bootstrap(ctx, cfg.DocumentPath, docID); err != nil {
			log.Error("bootstrap failed", "doc_id", docID, "error", err)
			os.Exit(1)
		}
	}

	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, a.Index, a.Catalog, a.Stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Drain HTTP first so no upload reaches a stopped pipeline.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting regchunk", "port", cfg.Port, "collection", cfg.QdrantCollection)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
