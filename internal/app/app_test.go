package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/regchunk/internal/config"
)

func TestOpen_BadQdrantURL(t *testing.T) {
	cfg := config.Config{
		DBPath:           filepath.Join(t.TempDir(), "regchunk.db"),
		QdrantURL:        "http://localhost:notaport",
		QdrantCollection: "regulation_chunks",
		QdrantVectorSize: 1024,
	}
	_, err := Open(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil {
		t.Fatal("expected error for malformed qdrant url")
	}
}

func TestOpen_BadDBPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{
		DBPath:    filepath.Join(blocker, "data", "regchunk.db"),
		QdrantURL: "http://localhost:6333",
	}
	if _, err := Open(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("expected error for unusable db path")
	}
}
