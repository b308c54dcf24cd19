package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/regchunk/internal/chunker"
	"github.com/dgallion1/regchunk/internal/ingest"
	"github.com/dgallion1/regchunk/internal/parser"
	"github.com/dgallion1/regchunk/internal/pipeline"
	"github.com/dgallion1/regchunk/internal/regdoc"
)

const regulationText = "Table of Contents\n" +
	"§ 164.308  Administrative safeguards ........ 2\n" +
	"\f" +
	"HIPAA Administrative Simplification Regulation Text\n" +
	"PART 164\n" +
	"SUBPART C — Security\n" +
	"§ 164.308  Administrative safeguards.\n" +
	"Entities must implement...\n" +
	"\f" +
	"§ 164.312  Technical safeguards.\n" +
	"Access control is required...\n"

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChunkFile_SkipsTableOfContents(t *testing.T) {
	path := writeDoc(t, "hipaa.txt", regulationText)
	opts := ingest.Options{
		Chunking:        chunker.DefaultConfig(),
		BodyStartMarker: "HIPAA Administrative Simplification Regulation Text",
		StartInTOC:      true,
	}

	b, err := chunkFile(path, opts, parser.Options{}, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Doc.ID != "hipaa" || b.Doc.Filename != "hipaa.txt" {
		t.Errorf("unexpected document %+v", b.Doc)
	}
	byID := make(map[string]regdoc.Chunk)
	for _, ch := range b.Chunks {
		if strings.Contains(ch.PageContent, "Table of Contents") {
			t.Errorf("expected table of contents page skipped, found it in %s", ch.Metadata.ChunkID)
		}
		byID[ch.Metadata.ChunkID] = ch
	}
	if ch, ok := byID["164-308-01"]; !ok || ch.Metadata.PageStart != 2 {
		t.Errorf("expected 164-308-01 starting on page 2, got %+v", ch.Metadata)
	}
	if ch, ok := byID["164-312-01"]; !ok || ch.Metadata.PageStart != 3 {
		t.Errorf("expected 164-312-01 starting on page 3, got %+v", ch.Metadata)
	}
}

func TestChunkFile_HashesPages(t *testing.T) {
	path := writeDoc(t, "hipaa.txt", regulationText+"\f")
	opts := ingest.Options{Chunking: chunker.DefaultConfig()}

	b, err := chunkFile(path, opts, parser.Options{}, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pages, err := (&parser.TextReader{}).ReadPages(strings.NewReader(regulationText), "hipaa.txt")
	if err != nil {
		t.Fatal(err)
	}
	if want := pipeline.PagesHashHex(pages); b.Doc.ContentHash != want {
		t.Errorf("expected content hash %q, got %q", want, b.Doc.ContentHash)
	}
}

func TestChunkFile_Errors(t *testing.T) {
	opts := ingest.Options{Chunking: chunker.DefaultConfig()}

	if _, err := chunkFile(writeDoc(t, "x.exe", regulationText), opts, parser.Options{}, discardLogger()); err == nil {
		t.Error("expected unsupported extension error")
	}
	if _, err := chunkFile(filepath.Join(t.TempDir(), "missing.txt"), opts, parser.Options{}, discardLogger()); err == nil {
		t.Error("expected missing file error")
	}
	_, err := chunkFile(writeDoc(t, "blank.txt", "\n  \n"), opts, parser.Options{}, discardLogger())
	if !errors.Is(err, ingest.ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
}

func TestWriteOutput(t *testing.T) {
	chunks := []regdoc.Chunk{{
		PageContent: "§ 164.308  Administrative safeguards.",
		Metadata:    regdoc.Metadata{Part: "164", Section: "164.308", ChunkID: "164-308-01", Citation: "§164.308"},
	}}

	var y bytes.Buffer
	if err := writeOutput(&y, formatYAML, chunks); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(y.String(), "chunk_id: 164-308-01") {
		t.Errorf("expected snake_case yaml keys, got:\n%s", y.String())
	}

	var j bytes.Buffer
	if err := writeOutput(&j, formatJSON, chunks); err != nil {
		t.Fatalf("json: %v", err)
	}
	var back []regdoc.Chunk
	if err := json.Unmarshal(j.Bytes(), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back[0].Metadata.Citation != "§164.308" {
		t.Errorf("unexpected json round trip %+v", back)
	}

	if err := writeOutput(&j, format("xml"), chunks); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestChunkCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeDoc(t, "part164.txt", regulationText)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"chunk", path, "-o", "json", "-q", "--chunk-size", "40", "--overlap", "0"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var chunks []regdoc.Chunk
	if err := json.Unmarshal(out.Bytes(), &chunks); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected the small chunk size to produce several chunks, got %d", len(chunks))
	}
	for _, ch := range chunks {
		if n := len([]rune(ch.PageContent)); n > 40 {
			t.Errorf("chunk %s has %d characters", ch.Metadata.ChunkID, n)
		}
	}
}
