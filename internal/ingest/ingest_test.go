package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgallion1/regchunk/internal/chunker"
	"github.com/dgallion1/regchunk/internal/regdoc"
)

type recordingSink struct {
	calls  int
	doc    regdoc.Document
	chunks []regdoc.Chunk
	err    error
}

func (s *recordingSink) Publish(_ context.Context, doc regdoc.Document, chunks []regdoc.Chunk) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.doc = doc
	s.chunks = chunks
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scenarioPages() []regdoc.Page {
	return []regdoc.Page{
		{Number: 1, Text: strings.Join([]string{
			"PART 164",
			"SUBPART C — Security",
			"§ 164.308  Administrative safeguards.",
			"Entities must implement...",
		}, "\n")},
		{Number: 2, Text: strings.Join([]string{
			"§ 164.312  Technical safeguards.",
			"Access control is required...",
		}, "\n")},
	}
}

func newIngester(t *testing.T, sink Sink) *Ingester {
	t.Helper()
	in, err := New(Options{Chunking: chunker.DefaultConfig()}, sink, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return in
}

func TestRun_TwoSectionScenario(t *testing.T) {
	sink := &recordingSink{}
	in := newIngester(t, sink)

	b, err := in.Run(context.Background(), regdoc.Document{ID: "hipaa"}, scenarioPages())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.calls != 1 {
		t.Fatalf("expected a single batch, got %d publish calls", sink.calls)
	}
	if len(b.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(b.Blocks))
	}
	if b.Lines != 6 || b.Pages != 2 {
		t.Errorf("expected 6 lines over 2 pages, got %d lines over %d pages", b.Lines, b.Pages)
	}
	if sink.doc.PageCount != 2 {
		t.Errorf("expected page count defaulted to 2, got %d", sink.doc.PageCount)
	}

	want := []struct {
		id, citation string
		page         int
	}{
		{"164-308-01", "§164.308", 1},
		{"164-312-01", "§164.312", 2},
	}
	if len(sink.chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(sink.chunks))
	}
	for i, w := range want {
		md := sink.chunks[i].Metadata
		if md.ChunkID != w.id || md.Citation != w.citation {
			t.Errorf("chunk %d: expected %s %s, got %s %s", i, w.id, w.citation, md.ChunkID, md.Citation)
		}
		if md.PageStart != w.page || md.PageEnd != w.page {
			t.Errorf("chunk %d: expected pages %d-%d, got %d-%d", i, w.page, w.page, md.PageStart, md.PageEnd)
		}
		if md.Part != "164" || md.Subpart != "C" {
			t.Errorf("chunk %d: expected part 164 subpart C, got %q %q", i, md.Part, md.Subpart)
		}
	}
}

func TestRun_EmptySourceIsNoContent(t *testing.T) {
	sink := &recordingSink{}
	in := newIngester(t, sink)

	for _, pages := range [][]regdoc.Page{nil, {{Number: 1, Text: ""}}, {{Number: 1, Text: "  \n \n"}}} {
		_, err := in.Run(context.Background(), regdoc.Document{ID: "empty"}, pages)
		if !errors.Is(err, ErrNoContent) {
			t.Errorf("expected ErrNoContent, got %v", err)
		}
	}
	if sink.calls != 0 {
		t.Errorf("expected sink never called, got %d calls", sink.calls)
	}
}

func TestRun_SinkFailureIsFatal(t *testing.T) {
	boom := errors.New("qdrant unavailable")
	sink := &recordingSink{err: boom}
	in := newIngester(t, sink)

	_, err := in.Run(context.Background(), regdoc.Document{ID: "hipaa"}, scenarioPages())
	if !errors.Is(err, ErrIndexing) {
		t.Fatalf("expected ErrIndexing, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected sink error to be wrapped, got %v", err)
	}
	if sink.calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", sink.calls)
	}
}

func TestRun_TOCPagesSkipped(t *testing.T) {
	sink := &recordingSink{}
	in, err := New(Options{
		Chunking:        chunker.DefaultConfig(),
		BodyStartMarker: "Regulation Text",
		StartInTOC:      true,
	}, sink, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pages := append([]regdoc.Page{
		{Number: 1, Text: "§ 164.102  Statutory basis.  ........ 12"},
	}, scenarioPages()...)
	pages[1].Text = "Regulation Text\n" + pages[1].Text
	pages[1].Number, pages[2].Number = 2, 3

	if _, err := in.Run(context.Background(), regdoc.Document{ID: "hipaa"}, pages); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range sink.chunks {
		if c.Metadata.Section == "164.102" {
			t.Errorf("table of contents entry leaked into chunk %s", c.Metadata.ChunkID)
		}
	}
}

func TestNew_RejectsBadOptions(t *testing.T) {
	if _, err := New(Options{Chunking: chunker.Config{ChunkSize: 0}}, nil, nil); err == nil {
		t.Error("expected error for zero chunk size")
	}
	if _, err := New(Options{Chunking: chunker.DefaultConfig(), StartInTOC: true}, nil, nil); err == nil {
		t.Error("expected error for missing body start marker")
	}
}

func TestEmit_WithoutSink(t *testing.T) {
	in, err := New(Options{Chunking: chunker.DefaultConfig()}, nil, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := in.Structure(regdoc.Document{ID: "dry"}, scenarioPages())
	if err := in.Split(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Chunks) != 2 {
		t.Errorf("expected dry run to produce 2 chunks, got %d", len(b.Chunks))
	}
	if err := in.Emit(context.Background(), b); !errors.Is(err, ErrIndexing) {
		t.Errorf("expected ErrIndexing without a sink, got %v", err)
	}
}
