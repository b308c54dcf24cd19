package chunker

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/regchunk/internal/regdoc"
)

func mustChunker(t *testing.T, cfg Config) *Chunker {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("unexpected config error: %v", err)
	}
	return c
}

func block(part, section, text string) regdoc.Block {
	md := regdoc.NewMetadata(regdoc.State{Part: part, Section: section, Subpart: "C", Title: "T"}, 1)
	md.PageEnd = 2
	return regdoc.Block{Metadata: md, Text: text}
}

// assertCovered checks that chunks appear in order as substrings of text and
// that together they cover every non-whitespace character.
func assertCovered(t *testing.T, text string, chunks []string) {
	t.Helper()
	covered := make([]bool, len(text))
	from := 0
	for i, c := range chunks {
		idx := strings.Index(text[from:], c)
		if idx < 0 {
			t.Fatalf("chunk %d is not an in-order substring of the text: %q", i, c)
		}
		start := from + idx
		for j := start; j < start+len(c); j++ {
			covered[j] = true
		}
		from = start
	}
	for i, r := range text {
		if !unicode.IsSpace(r) && !covered[i] {
			t.Fatalf("character %q at byte %d not covered by any chunk", r, i)
		}
	}
}

func legalText(paragraphs int) string {
	var sb strings.Builder
	for i := range paragraphs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "(%d) A covered entity must implement policies and procedures. ", i+1)
		for j := range 6 {
			fmt.Fprintf(&sb, "Standard %d.%d applies to electronic protected health information. ", i+1, j+1)
		}
		sb.WriteString("\nImplementation specifications are addressable.")
	}
	return sb.String()
}

func TestSplitBlock_FitsOneChunk(t *testing.T) {
	c := mustChunker(t, DefaultConfig())
	b := block("164", "164.308", "§ 164.308  Administrative safeguards.\nEntities must implement...")
	chunks := c.SplitBlock(b, nil)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	got := chunks[0]
	if got.Metadata.ChunkID != "164-308-01" {
		t.Errorf("expected chunk id %q, got %q", "164-308-01", got.Metadata.ChunkID)
	}
	if got.PageContent != b.Text {
		t.Errorf("expected page content to equal block text, got %q", got.PageContent)
	}
	if got.Metadata.Citation != "§164.308" || got.Metadata.PageStart != 1 || got.Metadata.PageEnd != 2 {
		t.Errorf("expected block metadata copied, got %+v", got.Metadata)
	}
}

func TestSplitBlock_LargeBlockRespectsSize(t *testing.T) {
	cfg := Config{ChunkSize: 300, ChunkOverlap: 60, Separators: DefaultSeparators}
	c := mustChunker(t, cfg)
	text := legalText(8)
	chunks := c.SplitBlock(block("164", "164.502", text), nil)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	var pieces []string
	for i, ch := range chunks {
		if n := utf8.RuneCountInString(ch.PageContent); n > cfg.ChunkSize {
			t.Errorf("chunk %d: %d characters exceeds %d", i, n, cfg.ChunkSize)
		}
		want := fmt.Sprintf("164-502-%02d", i+1)
		if ch.Metadata.ChunkID != want {
			t.Errorf("chunk %d: expected id %q, got %q", i, want, ch.Metadata.ChunkID)
		}
		if ch.Sequence != i+1 {
			t.Errorf("chunk %d: expected sequence %d, got %d", i, i+1, ch.Sequence)
		}
		pieces = append(pieces, ch.PageContent)
	}
	assertCovered(t, text, pieces)
}

func TestSplit_OverlapCarriesTrailingText(t *testing.T) {
	sp, err := NewSplitter(Config{ChunkSize: 40, ChunkOverlap: 20, Separators: []string{"\n"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := "line one is here\nline two is here\nline three\nline four is here"
	got := sp.Split(text)
	want := []string{
		"line one is here\nline two is here",
		"line two is here\nline three",
		"line three\nline four is here",
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSplit_HardCutWithoutSeparators(t *testing.T) {
	sp, err := NewSplitter(Config{ChunkSize: 10, ChunkOverlap: 0, Separators: DefaultSeparators})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := strings.Repeat("x", 35)
	got := sp.Split(text)
	if len(got) != 4 {
		t.Fatalf("expected 4 pieces, got %d: %q", len(got), got)
	}
	for i, p := range got[:3] {
		if len(p) != 10 {
			t.Errorf("piece %d: expected 10 characters, got %d", i, len(p))
		}
	}
	if strings.Join(got, "") != text {
		t.Error("hard cut with no overlap must reconstruct the input")
	}
}

func TestSplit_CountsCharactersNotBytes(t *testing.T) {
	sp, err := NewSplitter(Config{ChunkSize: 20, ChunkOverlap: 0, Separators: []string{" "}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := "§§§§ §§§§ §§§§ §§§§"
	got := sp.Split(text)
	if len(got) != 1 || got[0] != text {
		t.Errorf("expected 19 multi-byte characters to fit one chunk, got %q", got)
	}
}

func TestSplit_Idempotent(t *testing.T) {
	sp, err := NewSplitter(Config{ChunkSize: 250, ChunkOverlap: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := legalText(5)
	if !slices.Equal(sp.Split(text), sp.Split(text)) {
		t.Error("expected identical output for identical input")
	}
}

func TestSplit_EmptyAndBlank(t *testing.T) {
	sp, _ := NewSplitter(DefaultConfig())
	if got := sp.Split(""); len(got) != 0 {
		t.Errorf("expected no pieces for empty text, got %q", got)
	}
	if got := sp.Split("  \n\n  "); len(got) != 0 {
		t.Errorf("expected no pieces for blank text, got %q", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"zero size", Config{ChunkSize: 0}, true},
		{"negative overlap", Config{ChunkSize: 10, ChunkOverlap: -1}, true},
		{"overlap larger than size", Config{ChunkSize: 10, ChunkOverlap: 11}, true},
		{"overlap equal to size", Config{ChunkSize: 10, ChunkOverlap: 10}, false},
		{"empty separator", Config{ChunkSize: 10, Separators: []string{"\n", ""}}, true},
		{"empty separator list", Config{ChunkSize: 10, Separators: []string{}}, true},
		{"nil separators", Config{ChunkSize: 10}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestChunkBlocks_UniqueIDsAcrossDocument(t *testing.T) {
	c := mustChunker(t, Config{ChunkSize: 200, ChunkOverlap: 20})
	blocks := []regdoc.Block{
		block("164", "164.308", legalText(3)),
		block("164", "164.312", legalText(2)),
		// The same section reprinted later in the document.
		block("164", "164.308", legalText(2)),
	}
	chunks := c.ChunkBlocks(blocks)

	seen := make(map[string]bool)
	for _, ch := range chunks {
		if seen[ch.Metadata.ChunkID] {
			t.Errorf("duplicate chunk id %q", ch.Metadata.ChunkID)
		}
		seen[ch.Metadata.ChunkID] = true
	}
	if !seen["164-312-01"] {
		t.Error("expected sequence to restart at 01 for a new block")
	}

	// The reprinted 164.308 block continues numbering after the first one.
	first := len(c.ChunkBlocks(blocks[:1]))
	reprint := c.SplitBlock(blocks[2], nil)
	want := fmt.Sprintf("164-308-%02d", first+1)
	if !seen[want] {
		t.Errorf("expected reprinted block to continue at %q", want)
	}
	if got := chunks[len(chunks)-len(reprint)].Metadata.ChunkID; got != want {
		t.Errorf("expected first chunk of reprinted block %q, got %q", want, got)
	}
}

func TestNewSplitter_RejectsEmptySeparatorList(t *testing.T) {
	if _, err := NewSplitter(Config{ChunkSize: 10, Separators: []string{}}); err == nil {
		t.Error("expected error for empty separator list")
	}
	if _, err := NewSplitter(Config{ChunkSize: 10}); err != nil {
		t.Errorf("nil separators should default, got %v", err)
	}
}

func TestChunkBlocks_PageStartNonDecreasing(t *testing.T) {
	c := mustChunker(t, Config{ChunkSize: 200, ChunkOverlap: 20})
	b1 := block("164", "164.308", legalText(3))
	b2 := block("164", "164.310", legalText(3))
	b2.PageStart, b2.PageEnd = 2, 4
	chunks := c.ChunkBlocks([]regdoc.Block{b1, b2})

	prev := 0
	for i, ch := range chunks {
		if ch.Metadata.PageStart > ch.Metadata.PageEnd {
			t.Errorf("chunk %d: page_start > page_end", i)
		}
		if ch.Metadata.PageStart < prev {
			t.Errorf("chunk %d: page_start decreased", i)
		}
		prev = ch.Metadata.PageStart
	}
}
