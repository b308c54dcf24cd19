package parser

import (
	"strings"
	"testing"
)

func TestMarkdownReader_ThematicBreaksSplitPages(t *testing.T) {
	input := `# PART 164

§ 164.308  Administrative safeguards.
Entities must implement policies.

---

- Access control is required.
- Audit controls are required.
`
	p := &MarkdownReader{}
	pages, err := p.ReadPages(strings.NewReader(input), "hipaa.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d: %+v", len(pages), pages)
	}

	first := strings.Split(pages[0].Text, "\n")
	want := []string{"PART 164", "§ 164.308  Administrative safeguards.", "Entities must implement policies."}
	if len(first) != len(want) {
		t.Fatalf("expected %d lines on page 1, got %q", len(want), first)
	}
	for i, w := range want {
		if first[i] != w {
			t.Errorf("line %d: expected %q, got %q", i, w, first[i])
		}
	}

	if !strings.Contains(pages[1].Text, "Access control is required.") ||
		!strings.Contains(pages[1].Text, "Audit controls are required.") {
		t.Errorf("expected list items on page 2, got %q", pages[1].Text)
	}
	if pages[1].Number != 2 {
		t.Errorf("expected page number 2, got %d", pages[1].Number)
	}
}

func TestMarkdownReader_NoBreaksIsOnePage(t *testing.T) {
	input := `Just some plain text.

Another paragraph.
`
	p := &MarkdownReader{}
	pages, err := p.ReadPages(strings.NewReader(input), "notes.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if pages[0].Text != "Just some plain text.\nAnother paragraph." {
		t.Errorf("unexpected page text %q", pages[0].Text)
	}
}

func TestMarkdownReader_Empty(t *testing.T) {
	p := &MarkdownReader{}
	pages, err := p.ReadPages(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("expected no pages, got %d", len(pages))
	}
}
