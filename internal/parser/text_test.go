package parser

import (
	"strings"
	"testing"
)

func TestTextReader_FormFeedPages(t *testing.T) {
	input := "PART 164\n§ 164.308  Administrative safeguards.\fBody continues.\n\f§ 164.312  Technical safeguards.\f"
	p := &TextReader{}
	pages, err := p.ReadPages(strings.NewReader(input), "hipaa.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	want := []string{
		"PART 164\n§ 164.308  Administrative safeguards.",
		"Body continues.\n",
		"§ 164.312  Technical safeguards.",
	}
	for i, w := range want {
		if pages[i].Number != i+1 {
			t.Errorf("page[%d]: expected number %d, got %d", i, i+1, pages[i].Number)
		}
		if pages[i].Text != w {
			t.Errorf("page[%d]: expected %q, got %q", i, w, pages[i].Text)
		}
	}
}

func TestTextReader_NoFormFeedIsOnePage(t *testing.T) {
	p := &TextReader{}
	pages, err := p.ReadPages(strings.NewReader("line one\nline two"), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 || pages[0].Text != "line one\nline two" {
		t.Errorf("expected a single page, got %+v", pages)
	}
}

func TestTextReader_EmptyInput(t *testing.T) {
	p := &TextReader{}
	pages, err := p.ReadPages(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("expected no pages, got %d", len(pages))
	}
}

func TestTextReader_BlankPagesKeepNumbering(t *testing.T) {
	p := &TextReader{}
	pages, err := p.ReadPages(strings.NewReader("one\f\fthree"), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if pages[1].Text != "" || pages[2].Number != 3 {
		t.Errorf("expected blank page 2 and page 3 intact, got %+v", pages)
	}
}
