package parser

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// buildPDF writes a minimal PDF with one page per content stream, all
// sharing a Helvetica font resource named F1.
func buildPDF(contents ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(contents))
	for i := range contents {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(contents)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, c := range contents {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(c), c))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestPDFReader_TdMovesStartNewLines(t *testing.T) {
	content := "BT /F1 12 Tf 72 720 Td (PART 164) Tj 0 -14 Td (SUBPART C - Security) Tj 0 -14 Td (Section text line one.) Tj ET"
	p := &PDFReader{}
	pages, err := p.ReadPages(bytes.NewReader(buildPDF(content)), "part164.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	want := []string{"PART 164", "SUBPART C - Security", "Section text line one."}
	got := strings.Split(pages[0].Text, "\n")
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestPDFReader_RunsOnOneBaselineShareALine(t *testing.T) {
	// The heading is drawn right-to-left in stream order on purpose.
	content := "BT /F1 12 Tf 1 0 0 1 200 700 Tm (Administrative safeguards.) Tj 1 0 0 1 72 700 Tm (164.308) Tj 1 0 0 1 72 680 Tm (Body text.) Tj ET"
	p := &PDFReader{}
	pages, err := p.ReadPages(bytes.NewReader(buildPDF(content)), "part164.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "164.308 Administrative safeguards.\nBody text."
	if pages[0].Text != want {
		t.Errorf("expected %q, got %q", want, pages[0].Text)
	}
}

func TestPDFReader_PagesNumberedInOrder(t *testing.T) {
	p := &PDFReader{}
	data := buildPDF(
		"BT /F1 12 Tf 72 720 Td (Table of contents) Tj ET",
		"BT /F1 12 Tf 72 720 Td (PART 164) Tj 0 -14 Td (First page body.) Tj ET",
	)
	pages, err := p.ReadPages(bytes.NewReader(data), "part164.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Number != 1 || pages[1].Number != 2 {
		t.Errorf("expected pages numbered 1 and 2, got %d and %d", pages[0].Number, pages[1].Number)
	}
	if pages[1].Text != "PART 164\nFirst page body." {
		t.Errorf("unexpected page 2 text %q", pages[1].Text)
	}
}
