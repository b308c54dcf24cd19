package parser

import (
	"strings"
	"testing"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  bool
	}{
		{"hipaa.pdf", false},
		{"HIPAA.PDF", false},
		{"notes.txt", false},
		{"part164.htm", false},
		{"readme.markdown", false},
		{"memo.docx", false},
		{"pages.csv", false},
		{"scan.tiff", true},
		{"noext", true},
	}
	for _, tc := range tests {
		t.Run(tc.filename, func(t *testing.T) {
			r, err := ForFile(tc.filename, Options{})
			if (err != nil) != tc.wantErr {
				t.Fatalf("ForFile(%q) error = %v, wantErr %v", tc.filename, err, tc.wantErr)
			}
			if !tc.wantErr && r == nil {
				t.Error("expected a reader")
			}
			if IsSupportedExtension(tc.filename) == tc.wantErr {
				t.Errorf("IsSupportedExtension(%q) disagrees with ForFile", tc.filename)
			}
		})
	}
}

func TestForFile_PDFOptions(t *testing.T) {
	r, err := ForFile("hipaa.pdf", Options{PDFFallbackPdftotext: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pr, ok := r.(*PDFReader); !ok || !pr.FallbackPdftotext {
		t.Errorf("expected PDF reader with fallback enabled, got %#v", r)
	}
}

func TestPDFReader_RejectsGarbage(t *testing.T) {
	p := &PDFReader{}
	if _, err := p.ReadPages(strings.NewReader("not a pdf"), "bad.pdf"); err == nil {
		t.Error("expected error for non-PDF input")
	}
}

func TestPDFInfo_MissingFile(t *testing.T) {
	if _, err := PDFInfo(t.TempDir() + "/missing.pdf"); err == nil {
		t.Error("expected error for missing file")
	}
}
