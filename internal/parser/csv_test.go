package parser

import (
	"strings"
	"testing"
)

func TestCSVReader_PageExport(t *testing.T) {
	input := "page,text\n2,\"§ 164.312  Technical safeguards.\"\n1,PART 164\n1,\"§ 164.308  Administrative safeguards.\"\n4,Appendix\n"
	p := &CSVReader{}
	pages, err := p.ReadPages(strings.NewReader(input), "pages.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 4 {
		t.Fatalf("expected 4 pages, got %d", len(pages))
	}
	if pages[0].Text != "PART 164\n§ 164.308  Administrative safeguards." {
		t.Errorf("page 1: unexpected text %q", pages[0].Text)
	}
	if pages[1].Text != "§ 164.312  Technical safeguards." {
		t.Errorf("page 2: unexpected text %q", pages[1].Text)
	}
	if pages[2].Text != "" || pages[2].Number != 3 {
		t.Errorf("expected empty page 3, got %+v", pages[2])
	}
}

func TestCSVReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"single column", "1\n"},
		{"bad page number", "page,text\n1,ok\nx,bad\n"},
		{"zero page", "0,text\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &CSVReader{}
			if _, err := p.ReadPages(strings.NewReader(tc.input), "pages.csv"); err == nil {
				t.Error("expected error")
			}
		})
	}
}
