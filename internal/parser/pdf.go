package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/regchunk/internal/regdoc"
)

// PDFReader handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available.
type PDFReader struct {
	FallbackPdftotext bool
}

func (p *PDFReader) ReadPages(r io.Reader, filename string) ([]regdoc.Page, error) {
	// ledongthuc/pdf and pdftotext both want a file on disk.
	tmpPath, err := spoolTemp(r, "regchunk-pdf-*.pdf")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)

	return p.ReadFile(tmpPath)
}

// ReadFile extracts pages from a PDF on disk.
func (p *PDFReader) ReadFile(path string) ([]regdoc.Page, error) {
	texts, err := extractPDFPages(path)
	if p.FallbackPdftotext && (err != nil || allBlank(texts)) {
		if alt, ferr := extractPdftotext(path); ferr == nil {
			texts, err = alt, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return numberPages(texts), nil
}

// extractPDFPages returns one entry per physical page. Pages that cannot be
// read come back empty so numbering stays aligned with the file.
func extractPDFPages(path string) ([]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	texts := make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := pageText(page)
		if err != nil {
			continue
		}
		texts[i-1] = text
	}
	return texts, nil
}

// pdfRow is one visual line: glyphs sharing a baseline.
type pdfRow struct {
	y      float64
	glyphs []pdflib.Text
}

// pageText rebuilds a page as one line per baseline, top to bottom. The
// line structure matters: section markers are matched at line start.
// Page.Content tracks Td and Tm moves, which GetPlainText and
// GetTextByRow do not.
func pageText(page pdflib.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read page content: %v", r)
		}
	}()

	var rows []*pdfRow
	for _, g := range page.Content().Text {
		// TJ arrays end with a synthetic newline glyph.
		if g.S == "\n" {
			continue
		}
		row := findRow(rows, g)
		if row == nil {
			row = &pdfRow{y: g.Y}
			rows = append(rows, row)
		}
		row.glyphs = append(row.glyphs, g)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, rowText(row.glyphs))
	}
	return strings.Join(lines, "\n"), nil
}

// findRow returns the row whose baseline lies within a fraction of the
// glyph's font size, so superscripts and jitter stay on their line.
func findRow(rows []*pdfRow, g pdflib.Text) *pdfRow {
	tol := g.FontSize * 0.3
	if tol < 1 {
		tol = 1
	}
	for _, row := range rows {
		if math.Abs(row.y-g.Y) <= tol {
			return row
		}
	}
	return nil
}

// rowText joins a row's glyphs left to right, inserting a space where
// separately drawn runs leave a visible gap.
func rowText(glyphs []pdflib.Text) string {
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })
	var b strings.Builder
	var end float64
	for i, g := range glyphs {
		if i > 0 && g.X-end > g.FontSize*0.2 && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(g.S, " ") {
			b.WriteByte(' ')
		}
		b.WriteString(g.S)
		if e := g.X + g.W; e > end || i == 0 {
			end = e
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func extractPdftotext(path string) ([]string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return splitFormFeeds(string(out)), nil
}

func spoolTemp(r io.Reader, pattern string) (string, error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), nil
}

func allBlank(texts []string) bool {
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			return false
		}
	}
	return true
}
