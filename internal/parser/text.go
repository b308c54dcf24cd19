package parser

import (
	"io"

	"github.com/dgallion1/regchunk/internal/regdoc"
)

// TextReader handles plain text. Form feeds separate pages, which is what
// pdftotext and most print-to-text exports emit.
type TextReader struct{}

func (p *TextReader) ReadPages(r io.Reader, filename string) ([]regdoc.Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return numberPages(splitFormFeeds(string(src))), nil
}
