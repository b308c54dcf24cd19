package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/regchunk/internal/regdoc"
)

// MarkdownReader handles Markdown files using goldmark. Thematic breaks
// (---, ***) separate pages; every other block contributes its source lines.
type MarkdownReader struct{}

func (p *MarkdownReader) ReadPages(r io.Reader, filename string) ([]regdoc.Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var (
		texts   []string
		current []string
	)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() == ast.KindThematicBreak {
			texts = append(texts, strings.Join(current, "\n"))
			current = nil
			continue
		}
		current = appendBlockLines(current, n, src)
	}
	if len(current) > 0 || len(texts) > 0 {
		texts = append(texts, strings.Join(current, "\n"))
	}
	return numberPages(texts), nil
}

// appendBlockLines appends the source lines of n, descending into container
// blocks such as lists and blockquotes.
func appendBlockLines(out []string, n ast.Node, src []byte) []string {
	if n.Type() != ast.TypeBlock {
		return out
	}
	if lines := n.Lines(); lines.Len() > 0 {
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			out = append(out, string(bytes.TrimRight(seg.Value(src), "\r\n")))
		}
		return out
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = appendBlockLines(out, c, src)
	}
	return out
}
