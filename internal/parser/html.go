package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/regchunk/internal/regdoc"
)

// HTMLReader handles HTML renditions of regulation text. <hr> separates
// pages; block elements become lines.
type HTMLReader struct{}

func (p *HTMLReader) ReadPages(r io.Reader, filename string) ([]regdoc.Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var (
		texts   []string
		current []string
		sawHR   bool
	)
	addLines := func(s string) {
		for line := range strings.Lines(s) {
			if line = strings.TrimSpace(line); line != "" {
				current = append(current, line)
			}
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			addLines(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "nav", "head":
				return
			case "hr":
				texts = append(texts, strings.Join(current, "\n"))
				current = nil
				sawHR = true
				return
			case "p", "li", "td", "th", "blockquote", "pre", "h1", "h2", "h3", "h4", "h5", "h6":
				addLines(textContent(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	if len(current) > 0 || sawHR {
		texts = append(texts, strings.Join(current, "\n"))
	}
	return numberPages(texts), nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
