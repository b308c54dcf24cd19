// Package parser reads source documents into ordered, gap-free pages of raw text.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/regchunk/internal/regdoc"
)

// PageReader converts raw document bytes into pages numbered from 1.
type PageReader interface {
	ReadPages(r io.Reader, filename string) ([]regdoc.Page, error)
}

// Options tunes readers that have optional behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate reader for a filename.
func ForFile(filename string, opts Options) (PageReader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextReader{}, nil
	case ".md", ".markdown":
		return &MarkdownReader{}, nil
	case ".csv":
		return &CSVReader{}, nil
	case ".html", ".htm":
		return &HTMLReader{}, nil
	case ".pdf":
		return &PDFReader{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// numberPages wraps page texts as pages 1..n.
func numberPages(texts []string) []regdoc.Page {
	pages := make([]regdoc.Page, len(texts))
	for i, t := range texts {
		pages[i] = regdoc.Page{Number: i + 1, Text: t}
	}
	return pages
}

// splitFormFeeds splits on form feeds, dropping the empty tail left by a
// trailing feed.
func splitFormFeeds(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\f")
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
