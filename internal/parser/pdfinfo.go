package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DocumentInfo summarizes a source document for display.
type DocumentInfo struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Size        string `json:"size" yaml:"size"`
	Pages       int    `json:"pages" yaml:"pages"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	Subject     string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Creator     string `json:"creator,omitempty" yaml:"creator,omitempty"`
	Description string `json:"description" yaml:"description"`
	Filename    string `json:"filename" yaml:"filename"`
}

// PDFInfo reads page count and document metadata from a PDF on disk. The
// name falls back to the file name without extension when the PDF carries
// no title.
func PDFInfo(path string) (*DocumentInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	pages, err := pdfPageCount(path)
	if err != nil {
		return nil, fmt.Errorf("count pages of %s: %w", path, err)
	}

	base := filepath.Base(path)
	info := &DocumentInfo{
		Name:     strings.TrimSuffix(base, filepath.Ext(base)),
		Type:     "PDF",
		Size:     fmt.Sprintf("%.1fKB", float64(st.Size())/1024),
		Pages:    pages,
		Filename: base,
	}

	if meta, err := pdfMetadata(path); err == nil {
		if meta["Title"] != "" {
			info.Name = meta["Title"]
		}
		info.Author = meta["Author"]
		info.Subject = meta["Subject"]
		info.Creator = meta["Creator"]
	}
	info.Description = describe(info)
	return info, nil
}

func pdfPageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(f, conf)
}

// pdfMetadata reads the trailer's document information dictionary.
func pdfMetadata(path string) (map[string]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	infoDict := reader.Trailer().Key("Info")
	meta := make(map[string]string)
	for _, key := range []string{"Title", "Author", "Subject", "Creator"} {
		meta[key] = strings.TrimSpace(infoDict.Key(key).Text())
	}
	return meta, nil
}

func describe(info *DocumentInfo) string {
	var parts []string
	if info.Author != "" {
		parts = append(parts, "Author: "+info.Author)
	}
	if info.Subject != "" {
		parts = append(parts, "Subject: "+info.Subject)
	}
	if info.Creator != "" {
		parts = append(parts, "Created with: "+info.Creator)
	}
	if len(parts) == 0 {
		return "PDF document"
	}
	return strings.Join(parts, " | ")
}
