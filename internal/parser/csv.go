package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/regchunk/internal/regdoc"
)

// CSVReader handles page exports with a "page,text" row layout. A header row
// is optional. Rows for the same page are joined with newlines, and page
// numbers missing from the export become empty pages.
type CSVReader struct{}

func (p *CSVReader) ReadPages(r io.Reader, filename string) ([]regdoc.Page, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	byPage := make(map[int][]string)
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("csv row %d: expected page,text columns", i+1)
		}
		n, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("csv row %d: page number %q: %w", i+1, rec[0], err)
		}
		if n < 1 {
			return nil, fmt.Errorf("csv row %d: page number must be positive, got %d", i+1, n)
		}
		byPage[n] = append(byPage[n], rec[1])
	}
	if len(byPage) == 0 {
		return nil, nil
	}

	last := slices.Max(slices.Collect(maps.Keys(byPage)))
	texts := make([]string, last)
	for n, rows := range byPage {
		texts[n-1] = strings.Join(rows, "\n")
	}
	return numberPages(texts), nil
}
