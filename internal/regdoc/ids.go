package regdoc

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Unknown stands in for any structural locator that was never seen.
	Unknown = "unknown"
	// NoSuffix is the section-suffix segment used when no section is known.
	NoSuffix = "xx"
	// CitationPrefix precedes the section number in citations.
	CitationPrefix = "§"
)

// Citation returns "§<section>" or Unknown.
func Citation(section string) string {
	if section == "" || section == Unknown {
		return Unknown
	}
	return CitationPrefix + section
}

// SectionSuffix returns the fractional part of a section number
// ("164.502" -> "502"), or NoSuffix when it cannot be derived.
func SectionSuffix(section string) string {
	whole, frac, ok := strings.Cut(section, ".")
	if !ok || !isDigits(whole) || !isDigits(frac) {
		return NoSuffix
	}
	return frac
}

// Prefix is the "<part>-<suffix>" stem shared by a block and all of its chunks.
func Prefix(part, section string) string {
	if part == "" {
		part = Unknown
	}
	return part + "-" + SectionSuffix(section)
}

// BaseID is the block-level identifier, always sequence 00.
func BaseID(part, section string) string {
	return FormatID(Prefix(part, section), 0)
}

// FormatID appends a zero-padded sequence to an id prefix.
func FormatID(prefix string, seq int) string {
	return fmt.Sprintf("%s-%02d", prefix, seq)
}

// PrefixOf drops the trailing sequence segment of an id.
func PrefixOf(id string) string {
	i := strings.LastIndex(id, "-")
	if i < 0 {
		return id
	}
	return id[:i]
}

// ParseID splits an id into its prefix and numeric sequence.
func ParseID(id string) (prefix string, seq int, err error) {
	i := strings.LastIndex(id, "-")
	if i < 0 {
		return "", 0, fmt.Errorf("chunk id %q: missing sequence", id)
	}
	seq, err = strconv.Atoi(id[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("chunk id %q: %w", id, err)
	}
	return id[:i], seq, nil
}

// IDAllocator hands out chunk sequences per id prefix for one document.
// A prefix seen for the first time starts at 1; a prefix reused by a later,
// non-contiguous block continues after the highest sequence already issued
// so ids stay unique across the document.
type IDAllocator struct {
	last map[string]int
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{last: make(map[string]int)}
}

// Next returns the next id for prefix.
func (a *IDAllocator) Next(prefix string) (string, int) {
	a.last[prefix]++
	seq := a.last[prefix]
	return FormatID(prefix, seq), seq
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
